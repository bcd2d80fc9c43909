package response

import (
	"log"
	"net/http"

	"anoa.com/titlereview/internal/policy"
	"anoa.com/titlereview/pkg/apperror"
	"github.com/gin-gonic/gin"
)

const actorKey = "actor"

// SetActor stores the request's actor; the auth middleware is the only
// writer.
func SetActor(c *gin.Context, a policy.Actor) {
	c.Set(actorKey, a)
}

// GetActor retrieves the request's actor. Routes without auth middleware
// yield the anonymous actor.
func GetActor(c *gin.Context) policy.Actor {
	value, exists := c.Get(actorKey)
	if !exists {
		return policy.Actor{}
	}
	actor, ok := value.(policy.Actor)
	if !ok {
		return policy.Actor{}
	}
	return actor
}

// ResponseError standardized error response
func ResponseError(c *gin.Context, err error) {
	code := apperror.MapErrorToStatus(err)

	// Log internal errors
	if code == http.StatusInternalServerError {
		log.Printf("[Internal Error]: %v", err)
	}

	c.JSON(code, gin.H{"error": err.Error()})
}
