package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"anoa.com/titlereview/internal/policy"
	"anoa.com/titlereview/internal/repository"
	"anoa.com/titlereview/pkg/response"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type AuthMiddleware struct {
	userRepo repository.UserRepository
	secret   string
}

func NewAuthMiddleware(userRepo repository.UserRepository, secret string) *AuthMiddleware {
	return &AuthMiddleware{
		userRepo: userRepo,
		secret:   secret,
	}
}

// RequireAuth rejects anonymous requests. The actor is resolved from the
// database on every request so role changes take effect immediately.
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := bearerToken(c)
		if tokenString == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "authorization required"})
			c.Abort()
			return
		}

		actor, err := m.resolveActor(c, tokenString)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			c.Abort()
			return
		}

		response.SetActor(c, actor)
		c.Next()
	}
}

// OptionalAuth resolves the actor when a token is present and falls back
// to the anonymous actor when it is not. A token that is present but
// invalid is still rejected.
func (m *AuthMiddleware) OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := bearerToken(c)
		if tokenString == "" {
			response.SetActor(c, policy.Actor{})
			c.Next()
			return
		}

		actor, err := m.resolveActor(c, tokenString)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			c.Abort()
			return
		}

		response.SetActor(c, actor)
		c.Next()
	}
}

func (m *AuthMiddleware) resolveActor(c *gin.Context, tokenString string) (policy.Actor, error) {
	token, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(m.secret), nil
	})
	if err != nil || !token.Valid {
		return policy.Actor{}, fmt.Errorf("invalid or expired token")
	}

	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok {
		return policy.Actor{}, fmt.Errorf("invalid token claims")
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return policy.Actor{}, fmt.Errorf("invalid token subject")
	}

	user, err := m.userRepo.FindByID(c.Request.Context(), userID)
	if err != nil {
		return policy.Actor{}, fmt.Errorf("user not found")
	}

	return policy.Actor{
		ID:            user.ID,
		Role:          user.Role,
		IsSuperuser:   user.IsSuperuser,
		Authenticated: true,
	}, nil
}

func bearerToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return ""
	}
	parts := strings.Split(authHeader, " ")
	if len(parts) == 2 && parts[0] == "Bearer" {
		return parts[1]
	}
	return ""
}
