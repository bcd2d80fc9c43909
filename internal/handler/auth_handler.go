package handler

import (
	"net/http"

	"anoa.com/titlereview/internal/dto"
	"anoa.com/titlereview/internal/service"
	"anoa.com/titlereview/pkg/response"
	"anoa.com/titlereview/pkg/validator"
	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	service service.AuthService
}

func NewAuthHandler(service service.AuthService) *AuthHandler {
	return &AuthHandler{service: service}
}

// Signup answers 200 both for a fresh registration and for a retry with
// the same pair, so callers cannot enumerate usernames through the
// status code alone.
func (h *AuthHandler) Signup(c *gin.Context) {
	var req dto.SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	if err := h.service.Signup(c.Request.Context(), req); err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"username": req.Username, "email": req.Email})
}

func (h *AuthHandler) Token(c *gin.Context) {
	var req dto.TokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	token, err := h.service.Token(c.Request.Context(), req)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, token)
}
