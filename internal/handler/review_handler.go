package handler

import (
	"net/http"

	"anoa.com/titlereview/internal/dto"
	"anoa.com/titlereview/internal/service"
	"anoa.com/titlereview/pkg/response"
	"anoa.com/titlereview/pkg/validator"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type ReviewHandler struct {
	service service.ReviewService
}

func NewReviewHandler(service service.ReviewService) *ReviewHandler {
	return &ReviewHandler{service: service}
}

func (h *ReviewHandler) Create(c *gin.Context) {
	titleID, err := uuid.Parse(c.Param("title_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid title id"})
		return
	}

	var req dto.CreateReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	review, err := h.service.Create(c.Request.Context(), response.GetActor(c), titleID, req)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusCreated, review)
}

func (h *ReviewHandler) Get(c *gin.Context) {
	titleID, reviewID, ok := reviewPath(c)
	if !ok {
		return
	}

	review, err := h.service.Get(c.Request.Context(), titleID, reviewID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, review)
}

func (h *ReviewHandler) List(c *gin.Context) {
	titleID, err := uuid.Parse(c.Param("title_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid title id"})
		return
	}

	var filter dto.PageFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	reviews, err := h.service.ListByTitle(c.Request.Context(), titleID, filter)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, reviews)
}

func (h *ReviewHandler) Update(c *gin.Context) {
	titleID, reviewID, ok := reviewPath(c)
	if !ok {
		return
	}

	var req dto.UpdateReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	review, err := h.service.Update(c.Request.Context(), response.GetActor(c), titleID, reviewID, req)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, review)
}

func (h *ReviewHandler) Delete(c *gin.Context) {
	titleID, reviewID, ok := reviewPath(c)
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), response.GetActor(c), titleID, reviewID); err != nil {
		response.ResponseError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// reviewPath parses the nested title and review ids, writing the 400
// itself when either is malformed.
func reviewPath(c *gin.Context) (titleID, reviewID uuid.UUID, ok bool) {
	titleID, err := uuid.Parse(c.Param("title_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid title id"})
		return uuid.Nil, uuid.Nil, false
	}
	reviewID, err = uuid.Parse(c.Param("review_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid review id"})
		return uuid.Nil, uuid.Nil, false
	}
	return titleID, reviewID, true
}
