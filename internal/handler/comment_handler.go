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

type CommentHandler struct {
	service service.CommentService
}

func NewCommentHandler(service service.CommentService) *CommentHandler {
	return &CommentHandler{service: service}
}

func (h *CommentHandler) Create(c *gin.Context) {
	titleID, reviewID, ok := reviewPath(c)
	if !ok {
		return
	}

	var req dto.CreateCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	comment, err := h.service.Create(c.Request.Context(), response.GetActor(c), titleID, reviewID, req)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusCreated, comment)
}

func (h *CommentHandler) Get(c *gin.Context) {
	titleID, reviewID, commentID, ok := commentPath(c)
	if !ok {
		return
	}

	comment, err := h.service.Get(c.Request.Context(), titleID, reviewID, commentID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, comment)
}

func (h *CommentHandler) List(c *gin.Context) {
	titleID, reviewID, ok := reviewPath(c)
	if !ok {
		return
	}

	var filter dto.PageFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	comments, err := h.service.ListByReview(c.Request.Context(), titleID, reviewID, filter)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, comments)
}

func (h *CommentHandler) Update(c *gin.Context) {
	titleID, reviewID, commentID, ok := commentPath(c)
	if !ok {
		return
	}

	var req dto.UpdateCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	comment, err := h.service.Update(c.Request.Context(), response.GetActor(c), titleID, reviewID, commentID, req)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, comment)
}

func (h *CommentHandler) Delete(c *gin.Context) {
	titleID, reviewID, commentID, ok := commentPath(c)
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), response.GetActor(c), titleID, reviewID, commentID); err != nil {
		response.ResponseError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func commentPath(c *gin.Context) (titleID, reviewID, commentID uuid.UUID, ok bool) {
	titleID, reviewID, ok = reviewPath(c)
	if !ok {
		return uuid.Nil, uuid.Nil, uuid.Nil, false
	}
	commentID, err := uuid.Parse(c.Param("comment_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid comment id"})
		return uuid.Nil, uuid.Nil, uuid.Nil, false
	}
	return titleID, reviewID, commentID, true
}
