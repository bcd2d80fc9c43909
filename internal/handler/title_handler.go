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

type TitleHandler struct {
	service service.TitleService
}

func NewTitleHandler(service service.TitleService) *TitleHandler {
	return &TitleHandler{service: service}
}

func (h *TitleHandler) Create(c *gin.Context) {
	var req dto.CreateTitleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	title, err := h.service.Create(c.Request.Context(), response.GetActor(c), req)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusCreated, title)
}

func (h *TitleHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("title_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid title id"})
		return
	}

	title, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, title)
}

func (h *TitleHandler) List(c *gin.Context) {
	var filter dto.TitleFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	titles, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, titles)
}

func (h *TitleHandler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("title_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid title id"})
		return
	}

	var req dto.UpdateTitleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	title, err := h.service.Update(c.Request.Context(), response.GetActor(c), id, req)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, title)
}

func (h *TitleHandler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("title_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid title id"})
		return
	}

	if err := h.service.Delete(c.Request.Context(), response.GetActor(c), id); err != nil {
		response.ResponseError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
