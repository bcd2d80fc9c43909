package handler

import (
	"net/http"

	"anoa.com/titlereview/internal/dto"
	"anoa.com/titlereview/internal/service"
	"anoa.com/titlereview/pkg/response"
	"anoa.com/titlereview/pkg/validator"
	"github.com/gin-gonic/gin"
)

// CatalogHandler serves one slug-addressed classifier collection;
// categories and genres each get an instance wired to their service.
type CatalogHandler struct {
	service service.SlugCatalogService
}

func NewCatalogHandler(service service.SlugCatalogService) *CatalogHandler {
	return &CatalogHandler{service: service}
}

func (h *CatalogHandler) Create(c *gin.Context) {
	var req dto.CreateSlugRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	item, err := h.service.Create(c.Request.Context(), response.GetActor(c), req)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusCreated, item)
}

func (h *CatalogHandler) List(c *gin.Context) {
	var filter dto.SearchFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	items, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, items)
}

func (h *CatalogHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), response.GetActor(c), c.Param("slug")); err != nil {
		response.ResponseError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
