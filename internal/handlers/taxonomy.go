package handlers

import (
	"net/http"

	"echonews/internal/services"
	"echonews/internal/utils"

	"github.com/gin-gonic/gin"
)

type TaxonomyHandler struct {
	taxonomy *services.TaxonomyService
}

func NewTaxonomyHandler(app *services.App) *TaxonomyHandler {
	return &TaxonomyHandler{taxonomy: app.Taxonomy}
}

func (h *TaxonomyHandler) Categories(c *gin.Context) {
	categories, err := h.taxonomy.Categories(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"categories": categories})
}

// Tags 热门标签，默认 50 个
func (h *TaxonomyHandler) Tags(c *gin.Context) {
	limit := utils.StringToInt(c.DefaultQuery("limit", "50"), 50)
	if limit < 1 || limit > utils.MaxPageSize {
		limit = 50
	}
	tags, err := h.taxonomy.Tags(c.Request.Context(), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tags": tags})
}
