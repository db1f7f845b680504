package handlers

import (
	"net/http"

	"echonews/internal/services"
	"echonews/internal/utils"

	"github.com/gin-gonic/gin"
)

type SearchHandler struct {
	search *services.SearchService
}

func NewSearchHandler(app *services.App) *SearchHandler {
	return &SearchHandler{search: app.Search}
}

func (h *SearchHandler) Search(c *gin.Context) {
	limit := utils.StringToInt(c.DefaultQuery("limit", "20"), -1)
	result, err := h.search.Search(c.Request.Context(), c.Query("q"), c.Query("type"), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"query":    result.Query,
		"articles": articleViews(result.Articles),
		"users":    result.Users,
		"comments": result.Comments,
	})
}
