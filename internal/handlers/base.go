package handlers

import (
	"echonews/internal/apperr"
	"echonews/internal/middleware"
	"echonews/internal/models"
	"echonews/internal/utils"

	"github.com/gin-gonic/gin"
)

// respondError writes the JSON error envelope.
func respondError(c *gin.Context, err error) {
	middleware.AbortWithError(c, err)
}

func currentUser(c *gin.Context) *models.User {
	return middleware.CurrentUser(c)
}

// bindJSON decodes the body into obj and reports InvalidArgument on failure.
func bindJSON(c *gin.Context, obj any) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		respondError(c, apperr.Wrap(apperr.InvalidArgument, err, "invalid request body: "+err.Error()))
		return false
	}
	return true
}

// paramID parses a positive numeric path parameter.
func paramID(c *gin.Context, name string) (uint, bool) {
	id, ok := utils.ParseID(c.Param(name))
	if !ok {
		respondError(c, apperr.InvalidArgumentf("invalid %s", name))
		return 0, false
	}
	return id, true
}

// pageParams reads ?page&limit with the default page size.
func pageParams(c *gin.Context) (utils.PaginationParams, bool) {
	page := utils.StringToInt(c.DefaultQuery("page", "1"), -1)
	limit := utils.StringToInt(c.DefaultQuery("limit", "10"), -1)
	p, err := utils.NewPaginationParams(page, limit)
	if err != nil {
		respondError(c, err)
		return utils.PaginationParams{}, false
	}
	return p, true
}
