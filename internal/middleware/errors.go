package middleware

import (
	"log/slog"

	"echonews/internal/apperr"

	"github.com/gin-gonic/gin"
)

// AbortWithError writes the JSON error envelope for err and stops the chain.
// Internal details are logged, never returned.
func AbortWithError(c *gin.Context, err error) {
	kind := apperr.KindOf(err)
	if kind == apperr.Internal {
		slog.Error("request failed",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"request_id", c.GetString(RequestIDKey),
			"error", err,
		)
	}
	c.AbortWithStatusJSON(kind.HTTPStatus(), gin.H{
		"error": gin.H{
			"kind":    kind.String(),
			"message": apperr.Message(err),
		},
	})
}
