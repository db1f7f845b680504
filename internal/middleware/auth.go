package middleware

import (
	"context"
	"strings"

	"echonews/internal/apperr"
	"echonews/internal/models"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

const (
	CheckUserKey   = "user"
	SessionUserKey = "user_id"
)

// TokenParser resolves a bearer token to a user id.
type TokenParser interface {
	Parse(token string) (uint, error)
}

// UserLookup loads the user behind an identity.
type UserLookup interface {
	GetByID(ctx context.Context, id uint) (*models.User, error)
}

// LoadUser resolves the caller from the Authorization header first, then
// from the cookie session, and stores it under CheckUserKey. A bad bearer
// token is rejected; a stale session is ignored.
func LoadUser(tokens TokenParser, users UserLookup) gin.HandlerFunc {
	return func(c *gin.Context) {
		if header := c.GetHeader("Authorization"); header != "" {
			raw, ok := bearerToken(header)
			if !ok {
				AbortWithError(c, apperr.Unauthenticatedf("malformed authorization header"))
				return
			}
			id, err := tokens.Parse(raw)
			if err != nil {
				AbortWithError(c, err)
				return
			}
			user, err := users.GetByID(c.Request.Context(), id)
			if err != nil {
				if apperr.Is(err, apperr.NotFound) {
					err = apperr.Unauthenticatedf("user no longer exists")
				}
				AbortWithError(c, err)
				return
			}
			c.Set(CheckUserKey, user)
			c.Next()
			return
		}

		session := sessions.Default(c)
		if id, ok := session.Get(SessionUserKey).(uint); ok && id != 0 {
			if user, err := users.GetByID(c.Request.Context(), id); err == nil {
				c.Set(CheckUserKey, user)
			}
		}
		c.Next()
	}
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// AuthRequired ensures a user is logged in
func AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if CurrentUser(c) == nil {
			AbortWithError(c, apperr.Unauthenticatedf("authentication required"))
			return
		}
		c.Next()
	}
}

// CurrentUser returns the caller, or nil for anonymous requests.
func CurrentUser(c *gin.Context) *models.User {
	v, ok := c.Get(CheckUserKey)
	if !ok {
		return nil
	}
	user, _ := v.(*models.User)
	return user
}
