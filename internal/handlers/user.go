package handlers

import (
	"net/http"

	"echonews/internal/services"

	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	users    *services.UserService
	articles *services.ArticleService
	comments *services.CommentService
	activity *services.ActivityService
}

func NewUserHandler(app *services.App) *UserHandler {
	return &UserHandler{
		users:    app.Users,
		articles: app.Articles,
		comments: app.Comments,
		activity: app.Activity,
	}
}

// Profile 用户公开主页，只有本人能看到邮箱
func (h *UserHandler) Profile(c *gin.Context) {
	profile, err := h.users.Profile(c.Request.Context(), c.Param("username"))
	if err != nil {
		respondError(c, err)
		return
	}
	if viewer := currentUser(c); viewer == nil || viewer.ID != profile.User.ID {
		profile.User.Email = ""
	}
	c.JSON(http.StatusOK, profile)
}

func (h *UserHandler) Me(c *gin.Context) {
	user := currentUser(c)
	profile, err := h.users.Profile(c.Request.Context(), user.Username)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

type profileRequest struct {
	DisplayName *string `json:"display_name"`
	Bio         *string `json:"bio"`
	AvatarURL   *string `json:"avatar_url"`
}

func (h *UserHandler) UpdateMe(c *gin.Context) {
	var req profileRequest
	if !bindJSON(c, &req) {
		return
	}
	profile, err := h.users.UpdateProfile(c.Request.Context(), currentUser(c), services.ProfileInput{
		DisplayName: req.DisplayName,
		Bio:         req.Bio,
		AvatarURL:   req.AvatarURL,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

func (h *UserHandler) Preferences(c *gin.Context) {
	pref, err := h.users.Preferences(c.Request.Context(), currentUser(c).ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, pref)
}

type preferencesRequest struct {
	EmailNotifications *bool   `json:"email_notifications"`
	DarkMode           *bool   `json:"dark_mode"`
	DefaultView        *string `json:"default_view"`
}

func (h *UserHandler) UpdatePreferences(c *gin.Context) {
	var req preferencesRequest
	if !bindJSON(c, &req) {
		return
	}
	pref, err := h.users.UpdatePreferences(c.Request.Context(), currentUser(c).ID, services.PreferencesInput{
		EmailNotifications: req.EmailNotifications,
		DarkMode:           req.DarkMode,
		DefaultView:        req.DefaultView,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, pref)
}

func (h *UserHandler) Activity(c *gin.Context) {
	p, ok := pageParams(c)
	if !ok {
		return
	}
	items, page, err := h.activity.List(c.Request.Context(), currentUser(c).ID, p)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"activity": items, "pagination": page})
}

// MyArticles lists the caller's articles in every status.
func (h *UserHandler) MyArticles(c *gin.Context) {
	p, ok := pageParams(c)
	if !ok {
		return
	}
	articles, page, err := h.articles.ListByUser(c.Request.Context(), currentUser(c).ID, p)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"articles": articleViews(articles), "pagination": page})
}

func (h *UserHandler) MyComments(c *gin.Context) {
	p, ok := pageParams(c)
	if !ok {
		return
	}
	comments, page, err := h.comments.ListByUser(c.Request.Context(), currentUser(c).ID, p)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"comments": comments, "pagination": page})
}
