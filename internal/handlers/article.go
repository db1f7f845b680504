package handlers

import (
	"html/template"
	"net/http"

	"echonews/internal/models"
	"echonews/internal/services"
	"echonews/internal/utils"

	"github.com/gin-gonic/gin"
)

type ArticleHandler struct {
	articles   *services.ArticleService
	ranking    *services.RankingService
	votes      *services.VoteService
	moderation *services.ModerationService
}

func NewArticleHandler(app *services.App) *ArticleHandler {
	return &ArticleHandler{
		articles:   app.Articles,
		ranking:    app.Ranking,
		votes:      app.Votes,
		moderation: app.Moderation,
	}
}

// articleView is the public shape of an article.
type articleView struct {
	*models.Article
	Tags            []string         `json:"tags"`
	Score           int              `json:"score"`
	Username        string           `json:"username"`
	DescriptionHTML template.HTML    `json:"description_html"`
	UserVote        *models.VoteType `json:"user_vote,omitempty"`
}

func newArticleView(a *models.Article) articleView {
	return articleView{
		Article:         a,
		Tags:            a.TagNames(),
		Score:           a.Score(),
		Username:        a.User.Username,
		DescriptionHTML: utils.RenderMarkdown(a.Description),
	}
}

func articleViews(articles []models.Article) []articleView {
	out := make([]articleView, len(articles))
	for i := range articles {
		out[i] = newArticleView(&articles[i])
	}
	return out
}

func (h *ArticleHandler) List(c *gin.Context) {
	q := services.ListQuery{
		Category:  c.Query("category"),
		Tag:       c.Query("tag"),
		Timeframe: c.Query("timeframe"),
		Status:    c.Query("status"),
		Sort:      c.Query("sort"),
		Mode:      c.Query("mode"),
		Page:      utils.StringToInt(c.DefaultQuery("page", "1"), -1),
		Limit:     utils.StringToInt(c.DefaultQuery("limit", "10"), -1),
	}
	page, err := h.ranking.List(c.Request.Context(), currentUser(c), q)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"articles":   articleViews(page.Articles),
		"pagination": page.Pagination,
		"sort":       page.Sort,
		"mode":       page.Mode,
	})
}

type articleRequest struct {
	Title       string   `json:"title" binding:"required"`
	Description string   `json:"description" binding:"required"`
	URL         string   `json:"url"`
	Category    string   `json:"category" binding:"required"`
	Tags        []string `json:"tags"`
}

func (h *ArticleHandler) Create(c *gin.Context) {
	var req articleRequest
	if !bindJSON(c, &req) {
		return
	}
	article, err := h.articles.Submit(c.Request.Context(), currentUser(c), services.SubmitInput{
		Title:       req.Title,
		Description: req.Description,
		URL:         req.URL,
		Category:    req.Category,
		Tags:        req.Tags,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, newArticleView(article))
}

func (h *ArticleHandler) Get(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	viewer := currentUser(c)
	article, err := h.articles.Get(c.Request.Context(), viewer, id)
	if err != nil {
		respondError(c, err)
		return
	}

	view := newArticleView(article)
	if viewer != nil {
		state, err := h.votes.GetVote(c.Request.Context(), viewer, id)
		if err != nil {
			respondError(c, err)
			return
		}
		if state != models.VoteNone {
			view.UserVote = &state
		}
	}
	c.JSON(http.StatusOK, view)
}

type articleUpdateRequest struct {
	Title       *string   `json:"title"`
	Description *string   `json:"description"`
	URL         *string   `json:"url"`
	Category    *string   `json:"category"`
	Tags        *[]string `json:"tags"`
}

func (h *ArticleHandler) Update(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req articleUpdateRequest
	if !bindJSON(c, &req) {
		return
	}
	article, err := h.articles.Update(c.Request.Context(), currentUser(c), id, services.UpdateInput{
		Title:       req.Title,
		Description: req.Description,
		URL:         req.URL,
		Category:    req.Category,
		Tags:        req.Tags,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newArticleView(article))
}

func (h *ArticleHandler) Delete(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.articles.Delete(c.Request.Context(), currentUser(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type moderationRequest struct {
	ArticleID uint   `json:"article_id" binding:"required"`
	Action    string `json:"action" binding:"required"`
}

// Approve 审核文章 (approve / reject)
func (h *ArticleHandler) Approve(c *gin.Context) {
	var req moderationRequest
	if !bindJSON(c, &req) {
		return
	}
	article, err := h.moderation.Moderate(c.Request.Context(), currentUser(c), req.ArticleID, req.Action)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"article_id": article.ID,
		"status":     article.Status,
	})
}

func (h *ArticleHandler) Feature(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	article, err := h.moderation.ToggleFeatured(c.Request.Context(), currentUser(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"article_id":  article.ID,
		"is_featured": article.IsFeatured,
	})
}
