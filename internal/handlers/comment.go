package handlers

import (
	"html/template"
	"net/http"

	"echonews/internal/services"
	"echonews/internal/utils"

	"github.com/gin-gonic/gin"
)

type CommentHandler struct {
	comments *services.CommentService
}

func NewCommentHandler(app *services.App) *CommentHandler {
	return &CommentHandler{comments: app.Comments}
}

// commentView adds the rendered text to a thread node.
type commentView struct {
	*services.CommentNode
	TextHTML template.HTML `json:"text_html"`
	Replies  []commentView `json:"replies"`
}

func newCommentViews(nodes []*services.CommentNode) []commentView {
	out := make([]commentView, len(nodes))
	for i, n := range nodes {
		out[i] = commentView{
			CommentNode: n,
			Replies:     newCommentViews(n.Replies),
		}
		if !n.IsDeleted {
			out[i].TextHTML = utils.RenderMarkdown(n.Text)
		}
	}
	return out
}

type commentRequest struct {
	ArticleID uint   `json:"article_id" binding:"required"`
	ParentID  *uint  `json:"parent_id"`
	Text      string `json:"text" binding:"required"`
}

func (h *CommentHandler) Create(c *gin.Context) {
	var req commentRequest
	if !bindJSON(c, &req) {
		return
	}
	comment, err := h.comments.Create(c.Request.Context(), currentUser(c), services.CreateCommentInput{
		ArticleID: req.ArticleID,
		ParentID:  req.ParentID,
		Text:      req.Text,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, comment)
}

func (h *CommentHandler) ListByArticle(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	thread, err := h.comments.Thread(c.Request.Context(), currentUser(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"comments": newCommentViews(thread)})
}

type commentUpdateRequest struct {
	Text string `json:"text" binding:"required"`
}

func (h *CommentHandler) Update(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req commentUpdateRequest
	if !bindJSON(c, &req) {
		return
	}
	comment, err := h.comments.Update(c.Request.Context(), currentUser(c), id, req.Text)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, comment)
}

func (h *CommentHandler) Delete(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.comments.Delete(c.Request.Context(), currentUser(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
