package handlers

import (
	"net/http"

	"echonews/internal/services"

	"github.com/gin-gonic/gin"
)

type AdminHandler struct {
	guard    *services.Guard
	importer *services.FeedImporter
	users    *services.UserService
	votes    *services.VoteService
}

func NewAdminHandler(app *services.App) *AdminHandler {
	return &AdminHandler{guard: app.Guard, importer: app.Importer, users: app.Users, votes: app.Votes}
}

type importRequest struct {
	FeedURL  string `json:"feed_url" binding:"required"`
	Category string `json:"category" binding:"required"`
}

// Import 导入 RSS/Atom 订阅源，条目进入待审核队列
func (h *AdminHandler) Import(c *gin.Context) {
	var req importRequest
	if !bindJSON(c, &req) {
		return
	}
	result, err := h.importer.Import(c.Request.Context(), currentUser(c), req.FeedURL, req.Category)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *AdminHandler) GrantModerator(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.guard.Require(currentUser(c), services.ObjModerator, services.ActGrant); err != nil {
		respondError(c, err)
		return
	}
	if _, err := h.users.GetByID(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	if err := h.guard.GrantModerator(currentUser(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user_id": id, "moderator": true})
}

func (h *AdminHandler) RevokeModerator(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.guard.RevokeModerator(currentUser(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user_id": id, "moderator": false})
}

// Recount 按投票记录重建文章计数
func (h *AdminHandler) Recount(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	result, err := h.votes.Recount(c.Request.Context(), currentUser(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
