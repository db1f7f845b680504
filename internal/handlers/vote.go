package handlers

import (
	"net/http"

	"echonews/internal/services"

	"github.com/gin-gonic/gin"
)

type VoteHandler struct {
	votes *services.VoteService
}

func NewVoteHandler(app *services.App) *VoteHandler {
	return &VoteHandler{votes: app.Votes}
}

type voteRequest struct {
	VoteType string `json:"vote_type" binding:"required"`
}

// Vote 设置当前用户对文章的投票 (upvote / downvote / none)
func (h *VoteHandler) Vote(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req voteRequest
	if !bindJSON(c, &req) {
		return
	}
	result, err := h.votes.CastVote(c.Request.Context(), currentUser(c), id, req.VoteType)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *VoteHandler) Current(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	state, err := h.votes.GetVote(c.Request.Context(), currentUser(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"article_id": id, "vote_type": state})
}

// Summary is open to anonymous callers.
func (h *VoteHandler) Summary(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	result, err := h.votes.Summary(c.Request.Context(), currentUser(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
