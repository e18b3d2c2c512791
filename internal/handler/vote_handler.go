package handler

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"Lee_Forum/internal/service"
)

type VoteHandler struct {
	svc *service.VoteService
	log *zap.Logger
}

type CastVoteReq struct {
	UserID    uint64 `json:"user_id"`
	PostID    uint64 `json:"post_id"`
	IsUpvoted *bool  `json:"is_upvoted"`
}

func NewVoteHandler(svc *service.VoteService, log *zap.Logger) *VoteHandler {
	return &VoteHandler{svc: svc, log: log}
}

// Cast is_upvoted 不传时按赞成处理
func (h *VoteHandler) Cast(c *gin.Context) {
	var req CastVoteReq
	if err := c.ShouldBindJSON(&req); err != nil || req.UserID == 0 || req.PostID == 0 {
		badRequest(c, "invalid params")
		return
	}
	v, err := h.svc.CastVote(c.Request.Context(), req.UserID, req.PostID, req.IsUpvoted)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	created(c, v)
}

// Retract DELETE /api/votes?user_id=&post_id=
func (h *VoteHandler) Retract(c *gin.Context) {
	userID, good := queryUint(c, "user_id")
	if !good {
		return
	}
	postID, good := queryUint(c, "post_id")
	if !good {
		return
	}
	if userID == 0 || postID == 0 {
		badRequest(c, "user_id and post_id are required")
		return
	}
	v, err := h.svc.RetractVote(c.Request.Context(), userID, postID)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	ok(c, v)
}

func (h *VoteHandler) Describe(c *gin.Context) {
	id, good := paramID(c, "id")
	if !good {
		return
	}
	label, err := h.svc.Describe(c.Request.Context(), id)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	ok(c, gin.H{"id": id, "label": label})
}
