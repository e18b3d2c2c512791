package handler

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"Lee_Forum/internal/service"
)

type BoardHandler struct {
	svc *service.BoardService
	log *zap.Logger
}

func NewBoardHandler(svc *service.BoardService, log *zap.Logger) *BoardHandler {
	return &BoardHandler{svc: svc, log: log}
}

func (h *BoardHandler) Create(c *gin.Context) {
	var req service.CreateBoardInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid params")
		return
	}
	b, err := h.svc.CreateBoard(c.Request.Context(), req)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	created(c, b)
}

func (h *BoardHandler) Get(c *gin.Context) {
	b, err := h.svc.GetBoard(c.Request.Context(), c.Param("path"))
	if err != nil {
		fail(c, h.log, err)
		return
	}
	ok(c, b)
}

func (h *BoardHandler) Update(c *gin.Context) {
	var req service.UpdateBoardInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid params")
		return
	}
	b, err := h.svc.UpdateBoard(c.Request.Context(), c.Param("path"), req)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	ok(c, b)
}

func (h *BoardHandler) Delete(c *gin.Context) {
	if err := h.svc.DeleteBoard(c.Request.Context(), c.Param("path")); err != nil {
		fail(c, h.log, err)
		return
	}
	ok(c, nil)
}

func (h *BoardHandler) PostCount(c *gin.Context) {
	n, err := h.svc.PostCount(c.Request.Context(), c.Param("path"))
	if err != nil {
		fail(c, h.log, err)
		return
	}
	ok(c, gin.H{"path": c.Param("path"), "post_count": n})
}
