package handler

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"Lee_Forum/internal/repository/mysql"
	"Lee_Forum/internal/service"
)

type PostHandler struct {
	svc *service.PostService
	log *zap.Logger
}

func NewPostHandler(svc *service.PostService, log *zap.Logger) *PostHandler {
	return &PostHandler{svc: svc, log: log}
}

func (h *PostHandler) Create(c *gin.Context) {
	var req service.CreatePostInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid params")
		return
	}
	p, err := h.svc.CreatePost(c.Request.Context(), req)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	created(c, p)
}

func (h *PostHandler) Get(c *gin.Context) {
	id, good := paramID(c, "id")
	if !good {
		return
	}
	p, err := h.svc.GetPost(c.Request.Context(), id)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	ok(c, p)
}

// List 按版块过滤的帖子列表，页码分页
func (h *PostHandler) List(c *gin.Context) {
	page, size := pageParams(c)
	list, err := h.svc.ListPosts(c.Request.Context(), mysql.PostFilter{BoardPath: c.Query("board")}, page, size)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	ok(c, list)
}

func (h *PostHandler) Update(c *gin.Context) {
	id, good := paramID(c, "id")
	if !good {
		return
	}
	var req service.UpdatePostInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid params")
		return
	}
	p, err := h.svc.UpdatePost(c.Request.Context(), id, req)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	ok(c, p)
}

func (h *PostHandler) Delete(c *gin.Context) {
	id, good := paramID(c, "id")
	if !good {
		return
	}
	if err := h.svc.DeletePost(c.Request.Context(), id); err != nil {
		fail(c, h.log, err)
		return
	}
	ok(c, nil)
}

// VoteCounts 读缓存的赞成/反对数
func (h *PostHandler) VoteCounts(c *gin.Context) {
	id, good := paramID(c, "id")
	if !good {
		return
	}
	counts, err := h.svc.VoteCounts(c.Request.Context(), id)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	ok(c, counts)
}
