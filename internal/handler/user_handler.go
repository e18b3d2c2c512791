package handler

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"Lee_Forum/internal/model"
	"Lee_Forum/internal/service"
)

type UserHandler struct {
	svc      *service.UserService
	mediaURL string
	log      *zap.Logger
}

type userView struct {
	*model.User
	AvatarURL string `json:"avatar_url"`
}

type VerifyPasswordReq struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func NewUserHandler(svc *service.UserService, mediaURL string, log *zap.Logger) *UserHandler {
	return &UserHandler{svc: svc, mediaURL: mediaURL, log: log}
}

func (h *UserHandler) view(u *model.User) userView {
	return userView{User: u, AvatarURL: u.AvatarURL(h.mediaURL)}
}

func (h *UserHandler) Create(c *gin.Context) {
	var req service.CreateUserInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid params")
		return
	}
	u, err := h.svc.CreateUser(c.Request.Context(), req)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	created(c, h.view(u))
}

func (h *UserHandler) Get(c *gin.Context) {
	id, good := paramID(c, "id")
	if !good {
		return
	}
	u, err := h.svc.GetUser(c.Request.Context(), id)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	ok(c, h.view(u))
}

func (h *UserHandler) GetByUsername(c *gin.Context) {
	u, err := h.svc.GetUserByUsername(c.Request.Context(), c.Param("username"))
	if err != nil {
		fail(c, h.log, err)
		return
	}
	ok(c, h.view(u))
}

func (h *UserHandler) Update(c *gin.Context) {
	id, good := paramID(c, "id")
	if !good {
		return
	}
	var req service.UpdateUserInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid params")
		return
	}
	u, err := h.svc.UpdateUser(c.Request.Context(), id, req)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	ok(c, h.view(u))
}

func (h *UserHandler) Delete(c *gin.Context) {
	id, good := paramID(c, "id")
	if !good {
		return
	}
	if err := h.svc.DeleteUser(c.Request.Context(), id); err != nil {
		fail(c, h.log, err)
		return
	}
	ok(c, nil)
}

// VerifyPassword 只返回用户信息，不签发 token
func (h *UserHandler) VerifyPassword(c *gin.Context) {
	var req VerifyPasswordReq
	if err := c.ShouldBindJSON(&req); err != nil || req.Username == "" {
		badRequest(c, "invalid params")
		return
	}
	u, err := h.svc.VerifyPassword(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	ok(c, h.view(u))
}
