package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"Lee_Forum/internal/model"
	"Lee_Forum/internal/repository/mysql"
	"Lee_Forum/internal/service"
)

// AdminHandler 后台列表，只做等值过滤和分页
type AdminHandler struct {
	users  *service.UserService
	boards *service.BoardService
	posts  *service.PostService
	votes  *service.VoteService
	log    *zap.Logger
}

func NewAdminHandler(users *service.UserService, boards *service.BoardService, posts *service.PostService, votes *service.VoteService, log *zap.Logger) *AdminHandler {
	return &AdminHandler{users: users, boards: boards, posts: posts, votes: votes, log: log}
}

func (h *AdminHandler) Users(c *gin.Context) {
	page, size := pageParams(c)
	f := mysql.UserFilter{Permission: model.Permission(c.Query("permission"))}
	list, err := h.users.ListUsers(c.Request.Context(), f, page, size)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	ok(c, list)
}

func (h *AdminHandler) Boards(c *gin.Context) {
	page, size := pageParams(c)
	f := mysql.BoardFilter{WritePermission: model.Permission(c.Query("write_permission"))}
	list, err := h.boards.ListBoards(c.Request.Context(), f, page, size)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	ok(c, list)
}

func (h *AdminHandler) Posts(c *gin.Context) {
	page, size := pageParams(c)
	list, err := h.posts.ListPosts(c.Request.Context(), mysql.PostFilter{BoardPath: c.Query("board")}, page, size)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	ok(c, list)
}

func (h *AdminHandler) Votes(c *gin.Context) {
	var f mysql.VoteFilter
	var good bool
	if f.UserID, good = queryUint(c, "user_id"); !good {
		return
	}
	if f.PostID, good = queryUint(c, "post_id"); !good {
		return
	}
	if s := c.Query("is_upvoted"); s != "" {
		b, err := strconv.ParseBool(s)
		if err != nil {
			badRequest(c, "invalid is_upvoted")
			return
		}
		f.IsUpvoted = &b
	}
	page, size := pageParams(c)
	list, err := h.votes.ListVotes(c.Request.Context(), f, page, size)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	ok(c, list)
}
