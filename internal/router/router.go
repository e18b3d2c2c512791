package router

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"Lee_Forum/internal/handler"
	"Lee_Forum/internal/middleware"
	"Lee_Forum/internal/model"
	"Lee_Forum/internal/service"
)

// Services 路由依赖的业务服务
type Services struct {
	Users    *service.UserService
	Boards   *service.BoardService
	Posts    *service.PostService
	Votes    *service.VoteService
	MediaURL string
}

func InitRouter(svc Services, log *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(middleware.Recovery(log), middleware.AccessLog(log))

	user := handler.NewUserHandler(svc.Users, svc.MediaURL, log)
	board := handler.NewBoardHandler(svc.Boards, log)
	post := handler.NewPostHandler(svc.Posts, log)
	vote := handler.NewVoteHandler(svc.Votes, log)
	admin := handler.NewAdminHandler(svc.Users, svc.Boards, svc.Posts, svc.Votes, log)

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"code": 0, "msg": "ok", "data": nil})
	})

	// 用户相关接口
	userGroup := r.Group("/api/users")
	{
		userGroup.POST("", user.Create)
		userGroup.POST("/verify-password", user.VerifyPassword)
		userGroup.GET("/by-name/:username", user.GetByUsername)
		userGroup.GET("/:id", user.Get)
		userGroup.PATCH("/:id", user.Update)
		userGroup.DELETE("/:id", user.Delete)
	}

	// 版块相关接口
	boardGroup := r.Group("/api/boards")
	{
		boardGroup.POST("", board.Create)
		boardGroup.GET("/:path", board.Get)
		boardGroup.GET("/:path/post-count", board.PostCount)
		boardGroup.PATCH("/:path", board.Update)
		boardGroup.DELETE("/:path", board.Delete)
	}

	// 帖子相关接口
	postGroup := r.Group("/api/posts")
	{
		postGroup.POST("", post.Create)
		postGroup.GET("", post.List)
		postGroup.GET("/:id", post.Get)
		postGroup.GET("/:id/votes", post.VoteCounts)
		postGroup.PATCH("/:id", post.Update)
		postGroup.DELETE("/:id", post.Delete)
	}

	// 投票相关接口
	voteGroup := r.Group("/api/votes")
	{
		voteGroup.POST("", vote.Cast)
		voteGroup.DELETE("", vote.Retract)
		voteGroup.GET("/:id/describe", vote.Describe)
	}

	// 后台列表，仅 STAFF / SUPER
	adminGroup := r.Group("/api/admin")
	adminGroup.Use(middleware.RequirePermission(svc.Users, model.PermissionSuper, model.PermissionStaff))
	{
		adminGroup.GET("/users", admin.Users)
		adminGroup.GET("/boards", admin.Boards)
		adminGroup.GET("/posts", admin.Posts)
		adminGroup.GET("/votes", admin.Votes)
	}

	return r
}
