package middleware

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"Lee_Forum/internal/model"
	"Lee_Forum/internal/pkg"
)

const (
	ActingUserHeader = "X-User-ID"
	ContextUserKey   = "acting_user"
)

// UserLookup 按 id 取用户，service.UserService 满足该接口
type UserLookup interface {
	GetUser(ctx context.Context, id uint64) (*model.User, error)
}

// RequirePermission 校验请求头中的操作人是否启用且具有指定角色之一。
// X-User-ID 原样信任：必须部署在会剥离并重写该头的网关之后，
// 服务直接暴露时任何客户端都能冒充管理员
func RequirePermission(users UserLookup, allowed ...model.Permission) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.ParseUint(c.GetHeader(ActingUserHeader), 10, 64)
		if err != nil || id == 0 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"code": http.StatusUnauthorized, "msg": "missing " + ActingUserHeader, "data": nil})
			return
		}

		u, err := users.GetUser(c.Request.Context(), id)
		if err != nil {
			if errors.Is(err, pkg.ErrNotFound) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"code": http.StatusUnauthorized, "msg": "unknown user", "data": nil})
				return
			}
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"code": http.StatusInternalServerError, "msg": "internal error", "data": nil})
			return
		}

		if !u.IsActive || !permitted(u.Permission, allowed) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"code": http.StatusForbidden, "msg": "permission denied", "data": nil})
			return
		}

		c.Set(ContextUserKey, u)
		c.Next()
	}
}

func permitted(p model.Permission, allowed []model.Permission) bool {
	for _, a := range allowed {
		if p == a {
			return true
		}
	}
	return false
}
