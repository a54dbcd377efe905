package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/healththreads/timeline/internal/service"
	"github.com/healththreads/timeline/pkg/response"
)

const ContextUserIDKey = "user_id"

// Auth 解析 Bearer token 并注入 user_id；失败直接 401
func Auth(users *service.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.Unauthorized(c, "missing authorization header")
			return
		}
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			response.Unauthorized(c, "invalid authorization format")
			return
		}
		claims, err := users.ParseToken(parts[1])
		if err != nil {
			response.Unauthorized(c, "invalid or expired token")
			return
		}
		c.Set(ContextUserIDKey, claims.UserID)
		c.Next()
	}
}

// CurrentUserID 读取 Auth 注入的调用者身份；未注入返回空串
func CurrentUserID(c *gin.Context) string {
	v, ok := c.Get(ContextUserIDKey)
	if !ok {
		return ""
	}
	id, _ := v.(string)
	return id
}
