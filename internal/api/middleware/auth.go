package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/sakugabase/internal/service"
	"github.com/d60-Lab/sakugabase/pkg/response"
)

const actorKey = "actor"

// TokenParser 校验 bearer token
type TokenParser interface {
	ParseToken(token string) (*service.Claims, error)
}

func bearer(c *gin.Context) string {
	h := c.GetHeader("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "Bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

// AuthRequired 必须携带有效 token
func AuthRequired(p TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearer(c)
		if token == "" {
			response.Unauthorized(c, "authentication required")
			return
		}
		claims, err := p.ParseToken(token)
		if err != nil {
			response.Error(c, err)
			return
		}
		setActor(c, claims)
		c.Next()
	}
}

// OptionalAuth 有合法 token 时识别用户，否则按匿名处理
func OptionalAuth(p TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token := bearer(c); token != "" {
			if claims, err := p.ParseToken(token); err == nil {
				setActor(c, claims)
			}
		}
		c.Next()
	}
}

func setActor(c *gin.Context, claims *service.Claims) {
	c.Set(actorKey, service.Actor{UserID: claims.Subject, Role: claims.Role})
	c.Set("user_id", claims.Subject)
}

// ActorFrom 取当前请求的用户；未登录返回零值
func ActorFrom(c *gin.Context) service.Actor {
	if v, ok := c.Get(actorKey); ok {
		if a, ok := v.(service.Actor); ok {
			return a
		}
	}
	return service.Actor{}
}
