package middleware

import (
	"context"
	"errors"
	"strings"

	"github.com/gin-gonic/gin"

	"fitness-platform/internal/domain"
	resp "fitness-platform/internal/transport/http/response"
)

const KeyCaller = "caller"

// Authenticator 把 bearer token 换成调用方
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (domain.Caller, error)
}

// CallerOf 取当前调用方，未经 Authenticate 时为匿名
func CallerOf(c *gin.Context) domain.Caller {
	if v, ok := c.Get(KeyCaller); ok {
		if caller, ok := v.(domain.Caller); ok {
			return caller
		}
	}
	return domain.Anonymous()
}

// Authenticate 无 Authorization 头按匿名放行；带了但无效一律 401
func Authenticate(authn Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		ah := c.GetHeader("Authorization")
		if ah == "" {
			c.Set(KeyCaller, domain.Anonymous())
			c.Next()
			return
		}
		token, ok := strings.CutPrefix(ah, "Bearer ")
		if !ok || token == "" {
			resp.Abort(c, resp.CodeUnauthorized, "authorization header must contain a bearer token", nil)
			return
		}
		caller, err := authn.Authenticate(c.Request.Context(), token)
		switch {
		case errors.Is(err, domain.ErrUnauthorized):
			msg := strings.TrimPrefix(err.Error(), domain.ErrUnauthorized.Error()+": ")
			resp.Abort(c, resp.CodeUnauthorized, msg, nil)
			return
		case err != nil:
			_ = c.Error(err)
			resp.Abort(c, resp.CodeServerError, "internal error", nil)
			return
		}
		c.Set(KeyCaller, caller)
		c.Next()
	}
}

// RequireRole 整组接口限定角色（admin 引擎使用）
func RequireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		caller := CallerOf(c)
		if !caller.Authenticated() {
			resp.Abort(c, resp.CodeUnauthorized, "authentication credentials were not provided", nil)
			return
		}
		if caller.Role != role {
			resp.Abort(c, resp.CodeForbidden, "you do not have permission to perform this action", nil)
			return
		}
		c.Next()
	}
}
