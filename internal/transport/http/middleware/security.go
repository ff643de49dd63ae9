package middleware

import (
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	resp "fitness-platform/internal/transport/http/response"
)

// AllowedHosts 校验 Host 头；列表为空或含 "*" 时不限制
func AllowedHosts(hosts []string) gin.HandlerFunc {
	allowed := map[string]struct{}{}
	for _, h := range hosts {
		h = strings.ToLower(strings.TrimSpace(h))
		if h == "*" {
			return func(c *gin.Context) { c.Next() }
		}
		if h != "" {
			allowed[h] = struct{}{}
		}
	}
	if len(allowed) == 0 {
		return func(c *gin.Context) { c.Next() }
	}
	return func(c *gin.Context) {
		host := c.Request.Host
		if h, _, err := net.SplitHostPort(host); err == nil {
			host = h
		}
		if _, ok := allowed[strings.ToLower(host)]; !ok {
			resp.Abort(c, resp.CodeBadRequest, "invalid host header", nil)
			return
		}
		c.Next()
	}
}

// SecureHeaders 常见安全响应头；hsts<=0 时不下发 HSTS
func SecureHeaders(hsts time.Duration) gin.HandlerFunc {
	hstsValue := ""
	if hsts > 0 {
		hstsValue = "max-age=" + strconv.Itoa(int(hsts.Seconds())) + "; includeSubDomains"
	}
	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "same-origin")
		if hstsValue != "" {
			h.Set("Strict-Transport-Security", hstsValue)
		}
		c.Next()
	}
}
