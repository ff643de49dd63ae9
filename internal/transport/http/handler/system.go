package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"fitness-platform/internal/core/cache"
	"fitness-platform/internal/core/database"
	"fitness-platform/internal/transport/http/ez"
	resp "fitness-platform/internal/transport/http/response"
)

// System 探针、指标与接口文档，挂在引擎根上
type System struct {
	DB      *gorm.DB
	Cache   *cache.Cache // 可为 nil
	Catalog *ez.Catalog
	Title   string
	Version string
}

const readyTimeout = 2 * time.Second

func (h System) Mount(r gin.IRoutes) {
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, resp.OK(gin.H{"ok": 1})) })
	r.GET("/ready", h.ready)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	if h.Catalog != nil {
		r.GET("/docs/openapi.json", func(c *gin.Context) {
			c.JSON(http.StatusOK, h.Catalog.OpenAPI(h.Title, h.Version))
		})
		r.GET("/docs/", func(c *gin.Context) {
			c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(docsPage(h.Title)))
		})
	}
}

// ready 数据库必须可用；redis 配置了才检查
func (h System) ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), readyTimeout)
	defer cancel()

	checks := gin.H{"db": "ok", "cache": "disabled"}
	if err := database.Ping(ctx, h.DB); err != nil {
		_ = c.Error(err)
		checks["db"] = "unavailable"
		c.JSON(http.StatusServiceUnavailable, resp.New(resp.CodeUnavailable, "", checks))
		return
	}
	if h.Cache.Enabled() {
		checks["cache"] = "ok"
		if err := h.Cache.Ping(ctx); err != nil {
			_ = c.Error(err)
			checks["cache"] = "unavailable"
			c.JSON(http.StatusServiceUnavailable, resp.New(resp.CodeUnavailable, "", checks))
			return
		}
	}
	c.JSON(http.StatusOK, resp.OK(checks))
}

func docsPage(title string) string {
	return `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>` + title + `</title>
<link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css">
</head>
<body>
<div id="swagger-ui"></div>
<script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
<script>
window.ui = SwaggerUIBundle({ url: "openapi.json", dom_id: "#swagger-ui" });
</script>
</body>
</html>`
}
