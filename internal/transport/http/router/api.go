package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"gorm.io/gorm"

	"fitness-platform/internal/core/cache"
	"fitness-platform/internal/core/config"
	"fitness-platform/internal/core/server"
	"fitness-platform/internal/service"
	"fitness-platform/internal/transport/http/ez"
	"fitness-platform/internal/transport/http/handler"
	mdw "fitness-platform/internal/transport/http/middleware"
	resp "fitness-platform/internal/transport/http/response"
)

// Deps 两个引擎共用的依赖
type Deps struct {
	Log      *zap.Logger
	Config   *config.Config
	DB       *gorm.DB
	Cache    *cache.Cache // 可为 nil
	Services *service.Services
}

// base 公共中间件链，顺序即执行顺序
func base(d Deps, engine string) *gin.Engine {
	cfg := d.Config
	r := server.NewRouter(server.Options{
		Name:             cfg.App.Name,
		AllowOrigins:     cfg.CORS.AllowOrigins,
		AllowCredentials: cfg.CORS.AllowCredentials,
	})

	r.Use(
		mdw.RequestID(),
		mdw.Recovery(d.Log),
		mdw.AccessLog(d.Log),
		mdw.Metrics(engine),
		mdw.SecureHeaders(cfg.Security.HSTS()),
		mdw.AllowedHosts(cfg.Security.AllowedHosts),
	)
	lim := cfg.Limits
	if lim.RPS > 0 {
		r.Use(mdw.RateLimit(rate.Limit(lim.RPS), lim.Burst))
	}
	if lim.PerIPRPS > 0 {
		r.Use(mdw.RateLimitPerIP(rate.Limit(lim.PerIPRPS), lim.PerIPBurst, perIPIdle))
	}
	if lim.Concurrency > 0 {
		r.Use(mdw.ConcurrencyLimit(lim.Concurrency))
	}
	if lim.MaxBodyMB > 0 {
		r.Use(mdw.MaxBodyBytes(lim.MaxBodyBytes()))
	}
	r.Use(
		mdw.Timeout(lim.Timeout()),
		mdw.Authenticate(d.Services.Users),
	)
	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, resp.Error(resp.CodeNotFound, "not found"))
	})
	return r
}

func NewAPIEngine(d Deps) *gin.Engine {
	r, _ := BuildAPI(d)
	return r
}

// BuildAPI 同时返回接口目录（fitctl routes 用）
func BuildAPI(d Deps) (*gin.Engine, *ez.Catalog) {
	r := base(d, "api")
	cat := &ez.Catalog{}

	handler.System{
		DB: d.DB, Cache: d.Cache, Catalog: cat,
		Title: d.Config.App.Name, Version: d.Config.App.Version,
	}.Mount(r)

	reg := &Registry{}
	reg.Register(handler.Modules(d.Services)...)
	reg.MountAPI(ez.New(&r.RouterGroup, cat))
	return r, cat
}
