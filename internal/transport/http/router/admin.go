package router

import (
	"time"

	"github.com/gin-gonic/gin"

	"fitness-platform/internal/domain"
	"fitness-platform/internal/transport/http/ez"
	"fitness-platform/internal/transport/http/handler"
	mdw "fitness-platform/internal/transport/http/middleware"
)

const perIPIdle = 10 * time.Minute

func NewAdminEngine(d Deps) *gin.Engine {
	r, _ := BuildAdmin(d)
	return r
}

func BuildAdmin(d Deps) (*gin.Engine, *ez.Catalog) {
	r := base(d, "admin")
	cat := &ez.Catalog{}

	handler.System{
		DB: d.DB, Cache: d.Cache, Catalog: cat,
		Title: d.Config.App.Name + " admin", Version: d.Config.App.Version,
	}.Mount(r)

	// 管理端 v1（统一要求 admin 角色）
	admin := r.Group("/admin/v1", mdw.RequireRole(domain.RoleAdmin))

	reg := &Registry{}
	reg.Register(handler.Modules(d.Services)...)
	reg.MountAdmin(ez.New(admin, cat))
	return r, cat
}
