// Package app 组装各进程共用的依赖：配置 → 日志 → 数据库 → 缓存 → 服务
package app

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gorm.io/gorm"

	"fitness-platform/internal/core/auth"
	"fitness-platform/internal/core/cache"
	"fitness-platform/internal/core/config"
	"fitness-platform/internal/core/database"
	"fitness-platform/internal/core/logger"
	"fitness-platform/internal/service"
	"fitness-platform/internal/transport/http/router"
)

type App struct {
	Config   *config.Config
	Log      *zap.Logger
	DB       *gorm.DB
	Cache    *cache.Cache // 未配置 redis 时为 nil
	JWT      *auth.JWTer
	Services *service.Services
}

// New 失败时已打开的资源会被关闭
func New(ctx context.Context, cfgPath string) (*App, func(), error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, nil, err
	}
	r := cfg.Log.Rotate
	log, syncLog := logger.New(logger.Options{
		Level:       cfg.Log.Level,
		JSON:        cfg.Log.JSON,
		AddCaller:   true,
		Development: !cfg.Log.JSON,
		Service:     cfg.App.Name,
		Env:         cfg.App.Env,
		Rotate: logger.FileRotate{
			Enable:     r.Enable,
			Filename:   r.Filename,
			MaxSizeMB:  r.MaxSizeMB,
			MaxBackups: r.MaxBackups,
			MaxAgeDays: r.MaxAgeDays,
			Compress:   r.Compress,
		},
	})
	undoStd := logger.RedirectStdLog(log, zapcore.InfoLevel)
	gin.DefaultWriter = logger.ToWriter(log, zapcore.DebugLevel)
	gin.DefaultErrorWriter = logger.ToWriter(log, zapcore.ErrorLevel)
	if cfg.App.Env != "local" {
		gin.SetMode(gin.ReleaseMode)
	}

	cleanup := func() {
		undoStd()
		syncLog()
	}

	db, err := database.NewGorm(database.Opts{
		Driver:             cfg.DB.Driver,
		DSN:                cfg.DB.DSN,
		Username:           cfg.DB.Username,
		Password:           cfg.DB.Password,
		MaxOpenConns:       cfg.DB.MaxOpenConns,
		MaxIdleConns:       cfg.DB.MaxIdleConns,
		ConnMaxLifetimeMin: cfg.DB.ConnMaxLifetimeMin,
		LogLevel:           cfg.DB.LogLevel,
		Log:                log,
	})
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("db open: %w", err)
	}
	log.Info("database connected", zap.String("driver", cfg.DB.Driver))
	closeLog := cleanup
	cleanup = func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
		closeLog()
	}
	if cfg.DB.AutoMigrate {
		if err := database.Migrate(db.WithContext(ctx)); err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("automigrate: %w", err)
		}
		log.Info("automigrate done")
	}

	var c *cache.Cache
	if cfg.Redis.Addr != "" {
		c = cache.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err := c.Ping(ctx); err != nil {
			// 缓存不是权威数据，连不上只告警
			log.Warn("redis unavailable", zap.String("addr", cfg.Redis.Addr), zap.Error(err))
		}
		prev := cleanup
		cleanup = func() { _ = c.Close(); prev() }
	}

	jwter := &auth.JWTer{
		Secret:     []byte(cfg.JWT.Secret),
		Issuer:     cfg.JWT.Issuer,
		TTL:        cfg.JWT.AccessTTL(),
		RefreshTTL: cfg.JWT.RefreshTTL(),
		Leeway:     cfg.JWT.Leeway(),
	}
	a := &App{
		Config: cfg,
		Log:    log,
		DB:     db,
		Cache:  c,
		JWT:    jwter,
		Services: service.New(service.Deps{
			DB: db, JWT: jwter, Cache: c, CacheTTL: cfg.Redis.CacheTTL(), Log: log,
		}),
	}
	return a, cleanup, nil
}

func (a *App) Deps() router.Deps {
	return router.Deps{Log: a.Log, Config: a.Config, DB: a.DB, Cache: a.Cache, Services: a.Services}
}

func (a *App) APIEngine() *gin.Engine   { return router.NewAPIEngine(a.Deps()) }
func (a *App) AdminEngine() *gin.Engine { return router.NewAdminEngine(a.Deps()) }
