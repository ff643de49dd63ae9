package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Options struct {
	Name string
	Mode string // gin.DebugMode / gin.ReleaseMode / gin.TestMode

	AllowOrigins     []string // 空则不挂 CORS
	AllowCredentials bool
}

// NewRouter gin 引擎 + CORS；其余中间件由各引擎自行挂载
func NewRouter(o Options) *gin.Engine {
	if o.Mode != "" {
		gin.SetMode(o.Mode)
	}
	r := gin.New()
	if len(o.AllowOrigins) > 0 {
		cfg := cors.DefaultConfig()
		cfg.AllowOrigins = o.AllowOrigins
		cfg.AllowCredentials = o.AllowCredentials
		cfg.AllowHeaders = append(cfg.AllowHeaders, "Authorization", "X-Request-ID")
		cfg.ExposeHeaders = []string{"X-Request-ID", "Retry-After"}
		if len(o.AllowOrigins) == 1 && o.AllowOrigins[0] == "*" {
			cfg.AllowOrigins = nil
			cfg.AllowAllOrigins = true
			cfg.AllowCredentials = false
		}
		r.Use(cors.New(cfg))
	}
	return r
}

// Run 阻塞到 ctx 结束后优雅关闭
func Run(ctx context.Context, srv *http.Server, l *zap.Logger, grace time.Duration) error {
	errc := make(chan error, 1)
	go func() {
		l.Info("http starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()
	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	sctx, cancel := context.WithTimeout(context.Background(), grace)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func BuildServer(addr string, handler http.Handler, rt, wt, it time.Duration) *http.Server {
	return &http.Server{
		Addr:           addr,
		Handler:        handler,
		ReadTimeout:    rt,
		WriteTimeout:   wt,
		IdleTimeout:    it,
		MaxHeaderBytes: 1 << 20, // 1MB
	}
}

func Addr(host string, port int) string { return fmt.Sprintf("%s:%d", host, port) }
