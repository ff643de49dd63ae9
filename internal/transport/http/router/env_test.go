package router

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"fitness-platform/internal/core/auth"
	"fitness-platform/internal/core/config"
	"fitness-platform/internal/core/database"
	"fitness-platform/internal/domain"
	"fitness-platform/internal/service"
)

const testPassword = "s3cret-pass"

type envelope struct {
	Code int             `json:"code"`
	Msg  string          `json:"msg"`
	Data json.RawMessage `json:"data"`
}

// testEnv 两个引擎共用一个内存 sqlite
type testEnv struct {
	t     *testing.T
	api   *gin.Engine
	admin *gin.Engine
	db    *gorm.DB
	svc   *service.Services
}

// newTestEnv opts 可改写服务依赖，例如接入缓存
func newTestEnv(t *testing.T, opts ...func(*service.Deps)) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := database.NewGorm(database.Opts{
		Driver:   "sqlite",
		DSN:      "file:" + uuid.NewString() + "?mode=memory&cache=shared&_pragma=foreign_keys(1)",
		LogLevel: "silent",
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	jwter := &auth.JWTer{
		Secret:     []byte("test-secret"),
		Issuer:     "fitness-test",
		TTL:        time.Hour,
		RefreshTTL: 24 * time.Hour,
	}
	deps := service.Deps{DB: db, JWT: jwter}
	for _, o := range opts {
		o(&deps)
	}
	svc := service.New(deps)
	cfg := &config.Config{}
	cfg.App.Name, cfg.App.Version = "fitness-platform", "test"

	d := Deps{Log: zap.NewNop(), Config: cfg, DB: db, Services: svc}
	return &testEnv{t: t, api: NewAPIEngine(d), admin: NewAdminEngine(d), db: db, svc: svc}
}

func serve(t *testing.T, h http.Handler, method, path, token string, body any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	var env envelope
	if w.Code != http.StatusNoContent && w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	}
	return w, env
}

func (e *testEnv) call(method, path, token string, body any) (*httptest.ResponseRecorder, envelope) {
	e.t.Helper()
	return serve(e.t, e.api, method, path, token, body)
}

func (e *testEnv) callAdmin(method, path, token string, body any) (*httptest.ResponseRecorder, envelope) {
	e.t.Helper()
	return serve(e.t, e.admin, method, path, token, body)
}

// mustCall 断言状态码并解出 data
func mustCall[T any](e *testEnv, method, path, token string, body any, status int) T {
	e.t.Helper()
	w, env := e.call(method, path, token, body)
	require.Equal(e.t, status, w.Code, w.Body.String())
	var out T
	if status != http.StatusNoContent {
		require.NoError(e.t, json.Unmarshal(env.Data, &out))
	}
	return out
}

func (e *testEnv) register(username string) domain.User {
	e.t.Helper()
	return mustCall[domain.User](e, http.MethodPost, "/auth/users/", "", map[string]any{
		"email":    username + "@example.com",
		"username": username,
		"password": testPassword,
	}, http.StatusCreated)
}

func (e *testEnv) login(username string) auth.Pair {
	e.t.Helper()
	return mustCall[auth.Pair](e, http.MethodPost, "/auth/jwt/create/", "", map[string]any{
		"username": username,
		"password": testPassword,
	}, http.StatusOK)
}

// user 注册并登录，返回 id 与 access token
func (e *testEnv) user(username string) (string, string) {
	e.t.Helper()
	u := e.register(username)
	return u.ID, e.login(username).Access
}

func (e *testEnv) adminUser(username string) (string, string) {
	e.t.Helper()
	u, err := e.svc.Users.Register(context.Background(), service.RegisterInput{
		Email:    username + "@example.com",
		Username: username,
		Password: testPassword,
	}, domain.RoleAdmin)
	require.NoError(e.t, err)
	return u.ID, e.login(username).Access
}

func fieldErrors(t *testing.T, env envelope) domain.FieldErrors {
	t.Helper()
	var data struct {
		Errors domain.FieldErrors `json:"errors"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	return data.Errors
}

func serveRaw(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func mustRequest(t *testing.T, method, path string) *http.Request {
	t.Helper()
	req, err := http.NewRequest(method, path, nil)
	require.NoError(t, err)
	return req
}
