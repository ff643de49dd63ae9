package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"fitness-platform/internal/domain"
)

func init() { gin.SetMode(gin.TestMode) }

func engine(mw ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(mw...)
	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, CallerOf(c).UserID) })
	return r
}

func get(r http.Handler, path string, header map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func msgOf(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var b struct {
		Code int    `json:"code"`
		Msg  string `json:"msg"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &b), w.Body.String())
	assert.Equal(t, w.Code, b.Code)
	return b.Msg
}

func TestSecureHeaders(t *testing.T) {
	w := get(engine(SecureHeaders(0)), "/ping", nil)
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	assert.Empty(t, w.Header().Get("Strict-Transport-Security"))

	w = get(engine(SecureHeaders(time.Hour)), "/ping", nil)
	assert.Equal(t, "max-age=3600; includeSubDomains", w.Header().Get("Strict-Transport-Security"))
}

func TestAllowedHosts(t *testing.T) {
	r := engine(AllowedHosts([]string{"API.example.com", ""}))

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Host = "api.example.com:8080"
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	req.Host = "evil.example.com"
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid host header", msgOf(t, w))

	for _, hosts := range [][]string{nil, {"*"}} {
		req.Host = "anything"
		w = httptest.NewRecorder()
		engine(AllowedHosts(hosts)).ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	}
}

func TestRateLimit(t *testing.T) {
	r := engine(RateLimit(0, 2))
	assert.Equal(t, http.StatusOK, get(r, "/ping", nil).Code)
	assert.Equal(t, http.StatusOK, get(r, "/ping", nil).Code)

	w := get(r, "/ping", nil)
	require.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "1", w.Header().Get("Retry-After"))
	assert.Equal(t, "request was throttled", msgOf(t, w))
}

func TestRateLimitPerIP(t *testing.T) {
	r := engine(RateLimitPerIP(0, 1, time.Minute))
	from := func(ip string) int {
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.RemoteAddr = ip + ":1234"
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Code
	}
	assert.Equal(t, http.StatusOK, from("10.0.0.1"))
	assert.Equal(t, http.StatusTooManyRequests, from("10.0.0.1"))
	assert.Equal(t, http.StatusOK, from("10.0.0.2"))
}

func TestConcurrencyLimitCancelled(t *testing.T) {
	r := engine(ConcurrencyLimit(1))
	hold := make(chan struct{})
	entered := make(chan struct{})
	r.GET("/slow", func(c *gin.Context) {
		close(entered)
		<-hold
		c.Status(http.StatusOK)
	})

	done := make(chan int)
	go func() { done <- get(r, "/slow", nil).Code }()
	<-entered

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil).WithContext(ctx)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	close(hold)
	assert.Equal(t, http.StatusOK, <-done)
}

func TestTimeout(t *testing.T) {
	r := gin.New()
	r.Use(Timeout(10 * time.Millisecond))
	r.GET("/slow", func(c *gin.Context) { <-c.Request.Context().Done() })
	w := get(r, "/slow", nil)
	require.Equal(t, http.StatusGatewayTimeout, w.Code)
	assert.Equal(t, "timeout", msgOf(t, w))
}

func TestMaxBodyBytes(t *testing.T) {
	r := gin.New()
	r.Use(MaxBodyBytes(8))
	r.POST("/echo", func(c *gin.Context) {
		var in map[string]any
		if err := c.ShouldBindJSON(&in); err != nil {
			var mbe *http.MaxBytesError
			assert.ErrorAs(t, err, &mbe)
			c.Status(http.StatusBadRequest)
			return
		}
		c.Status(http.StatusOK)
	})
	req := httptest.NewRequest(http.MethodPost, "/echo", strings.NewReader(`{"name":"far too long"}`))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRequestID(t *testing.T) {
	r := engine(RequestID())
	w := get(r, "/ping", map[string]string{KeyRequestID: "abc"})
	assert.Equal(t, "abc", w.Header().Get(KeyRequestID))

	w = get(r, "/ping", nil)
	assert.Len(t, w.Header().Get(KeyRequestID), 36)

	w = get(r, "/ping", map[string]string{KeyRequestID: "bad id\nforged"})
	assert.Len(t, w.Header().Get(KeyRequestID), 36)

	w = get(r, "/ping", map[string]string{KeyRequestID: strings.Repeat("a", maxRequestIDLen+1)})
	assert.Len(t, w.Header().Get(KeyRequestID), 36)
}

func TestRecovery(t *testing.T) {
	r := gin.New()
	r.Use(Recovery(zap.NewNop()))
	r.GET("/panic", func(*gin.Context) { panic("boom") })
	w := get(r, "/panic", nil)
	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "internal error", msgOf(t, w))
}

type stubAuth map[string]domain.Caller

func (s stubAuth) Authenticate(_ context.Context, token string) (domain.Caller, error) {
	switch token {
	case "broken":
		return domain.Caller{}, fmt.Errorf("lookup: connection refused")
	}
	if c, ok := s[token]; ok {
		return c, nil
	}
	return domain.Caller{}, fmt.Errorf("%w: token is invalid or expired", domain.ErrUnauthorized)
}

func TestAuthenticate(t *testing.T) {
	authn := stubAuth{
		"user":  {UserID: "u1", Role: domain.RoleUser},
		"admin": {UserID: "a1", Role: domain.RoleAdmin},
	}
	r := engine(Authenticate(authn))

	w := get(r, "/ping", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Body.String())

	w = get(r, "/ping", map[string]string{"Authorization": "Bearer user"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "u1", w.Body.String())

	cases := map[string]struct {
		status int
		msg    string
	}{
		"Token user":    {http.StatusUnauthorized, "authorization header must contain a bearer token"},
		"Bearer ":       {http.StatusUnauthorized, "authorization header must contain a bearer token"},
		"Bearer nope":   {http.StatusUnauthorized, "token is invalid or expired"},
		"Bearer broken": {http.StatusInternalServerError, "internal error"},
	}
	for header, want := range cases {
		w := get(r, "/ping", map[string]string{"Authorization": header})
		assert.Equal(t, want.status, w.Code, header)
		assert.Equal(t, want.msg, msgOf(t, w), header)
	}
}

func TestRequireRole(t *testing.T) {
	authn := stubAuth{
		"user":  {UserID: "u1", Role: domain.RoleUser},
		"admin": {UserID: "a1", Role: domain.RoleAdmin},
	}
	r := engine(Authenticate(authn), RequireRole(domain.RoleAdmin))

	assert.Equal(t, http.StatusUnauthorized, get(r, "/ping", nil).Code)
	assert.Equal(t, http.StatusForbidden, get(r, "/ping", map[string]string{"Authorization": "Bearer user"}).Code)

	w := get(r, "/ping", map[string]string{"Authorization": "Bearer admin"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "a1", w.Body.String())
}

func TestMetricsLabelsRoute(t *testing.T) {
	r := engine(Metrics("metrics-test"))
	get(r, "/ping", nil)
	get(r, "/nowhere/123", nil)

	assert.Equal(t, 1.0, testutil.ToFloat64(httpReqTotal.WithLabelValues("metrics-test", "/ping", "GET", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(httpReqTotal.WithLabelValues("metrics-test", unmatchedRoute, "GET", "404")))
	assert.Zero(t, testutil.ToFloat64(httpInFlight.WithLabelValues("metrics-test")))
}
