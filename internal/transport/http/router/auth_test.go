package router

import (
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fitness-platform/internal/core/auth"
	"fitness-platform/internal/domain"
)

func TestRegisterLoginMe(t *testing.T) {
	e := newTestEnv(t)

	u := e.register("alice")
	assert.NotEmpty(t, u.ID)
	assert.Equal(t, "alice@example.com", u.Email)
	assert.Equal(t, domain.RoleUser, u.Role)

	pair := e.login("alice")
	require.NotEmpty(t, pair.Access)
	require.NotEmpty(t, pair.Refresh)

	me := mustCall[domain.User](e, http.MethodGet, "/auth/users/me/", pair.Access, nil, http.StatusOK)
	assert.Equal(t, u.ID, me.ID)
	assert.NotNil(t, me.LastLogin)

	// 邮箱也可以登录
	byEmail := mustCall[auth.Pair](e, http.MethodPost, "/auth/jwt/create/", "", map[string]any{
		"email": "alice@example.com", "password": testPassword,
	}, http.StatusOK)
	assert.NotEmpty(t, byEmail.Access)
}

func TestRegisterValidation(t *testing.T) {
	e := newTestEnv(t)
	e.register("bob")

	w, env := e.call(http.MethodPost, "/auth/users/", "", map[string]any{
		"email": "BOB@example.com", "username": "bob", "password": testPassword,
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, http.StatusBadRequest, env.Code)
	errs := fieldErrors(t, env)
	assert.Contains(t, errs, "email")
	assert.Contains(t, errs, "username")

	w, env = e.call(http.MethodPost, "/auth/users/", "", map[string]any{
		"email": "not-an-email", "username": "carol", "password": "short",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
	errs = fieldErrors(t, env)
	assert.Contains(t, errs, "email")
	assert.Contains(t, errs, "password")
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	e := newTestEnv(t)
	e.register("dave")

	w, env := e.call(http.MethodPost, "/auth/jwt/create/", "", map[string]any{
		"username": "dave", "password": "wrong-password",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, http.StatusUnauthorized, env.Code)

	w, _ = e.call(http.MethodPost, "/auth/jwt/create/", "", map[string]any{"password": testPassword})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestInvalidTokenIsRejectedEverywhere(t *testing.T) {
	e := newTestEnv(t)

	// 公开接口匿名可访问
	w, _ := e.call(http.MethodGet, "/store/products/", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	// 带了无效 token 一律 401
	w, _ = e.call(http.MethodGet, "/store/products/", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// refresh token 不能当 access 用
	e.register("erin")
	pair := e.login("erin")
	w, _ = e.call(http.MethodGet, "/auth/users/me/", pair.Refresh, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, env := e.call(http.MethodGet, "/auth/users/me/", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "authentication credentials were not provided", env.Msg)
}

func TestExpiredAccessTokenIsRejectedImmediately(t *testing.T) {
	e := newTestEnv(t)
	id, token := e.user("hal")
	mustCall[domain.User](e, http.MethodGet, "/auth/users/me/", token, nil, http.StatusOK)

	// 同一密钥签发、一秒前过期
	stale := &auth.JWTer{Secret: []byte("test-secret"), Issuer: "fitness-test", TTL: -time.Second}
	tok, err := stale.Issue(id, domain.RoleUser)
	require.NoError(t, err)
	w, _ := e.call(http.MethodGet, "/auth/users/me/", tok, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRefreshRotatesAndBlacklists(t *testing.T) {
	e := newTestEnv(t)
	e.register("frank")
	pair := e.login("frank")

	next := mustCall[auth.Pair](e, http.MethodPost, "/auth/jwt/refresh/", "", map[string]any{"refresh": pair.Refresh}, http.StatusOK)
	require.NotEmpty(t, next.Refresh)
	assert.NotEqual(t, pair.Refresh, next.Refresh)

	// 旧 refresh 已作废
	w, _ := e.call(http.MethodPost, "/auth/jwt/refresh/", "", map[string]any{"refresh": pair.Refresh})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, _ = e.call(http.MethodPost, "/auth/jwt/verify/", "", map[string]any{"token": next.Access})
	assert.Equal(t, http.StatusOK, w.Code)

	mustCall[struct{}](e, http.MethodPost, "/auth/jwt/blacklist/", "", map[string]any{"refresh": next.Refresh}, http.StatusNoContent)
	w, _ = e.call(http.MethodPost, "/auth/jwt/verify/", "", map[string]any{"token": next.Refresh})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRefreshTokenIsSingleUse(t *testing.T) {
	e := newTestEnv(t)
	e.register("gina")
	pair := e.login("gina")

	const n = 8
	codes := make(chan int, n)
	var wg sync.WaitGroup
	for range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			w, _ := e.call(http.MethodPost, "/auth/jwt/refresh/", "", map[string]any{"refresh": pair.Refresh})
			codes <- w.Code
		}()
	}
	wg.Wait()
	close(codes)

	var ok, denied int
	for c := range codes {
		switch c {
		case http.StatusOK:
			ok++
		case http.StatusUnauthorized:
			denied++
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, n-1, denied)
}

func TestSetPasswordAndDeleteMe(t *testing.T) {
	e := newTestEnv(t)
	_, token := e.user("grace")

	w, _ := e.call(http.MethodPost, "/auth/users/set_password/", token, map[string]any{
		"current_password": "nope-nope", "new_password": "brand-new-pass",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	mustCall[struct{}](e, http.MethodPost, "/auth/users/set_password/", token, map[string]any{
		"current_password": testPassword, "new_password": "brand-new-pass",
	}, http.StatusNoContent)

	w, _ = e.call(http.MethodPost, "/auth/jwt/create/", "", map[string]any{"username": "grace", "password": testPassword})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	mustCall[struct{}](e, http.MethodDelete, "/auth/users/me/", token, map[string]any{
		"current_password": "brand-new-pass",
	}, http.StatusNoContent)

	// 已删除用户的 token 失效
	w, _ = e.call(http.MethodGet, "/auth/users/me/", token, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestUpdateMeAndProfile(t *testing.T) {
	e := newTestEnv(t)
	e.register("heidi")
	_, token := e.user("ivan")

	me := mustCall[domain.User](e, http.MethodPatch, "/auth/users/me/", token, map[string]any{"first_name": "Ivan"}, http.StatusOK)
	assert.Equal(t, "Ivan", me.FirstName)
	assert.Equal(t, "ivan", me.Username)

	// 用户名唯一
	w, env := e.call(http.MethodPatch, "/auth/users/me/", token, map[string]any{"username": "heidi"})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, fieldErrors(t, env), "username")

	// PUT 要求必填字段
	w, env = e.call(http.MethodPut, "/auth/users/me/", token, map[string]any{"first_name": "I"})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, fieldErrors(t, env), "email")

	p := mustCall[domain.Profile](e, http.MethodGet, "/users/profile/", token, nil, http.StatusOK)
	assert.Equal(t, me.ID, p.UserID)

	p = mustCall[domain.Profile](e, http.MethodPatch, "/users/profile/", token, map[string]any{
		"bio": "runner", "height_cm": 180, "fitness_goal": "gain",
	}, http.StatusOK)
	assert.Equal(t, "runner", p.Bio)
	assert.Equal(t, 180, p.HeightCM)

	w, env = e.call(http.MethodPatch, "/users/profile/", token, map[string]any{"fitness_goal": "fly"})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, fieldErrors(t, env), "fitness_goal")
}
