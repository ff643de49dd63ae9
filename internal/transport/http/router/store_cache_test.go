package router

import (
	"net/http"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fitness-platform/internal/core/cache"
	"fitness-platform/internal/domain"
	"fitness-platform/internal/service"
)

func withRedis(t *testing.T) (*miniredis.Miniredis, func(*service.Deps)) {
	t.Helper()
	mr := miniredis.RunT(t)
	c := cache.New(mr.Addr(), "", 0)
	t.Cleanup(func() { _ = c.Close() })
	return mr, func(d *service.Deps) {
		d.Cache = c
		d.CacheTTL = time.Minute
	}
}

func (f *storeFixture) fetch() domain.Product {
	f.t.Helper()
	return mustCall[domain.Product](f.testEnv, http.MethodGet, "/store/products/"+f.product.ID+"/", "", nil, http.StatusOK)
}

func TestCachedProductServedUntilUpdated(t *testing.T) {
	mr, opt := withRedis(t)
	f := newStoreFixture(t, opt)
	key := "fitness:product:" + f.product.ID

	assert.Equal(t, "Kettlebell", f.fetch().Name)
	require.True(t, mr.Exists(key))
	assert.Equal(t, time.Minute, mr.TTL(key))

	// 绕过服务层改库，命中缓存时仍是旧值
	require.NoError(t, f.db.Model(&domain.Product{}).Where("id = ?", f.product.ID).Update("name", "Changed").Error)
	assert.Equal(t, "Kettlebell", f.fetch().Name)

	mustCall[domain.Product](f.testEnv, http.MethodPatch, "/store/products/"+f.product.ID+"/", f.admin,
		map[string]any{"description": "24kg"}, http.StatusOK)
	got := f.fetch()
	assert.Equal(t, "Changed", got.Name)
	assert.Equal(t, "24kg", got.Description)
}

func TestCachedStockFollowsOrders(t *testing.T) {
	mr, opt := withRedis(t)
	f := newStoreFixture(t, opt)
	_, token := f.user("quinn")
	key := "fitness:product:" + f.product.ID

	assert.Equal(t, 5, f.stock())
	require.True(t, mr.Exists(key))

	cart := f.cart(token)
	f.add(token, cart.ID, 2)
	o := f.order(token, cart.ID)
	assert.False(t, mr.Exists(key), "placing an order evicts the ordered products")
	assert.Equal(t, 3, f.stock())

	mustCall[domain.Order](f.testEnv, http.MethodPost, "/store/orders/"+o.ID+"/cancel/", token, nil, http.StatusOK)
	assert.False(t, mr.Exists(key), "cancelling restores stock and evicts")
	assert.Equal(t, 5, f.stock())
}

func TestDiscountChangeEvictsProducts(t *testing.T) {
	mr, opt := withRedis(t)
	f := newStoreFixture(t, opt)
	require.Len(t, f.product.Discounts, 1)
	discount := f.product.Discounts[0]
	key := "fitness:product:" + f.product.ID

	assert.True(t, decimal.RequireFromString("18").Equal(f.fetch().FinalPrice))
	require.True(t, mr.Exists(key))

	mustCall[domain.Discount](f.testEnv, http.MethodPatch, "/store/discounts/"+discount.ID+"/", f.admin,
		map[string]any{"percent": 50}, http.StatusOK)
	assert.False(t, mr.Exists(key))
	got := f.fetch()
	assert.True(t, decimal.RequireFromString("10").Equal(got.FinalPrice), got.FinalPrice.String())

	mustCall[struct{}](f.testEnv, http.MethodDelete, "/store/discounts/"+discount.ID+"/", f.admin, nil, http.StatusNoContent)
	got = f.fetch()
	assert.True(t, decimal.RequireFromString("20").Equal(got.FinalPrice), got.FinalPrice.String())
	assert.Empty(t, got.Discounts)
}
