package router

import (
	"net/http"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fitness-platform/internal/domain"
	"fitness-platform/internal/service"
)

type storeFixture struct {
	*testEnv
	admin    string
	category domain.Category
	product  domain.Product
}

// newStoreFixture 一个分类，一个打九折、库存 5 的商品
func newStoreFixture(t *testing.T, opts ...func(*service.Deps)) *storeFixture {
	e := newTestEnv(t, opts...)
	_, admin := e.adminUser("shopkeeper")

	cat := mustCall[domain.Category](e, http.MethodPost, "/store/categories/", admin,
		map[string]any{"name": "Gear"}, http.StatusCreated)
	disc := mustCall[domain.Discount](e, http.MethodPost, "/store/discounts/", admin,
		map[string]any{"percent": 10, "description": "spring sale"}, http.StatusCreated)
	p := mustCall[domain.Product](e, http.MethodPost, "/store/products/", admin, map[string]any{
		"name":         "Kettlebell",
		"description":  "16kg",
		"price":        "20.00",
		"stock":        5,
		"category_id":  cat.ID,
		"discount_ids": []string{disc.ID},
	}, http.StatusCreated)
	return &storeFixture{testEnv: e, admin: admin, category: cat, product: p}
}

func (f *storeFixture) stock() int {
	f.t.Helper()
	return mustCall[domain.Product](f.testEnv, http.MethodGet, "/store/products/"+f.product.ID+"/", "", nil, http.StatusOK).Stock
}

func (f *storeFixture) cart(token string) domain.Cart {
	f.t.Helper()
	return mustCall[domain.Cart](f.testEnv, http.MethodPost, "/store/carts/", token, nil, http.StatusCreated)
}

func (f *storeFixture) add(token, cartID string, qty int) domain.CartItem {
	f.t.Helper()
	return mustCall[domain.CartItem](f.testEnv, http.MethodPost, "/store/carts/"+cartID+"/items/", token,
		map[string]any{"product_id": f.product.ID, "quantity": qty}, http.StatusCreated)
}

func (f *storeFixture) order(token, cartID string) domain.Order {
	f.t.Helper()
	return mustCall[domain.Order](f.testEnv, http.MethodPost, "/store/orders/", token,
		map[string]any{"cart_id": cartID, "shipping_address": "1 Main St"}, http.StatusCreated)
}

func TestProductCatalog(t *testing.T) {
	f := newStoreFixture(t)
	_, token := f.user("mia")

	assert.True(t, f.product.IsInStock)
	assert.True(t, decimal.RequireFromString("18").Equal(f.product.FinalPrice), f.product.FinalPrice.String())
	require.Len(t, f.product.Discounts, 1)

	w, _ := f.call(http.MethodPost, "/store/products/", token, map[string]any{"name": "x"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	page := mustCall[domain.Page[domain.Product]](f.testEnv, http.MethodGet, "/store/products/?category="+f.category.ID+"&price_lte=25", "", nil, http.StatusOK)
	assert.EqualValues(t, 1, page.Total)
	page = mustCall[domain.Page[domain.Product]](f.testEnv, http.MethodGet, "/store/products/?price_gte=25", "", nil, http.StatusOK)
	assert.Zero(t, page.Total)

	page = mustCall[domain.Page[domain.Product]](f.testEnv, http.MethodGet, "/store/categories/"+f.category.ID+"/products/", "", nil, http.StatusOK)
	assert.EqualValues(t, 1, page.Total)

	// 超大页码返回空页而不是 500
	page = mustCall[domain.Page[domain.Product]](f.testEnv, http.MethodGet, "/store/products/?page=9223372036854775807", "", nil, http.StatusOK)
	assert.EqualValues(t, 1, page.Total)
	assert.Empty(t, page.List)
	assert.Equal(t, domain.MaxPage, page.Page)

	w, _ = f.call(http.MethodGet, "/store/products/?ordering=secret", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, env := f.call(http.MethodPost, "/store/products/", f.admin, map[string]any{
		"name": "Mat", "description": "foam", "price": "1.999", "stock": -1, "category_id": "missing",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
	errs := fieldErrors(t, env)
	assert.Contains(t, errs, "price")
	assert.Contains(t, errs, "stock")

	w, env = f.call(http.MethodPost, "/store/categories/", f.admin, map[string]any{"name": "Gear"})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, fieldErrors(t, env), "name")
}

func TestDeleteCategoryInUse(t *testing.T) {
	f := newStoreFixture(t)

	w, env := f.call(http.MethodDelete, "/store/categories/"+f.category.ID+"/", f.admin, nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, fieldErrors(t, env), domain.NonField)

	mustCall[struct{}](f.testEnv, http.MethodDelete, "/store/products/"+f.product.ID+"/", f.admin, nil, http.StatusNoContent)
	mustCall[struct{}](f.testEnv, http.MethodDelete, "/store/categories/"+f.category.ID+"/", f.admin, nil, http.StatusNoContent)
}

func TestCartItemsAccumulate(t *testing.T) {
	f := newStoreFixture(t)
	_, token := f.user("nina")
	_, other := f.user("omar")

	cart := f.cart(token)
	first := f.add(token, cart.ID, 2)
	second := f.add(token, cart.ID, 1)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 3, second.Quantity)

	items := mustCall[[]domain.CartItem](f.testEnv, http.MethodGet, "/store/carts/"+cart.ID+"/items/", token, nil, http.StatusOK)
	require.Len(t, items, 1)

	got := mustCall[domain.Cart](f.testEnv, http.MethodGet, "/store/carts/"+cart.ID+"/", token, nil, http.StatusOK)
	assert.True(t, decimal.RequireFromString("54").Equal(got.TotalPrice), got.TotalPrice.String())

	// 别人的购物车不可见也不可改
	w, _ := f.call(http.MethodGet, "/store/carts/"+cart.ID+"/", other, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w, _ = f.call(http.MethodPost, "/store/carts/"+cart.ID+"/items/", other, map[string]any{"product_id": f.product.ID})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, _ = f.call(http.MethodPost, "/store/carts/"+cart.ID+"/items/", token, map[string]any{"product_id": f.product.ID, "quantity": 0})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	it := mustCall[domain.CartItem](f.testEnv, http.MethodPatch, "/store/carts/"+cart.ID+"/items/"+first.ID+"/", token,
		map[string]any{"quantity": 1}, http.StatusOK)
	assert.Equal(t, 1, it.Quantity)

	mustCall[struct{}](f.testEnv, http.MethodDelete, "/store/carts/"+cart.ID+"/items/"+first.ID+"/", token, nil, http.StatusNoContent)
	w, _ = f.call(http.MethodGet, "/store/carts/"+cart.ID+"/items/"+first.ID+"/", token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPlaceAndCancelOrder(t *testing.T) {
	f := newStoreFixture(t)
	uid, token := f.user("pia")

	empty := f.cart(token)
	w, env := f.call(http.MethodPost, "/store/orders/", token, map[string]any{"cart_id": empty.ID, "shipping_address": "x"})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, fieldErrors(t, env), domain.NonField)

	w, env = f.call(http.MethodPost, "/store/orders/", token, map[string]any{"cart_id": empty.ID})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, fieldErrors(t, env), "shipping_address")

	cart := f.cart(token)
	f.add(token, cart.ID, 3)
	o := f.order(token, cart.ID)
	assert.Equal(t, uid, o.UserID)
	assert.Equal(t, domain.OrderPending, o.Status)
	assert.True(t, decimal.RequireFromString("54").Equal(o.TotalPrice), o.TotalPrice.String())
	require.Len(t, o.Items, 1)
	assert.Equal(t, "Kettlebell", o.Items[0].ProductName)
	assert.Equal(t, 2, f.stock())

	// 下单后购物车清空
	items := mustCall[[]domain.CartItem](f.testEnv, http.MethodGet, "/store/carts/"+cart.ID+"/items/", token, nil, http.StatusOK)
	assert.Empty(t, items)

	// 库存不足整单失败
	f.add(token, cart.ID, 5)
	w, env = f.call(http.MethodPost, "/store/orders/", token, map[string]any{"cart_id": cart.ID, "shipping_address": "x"})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, fieldErrors(t, env), "items")
	assert.Equal(t, 2, f.stock())

	cancelled := mustCall[domain.Order](f.testEnv, http.MethodPost, "/store/orders/"+o.ID+"/cancel/", token, nil, http.StatusOK)
	assert.Equal(t, domain.OrderCancelled, cancelled.Status)
	assert.Equal(t, 5, f.stock())

	w, _ = f.call(http.MethodPost, "/store/orders/"+o.ID+"/cancel/", token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestOrderStatusTransitions(t *testing.T) {
	f := newStoreFixture(t)
	_, token := f.user("quinn")
	_, other := f.user("rosa")

	cart := f.cart(token)
	f.add(token, cart.ID, 1)
	o := f.order(token, cart.ID)

	path := "/store/orders/" + o.ID + "/status/"
	w, _ := f.call(http.MethodPost, path, token, map[string]any{"status": domain.OrderPaid})
	assert.Equal(t, http.StatusForbidden, w.Code)

	paid := mustCall[domain.Order](f.testEnv, http.MethodPost, path, f.admin, map[string]any{"status": domain.OrderPaid}, http.StatusOK)
	assert.Equal(t, domain.OrderPaid, paid.Status)

	w, env := f.call(http.MethodPost, path, f.admin, map[string]any{"status": domain.OrderDelivered})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, fieldErrors(t, env), "status")

	w, _ = f.call(http.MethodPost, path, f.admin, map[string]any{"status": "lost"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// 已支付不能由用户取消
	w, _ = f.call(http.MethodPost, "/store/orders/"+o.ID+"/cancel/", token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = f.call(http.MethodGet, "/store/orders/"+o.ID+"/", other, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	page := mustCall[domain.Page[domain.Order]](f.testEnv, http.MethodGet, "/store/orders/?status=paid", token, nil, http.StatusOK)
	assert.EqualValues(t, 1, page.Total)
	page = mustCall[domain.Page[domain.Order]](f.testEnv, http.MethodGet, "/store/orders/", other, nil, http.StatusOK)
	assert.Zero(t, page.Total)
}

func TestCustomerProfile(t *testing.T) {
	f := newStoreFixture(t)
	uid, token := f.user("sam")

	c := mustCall[domain.Customer](f.testEnv, http.MethodGet, "/store/customers/me/", token, nil, http.StatusOK)
	assert.Equal(t, uid, c.UserID)
	assert.Equal(t, "bronze", c.Membership)

	c = mustCall[domain.Customer](f.testEnv, http.MethodPatch, "/store/customers/me/", token, map[string]any{"membership": "gold"}, http.StatusOK)
	assert.Equal(t, "gold", c.Membership)

	w, env := f.call(http.MethodPatch, "/store/customers/me/", token, map[string]any{"membership": "platinum"})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, fieldErrors(t, env), "membership")

	addr := mustCall[domain.Address](f.testEnv, http.MethodPost, "/store/addresses/", token, map[string]any{
		"street": "2 Side St", "city": "Springfield", "country": "US",
	}, http.StatusCreated)
	cart := f.cart(token)
	f.add(token, cart.ID, 1)
	o := mustCall[domain.Order](f.testEnv, http.MethodPost, "/store/orders/", token,
		map[string]any{"cart_id": cart.ID, "address_id": addr.ID}, http.StatusCreated)
	assert.Equal(t, "2 Side St, Springfield, US", o.ShippingAddress)
}
