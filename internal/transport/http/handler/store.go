package handler

import (
	"net/http"
	"strconv"

	"github.com/shopspring/decimal"

	"fitness-platform/internal/domain"
	"fitness-platform/internal/service"
	"fitness-platform/internal/transport/http/ez"
)

type Store struct {
	S *service.StoreService
}

type categoryIn struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

func (in *categoryIn) Check(partial bool) domain.FieldErrors {
	f := check(partial)
	f.text("name", in.Name, true, 255)
	return f.errs
}

func (in *categoryIn) Apply(m *domain.Category) {
	set(&m.Name, in.Name)
	set(&m.Description, in.Description)
}

type discountIn struct {
	Percent     *float64 `json:"percent"`
	Description *string  `json:"description"`
}

func (in *discountIn) Check(partial bool) domain.FieldErrors {
	f := check(partial)
	above(f, "percent", in.Percent, true, 0)
	atMost(f, "percent", in.Percent, 100)
	f.text("description", in.Description, true, 255)
	return f.errs
}

func (in *discountIn) Apply(m *domain.Discount) {
	set(&m.Percent, in.Percent)
	set(&m.Description, in.Description)
}

type productIn struct {
	Name        *string          `json:"name"`
	Description *string          `json:"description"`
	Price       *decimal.Decimal `json:"price"`
	Stock       *int             `json:"stock"`
	CategoryID  *string          `json:"category_id"`
	DiscountIDs *[]string        `json:"discount_ids"`
	ImageURL    *string          `json:"image_url"`
}

func (in *productIn) Check(partial bool) domain.FieldErrors {
	f := check(partial)
	f.text("name", in.Name, true, 255)
	f.text("description", in.Description, true, 0)
	f.money("price", in.Price, true)
	atLeast(f, "stock", in.Stock, true, 0)
	f.text("category_id", in.CategoryID, true, 36)
	f.ids("discount_ids", in.DiscountIDs)
	f.url("image_url", in.ImageURL)
	return f.errs
}

func (in *productIn) Apply(m *domain.Product) {
	set(&m.Name, in.Name)
	set(&m.Description, in.Description)
	if in.Price != nil {
		m.Price = in.Price.Round(2)
	}
	set(&m.Stock, in.Stock)
	set(&m.CategoryID, in.CategoryID)
	setIDs(&m.DiscountIDs, in.DiscountIDs)
	set(&m.ImageURL, in.ImageURL)
}

type customerIn struct {
	Phone      *string     `json:"phone"`
	BirthDate  *domain.Day `json:"birth_date"`
	Membership *string     `json:"membership"`
}

func (in *customerIn) Check(partial bool) domain.FieldErrors {
	f := check(partial)
	f.text("phone", in.Phone, false, 32)
	f.past("birth_date", in.BirthDate)
	f.choice("membership", in.Membership, false, domain.Memberships...)
	return f.errs
}

func (in *customerIn) Apply(m *domain.Customer) {
	set(&m.Phone, in.Phone)
	if in.BirthDate != nil {
		d := *in.BirthDate
		m.BirthDate = &d
		if d.IsZero() {
			m.BirthDate = nil
		}
	}
	set(&m.Membership, in.Membership)
}

type addressIn struct {
	Street    *string `json:"street"`
	City      *string `json:"city"`
	Zip       *string `json:"zip"`
	Country   *string `json:"country"`
	IsDefault *bool   `json:"is_default"`
}

func (in *addressIn) Check(partial bool) domain.FieldErrors {
	f := check(partial)
	f.text("street", in.Street, true, 255)
	f.text("city", in.City, true, 128)
	f.text("zip", in.Zip, false, 32)
	f.text("country", in.Country, true, 64)
	return f.errs
}

func (in *addressIn) Apply(m *domain.Address) {
	set(&m.Street, in.Street)
	set(&m.City, in.City)
	set(&m.Zip, in.Zip)
	set(&m.Country, in.Country)
	set(&m.IsDefault, in.IsDefault)
}

// cartIn 购物车只有归属，商品通过 items 子资源维护
type cartIn struct{}

func (*cartIn) Check(bool) domain.FieldErrors { return nil }
func (*cartIn) Apply(*domain.Cart)            {}

type cartItemIn struct {
	ProductID string `json:"product_id" binding:"required"`
	Quantity  *int   `json:"quantity"`
}

type quantityIn struct {
	Quantity int `json:"quantity" binding:"required"`
}

// orderIn 订单只能通过下单接口创建
type orderIn struct{}

func (*orderIn) Check(bool) domain.FieldErrors { return nil }
func (*orderIn) Apply(*domain.Order)           {}

type statusIn struct {
	Status string `json:"status" binding:"required"`
}

func (h Store) MountAPI(e ez.EZ) {
	e = e.Tag("store")

	ez.Crud[domain.Category, categoryIn](e, ez.CrudConfig[domain.Category]{
		Path:     "/store/categories",
		Resource: h.S.Categories,
		Search:   []string{"name", "description"},
		Ordering: []string{"name", "created_at"},
	})
	ez.RegisterAction(e, ez.Action[struct{}, domain.Page[domain.Product]]{
		Method:  http.MethodGet,
		Path:    "/store/categories/:id/products/",
		Summary: "products of a category",
		Query:   []string{"page", "page_size", "search", "ordering"},
		Handler: func(c *ez.Ctx, _ *struct{}) (domain.Page[domain.Product], error) {
			q, err := ez.ListQuery(c, productSearch, productOrdering)
			if err != nil {
				return domain.Page[domain.Product]{}, err
			}
			return h.S.CategoryProducts(c.Request.Context(), c.Caller, c.Param("id"), q)
		},
	})

	ez.Crud[domain.Discount, discountIn](e, ez.CrudConfig[domain.Discount]{
		Path:     "/store/discounts",
		Resource: h.S.Discounts,
		Ordering: []string{"percent", "created_at"},
	})

	ez.Crud[domain.Product, productIn](e, ez.CrudConfig[domain.Product]{
		Path:     "/store/products",
		Resource: h.S.Products,
		Search:   productSearch,
		Ordering: productOrdering,
		Filters:  []string{"category", "price_gte", "price_lte", "stock_gte", "stock_lte"},
		Filter:   productFilter,
	})

	h.mountCustomers(e)

	ez.Crud[domain.Address, addressIn](e, ez.CrudConfig[domain.Address]{
		Path:     "/store/addresses",
		Resource: h.S.Addresses,
		Ordering: []string{"created_at"},
	})

	ez.Crud[domain.Cart, cartIn](e, ez.CrudConfig[domain.Cart]{
		Path:     "/store/carts",
		Resource: h.S.Carts,
		Ordering: []string{"created_at"},
		Only:     []string{ez.OpList, ez.OpCreate, ez.OpRetrieve, ez.OpDelete},
	})
	h.mountCartItems(e)
	h.mountOrders(e)
}

var (
	productSearch   = []string{"name", "description"}
	productOrdering = []string{"price", "stock", "created_at", "name"}
)

func productFilter(c *ez.Ctx, q *domain.ListQuery) error {
	if v := c.Query("category"); v != "" {
		q.Eq("category_id", v)
	}
	priceFrom, err := ez.QueryDecimal(c, "price_gte")
	if err != nil {
		return err
	}
	priceTo, err := ez.QueryDecimal(c, "price_lte")
	if err != nil {
		return err
	}
	ez.Range(q, "price", priceFrom, priceTo)
	for _, b := range []struct {
		name string
		op   domain.Op
	}{{"stock_gte", domain.OpGte}, {"stock_lte", domain.OpLte}} {
		raw := c.Query(b.name)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			return domain.Invalid(b.name, "enter a whole number")
		}
		q.Where("stock", b.op, n)
	}
	return nil
}

func (h Store) mountCustomers(e ez.EZ) {
	ez.RegisterAction(e, ez.Action[struct{}, *domain.Customer]{
		Method:  http.MethodGet,
		Path:    "/store/customers/me/",
		Auth:    true,
		Summary: "own store profile",
		Handler: func(c *ez.Ctx, _ *struct{}) (*domain.Customer, error) {
			return h.S.Customer(c.Request.Context(), c.Caller)
		},
	})
	for _, partial := range []bool{false, true} {
		method := http.MethodPut
		if partial {
			method = http.MethodPatch
		}
		ez.RegisterAction(e, ez.Action[customerIn, *domain.Customer]{
			Method:  method,
			Path:    "/store/customers/me/",
			Binder:  ez.BindJSON,
			Auth:    true,
			Partial: partial,
			Summary: "update own store profile",
			Handler: func(c *ez.Ctx, in *customerIn) (*domain.Customer, error) {
				return h.S.UpdateCustomer(c.Request.Context(), c.Caller, func(m *domain.Customer) error {
					in.Apply(m)
					return nil
				})
			},
		})
	}
	ez.Crud[domain.Customer, customerIn](e, ez.CrudConfig[domain.Customer]{
		Path:     "/store/customers",
		Resource: h.S.Customers,
		Ordering: []string{"created_at", "membership"},
		Filters:  []string{"membership"},
		Filter: func(c *ez.Ctx, q *domain.ListQuery) error {
			if v := c.Query("membership"); v != "" {
				q.Eq("membership", v)
			}
			return nil
		},
		Only: []string{ez.OpList, ez.OpRetrieve, ez.OpUpdate},
	})
}

func (h Store) mountCartItems(e ez.EZ) {
	const items = "/store/carts/:id/items/"
	const item = "/store/carts/:id/items/:item/"

	ez.RegisterAction(e, ez.Action[struct{}, []domain.CartItem]{
		Method:  http.MethodGet,
		Path:    items,
		Auth:    true,
		Summary: "list cart items",
		Handler: func(c *ez.Ctx, _ *struct{}) ([]domain.CartItem, error) {
			return h.S.CartItems(c.Request.Context(), c.Caller, c.Param("id"))
		},
	})
	ez.RegisterAction(e, ez.Action[cartItemIn, *domain.CartItem]{
		Method:  http.MethodPost,
		Path:    items,
		Binder:  ez.BindJSON,
		Auth:    true,
		Status:  http.StatusCreated,
		Summary: "add a product, or increase its quantity",
		Handler: func(c *ez.Ctx, in *cartItemIn) (*domain.CartItem, error) {
			qty := 1
			if in.Quantity != nil {
				qty = *in.Quantity
			}
			return h.S.AddItem(c.Request.Context(), c.Caller, c.Param("id"), in.ProductID, qty)
		},
	})
	ez.RegisterAction(e, ez.Action[struct{}, *domain.CartItem]{
		Method:  http.MethodGet,
		Path:    item,
		Auth:    true,
		Summary: "retrieve cart item",
		Handler: func(c *ez.Ctx, _ *struct{}) (*domain.CartItem, error) {
			return h.S.CartItem(c.Request.Context(), c.Caller, c.Param("id"), c.Param("item"))
		},
	})
	for _, method := range []string{http.MethodPut, http.MethodPatch} {
		ez.RegisterAction(e, ez.Action[quantityIn, *domain.CartItem]{
			Method:  method,
			Path:    item,
			Binder:  ez.BindJSON,
			Auth:    true,
			Summary: "set item quantity",
			Handler: func(c *ez.Ctx, in *quantityIn) (*domain.CartItem, error) {
				return h.S.SetItemQuantity(c.Request.Context(), c.Caller, c.Param("id"), c.Param("item"), in.Quantity)
			},
		})
	}
	ez.RegisterAction(e, ez.Action[struct{}, struct{}]{
		Method:  http.MethodDelete,
		Path:    item,
		Auth:    true,
		Status:  http.StatusNoContent,
		Summary: "remove item from cart",
		Handler: func(c *ez.Ctx, _ *struct{}) (struct{}, error) {
			return struct{}{}, h.S.RemoveItem(c.Request.Context(), c.Caller, c.Param("id"), c.Param("item"))
		},
	})
}

func (h Store) mountOrders(e ez.EZ) {
	ez.RegisterAction(e, ez.Action[service.PlaceOrderInput, *domain.Order]{
		Method:  http.MethodPost,
		Path:    "/store/orders/",
		Binder:  ez.BindJSON,
		Auth:    true,
		Status:  http.StatusCreated,
		Summary: "place an order from a cart",
		Handler: func(c *ez.Ctx, in *service.PlaceOrderInput) (*domain.Order, error) {
			return h.S.PlaceOrder(c.Request.Context(), c.Caller, *in)
		},
	})
	ez.Crud[domain.Order, orderIn](e, ez.CrudConfig[domain.Order]{
		Path:     "/store/orders",
		Resource: h.S.Orders,
		Ordering: []string{"created_at", "total_price", "status"},
		Filters:  []string{"status"},
		Filter: func(c *ez.Ctx, q *domain.ListQuery) error {
			if v := c.Query("status"); v != "" {
				if !domain.OneOf(v, domain.OrderStatuses...) {
					return domain.Invalid("status", "invalid order status")
				}
				q.Eq("status", v)
			}
			return nil
		},
		Only: []string{ez.OpList, ez.OpRetrieve},
	})
	ez.RegisterAction(e, ez.Action[struct{}, *domain.Order]{
		Method:  http.MethodPost,
		Path:    "/store/orders/:id/cancel/",
		Auth:    true,
		Summary: "cancel a pending order",
		Handler: func(c *ez.Ctx, _ *struct{}) (*domain.Order, error) {
			return h.S.Cancel(c.Request.Context(), c.Caller, c.Param("id"))
		},
	})
	ez.RegisterAction(e, ez.Action[statusIn, *domain.Order]{
		Method:  http.MethodPost,
		Path:    "/store/orders/:id/status/",
		Binder:  ez.BindJSON,
		Roles:   []string{domain.RoleAdmin},
		Summary: "advance order status",
		Handler: func(c *ez.Ctx, in *statusIn) (*domain.Order, error) {
			return h.S.SetStatus(c.Request.Context(), c.Caller, c.Param("id"), in.Status)
		},
	})
}
