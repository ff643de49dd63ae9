package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"fitness-platform/internal/core/cache"
	"fitness-platform/internal/domain"
	"fitness-platform/internal/repo"
)

// storeCatalog 商品目录：公开读，管理员写
var storeCatalog = Policy{
	List:   domain.AccessPublic,
	Read:   domain.AccessPublic,
	Create: domain.AccessAdmin,
	Write:  domain.AccessAdmin,
}

type StoreService struct {
	Categories *Resource[domain.Category]
	Discounts  *Resource[domain.Discount]
	Products   *Resource[domain.Product]
	Customers  *Resource[domain.Customer]
	Addresses  *Resource[domain.Address]
	Carts      *Resource[domain.Cart]
	Orders     *Resource[domain.Order]

	products  *repo.GormStore[domain.Product]
	discounts *repo.GormStore[domain.Discount]
	customers *repo.GormStore[domain.Customer]
	addresses *repo.GormStore[domain.Address]
	items     *repo.GormStore[domain.CartItem]
	orders    domain.OrderRepository
	tx        Transactor
	cache     *cache.Cache
	log       *zap.Logger
}

func NewStoreService(db *gorm.DB, tx Transactor, c *cache.Cache, ttl time.Duration, l *zap.Logger) *StoreService {
	s := &StoreService{
		products: repo.NewGormStore[domain.Product](db).
			Preload("Discounts").
			CleanJoin("product_discounts", "product_id"),
		discounts: repo.NewGormStore[domain.Discount](db).CleanJoin("product_discounts", "discount_id"),
		customers: repo.NewGormStore[domain.Customer](db),
		addresses: repo.NewGormStore[domain.Address](db),
		items:     repo.NewGormStore[domain.CartItem](db).Preload("Product.Discounts"),
		orders:    repo.NewOrderRepo(db),
		tx:        tx,
		cache:     c,
		log:       l,
	}
	categories := repo.NewGormStore[domain.Category](db)

	s.Categories = newResource("category", categories, tx, storeCatalog)
	s.Categories.Cache, s.Categories.CacheTTL = c, ttl
	s.Categories.Hooks = Hooks[domain.Category]{
		Validate: func(ctx context.Context, m, _ *domain.Category) error {
			n, err := categories.Count(ctx, domain.Eq("name", m.Name), domain.Ne("id", m.ID))
			if err != nil {
				return err
			}
			if n > 0 {
				return domain.Invalid("name", "category with this name already exists")
			}
			return nil
		},
		BeforeDelete: func(ctx context.Context, m *domain.Category) error {
			n, err := s.products.Count(ctx, domain.Eq("category_id", m.ID))
			if err != nil {
				return err
			}
			if n > 0 {
				return domain.Invalid(domain.NonField, fmt.Sprintf("cannot delete category %q: %d products still reference it", m.Name, n))
			}
			return nil
		},
	}

	s.Discounts = newResource("discount", s.discounts, tx, storeCatalog)
	s.Discounts.Cache, s.Discounts.CacheTTL = c, ttl
	s.Discounts.Hooks = Hooks[domain.Discount]{
		AfterSave: func(ctx context.Context, m *domain.Discount) error {
			return s.evictDiscounted(ctx, m.ID)
		},
		BeforeDelete: func(ctx context.Context, m *domain.Discount) error {
			return s.evictDiscounted(ctx, m.ID)
		},
	}

	s.Products = newResource("product", s.products, tx, storeCatalog)
	s.Products.Cache, s.Products.CacheTTL = c, ttl
	s.Products.Hooks = Hooks[domain.Product]{
		Validate: func(ctx context.Context, m, _ *domain.Product) error {
			if err := checkFK(ctx, categories, "category_id", m.CategoryID); err != nil {
				return err
			}
			if m.DiscountIDs != nil {
				return checkIDs(ctx, s.discounts, "discount_ids", m.DiscountIDs)
			}
			return nil
		},
		AfterSave: func(ctx context.Context, m *domain.Product) error {
			if m.DiscountIDs == nil {
				return nil
			}
			ds, err := s.discounts.Find(ctx, domain.In("id", uniqueIDs(m.DiscountIDs)))
			if err != nil {
				return err
			}
			return s.products.Replace(ctx, m, "Discounts", ds)
		},
	}

	s.Customers = newResource("customer", s.customers, tx, Policy{
		List:      domain.AccessAdmin,
		Read:      domain.AccessAuthenticated,
		Create:    domain.AccessAuthenticated,
		Write:     domain.AccessOwner,
		OwnerOnly: true,
	})
	s.Customers.Hooks.Validate = func(_ context.Context, m, _ *domain.Customer) error {
		errs := domain.FieldErrors{}
		if m.Membership == "" {
			m.Membership = domain.Memberships[0]
		}
		if !domain.OneOf(m.Membership, domain.Memberships...) {
			errs.Add("membership", "must be one of bronze, silver, gold")
		}
		checkBirth(errs, "birth_date", m.BirthDate)
		return errs.Err()
	}

	s.Addresses = newResource("address", s.addresses, tx, ownerOnly)
	s.Addresses.Hooks.AfterSave = func(ctx context.Context, m *domain.Address) error {
		if !m.IsDefault {
			return nil
		}
		// 同一用户只保留一个默认地址
		return s.addresses.DB(ctx).Model(&domain.Address{}).
			Where("user_id = ? AND id <> ?", m.UserID, m.ID).
			Update("is_default", false).Error
	}

	carts := repo.NewGormStore[domain.Cart](db).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("created_at, id") }).
		Preload("Items.Product.Discounts")
	s.Carts = newResource("cart", carts, tx, ownerOnly)

	orders := repo.NewGormStore[domain.Order](db).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("created_at, id") })
	s.Orders = newResource("order", orders, tx, Policy{
		List:      domain.AccessAuthenticated,
		Read:      domain.AccessAuthenticated,
		Create:    domain.AccessAuthenticated,
		Write:     domain.AccessAdmin,
		OwnerOnly: true,
	})
	return s
}

func (s *StoreService) evictProducts(ctx context.Context, ids ...string) {
	if !s.cache.Enabled() || len(ids) == 0 {
		return
	}
	keys := make([]string, 0, len(ids))
	for _, id := range ids {
		keys = append(keys, s.Products.cacheKey(id))
	}
	if err := s.cache.Del(ctx, keys...); err != nil {
		s.log.Warn("cache evict failed", zap.Error(err))
	}
}

// evictDiscounted 折扣变动影响相关商品的最终价格
func (s *StoreService) evictDiscounted(ctx context.Context, discountID string) error {
	if !s.cache.Enabled() {
		return nil
	}
	var ids []string
	err := s.products.DB(ctx).Table("product_discounts").
		Where("discount_id = ?", discountID).Pluck("product_id", &ids).Error
	if err != nil {
		return err
	}
	s.evictProducts(ctx, ids...)
	return nil
}

// CategoryProducts 某分类下的商品
func (s *StoreService) CategoryProducts(ctx context.Context, c domain.Caller, categoryID string, q domain.ListQuery) (domain.Page[domain.Product], error) {
	if _, err := s.Categories.Retrieve(ctx, c, categoryID); err != nil {
		return domain.Page[domain.Product]{}, err
	}
	q.Eq("category_id", categoryID)
	return s.Products.List(ctx, c, q)
}

// ---------- customer ----------

// Customer 当前用户的商城资料，首次访问时创建
func (s *StoreService) Customer(ctx context.Context, c domain.Caller) (*domain.Customer, error) {
	if err := c.Allow(domain.AccessAuthenticated); err != nil {
		return nil, err
	}
	m, err := s.customers.First(ctx, domain.Eq("user_id", c.UserID))
	if err == nil {
		return m, nil
	}
	if !isNotFound(err) {
		return nil, err
	}
	m, err = s.Customers.Create(ctx, c, &domain.Customer{Membership: domain.Memberships[0]})
	if isConflict(err) {
		// 并发首次访问
		return s.customers.First(ctx, domain.Eq("user_id", c.UserID))
	}
	return m, err
}

func (s *StoreService) UpdateCustomer(ctx context.Context, c domain.Caller, mutate func(m *domain.Customer) error) (*domain.Customer, error) {
	m, err := s.Customer(ctx, c)
	if err != nil {
		return nil, err
	}
	return s.Customers.Save(ctx, m, mutate)
}

// ---------- cart ----------

func (s *StoreService) cartItem(ctx context.Context, cartID, itemID string) (*domain.CartItem, error) {
	return s.items.First(ctx, domain.Eq("id", itemID), domain.Eq("cart_id", cartID))
}

func checkQuantity(qty int) error {
	if qty < 1 {
		return domain.Invalid("quantity", "ensure this value is greater than or equal to 1")
	}
	return nil
}

func (s *StoreService) CartItems(ctx context.Context, c domain.Caller, cartID string) ([]domain.CartItem, error) {
	cart, err := s.Carts.Retrieve(ctx, c, cartID)
	if err != nil {
		return nil, err
	}
	return cart.Items, nil
}

func (s *StoreService) CartItem(ctx context.Context, c domain.Caller, cartID, itemID string) (*domain.CartItem, error) {
	if _, err := s.Carts.Retrieve(ctx, c, cartID); err != nil {
		return nil, err
	}
	return s.cartItem(ctx, cartID, itemID)
}

// AddItem 同一商品只累加数量
func (s *StoreService) AddItem(ctx context.Context, c domain.Caller, cartID, productID string, qty int) (*domain.CartItem, error) {
	cart, err := s.Carts.Writable(ctx, c, cartID)
	if err != nil {
		return nil, err
	}
	if err := checkQuantity(qty); err != nil {
		return nil, err
	}
	if err := checkFK(ctx, s.products, "product_id", productID); err != nil {
		return nil, err
	}
	return s.orders.AddCartItem(ctx, cart.ID, productID, qty)
}

func (s *StoreService) SetItemQuantity(ctx context.Context, c domain.Caller, cartID, itemID string, qty int) (*domain.CartItem, error) {
	cart, err := s.Carts.Writable(ctx, c, cartID)
	if err != nil {
		return nil, err
	}
	if err := checkQuantity(qty); err != nil {
		return nil, err
	}
	it, err := s.cartItem(ctx, cart.ID, itemID)
	if err != nil {
		return nil, err
	}
	it.Quantity = qty
	if err := s.items.Save(ctx, it); err != nil {
		return nil, err
	}
	return s.cartItem(ctx, cart.ID, itemID)
}

func (s *StoreService) RemoveItem(ctx context.Context, c domain.Caller, cartID, itemID string) error {
	cart, err := s.Carts.Writable(ctx, c, cartID)
	if err != nil {
		return err
	}
	n, err := s.items.DeleteWhere(ctx, domain.Eq("id", itemID), domain.Eq("cart_id", cart.ID))
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ---------- order ----------

// PlaceOrderInput address_id 与 shipping_address 二选一
type PlaceOrderInput struct {
	CartID          string `json:"cart_id" binding:"required"`
	AddressID       string `json:"address_id"`
	ShippingAddress string `json:"shipping_address"`
}

func (in *PlaceOrderInput) Check(bool) domain.FieldErrors {
	errs := domain.FieldErrors{}
	if in.AddressID == "" && domain.Blank(in.ShippingAddress) {
		errs.Add("shipping_address", "either address_id or shipping_address is required")
	}
	return errs
}

// PlaceOrder 只能用自己的购物车下单
func (s *StoreService) PlaceOrder(ctx context.Context, c domain.Caller, in PlaceOrderInput) (*domain.Order, error) {
	if err := c.Allow(domain.AccessAuthenticated); err != nil {
		return nil, err
	}
	if err := in.Check(false).Err(); err != nil {
		return nil, err
	}
	cart, err := s.Carts.Retrieve(ctx, c, in.CartID)
	if err != nil {
		return nil, err
	}
	if !c.Owns(cart.UserID) {
		return nil, domain.ErrForbidden
	}
	shipping := strings.TrimSpace(in.ShippingAddress)
	if in.AddressID != "" {
		addr, err := s.addresses.First(ctx, domain.Eq("id", in.AddressID), domain.Eq("user_id", c.UserID))
		if isNotFound(err) {
			return nil, domain.Invalid("address_id", "address does not exist")
		}
		if err != nil {
			return nil, err
		}
		shipping = addr.Format()
	}

	o, err := s.orders.PlaceOrder(ctx, cart, shipping)
	if err != nil {
		return nil, err
	}
	ordersPlaced.Inc()
	s.evictProducts(ctx, productIDs(o)...)
	s.log.Info("order placed",
		zap.String("order", o.ID), zap.String("uid", c.UserID),
		zap.String("total", o.TotalPrice.StringFixed(2)), zap.Int("items", len(o.Items)))
	return s.Orders.Store.Get(ctx, o.ID)
}

func productIDs(o *domain.Order) []string {
	ids := make([]string, 0, len(o.Items))
	for _, it := range o.Items {
		if it.ProductID != nil {
			ids = append(ids, *it.ProductID)
		}
	}
	return ids
}

// Cancel 仅下单用户，仅 pending 状态；回补库存
func (s *StoreService) Cancel(ctx context.Context, c domain.Caller, id string) (*domain.Order, error) {
	if err := c.Allow(domain.AccessAuthenticated); err != nil {
		return nil, err
	}
	o, err := s.Orders.Store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !c.Owns(o.UserID) {
		return nil, domain.ErrForbidden
	}
	if o.Status != domain.OrderPending {
		return nil, domain.Invalid("status", "only pending orders can be cancelled")
	}
	return s.transition(ctx, o, domain.OrderCancelled)
}

// SetStatus 管理员推进订单状态，只能前进
func (s *StoreService) SetStatus(ctx context.Context, c domain.Caller, id, to string) (*domain.Order, error) {
	if err := c.Allow(domain.AccessAdmin); err != nil {
		return nil, err
	}
	if !domain.OneOf(to, domain.OrderStatuses...) {
		return nil, domain.Invalid("status", fmt.Sprintf("%q is not a valid choice", to))
	}
	o, err := s.Orders.Store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !domain.CanTransition(o.Status, to) {
		return nil, domain.Invalid("status", fmt.Sprintf("cannot change status from %s to %s", o.Status, to))
	}
	return s.transition(ctx, o, to)
}

func (s *StoreService) transition(ctx context.Context, o *domain.Order, to string) (*domain.Order, error) {
	from := o.Status
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		if err := s.orders.SetStatus(ctx, o, to); err != nil {
			return err
		}
		if to == domain.OrderCancelled {
			return s.orders.RestoreStock(ctx, o)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	orderTransitions.WithLabelValues(to).Inc()
	if to == domain.OrderCancelled {
		s.evictProducts(ctx, productIDs(o)...)
	}
	s.log.Info("order status changed", zap.String("order", o.ID), zap.String("from", from), zap.String("to", to))
	return s.Orders.Store.Get(ctx, o.ID)
}

// ListOrders 管理端按状态筛选
func (s *StoreService) ListOrders(ctx context.Context, c domain.Caller, status string, q domain.ListQuery) (domain.Page[domain.Order], error) {
	if err := c.Allow(domain.AccessAdmin); err != nil {
		return domain.Page[domain.Order]{}, err
	}
	if status != "" {
		if !domain.OneOf(status, domain.OrderStatuses...) {
			return domain.Page[domain.Order]{}, domain.Invalid("status", fmt.Sprintf("%q is not a valid choice", status))
		}
		q.Eq("status", status)
	}
	return s.Orders.List(ctx, c, q)
}
