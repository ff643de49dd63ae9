package domain

import (
	"context"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Category struct {
	Base
	Name        string `gorm:"size:255;not null;uniqueIndex" json:"name"`
	Description string `gorm:"type:text" json:"description"`
}

// Discount 百分比折扣 (0, 100]
type Discount struct {
	Base
	Percent     float64 `gorm:"not null" json:"percent"`
	Description string  `gorm:"size:255;not null" json:"description"`
}

type Product struct {
	Base
	Name        string          `gorm:"size:255;not null;index" json:"name"`
	Description string          `gorm:"type:text;not null" json:"description"`
	Price       decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"price"`
	Stock       int             `gorm:"not null;index" json:"stock"`
	CategoryID  string          `gorm:"size:36;not null;index" json:"category_id"`
	Category    *Category       `gorm:"constraint:OnDelete:RESTRICT" json:"-"`
	Discounts   []Discount      `gorm:"many2many:product_discounts" json:"discounts"`
	ImageURL    string          `gorm:"size:500" json:"image_url"`

	IsInStock  bool            `gorm:"-" json:"is_in_stock"`
	FinalPrice decimal.Decimal `gorm:"-" json:"final_price"`

	DiscountIDs []string `gorm:"-" json:"-"`
}

func (p *Product) AfterFind(*gorm.DB) error {
	p.IsInStock = p.Stock > 0
	p.FinalPrice = p.EffectivePrice()
	return nil
}

// EffectivePrice 取最大折扣，保留两位
func (p *Product) EffectivePrice() decimal.Decimal {
	best := 0.0
	for _, d := range p.Discounts {
		if d.Percent > best {
			best = d.Percent
		}
	}
	if best <= 0 {
		return p.Price.Round(2)
	}
	factor := decimal.NewFromFloat(100 - best).Div(decimal.NewFromInt(100))
	return p.Price.Mul(factor).Round(2)
}

var Memberships = []string{"bronze", "silver", "gold"}

// Customer 商城资料，每用户一条
type Customer struct {
	Base
	UserID     string `gorm:"size:36;not null;uniqueIndex" json:"user_id"`
	User       *User  `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Phone      string `gorm:"size:32" json:"phone"`
	BirthDate  *Day   `json:"birth_date"`
	Membership string `gorm:"size:16;not null" json:"membership"`
}

func (c *Customer) OwnerID() string     { return c.UserID }
func (c *Customer) SetOwner(uid string) { c.UserID = uid }

type Address struct {
	Base
	UserID    string `gorm:"size:36;not null;index" json:"user_id"`
	User      *User  `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Street    string `gorm:"size:255;not null" json:"street"`
	City      string `gorm:"size:128;not null" json:"city"`
	Zip       string `gorm:"size:32" json:"zip"`
	Country   string `gorm:"size:64;not null" json:"country"`
	IsDefault bool   `gorm:"not null" json:"is_default"`
}

func (a *Address) OwnerID() string     { return a.UserID }
func (a *Address) SetOwner(uid string) { a.UserID = uid }

func (a *Address) Format() string {
	s := a.Street + ", " + a.City
	if a.Zip != "" {
		s += " " + a.Zip
	}
	return s + ", " + a.Country
}

type Cart struct {
	Base
	UserID     string          `gorm:"size:36;not null;index" json:"user_id"`
	User       *User           `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Items      []CartItem      `gorm:"constraint:OnDelete:CASCADE" json:"items"`
	TotalPrice decimal.Decimal `gorm:"-" json:"total_price"`
}

func (c *Cart) OwnerID() string     { return c.UserID }
func (c *Cart) SetOwner(uid string) { c.UserID = uid }

// AfterFind 合计（需预加载 Items.Product.Discounts）
func (c *Cart) AfterFind(*gorm.DB) error {
	c.TotalPrice = c.Total()
	return nil
}

func (c *Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for _, it := range c.Items {
		total = total.Add(it.LineTotal())
	}
	return total.Round(2)
}

// CartItem (cart_id, product_id) 唯一，重复加入只累加数量
type CartItem struct {
	Base
	CartID    string   `gorm:"size:36;not null;uniqueIndex:idx_cart_product" json:"cart_id"`
	ProductID string   `gorm:"size:36;not null;uniqueIndex:idx_cart_product" json:"product_id"`
	Product   *Product `gorm:"constraint:OnDelete:CASCADE" json:"product,omitempty"`
	Quantity  int      `gorm:"not null" json:"quantity"`
}

func (it CartItem) LineTotal() decimal.Decimal {
	if it.Product == nil {
		return decimal.Zero
	}
	return it.Product.EffectivePrice().Mul(decimal.NewFromInt(int64(it.Quantity)))
}

const (
	OrderPending   = "pending"
	OrderPaid      = "paid"
	OrderShipped   = "shipped"
	OrderDelivered = "delivered"
	OrderCancelled = "cancelled"
)

var OrderStatuses = []string{OrderPending, OrderPaid, OrderShipped, OrderDelivered, OrderCancelled}

var orderTransitions = map[string][]string{
	OrderPending: {OrderPaid, OrderCancelled},
	OrderPaid:    {OrderShipped, OrderCancelled},
	OrderShipped: {OrderDelivered},
}

// CanTransition 只允许前进；delivered/cancelled 为终态
func CanTransition(from, to string) bool {
	return OneOf(to, orderTransitions[from]...)
}

func IsTerminal(status string) bool { return len(orderTransitions[status]) == 0 }

type Order struct {
	Base
	UserID          string          `gorm:"size:36;not null;index" json:"user_id"`
	User            *User           `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Status          string          `gorm:"size:20;not null;index" json:"status"`
	TotalPrice      decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"total_price"`
	ShippingAddress string          `gorm:"type:text;not null" json:"shipping_address"`
	Items           []OrderItem     `gorm:"constraint:OnDelete:CASCADE" json:"items"`
}

func (o *Order) OwnerID() string     { return o.UserID }
func (o *Order) SetOwner(uid string) { o.UserID = uid }

// OrderItem 下单时的快照，商品删除后仍保留
type OrderItem struct {
	Base
	OrderID     string          `gorm:"size:36;not null;index" json:"-"`
	ProductID   *string         `gorm:"size:36;index" json:"product_id"`
	Product     *Product        `gorm:"constraint:OnDelete:SET NULL" json:"-"`
	ProductName string          `gorm:"size:255;not null" json:"product_name"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"unit_price"`
	Quantity    int             `gorm:"not null" json:"quantity"`
	LineTotal   decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"line_total"`
}

// OrderRepository 购物车/订单的多步写操作
type OrderRepository interface {
	AddCartItem(ctx context.Context, cartID, productID string, qty int) (*CartItem, error)
	PlaceOrder(ctx context.Context, cart *Cart, shippingAddress string) (*Order, error)
	SetStatus(ctx context.Context, o *Order, to string) error
	RestoreStock(ctx context.Context, o *Order) error
}
