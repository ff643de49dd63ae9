package repo

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"fitness-platform/internal/domain"
	"fitness-platform/pkg/utils"
)

type OrderRepo struct{ db *gorm.DB }

func NewOrderRepo(db *gorm.DB) *OrderRepo { return &OrderRepo{db: db} }

// AddCartItem 已有同商品行则累加数量
func (r *OrderRepo) AddCartItem(ctx context.Context, cartID, productID string, qty int) (*domain.CartItem, error) {
	var out domain.CartItem
	err := inTx(ctx, r.db, func(ctx context.Context) error {
		tx := conn(ctx, r.db)
		it := domain.CartItem{CartID: cartID, ProductID: productID, Quantity: qty}
		it.ID = utils.NewID()
		err := tx.Omit(clause.Associations).Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "cart_id"}, {Name: "product_id"}},
			DoUpdates: clause.Assignments(map[string]any{"quantity": gorm.Expr("cart_items.quantity + ?", qty)}),
		}).Create(&it).Error
		if err != nil {
			return translate(err)
		}
		return translate(conn(ctx, r.db).Preload("Product.Discounts").
			Where("cart_id = ? AND product_id = ?", cartID, productID).First(&out).Error)
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// PlaceOrder 扣库存、快照价格、清空购物车，全部在同一事务
func (r *OrderRepo) PlaceOrder(ctx context.Context, cart *domain.Cart, shippingAddress string) (*domain.Order, error) {
	var order *domain.Order
	err := inTx(ctx, r.db, func(ctx context.Context) error {
		tx := conn(ctx, r.db)
		var items []domain.CartItem
		if err := tx.Preload("Product.Discounts").Where("cart_id = ?", cart.ID).
			Order("created_at").Find(&items).Error; err != nil {
			return err
		}
		if len(items) == 0 {
			return domain.Invalid(domain.NonField, "cart is empty")
		}

		o := &domain.Order{
			UserID:          cart.UserID,
			Status:          domain.OrderPending,
			ShippingAddress: shippingAddress,
			TotalPrice:      decimal.Zero,
		}
		o.ID = utils.NewID()
		for _, it := range items {
			if it.Product == nil {
				return domain.Invalid("items", "product no longer exists")
			}
			res := tx.Model(&domain.Product{}).
				Where("id = ? AND stock >= ?", it.ProductID, it.Quantity).
				Update("stock", gorm.Expr("stock - ?", it.Quantity))
			if res.Error != nil {
				return fmt.Errorf("decrement stock: %w", res.Error)
			}
			if res.RowsAffected == 0 {
				return domain.Invalid("items", "insufficient stock for "+it.Product.Name)
			}
			unit := it.Product.EffectivePrice()
			line := unit.Mul(decimal.NewFromInt(int64(it.Quantity))).Round(2)
			pid := it.ProductID
			oi := domain.OrderItem{
				OrderID:     o.ID,
				ProductID:   &pid,
				ProductName: it.Product.Name,
				UnitPrice:   unit,
				Quantity:    it.Quantity,
				LineTotal:   line,
			}
			oi.ID = utils.NewID()
			o.Items = append(o.Items, oi)
			o.TotalPrice = o.TotalPrice.Add(line)
		}

		if err := tx.Omit("Items.Product").Create(o).Error; err != nil {
			return translate(err)
		}
		if err := tx.Where("cart_id = ?", cart.ID).Delete(&domain.CartItem{}).Error; err != nil {
			return err
		}
		order = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// SetStatus 以当前状态为条件更新，并发改动返回 ErrConflict
func (r *OrderRepo) SetStatus(ctx context.Context, o *domain.Order, to string) error {
	res := conn(ctx, r.db).Model(&domain.Order{}).
		Where("id = ? AND status = ?", o.ID, o.Status).
		Update("status", to)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("order %s changed concurrently: %w", o.ID, domain.ErrConflict)
	}
	o.Status = to
	return nil
}

// RestoreStock 取消订单时回补库存；已删除的商品跳过
func (r *OrderRepo) RestoreStock(ctx context.Context, o *domain.Order) error {
	tx := conn(ctx, r.db)
	for _, it := range o.Items {
		if it.ProductID == nil {
			continue
		}
		err := tx.Model(&domain.Product{}).Where("id = ?", *it.ProductID).
			Update("stock", gorm.Expr("stock + ?", it.Quantity)).Error
		if err != nil {
			return fmt.Errorf("restore stock: %w", err)
		}
	}
	return nil
}
