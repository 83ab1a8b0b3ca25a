package repository

import (
	"context"
	"errors"
	"storefront-backend/internal/model"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CartRepository interface {
	GetOrCreate(ctx context.Context, userID string) (*model.Cart, error)
	AddItem(ctx context.Context, cartID string, product *model.Product, quantity int) (*model.CartItem, error)
	UpdateItemQuantity(ctx context.Context, cartID, itemID string, quantity int) (*model.CartItem, error)
	RemoveItem(ctx context.Context, cartID, itemID string) error
	ClearForUser(ctx context.Context, tx *gorm.DB, userID string) error
}

type cartRepoImpl struct {
	db *gorm.DB
}

func NewCartRepository(db *gorm.DB) CartRepository {
	return &cartRepoImpl{
		db: db,
	}
}

func lineTotal(price decimal.Decimal, quantity int) decimal.Decimal {
	return price.Mul(decimal.NewFromInt(int64(quantity)))
}

func (r *cartRepoImpl) GetOrCreate(ctx context.Context, userID string) (*model.Cart, error) {
	cart := &model.Cart{ID: uuid.NewString(), UserID: userID}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoNothing: true,
	}).Omit(clause.Associations).Create(cart).Error
	if err != nil {
		return nil, err
	}

	var stored model.Cart
	err = r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		Preload("Items.Product").
		Where("user_id = ?", userID).
		First(&stored).Error
	if err != nil {
		return nil, err
	}

	return &stored, nil
}

// AddItem accumulates quantity onto an existing (cart, product) row instead of
// inserting a second one.
func (r *cartRepoImpl) AddItem(ctx context.Context, cartID string, product *model.Product, quantity int) (*model.CartItem, error) {
	var stored model.CartItem
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		item := &model.CartItem{
			ID:        uuid.NewString(),
			CartID:    cartID,
			ProductID: product.ID,
			Quantity:  quantity,
			LineTotal: lineTotal(product.Price, quantity),
		}
		err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "cart_id"}, {Name: "product_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"quantity":   gorm.Expr("cart_items.quantity + ?", quantity),
				"updated_at": time.Now(),
			}),
		}).Omit(clause.Associations).Create(item).Error
		if err != nil {
			return err
		}

		if err := tx.Where("cart_id = ? AND product_id = ?", cartID, product.ID).
			First(&stored).Error; err != nil {
			return err
		}

		stored.LineTotal = lineTotal(product.Price, stored.Quantity)
		return tx.Model(&stored).Update("line_total", stored.LineTotal).Error
	})
	if err != nil {
		return nil, err
	}

	stored.Product = *product
	return &stored, nil
}

func (r *cartRepoImpl) UpdateItemQuantity(ctx context.Context, cartID, itemID string, quantity int) (*model.CartItem, error) {
	var item model.CartItem
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Preload("Product").
			Where("id = ? AND cart_id = ?", itemID, cartID).
			First(&item).Error; err != nil {
			return err
		}

		item.Quantity = quantity
		item.LineTotal = lineTotal(item.Product.Price, quantity)
		return tx.Model(&item).Updates(map[string]interface{}{
			"quantity":   item.Quantity,
			"line_total": item.LineTotal,
		}).Error
	})
	if err != nil {
		return nil, err
	}

	return &item, nil
}

func (r *cartRepoImpl) RemoveItem(ctx context.Context, cartID, itemID string) error {
	result := r.db.WithContext(ctx).
		Where("id = ? AND cart_id = ?", itemID, cartID).
		Delete(&model.CartItem{})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}

// ClearForUser is a no-op when the user has no cart.
func (r *cartRepoImpl) ClearForUser(ctx context.Context, tx *gorm.DB, userID string) error {
	var cart model.Cart
	err := tx.WithContext(ctx).
		Select("id").
		Where("user_id = ?", userID).
		First(&cart).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	return tx.WithContext(ctx).
		Where("cart_id = ?", cart.ID).
		Delete(&model.CartItem{}).Error
}
