package repository

import (
	"context"
	"storefront-backend/internal/model"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PaymentRepository interface {
	Create(ctx context.Context, payment *model.Payment) error
	FindPendingForOrder(ctx context.Context, orderID string) (*model.Payment, error)
	FindLatestForOrder(ctx context.Context, orderID string) (*model.Payment, error)
	FindByPaymentOrderIDForUpdate(ctx context.Context, tx *gorm.DB, paymentOrderID string) (*model.Payment, error)
	FindByIDForUpdate(ctx context.Context, tx *gorm.DB, id string) (*model.Payment, error)
	Transition(ctx context.Context, tx *gorm.DB, id string, to model.PaymentStatus, fields map[string]interface{}) (bool, error)
	MarkWebhookReceived(ctx context.Context, tx *gorm.DB, id, gatewayPaymentID string) error
}

type paymentRepoImpl struct {
	db *gorm.DB
}

func NewPaymentRepository(db *gorm.DB) PaymentRepository {
	return &paymentRepoImpl{
		db: db,
	}
}

// Create fails with gorm.ErrDuplicatedKey when the order already has a
// pending payment.
func (r *paymentRepoImpl) Create(ctx context.Context, payment *model.Payment) error {
	if payment.Status == model.PaymentStatusPending {
		key := payment.OrderID
		payment.PendingKey = &key
	}
	return r.db.WithContext(ctx).Create(payment).Error
}

func (r *paymentRepoImpl) FindPendingForOrder(ctx context.Context, orderID string) (*model.Payment, error) {
	var payment model.Payment
	err := r.db.WithContext(ctx).
		Where("order_id = ? AND status = ?", orderID, model.PaymentStatusPending).
		Order("created_at DESC").
		First(&payment).Error

	if err != nil {
		return nil, err
	}

	return &payment, nil
}

// FindLatestForOrder returns the most recently created attempt. Older attempts
// are superseded by it.
func (r *paymentRepoImpl) FindLatestForOrder(ctx context.Context, orderID string) (*model.Payment, error) {
	var payment model.Payment
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at DESC").
		First(&payment).Error

	if err != nil {
		return nil, err
	}

	return &payment, nil
}

func (r *paymentRepoImpl) FindByPaymentOrderIDForUpdate(ctx context.Context, tx *gorm.DB, paymentOrderID string) (*model.Payment, error) {
	var payment model.Payment
	err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("payment_order_id = ?", paymentOrderID).
		First(&payment).Error

	if err != nil {
		return nil, err
	}

	return &payment, nil
}

func (r *paymentRepoImpl) FindByIDForUpdate(ctx context.Context, tx *gorm.DB, id string) (*model.Payment, error) {
	var payment model.Payment
	err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&payment).Error

	if err != nil {
		return nil, err
	}

	return &payment, nil
}

// Transition moves a PENDING payment to a terminal status and releases its
// pending key. It reports false when the payment was no longer PENDING.
func (r *paymentRepoImpl) Transition(ctx context.Context, tx *gorm.DB, id string, to model.PaymentStatus, fields map[string]interface{}) (bool, error) {
	updates := map[string]interface{}{
		"status":      to,
		"pending_key": nil,
		"updated_at":  time.Now(),
	}
	for k, v := range fields {
		updates[k] = v
	}

	result := tx.WithContext(ctx).Model(&model.Payment{}).
		Where("id = ? AND status = ?", id, model.PaymentStatusPending).
		Updates(updates)

	if result.Error != nil {
		return false, result.Error
	}

	return result.RowsAffected == 1, nil
}

func (r *paymentRepoImpl) MarkWebhookReceived(ctx context.Context, tx *gorm.DB, id, gatewayPaymentID string) error {
	return tx.WithContext(ctx).Model(&model.Payment{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"webhook_received":   true,
			"gateway_payment_id": gatewayPaymentID,
			"updated_at":         time.Now(),
		}).Error
}
