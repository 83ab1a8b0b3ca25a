package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"storefront-backend/internal/client"
	"storefront-backend/internal/dto"
	"storefront-backend/internal/model"
	"storefront-backend/internal/repository"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"
)

const (
	HeaderWebhookSignature = "X-Razorpay-Signature"
	HeaderWebhookEventID   = "X-Razorpay-Event-Id"
)

// currencyExponents lists the accepted checkout currencies and their minor
// unit exponent. Amounts are stored with two decimals, so currencies with
// three-decimal minor units are not offered.
var currencyExponents = map[string]int32{
	"INR": 2,
	"USD": 2,
	"EUR": 2,
	"GBP": 2,
	"AED": 2,
	"SGD": 2,
	"AUD": 2,
	"CAD": 2,
	"JPY": 0,
}

type WebhookOutcome string

const (
	WebhookProcessed WebhookOutcome = "processed"
	WebhookDuplicate WebhookOutcome = "duplicate"
	WebhookIgnored   WebhookOutcome = "ignored"
)

var errDuplicateEvent = errors.New("webhook event already processed")

type PaymentService interface {
	// CreatePaymentOrder reports created=false when an existing PENDING
	// payment was returned instead of a new one.
	CreatePaymentOrder(ctx context.Context, userID string, req *dto.PaymentOrderRequest) (payment *model.Payment, created bool, err error)
	VerifyPayment(ctx context.Context, userID string, req *dto.VerifyPaymentRequest) (*model.Payment, error)
	HandleWebhook(ctx context.Context, headers http.Header, body []byte) (WebhookOutcome, error)
}

type paymentServiceImpl struct {
	db               *gorm.DB
	gateway          client.PaymentGateway
	orderRepo        repository.OrderRepository
	paymentRepo      repository.PaymentRepository
	webhookEventRepo repository.WebhookEventRepository
	requests         singleflight.Group
}

func NewPaymentService(
	db *gorm.DB,
	gateway client.PaymentGateway,
	orderRepo repository.OrderRepository,
	paymentRepo repository.PaymentRepository,
	webhookEventRepo repository.WebhookEventRepository,
) PaymentService {
	return &paymentServiceImpl{
		db:               db,
		gateway:          gateway,
		orderRepo:        orderRepo,
		paymentRepo:      paymentRepo,
		webhookEventRepo: webhookEventRepo,
	}
}

type paymentOrderResult struct {
	payment *model.Payment
	created bool
}

func (s *paymentServiceImpl) CreatePaymentOrder(ctx context.Context, userID string, req *dto.PaymentOrderRequest) (*model.Payment, bool, error) {
	if !req.Amount.IsPositive() {
		return nil, false, newError(ErrValidation, "valid amount is required")
	}
	if strings.TrimSpace(req.OrderID) == "" {
		return nil, false, newError(ErrValidation, "orderId is required")
	}
	currency := strings.ToUpper(strings.TrimSpace(req.Currency))
	if currency == "" {
		currency = defaultCurrency
	}
	exponent, ok := currencyExponents[currency]
	if !ok {
		return nil, false, newError(ErrValidation, "unsupported currency %q", currency)
	}
	if !req.Amount.Round(exponent).IsPositive() {
		return nil, false, newError(ErrValidation, "amount is below the smallest %s unit", currency)
	}

	order, err := s.orderRepo.FindForUser(ctx, req.OrderID, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		slog.WarnContext(ctx, "payment requested for unknown order", "order_id", req.OrderID, "user_id", userID)
		return nil, false, newError(ErrNotFound, "order not found")
	}
	if err != nil {
		return nil, false, fmt.Errorf("find order: %w", err)
	}

	// double submits for one order share a single gateway call
	v, err, _ := s.requests.Do(order.ID, func() (interface{}, error) {
		payment, created, err := s.createPaymentOrder(context.WithoutCancel(ctx), order, req, currency)
		if err != nil {
			return nil, err
		}
		return &paymentOrderResult{payment: payment, created: created}, nil
	})
	if err != nil {
		return nil, false, err
	}

	res := v.(*paymentOrderResult)
	return res.payment, res.created, nil
}

func (s *paymentServiceImpl) createPaymentOrder(ctx context.Context, order *model.Order, req *dto.PaymentOrderRequest, currency string) (*model.Payment, bool, error) {
	pending, err := s.paymentRepo.FindPendingForOrder(ctx, order.ID)
	if err == nil {
		return pending, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, fmt.Errorf("find pending payment: %w", err)
	}

	exponent := currencyExponents[currency]
	amount := req.Amount.Round(exponent)
	remote, err := s.gateway.CreateOrder(ctx, &client.CreateOrderRequest{
		AmountMinor: amount.Shift(exponent).IntPart(),
		Currency:    currency,
		Receipt:     "order_" + order.OrderNumber,
		Notes: map[string]string{
			"order_id":     order.ID,
			"order_number": order.OrderNumber,
		},
	})
	if err != nil {
		slog.ErrorContext(ctx, "gateway create order failed", "order_id", order.ID, "error", err)
		return nil, false, fmt.Errorf("gateway create order: %w", err)
	}

	payment := &model.Payment{
		ID:             uuid.NewString(),
		OrderID:        order.ID,
		PaymentOrderID: remote.ID,
		Provider:       model.ProviderRazorpay,
		Amount:         amount,
		Currency:       currency,
		Status:         model.PaymentStatusPending,
	}
	err = s.paymentRepo.Create(ctx, payment)
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		// another process won the race; its remote order is the one to use
		slog.WarnContext(ctx, "pending payment created concurrently, discarding remote order",
			"order_id", order.ID, "payment_order_id", remote.ID)
		pending, findErr := s.paymentRepo.FindPendingForOrder(ctx, order.ID)
		if findErr != nil {
			return nil, false, fmt.Errorf("store payment in db: %w", err)
		}
		return pending, false, nil
	}
	if err != nil {
		slog.ErrorContext(ctx, "store payment failed after remote order was created",
			"order_id", order.ID, "payment_order_id", remote.ID, "error", err)
		return nil, false, fmt.Errorf("store payment in db: %w", err)
	}

	slog.InfoContext(ctx, "payment order created",
		"order_id", order.ID, "payment_order_id", remote.ID, "amount", amount.String(), "currency", currency)
	return payment, true, nil
}

// VerifyPayment checks the checkout signature against the latest payment
// attempt of the order. Older attempts are superseded by it.
func (s *paymentServiceImpl) VerifyPayment(ctx context.Context, userID string, req *dto.VerifyPaymentRequest) (*model.Payment, error) {
	if req.PaymentID == "" || req.OrderID == "" || req.Signature == "" {
		return nil, newError(ErrValidation, "paymentId, orderId and signature are required")
	}

	order, err := s.orderRepo.FindForUser(ctx, req.OrderID, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, newError(ErrNotFound, "order not found")
	}
	if err != nil {
		return nil, fmt.Errorf("find order: %w", err)
	}

	latest, err := s.paymentRepo.FindLatestForOrder(ctx, order.ID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, newError(ErrNotFound, "payment not found")
	}
	if err != nil {
		return nil, fmt.Errorf("find payment: %w", err)
	}

	if !s.gateway.VerifyPaymentSignature(latest.PaymentOrderID, req.PaymentID, req.Signature) {
		moved, err := s.paymentRepo.Transition(ctx, s.db, latest.ID, model.PaymentStatusFailed, nil)
		if err != nil {
			return nil, fmt.Errorf("mark payment failed: %w", err)
		}
		slog.WarnContext(ctx, "payment signature verification failed",
			"order_id", order.ID, "payment_order_id", latest.PaymentOrderID, "marked_failed", moved)
		return nil, newError(ErrVerificationFailed, "payment verification failed")
	}

	var payment *model.Payment
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		current, err := s.paymentRepo.FindByIDForUpdate(ctx, tx, latest.ID)
		if err != nil {
			return fmt.Errorf("lock payment: %w", err)
		}

		switch current.Status {
		case model.PaymentStatusSuccess:
			payment = current
			return nil
		case model.PaymentStatusFailed:
			return newError(ErrPaymentClosed, "payment has already failed, please start a new payment")
		}

		moved, err := s.paymentRepo.Transition(ctx, tx, current.ID, model.PaymentStatusSuccess, map[string]interface{}{
			"gateway_payment_id": req.PaymentID,
			"gateway_signature":  req.Signature,
		})
		if err != nil {
			return fmt.Errorf("mark payment success: %w", err)
		}
		if !moved {
			return newError(ErrConflict, "payment changed concurrently, please retry")
		}

		if _, err := s.orderRepo.MarkPaid(ctx, tx, order.ID); err != nil {
			return fmt.Errorf("mark order paid: %w", err)
		}

		payment, err = s.paymentRepo.FindByIDForUpdate(ctx, tx, current.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "payment verified", "order_id", order.ID, "payment_order_id", payment.PaymentOrderID)
	return payment, nil
}

// HandleWebhook applies a gateway event to the local payment. Authenticated
// events that cannot be matched are acknowledged and dropped.
func (s *paymentServiceImpl) HandleWebhook(ctx context.Context, headers http.Header, body []byte) (WebhookOutcome, error) {
	signature := headers.Get(HeaderWebhookSignature)
	if signature == "" {
		return "", ErrMissingSignature
	}
	if !s.gateway.VerifyWebhookSignature(body, signature) {
		return "", ErrInvalidSignature
	}

	var event model.RazorpayWebhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}

	entity := event.PaymentEntity()
	if entity == nil || entity.ID == "" || entity.OrderID == "" {
		slog.WarnContext(ctx, "webhook without payment entity ignored", "event", event.Event)
		return WebhookIgnored, nil
	}

	eventID := headers.Get(HeaderWebhookEventID)
	outcome := WebhookProcessed
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if eventID != "" {
			seen, err := s.webhookEventRepo.Exists(ctx, tx, eventID)
			if err != nil {
				return fmt.Errorf("check webhook event: %w", err)
			}
			if seen {
				return errDuplicateEvent
			}
		}

		payment, err := s.paymentRepo.FindByPaymentOrderIDForUpdate(ctx, tx, entity.OrderID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			outcome = WebhookIgnored
			return nil
		}
		if err != nil {
			return fmt.Errorf("find payment: %w", err)
		}

		// Events that precede capture (payment.authorized) share the payment
		// id, so a repeat only counts once the payment has settled.
		if payment.GatewayPaymentID == entity.ID && payment.WebhookReceived && payment.Status != model.PaymentStatusPending {
			return errDuplicateEvent
		}

		if err := s.paymentRepo.MarkWebhookReceived(ctx, tx, payment.ID, entity.ID); err != nil {
			return fmt.Errorf("mark webhook received: %w", err)
		}

		switch {
		case event.Event == model.WebhookEventPaymentCaptured && entity.Status == model.GatewayPaymentStatusCaptured:
			moved, err := s.paymentRepo.Transition(ctx, tx, payment.ID, model.PaymentStatusSuccess, map[string]interface{}{
				"gateway_payment_id": entity.ID,
			})
			if err != nil {
				return fmt.Errorf("mark payment success: %w", err)
			}
			if moved {
				if _, err := s.orderRepo.MarkPaid(ctx, tx, payment.OrderID); err != nil {
					return fmt.Errorf("mark order paid: %w", err)
				}
			}
		case event.Event == model.WebhookEventPaymentFailed:
			if _, err := s.paymentRepo.Transition(ctx, tx, payment.ID, model.PaymentStatusFailed, nil); err != nil {
				return fmt.Errorf("mark payment failed: %w", err)
			}
		}

		if eventID != "" {
			if err := s.webhookEventRepo.MarkProcessed(ctx, tx, eventID, event.Event); err != nil {
				if errors.Is(err, gorm.ErrDuplicatedKey) {
					return errDuplicateEvent
				}
				return fmt.Errorf("record webhook event: %w", err)
			}
		}
		return nil
	})
	if errors.Is(err, errDuplicateEvent) {
		slog.InfoContext(ctx, "duplicate webhook ignored", "event", event.Event, "payment_order_id", entity.OrderID)
		return WebhookDuplicate, nil
	}
	if err != nil {
		slog.ErrorContext(ctx, "webhook processing failed", "event", event.Event, "payment_order_id", entity.OrderID, "error", err)
		return "", err
	}

	slog.InfoContext(ctx, "webhook handled", "event", event.Event, "payment_order_id", entity.OrderID, "outcome", string(outcome))
	return outcome, nil
}
