package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"storefront-backend/internal/cache"
	"storefront-backend/internal/dto"
	"storefront-backend/internal/model"
	"storefront-backend/internal/repository"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	defaultCountry     = "India"
	defaultCurrency    = "INR"
	deliveryDateLayout = "2006-01-02"
)

type OrderService interface {
	CreateOrder(ctx context.Context, userID string, req *dto.CreateOrderRequest) (*model.Order, error)
	GetOrder(ctx context.Context, userID, orderID string) (*model.Order, error)
	ListOrders(ctx context.Context, userID string) ([]*model.Order, error)
}

type orderServiceImpl struct {
	db             *gorm.DB
	orderRepo      repository.OrderRepository
	productRepo    repository.ProductRepository
	cartRepo       repository.CartRepository
	cartCache      cache.CartCache
	newOrderNumber func() string
}

func NewOrderService(
	db *gorm.DB,
	orderRepo repository.OrderRepository,
	productRepo repository.ProductRepository,
	cartRepo repository.CartRepository,
	cartCache cache.CartCache,
) OrderService {
	if cartCache == nil {
		cartCache = cache.NoopCache{}
	}
	return &orderServiceImpl{
		db:             db,
		orderRepo:      orderRepo,
		productRepo:    productRepo,
		cartRepo:       cartRepo,
		cartCache:      cartCache,
		newOrderNumber: generateOrderNumber,
	}
}

// generateOrderNumber returns ORD-<yyyymmdd>-<8 random hex chars>. Uniqueness
// is only enforced by the column constraint.
func generateOrderNumber() string {
	return fmt.Sprintf("ORD-%s-%s",
		time.Now().UTC().Format("20060102"),
		strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8]))
}

type orderLine struct {
	productID string
	quantity  int
}

// CreateOrder writes the order, its items and the cart clear in one
// transaction. Any failure leaves no trace.
func (s *orderServiceImpl) CreateOrder(ctx context.Context, userID string, req *dto.CreateOrderRequest) (*model.Order, error) {
	order, err := buildOrder(userID, req)
	if err != nil {
		return nil, err
	}

	lines, err := s.orderLines(ctx, userID, req)
	if err != nil {
		return nil, err
	}

	order.ID = uuid.NewString()
	order.OrderNumber = s.newOrderNumber()

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.orderRepo.Create(ctx, tx, order); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return newError(ErrConflict, "order number collision, please retry")
			}
			return fmt.Errorf("store order in db: %w", err)
		}

		productIDs := make([]string, 0, len(lines))
		for _, line := range lines {
			productIDs = append(productIDs, line.productID)
		}
		products, err := s.productRepo.FindAvailableMany(ctx, tx, productIDs)
		if err != nil {
			return fmt.Errorf("find products: %w", err)
		}

		items := make([]*model.OrderItem, 0, len(lines))
		for _, line := range lines {
			product, ok := products[line.productID]
			if !ok {
				return newError(ErrValidation, "product %s not found or unavailable", line.productID)
			}

			items = append(items, &model.OrderItem{
				ID:              uuid.NewString(),
				OrderID:         order.ID,
				ProductID:       product.ID,
				Product:         *product,
				Quantity:        line.quantity,
				PriceAtPurchase: product.Price,
				LineTotal:       product.Price.Mul(decimal.NewFromInt(int64(line.quantity))),
			})
		}

		if err := s.orderRepo.CreateOrderItems(ctx, tx, items); err != nil {
			return fmt.Errorf("store order items in db: %w", err)
		}

		if err := s.cartRepo.ClearForUser(ctx, tx, userID); err != nil {
			return fmt.Errorf("clear cart: %w", err)
		}

		order.Items = make([]model.OrderItem, len(items))
		for i, item := range items {
			order.Items[i] = *item
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	invalidateCart(ctx, s.cartCache, userID)
	slog.InfoContext(ctx, "order created",
		"order_id", order.ID,
		"order_number", order.OrderNumber,
		"user_id", userID,
		"items", len(order.Items),
		"total", order.Total().String())

	return order, nil
}

// orderLines returns the explicit item list, or the cart contents when the
// request asks for it and carries no items of its own.
func (s *orderServiceImpl) orderLines(ctx context.Context, userID string, req *dto.CreateOrderRequest) ([]orderLine, error) {
	var lines []orderLine
	if len(req.Items) == 0 && req.UseCart {
		cart, err := s.cartRepo.GetOrCreate(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("get cart: %w", err)
		}
		for _, item := range cart.Items {
			lines = append(lines, orderLine{productID: item.ProductID, quantity: item.Quantity})
		}
	} else {
		for i, item := range req.Items {
			if strings.TrimSpace(item.ProductID) == "" {
				return nil, newError(ErrValidation, "items[%d]: productId is required", i)
			}
			if item.Quantity <= 0 {
				return nil, newError(ErrValidation, "items[%d]: quantity must be at least 1", i)
			}
			lines = append(lines, orderLine{productID: strings.TrimSpace(item.ProductID), quantity: item.Quantity})
		}
	}

	if len(lines) == 0 {
		return nil, newError(ErrValidation, "order must contain at least one item")
	}
	return lines, nil
}

func buildOrder(userID string, req *dto.CreateOrderRequest) (*model.Order, error) {
	customer := req.CustomerDetails
	shipping := req.ShippingAddress

	required := []struct {
		field string
		value string
	}{
		{"customerDetails.name", customer.Name},
		{"customerDetails.email", customer.Email},
		{"customerDetails.phone", customer.Phone},
		{"shippingAddress.street", shipping.Street},
		{"shippingAddress.city", shipping.City},
		{"shippingAddress.state", shipping.State},
		{"shippingAddress.zipCode", shipping.ZipCode},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return nil, newError(ErrValidation, "%s is required", r.field)
		}
	}

	email := strings.TrimSpace(customer.Email)
	if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		return nil, newError(ErrValidation, "customerDetails.email is not a valid email address")
	}

	country := strings.TrimSpace(shipping.Country)
	if country == "" {
		country = defaultCountry
	}

	order := &model.Order{
		UserID:          userID,
		Status:          model.OrderStatusPlaced,
		CustomerName:    strings.TrimSpace(customer.Name),
		CustomerEmail:   email,
		CustomerPhone:   strings.TrimSpace(customer.Phone),
		ShippingStreet:  strings.TrimSpace(shipping.Street),
		ShippingCity:    strings.TrimSpace(shipping.City),
		ShippingState:   strings.TrimSpace(shipping.State),
		ShippingZipCode: strings.TrimSpace(shipping.ZipCode),
		ShippingCountry: country,
	}

	if prefs := req.DeliveryPreferences; prefs != nil {
		if note := strings.TrimSpace(prefs.GiftNote); note != "" {
			order.GiftNote = &note
		}
		if raw := strings.TrimSpace(prefs.DeliveryDate); raw != "" {
			date, err := time.Parse(deliveryDateLayout, raw)
			if err != nil {
				return nil, newError(ErrValidation, "deliveryPreferences.deliveryDate must be YYYY-MM-DD")
			}
			order.DeliveryDate = &date
		}
	}

	return order, nil
}

func (s *orderServiceImpl) GetOrder(ctx context.Context, userID, orderID string) (*model.Order, error) {
	order, err := s.orderRepo.FindForUser(ctx, orderID, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, newError(ErrNotFound, "order not found")
	}
	if err != nil {
		return nil, fmt.Errorf("find order: %w", err)
	}
	return order, nil
}

func (s *orderServiceImpl) ListOrders(ctx context.Context, userID string) ([]*model.Order, error) {
	orders, err := s.orderRepo.ListForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return orders, nil
}
