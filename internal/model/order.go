package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPlaced     OrderStatus = "PLACED"
	OrderStatusPaid       OrderStatus = "PAID"
	OrderStatusProcessing OrderStatus = "PROCESSING"
	OrderStatusShipped    OrderStatus = "SHIPPED"
	OrderStatusDelivered  OrderStatus = "DELIVERED"
)

type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "PENDING"
	PaymentStatusSuccess PaymentStatus = "SUCCESS"
	PaymentStatusFailed  PaymentStatus = "FAILED"
)

type PaymentProvider string

const ProviderRazorpay PaymentProvider = "RAZORPAY"

// Cart is 1:1 with a user and created lazily.
type Cart struct {
	ID        string     `gorm:"primaryKey;size:36;not null"`
	UserID    string     `gorm:"size:36;uniqueIndex;not null"`
	Items     []CartItem `gorm:"foreignKey:CartID"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (c *Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for _, item := range c.Items {
		total = total.Add(item.LineTotal)
	}
	return total
}

type CartItem struct {
	ID        string          `gorm:"primaryKey;size:36;not null"`
	CartID    string          `gorm:"size:36;uniqueIndex:ux_cart_product;not null"`
	ProductID string          `gorm:"size:36;uniqueIndex:ux_cart_product;index;not null"`
	Product   Product         `gorm:"foreignKey:ProductID"`
	Quantity  int             `gorm:"not null"`
	LineTotal decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Order struct {
	ID          string      `gorm:"primaryKey;size:36;not null"`
	UserID      string      `gorm:"size:36;index;not null"`
	OrderNumber string      `gorm:"size:50;uniqueIndex;not null"`
	Status      OrderStatus `gorm:"size:20;index;not null"`

	// customer and shipping fields are copied in at creation
	CustomerName    string `gorm:"size:150;not null"`
	CustomerEmail   string `gorm:"size:254;index;not null"`
	CustomerPhone   string `gorm:"size:20;not null"`
	ShippingStreet  string `gorm:"type:text;not null"`
	ShippingCity    string `gorm:"size:100;not null"`
	ShippingState   string `gorm:"size:100;not null"`
	ShippingZipCode string `gorm:"size:20;not null"`
	ShippingCountry string `gorm:"size:100;not null"`
	GiftNote        *string
	DeliveryDate    *time.Time
	Items           []OrderItem `gorm:"foreignKey:OrderID"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (o *Order) Total() decimal.Decimal {
	total := decimal.Zero
	for _, item := range o.Items {
		total = total.Add(item.LineTotal)
	}
	return total
}

// OrderItem is a frozen snapshot; PriceAtPurchase is never recomputed.
type OrderItem struct {
	ID              string          `gorm:"primaryKey;size:36;not null"`
	OrderID         string          `gorm:"size:36;index;not null"`
	ProductID       string          `gorm:"size:36;index;not null"`
	Product         Product         `gorm:"foreignKey:ProductID"`
	Quantity        int             `gorm:"not null"`
	PriceAtPurchase decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	LineTotal       decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	CreatedAt       time.Time
}

type Payment struct {
	ID             string          `gorm:"primaryKey;size:36;not null"`
	OrderID        string          `gorm:"size:36;index;not null"`
	PaymentOrderID string          `gorm:"size:255;uniqueIndex;not null"` // gateway order id
	Provider       PaymentProvider `gorm:"size:20;not null"`
	Amount         decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	Currency       string          `gorm:"size:3;not null"`
	Status         PaymentStatus   `gorm:"size:20;index;not null"`

	GatewayPaymentID string `gorm:"size:255"`
	GatewaySignature string `gorm:"size:255"`
	WebhookReceived  bool   `gorm:"not null"`

	// PendingKey holds the order id while the payment is PENDING and is NULL
	// afterwards, so the unique index allows one pending attempt per order.
	PendingKey *string `gorm:"size:36;uniqueIndex"`

	CreatedAt time.Time `gorm:"index"`
	UpdatedAt time.Time
}

type WebhookEvent struct {
	EventID     string `gorm:"primaryKey;size:128;not null"`
	EventType   string `gorm:"size:64;index"`
	ProcessedAt time.Time
	CreatedAt   time.Time
}
