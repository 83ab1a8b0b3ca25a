package dto

import (
	"storefront-backend/internal/model"
	"time"

	"github.com/shopspring/decimal"
)

// ---- catalog ----

type ProductResponse struct {
	ID            string          `json:"id"`
	Slug          string          `json:"slug"`
	Name          string          `json:"name"`
	Description   string          `json:"description,omitempty"`
	Price         decimal.Decimal `json:"price"`
	Currency      string          `json:"currency"`
	CategoryID    string          `json:"categoryId"`
	SubcategoryID string          `json:"subcategoryId"`
	Tags          []string        `json:"tags"`
	IsAvailable   bool            `json:"isAvailable"`
	WeightGrams   *int            `json:"weightGrams,omitempty"`
}

func NewProductResponse(p *model.Product) ProductResponse {
	tags := make([]string, 0, len(p.Tags))
	for _, t := range p.Tags {
		tags = append(tags, t.Slug)
	}
	return ProductResponse{
		ID:            p.ID,
		Slug:          p.Slug,
		Name:          p.Name,
		Description:   p.Description,
		Price:         p.Price,
		Currency:      p.Currency,
		CategoryID:    p.CategoryID,
		SubcategoryID: p.SubcategoryID,
		Tags:          tags,
		IsAvailable:   p.IsAvailable,
		WeightGrams:   p.WeightGrams,
	}
}

// ---- cart ----

type AddToCartRequest struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

type UpdateCartItemRequest struct {
	Quantity int `json:"quantity"`
}

type LineItemResponse struct {
	ID        string          `json:"id"`
	Product   ProductResponse `json:"product"`
	Quantity  int             `json:"quantity"`
	LineTotal decimal.Decimal `json:"line_total"`
}

type CartResponse struct {
	Items []LineItemResponse `json:"items"`
	Total decimal.Decimal    `json:"total"`
}

func NewCartItemResponse(item *model.CartItem) LineItemResponse {
	return LineItemResponse{
		ID:        item.ID,
		Product:   NewProductResponse(&item.Product),
		Quantity:  item.Quantity,
		LineTotal: item.LineTotal,
	}
}

func NewCartResponse(cart *model.Cart) CartResponse {
	items := make([]LineItemResponse, 0, len(cart.Items))
	for i := range cart.Items {
		items = append(items, NewCartItemResponse(&cart.Items[i]))
	}
	return CartResponse{
		Items: items,
		Total: cart.Total(),
	}
}

// ---- orders ----

type OrderItemRequest struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

type CustomerDetails struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

type ShippingAddress struct {
	Street  string `json:"street"`
	City    string `json:"city"`
	State   string `json:"state"`
	ZipCode string `json:"zipCode"`
	Country string `json:"country"`
}

type DeliveryPreferences struct {
	GiftNote     string `json:"giftNote"`
	DeliveryDate string `json:"deliveryDate"`
}

type CreateOrderRequest struct {
	Items               []OrderItemRequest   `json:"items"`
	UseCart             bool                 `json:"useCart"`
	CustomerDetails     CustomerDetails      `json:"customerDetails"`
	ShippingAddress     ShippingAddress      `json:"shippingAddress"`
	DeliveryPreferences *DeliveryPreferences `json:"deliveryPreferences"`
}

type OrderItemResponse struct {
	ID              string          `json:"id"`
	Product         ProductResponse `json:"product"`
	Quantity        int             `json:"quantity"`
	PriceAtPurchase decimal.Decimal `json:"price_at_purchase"`
	LineTotal       decimal.Decimal `json:"line_total"`
}

type OrderResponse struct {
	ID          string              `json:"id"`
	OrderNumber string              `json:"orderNumber"`
	Items       []OrderItemResponse `json:"items"`
	Total       decimal.Decimal     `json:"total"`
	Status      model.OrderStatus   `json:"status"`
	CreatedAt   time.Time           `json:"created_at"`
}

func NewOrderResponse(order *model.Order) OrderResponse {
	items := make([]OrderItemResponse, 0, len(order.Items))
	for i := range order.Items {
		item := &order.Items[i]
		items = append(items, OrderItemResponse{
			ID:              item.ID,
			Product:         NewProductResponse(&item.Product),
			Quantity:        item.Quantity,
			PriceAtPurchase: item.PriceAtPurchase,
			LineTotal:       item.LineTotal,
		})
	}
	return OrderResponse{
		ID:          order.ID,
		OrderNumber: order.OrderNumber,
		Items:       items,
		Total:       order.Total(),
		Status:      order.Status,
		CreatedAt:   order.CreatedAt,
	}
}

// ---- payments ----

type PaymentOrderRequest struct {
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
	OrderID  string          `json:"orderId"`
}

type PaymentOrderResponse struct {
	PaymentOrderID string                `json:"paymentOrderId"`
	Provider       model.PaymentProvider `json:"provider"`
	Amount         decimal.Decimal       `json:"amount"`
	Currency       string                `json:"currency"`
}

func NewPaymentOrderResponse(p *model.Payment) PaymentOrderResponse {
	return PaymentOrderResponse{
		PaymentOrderID: p.PaymentOrderID,
		Provider:       p.Provider,
		Amount:         p.Amount,
		Currency:       p.Currency,
	}
}

type VerifyPaymentRequest struct {
	PaymentID string `json:"paymentId"`
	OrderID   string `json:"orderId"`
	Signature string `json:"signature"`
}

type VerifyPaymentResponse struct {
	Message   string `json:"message"`
	PaymentID string `json:"paymentId"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

// ---- users ----

type SignupRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type UserResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

func NewUserResponse(u *model.User) UserResponse {
	return UserResponse{ID: u.ID, Email: u.Email, Name: u.Name}
}

type AuthResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expiresAt"`
	User      UserResponse `json:"user"`
}

type ProfileRequest struct {
	Phone           string                `json:"phone"`
	ShippingAddress model.ShippingAddress `json:"shippingAddress"`
}

type ProfileResponse struct {
	Phone           string                `json:"phone"`
	ShippingAddress model.ShippingAddress `json:"shippingAddress"`
}

func NewProfileResponse(p *model.Profile) ProfileResponse {
	return ProfileResponse{Phone: p.Phone, ShippingAddress: p.ShippingAddress}
}
