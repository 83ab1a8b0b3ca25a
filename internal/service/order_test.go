package service

import (
	"context"
	"storefront-backend/internal/dto"
	"storefront-backend/internal/model"
	"storefront-backend/internal/repository"
	"storefront-backend/internal/testutil"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type orderFixture struct {
	db      *gorm.DB
	carts   CartService
	orders  OrderService
	catalog CatalogService
}

func newOrderFixture(t *testing.T) *orderFixture {
	t.Helper()

	db := testutil.NewDB(t)
	cartRepo := repository.NewCartRepository(db)
	productRepo := repository.NewProductRepository(db)
	return &orderFixture{
		db:      db,
		carts:   NewCartService(db, cartRepo, productRepo, nil),
		orders:  NewOrderService(db, repository.NewOrderRepository(db), productRepo, cartRepo, nil),
		catalog: NewCatalogService(productRepo, nil),
	}
}

func validOrderRequest(items ...dto.OrderItemRequest) *dto.CreateOrderRequest {
	return &dto.CreateOrderRequest{
		Items: items,
		CustomerDetails: dto.CustomerDetails{
			Name:  "Asha Rao",
			Email: "asha@example.com",
			Phone: "9876543210",
		},
		ShippingAddress: dto.ShippingAddress{
			Street:  "12 MG Road",
			City:    "Bengaluru",
			State:   "KA",
			ZipCode: "560001",
		},
	}
}

func countRows(t *testing.T, db *gorm.DB, value interface{}) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(value).Count(&n).Error)
	return n
}

func TestCreateOrder_FromCartItemsTotalsAndClearsCart(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()
	a := testutil.SeedProduct(t, f.db, "a", 100)
	b := testutil.SeedProduct(t, f.db, "b", 50)

	_, err := f.carts.AddItem(ctx, "user-1", a.ID, 2)
	require.NoError(t, err)
	_, err = f.carts.AddItem(ctx, "user-1", b.ID, 1)
	require.NoError(t, err)

	cart, err := f.carts.GetCart(ctx, "user-1")
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(250).Equal(cart.Total()))

	order, err := f.orders.CreateOrder(ctx, "user-1", validOrderRequest(
		dto.OrderItemRequest{ProductID: a.ID, Quantity: 2},
		dto.OrderItemRequest{ProductID: b.ID, Quantity: 1},
	))
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(250).Equal(order.Total()), order.Total().String())
	assert.Equal(t, model.OrderStatusPlaced, order.Status)
	assert.Equal(t, "India", order.ShippingCountry)
	assert.Regexp(t, `^ORD-\d{8}-[0-9A-F]{8}$`, order.OrderNumber)

	cart, err = f.carts.GetCart(ctx, "user-1")
	require.NoError(t, err)
	assert.Empty(t, cart.Items)
}

func TestCreateOrder_UseCart(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()
	a := testutil.SeedProduct(t, f.db, "a", 100)

	_, err := f.carts.AddItem(ctx, "user-1", a.ID, 3)
	require.NoError(t, err)

	req := validOrderRequest()
	req.UseCart = true
	order, err := f.orders.CreateOrder(ctx, "user-1", req)
	require.NoError(t, err)
	require.Len(t, order.Items, 1)
	assert.Equal(t, 3, order.Items[0].Quantity)
	assert.True(t, decimal.NewFromInt(300).Equal(order.Total()))

	// the cart is now empty, so a second attempt has nothing to order
	_, err = f.orders.CreateOrder(ctx, "user-1", req)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestCreateOrder_MissingProductRollsBackEverything(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()
	a := testutil.SeedProduct(t, f.db, "a", 100)

	_, err := f.carts.AddItem(ctx, "user-1", a.ID, 1)
	require.NoError(t, err)

	_, err = f.orders.CreateOrder(ctx, "user-1", validOrderRequest(
		dto.OrderItemRequest{ProductID: a.ID, Quantity: 1},
		dto.OrderItemRequest{ProductID: "does-not-exist", Quantity: 1},
	))
	assert.ErrorIs(t, err, ErrValidation)

	assert.Zero(t, countRows(t, f.db, &model.Order{}))
	assert.Zero(t, countRows(t, f.db, &model.OrderItem{}))

	cart, err := f.carts.GetCart(ctx, "user-1")
	require.NoError(t, err)
	assert.Len(t, cart.Items, 1)
}

func TestCreateOrder_Validation(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()
	a := testutil.SeedProduct(t, f.db, "a", 100)
	item := dto.OrderItemRequest{ProductID: a.ID, Quantity: 1}
	badDate := &dto.DeliveryPreferences{DeliveryDate: "31/12/2026"}

	cases := map[string]func(r *dto.CreateOrderRequest){
		"no items":        func(r *dto.CreateOrderRequest) { r.Items = nil },
		"zero quantity":   func(r *dto.CreateOrderRequest) { r.Items[0].Quantity = 0 },
		"missing name":    func(r *dto.CreateOrderRequest) { r.CustomerDetails.Name = " " },
		"bad email":       func(r *dto.CreateOrderRequest) { r.CustomerDetails.Email = "not-an-email" },
		"missing phone":   func(r *dto.CreateOrderRequest) { r.CustomerDetails.Phone = "" },
		"missing zip":     func(r *dto.CreateOrderRequest) { r.ShippingAddress.ZipCode = "" },
		"bad date format": func(r *dto.CreateOrderRequest) { r.DeliveryPreferences = badDate },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			req := validOrderRequest(item)
			mutate(req)
			_, err := f.orders.CreateOrder(ctx, "user-1", req)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}

	assert.Zero(t, countRows(t, f.db, &model.Order{}))
}

func TestCreateOrder_DeliveryPreferences(t *testing.T) {
	f := newOrderFixture(t)
	a := testutil.SeedProduct(t, f.db, "a", 100)

	req := validOrderRequest(dto.OrderItemRequest{ProductID: a.ID, Quantity: 1})
	req.ShippingAddress.Country = "Nepal"
	req.DeliveryPreferences = &dto.DeliveryPreferences{GiftNote: "Happy birthday", DeliveryDate: "2026-12-31"}

	order, err := f.orders.CreateOrder(context.Background(), "user-1", req)
	require.NoError(t, err)
	assert.Equal(t, "Nepal", order.ShippingCountry)
	require.NotNil(t, order.GiftNote)
	assert.Equal(t, "Happy birthday", *order.GiftNote)
	require.NotNil(t, order.DeliveryDate)
	assert.Equal(t, "2026-12-31", order.DeliveryDate.Format("2006-01-02"))
}

func TestCreateOrder_PricesAreFrozen(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()
	a := testutil.SeedProduct(t, f.db, "a", 100)

	order, err := f.orders.CreateOrder(ctx, "user-1", validOrderRequest(dto.OrderItemRequest{ProductID: a.ID, Quantity: 2}))
	require.NoError(t, err)

	require.NoError(t, f.catalog.UpdatePrice(ctx, a.ID, decimal.NewFromInt(999)))

	stored, err := f.orders.GetOrder(ctx, "user-1", order.ID)
	require.NoError(t, err)
	require.Len(t, stored.Items, 1)
	assert.True(t, decimal.NewFromInt(100).Equal(stored.Items[0].PriceAtPurchase))
	assert.True(t, decimal.NewFromInt(200).Equal(stored.Total()))
	assert.True(t, decimal.NewFromInt(999).Equal(stored.Items[0].Product.Price))

	// historical orders also protect the product from deletion
	assert.ErrorIs(t, f.catalog.DeleteProduct(ctx, a.ID), ErrConflict)
}

func TestCreateOrder_OrderNumberCollision(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()
	a := testutil.SeedProduct(t, f.db, "a", 100)
	f.orders.(*orderServiceImpl).newOrderNumber = func() string { return "ORD-20260101-AAAAAAAA" }

	_, err := f.orders.CreateOrder(ctx, "user-1", validOrderRequest(dto.OrderItemRequest{ProductID: a.ID, Quantity: 1}))
	require.NoError(t, err)

	_, err = f.orders.CreateOrder(ctx, "user-1", validOrderRequest(dto.OrderItemRequest{ProductID: a.ID, Quantity: 1}))
	assert.ErrorIs(t, err, ErrConflict)
	assert.Equal(t, int64(1), countRows(t, f.db, &model.Order{}))
}

func TestGetAndListOrders_OwnerScoped(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()
	a := testutil.SeedProduct(t, f.db, "a", 100)

	order, err := f.orders.CreateOrder(ctx, "user-1", validOrderRequest(dto.OrderItemRequest{ProductID: a.ID, Quantity: 1}))
	require.NoError(t, err)

	_, err = f.orders.GetOrder(ctx, "user-2", order.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	mine, err := f.orders.ListOrders(ctx, "user-1")
	require.NoError(t, err)
	assert.Len(t, mine, 1)

	theirs, err := f.orders.ListOrders(ctx, "user-2")
	require.NoError(t, err)
	assert.Empty(t, theirs)
}
