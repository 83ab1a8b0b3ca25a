package repository

import (
	"context"
	"storefront-backend/internal/model"
	"storefront-backend/internal/testutil"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func placedOrder(userID string) *model.Order {
	return &model.Order{
		ID:              uuid.NewString(),
		UserID:          userID,
		OrderNumber:     "ORD-" + uuid.NewString()[:8],
		Status:          model.OrderStatusPlaced,
		CustomerName:    "Asha",
		CustomerEmail:   "asha@example.com",
		CustomerPhone:   "9999999999",
		ShippingStreet:  "1 MG Road",
		ShippingCity:    "Pune",
		ShippingState:   "MH",
		ShippingZipCode: "411001",
		ShippingCountry: "India",
	}
}

func TestOrderCreate_WithItems(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewOrderRepository(db)
	ctx := context.Background()
	product := testutil.SeedProduct(t, db, "rose", 100)

	order := placedOrder("user-1")
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := repo.Create(ctx, tx, order); err != nil {
			return err
		}
		return repo.CreateOrderItems(ctx, tx, []*model.OrderItem{{
			ID:              uuid.NewString(),
			OrderID:         order.ID,
			ProductID:       product.ID,
			Quantity:        2,
			PriceAtPurchase: product.Price,
			LineTotal:       lineTotal(product.Price, 2),
		}})
	})
	require.NoError(t, err)

	found, err := repo.FindForUser(ctx, order.ID, "user-1")
	require.NoError(t, err)
	require.Len(t, found.Items, 1)
	assert.Equal(t, "rose", found.Items[0].Product.Name)
	assert.Equal(t, "200", found.Total().String())

	_, err = repo.FindForUser(ctx, order.ID, "someone-else")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestOrderCreate_DuplicateNumber(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewOrderRepository(db)
	ctx := context.Background()

	first := placedOrder("user-1")
	require.NoError(t, repo.Create(ctx, db, first))

	second := placedOrder("user-1")
	second.OrderNumber = first.OrderNumber
	assert.ErrorIs(t, repo.Create(ctx, db, second), gorm.ErrDuplicatedKey)
}

func TestMarkPaid_OnlyOnce(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewOrderRepository(db)
	ctx := context.Background()

	order := placedOrder("user-1")
	require.NoError(t, repo.Create(ctx, db, order))

	moved, err := repo.MarkPaid(ctx, db, order.ID)
	require.NoError(t, err)
	assert.True(t, moved)

	moved, err = repo.MarkPaid(ctx, db, order.ID)
	require.NoError(t, err)
	assert.False(t, moved)

	found, err := repo.FindForUser(ctx, order.ID, "user-1")
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusPaid, found.Status)
}

func TestListForUser_NewestFirst(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewOrderRepository(db)
	ctx := context.Background()

	older := placedOrder("user-1")
	require.NoError(t, repo.Create(ctx, db, older))
	newer := placedOrder("user-1")
	require.NoError(t, repo.Create(ctx, db, newer))
	require.NoError(t, repo.Create(ctx, db, placedOrder("user-2")))

	orders, err := repo.ListForUser(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.Equal(t, newer.ID, orders[0].ID)
}
