package testutil

import (
	"fmt"
	"storefront-backend/internal/client"
	"storefront-backend/internal/model"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDB returns a migrated, private in-memory sqlite database. A single
// connection serialises transactions the way row locks would on mysql.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, client.AutoMigrate(db))
	return db
}

// SeedProduct inserts an available product with the given price.
func SeedProduct(t *testing.T, db *gorm.DB, name string, price int64) *model.Product {
	t.Helper()

	p := &model.Product{
		ID:            uuid.NewString(),
		Slug:          name + "-" + uuid.NewString()[:8],
		Name:          name,
		Price:         decimal.NewFromInt(price),
		Currency:      "INR",
		CategoryID:    "cat",
		SubcategoryID: "sub",
		IsAvailable:   true,
	}
	require.NoError(t, db.Create(p).Error)
	return p
}

// SeedUser inserts a bare user row.
func SeedUser(t *testing.T, db *gorm.DB) *model.User {
	t.Helper()

	u := &model.User{
		ID:           uuid.NewString(),
		Email:        uuid.NewString()[:8] + "@example.com",
		Name:         "Test User",
		PasswordHash: "x",
	}
	require.NoError(t, db.Create(u).Error)
	return u
}
