package service

import (
	"context"
	"errors"
	"fmt"
	"storefront-backend/internal/cache"
	"storefront-backend/internal/model"
	"storefront-backend/internal/repository"
	"strings"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type CreateProductInput struct {
	Name          string
	Slug          string
	Description   string
	Price         decimal.Decimal
	Currency      string
	CategoryID    string
	SubcategoryID string
	WeightGrams   *int
}

type CatalogService interface {
	GetProductBySlug(ctx context.Context, slug string) (*model.Product, error)
	CreateProduct(ctx context.Context, in *CreateProductInput) (*model.Product, error)
	UpdatePrice(ctx context.Context, productID string, price decimal.Decimal) error
	DeleteProduct(ctx context.Context, productID string) error
	Seed(ctx context.Context) error
}

type catalogServiceImpl struct {
	productRepo repository.ProductRepository
	cartCache   cache.CartCache
}

func NewCatalogService(productRepo repository.ProductRepository, cartCache cache.CartCache) CatalogService {
	if cartCache == nil {
		cartCache = cache.NoopCache{}
	}
	return &catalogServiceImpl{
		productRepo: productRepo,
		cartCache:   cartCache,
	}
}

func (s *catalogServiceImpl) GetProductBySlug(ctx context.Context, productSlug string) (*model.Product, error) {
	product, err := s.productRepo.FindBySlug(ctx, productSlug)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, newError(ErrNotFound, "product not found")
	}
	if err != nil {
		return nil, fmt.Errorf("find product by slug: %w", err)
	}
	return product, nil
}

func (s *catalogServiceImpl) CreateProduct(ctx context.Context, in *CreateProductInput) (*model.Product, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, newError(ErrValidation, "product name is required")
	}
	if !in.Price.IsPositive() {
		return nil, newError(ErrValidation, "product price must be greater than zero")
	}
	if in.CategoryID == "" || in.SubcategoryID == "" {
		return nil, newError(ErrValidation, "category and subcategory are required")
	}

	productSlug := slug.Make(in.Slug)
	if productSlug == "" {
		productSlug = slug.Make(name)
	}
	currency := strings.ToUpper(strings.TrimSpace(in.Currency))
	if currency == "" {
		currency = defaultCurrency
	}

	product := &model.Product{
		ID:            uuid.NewString(),
		Slug:          productSlug,
		Name:          name,
		Description:   in.Description,
		Price:         in.Price.Round(2),
		Currency:      currency,
		CategoryID:    in.CategoryID,
		SubcategoryID: in.SubcategoryID,
		IsAvailable:   true,
		WeightGrams:   in.WeightGrams,
	}
	err := s.productRepo.Create(ctx, product)
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil, newError(ErrConflict, "a product with slug %q already exists", productSlug)
	}
	if err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}

	return product, nil
}

// UpdatePrice changes the catalog price only. Order items keep the price they
// were bought at.
func (s *catalogServiceImpl) UpdatePrice(ctx context.Context, productID string, price decimal.Decimal) error {
	if !price.IsPositive() {
		return newError(ErrValidation, "product price must be greater than zero")
	}

	err := s.productRepo.UpdatePrice(ctx, productID, price.Round(2))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return newError(ErrNotFound, "product not found")
	}
	return err
}

// DeleteProduct also drops the cached carts that held the product.
func (s *catalogServiceImpl) DeleteProduct(ctx context.Context, productID string) error {
	cartOwners, err := s.productRepo.Delete(ctx, productID)
	switch {
	case errors.Is(err, repository.ErrProductInUse):
		return newError(ErrConflict, "product is referenced by existing orders and cannot be deleted")
	case errors.Is(err, gorm.ErrRecordNotFound):
		return newError(ErrNotFound, "product not found")
	case err != nil:
		return fmt.Errorf("delete product: %w", err)
	}

	for _, userID := range cartOwners {
		invalidateCart(ctx, s.cartCache, userID)
	}
	return nil
}

func (s *catalogServiceImpl) Seed(ctx context.Context) error {
	if err := s.productRepo.Seed(ctx); err != nil {
		return fmt.Errorf("seed catalog: %w", err)
	}
	return nil
}
