package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"storefront-backend/internal/cache"
	"storefront-backend/internal/model"
	"storefront-backend/internal/repository"

	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"
)

type CartService interface {
	GetCart(ctx context.Context, userID string) (*model.Cart, error)
	AddItem(ctx context.Context, userID, productID string, quantity int) (*model.CartItem, error)
	UpdateItem(ctx context.Context, userID, itemID string, quantity int) (*model.CartItem, error)
	RemoveItem(ctx context.Context, userID, itemID string) error
	ClearCart(ctx context.Context, userID string) error
}

type cartServiceImpl struct {
	db          *gorm.DB
	cartRepo    repository.CartRepository
	productRepo repository.ProductRepository
	cartCache   cache.CartCache
	loads       singleflight.Group
}

func NewCartService(
	db *gorm.DB,
	cartRepo repository.CartRepository,
	productRepo repository.ProductRepository,
	cartCache cache.CartCache,
) CartService {
	if cartCache == nil {
		cartCache = cache.NoopCache{}
	}
	return &cartServiceImpl{
		db:          db,
		cartRepo:    cartRepo,
		productRepo: productRepo,
		cartCache:   cartCache,
	}
}

// GetCart serves from the cache when possible. Concurrent misses for the same
// user share a single database load.
func (s *cartServiceImpl) GetCart(ctx context.Context, userID string) (*model.Cart, error) {
	cart, err := s.cartCache.Get(ctx, userID)
	if err == nil {
		return cart, nil
	}
	if !errors.Is(err, cache.ErrCacheMiss) {
		slog.WarnContext(ctx, "cart cache read failed", "user_id", userID, "error", err)
	}

	v, err, _ := s.loads.Do(userID, func() (interface{}, error) {
		version, versionErr := s.cartCache.Version(ctx, userID)
		if versionErr != nil {
			slog.WarnContext(ctx, "cart cache version read failed", "user_id", userID, "error", versionErr)
		}

		cart, err := s.cartRepo.GetOrCreate(ctx, userID)
		if err != nil {
			return nil, err
		}
		if versionErr != nil {
			return cart, nil
		}

		err = s.cartCache.Set(ctx, userID, version, cart)
		switch {
		case errors.Is(err, cache.ErrStaleWrite):
			slog.DebugContext(ctx, "cart changed during load, not cached", "user_id", userID)
		case err != nil:
			slog.WarnContext(ctx, "cart cache write failed", "user_id", userID, "error", err)
		}
		return cart, nil
	})
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}

	return v.(*model.Cart), nil
}

func (s *cartServiceImpl) AddItem(ctx context.Context, userID, productID string, quantity int) (*model.CartItem, error) {
	if quantity <= 0 {
		return nil, newError(ErrValidation, "quantity must be at least 1")
	}
	if productID == "" {
		return nil, newError(ErrValidation, "productId is required")
	}

	product, err := s.productRepo.FindAvailable(ctx, s.db, productID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, newError(ErrNotFound, "product not found")
	}
	if err != nil {
		return nil, fmt.Errorf("find product: %w", err)
	}

	cart, err := s.cartRepo.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get cart: %w", err)
	}

	item, err := s.cartRepo.AddItem(ctx, cart.ID, product, quantity)
	if err != nil {
		return nil, fmt.Errorf("add cart item: %w", err)
	}
	s.invalidate(ctx, userID)

	return item, nil
}

func (s *cartServiceImpl) UpdateItem(ctx context.Context, userID, itemID string, quantity int) (*model.CartItem, error) {
	if quantity <= 0 {
		return nil, newError(ErrValidation, "quantity must be at least 1")
	}

	cart, err := s.cartRepo.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get cart: %w", err)
	}

	item, err := s.cartRepo.UpdateItemQuantity(ctx, cart.ID, itemID, quantity)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, newError(ErrNotFound, "cart item not found")
	}
	if err != nil {
		return nil, fmt.Errorf("update cart item: %w", err)
	}
	s.invalidate(ctx, userID)

	return item, nil
}

func (s *cartServiceImpl) RemoveItem(ctx context.Context, userID, itemID string) error {
	cart, err := s.cartRepo.GetOrCreate(ctx, userID)
	if err != nil {
		return fmt.Errorf("get cart: %w", err)
	}

	err = s.cartRepo.RemoveItem(ctx, cart.ID, itemID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return newError(ErrNotFound, "cart item not found")
	}
	if err != nil {
		return fmt.Errorf("remove cart item: %w", err)
	}
	s.invalidate(ctx, userID)

	return nil
}

func (s *cartServiceImpl) ClearCart(ctx context.Context, userID string) error {
	if err := s.cartRepo.ClearForUser(ctx, s.db, userID); err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	s.invalidate(ctx, userID)
	return nil
}

// invalidate also detaches any in-flight load so later readers start a fresh one.
func (s *cartServiceImpl) invalidate(ctx context.Context, userID string) {
	s.loads.Forget(userID)
	invalidateCart(ctx, s.cartCache, userID)
}

// invalidateCart drops the cached cart. Errors are logged, not returned; the
// entry still expires on its TTL.
func invalidateCart(ctx context.Context, cartCache cache.CartCache, userID string) {
	if err := cartCache.Delete(ctx, userID); err != nil {
		slog.WarnContext(ctx, "cart cache invalidation failed", "user_id", userID, "error", err)
	}
}
