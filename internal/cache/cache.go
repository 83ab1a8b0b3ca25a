package cache

import (
	"context"
	"errors"
	"storefront-backend/internal/model"
)

var (
	ErrCacheMiss = errors.New("cache miss")
	// ErrStaleWrite is returned by Set when the cart was invalidated after
	// the version passed to it was read.
	ErrStaleWrite = errors.New("cart invalidated during load")
)

// CartCache is a read-through copy of a user's cart. The database stays the
// source of truth; callers delete the entry after every cart write.
//
// Readers take Version before loading from the database and hand it to Set,
// so a load that raced with a Delete never repopulates the entry.
type CartCache interface {
	Get(ctx context.Context, userID string) (*model.Cart, error)
	Version(ctx context.Context, userID string) (int64, error)
	Set(ctx context.Context, userID string, version int64, cart *model.Cart) error
	Delete(ctx context.Context, userID string) error
}

// NoopCache is used when no redis address is configured. Every Get misses.
type NoopCache struct{}

func (NoopCache) Get(context.Context, string) (*model.Cart, error)      { return nil, ErrCacheMiss }
func (NoopCache) Version(context.Context, string) (int64, error)        { return 0, nil }
func (NoopCache) Set(context.Context, string, int64, *model.Cart) error { return nil }
func (NoopCache) Delete(context.Context, string) error                  { return nil }
