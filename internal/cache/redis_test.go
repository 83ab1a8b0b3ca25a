package cache

import (
	"context"
	"storefront-backend/internal/model"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return NewRedisCache(client, 10*time.Minute), mr
}

func sampleCart(userID string) *model.Cart {
	return &model.Cart{
		ID:     "cart-1",
		UserID: userID,
		Items: []model.CartItem{
			{ID: "item-1", CartID: "cart-1", ProductID: "p-1", Quantity: 2, LineTotal: decimal.RequireFromString("199.98")},
		},
	}
}

func TestSetThenGet(t *testing.T) {
	cache, _ := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "user-1", 0, sampleCart("user-1")))

	got, err := cache.Get(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, "cart-1", got.ID)
	require.Len(t, got.Items, 1)
	assert.True(t, decimal.RequireFromString("199.98").Equal(got.Total()))
}

func TestGet_CacheMiss(t *testing.T) {
	cache, _ := setupTestRedis(t)

	got, err := cache.Get(context.Background(), "nobody")
	assert.ErrorIs(t, err, ErrCacheMiss)
	assert.Nil(t, got)
}

func TestGet_InvalidJSON(t *testing.T) {
	cache, mr := setupTestRedis(t)
	require.NoError(t, mr.Set(cacheKey("user-1"), "{not json"))

	_, err := cache.Get(context.Background(), "user-1")
	assert.ErrorContains(t, err, "unmarshal cart failed")
}

func TestSet_TTLWithinJitter(t *testing.T) {
	cache, mr := setupTestRedis(t)
	require.NoError(t, cache.Set(context.Background(), "user-1", 0, sampleCart("user-1")))

	ttl := mr.TTL(cacheKey("user-1"))
	assert.GreaterOrEqual(t, ttl, 10*time.Minute)
	assert.Less(t, ttl, 11*time.Minute)
}

func TestDelete(t *testing.T) {
	cache, mr := setupTestRedis(t)
	ctx := context.Background()
	require.NoError(t, cache.Set(ctx, "user-1", 0, sampleCart("user-1")))

	require.NoError(t, cache.Delete(ctx, "user-1"))
	assert.False(t, mr.Exists(cacheKey("user-1")))

	// deleting a missing key is fine
	assert.NoError(t, cache.Delete(ctx, "user-1"))
}

func TestDelete_BumpsVersion(t *testing.T) {
	cache, mr := setupTestRedis(t)
	ctx := context.Background()

	v, err := cache.Version(ctx, "user-1")
	require.NoError(t, err)
	assert.Zero(t, v)

	require.NoError(t, cache.Delete(ctx, "user-1"))
	require.NoError(t, cache.Delete(ctx, "user-1"))

	v, err = cache.Version(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), v)
	assert.Equal(t, versionTTL, mr.TTL(versionKey("user-1")))
}

func TestSet_RejectsLoadOlderThanDelete(t *testing.T) {
	cache, mr := setupTestRedis(t)
	ctx := context.Background()

	// a reader takes the version, loads from the db, and meanwhile a
	// writer commits and invalidates
	v, err := cache.Version(ctx, "user-1")
	require.NoError(t, err)
	require.NoError(t, cache.Delete(ctx, "user-1"))

	err = cache.Set(ctx, "user-1", v, sampleCart("user-1"))
	assert.ErrorIs(t, err, ErrStaleWrite)
	assert.False(t, mr.Exists(cacheKey("user-1")))

	v, err = cache.Version(ctx, "user-1")
	require.NoError(t, err)
	require.NoError(t, cache.Set(ctx, "user-1", v, sampleCart("user-1")))
	assert.True(t, mr.Exists(cacheKey("user-1")))
}

func TestVersion_Corrupt(t *testing.T) {
	cache, mr := setupTestRedis(t)
	require.NoError(t, mr.Set(versionKey("user-1"), "abc"))

	_, err := cache.Version(context.Background(), "user-1")
	assert.ErrorContains(t, err, "redis get version failed")
}

func TestNoopCache(t *testing.T) {
	var c CartCache = NoopCache{}
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "user-1", 0, sampleCart("user-1")))
	_, err := c.Get(ctx, "user-1")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestCacheKey_Format(t *testing.T) {
	assert.Equal(t, "cart:test123", cacheKey("test123"))
	assert.Equal(t, "cart:test123:version", versionKey("test123"))
}
