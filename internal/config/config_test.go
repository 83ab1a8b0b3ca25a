package config

import (
	"testing"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_Defaults(t *testing.T) {
	cfg := &Config{}
	require.NoError(t, env.Parse(cfg))

	assert.Equal(t, "development", cfg.Environment.Name)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "https://api.razorpay.com", cfg.Razorpay.BaseApiURL)
	assert.Equal(t, 15*time.Second, cfg.Razorpay.Timeout)
	assert.Equal(t, 24*time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, 5.0, cfg.Auth.RateLimit)
	assert.Equal(t, "0.0.0.0:8080", cfg.Addr())
	assert.Empty(t, cfg.Redis.Addr)
	assert.False(t, cfg.Debug)
}

func TestParse_Prefixes(t *testing.T) {
	t.Setenv("RAZORPAY_KEY_ID", "rzp_test_abc")
	t.Setenv("RAZORPAY_TIMEOUT", "3s")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("DATABASE_DRIVER", "mysql")
	t.Setenv("HTTP_PORT", "9000")

	cfg := &Config{}
	require.NoError(t, env.Parse(cfg))

	assert.Equal(t, "rzp_test_abc", cfg.Razorpay.KeyID)
	assert.Equal(t, 3*time.Second, cfg.Razorpay.Timeout)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, "mysql", cfg.Database.Driver)
	assert.Equal(t, "0.0.0.0:9000", cfg.Addr())
}
