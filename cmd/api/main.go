package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"storefront-backend/internal/auth"
	"storefront-backend/internal/cache"
	"storefront-backend/internal/client"
	"storefront-backend/internal/config"
	"storefront-backend/internal/logger"
	"storefront-backend/internal/repository"
	"storefront-backend/internal/server"
	"storefront-backend/internal/service"
	"syscall"

	"github.com/caarlos0/env/v10"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

func main() {
	// load .env into os.Environ
	if err := godotenv.Load(); err != nil {
		fmt.Println("No .env file found (ok in prod)")
	}

	cfg := &config.Config{}
	if err := env.Parse(cfg); err != nil {
		fmt.Printf("Failed to parse config: %v\n", err)
		os.Exit(1)
	}

	if err := run(cfg); err != nil {
		slog.Error("server exited with error", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	logger.Init(cfg.Log)
	decimal.MarshalJSONWithoutQuotes = true

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	db, err := client.InitDBClient(&cfg.Database)
	if err != nil {
		return fmt.Errorf("init db: %w", err)
	}

	var cartCache cache.CartCache = cache.NoopCache{}
	rdb, err := client.InitRedisClient(ctx, &cfg.Redis)
	if err != nil {
		return fmt.Errorf("init redis: %w", err)
	}
	if rdb != nil {
		defer rdb.Close()
		cartCache = cache.NewRedisCache(rdb, cfg.Redis.CartTTL)
	} else {
		slog.Info("redis not configured, cart cache disabled")
	}

	jwtSecret := cfg.Auth.JWTSecret
	if jwtSecret == "" {
		if cfg.Environment.Name == "production" {
			return errors.New("JWT_SECRET must be set in production")
		}
		jwtSecret = uuid.NewString()
		slog.Warn("JWT_SECRET not set, using an ephemeral secret; tokens will not survive a restart")
	}
	tokens := auth.NewTokenIssuer(jwtSecret, cfg.Auth.TokenTTL)

	gateway := client.NewRazorpayClient(&cfg.Razorpay)

	productRepo := repository.NewProductRepository(db)
	cartRepo := repository.NewCartRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	webhookEventRepo := repository.NewWebhookEventRepository(db)
	userRepo := repository.NewUserRepository(db)

	catalogService := service.NewCatalogService(productRepo, cartCache)
	if cfg.SeedCatalog {
		if err := catalogService.Seed(ctx); err != nil {
			return err
		}
		slog.Info("demo catalog seeded")
	}

	srv := server.NewServer(&server.Dependencies{
		CatalogService: catalogService,
		CartService:    service.NewCartService(db, cartRepo, productRepo, cartCache),
		OrderService:   service.NewOrderService(db, orderRepo, productRepo, cartRepo, cartCache),
		PaymentService: service.NewPaymentService(db, gateway, orderRepo, paymentRepo, webhookEventRepo),
		UserService:    service.NewUserService(userRepo, tokens),
		Tokens:         tokens,
		Debug:          cfg.Debug,
		AuthRateLimit:  cfg.Auth.RateLimit,
	})

	errCh := make(chan error, 1)
	go func() {
		slog.Info("starting HTTP server", "addr", cfg.Addr(), "environment", cfg.Environment.Name)
		if err := srv.Start(cfg.Addr()); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}
	slog.Info("signal received, starting graceful shutdown")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}

	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}
	return nil
}
