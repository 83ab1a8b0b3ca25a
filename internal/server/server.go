package server

import (
	"context"
	"log/slog"
	"net/http"
	"storefront-backend/internal/auth"
	"storefront-backend/internal/handler"
	authmw "storefront-backend/internal/middleware"
	"storefront-backend/internal/service"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"
)

// webhookBodyLimit caps gateway deliveries, which are read whole for signature
// verification.
const webhookBodyLimit = "1M"

type Dependencies struct {
	CatalogService service.CatalogService
	CartService    service.CartService
	OrderService   service.OrderService
	PaymentService service.PaymentService
	UserService    service.UserService
	Tokens         auth.TokenIssuer
	Debug          bool
	// per-IP requests per second on signup and login, 0 disables
	AuthRateLimit float64
}

type Server struct {
	echo           *echo.Echo
	tokens         auth.TokenIssuer
	authRateLimit  float64
	catalogHandler *handler.CatalogHandler
	cartHandler    *handler.CartHandler
	orderHandler   *handler.OrderHandler
	paymentHandler *handler.PaymentHandler
	userHandler    *handler.UserHandler
}

func NewServer(deps *Dependencies) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = handler.ErrorHandler(deps.Debug)

	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:   true,
		LogURI:      true,
		LogMethod:   true,
		LogLatency:  true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			attrs := []slog.Attr{
				slog.String("method", v.Method),
				slog.String("uri", v.URI),
				slog.Int("status", v.Status),
				slog.Duration("latency", v.Latency),
			}
			level := slog.LevelInfo
			if v.Error != nil {
				level = slog.LevelWarn
				attrs = append(attrs, slog.String("error", v.Error.Error()))
			}
			slog.LogAttrs(c.Request().Context(), level, "request", attrs...)
			return nil
		},
	}))
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	s := &Server{
		echo:           e,
		tokens:         deps.Tokens,
		authRateLimit:  deps.AuthRateLimit,
		catalogHandler: handler.NewCatalogHandler(deps.CatalogService),
		cartHandler:    handler.NewCartHandler(deps.CartService),
		orderHandler:   handler.NewOrderHandler(deps.OrderService),
		paymentHandler: handler.NewPaymentHandler(deps.PaymentService),
		userHandler:    handler.NewUserHandler(deps.UserService),
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	api := s.echo.Group("/api")
	requireUser := authmw.AuthMiddleware(s.tokens)

	api.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	// -------- auth --------
	var credentials []echo.MiddlewareFunc
	if s.authRateLimit > 0 {
		store := middleware.NewRateLimiterMemoryStore(rate.Limit(s.authRateLimit))
		credentials = append(credentials, middleware.RateLimiter(store))
	}

	authGroup := api.Group("/auth")
	authGroup.POST("/signup", s.userHandler.Signup, credentials...)
	authGroup.POST("/login", s.userHandler.Login, credentials...)
	authGroup.GET("/me", s.userHandler.Me, requireUser)
	authGroup.GET("/profile", s.userHandler.GetProfile, requireUser)
	authGroup.PUT("/profile", s.userHandler.UpdateProfile, requireUser)

	// -------- catalog --------
	api.GET("/products/:slug", s.catalogHandler.GetProduct)

	// -------- cart --------
	cart := api.Group("/cart", requireUser)
	cart.GET("", s.cartHandler.GetCart)
	cart.POST("", s.cartHandler.AddItem)
	cart.PUT("/:id", s.cartHandler.UpdateItem)
	cart.DELETE("/:id", s.cartHandler.RemoveItem)

	// -------- orders --------
	orders := api.Group("/orders", requireUser)
	orders.GET("", s.orderHandler.ListOrders)
	orders.POST("", s.orderHandler.CreateOrder)
	orders.GET("/:id", s.orderHandler.GetOrder)

	// -------- payments --------
	payments := api.Group("/payments")
	payments.POST("/create-order", s.paymentHandler.CreatePaymentOrder, requireUser)
	payments.POST("/verify", s.paymentHandler.VerifyPayment, requireUser)
	// authenticated by the gateway signature, not a user token
	payments.POST("/webhook", s.paymentHandler.Webhook, middleware.BodyLimit(webhookBodyLimit))
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.echo.ServeHTTP(w, r)
}

func (s *Server) Start(address string) error {
	return s.echo.Start(address)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}
