package config

import "time"

type Config struct {
	Environment Environment
	Log         Log
	HTTP        HTTPServer
	Database    Database
	Auth        Auth
	Debug       bool `env:"DEBUG" envDefault:"false"`
	SeedCatalog bool `env:"SEED_CATALOG" envDefault:"false"`

	Razorpay Razorpay `envPrefix:"RAZORPAY_"`
	Redis    Redis    `envPrefix:"REDIS_"`
}

type Razorpay struct {
	BaseApiURL    string        `env:"BASE_API_URL" envDefault:"https://api.razorpay.com"`
	KeyID         string        `env:"KEY_ID"`
	KeySecret     string        `env:"KEY_SECRET"`
	WebhookSecret string        `env:"WEBHOOK_SECRET"`
	Timeout       time.Duration `env:"TIMEOUT" envDefault:"15s"`
	// consecutive upstream failures before the breaker opens
	BreakerThreshold uint32 `env:"BREAKER_THRESHOLD" envDefault:"5"`
}

type Redis struct {
	Addr     string        `env:"ADDR"`
	Password string        `env:"PASSWORD"`
	DB       int           `env:"DB" envDefault:"0"`
	CartTTL  time.Duration `env:"CART_TTL" envDefault:"15m"`
}

type Database struct {
	Driver       string `env:"DATABASE_DRIVER" envDefault:"sqlite"` // sqlite, mysql
	URL          string `env:"DATABASE_URL" envDefault:"storefront.db"`
	MaxIdleConns int    `env:"DATABASE_MAX_IDLE_CONNS" envDefault:"10"`
	MaxOpenConns int    `env:"DATABASE_MAX_OPEN_CONNS" envDefault:"50"`
}

type Auth struct {
	JWTSecret string        `env:"JWT_SECRET"`
	TokenTTL  time.Duration `env:"JWT_TOKEN_TTL" envDefault:"24h"`
	// requests per second per client IP on signup/login, 0 disables
	RateLimit float64 `env:"AUTH_RATE_LIMIT" envDefault:"5"`
}

type Environment struct {
	Name string `env:"ENVIRONMENT" envDefault:"development"`
}

type Log struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"json"`
}

type HTTPServer struct {
	Host            string        `env:"HTTP_HOST" envDefault:"0.0.0.0"`
	Port            string        `env:"HTTP_PORT" envDefault:"8080"`
	ShutdownTimeout time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" envDefault:"30s"`
}

func (c *Config) Addr() string {
	return c.HTTP.Host + ":" + c.HTTP.Port
}
