package config

import (
	"fmt"
	"time"

	pkgconfig "github.com/NEARBuilders/near-merch-store-sub000/pkg/config"
	"github.com/NEARBuilders/near-merch-store-sub000/pkg/database"
)

// Config holds all configuration for the merch store service.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// HTTP server
	HTTPPort int `env:"HTTP_PORT" envDefault:"8080"`

	// PostgreSQL
	PostgresHost string `env:"POSTGRES_HOST" envDefault:"localhost"`
	PostgresPort int    `env:"POSTGRES_PORT" envDefault:"5432"`
	PostgresUser string `env:"POSTGRES_USER" envDefault:"merchstore"`
	PostgresPass string `env:"POSTGRES_PASSWORD" envDefault:"merchstore_secret"`
	PostgresDB   string `env:"POSTGRES_DB" envDefault:"merchstore"`
	PostgresSSL  string `env:"POSTGRES_SSL_MODE" envDefault:"disable"`

	// Redis
	RedisHost string `env:"REDIS_HOST" envDefault:"localhost"`
	RedisPort int    `env:"REDIS_PORT" envDefault:"6379"`
	RedisPass string `env:"REDIS_PASSWORD" envDefault:""`
	RedisDB   int    `env:"REDIS_DB" envDefault:"0"`

	// Kafka
	KafkaBrokers []string `env:"KAFKA_BROKERS" envDefault:"localhost:9092" envSeparator:","`

	// Fulfillment providers
	PrintfulAPIKey  string `env:"PRINTFUL_API_KEY" envDefault:""`
	PrintfulBaseURL string `env:"PRINTFUL_BASE_URL" envDefault:""`
	GelatoAPIKey    string `env:"GELATO_API_KEY" envDefault:""`
	GelatoBaseURL   string `env:"GELATO_BASE_URL" envDefault:""`

	// Webhook signing secrets, hex encoded. An empty secret disables
	// signature verification for that provider.
	PrintfulWebhookSecret string `env:"PRINTFUL_WEBHOOK_SECRET" envDefault:""`
	GelatoWebhookSecret   string `env:"GELATO_WEBHOOK_SECRET" envDefault:""`
	PingPayWebhookSecret  string `env:"PINGPAY_WEBHOOK_SECRET" envDefault:""`

	// JWT authentication
	JWTSecret string `env:"JWT_SECRET" envDefault:"your-secret-key-change-in-production"`
	AdminRole string `env:"ADMIN_ROLE" envDefault:"admin"`

	// Webhook rate limiting, per client IP. Zero disables it.
	RateLimitRPS   int `env:"RATE_LIMIT_RPS" envDefault:"100"`
	RateLimitBurst int `env:"RATE_LIMIT_BURST" envDefault:"200"`

	// Stale draft cleanup
	CleanupMaxAge   time.Duration `env:"CLEANUP_MAX_AGE" envDefault:"24h"`
	CleanupInterval time.Duration `env:"CLEANUP_INTERVAL" envDefault:"1h"`

	// Tracing
	TracingEnabled    bool    `env:"TRACING_ENABLED" envDefault:"false"`
	OTLPEndpoint      string  `env:"OTLP_ENDPOINT" envDefault:"localhost:4318"`
	TracingSampleRate float64 `env:"TRACING_SAMPLE_RATE" envDefault:"1.0"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load merch store config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// validate checks configuration invariants.
func (c *Config) validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTPPort)
	}
	if c.Environment != "development" && c.JWTSecret == "your-secret-key-change-in-production" {
		return fmt.Errorf("JWT_SECRET must be changed from default value in %s environment", c.Environment)
	}
	if c.CleanupMaxAge <= 0 {
		return fmt.Errorf("invalid cleanup max age: %s", c.CleanupMaxAge)
	}
	return nil
}

// Postgres returns the connection pool configuration.
func (c *Config) Postgres() database.PostgresConfig {
	pg := database.DefaultPostgresConfig()
	pg.Host = c.PostgresHost
	pg.Port = c.PostgresPort
	pg.User = c.PostgresUser
	pg.Password = c.PostgresPass
	pg.DBName = c.PostgresDB
	pg.SSLMode = c.PostgresSSL
	return pg
}

// Redis returns the Redis client configuration.
func (c *Config) Redis() database.RedisConfig {
	return database.RedisConfig{
		Host:     c.RedisHost,
		Port:     c.RedisPort,
		Password: c.RedisPass,
		DB:       c.RedisDB,
	}
}
