package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const envProduction = "production"

type AppConfig struct {
	Env      string
	Port     string
	BaseURL  string
	LogLevel string

	// TrustProxy lets X-Forwarded-For / X-Real-IP replace the peer address.
	TrustProxy bool
}

type PostgresConfig struct {
	URL             string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	CacheTTL time.Duration
}

type StripeConfig struct {
	SecretKey      string
	PublishableKey string
	WebhookSecret  string
}

type SessionConfig struct {
	Lifetime time.Duration
}

type RateLimitConfig struct {
	RPS   float64
	Burst int
}

type Config struct {
	App       AppConfig
	Postgres  PostgresConfig
	Redis     RedisConfig
	Stripe    StripeConfig
	Session   SessionConfig
	RateLimit RateLimitConfig
}

func (c *Config) IsProduction() bool {
	return c.App.Env == envProduction
}

// Load reads an optional .env file and then the process environment.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", envFile, err)
		}
	}

	cfg := &Config{}

	cfg.App.Env = getEnv("APP_ENV", getEnv("NODE_ENV", "development"))
	cfg.App.Port = getEnv("PORT", "3000")
	cfg.App.BaseURL = strings.TrimRight(getEnv("YOUR_DOMAIN", "http://localhost:"+cfg.App.Port), "/")

	defaultLevel := "debug"
	if cfg.IsProduction() {
		defaultLevel = "info"
	}
	cfg.App.LogLevel = getEnv("LOG_LEVEL", defaultLevel)

	trustProxy, err := strconv.ParseBool(getEnv("TRUST_PROXY", "false"))
	if err != nil {
		return nil, fmt.Errorf("invalid TRUST_PROXY: %w", err)
	}
	cfg.App.TrustProxy = trustProxy

	dbURL, err := databaseURL(cfg.IsProduction())
	if err != nil {
		return nil, err
	}
	cfg.Postgres.URL = dbURL
	cfg.Postgres.MaxConns = int32(getEnvInt("DB_MAX_CONNS", 10))
	cfg.Postgres.MinConns = int32(getEnvInt("DB_MIN_CONNS", 1))
	cfg.Postgres.MaxConnLifetime = getEnvDuration("DB_MAX_CONN_LIFETIME", time.Hour)

	cfg.Redis.Addr = getEnv("REDIS_ADDR", "")
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", "")
	cfg.Redis.DB = getEnvInt("REDIS_DB", 0)
	cfg.Redis.CacheTTL = getEnvDuration("CACHE_TTL", 5*time.Minute)

	cfg.Stripe.SecretKey = getEnv("STRIPE_SECRET_KEY", "")
	cfg.Stripe.PublishableKey = getEnv("STRIPE_PUBLISHABLE_KEY", "")
	cfg.Stripe.WebhookSecret = getEnv("STRIPE_WEBHOOK_SECRET", "")

	cfg.Session.Lifetime = getEnvDuration("SESSION_LIFETIME", 30*24*time.Hour)

	rps, err := strconv.ParseFloat(getEnv("LOGIN_RATE_LIMIT_RPS", "1"), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid LOGIN_RATE_LIMIT_RPS: %w", err)
	}
	cfg.RateLimit.RPS = rps
	cfg.RateLimit.Burst = getEnvInt("LOGIN_RATE_LIMIT_BURST", 5)

	return cfg, nil
}

// databaseURL picks DATABASE_URL in production (forcing SSL) and
// DATABASE_URL_LOCAL otherwise.
func databaseURL(production bool) (string, error) {
	if production {
		raw := os.Getenv("DATABASE_URL")
		if raw == "" {
			return "", errors.New("DATABASE_URL is required in production")
		}
		return requireSSL(raw)
	}

	raw := getEnv("DATABASE_URL_LOCAL", os.Getenv("DATABASE_URL"))
	if raw == "" {
		return "", errors.New("DATABASE_URL_LOCAL is required")
	}
	return raw, nil
}

func requireSSL(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("invalid DATABASE_URL: %w", err)
	}
	q := u.Query()
	if q.Get("sslmode") == "" || q.Get("sslmode") == "disable" {
		q.Set("sslmode", "require")
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func getEnv(key, defaultValue string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value, err := strconv.Atoi(getEnv(key, ""))
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value, err := time.ParseDuration(getEnv(key, ""))
	if err != nil {
		return defaultValue
	}
	return value
}
