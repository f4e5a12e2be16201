// Package config loads runtime settings from the environment and an optional .env file.
package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Backends accepted in DB_BACKEND.
const (
	BackendPostgres = "postgres"
	BackendSQLite   = "sqlite"
	BackendMongo    = "mongo"
)

const devSecret = "dev-insecure-secret-change"

type Config struct {
	// HTTP server
	Port        string
	Env         string
	CORSOrigins []string
	LogLevel    string
	// TrustedProxies lists proxy IPs or CIDRs whose X-Forwarded-For is
	// believed. Empty means the peer address is the client.
	TrustedProxies []string

	// Storage
	Backend           string
	DSN               string
	AutoMigrate       bool
	SQLitePath        string
	MongoURI          string
	MongoDatabase     string
	MongoTransactions bool

	// Auth
	JWTSecret    string
	JWTExpiresIn time.Duration

	// Rate limiting
	RedisURL         string
	RateLimitWindow  time.Duration
	RateLimitGeneral int
	RateLimitCreate  int
	RateLimitAuth    int
}

// Load reads .env (if present) and then the environment. Variables that are
// already set win over .env entries.
func Load() *Config {
	_ = godotenv.Load()

	cfg := &Config{
		Port:        getEnv("PORT", "8081"),
		Env:         getEnv("APP_ENV", "development"),
		CORSOrigins: splitList(getEnv("CORS_ORIGINS", "*")),
		LogLevel:    getEnv("LOG_LEVEL", "info"),

		TrustedProxies: splitList(os.Getenv("TRUSTED_PROXIES")),

		Backend:           strings.ToLower(getEnv("DB_BACKEND", BackendPostgres)),
		DSN:               os.Getenv("DB_DSN"),
		AutoMigrate:       getEnvBool("DB_AUTO_MIGRATE", true),
		SQLitePath:        getEnv("SQLITE_PATH", "./data/finboard.db"),
		MongoURI:          getEnv("MONGODB_URI", os.Getenv("MONGO_URL")),
		MongoDatabase:     getEnv("MONGO_DB_NAME", "finboard"),
		MongoTransactions: getEnvBool("MONGO_TRANSACTIONS", false),

		JWTSecret:    os.Getenv("JWT_SECRET"),
		JWTExpiresIn: getEnvDuration("JWT_EXPIRES_IN", 7*24*time.Hour),

		RedisURL:         os.Getenv("REDIS_URL"),
		RateLimitWindow:  getEnvDuration("RATE_LIMIT_WINDOW", 15*time.Minute),
		RateLimitGeneral: getEnvInt("RATE_LIMIT_GENERAL", 100),
		RateLimitCreate:  getEnvInt("RATE_LIMIT_CREATE", 20),
		RateLimitAuth:    getEnvInt("RATE_LIMIT_AUTH", 5),
	}
	if cfg.JWTSecret == "" && !cfg.IsProduction() {
		cfg.JWTSecret = devSecret
	}
	return cfg
}

// IsProduction reports whether APP_ENV is production.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

// Validate returns every configuration problem in one error.
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	for _, p := range c.TrustedProxies {
		if net.ParseIP(p) != nil {
			continue
		}
		if _, _, err := net.ParseCIDR(p); err != nil {
			errors = append(errors, fmt.Sprintf("invalid TRUSTED_PROXIES entry '%s': must be an IP or CIDR", p))
		}
	}

	switch c.Backend {
	case BackendPostgres:
		if c.DSN == "" {
			errors = append(errors, "DB_DSN is required for the postgres backend")
		}
	case BackendSQLite:
		if c.SQLitePath == "" {
			errors = append(errors, "SQLITE_PATH cannot be empty for the sqlite backend")
		}
	case BackendMongo:
		if c.MongoURI == "" {
			errors = append(errors, "MONGODB_URI (or MONGO_URL) is required for the mongo backend")
		}
		if c.MongoDatabase == "" {
			errors = append(errors, "MONGO_DB_NAME cannot be empty")
		}
	default:
		errors = append(errors, fmt.Sprintf("invalid DB_BACKEND '%s': must be one of postgres, sqlite, mongo", c.Backend))
	}

	if c.JWTSecret == "" {
		errors = append(errors, "JWT_SECRET is required in production")
	}
	if c.JWTExpiresIn <= 0 {
		errors = append(errors, fmt.Sprintf("invalid JWT_EXPIRES_IN %v: must be positive", c.JWTExpiresIn))
	}

	if c.RateLimitWindow < time.Second {
		errors = append(errors, fmt.Sprintf("invalid RATE_LIMIT_WINDOW %v: must be at least 1 second", c.RateLimitWindow))
	}
	for name, v := range map[string]int{
		"RATE_LIMIT_GENERAL": c.RateLimitGeneral,
		"RATE_LIMIT_CREATE":  c.RateLimitCreate,
		"RATE_LIMIT_AUTH":    c.RateLimitAuth,
	} {
		if v < 1 {
			errors = append(errors, fmt.Sprintf("invalid %s %d: must be at least 1", name, v))
		}
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	switch strings.ToLower(os.Getenv(key)) {
	case "true", "1", "yes":
		return true
	case "false", "0", "no":
		return false
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
