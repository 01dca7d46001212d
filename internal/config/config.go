package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Supported store drivers.
const (
	DriverSQLite = "sqlite"
	DriverMongo  = "mongo"
)

const devJWTSecret = "super_secret_key"

// Config holds the application configuration.
type Config struct {
	ServerPort         int
	AppEnv             string
	LogLevel           string
	StoreDriver        string
	DatabasePath       string
	MongoURI           string
	MongoDatabase      string
	JWTSecret          string
	JWTTTL             time.Duration
	CORSAllowedOrigins []string
	LoginRatePerMinute int
	EventRetention     time.Duration
	EventPruneSchedule string // standard 5-field cron spec
}

// IsProduction reports whether the app runs with APP_ENV=production.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// Load loads configuration from environment variables or sets defaults.
// A .env file in the working directory is loaded first when present.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	port, err := strconv.Atoi(getEnv("PORT", "8080"))
	if err != nil {
		return nil, fmt.Errorf("invalid PORT: %w", err)
	}

	ttl, err := time.ParseDuration(getEnv("JWT_TTL", "1h"))
	if err != nil {
		return nil, fmt.Errorf("invalid JWT_TTL: %w", err)
	}

	loginRate, err := strconv.Atoi(getEnv("LOGIN_RATE_PER_MINUTE", "20"))
	if err != nil || loginRate < 0 {
		return nil, fmt.Errorf("invalid LOGIN_RATE_PER_MINUTE: %q", os.Getenv("LOGIN_RATE_PER_MINUTE"))
	}

	retention, err := time.ParseDuration(getEnv("EVENT_RETENTION", "720h"))
	if err != nil {
		return nil, fmt.Errorf("invalid EVENT_RETENTION: %w", err)
	}

	cfg := &Config{
		ServerPort:         port,
		AppEnv:             getEnv("APP_ENV", "development"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		StoreDriver:        strings.ToLower(getEnv("STORE_DRIVER", DriverSQLite)),
		DatabasePath:       getEnv("DATABASE_PATH", "./bookfeed.db"),
		MongoURI:           getEnv("MONGODB_URI", "mongodb://localhost:27017"),
		MongoDatabase:      getEnv("MONGODB_DATABASE", "book_management"),
		JWTSecret:          getEnv("JWT_SECRET", ""),
		JWTTTL:             ttl,
		CORSAllowedOrigins: splitList(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000")),
		LoginRatePerMinute: loginRate,
		EventRetention:     retention,
		EventPruneSchedule: getEnv("EVENT_PRUNE_SCHEDULE", "0 3 * * *"),
	}

	if cfg.StoreDriver != DriverSQLite && cfg.StoreDriver != DriverMongo {
		return nil, fmt.Errorf("invalid STORE_DRIVER %q: must be %q or %q", cfg.StoreDriver, DriverSQLite, DriverMongo)
	}

	if cfg.JWTSecret == "" {
		if cfg.IsProduction() {
			return nil, errors.New("JWT_SECRET must be set in production")
		}
		cfg.JWTSecret = devJWTSecret
	}

	return cfg, nil
}

// Helper to get an environment variable with a default value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
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
