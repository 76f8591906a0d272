package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	// Server
	Port            string
	Env             string
	LogLevel        string
	ShutdownTimeout time.Duration

	// Database
	DatabaseURL       string
	DBHost            string
	DBPort            string
	DBUser            string
	DBPassword        string
	DBName            string
	DBSSLMode         string
	DBMaxOpenConns    int
	DBMaxIdleConns    int
	DBConnMaxIdleTime time.Duration
	DBConnectTimeout  time.Duration

	// JWT
	JWTSecret        string
	JWTExpirationDur time.Duration

	// ML services
	CategorizerURL       string
	AnomalyURL           string
	ForecastURL          string
	MLAPIKey             string
	MLTimeout            time.Duration
	CategorizeBatchDelay time.Duration

	// Categorization cache
	RedisURL         string
	CategoryCacheTTL time.Duration
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}

	cfg := &Config{
		Port:     getEnv("PORT", "8080"),
		Env:      getEnv("ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", ""),

		DatabaseURL: getEnv("DATABASE_URL", ""),
		DBHost:      getEnv("DB_HOST", "localhost"),
		DBPort:      getEnv("DB_PORT", "5432"),
		DBUser:      getEnv("DB_USER", "celengan"),
		DBPassword:  getEnv("DB_PASSWORD", "celengan"),
		DBName:      getEnv("DB_NAME", "celengan"),
		DBSSLMode:   getEnv("DB_SSLMODE", "disable"),

		JWTSecret: getEnv("JWT_SECRET", ""),

		CategorizerURL: getEnv("CATEGORIZER_URL", ""),
		AnomalyURL:     getEnv("ANOMALY_URL", ""),
		ForecastURL:    getEnv("FORECAST_URL", ""),
		MLAPIKey:       getEnv("ML_API_KEY", ""),

		RedisURL: getEnv("REDIS_URL", ""),
	}

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	var err error
	durations := []struct {
		key  string
		def  string
		dest *time.Duration
	}{
		{"SHUTDOWN_TIMEOUT", "15s", &cfg.ShutdownTimeout},
		{"DB_CONN_MAX_IDLE_TIME", "30s", &cfg.DBConnMaxIdleTime},
		{"DB_CONNECT_TIMEOUT", "10s", &cfg.DBConnectTimeout},
		{"JWT_EXPIRES_IN", "4h", &cfg.JWTExpirationDur},
		{"ML_TIMEOUT", "10s", &cfg.MLTimeout},
		{"CATEGORIZE_BATCH_DELAY", "1s", &cfg.CategorizeBatchDelay},
		{"CATEGORY_CACHE_TTL", "24h", &cfg.CategoryCacheTTL},
	}
	for _, d := range durations {
		if *d.dest, err = parseDuration(d.key, getEnv(d.key, d.def)); err != nil {
			return nil, err
		}
	}

	if cfg.DBMaxOpenConns, err = parsePositiveInt("DB_MAX_OPEN_CONNS", getEnv("DB_MAX_OPEN_CONNS", "20")); err != nil {
		return nil, err
	}
	if cfg.DBMaxIdleConns, err = parsePositiveInt("DB_MAX_IDLE_CONNS", getEnv("DB_MAX_IDLE_CONNS", "5")); err != nil {
		return nil, err
	}

	return cfg, nil
}

// IsProduction reports whether the service runs with production settings.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func parseDuration(key, value string) (time.Duration, error) {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("%s must not be negative, got %v", key, d)
	}
	return d, nil
}

func parsePositiveInt(key, value string) (int, error) {
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	if n <= 0 {
		return 0, fmt.Errorf("%s must be positive, got %d", key, n)
	}
	return n, nil
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
