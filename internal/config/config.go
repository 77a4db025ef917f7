package config

import (
	"fmt"
	"os"
	"strconv"
)

// EmailConfig carries the mail provider settings. It is passed explicitly
// into the email service instead of being read from process globals.
type EmailConfig struct {
	APIKey    string
	BaseURL   string
	FromEmail string
	FromName  string
}

// StorageConfig carries object storage settings for rendered PDFs.
type StorageConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
	Bucket    string
}

// RedisConfig carries cache settings.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type Config struct {
	Port        int
	DatabaseURL string
	JWTSecret   string

	Redis   RedisConfig
	Storage StorageConfig
	Email   EmailConfig

	ExchangeRateAPIURL string
}

// Load reads configuration from the environment. DATABASE_URL and
// JWT_SECRET are required; everything else has development defaults.
func Load() (*Config, error) {
	cfg := &Config{
		Port:        8080,
		DatabaseURL: os.Getenv("DATABASE_URL"),
		JWTSecret:   os.Getenv("JWT_SECRET"),
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
		},
		Storage: StorageConfig{
			Endpoint:  getEnv("MINIO_ENDPOINT", "localhost:9000"),
			AccessKey: getEnv("MINIO_ACCESS_KEY", "minioadmin"),
			SecretKey: getEnv("MINIO_SECRET_KEY", "minioadmin"),
			UseSSL:    os.Getenv("MINIO_USE_SSL") == "true",
			Bucket:    getEnv("MINIO_BUCKET", "invoices"),
		},
		Email: EmailConfig{
			APIKey:    os.Getenv("RESEND_API_KEY"),
			BaseURL:   getEnv("RESEND_BASE_URL", "https://api.resend.com"),
			FromEmail: getEnv("EMAILS_FROM_EMAIL", "invoices@example.com"),
			FromName:  getEnv("EMAILS_FROM_NAME", "Invoice Generator"),
		},
		ExchangeRateAPIURL: getEnv("EXCHANGE_RATE_API_URL", "https://api.exchangerate-api.com/v4/latest"),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is required")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET environment variable is required")
	}

	if portStr := os.Getenv("PORT"); portStr != "" {
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return nil, fmt.Errorf("invalid PORT %q: %w", portStr, err)
		}
		cfg.Port = port
	}

	if dbStr := os.Getenv("REDIS_DB"); dbStr != "" {
		db, err := strconv.Atoi(dbStr)
		if err != nil {
			return nil, fmt.Errorf("invalid REDIS_DB %q: %w", dbStr, err)
		}
		cfg.Redis.DB = db
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
