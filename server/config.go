package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds everything read from the environment at startup.
type Config struct {
	Port        string
	DatabaseURL string

	JWTSecret   string
	JWTIssuer   string
	JWTAudience string

	AdminEmail    string
	AdminPassword string

	CORSOrigins []string

	// RateLimit is the number of requests allowed per client IP per minute.
	RateLimit int

	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
}

// loadConfig reads configuration from the environment, after loading a .env
// file if one is present.
func loadConfig() (*Config, error) {
	// Missing .env is fine; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := &Config{
		Port:          getEnv("PORT", "8080"),
		DatabaseURL:   getEnv("DATABASE_URL", "othello.sqlite"),
		JWTSecret:     os.Getenv("JWT_SECRET"),
		JWTIssuer:     getEnv("JWT_ISSUER", "othello-api"),
		JWTAudience:   getEnv("JWT_AUDIENCE", "othello-clients"),
		AdminEmail:    os.Getenv("ADMIN_EMAIL"),
		AdminPassword: os.Getenv("ADMIN_PASSWORD"),
		CORSOrigins:   splitOrigins(getEnv("CORS_ORIGINS", "*")),
		RateLimit:     getEnvAsInt("RATE_LIMIT", 100),
		SMTPHost:      os.Getenv("SMTP_HOST"),
		SMTPPort:      getEnvAsInt("SMTP_PORT", 587),
		SMTPUsername:  os.Getenv("SMTP_USERNAME"),
		SMTPPassword:  os.Getenv("SMTP_PASSWORD"),
	}

	if len(cfg.JWTSecret) < 32 {
		return nil, fmt.Errorf("JWT_SECRET must be at least 32 bytes, got %d", len(cfg.JWTSecret))
	}

	if cfg.RateLimit < 1 {
		cfg.RateLimit = 100
	}

	return cfg, nil
}

// usePostgres reports whether DatabaseURL points at a postgres server rather
// than a sqlite file.
func (c *Config) usePostgres() bool {
	return strings.HasPrefix(c.DatabaseURL, "postgres://") ||
		strings.HasPrefix(c.DatabaseURL, "postgresql://")
}

func splitOrigins(s string) []string {
	parts := strings.Split(s, ",")
	origins := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			origins = append(origins, p)
		}
	}
	return origins
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
