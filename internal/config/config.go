// Package config loads server settings from the environment, optionally
// seeded from a .env file.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/mmynk/billplanner/pkg/logging"
)

// ErrMissingSecret is returned when JWT_SECRET is not set.
var ErrMissingSecret = errors.New("JWT_SECRET must be set")

// Config holds all configuration for the server.
type Config struct {
	// Server
	Port int

	// Storage
	DBPath string

	// JWT
	JWTSecret string
	JWTTTL    time.Duration

	// Rate limiting for Register/Login, per peer
	AuthRatePerSec float64
	AuthBurst      int

	// Feed
	FeedBuffer int

	// Logging
	LogLevel slog.Level
}

// LoadEnvFile applies the variables in path without overriding the real
// environment. A missing file is not an error.
func LoadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to load %s: %w", path, err)
		}
		slog.Debug("No env file found", "path", path)
	}
	return nil
}

// Load reads configuration from environment variables after applying
// envFile with LoadEnvFile. Invalid numbers are logged and replaced by their
// defaults, so set up logging before calling it.
func Load(envFile string) (*Config, error) {
	if err := LoadEnvFile(envFile); err != nil {
		return nil, err
	}

	cfg := &Config{
		Port:           getEnvInt("PORT", 8080),
		DBPath:         getEnv("DB_PATH", "./data/billplanner.db"),
		JWTSecret:      os.Getenv("JWT_SECRET"),
		JWTTTL:         getEnvDuration("JWT_TTL", 24*time.Hour),
		AuthRatePerSec: getEnvFloat("AUTH_RATE_PER_SEC", 1),
		AuthBurst:      getEnvInt("AUTH_BURST", 5),
		FeedBuffer:     getEnvInt("FEED_BUFFER", 32),
		LogLevel:       LogLevel(),
	}

	if cfg.JWTSecret == "" {
		return nil, ErrMissingSecret
	}
	if cfg.Port <= 0 || cfg.Port > 65535 {
		return nil, fmt.Errorf("invalid PORT %d", cfg.Port)
	}
	return cfg, nil
}

// LogLevel reads LOG_LEVEL, defaulting to info.
func LogLevel() slog.Level {
	return logging.ParseLevel(os.Getenv("LOG_LEVEL"), slog.LevelInfo)
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		slog.Warn("Invalid integer in environment, using default", "key", key, "value", value, "default", fallback)
		return fallback
	}
	return n
}

func getEnvFloat(key string, fallback float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		slog.Warn("Invalid number in environment, using default", "key", key, "value", value, "default", fallback)
		return fallback
	}
	return f
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		slog.Warn("Invalid duration in environment, using default", "key", key, "value", value, "default", fallback)
		return fallback
	}
	return d
}
