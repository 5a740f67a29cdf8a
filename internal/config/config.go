// Package config loads and validates application configuration from environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration values for the API server.
// Values are populated by Load from environment variables.
type Config struct {
	// Port is the TCP port the HTTP server listens on. Defaults to "8080".
	Port string

	// DatabaseURL is the Postgres connection string. Required.
	DatabaseURL string

	// LogLevel controls the minimum log level. Defaults to "info".
	// Valid values: debug, info, warn, error.
	LogLevel string

	// CORSOrigins is the list of allowed cross-origin request origins.
	// Defaults to ["http://localhost:8081"] (Expo dev server).
	// Set CORS_ORIGINS to a comma-separated list to override.
	CORSOrigins []string

	// MaxBodyBytes caps request bodies. Defaults to 1 MiB.
	MaxBodyBytes int64

	// RateLimitRPS and RateLimitBurst bound requests per client IP.
	RateLimitRPS   float64
	RateLimitBurst int

	Directions DirectionsConfig
}

// DirectionsConfig configures the outbound directions provider.
type DirectionsConfig struct {
	BaseURL string
	// APIKey may be empty; every leg then falls back to a straight line.
	APIKey string
	RPS    float64
	// RedisURL enables the leg cache when set.
	RedisURL string
	CacheTTL time.Duration
}

// Load reads configuration from environment variables and returns a Config.
// A .env file in the working directory, if present, seeds variables that are
// not already set. The error lists every missing required variable and every
// unparsable value, not just the first.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("config.Load: reading .env: %w", err)
	}

	var p parser
	cfg := Config{
		Port:           getEnv("PORT", "8080"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		CORSOrigins:    splitCSV(getEnv("CORS_ORIGINS", "http://localhost:8081")),
		MaxBodyBytes:   p.int64("MAX_BODY_BYTES", 1<<20),
		RateLimitRPS:   p.float("RATE_LIMIT_RPS", 10),
		RateLimitBurst: p.int("RATE_LIMIT_BURST", 20),
		Directions: DirectionsConfig{
			BaseURL:  getEnv("DIRECTIONS_BASE_URL", "https://maps.googleapis.com"),
			APIKey:   os.Getenv("DIRECTIONS_API_KEY"),
			RPS:      p.float("DIRECTIONS_RPS", 5),
			RedisURL: os.Getenv("REDIS_URL"),
			CacheTTL: p.duration("DIRECTIONS_CACHE_TTL", 24*time.Hour),
		},
	}

	var missing []string

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}

	var errs []error
	if len(missing) > 0 {
		errs = append(errs, fmt.Errorf("required environment variables not set: %s", strings.Join(missing, ", ")))
	}
	errs = append(errs, p.errs...)
	if err := errors.Join(errs...); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// SlogLevel maps LogLevel onto a slog.Level. Unknown values mean info.
func (c Config) SlogLevel() slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return l
}

// parser collects parse failures so Load can report all of them at once.
type parser struct {
	errs []error
}

func (p *parser) fail(key, raw, want string) {
	p.errs = append(p.errs, fmt.Errorf("%s=%q: must be %s", key, raw, want))
}

func (p *parser) int(key string, fallback int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		p.fail(key, raw, "a non-negative integer")
		return fallback
	}
	return n
}

func (p *parser) int64(key string, fallback int64) int64 {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || n <= 0 {
		p.fail(key, raw, "a positive integer")
		return fallback
	}
	return n
}

func (p *parser) float(key string, fallback float64) float64 {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || f <= 0 {
		p.fail(key, raw, "a positive number")
		return fallback
	}
	return f
}

func (p *parser) duration(key string, fallback time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		p.fail(key, raw, "a positive duration such as 24h")
		return fallback
	}
	return d
}

// getEnv returns the value of the environment variable named by key,
// or fallback if the variable is not set or is empty.
func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// splitCSV splits a comma-separated string into a trimmed slice, ignoring empty entries.
func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if t := strings.TrimSpace(part); t != "" {
			out = append(out, t)
		}
	}
	return out
}
