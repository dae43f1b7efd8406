// Package config loads and validates application configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration values for the API server.
// Values are populated by Load from environment variables, once at process
// start; nothing re-reads the environment after that.
type Config struct {
	// Port is the TCP port the HTTP server listens on. Defaults to "8080".
	Port string

	// DatabaseURL is the Postgres connection string. Required.
	DatabaseURL string

	// LogLevel controls the minimum log level. Defaults to "info".
	// Valid values: debug, info, warn, error.
	LogLevel string

	// CORSOrigins is the list of allowed cross-origin request origins.
	// Defaults to ["http://localhost:3000"] (the frontend dev server).
	// Set CORS_ORIGINS to a comma-separated list to override.
	CORSOrigins []string

	// RevalidateSecret is the shared secret gating /api/revalidate and sent
	// with every outbound invalidation call. Required.
	RevalidateSecret string

	// RevalidateBaseURL is the base URL of the tier serving the revalidation
	// endpoint. Defaults to "http://localhost:3000". Set it to this service's
	// own address when no separate render tier exists.
	RevalidateBaseURL string

	// RevalidateTimeout bounds each outbound invalidation call.
	// Defaults to 3s. Set REVALIDATE_TIMEOUT to a Go duration to override.
	RevalidateTimeout time.Duration

	// AdminToken authenticates an actor with write+publish capabilities.
	// AuthorToken authenticates an actor with write capability only.
	// Empty tokens are ignored — no actor is registered for them.
	AdminToken  string
	AuthorToken string

	// RevalidateRPS and RevalidateBurst tune the per-client rate limit on
	// /api/revalidate. Defaults: 5 rps, burst 10. Set REVALIDATE_RPS or
	// REVALIDATE_BURST to override.
	RevalidateRPS   float64
	RevalidateBurst int
}

// Load reads configuration from environment variables and returns a Config.
// Returns an error listing any required variables that are not set.
func Load() (Config, error) {
	cfg := Config{
		Port:              getEnv("PORT", "8080"),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		CORSOrigins:       splitCSV(getEnv("CORS_ORIGINS", "http://localhost:3000")),
		RevalidateBaseURL: getEnv("REVALIDATE_URL", "http://localhost:3000"),
		AdminToken:        os.Getenv("ADMIN_TOKEN"),
		AuthorToken:       os.Getenv("AUTHOR_TOKEN"),
		RevalidateRPS:     5,
		RevalidateBurst:   10,
	}

	cfg.RevalidateTimeout = 3 * time.Second
	if raw := os.Getenv("REVALIDATE_TIMEOUT"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return Config{}, fmt.Errorf("invalid REVALIDATE_TIMEOUT %q: %w", raw, err)
		}
		cfg.RevalidateTimeout = d
	}

	if raw := os.Getenv("REVALIDATE_RPS"); raw != "" {
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil || f <= 0 {
			return Config{}, fmt.Errorf("invalid REVALIDATE_RPS %q: must be a positive number", raw)
		}
		cfg.RevalidateRPS = f
	}

	if raw := os.Getenv("REVALIDATE_BURST"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return Config{}, fmt.Errorf("invalid REVALIDATE_BURST %q: must be a positive integer", raw)
		}
		cfg.RevalidateBurst = n
	}

	var missing []string

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}

	cfg.RevalidateSecret = os.Getenv("REVALIDATE_SECRET")
	if cfg.RevalidateSecret == "" {
		missing = append(missing, "REVALIDATE_SECRET")
	}

	if len(missing) > 0 {
		return Config{}, fmt.Errorf("required environment variables not set: %s", strings.Join(missing, ", "))
	}

	return cfg, nil
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
