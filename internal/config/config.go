// Package config provides centralized configuration loaded from environment
// variables. Shared by both cmd/api and cmd/sweep.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// --------------------------------------------------------------------------
// Resolver strategies
// --------------------------------------------------------------------------

const (
	// ResolverRemote queries the AlAdhan timings API.
	ResolverRemote = "remote"
	// ResolverLocal computes sunset offline from coordinates.
	ResolverLocal = "local"
)

// --------------------------------------------------------------------------
// Config struct — populated from environment variables
// --------------------------------------------------------------------------

type Config struct {
	// Database
	DatabaseURL    string
	DBPoolMinConns int
	DBPoolMaxConns int
	DBPoolMaxLife  time.Duration

	// API server
	APIHost     string
	APIPort     int
	Environment string // development, staging, production

	// CORS
	CORSAllowOrigins []string

	// Rate limiting
	RateLimitEnabled  bool
	RateLimitRequests int
	RateLimitWindow   time.Duration

	// Web push (VAPID)
	VAPIDSubject    string
	VAPIDPublicKey  string
	VAPIDPrivateKey string

	// Sweep
	WindowMinutes int           // delivery window = sweep cadence
	SweepWorkers  int           // bounded concurrency across subscribers
	SweepInterval time.Duration // in-process sweep ticker in cmd/api; 0 = external cron only

	// Maghrib resolver
	Resolver          string // "remote" or "local"
	AlAdhanBaseURL    string
	CalculationMethod int // AlAdhan method parameter; 0 = Jafari / Shia Ithna-Ashari
	AlAdhanPerMinute  int // rate limit toward the timings API
	HTTPTimeout       time.Duration
	ResolverCache     bool
}

// Load reads configuration from environment variables with sensible defaults.
func Load() (*Config, error) {
	dbURL := envOr("DATABASE_URL", "")
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL must be set")
	}

	resolver := strings.ToLower(envOr("RESOLVER", ResolverRemote))
	if resolver != ResolverRemote && resolver != ResolverLocal {
		return nil, fmt.Errorf("RESOLVER must be %q or %q, got %q", ResolverRemote, ResolverLocal, resolver)
	}

	return &Config{
		DatabaseURL:    dbURL,
		DBPoolMinConns: envInt("DB_POOL_MIN_CONNS", 1),
		DBPoolMaxConns: envInt("DB_POOL_MAX_CONNS", 5),
		DBPoolMaxLife:  time.Duration(envInt("DB_POOL_MAX_LIFE_MINUTES", 30)) * time.Minute,

		APIHost:     envOr("API_HOST", "0.0.0.0"),
		APIPort:     envInt("API_PORT", envInt("PORT", 3000)),
		Environment: envOr("ENVIRONMENT", "development"),

		CORSAllowOrigins: envList("CORS_ALLOW_ORIGINS", []string{
			"http://localhost:3000",
			"http://localhost:5173",
		}),

		RateLimitEnabled:  envBool("RATE_LIMIT_ENABLED", true),
		RateLimitRequests: envInt("RATE_LIMIT_REQUESTS", 60),
		RateLimitWindow:   time.Duration(envInt("RATE_LIMIT_WINDOW", 60)) * time.Second,

		VAPIDSubject:    envOr("VAPID_SUBJECT", ""),
		VAPIDPublicKey:  envOr("VAPID_PUBLIC_KEY", ""),
		VAPIDPrivateKey: envOr("VAPID_PRIVATE_KEY", ""),

		WindowMinutes: envInt("SWEEP_WINDOW_MINUTES", 5),
		SweepWorkers:  envInt("SWEEP_WORKERS", 4),
		SweepInterval: time.Duration(envInt("SWEEP_INTERVAL_MINUTES", 0)) * time.Minute,

		Resolver:          resolver,
		AlAdhanBaseURL:    envOr("ALADHAN_BASE_URL", "https://api.aladhan.com"),
		CalculationMethod: envInt("CALCULATION_METHOD", 0),
		AlAdhanPerMinute:  envInt("ALADHAN_REQUESTS_PER_MINUTE", 60),
		HTTPTimeout:       time.Duration(envInt("HTTP_TIMEOUT_SECONDS", 15)) * time.Second,
		ResolverCache:     envBool("RESOLVER_CACHE_ENABLED", true),
	}, nil
}

// RequireVAPID verifies the push signing credentials are present. Both
// binaries dispatch pushes, so both call this before building a dispatcher;
// schema init does not need it.
func (c *Config) RequireVAPID() error {
	if c.VAPIDSubject == "" || c.VAPIDPublicKey == "" || c.VAPIDPrivateKey == "" {
		return fmt.Errorf("VAPID_SUBJECT, VAPID_PUBLIC_KEY, and VAPID_PRIVATE_KEY must be set")
	}
	return nil
}

// IsProduction returns true if running in production environment.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// --------------------------------------------------------------------------
// Env helpers
// --------------------------------------------------------------------------

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return fallback
}

func envList(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		if len(result) > 0 {
			return result
		}
	}
	return fallback
}
