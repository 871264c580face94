package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Browser   BrowserConfig
	Checker   CheckerConfig
	Storage   StorageConfig
	Auth      AuthConfig
	RateLimit RateLimitConfig
	Log       LogConfig
}

// ServerConfig controls the HTTP server.
type ServerConfig struct {
	Host string // default: "0.0.0.0"
	Port int    // default: 8080
	Mode string // "debug", "release", "test"; default: "release"
}

// BrowserConfig controls the Rod browser instance.
type BrowserConfig struct {
	// Headless controls whether the browser runs headless.
	Headless bool // default: true

	// MaxPages is the page pool capacity (max concurrent runs).
	MaxPages int // default: 4

	// NoSandbox disables Chrome's sandbox (needed in Docker).
	NoSandbox bool // default: false

	// BrowserBin overrides the Chromium binary path.
	BrowserBin string

	// Stealth enables anti-bot-detection evasions for navigations.
	Stealth bool // default: false
}

// CheckerConfig holds server-side defaults and caps for check runs.
type CheckerConfig struct {
	// MaxLinkLimit caps the client-supplied link_limit.
	MaxLinkLimit int // default: 50

	// MaxRetries caps the client-supplied max_retries.
	MaxRetries int // default: 3

	// MaxTotalTimeout caps the client-supplied total_timeout_ms.
	MaxTotalTimeout time.Duration // default: 120s

	// MaxLinkTimeout caps the client-supplied link_timeout_ms.
	MaxLinkTimeout time.Duration // default: 60s
}

// StorageConfig controls screenshot artifact storage.
type StorageConfig struct {
	// BaseDir is the root directory for stored screenshots.
	BaseDir string // default: "./artifacts"
}

// AuthConfig controls API key authentication.
type AuthConfig struct {
	// Enabled toggles API key authentication.
	Enabled bool // default: true

	// APIKeys is the list of valid API keys.
	APIKeys []string
}

// RateLimitConfig controls per-key rate limiting.
type RateLimitConfig struct {
	// RequestsPerSecond is the sustained rate per API key.
	RequestsPerSecond float64 // default: 2

	// Burst is the maximum burst size per API key.
	Burst int // default: 5
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string // default: "info"
	Format string // "json" or "text"; default: "json"
}

// Load reads configuration from environment variables with sane defaults.
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Host: envOr("LINKGUARD_HOST", "0.0.0.0"),
			Port: envIntOr("LINKGUARD_PORT", 8080),
			Mode: envOr("LINKGUARD_MODE", "release"),
		},
		Browser: BrowserConfig{
			Headless:   envBoolOr("LINKGUARD_HEADLESS", true),
			MaxPages:   envIntOr("LINKGUARD_MAX_PAGES", 4),
			NoSandbox:  envBoolOr("LINKGUARD_NO_SANDBOX", false),
			BrowserBin: os.Getenv("LINKGUARD_BROWSER_BIN"),
			Stealth:    envBoolOr("LINKGUARD_STEALTH", false),
		},
		Checker: CheckerConfig{
			MaxLinkLimit:    envIntOr("LINKGUARD_MAX_LINK_LIMIT", 50),
			MaxRetries:      envIntOr("LINKGUARD_MAX_RETRIES", 3),
			MaxTotalTimeout: envDurationOr("LINKGUARD_MAX_TOTAL_TIMEOUT", 120*time.Second),
			MaxLinkTimeout:  envDurationOr("LINKGUARD_MAX_LINK_TIMEOUT", 60*time.Second),
		},
		Storage: StorageConfig{
			BaseDir: envOr("LINKGUARD_STORAGE_DIR", "./artifacts"),
		},
		Auth: AuthConfig{
			Enabled: envBoolOr("LINKGUARD_AUTH_ENABLED", true),
			APIKeys: envSliceOr("LINKGUARD_API_KEYS", nil),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: envFloatOr("LINKGUARD_RATE_RPS", 2.0),
			Burst:             envIntOr("LINKGUARD_RATE_BURST", 5),
		},
		Log: LogConfig{
			Level:  envOr("LINKGUARD_LOG_LEVEL", "info"),
			Format: envOr("LINKGUARD_LOG_FORMAT", "json"),
		},
	}
}

// --- helper functions ---

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envBoolOr(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envFloatOr(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envSliceOr(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		return result
	}
	return fallback
}
