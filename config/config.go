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
	Extractor ExtractorConfig
	Auth      AuthConfig
	RateLimit RateLimitConfig
	Cache     CacheConfig
	Batch     BatchConfig
	Log       LogConfig
}

// ServerConfig controls the HTTP server.
type ServerConfig struct {
	Host string // default: "0.0.0.0"
	Port int    // default: 3000
	Mode string // "debug", "release", "test"; default: "release"
}

// BrowserConfig controls how a browser session is launched.
type BrowserConfig struct {
	// Engine selects the session backend: "rod" (headless Chromium) or
	// "http" (static fetch, no JavaScript).
	Engine string // default: "rod"

	// Headless controls whether the browser runs headless.
	Headless bool // default: true

	// NoSandbox disables Chrome's sandbox (needed in Docker).
	NoSandbox bool // default: true

	// BrowserBin overrides the Chromium binary path.
	BrowserBin string

	// Proxy is the upstream proxy URL for all browser traffic.
	Proxy string

	// Stealth masks navigator.webdriver and friends on every page.
	Stealth bool // default: false
}

// ExtractorConfig controls navigation, the locate budget and target matching.
type ExtractorConfig struct {
	// NavigationTimeout is the max time for navigation to reach readiness.
	NavigationTimeout time.Duration // default: 30s

	// WaitUntil is the readiness predicate: "networkidle", "domcontentloaded" or "load".
	WaitUntil string // default: "networkidle"

	// SettleDelay is waited once after navigation for client-side rendering.
	SettleDelay time.Duration // default: 3s

	// MaxAttempts bounds the selector cascade retries.
	MaxAttempts int // default: 10

	// AttemptDelay is the pause between two locate attempts.
	AttemptDelay time.Duration // default: 2s

	// ExtractTimeout is the hard deadline on a whole extraction.
	ExtractTimeout time.Duration // default: 90s

	// TargetDomains are the hosts (and their subdomains) accepted as input.
	TargetDomains []string // default: terabox.com, 1024terabox.com

	// SiteToken must appear in the page markup for the regex fallback to run.
	SiteToken string // default: "terabox"
}

// AuthConfig controls API key authentication.
type AuthConfig struct {
	// Enabled toggles API key authentication.
	Enabled bool // default: false

	// APIKeys is the list of valid API keys.
	APIKeys []string
}

// RateLimitConfig controls per-key rate limiting.
type RateLimitConfig struct {
	// RequestsPerSecond is the sustained rate per API key or client IP.
	RequestsPerSecond float64 // default: 1

	// Burst is the maximum burst size per identity.
	Burst int // default: 5
}

// CacheConfig controls the extraction result cache.
type CacheConfig struct {
	// MaxEntries is the maximum number of cached records.
	MaxEntries int // default: 1000
}

// BatchConfig controls POST /batch.
type BatchConfig struct {
	// MaxURLs is the upper bound on URLs per batch request.
	MaxURLs int // default: 5
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
			Host: envOr("TERAPROBE_HOST", "0.0.0.0"),
			Port: envIntOr("TERAPROBE_PORT", 3000),
			Mode: envOr("TERAPROBE_MODE", "release"),
		},
		Browser: BrowserConfig{
			Engine:     envOr("TERAPROBE_BROWSER_ENGINE", "rod"),
			Headless:   envBoolOr("TERAPROBE_HEADLESS", true),
			NoSandbox:  envBoolOr("TERAPROBE_NO_SANDBOX", true),
			BrowserBin: os.Getenv("TERAPROBE_BROWSER_BIN"),
			Proxy:      os.Getenv("TERAPROBE_PROXY"),
			Stealth:    envBoolOr("TERAPROBE_STEALTH", false),
		},
		Extractor: ExtractorConfig{
			NavigationTimeout: envDurationOr("TERAPROBE_NAV_TIMEOUT", 30*time.Second),
			WaitUntil:         envOr("TERAPROBE_WAIT_UNTIL", "networkidle"),
			SettleDelay:       envDurationOr("TERAPROBE_SETTLE_DELAY", 3*time.Second),
			MaxAttempts:       envIntOr("TERAPROBE_MAX_ATTEMPTS", 10),
			AttemptDelay:      envDurationOr("TERAPROBE_ATTEMPT_DELAY", 2*time.Second),
			ExtractTimeout:    envDurationOr("TERAPROBE_EXTRACT_TIMEOUT", 90*time.Second),
			TargetDomains: envSliceOr("TERAPROBE_TARGET_DOMAINS", []string{
				"terabox.com", "1024terabox.com",
			}),
			SiteToken: envOr("TERAPROBE_SITE_TOKEN", "terabox"),
		},
		Auth: AuthConfig{
			Enabled: envBoolOr("TERAPROBE_AUTH_ENABLED", false),
			APIKeys: envSliceOr("TERAPROBE_API_KEYS", nil),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: envFloatOr("TERAPROBE_RATE_RPS", 1.0),
			Burst:             envIntOr("TERAPROBE_RATE_BURST", 5),
		},
		Cache: CacheConfig{
			MaxEntries: envIntOr("TERAPROBE_CACHE_MAX_ENTRIES", 1000),
		},
		Batch: BatchConfig{
			MaxURLs: envIntOr("TERAPROBE_BATCH_MAX_URLS", 5),
		},
		Log: LogConfig{
			Level:  envOr("TERAPROBE_LOG_LEVEL", "info"),
			Format: envOr("TERAPROBE_LOG_FORMAT", "json"),
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
