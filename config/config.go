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
	Scraper   ScraperConfig
	Proxy     ProxyConfig
	Auth      AuthConfig
	RateLimit RateLimitConfig
	Cache     CacheConfig
	Log       LogConfig
}

// ServerConfig controls the HTTP server.
type ServerConfig struct {
	Host string // default: "0.0.0.0"
	Port int    // default: 8080
	Mode string // "debug", "release", "test"; default: "release"
}

// BrowserConfig controls the Rod browser sessions.
type BrowserConfig struct {
	// Headless controls whether sessions run headless. Debug mode forces
	// a visible window regardless.
	Headless bool // default: true

	// NoSandbox disables Chrome's sandbox (needed in Docker).
	NoSandbox bool // default: false

	// BrowserBin overrides the Chromium binary path.
	BrowserBin string

	// UserAgent is applied to every session before any page script runs.
	UserAgent string

	// Debug enables verbose diagnostics: visible window, per-request
	// network logging, and screenshot/HTML dumps on extraction failure.
	Debug bool // default: false

	// DebugDir is where debug artifacts are written.
	DebugDir string // default: "."
}

// ScraperConfig controls scraping behavior.
type ScraperConfig struct {
	// MaxRetries is the number of full scrape attempts per request.
	MaxRetries int // default: 3

	// RetryDelay is the fixed pause between attempts.
	RetryDelay time.Duration // default: 2s

	// NavigationTimeout bounds a single page load.
	NavigationTimeout time.Duration // default: 45s

	// SettleDelay is the fixed wait after load for client-side rendering
	// to populate the embedded data blob.
	SettleDelay time.Duration // default: 3s

	// ExtractRounds is how many times the extractor chain is re-run
	// against a live page before giving up on structured data.
	ExtractRounds int // default: 5

	// ExtractDelay is the pause between extraction rounds.
	ExtractDelay time.Duration // default: 2s

	// HashtagCap / AudioTrackCap bound the deduplicated sets on a snapshot.
	HashtagCap    int // default: 30
	AudioTrackCap int // default: 30

	// FetchMode selects the fetching strategy: "browser" (default) opens
	// an isolated browser session per attempt; "auto" tries a plain HTTP
	// fetch with a Chrome TLS fingerprint first and falls back to the
	// browser when the embedded state is absent.
	FetchMode string // default: "browser"

	// MaxTimeout caps the client-supplied per-request timeout.
	MaxTimeout time.Duration // default: 300s
}

// ProxyConfig controls the proxy pool.
type ProxyConfig struct {
	// Addresses is the static pool, read once at startup. Empty means
	// direct connection (documented risk of upstream blocking).
	Addresses []string
}

// AuthConfig controls API key authentication.
type AuthConfig struct {
	Enabled bool // default: true
	APIKeys []string
}

// RateLimitConfig controls per-key rate limiting.
type RateLimitConfig struct {
	RequestsPerSecond float64 // default: 1
	Burst             int     // default: 3
}

// CacheConfig controls the snapshot cache.
type CacheConfig struct {
	MaxEntries int // default: 1000
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
			Host: envOr("TIKSCOPE_HOST", "0.0.0.0"),
			Port: envIntOr("TIKSCOPE_PORT", 8080),
			Mode: envOr("TIKSCOPE_MODE", "release"),
		},
		Browser: BrowserConfig{
			Headless:   envBoolOr("TIKSCOPE_HEADLESS", true),
			NoSandbox:  envBoolOr("TIKSCOPE_NO_SANDBOX", false),
			BrowserBin: os.Getenv("TIKSCOPE_BROWSER_BIN"),
			UserAgent:  envOr("TIKSCOPE_USER_AGENT", ""),
			Debug:      envBoolOr("DEBUG_SCRAPER", false),
			DebugDir:   envOr("TIKSCOPE_DEBUG_DIR", "."),
		},
		Scraper: ScraperConfig{
			MaxRetries:        envIntOr("TIKSCOPE_MAX_RETRIES", 3),
			RetryDelay:        envDurationOr("TIKSCOPE_RETRY_DELAY", 2*time.Second),
			NavigationTimeout: envDurationOr("TIKSCOPE_NAV_TIMEOUT", 45*time.Second),
			SettleDelay:       envDurationOr("TIKSCOPE_SETTLE_DELAY", 3*time.Second),
			ExtractRounds:     envIntOr("TIKSCOPE_EXTRACT_ROUNDS", 5),
			ExtractDelay:      envDurationOr("TIKSCOPE_EXTRACT_DELAY", 2*time.Second),
			HashtagCap:        envIntOr("TIKSCOPE_HASHTAG_CAP", 30),
			AudioTrackCap:     envIntOr("TIKSCOPE_AUDIO_CAP", 30),
			FetchMode:         envOr("TIKSCOPE_FETCH_MODE", "browser"),
			MaxTimeout:        envDurationOr("TIKSCOPE_MAX_TIMEOUT", 300*time.Second),
		},
		Proxy: ProxyConfig{
			Addresses: envSliceOr("PROXY_LIST", nil),
		},
		Auth: AuthConfig{
			Enabled: envBoolOr("TIKSCOPE_AUTH_ENABLED", true),
			APIKeys: envSliceOr("TIKSCOPE_API_KEYS", nil),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: envFloatOr("TIKSCOPE_RATE_RPS", 1.0),
			Burst:             envIntOr("TIKSCOPE_RATE_BURST", 3),
		},
		Cache: CacheConfig{
			MaxEntries: envIntOr("TIKSCOPE_CACHE_MAX_ENTRIES", 1000),
		},
		Log: LogConfig{
			Level:  envOr("TIKSCOPE_LOG_LEVEL", "info"),
			Format: envOr("TIKSCOPE_LOG_FORMAT", "json"),
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
