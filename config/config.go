package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Fetch    FetchConfig
	Browser  BrowserConfig
	Analyzer AnalyzerConfig
	Run      RunConfig
	Quality  QualityConfig
	Log      LogConfig
}

// FetchConfig controls the plain HTTP client.
type FetchConfig struct {
	// RequestTimeout is the per-request deadline.
	RequestTimeout time.Duration // default: 30s

	// MaxBodyBytes caps how much of a response body is read.
	MaxBodyBytes int64 // default: 10 MB

	// DefaultProxy is the proxy URL applied to every request.
	DefaultProxy string

	// CacheEntries is the capacity of the shared response cache.
	CacheEntries int // default: 256

	// CacheTTL is how long a cached response stays fresh.
	CacheTTL time.Duration // default: 5m
}

// BrowserConfig controls the headless browser client.
type BrowserConfig struct {
	// Headless controls whether the browser runs headless.
	Headless bool // default: true

	// MaxPages is the page pool capacity (max concurrent tabs).
	MaxPages int // default: 4

	// NoSandbox disables Chrome's sandbox (needed in Docker).
	NoSandbox bool // default: false

	// BrowserBin overrides the Chromium binary path.
	BrowserBin string

	// NavigationTimeout is the max time for a single navigation.
	NavigationTimeout time.Duration // default: 15s
}

// AnalyzerConfig controls website profiling.
type AnalyzerConfig struct {
	// ProbeThreshold is the body-length delta ratio above which the
	// query-parameter probe counts as evidence of search support.
	ProbeThreshold float64 // default: 0.15

	// JSDetectionRatio flags RequiresJS when rendered visible text exceeds
	// static visible text by this factor.
	JSDetectionRatio float64 // default: 2.0

	// MaxSitemapURLs caps how many sitemap entries a profile retains.
	MaxSitemapURLs int // default: 5000

	// FieldConfidence is the minimum confidence for an input element to
	// count as a search field.
	FieldConfidence float64 // default: 0.5
}

// RunConfig controls orchestration of a full run.
type RunConfig struct {
	// MaxResultsPerTerm caps retained records per search term.
	MaxResultsPerTerm int // default: 50

	// MaxConcurrency bounds the worker pool.
	MaxConcurrency int // default: 4

	// MaxRetries bounds retry attempts for transient request failures.
	MaxRetries int // default: 3

	// RetryBaseDelay seeds the exponential backoff (doubles per attempt).
	RetryBaseDelay time.Duration // default: 500ms

	// MinDomainDelay is the minimum spacing between any two requests to
	// the same domain, shared across all workers.
	MinDomainDelay time.Duration // default: 500ms

	// RunTimeout bounds the whole run; zero means no global deadline.
	RunTimeout time.Duration // default: 0
}

// QualityConfig holds the quality-score rubric weights. The five component
// weights sum to 100 by default; the score is clamped regardless.
type QualityConfig struct {
	WeightTitle        float64 // default: 25
	WeightDescription  float64 // default: 20
	WeightKeywords     float64 // default: 10
	WeightDescLength   float64 // default: 15
	WeightTitleOverlap float64 // default: 30

	// DescLengthMin/Max bound the ideal description length range.
	DescLengthMin int // default: 50
	DescLengthMax int // default: 320
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string // default: "info"
	Format string // "json" or "text"; default: "text"
}

// Load reads configuration from environment variables with sane defaults.
func Load() *Config {
	return &Config{
		Fetch: FetchConfig{
			RequestTimeout: envDurationOr("SCOUT_REQUEST_TIMEOUT", 30*time.Second),
			MaxBodyBytes:   int64(envIntOr("SCOUT_MAX_BODY_BYTES", 10<<20)),
			DefaultProxy:   os.Getenv("SCOUT_PROXY"),
			CacheEntries:   envIntOr("SCOUT_CACHE_ENTRIES", 256),
			CacheTTL:       envDurationOr("SCOUT_CACHE_TTL", 5*time.Minute),
		},
		Browser: BrowserConfig{
			Headless:          envBoolOr("SCOUT_HEADLESS", true),
			MaxPages:          envIntOr("SCOUT_MAX_PAGES", 4),
			NoSandbox:         envBoolOr("SCOUT_NO_SANDBOX", false),
			BrowserBin:        os.Getenv("SCOUT_BROWSER_BIN"),
			NavigationTimeout: envDurationOr("SCOUT_NAV_TIMEOUT", 15*time.Second),
		},
		Analyzer: AnalyzerConfig{
			ProbeThreshold:   envFloatOr("SCOUT_PROBE_THRESHOLD", 0.15),
			JSDetectionRatio: envFloatOr("SCOUT_JS_DETECTION_RATIO", 2.0),
			MaxSitemapURLs:   envIntOr("SCOUT_MAX_SITEMAP_URLS", 5000),
			FieldConfidence:  envFloatOr("SCOUT_FIELD_CONFIDENCE", 0.5),
		},
		Run: RunConfig{
			MaxResultsPerTerm: envIntOr("SCOUT_MAX_RESULTS", 50),
			MaxConcurrency:    envIntOr("SCOUT_MAX_CONCURRENCY", 4),
			MaxRetries:        envIntOr("SCOUT_MAX_RETRIES", 3),
			RetryBaseDelay:    envDurationOr("SCOUT_RETRY_BASE_DELAY", 500*time.Millisecond),
			MinDomainDelay:    envDurationOr("SCOUT_MIN_DOMAIN_DELAY", 500*time.Millisecond),
			RunTimeout:        envDurationOr("SCOUT_RUN_TIMEOUT", 0),
		},
		Quality: QualityConfig{
			WeightTitle:        envFloatOr("SCOUT_WEIGHT_TITLE", 25),
			WeightDescription:  envFloatOr("SCOUT_WEIGHT_DESCRIPTION", 20),
			WeightKeywords:     envFloatOr("SCOUT_WEIGHT_KEYWORDS", 10),
			WeightDescLength:   envFloatOr("SCOUT_WEIGHT_DESC_LENGTH", 15),
			WeightTitleOverlap: envFloatOr("SCOUT_WEIGHT_TITLE_OVERLAP", 30),
			DescLengthMin:      envIntOr("SCOUT_DESC_LENGTH_MIN", 50),
			DescLengthMax:      envIntOr("SCOUT_DESC_LENGTH_MAX", 320),
		},
		Log: LogConfig{
			Level:  envOr("SCOUT_LOG_LEVEL", "info"),
			Format: envOr("SCOUT_LOG_FORMAT", "text"),
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
		// Bare integers are treated as seconds for CLI convenience.
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return time.Duration(n) * time.Second
		}
	}
	return fallback
}
