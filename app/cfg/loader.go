package cfg

import (
	"cmp"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/jessevdk/go-flags"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

type rawCfg struct {
	// HTTP server
	Port     string `long:"port" env:"PORT" default:"8080" description:"HTTP server port"`
	SiteName string `long:"site-name" env:"SITE_NAME" default:"intellinews.co.in" description:"Site name used as utm_source on outbound links"`
	FeedsDir string `long:"feeds-dir" env:"FEEDS_DIR" default:"./feeds" description:"Directory containing custom RSS feed configuration files"`

	// Background workers
	WorkerCount int `long:"worker-count" env:"WORKER_COUNT" default:"4" description:"Number of background workers"`
	QueueSize   int `long:"queue-size" env:"QUEUE_SIZE" default:"300" description:"Background task queue capacity"`

	// Upstream providers
	UserAgent         string `long:"user-agent" env:"USER_AGENT" default:"IntelliNews/1.0" description:"User agent string for upstream requests"`
	UpstreamTimeout   int    `long:"upstream-timeout" env:"UPSTREAM_TIMEOUT" default:"30" description:"Upstream HTTP client timeout in seconds"`
	InshortsURL       string `long:"inshorts-url" env:"INSHORTS_API_URL" default:"https://inshorts.com/api" description:"Base URL of the news provider"`
	MedialArticlesURL string `long:"medial-articles-url" env:"MEDIAL_ARTICLES_URL" default:"https://prod.medial.app/api/v1/articles" description:"Articles feed endpoint"`
	MedialStartupURL  string `long:"medial-startup-url" env:"MEDIAL_STARTUP_URL" default:"https://prod.medial.app/api/v1/news" description:"Startup feed endpoint"`
	MedialAccessToken string `long:"medial-access-token" env:"MEDIAL_API_ACCESS_TOKEN" description:"Access token for the articles and startup feeds"`

	// Shared-secret header
	APISecret     string `long:"api-secret" env:"API_SECRET_KEY" description:"Shared secret expected inside the X-API-Secret header (optional)"`
	EncryptionKey string `long:"encryption-key" env:"ENCRYPTION_KEY" description:"AES key (16, 24 or 32 bytes) used to encrypt the X-API-Secret header"`
	SecretMaxSkew int    `long:"secret-max-skew" env:"SECRET_MAX_SKEW" default:"30000" description:"Maximum header timestamp skew in milliseconds"`

	// Generative text provider
	AIProvider      string  `long:"ai-provider" env:"AI_PROVIDER" default:"openai" choice:"openai" choice:"anthropic" choice:"ollama" description:"Generative text provider"`
	AIModel         string  `long:"ai-model" env:"AI_MODEL" description:"Model name (provider default when empty)"`
	AIAPIKey        string  `long:"ai-api-key" env:"AI_API_KEY" description:"API key for the generative text provider"`
	AIBaseURL       string  `long:"ai-base-url" env:"AI_BASE_URL" description:"Override the provider base URL"`
	AIMaxConcurrent int     `long:"ai-max-concurrent" env:"AI_MAX_CONCURRENT" default:"5" description:"Maximum concurrent provider calls"`
	AIRateLimit     float64 `long:"ai-rate-limit" env:"AI_RATE_LIMIT" default:"1" description:"Generation requests per second allowed per client IP"`
	AIRateBurst     int     `long:"ai-rate-burst" env:"AI_RATE_BURST" default:"5" description:"Generation request burst per client IP"`
	AICacheSize     int     `long:"ai-cache-size" env:"AI_CACHE_SIZE" default:"256" description:"Number of cached generation results"`
	AICacheTTL      int     `long:"ai-cache-ttl" env:"AI_CACHE_TTL" default:"600" description:"Generation cache TTL in seconds (0 disables caching)"`
	RedisAddr       string  `long:"redis-addr" env:"REDIS_ADDR" description:"Redis address for a shared generation cache (optional)"`

	// Application metadata
	Timezone string `long:"timezone" env:"TZ" default:"UTC" description:"Timezone for timestamps (e.g., UTC, Asia/Kolkata)"`
	Debug    bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

// Load parses command-line flags and environment variables. It returns nil, nil
// when help was requested.
func Load() (*Cfg, error) {
	return load(os.Args[1:])
}

func load(args []string) (*Cfg, error) {
	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)

	if _, err := parser.ParseArgs(args); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				return nil, nil
			}
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	cfg := &Cfg{
		Port:              raw.Port,
		SiteName:          raw.SiteName,
		FeedsDir:          raw.FeedsDir,
		WorkerCount:       raw.WorkerCount,
		QueueSize:         raw.QueueSize,
		UserAgent:         raw.UserAgent,
		UpstreamTimeout:   raw.UpstreamTimeout,
		InshortsURL:       raw.InshortsURL,
		MedialArticlesURL: raw.MedialArticlesURL,
		MedialStartupURL:  raw.MedialStartupURL,
		MedialAccessToken: raw.MedialAccessToken,
		APISecret:         raw.APISecret,
		EncryptionKey:     raw.EncryptionKey,
		SecretMaxSkew:     raw.SecretMaxSkew,
		AIProvider:        raw.AIProvider,
		AIModel:           raw.AIModel,
		AIAPIKey:          raw.AIAPIKey,
		AIBaseURL:         raw.AIBaseURL,
		AIMaxConcurrent:   raw.AIMaxConcurrent,
		AIRateLimit:       raw.AIRateLimit,
		AIRateBurst:       raw.AIRateBurst,
		AICacheSize:       raw.AICacheSize,
		AICacheTTL:        raw.AICacheTTL,
		RedisAddr:         raw.RedisAddr,
		Timezone:          raw.Timezone,
		Debug:             raw.Debug,
		Version:           GetVersion(),
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}

	if err := applyTimezone(cfg.Timezone); err != nil {
		slog.Warn("Invalid timezone, using system default", "timezone", cfg.Timezone, "error", err)
	}

	return cfg, nil
}

func validate(cfg *Cfg) error {
	if (cfg.APISecret == "") != (cfg.EncryptionKey == "") {
		return fmt.Errorf("api secret and encryption key must be set together")
	}

	nonNegative := map[string]int{
		"worker count":      cfg.WorkerCount,
		"queue size":        cfg.QueueSize,
		"upstream timeout":  cfg.UpstreamTimeout,
		"secret max skew":   cfg.SecretMaxSkew,
		"ai max concurrent": cfg.AIMaxConcurrent,
		"ai cache size":     cfg.AICacheSize,
		"ai cache ttl":      cfg.AICacheTTL,
	}
	for name, value := range nonNegative {
		if value < 0 {
			return fmt.Errorf("%s must be non-negative", name)
		}
	}

	return nil
}

// UpstreamTimeoutDuration returns the upstream client timeout, 0 meaning no limit.
func (c *Cfg) UpstreamTimeoutDuration() time.Duration {
	return time.Duration(c.UpstreamTimeout) * time.Second
}

func applyTimezone(timezone string) error {
	if timezone != "" {
		loc, err := time.LoadLocation(timezone)
		if err != nil {
			return err
		}
		time.Local = loc
	}
	return nil
}
