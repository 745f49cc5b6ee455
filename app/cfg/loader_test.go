package cfg

import (
	"testing"
	"time"
)

func TestGetVersion(t *testing.T) {
	if GetVersion() == "" {
		t.Error("GetVersion should never return empty string")
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("TZ", "UTC")

	cfg, err := load([]string{})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if cfg.Port != "8080" {
		t.Errorf("Expected port '8080', got '%s'", cfg.Port)
	}
	if cfg.InshortsURL != "https://inshorts.com/api" {
		t.Errorf("Expected default news provider URL, got '%s'", cfg.InshortsURL)
	}
	if cfg.WorkerCount != 4 || cfg.QueueSize != 300 {
		t.Errorf("Expected 4 workers and queue size 300, got %d and %d", cfg.WorkerCount, cfg.QueueSize)
	}
	if cfg.SecretMaxSkew != 30000 {
		t.Errorf("Expected secret max skew 30000, got %d", cfg.SecretMaxSkew)
	}
	if cfg.AIProvider != "openai" {
		t.Errorf("Expected AI provider 'openai', got '%s'", cfg.AIProvider)
	}
	if cfg.SecretEnabled() {
		t.Error("Expected secret header to be disabled without a secret and key")
	}
	if cfg.UpstreamTimeoutDuration() != 30*time.Second {
		t.Errorf("Expected upstream timeout 30s, got %v", cfg.UpstreamTimeoutDuration())
	}
}

func TestLoadFromFlagsAndEnvironment(t *testing.T) {
	t.Setenv("TZ", "UTC")
	t.Setenv("MEDIAL_API_ACCESS_TOKEN", "token-from-env")
	t.Setenv("API_SECRET_KEY", "s3cret")

	cfg, err := load([]string{
		"--port", "9090",
		"--encryption-key", "0123456789abcdef",
		"--ai-provider", "ollama",
		"--debug",
	})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if cfg.Port != "9090" {
		t.Errorf("Expected port '9090', got '%s'", cfg.Port)
	}
	if cfg.MedialAccessToken != "token-from-env" {
		t.Errorf("Expected access token from environment, got '%s'", cfg.MedialAccessToken)
	}
	if !cfg.SecretEnabled() {
		t.Error("Expected secret header to be enabled")
	}
	if cfg.AIProvider != "ollama" {
		t.Errorf("Expected AI provider 'ollama', got '%s'", cfg.AIProvider)
	}
	if !cfg.Debug {
		t.Error("Expected debug to be enabled")
	}
}

func TestLoadRejectsHalfConfiguredSecret(t *testing.T) {
	t.Setenv("TZ", "UTC")

	if _, err := load([]string{"--api-secret", "only-secret"}); err == nil {
		t.Error("Expected error when the encryption key is missing")
	}
}

func TestLoadRejectsUnknownProvider(t *testing.T) {
	t.Setenv("TZ", "UTC")

	if _, err := load([]string{"--ai-provider", "unknown"}); err == nil {
		t.Error("Expected error for an unsupported AI provider")
	}
}

func TestLoadRejectsNegativeValues(t *testing.T) {
	t.Setenv("TZ", "UTC")

	if _, err := load([]string{"--ai-cache-ttl=-1"}); err == nil {
		t.Error("Expected error for a negative cache TTL")
	}
}
