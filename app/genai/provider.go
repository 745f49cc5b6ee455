// Package genai produces fictional news content through an external
// generative text provider.
package genai

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/sync/semaphore"
)

const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderOllama    = "ollama"

	providerTimeout = 60 * time.Second
)

// Request is a single prompt. When JSON is set the provider is asked to
// answer with a JSON document only.
type Request struct {
	System string
	Prompt string
	JSON   bool
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type Provider interface {
	Complete(ctx context.Context, req Request) (string, error)
}

type ProviderOptions struct {
	Name          string
	Model         string
	APIKey        string
	BaseURL       string
	MaxConcurrent int
	HTTPClient    *http.Client
}

// NewProvider builds the configured provider. Calls are bounded to
// MaxConcurrent in flight when it is positive.
func NewProvider(opts ProviderOptions) (Provider, error) {
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: providerTimeout}
	}

	var provider Provider
	switch opts.Name {
	case ProviderOpenAI, "":
		provider = newOpenAIProvider(opts)
	case ProviderAnthropic:
		if opts.APIKey == "" {
			return nil, fmt.Errorf("anthropic provider requires an api key")
		}
		provider = newAnthropicProvider(opts)
	case ProviderOllama:
		provider = newOllamaProvider(opts)
	default:
		return nil, fmt.Errorf("unknown provider %q", opts.Name)
	}

	if opts.MaxConcurrent > 0 {
		provider = Limit(provider, int64(opts.MaxConcurrent))
	}
	return provider, nil
}

type limitedProvider struct {
	next Provider
	sem  *semaphore.Weighted
}

// Limit bounds the number of concurrent calls to p. Callers beyond the limit
// wait until a slot frees up or their context ends.
func Limit(p Provider, n int64) Provider {
	return &limitedProvider{next: p, sem: semaphore.NewWeighted(n)}
}

func (l *limitedProvider) Complete(ctx context.Context, req Request) (string, error) {
	if err := l.sem.Acquire(ctx, 1); err != nil {
		return "", fmt.Errorf("provider queue full: %w", err)
	}
	defer l.sem.Release(1)

	return l.next.Complete(ctx, req)
}
