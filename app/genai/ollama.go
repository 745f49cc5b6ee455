package genai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

const (
	ollamaBaseURL = "http://localhost:11434"
	ollamaModel   = "llama3.2"
)

type ollamaProvider struct {
	httpClient *http.Client
	baseURL    string
	model      string
}

func newOllamaProvider(opts ProviderOptions) *ollamaProvider {
	p := &ollamaProvider{
		httpClient: opts.HTTPClient,
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		model:      opts.Model,
	}
	if p.baseURL == "" {
		p.baseURL = ollamaBaseURL
	}
	if p.model == "" {
		p.model = ollamaModel
	}
	return p
}

type ollamaRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
	Format   string        `json:"format,omitempty"`
}

func (p *ollamaProvider) Complete(ctx context.Context, req Request) (string, error) {
	chat := ollamaRequest{Model: p.model}
	if req.System != "" {
		chat.Messages = append(chat.Messages, chatMessage{Role: "system", Content: req.System})
	}
	chat.Messages = append(chat.Messages, chatMessage{Role: "user", Content: req.Prompt})
	if req.JSON {
		chat.Format = "json"
	}

	body, err := json.Marshal(chat)
	if err != nil {
		return "", fmt.Errorf("failed to marshal ollama request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("failed to connect to ollama: %w", err)
	}
	defer resp.Body.Close()

	var result struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		Error string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("failed to decode ollama response (status %d): %w", resp.StatusCode, err)
	}
	if result.Error != "" {
		return "", fmt.Errorf("ollama error: %s", result.Error)
	}
	return result.Message.Content, nil
}
