// Package client talks to the IntelliNews HTTP API. Every request carries a
// freshly stamped X-API-Secret header when a codec is configured.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/lysyi3m/intellinews/app/explorer"
	"github.com/lysyi3m/intellinews/app/genai"
	"github.com/lysyi3m/intellinews/app/news"
	"github.com/lysyi3m/intellinews/app/secret"
)

const (
	MessageForbidden = "Forbidden: Invalid API Secret"
	MessageTimeout   = "Request timed out. Please try again."
	MessageFailed    = "Failed to fetch data"
)

var (
	_ explorer.Backend   = (*Client)(nil)
	_ explorer.Generator = (*Client)(nil)
)

type Options struct {
	BaseURL    string
	HTTPClient *http.Client
	Codec      *secret.Codec
	UserAgent  string
	Now        func() time.Time
}

type Client struct {
	baseURL    string
	httpClient *http.Client
	codec      *secret.Codec
	userAgent  string
	now        func() time.Time
}

// StatusError is returned for every non-2xx response.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	return e.Message
}

type FeedInfo struct {
	Name     string `json:"name"`
	Title    string `json:"title"`
	URL      string `json:"url"`
	Enabled  bool   `json:"enabled"`
	MaxItems int    `json:"max_items"`
}

type Document struct {
	URL   string `json:"url"`
	Title string `json:"title"`
	Text  string `json:"text"`
}

type errorBody struct {
	Error    string `json:"error"`
	Flow     string `json:"flow"`
	Attempts int    `json:"attempts"`
}

func New(opts Options) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 90 * time.Second}
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Client{
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		httpClient: httpClient,
		codec:      opts.Codec,
		userAgent:  opts.UserAgent,
		now:        now,
	}
}

func (c *Client) TopStories(ctx context.Context, lang news.Language, cursor string) (news.FeedPage, error) {
	query := url.Values{"lang": {lang.String()}}
	if cursor != "" {
		query.Set("cursor", cursor)
	}
	return c.page(ctx, "/api/news/top-stories", query)
}

func (c *Client) TopicSearch(ctx context.Context, lang news.Language, tag string, page int) (news.FeedPage, error) {
	query := url.Values{
		"lang": {lang.String()},
		"page": {strconv.Itoa(page)},
	}
	return c.page(ctx, "/api/news/topic-search/"+url.PathEscape(tag), query)
}

func (c *Client) TrendingTopics(ctx context.Context, lang news.Language) ([]news.TrendingTopic, error) {
	var out struct {
		Topics []news.TrendingTopic `json:"topics"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/news/trending-topics", url.Values{"lang": {lang.String()}}, nil, &out, ""); err != nil {
		return nil, err
	}
	return out.Topics, nil
}

func (c *Client) Articles(ctx context.Context, cursor string) (news.FeedPage, error) {
	return c.page(ctx, "/api/articles", cursorQuery(cursor))
}

func (c *Client) Startup(ctx context.Context, cursor string) (news.FeedPage, error) {
	return c.page(ctx, "/api/startup", cursorQuery(cursor))
}

func (c *Client) Feed(ctx context.Context, name string, page int) (news.FeedPage, error) {
	return c.page(ctx, "/api/feeds/"+url.PathEscape(name), url.Values{"page": {strconv.Itoa(page)}})
}

func (c *Client) Feeds(ctx context.Context) ([]FeedInfo, error) {
	var out struct {
		Feeds []FeedInfo `json:"feeds"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/feeds", nil, nil, &out, ""); err != nil {
		return nil, err
	}
	return out.Feeds, nil
}

// Reader returns the readable text of the page at rawURL, for speech output.
func (c *Client) Reader(ctx context.Context, rawURL string) (*Document, error) {
	var doc Document
	if err := c.do(ctx, http.MethodGet, "/api/reader", url.Values{"url": {rawURL}}, nil, &doc, ""); err != nil {
		return nil, err
	}
	return &doc, nil
}

func (c *Client) GenerateTopicNews(ctx context.Context, in genai.TopicNewsInput) ([]news.Article, error) {
	body := map[string]any{
		"topic":            in.Topic,
		"numberOfArticles": in.Count,
		"language":         in.Language.String(),
	}
	var out struct {
		Articles []news.Article `json:"articles"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/ai/topic-news", nil, body, &out, genai.FlowTopicNews); err != nil {
		return nil, err
	}
	return out.Articles, nil
}

func (c *Client) GenerateSuggestedNews(ctx context.Context, in genai.SuggestedNewsInput) ([]news.Article, error) {
	body := map[string]any{
		"readingHistory":   in.ReadingHistory,
		"numberOfArticles": in.Count,
		"language":         in.Language.String(),
	}
	var out struct {
		Articles []news.Article `json:"articles"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/ai/suggested-news", nil, body, &out, genai.FlowSuggestedNews); err != nil {
		return nil, err
	}
	return out.Articles, nil
}

func (c *Client) SuggestTopics(ctx context.Context, in genai.TopicsInput) ([]string, error) {
	body := map[string]any{
		"readingHistory": in.ReadingHistory,
		"numberOfTopics": in.Count,
		"language":       in.Language.String(),
	}
	var out struct {
		Topics []string `json:"topics"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/ai/suggested-topics", nil, body, &out, genai.FlowSuggestedTopics); err != nil {
		return nil, err
	}
	return out.Topics, nil
}

func (c *Client) page(ctx context.Context, path string, query url.Values) (news.FeedPage, error) {
	var page news.FeedPage
	if err := c.do(ctx, http.MethodGet, path, query, nil, &page, ""); err != nil {
		return news.FeedPage{}, err
	}
	return page, nil
}

// do sends one request. flow is set for generation routes, whose 503
// responses become *genai.GenerationError.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body any, out any, flow string) error {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	if c.codec != nil {
		header, err := c.codec.Encode(c.now())
		if err != nil {
			return fmt.Errorf("failed to encode api secret: %w", err)
		}
		req.Header.Set(secret.HeaderName, header)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request to %s failed: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.statusError(resp, path, flow)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", path, err)
	}
	return nil
}

func (c *Client) statusError(resp *http.Response, path, flow string) error {
	var body errorBody
	_ = json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&body)

	statusErr := &StatusError{StatusCode: resp.StatusCode}
	switch resp.StatusCode {
	case http.StatusForbidden:
		statusErr.Message = MessageForbidden
	case http.StatusRequestTimeout:
		statusErr.Message = MessageTimeout
	default:
		statusErr.Message = MessageFailed
		if body.Error != "" {
			statusErr.Message = body.Error
		}
	}
	slog.Debug("API request failed", "path", path, "status", resp.StatusCode, "error", statusErr.Message)

	if flow != "" && resp.StatusCode == http.StatusServiceUnavailable {
		if body.Flow != "" {
			flow = body.Flow
		}
		return &genai.GenerationError{Flow: flow, Attempts: body.Attempts, Err: statusErr}
	}
	return statusErr
}

func cursorQuery(cursor string) url.Values {
	if cursor == "" {
		return nil
	}
	return url.Values{"cursor": {cursor}}
}

// IsStatus reports whether err is a StatusError with the given code.
func IsStatus(err error, code int) bool {
	var statusErr *StatusError
	return errors.As(err, &statusErr) && statusErr.StatusCode == code
}
