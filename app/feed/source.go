package feed

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/lysyi3m/intellinews/app/news"
)

const PageSize = 10

// Source serves the configured RSS feeds as paginated news pages. Feeds are
// fetched on demand; nothing is stored between requests.
type Source struct {
	configCache *ConfigCache
	httpClient  *http.Client
	parser      *Parser
	filterer    *Filterer
	userAgent   string
}

func NewSource(configCache *ConfigCache, httpClient *http.Client, parser *Parser, filterer *Filterer, userAgent string) *Source {
	return &Source{
		configCache: configCache,
		httpClient:  httpClient,
		parser:      parser,
		filterer:    filterer,
		userAgent:   userAgent,
	}
}

func (s *Source) Feeds() []*Config {
	return s.configCache.GetConfigs()
}

// Reload re-reads a feed configuration from disk.
func (s *Source) Reload(name string) (*Config, error) {
	return s.configCache.LoadConfig(name)
}

// Page returns a 1-based page of the named feed after filtering.
func (s *Source) Page(ctx context.Context, name string, page int) (news.FeedPage, error) {
	if page < 1 {
		return news.FeedPage{}, fmt.Errorf("%w, got %d", ErrInvalidPage, page)
	}

	feedConfig, err := s.configCache.GetConfig(name)
	if err != nil {
		return news.FeedPage{}, err
	}
	if !feedConfig.Settings.Enabled {
		return news.FeedPage{}, fmt.Errorf("%w: %s", ErrFeedDisabled, name)
	}

	items, err := s.fetchItems(ctx, feedConfig)
	if err != nil {
		return news.FeedPage{}, err
	}

	start := (page - 1) * PageSize
	end := min(start+PageSize, len(items))
	result := news.FeedPage{Items: []news.FeedItem{}, Status: news.StatusSuccess}
	if start < len(items) {
		for _, item := range items[start:end] {
			result.Items = append(result.Items, news.NewsItem(toArticle(item)))
		}
	}
	if end < len(items) {
		result.HasMore = true
		result.NextCursor = strconv.Itoa(page + 1)
	}

	slog.Debug("Feed page served", "feed", name, "page", page, "items", len(result.Items), "total", len(items))
	return result, nil
}

func (s *Source) fetchItems(ctx context.Context, feedConfig *Config) ([]Item, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, time.Duration(feedConfig.Settings.Timeout)*time.Second)
	defer cancel()

	body, err := fetch(timeoutCtx, s.httpClient, feedConfig.URL, s.userAgent, "application/rss+xml, application/atom+xml, application/xml;q=0.9, */*;q=0.8")
	if err != nil {
		slog.Error("Feed fetch failed", "feed", feedConfig.Name, "error", err)
		return nil, err
	}
	defer body.Close()

	items, err := s.parser.Run(body)
	if err != nil {
		slog.Error("Feed parse failed", "feed", feedConfig.Name, "error", err)
		return nil, &FetchError{URL: feedConfig.URL, Err: err}
	}

	items = s.filterer.Run(items, feedConfig)
	if len(items) > feedConfig.Settings.MaxItems {
		items = items[:feedConfig.Settings.MaxItems]
	}
	return items, nil
}

// fetch issues a GET and returns the body of a 200 response. The caller closes it.
func fetch(ctx context.Context, client *http.Client, url, userAgent, accept string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &FetchError{URL: url, Err: fmt.Errorf("failed to create request: %w", err)}
	}

	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", accept)

	resp, err := client.Do(req)
	if err != nil {
		return nil, &FetchError{URL: url, Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, &FetchError{URL: url, StatusCode: resp.StatusCode, Err: fmt.Errorf("HTTP error: %s", resp.Status)}
	}

	return resp.Body, nil
}

func toArticle(item Item) news.Article {
	article := news.Article{
		ID:          item.ID,
		Title:       item.Title,
		Summary:     item.Summary,
		ImageURL:    item.ImageURL,
		SourceURL:   item.Link,
		Author:      strings.Join(item.Authors, ", "),
		PublishedAt: item.PublishedAt,
	}
	if len(item.Categories) > 0 {
		article.Category = item.Categories[0]
	}
	return article
}
