// Package upstream forwards logical news routes to the third-party providers
// and reshapes their responses into news.FeedPage values.
package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/lysyi3m/intellinews/app/metrics"
	"github.com/lysyi3m/intellinews/app/news"
)

const (
	topStoriesLimit = "10"
	medialOrigin    = "https://medial.app"
)

type Options struct {
	HTTPClient        *http.Client
	InshortsURL       string
	MedialArticlesURL string
	MedialStartupURL  string
	MedialAccessToken string
	UserAgent         string
}

type Proxy struct {
	httpClient        *http.Client
	inshortsURL       string
	medialArticlesURL string
	medialStartupURL  string
	medialToken       string
	userAgent         string
}

func NewProxy(opts Options) *Proxy {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Proxy{
		httpClient:        httpClient,
		inshortsURL:       strings.TrimRight(opts.InshortsURL, "/"),
		medialArticlesURL: opts.MedialArticlesURL,
		medialStartupURL:  opts.MedialStartupURL,
		medialToken:       opts.MedialAccessToken,
		userAgent:         opts.UserAgent,
	}
}

// TopStories returns one page of the top stories feed. The cursor is the
// min_news_id issued with the previous page.
func (p *Proxy) TopStories(ctx context.Context, lang news.Language, cursor string) (news.FeedPage, error) {
	query := url.Values{}
	query.Set("category", "top_stories")
	query.Set("max_limit", topStoriesLimit)
	query.Set("include_card_data", "true")
	if cursor != "" {
		query.Set("news_offset", cursor)
	}
	target := fmt.Sprintf("%s/%s/news?%s", p.inshortsURL, lang, query.Encode())

	var envelope inshortsEnvelope[inshortsNewsList]
	if err := p.get(ctx, RouteTopStories, target, nil, &envelope); err != nil {
		return news.FeedPage{}, err
	}

	return news.FeedPage{
		Items:      inshortsItems(envelope.Data.NewsList),
		NextCursor: envelope.Data.MinNewsID,
		HasMore:    envelope.Data.MinNewsID != "",
		Status:     news.StatusSuccess,
	}, nil
}

// TopicSearch returns a 1-based page of news for a trending tag. The feed has
// more pages for as long as pages come back non-empty.
func (p *Proxy) TopicSearch(ctx context.Context, lang news.Language, tag string, page int) (news.FeedPage, error) {
	if page < 1 {
		return news.FeedPage{}, ErrInvalidPage
	}
	query := url.Values{}
	query.Set("page", strconv.Itoa(page))
	query.Set("type", "NEWS_CATEGORY")
	target := fmt.Sprintf("%s/%s/search/trending_topics/%s?%s", p.inshortsURL, lang, url.PathEscape(tag), query.Encode())

	var envelope inshortsEnvelope[inshortsNewsList]
	if err := p.get(ctx, RouteTopicSearch, target, nil, &envelope); err != nil {
		return news.FeedPage{}, err
	}

	result := news.FeedPage{
		Items:   inshortsItems(envelope.Data.NewsList),
		HasMore: len(envelope.Data.NewsList) > 0,
		Status:  news.StatusSuccess,
	}
	if result.HasMore {
		result.NextCursor = strconv.Itoa(page + 1)
	}
	return result, nil
}

func (p *Proxy) TrendingTopics(ctx context.Context, lang news.Language) ([]news.TrendingTopic, error) {
	target := fmt.Sprintf("%s/%s/search/trending_topics", p.inshortsURL, lang)

	var envelope inshortsEnvelope[inshortsTrending]
	if err := p.get(ctx, RouteTrendingTopics, target, nil, &envelope); err != nil {
		return nil, err
	}

	topics := make([]news.TrendingTopic, 0, len(envelope.Data.TrendingTags))
	for _, topic := range envelope.Data.TrendingTags {
		if topic.Tag == "" {
			continue
		}
		topics = append(topics, topic)
	}
	return topics, nil
}

// Articles returns one page of the articles feed. The cursor is the raw
// nextSegment query string issued with the previous page.
func (p *Proxy) Articles(ctx context.Context, cursor string) (news.FeedPage, error) {
	envelope, err := p.medial(ctx, RouteArticles, p.medialArticlesURL, cursor)
	if err != nil {
		return news.FeedPage{}, err
	}

	items := make([]news.FeedItem, 0, len(envelope.Data))
	for _, item := range envelope.Data {
		var article medialArticle
		if err := json.Unmarshal(item.Data, &article); err != nil {
			slog.Warn("Skipping undecodable article", "id", item.ID, "error", err)
			continue
		}
		items = append(items, news.NewsItem(article.toArticle(item.ID)))
	}

	return news.FeedPage{
		Items:      items,
		NextCursor: envelope.NextSegment,
		HasMore:    envelope.NextSegment != "",
		Status:     news.StatusSuccess,
	}, nil
}

// Startup returns one page of the startup feed, a mix of NEWS and QUIZ items.
// Items of any other type are skipped.
func (p *Proxy) Startup(ctx context.Context, cursor string) (news.FeedPage, error) {
	envelope, err := p.medial(ctx, RouteStartup, p.medialStartupURL, cursor)
	if err != nil {
		return news.FeedPage{}, err
	}

	items := make([]news.FeedItem, 0, len(envelope.Data))
	for _, item := range envelope.Data {
		switch news.ItemKind(item.Type) {
		case news.KindNews:
			var data startupNews
			if err := json.Unmarshal(item.Data, &data); err != nil {
				slog.Warn("Skipping undecodable startup item", "id", item.ID, "type", item.Type, "error", err)
				continue
			}
			items = append(items, news.NewsItem(data.toArticle(item.ID)))
		case news.KindQuiz:
			var data startupQuiz
			if err := json.Unmarshal(item.Data, &data); err != nil {
				slog.Warn("Skipping undecodable startup item", "id", item.ID, "type", item.Type, "error", err)
				continue
			}
			items = append(items, news.QuizFeedItem(data.toQuiz(item.ID)))
		default:
			slog.Debug("Skipping unsupported startup item", "id", item.ID, "type", item.Type)
		}
	}

	return news.FeedPage{
		Items:      items,
		NextCursor: envelope.NextSegment,
		HasMore:    envelope.NextSegment != "" && len(envelope.Data) > 0,
		Status:     news.StatusSuccess,
	}, nil
}

func (p *Proxy) medial(ctx context.Context, route Route, base, cursor string) (*medialEnvelope, error) {
	if p.medialToken == "" {
		return nil, &ConfigurationError{Setting: "MEDIAL_API_ACCESS_TOKEN"}
	}

	target := base
	if cursor != "" {
		if _, err := url.ParseQuery(cursor); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidCursor, err)
		}
		target += "?" + cursor
	}

	headers := map[string]string{
		"access-token": p.medialToken,
		"Accept":       "*/*",
		"Origin":       medialOrigin,
		"Referer":      medialOrigin + "/",
	}

	var envelope medialEnvelope
	if err := p.get(ctx, route, target, headers, &envelope); err != nil {
		return nil, err
	}
	return &envelope, nil
}

func (p *Proxy) get(ctx context.Context, route Route, target string, headers map[string]string, out any) error {
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return &UpstreamError{Route: route, Err: fmt.Errorf("failed to create request: %w", err)}
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("Cache-Control", "no-cache")
	req.Header.Set("Pragma", "no-cache")
	if p.userAgent != "" {
		req.Header.Set("User-Agent", p.userAgent)
	}
	for name, value := range headers {
		req.Header.Set(name, value)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		metrics.RecordUpstream(string(route), 0, time.Since(start))
		slog.Error("Upstream request failed", "route", route, "error", err)
		return &UpstreamError{Route: route, Err: err}
	}
	defer resp.Body.Close()

	metrics.RecordUpstream(string(route), resp.StatusCode, time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		slog.Error("Upstream responded with error status", "route", route, "status", resp.StatusCode)
		return &UpstreamError{Route: route, StatusCode: resp.StatusCode, Err: fmt.Errorf("HTTP error: %s", resp.Status)}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		slog.Error("Failed to decode upstream response", "route", route, "error", err)
		return &UpstreamError{Route: route, Err: fmt.Errorf("failed to decode response: %w", err)}
	}

	slog.Debug("Upstream request completed", "route", route, "duration", time.Since(start))
	return nil
}

func inshortsItems(list []inshortsNews) []news.FeedItem {
	items := make([]news.FeedItem, 0, len(list))
	for _, n := range list {
		items = append(items, news.NewsItem(n.toArticle()))
	}
	return items
}
