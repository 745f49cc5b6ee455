package genai

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/lysyi3m/intellinews/app/metrics"
	"github.com/lysyi3m/intellinews/app/news"
)

const (
	FlowTopicNews       = "topic_news"
	FlowSuggestedNews   = "suggested_news"
	FlowSuggestedTopics = "suggested_topics"

	DefaultTopicNewsCount     = 5
	DefaultSuggestedNewsCount = 2
	DefaultTopicCount         = 3
	MaxCount                  = 20

	PlaceholderImageURL = "https://placehold.co/600x400.png"
)

type TopicNewsInput struct {
	Topic    string
	Count    int
	Language news.Language
}

type SuggestedNewsInput struct {
	ReadingHistory string
	Count          int
	Language       news.Language
}

type TopicsInput struct {
	ReadingHistory string
	Count          int
	Language       news.Language
}

type generatedArticle struct {
	Title      string `json:"title" validate:"required"`
	Content    string `json:"content" validate:"required"`
	AuthorName string `json:"author_name" validate:"required"`
	SourceURL  string `json:"source_url" validate:"required,url"`
}

type suggestedArticle struct {
	generatedArticle
	Category string `json:"category" validate:"required"`
}

type topicNewsOutput struct {
	GeneratedNews []generatedArticle `json:"generatedNews" validate:"required,min=1,dive"`
}

type suggestedNewsOutput struct {
	SuggestedNews []suggestedArticle `json:"suggestedNews" validate:"required,min=1,dive"`
}

type suggestedTopicsOutput struct {
	SuggestedTopics []string `json:"suggestedTopics" validate:"required,min=1"`
}

type Options struct {
	// Backoff defaults to DefaultBackoff when Attempts is zero.
	Backoff Backoff
	// Cache holds topic suggestions. Nil disables caching.
	Cache Cache
	Now   func() time.Time
}

type Generator struct {
	provider Provider
	validate *validator.Validate
	backoff  Backoff
	cache    Cache
	group    singleflight.Group
	now      func() time.Time
}

func NewGenerator(provider Provider, opts Options) *Generator {
	g := &Generator{
		provider: provider,
		validate: validator.New(),
		backoff:  opts.Backoff,
		cache:    opts.Cache,
		now:      opts.Now,
	}
	if g.backoff.Attempts == 0 {
		g.backoff = DefaultBackoff
	}
	if g.now == nil {
		g.now = time.Now
	}
	return g
}

// GenerateTopicNews writes fictional articles about a topic.
func (g *Generator) GenerateTopicNews(ctx context.Context, in TopicNewsInput) ([]news.Article, error) {
	topic := strings.TrimSpace(in.Topic)
	if topic == "" {
		return nil, fmt.Errorf("%w: topic is required", ErrInvalidInput)
	}
	count := clampCount(in.Count, DefaultTopicNewsCount)

	prompt, err := render(topicNewsPrompt, g.promptData(count, in.Language, topic, ""))
	if err != nil {
		return nil, fmt.Errorf("failed to render prompt: %w", err)
	}

	out, err := run[topicNewsOutput](ctx, g, FlowTopicNews, prompt)
	if err != nil {
		return nil, err
	}

	articles := make([]news.Article, 0, count)
	for _, item := range out.GeneratedNews {
		if len(articles) == count {
			break
		}
		articles = append(articles, g.article(item, ""))
	}
	return articles, nil
}

// GenerateSuggestedNews writes fictional articles inspired by a
// comma-joined reading history.
func (g *Generator) GenerateSuggestedNews(ctx context.Context, in SuggestedNewsInput) ([]news.Article, error) {
	history := strings.TrimSpace(in.ReadingHistory)
	if history == "" {
		return nil, fmt.Errorf("%w: reading history is required", ErrInvalidInput)
	}
	count := clampCount(in.Count, DefaultSuggestedNewsCount)

	prompt, err := render(suggestedNewsPrompt, g.promptData(count, in.Language, "", history))
	if err != nil {
		return nil, fmt.Errorf("failed to render prompt: %w", err)
	}

	out, err := run[suggestedNewsOutput](ctx, g, FlowSuggestedNews, prompt)
	if err != nil {
		return nil, err
	}

	articles := make([]news.Article, 0, count)
	for _, item := range out.SuggestedNews {
		if len(articles) == count {
			break
		}
		articles = append(articles, g.article(item.generatedArticle, item.Category))
	}
	return articles, nil
}

// SuggestTopics returns at most Count short topic strings. Results are cached
// per language and history, and identical concurrent calls share one
// provider round trip.
func (g *Generator) SuggestTopics(ctx context.Context, in TopicsInput) ([]string, error) {
	history := strings.TrimSpace(in.ReadingHistory)
	if history == "" {
		return nil, fmt.Errorf("%w: reading history is required", ErrInvalidInput)
	}
	count := clampCount(in.Count, DefaultTopicCount)
	key := cacheKey(FlowSuggestedTopics, in.Language.String(), strconv.Itoa(count), history)

	if topics, ok := g.cachedTopics(ctx, key); ok {
		metrics.RecordGeneration(FlowSuggestedTopics, "cache_hit", 0)
		return topics, nil
	}

	// The shared call outlives any single caller; each caller still stops
	// waiting when its own ctx ends.
	shared := context.WithoutCancel(ctx)
	ch := g.group.DoChan(key, func() (any, error) {
		prompt, err := render(suggestedTopicsPrompt, g.promptData(count, in.Language, "", history))
		if err != nil {
			return nil, fmt.Errorf("failed to render prompt: %w", err)
		}

		out, err := run[suggestedTopicsOutput](shared, g, FlowSuggestedTopics, prompt)
		if err != nil {
			return nil, err
		}

		topics := make([]string, 0, count)
		for _, topic := range out.SuggestedTopics {
			topic = strings.TrimSpace(topic)
			if topic == "" {
				continue
			}
			if len(topics) == count {
				break
			}
			topics = append(topics, topic)
		}

		g.storeTopics(shared, key, topics)
		return topics, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]string), nil
	}
}

func (g *Generator) cachedTopics(ctx context.Context, key string) ([]string, bool) {
	if g.cache == nil {
		return nil, false
	}
	data, ok, err := g.cache.Get(ctx, key)
	if err != nil {
		slog.Warn("Generation cache read failed", "flow", FlowSuggestedTopics, "error", err)
		return nil, false
	}
	if !ok {
		return nil, false
	}
	var topics []string
	if err := json.Unmarshal(data, &topics); err != nil {
		slog.Warn("Discarding corrupt cache entry", "flow", FlowSuggestedTopics, "error", err)
		return nil, false
	}
	return topics, true
}

func (g *Generator) storeTopics(ctx context.Context, key string, topics []string) {
	if g.cache == nil {
		return
	}
	data, err := json.Marshal(topics)
	if err != nil {
		return
	}
	if err := g.cache.Set(ctx, key, data); err != nil {
		slog.Warn("Generation cache write failed", "flow", FlowSuggestedTopics, "error", err)
	}
}

func (g *Generator) promptData(count int, lang news.Language, topic, history string) promptData {
	if lang == "" {
		lang = news.English
	}
	return promptData{
		Count:       count,
		Topic:       topic,
		History:     history,
		Language:    lang.DisplayName(),
		CurrentDate: g.now().Format(time.DateOnly),
	}
}

func (g *Generator) article(item generatedArticle, category string) news.Article {
	return news.Article{
		ID:          uuid.NewString(),
		Title:       item.Title,
		Summary:     item.Content,
		ImageURL:    PlaceholderImageURL,
		SourceURL:   item.SourceURL,
		Author:      item.AuthorName,
		PublishedAt: g.now(),
		Category:    category,
	}
}

// run asks the provider for a JSON document of type T, retrying on provider
// errors and on output that does not decode or validate.
func run[T any](ctx context.Context, g *Generator, flow, prompt string) (*T, error) {
	req := Request{System: systemPrompt, Prompt: prompt, JSON: true}

	out, attempts, err := Retry(ctx, g.backoff, func(ctx context.Context, attempt int) (*T, error) {
		raw, err := g.provider.Complete(ctx, req)
		if err != nil {
			slog.Debug("Provider call failed", "flow", flow, "attempt", attempt, "error", err)
			return nil, err
		}

		var out T
		if err := json.Unmarshal([]byte(stripFences(raw)), &out); err != nil {
			slog.Debug("Provider returned malformed output", "flow", flow, "attempt", attempt, "error", err)
			return nil, fmt.Errorf("malformed output: %w", err)
		}
		if err := g.validate.Struct(out); err != nil {
			slog.Debug("Provider output failed validation", "flow", flow, "attempt", attempt, "error", err)
			return nil, fmt.Errorf("invalid output: %w", err)
		}
		return &out, nil
	})
	if err != nil {
		metrics.RecordGeneration(flow, "failure", attempts)
		slog.Warn("Generation flow failed", "flow", flow, "attempts", attempts, "error", err)
		return nil, &GenerationError{Flow: flow, Attempts: attempts, Err: err}
	}

	metrics.RecordGeneration(flow, "success", attempts)
	return out, nil
}

// stripFences removes a surrounding markdown code fence some models add.
func stripFences(raw string) string {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

func clampCount(count, fallback int) int {
	if count <= 0 {
		return fallback
	}
	return min(count, MaxCount)
}
