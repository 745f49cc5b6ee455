package explorer

import (
	"context"
	"fmt"
	"strconv"

	"github.com/lysyi3m/intellinews/app/genai"
	"github.com/lysyi3m/intellinews/app/news"
)

// Backend is the set of feed routes a session reads from. The HTTP client in
// app/client implements it against the service.
type Backend interface {
	TopStories(ctx context.Context, lang news.Language, cursor string) (news.FeedPage, error)
	TopicSearch(ctx context.Context, lang news.Language, tag string, page int) (news.FeedPage, error)
	TrendingTopics(ctx context.Context, lang news.Language) ([]news.TrendingTopic, error)
	Articles(ctx context.Context, cursor string) (news.FeedPage, error)
	Startup(ctx context.Context, cursor string) (news.FeedPage, error)
	Feed(ctx context.Context, name string, page int) (news.FeedPage, error)
}

// Generator produces AI content; both *genai.Generator and the HTTP client
// satisfy it.
type Generator interface {
	GenerateTopicNews(ctx context.Context, in genai.TopicNewsInput) ([]news.Article, error)
	GenerateSuggestedNews(ctx context.Context, in genai.SuggestedNewsInput) ([]news.Article, error)
	SuggestTopics(ctx context.Context, in genai.TopicsInput) ([]string, error)
}

var _ Generator = (*genai.Generator)(nil)

type loaderFunc struct {
	name string
	load func(ctx context.Context, cursor string) (news.FeedPage, error)
}

func (l *loaderFunc) Name() string {
	return l.name
}

func (l *loaderFunc) Load(ctx context.Context, cursor string) (news.FeedPage, error) {
	return l.load(ctx, cursor)
}

// NewLoader adapts a plain function to the Loader interface.
func NewLoader(name string, load func(ctx context.Context, cursor string) (news.FeedPage, error)) Loader {
	return &loaderFunc{name: name, load: load}
}

func TopStoriesLoader(backend Backend, lang news.Language) Loader {
	return NewLoader("top-stories", func(ctx context.Context, cursor string) (news.FeedPage, error) {
		return backend.TopStories(ctx, lang, cursor)
	})
}

func ArticlesLoader(backend Backend) Loader {
	return NewLoader("articles", backend.Articles)
}

func StartupLoader(backend Backend) Loader {
	return NewLoader("startup", backend.Startup)
}

func CustomFeedLoader(backend Backend, name string) Loader {
	return NewLoader("feed:"+name, func(ctx context.Context, cursor string) (news.FeedPage, error) {
		page, err := pageCursor(cursor)
		if err != nil {
			return news.FeedPage{}, err
		}
		return backend.Feed(ctx, name, page)
	})
}

// TopicLoader pages through a trending topic. Its cursor is the page number.
type TopicLoader struct {
	backend Backend
	Lang    news.Language
	Tag     string
	Label   string
}

func NewTopicLoader(backend Backend, lang news.Language, tag, label string) *TopicLoader {
	if label == "" {
		label = tag
	}
	return &TopicLoader{backend: backend, Lang: lang, Tag: tag, Label: label}
}

func (l *TopicLoader) Name() string {
	return "topic:" + l.Tag
}

func (l *TopicLoader) Load(ctx context.Context, cursor string) (news.FeedPage, error) {
	page, err := pageCursor(cursor)
	if err != nil {
		return news.FeedPage{}, err
	}
	return l.backend.TopicSearch(ctx, l.Lang, l.Tag, page)
}

func pageCursor(cursor string) (int, error) {
	if cursor == "" {
		return 1, nil
	}
	page, err := strconv.Atoi(cursor)
	if err != nil || page < 1 {
		return 0, fmt.Errorf("invalid page cursor %q", cursor)
	}
	return page, nil
}
