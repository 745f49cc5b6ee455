package api

import (
	"context"
	"time"

	"github.com/lysyi3m/intellinews/app/feed"
	"github.com/lysyi3m/intellinews/app/genai"
	"github.com/lysyi3m/intellinews/app/news"
	"github.com/lysyi3m/intellinews/app/secret"
	"github.com/lysyi3m/intellinews/app/tasks"
	"github.com/lysyi3m/intellinews/app/upstream"
)

type NewsProxyInterface interface {
	TopStories(ctx context.Context, lang news.Language, cursor string) (news.FeedPage, error)
	TopicSearch(ctx context.Context, lang news.Language, tag string, page int) (news.FeedPage, error)
	TrendingTopics(ctx context.Context, lang news.Language) ([]news.TrendingTopic, error)
	Articles(ctx context.Context, cursor string) (news.FeedPage, error)
	Startup(ctx context.Context, cursor string) (news.FeedPage, error)
}

var _ NewsProxyInterface = (*upstream.Proxy)(nil)

type GeneratorInterface interface {
	GenerateTopicNews(ctx context.Context, in genai.TopicNewsInput) ([]news.Article, error)
	GenerateSuggestedNews(ctx context.Context, in genai.SuggestedNewsInput) ([]news.Article, error)
	SuggestTopics(ctx context.Context, in genai.TopicsInput) ([]string, error)
}

var _ GeneratorInterface = (*genai.Generator)(nil)

type FeedSourceInterface interface {
	Feeds() []*feed.Config
	Page(ctx context.Context, name string, page int) (news.FeedPage, error)
	Reload(name string) (*feed.Config, error)
}

var _ FeedSourceInterface = (*feed.Source)(nil)

type ReaderInterface interface {
	Run(ctx context.Context, rawURL string) (*feed.Document, error)
}

var _ ReaderInterface = (*feed.Reader)(nil)

type VerifierInterface interface {
	Verify(header string, now time.Time) error
}

var _ VerifierInterface = (*secret.Codec)(nil)

type Handler struct {
	proxy     NewsProxyInterface
	generator GeneratorInterface
	feeds     FeedSourceInterface
	reader    ReaderInterface
	scheduler tasks.TaskSchedulerInterface
	siteName  string
}

type topicNewsRequest struct {
	Topic            string `json:"topic" binding:"required"`
	NumberOfArticles int    `json:"numberOfArticles" binding:"omitempty,min=1,max=20"`
	Language         string `json:"language"`
}

type suggestedNewsRequest struct {
	ReadingHistory   string `json:"readingHistory" binding:"required"`
	NumberOfArticles int    `json:"numberOfArticles" binding:"omitempty,min=1,max=20"`
	Language         string `json:"language"`
}

type suggestedTopicsRequest struct {
	ReadingHistory string `json:"readingHistory" binding:"required"`
	NumberOfTopics int    `json:"numberOfTopics" binding:"omitempty,min=1,max=20"`
	Language       string `json:"language"`
}

type feedResponse struct {
	Name     string `json:"name"`
	Title    string `json:"title"`
	URL      string `json:"url"`
	Enabled  bool   `json:"enabled"`
	MaxItems int    `json:"max_items"`
	Timeout  string `json:"timeout"`
	Filters  int    `json:"filters"`
}
