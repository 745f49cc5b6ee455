package explorer

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/lysyi3m/intellinews/app/genai"
	"github.com/lysyi3m/intellinews/app/news"
	"github.com/lysyi3m/intellinews/app/tasks"
)

// inlineExecutor runs every task synchronously on the caller's goroutine.
type inlineExecutor struct{}

func (inlineExecutor) EnqueueTask(task tasks.TaskInterface) error {
	task.Start()
	_ = task.Execute(context.Background())
	return nil
}

// queuedExecutor holds tasks until the test runs them.
type queuedExecutor struct {
	mu    sync.Mutex
	queue []tasks.TaskInterface
}

func (e *queuedExecutor) EnqueueTask(task tasks.TaskInterface) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.queue = append(e.queue, task)
	return nil
}

func (e *queuedExecutor) pending() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.queue)
}

func (e *queuedExecutor) run(index int) {
	e.mu.Lock()
	task := e.queue[index]
	e.queue = slices.Delete(e.queue, index, index+1)
	e.mu.Unlock()
	_ = task.Execute(context.Background())
}

type failingExecutor struct{}

func (failingExecutor) EnqueueTask(tasks.TaskInterface) error {
	return errors.New("task queue is full")
}

type notifications struct {
	mu    sync.Mutex
	items []Notification
}

func (n *notifications) Notify(notification Notification) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.items = append(n.items, notification)
}

func (n *notifications) all() []Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	return slices.Clone(n.items)
}

// scriptedPages serves pages keyed by cursor and records every request.
type scriptedPages struct {
	mu    sync.Mutex
	pages map[string]news.FeedPage
	errs  map[string]error
	calls []string
}

func (s *scriptedPages) loader(name string) Loader {
	return NewLoader(name, func(ctx context.Context, cursor string) (news.FeedPage, error) {
		s.mu.Lock()
		s.calls = append(s.calls, cursor)
		page, err := s.pages[cursor], s.errs[cursor]
		s.mu.Unlock()

		if ctxErr := ctx.Err(); ctxErr != nil {
			return news.FeedPage{}, ctxErr
		}
		return page, err
	})
}

func (s *scriptedPages) requested() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.calls)
}

func makeItems(prefix string, n int) []news.FeedItem {
	items := make([]news.FeedItem, 0, n)
	for i := range n {
		id := fmt.Sprintf("%s-%d", prefix, i)
		items = append(items, news.NewsItem(news.Article{ID: id, Title: "Title " + id}))
	}
	return items
}

func page(items []news.FeedItem, cursor string, hasMore bool) news.FeedPage {
	return news.FeedPage{Items: items, NextCursor: cursor, HasMore: hasMore, Status: news.StatusSuccess}
}

func itemIDs(items []news.FeedItem) []string {
	ids := make([]string, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ID)
	}
	return ids
}

type fakeBackend struct {
	mu         sync.Mutex
	trending   []news.TrendingTopic
	topStories map[string]news.FeedPage
	topics     map[string][]news.FeedPage
	articles   news.FeedPage
	startup    news.FeedPage
	langs      []news.Language
	topicCalls []string
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		trending: []news.TrendingTopic{
			{Tag: "tech", Label: "Technology"},
			{Tag: "ghost", Label: "Ghost Stories"},
		},
		topStories: map[string]news.FeedPage{
			"": page(makeItems("top", 3), "top-2", true),
		},
		topics: map[string][]news.FeedPage{
			"tech": {page(makeItems("tech", 2), "2", true)},
		},
		articles: page(makeItems("article", 2), "", false),
		startup:  page(makeItems("startup", 1), "", false),
	}
}

func (b *fakeBackend) TopStories(_ context.Context, lang news.Language, cursor string) (news.FeedPage, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.langs = append(b.langs, lang)
	return b.topStories[cursor], nil
}

func (b *fakeBackend) TopicSearch(_ context.Context, _ news.Language, tag string, pageNumber int) (news.FeedPage, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.topicCalls = append(b.topicCalls, fmt.Sprintf("%s:%d", tag, pageNumber))
	pages := b.topics[tag]
	if pageNumber-1 < len(pages) {
		return pages[pageNumber-1], nil
	}
	return page(nil, "", false), nil
}

func (b *fakeBackend) TrendingTopics(_ context.Context, _ news.Language) ([]news.TrendingTopic, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return slices.Clone(b.trending), nil
}

func (b *fakeBackend) Articles(context.Context, string) (news.FeedPage, error) {
	return b.articles, nil
}

func (b *fakeBackend) Startup(context.Context, string) (news.FeedPage, error) {
	return b.startup, nil
}

func (b *fakeBackend) Feed(_ context.Context, name string, _ int) (news.FeedPage, error) {
	return page(makeItems(name, 1), "", false), nil
}

func (b *fakeBackend) lastLanguage() news.Language {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.langs) == 0 {
		return ""
	}
	return b.langs[len(b.langs)-1]
}

type fakeGenerator struct {
	mu             sync.Mutex
	topicNews      []news.Article
	topicNewsErr   error
	suggested      []news.Article
	topics         []string
	topicInputs    []genai.TopicNewsInput
	suggestInputs  []genai.SuggestedNewsInput
	topicsRequests []genai.TopicsInput
}

func (g *fakeGenerator) GenerateTopicNews(_ context.Context, in genai.TopicNewsInput) ([]news.Article, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.topicInputs = append(g.topicInputs, in)
	return g.topicNews, g.topicNewsErr
}

func (g *fakeGenerator) GenerateSuggestedNews(_ context.Context, in genai.SuggestedNewsInput) ([]news.Article, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.suggestInputs = append(g.suggestInputs, in)
	return g.suggested, nil
}

func (g *fakeGenerator) SuggestTopics(_ context.Context, in genai.TopicsInput) ([]string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.topicsRequests = append(g.topicsRequests, in)
	return g.topics, nil
}

func articles(n int) []news.Article {
	out := make([]news.Article, 0, n)
	for i := range n {
		out = append(out, news.Article{ID: fmt.Sprintf("ai-%d", i), Title: fmt.Sprintf("Generated %d", i)})
	}
	return out
}
