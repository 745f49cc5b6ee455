package genai

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lysyi3m/intellinews/app/news"
)

type scriptedProvider struct {
	mu        sync.Mutex
	responses []string
	errs      []error
	requests  []Request
}

func (p *scriptedProvider) Complete(_ context.Context, req Request) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	i := len(p.requests)
	p.requests = append(p.requests, req)
	if i < len(p.errs) && p.errs[i] != nil {
		return "", p.errs[i]
	}
	if i < len(p.responses) {
		return p.responses[i], nil
	}
	return p.responses[len(p.responses)-1], nil
}

func (p *scriptedProvider) calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.requests)
}

var fixedNow = time.Date(2024, 3, 15, 9, 30, 0, 0, time.UTC)

func newTestGenerator(provider Provider, cache Cache) *Generator {
	return NewGenerator(provider, Options{
		Backoff: Backoff{Attempts: 3},
		Cache:   cache,
		Now:     func() time.Time { return fixedNow },
	})
}

const topicNewsJSON = `{"generatedNews":[
	{"title":"Robots win chess cup","content":"A fictional tale.","author_name":"Tech Desk","source_url":"https://example.com/a"},
	{"title":"Rain of confetti","content":"Another tale.","author_name":"City Desk","source_url":"https://example.com/b"}
]}`

func TestGenerateTopicNews(t *testing.T) {
	provider := &scriptedProvider{responses: []string{topicNewsJSON}}
	g := newTestGenerator(provider, nil)

	articles, err := g.GenerateTopicNews(context.Background(), TopicNewsInput{Topic: "robots", Language: news.Hindi})
	require.NoError(t, err)
	require.Len(t, articles, 2)

	assert.Equal(t, "Robots win chess cup", articles[0].Title)
	assert.Equal(t, "A fictional tale.", articles[0].Summary)
	assert.Equal(t, "Tech Desk", articles[0].Author)
	assert.Equal(t, PlaceholderImageURL, articles[0].ImageURL)
	assert.Equal(t, fixedNow, articles[0].PublishedAt)
	assert.NotEmpty(t, articles[0].ID)
	assert.NotEqual(t, articles[0].ID, articles[1].ID)

	require.Equal(t, 1, provider.calls())
	prompt := provider.requests[0].Prompt
	assert.Contains(t, prompt, "Generate 5 fictional")
	assert.Contains(t, prompt, "2024-03-15")
	assert.Contains(t, prompt, "Language: Hindi")
	assert.Contains(t, prompt, "Topic: robots")
	assert.True(t, provider.requests[0].JSON)
}

func TestGenerateTopicNewsTruncatesToCount(t *testing.T) {
	provider := &scriptedProvider{responses: []string{topicNewsJSON}}
	g := newTestGenerator(provider, nil)

	articles, err := g.GenerateTopicNews(context.Background(), TopicNewsInput{Topic: "robots", Count: 1})
	require.NoError(t, err)
	assert.Len(t, articles, 1)
}

func TestGenerateTopicNewsMalformedOutputExhaustsRetries(t *testing.T) {
	provider := &scriptedProvider{responses: []string{"this is not json"}}
	g := newTestGenerator(provider, nil)

	articles, err := g.GenerateTopicNews(context.Background(), TopicNewsInput{Topic: "robots"})
	assert.Nil(t, articles)

	var genErr *GenerationError
	require.True(t, errors.As(err, &genErr))
	assert.Equal(t, FlowTopicNews, genErr.Flow)
	assert.Equal(t, 3, genErr.Attempts)
	assert.Equal(t, 3, provider.calls())
}

func TestGenerateTopicNewsRecoversAfterRetry(t *testing.T) {
	provider := &scriptedProvider{
		responses: []string{"", `{"generatedNews":[]}`, "```json\n" + topicNewsJSON + "\n```"},
		errs:      []error{errors.New("provider unavailable")},
	}
	g := newTestGenerator(provider, nil)

	articles, err := g.GenerateTopicNews(context.Background(), TopicNewsInput{Topic: "robots"})
	require.NoError(t, err)
	assert.Len(t, articles, 2)
	assert.Equal(t, 3, provider.calls())
}

func TestGenerateTopicNewsRejectsInvalidURL(t *testing.T) {
	provider := &scriptedProvider{responses: []string{
		`{"generatedNews":[{"title":"T","content":"C","author_name":"A","source_url":"not a url"}]}`,
	}}
	g := newTestGenerator(provider, nil)

	_, err := g.GenerateTopicNews(context.Background(), TopicNewsInput{Topic: "robots"})

	var genErr *GenerationError
	assert.True(t, errors.As(err, &genErr))
}

func TestGenerateTopicNewsRequiresTopic(t *testing.T) {
	provider := &scriptedProvider{responses: []string{topicNewsJSON}}
	g := newTestGenerator(provider, nil)

	_, err := g.GenerateTopicNews(context.Background(), TopicNewsInput{Topic: "  "})
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Zero(t, provider.calls())
}

func TestGenerateSuggestedNews(t *testing.T) {
	provider := &scriptedProvider{responses: []string{`{"suggestedNews":[
		{"title":"Gadget launch","content":"C","author_name":"A","category":"Technology","source_url":"https://example.com/g"}
	]}`}}
	g := newTestGenerator(provider, nil)

	articles, err := g.GenerateSuggestedNews(context.Background(), SuggestedNewsInput{ReadingHistory: "Tech, Finance"})
	require.NoError(t, err)
	require.Len(t, articles, 1)
	assert.Equal(t, "Technology", articles[0].Category)
	assert.Contains(t, provider.requests[0].Prompt, "Reading history: Tech, Finance")
	assert.Contains(t, provider.requests[0].Prompt, "Generate 2 fictional")
}

func TestGenerateSuggestedNewsRequiresCategory(t *testing.T) {
	provider := &scriptedProvider{responses: []string{`{"suggestedNews":[
		{"title":"Gadget launch","content":"C","author_name":"A","source_url":"https://example.com/g"}
	]}`}}
	g := newTestGenerator(provider, nil)

	_, err := g.GenerateSuggestedNews(context.Background(), SuggestedNewsInput{ReadingHistory: "Tech"})

	var genErr *GenerationError
	require.True(t, errors.As(err, &genErr))
	assert.Equal(t, FlowSuggestedNews, genErr.Flow)
}

func TestSuggestTopics(t *testing.T) {
	provider := &scriptedProvider{responses: []string{`{"suggestedTopics":["AI"," Markets ","", "Space","Cricket"]}`}}
	g := newTestGenerator(provider, nil)

	topics, err := g.SuggestTopics(context.Background(), TopicsInput{ReadingHistory: "Tech"})
	require.NoError(t, err)
	assert.Equal(t, []string{"AI", "Markets", "Space"}, topics)
}

func TestSuggestTopicsUsesCache(t *testing.T) {
	provider := &scriptedProvider{responses: []string{`{"suggestedTopics":["AI","Markets"]}`}}
	g := newTestGenerator(provider, NewMemoryCache(16, time.Minute))

	input := TopicsInput{ReadingHistory: "Tech", Language: news.English}
	first, err := g.SuggestTopics(context.Background(), input)
	require.NoError(t, err)
	second, err := g.SuggestTopics(context.Background(), input)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, provider.calls())

	_, err = g.SuggestTopics(context.Background(), TopicsInput{ReadingHistory: "Tech", Language: news.Hindi})
	require.NoError(t, err)
	assert.Equal(t, 2, provider.calls())
}

type blockingProvider struct {
	started chan struct{}
	release chan struct{}
	once    sync.Once
}

func (p *blockingProvider) Complete(ctx context.Context, _ Request) (string, error) {
	p.once.Do(func() { close(p.started) })
	select {
	case <-p.release:
		return `{"suggestedTopics":["AI","Markets"]}`, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func TestSuggestTopicsSharedCallSurvivesCallerCancel(t *testing.T) {
	provider := &blockingProvider{started: make(chan struct{}), release: make(chan struct{})}
	g := newTestGenerator(provider, nil)
	input := TopicsInput{ReadingHistory: "Tech", Language: news.English}

	firstCtx, cancelFirst := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := g.SuggestTopics(firstCtx, input)
		firstErr <- err
	}()
	<-provider.started

	type result struct {
		topics []string
		err    error
	}
	second := make(chan result, 1)
	go func() {
		topics, err := g.SuggestTopics(context.Background(), input)
		second <- result{topics, err}
	}()

	cancelFirst()
	assert.ErrorIs(t, <-firstErr, context.Canceled)

	close(provider.release)
	got := <-second
	require.NoError(t, got.err)
	assert.Equal(t, []string{"AI", "Markets"}, got.topics)
}

func TestStripFences(t *testing.T) {
	assert.Equal(t, `{"a":1}`, stripFences("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, stripFences("  {\"a\":1}  "))
	assert.True(t, strings.HasPrefix(stripFences("```\n[1]\n```"), "["))
}

func TestClampCount(t *testing.T) {
	assert.Equal(t, 5, clampCount(0, 5))
	assert.Equal(t, 7, clampCount(7, 5))
	assert.Equal(t, MaxCount, clampCount(500, 5))
}
