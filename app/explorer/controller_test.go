package explorer

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lysyi3m/intellinews/app/news"
)

func TestControllerPaginatesUntilExhausted(t *testing.T) {
	script := &scriptedPages{pages: map[string]news.FeedPage{
		"":   page(makeItems("a", 3), "c1", true),
		"c1": page(makeItems("b", 2), "", false),
	}}
	c := NewController(context.Background(), "news", script.loader("top-stories"), inlineExecutor{}, ControllerOptions{})

	c.Start()
	state := c.Snapshot()
	assert.Equal(t, Ready, state.State)
	assert.Equal(t, "c1", state.Cursor)
	assert.True(t, state.HasMore)
	assert.Len(t, state.Items, 3)

	require.True(t, c.NearEnd())
	state = c.Snapshot()
	assert.Equal(t, Exhausted, state.State)
	assert.False(t, state.HasMore)
	assert.Equal(t, []string{"a-0", "a-1", "a-2", "b-0", "b-1"}, itemIDs(state.Items))

	assert.False(t, c.NearEnd())
	assert.False(t, c.LastItemVisible())
	assert.Equal(t, []string{"", "c1"}, script.requested())
}

func TestControllerResetClearsItemsAndCursor(t *testing.T) {
	first := &scriptedPages{pages: map[string]news.FeedPage{"": page(makeItems("a", 2), "c1", true)}}
	second := &scriptedPages{pages: map[string]news.FeedPage{"": page(makeItems("b", 1), "", false)}}
	c := NewController(context.Background(), "news", first.loader("top-stories"), inlineExecutor{}, ControllerOptions{})

	c.Start()
	c.Reset(second.loader("topic:tech"))

	state := c.Snapshot()
	assert.Equal(t, "topic:tech", state.Loader)
	assert.Equal(t, []string{"b-0"}, itemIDs(state.Items))
	assert.Empty(t, state.Cursor)
	assert.Equal(t, []string{""}, second.requested())
}

func TestControllerAllowsOneFetchInFlight(t *testing.T) {
	script := &scriptedPages{pages: map[string]news.FeedPage{
		"":   page(makeItems("a", 4), "c1", true),
		"c1": page(makeItems("b", 4), "c2", true),
	}}
	executor := &queuedExecutor{}
	c := NewController(context.Background(), "news", script.loader("top-stories"), executor, ControllerOptions{})

	c.Start()
	assert.Equal(t, LoadingInitial, c.Snapshot().State)
	assert.True(t, c.Snapshot().IsLoadingInitial)
	assert.False(t, c.NearEnd(), "no paging before the first page arrives")

	executor.run(0)
	require.Equal(t, Ready, c.Snapshot().State)

	require.True(t, c.NearEnd())
	assert.True(t, c.Snapshot().IsLoadingMore)
	assert.False(t, c.NearEnd())
	assert.False(t, c.CarouselIndex(3))
	assert.Equal(t, 1, executor.pending())

	executor.run(0)
	state := c.Snapshot()
	assert.Equal(t, Ready, state.State)
	assert.Equal(t, "c2", state.Cursor)
	assert.Len(t, state.Items, 8)
}

func TestControllerDropsStaleInitialPage(t *testing.T) {
	stale := &scriptedPages{pages: map[string]news.FeedPage{"": page(makeItems("stale", 2), "c1", true)}}
	fresh := &scriptedPages{pages: map[string]news.FeedPage{"": page(makeItems("fresh", 2), "", false)}}
	executor := &queuedExecutor{}
	notifier := &notifications{}
	c := NewController(context.Background(), "news", stale.loader("top-stories"), executor, ControllerOptions{Notifier: notifier})

	c.Start()
	c.Reset(fresh.loader("topic:tech"))
	require.Equal(t, 2, executor.pending())

	executor.run(1)
	executor.run(0)

	state := c.Snapshot()
	assert.Equal(t, []string{"fresh-0", "fresh-1"}, itemIDs(state.Items))
	assert.Equal(t, Exhausted, state.State)
	assert.Empty(t, notifier.all())
}

func TestControllerDropsPageRequestedBeforeReset(t *testing.T) {
	script := &scriptedPages{pages: map[string]news.FeedPage{
		"":   page(makeItems("a", 2), "c1", true),
		"c1": page(makeItems("late", 2), "c2", true),
	}}
	executor := &queuedExecutor{}
	c := NewController(context.Background(), "news", script.loader("top-stories"), executor, ControllerOptions{})

	c.Start()
	executor.run(0)
	require.True(t, c.NearEnd())

	c.Reset(nil)
	require.Equal(t, 2, executor.pending())

	executor.run(0)
	assert.Equal(t, LoadingInitial, c.Snapshot().State)
	assert.Empty(t, c.Snapshot().Items)

	executor.run(0)
	state := c.Snapshot()
	assert.Equal(t, []string{"a-0", "a-1"}, itemIDs(state.Items))
	assert.Equal(t, "c1", state.Cursor)
}

func TestControllerLoadMoreFailureKeepsHasMore(t *testing.T) {
	script := &scriptedPages{
		pages: map[string]news.FeedPage{"": page(makeItems("a", 2), "c1", true)},
		errs:  map[string]error{"c1": errors.New("upstream unavailable")},
	}
	notifier := &notifications{}
	c := NewController(context.Background(), "news", script.loader("top-stories"), inlineExecutor{}, ControllerOptions{Notifier: notifier})

	c.Start()
	require.True(t, c.NearEnd())

	state := c.Snapshot()
	assert.Equal(t, Ready, state.State)
	assert.True(t, state.HasMore)
	assert.Equal(t, "c1", state.Cursor)
	assert.Len(t, state.Items, 2)

	got := notifier.all()
	require.Len(t, got, 1)
	assert.Equal(t, LevelError, got[0].Level)
	assert.Equal(t, "upstream unavailable", got[0].Message)

	assert.True(t, c.NearEnd(), "the user may trigger the same page again")
	assert.Equal(t, []string{"", "c1", "c1"}, script.requested())
}

func TestControllerInitialFailureReturnsToIdle(t *testing.T) {
	script := &scriptedPages{errs: map[string]error{"": errors.New("boom")}}
	notifier := &notifications{}
	c := NewController(context.Background(), "news", script.loader("top-stories"), inlineExecutor{}, ControllerOptions{Notifier: notifier})

	c.Start()

	assert.Equal(t, Idle, c.Snapshot().State)
	assert.False(t, c.NearEnd())
	assert.Len(t, notifier.all(), 1)
}

func TestControllerEnqueueFailureIsAFetchFailure(t *testing.T) {
	script := &scriptedPages{}
	notifier := &notifications{}
	c := NewController(context.Background(), "news", script.loader("top-stories"), failingExecutor{}, ControllerOptions{Notifier: notifier})

	c.Start()

	assert.Equal(t, Idle, c.Snapshot().State)
	assert.Empty(t, script.requested())
	got := notifier.all()
	require.Len(t, got, 1)
	assert.Contains(t, got[0].Message, "task queue is full")
}

func TestControllerCarouselThreshold(t *testing.T) {
	tests := []struct {
		name      string
		threshold float64
		index     int
		want      bool
	}{
		{"below default threshold", 0, 6, false},
		{"at default threshold", 0, 7, true},
		{"last item", 0, 9, true},
		{"custom threshold", 0.5, 5, true},
		{"below custom threshold", 0.5, 4, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			script := &scriptedPages{pages: map[string]news.FeedPage{
				"":   page(makeItems("a", 10), "c1", true),
				"c1": page(makeItems("b", 10), "c2", true),
			}}
			c := NewController(context.Background(), "news", script.loader("top-stories"), inlineExecutor{}, ControllerOptions{Threshold: tt.threshold})
			c.Start()

			assert.Equal(t, tt.want, c.CarouselIndex(tt.index))
		})
	}
}

func TestControllerReplace(t *testing.T) {
	script := &scriptedPages{pages: map[string]news.FeedPage{"": page(makeItems("a", 2), "c1", true)}}
	var updates []FeedState
	c := NewController(context.Background(), "news", script.loader("top-stories"), inlineExecutor{}, ControllerOptions{
		OnUpdate: func(state FeedState) { updates = append(updates, state) },
	})

	c.Start()
	c.Replace("ai:Mars", makeItems("ai", 3))

	state := c.Snapshot()
	assert.Equal(t, Exhausted, state.State)
	assert.Equal(t, "ai:Mars", state.Loader)
	assert.Len(t, state.Items, 3)
	assert.False(t, c.NearEnd())

	require.Len(t, updates, 3)
	assert.Equal(t, LoadingInitial, updates[0].State)
	assert.Equal(t, Ready, updates[1].State)
	assert.Equal(t, Exhausted, updates[2].State)
}

func TestControllerEmptyFirstPageHook(t *testing.T) {
	script := &scriptedPages{pages: map[string]news.FeedPage{"": page(nil, "", false)}}
	var seen []string
	c := NewController(context.Background(), "news", script.loader("topic:ghost"), inlineExecutor{}, ControllerOptions{
		OnEmptyFirstPage: func(loader Loader) bool {
			seen = append(seen, loader.Name())
			return true
		},
	})

	c.Start()

	assert.Equal(t, []string{"topic:ghost"}, seen)
	assert.Equal(t, Idle, c.Snapshot().State)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "loading_more", LoadingMore.String())
	assert.Equal(t, "unknown", State(42).String())
}
