package explorer

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"slices"
	"sync"

	"github.com/lysyi3m/intellinews/app/news"
	"github.com/lysyi3m/intellinews/app/tasks"
)

const DefaultThreshold = 0.7

type ControllerOptions struct {
	// Threshold is the fraction of loaded items a carousel must pass before
	// the next page is requested.
	Threshold float64
	Notifier  Notifier
	// OnEmptyFirstPage is called when a first page comes back with no items.
	// Returning true discards the page and leaves the controller Idle; the
	// callback decides what to load instead.
	OnEmptyFirstPage func(loader Loader) bool
	OnUpdate         func(state FeedState)
}

// Controller owns the state of one paginated feed instance. Every fetch is
// tagged with the epoch current at dispatch time; results from an older
// epoch are dropped.
type Controller struct {
	name      string
	executor  Executor
	notifier  Notifier
	threshold float64
	onEmpty   func(loader Loader) bool
	onUpdate  func(state FeedState)
	baseCtx   context.Context

	mu         sync.Mutex
	loader     Loader
	state      State
	items      []news.FeedItem
	cursor     string
	hasMore    bool
	loadedOnce bool
	epoch      uint64
	fetchCtx   context.Context
	cancel     context.CancelFunc
}

func NewController(ctx context.Context, name string, loader Loader, executor Executor, opts ControllerOptions) *Controller {
	threshold := opts.Threshold
	if threshold <= 0 || threshold > 1 {
		threshold = DefaultThreshold
	}

	return &Controller{
		name:      name,
		executor:  executor,
		notifier:  opts.Notifier,
		threshold: threshold,
		onEmpty:   opts.OnEmptyFirstPage,
		onUpdate:  opts.OnUpdate,
		baseCtx:   ctx,
		loader:    loader,
		state:     Idle,
		hasMore:   true,
	}
}

func (c *Controller) Name() string {
	return c.name
}

// Start issues the first fetch for the current loader.
func (c *Controller) Start() {
	c.Reset(nil)
}

// Reset clears the accumulated items and the cursor, cancels any fetch in
// flight and loads the first page. A nil loader keeps the current one.
func (c *Controller) Reset(loader Loader) {
	c.mu.Lock()
	if loader != nil {
		c.loader = loader
	}
	ctx, epoch := c.advanceLocked()
	c.items = nil
	c.cursor = ""
	c.hasMore = true
	c.loadedOnce = false
	c.state = LoadingInitial
	current := c.loader
	snapshot := c.snapshotLocked()
	c.mu.Unlock()

	slog.Debug("Feed reset", "feed", c.name, "loader", current.Name(), "epoch", epoch)
	c.publish(snapshot)
	c.dispatch(ctx, epoch, current, "", true)
}

// Replace installs a fixed list of items that has no further pages. Any
// fetch in flight is cancelled and its result discarded.
func (c *Controller) Replace(name string, items []news.FeedItem) {
	c.mu.Lock()
	c.loader = NewLoader(name, func(context.Context, string) (news.FeedPage, error) {
		return news.FeedPage{Items: items, Status: news.StatusSuccess}, nil
	})
	c.advanceLocked()
	c.items = slices.Clone(items)
	c.cursor = ""
	c.hasMore = false
	c.loadedOnce = true
	c.state = Exhausted
	snapshot := c.snapshotLocked()
	c.mu.Unlock()

	c.publish(snapshot)
}

// NearEnd is the near-end-of-content signal shared by every view mode. It
// requests the next page and reports whether a fetch was issued.
func (c *Controller) NearEnd() bool {
	c.mu.Lock()
	if c.state != Ready || !c.hasMore || !c.loadedOnce {
		c.mu.Unlock()
		return false
	}
	c.state = LoadingMore
	ctx := c.fetchCtx
	epoch := c.epoch
	cursor := c.cursor
	current := c.loader
	snapshot := c.snapshotLocked()
	c.mu.Unlock()

	c.publish(snapshot)
	c.dispatch(ctx, epoch, current, cursor, false)
	return true
}

// LastItemVisible is the grid trigger: the sentinel after the last item
// scrolled into view.
func (c *Controller) LastItemVisible() bool {
	return c.NearEnd()
}

// CarouselIndex is the stories trigger: the carousel settled on index.
func (c *Controller) CarouselIndex(index int) bool {
	c.mu.Lock()
	total := len(c.items)
	c.mu.Unlock()

	if total == 0 || index < int(math.Floor(float64(total)*c.threshold)) {
		return false
	}
	return c.NearEnd()
}

func (c *Controller) Snapshot() FeedState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Controller) advanceLocked() (context.Context, uint64) {
	if c.cancel != nil {
		c.cancel()
	}
	c.epoch++
	c.fetchCtx, c.cancel = context.WithCancel(c.baseCtx)
	return c.fetchCtx, c.epoch
}

func (c *Controller) snapshotLocked() FeedState {
	name := ""
	if c.loader != nil {
		name = c.loader.Name()
	}
	return FeedState{
		Loader:           name,
		State:            c.state,
		Items:            slices.Clone(c.items),
		Cursor:           c.cursor,
		HasMore:          c.hasMore,
		IsLoadingInitial: c.state == LoadingInitial,
		IsLoadingMore:    c.state == LoadingMore,
	}
}

func (c *Controller) dispatch(ctx context.Context, epoch uint64, loader Loader, cursor string, initial bool) {
	task := tasks.NewFuncTask(tasks.TaskTypeLoadPage, loader.Name(), func(taskCtx context.Context) error {
		fetchCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		stop := context.AfterFunc(taskCtx, cancel)
		defer stop()

		page, err := loader.Load(fetchCtx, cursor)
		return c.apply(epoch, loader, initial, page, err)
	})

	if err := c.executor.EnqueueTask(task); err != nil {
		slog.Error("Failed to enqueue feed fetch", "feed", c.name, "loader", loader.Name(), "error", err)
		c.apply(epoch, loader, initial, news.FeedPage{}, err)
	}
}

func (c *Controller) apply(epoch uint64, loader Loader, initial bool, page news.FeedPage, err error) error {
	if err == nil && initial && len(page.Items) == 0 && c.onEmpty != nil && c.isCurrent(epoch) {
		if c.onEmpty(loader) {
			c.mu.Lock()
			if c.epoch != epoch {
				c.mu.Unlock()
				return nil
			}
			c.state = Idle
			c.hasMore = false
			snapshot := c.snapshotLocked()
			c.mu.Unlock()
			c.publish(snapshot)
			return nil
		}
	}

	c.mu.Lock()
	if c.epoch != epoch {
		c.mu.Unlock()
		slog.Debug("Discarding stale feed page", "feed", c.name, "loader", loader.Name(), "epoch", epoch)
		return nil
	}

	if err != nil {
		if initial {
			c.state = Idle
		} else {
			c.state = Ready
		}
		snapshot := c.snapshotLocked()
		c.mu.Unlock()

		slog.Error("Feed fetch failed", "feed", c.name, "loader", loader.Name(), "error", err)
		c.publish(snapshot)
		c.notifyError(err)
		return err
	}

	c.items = append(c.items, page.Items...)
	c.cursor = page.NextCursor
	c.hasMore = page.HasMore
	c.loadedOnce = true
	if c.hasMore {
		c.state = Ready
	} else {
		c.state = Exhausted
	}
	snapshot := c.snapshotLocked()
	c.mu.Unlock()

	slog.Debug("Feed page applied", "feed", c.name, "loader", loader.Name(), "items", len(page.Items), "has_more", page.HasMore)
	c.publish(snapshot)
	return nil
}

func (c *Controller) isCurrent(epoch uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.epoch == epoch
}

func (c *Controller) publish(state FeedState) {
	if c.onUpdate != nil {
		c.onUpdate(state)
	}
}

func (c *Controller) notifyError(err error) {
	if c.notifier == nil || errors.Is(err, context.Canceled) {
		return
	}
	c.notifier.Notify(Notification{Level: LevelError, Title: "Error", Message: err.Error()})
}
