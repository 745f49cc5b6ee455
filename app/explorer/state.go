// Package explorer drives paginated feeds on the client side: it tracks the
// cursor of every feed instance, reacts to near-end-of-content signals and
// discards responses that belong to a feed generation that has since been
// reset.
package explorer

import (
	"context"

	"github.com/lysyi3m/intellinews/app/news"
	"github.com/lysyi3m/intellinews/app/tasks"
)

type State int

const (
	Idle State = iota
	LoadingInitial
	Ready
	LoadingMore
	Exhausted
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case LoadingInitial:
		return "loading_initial"
	case Ready:
		return "ready"
	case LoadingMore:
		return "loading_more"
	case Exhausted:
		return "exhausted"
	default:
		return "unknown"
	}
}

// FeedState is a copy of a controller's state at one point in time.
type FeedState struct {
	Loader           string
	State            State
	Items            []news.FeedItem
	Cursor           string
	HasMore          bool
	IsLoadingInitial bool
	IsLoadingMore    bool
}

// Loader fetches one page of a feed. An empty cursor asks for the first page.
type Loader interface {
	Name() string
	Load(ctx context.Context, cursor string) (news.FeedPage, error)
}

// Executor runs fetch tasks; *tasks.Scheduler satisfies it.
type Executor interface {
	EnqueueTask(task tasks.TaskInterface) error
}

var _ Executor = (*tasks.Scheduler)(nil)

type Level string

const (
	LevelInfo  Level = "info"
	LevelError Level = "error"
)

type Notification struct {
	Level   Level
	Title   string
	Message string
}

type Notifier interface {
	Notify(n Notification)
}

type NotifierFunc func(n Notification)

func (f NotifierFunc) Notify(n Notification) {
	f(n)
}
