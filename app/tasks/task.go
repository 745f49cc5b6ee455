package tasks

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type TaskType string

const (
	TaskTypeLoadPage   TaskType = "load_page"
	TaskTypeGenerate   TaskType = "generate"
	TaskTypeReloadFeed TaskType = "reload_feed"
)

type TaskInterface interface {
	Execute(ctx context.Context) error
	GetID() string
	GetType() TaskType
	GetFeedName() string
	Start()
	GetDuration() time.Duration
}

type Task struct {
	ID        string
	Type      TaskType
	FeedName  string
	StartedAt *time.Time
}

func (t *Task) GetID() string {
	return t.ID
}

func (t *Task) GetType() TaskType {
	return t.Type
}

func (t *Task) GetFeedName() string {
	return t.FeedName
}

func (t *Task) Start() {
	now := time.Now()
	t.StartedAt = &now
}

func (t *Task) GetDuration() time.Duration {
	if t.StartedAt == nil {
		return 0
	}
	return time.Since(*t.StartedAt)
}

func NewTask(taskType TaskType, feedName string) Task {
	return Task{
		ID:       uuid.NewString(),
		Type:     taskType,
		FeedName: feedName,
	}
}

// FuncTask runs an arbitrary function on the worker pool.
type FuncTask struct {
	Task
	fn func(ctx context.Context) error
}

func NewFuncTask(taskType TaskType, feedName string, fn func(ctx context.Context) error) *FuncTask {
	return &FuncTask{
		Task: NewTask(taskType, feedName),
		fn:   fn,
	}
}

func (t *FuncTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	return t.fn(ctx)
}
