package tasks

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/lysyi3m/intellinews/app/feed"
)

type FeedReloader interface {
	Reload(name string) (*feed.Config, error)
}

// ReloadFeedTask re-reads a custom feed configuration from disk.
type ReloadFeedTask struct {
	Task
	reloader FeedReloader
}

func NewReloadFeedTask(feedName string, reloader FeedReloader) *ReloadFeedTask {
	return &ReloadFeedTask{
		Task:     NewTask(TaskTypeReloadFeed, feedName),
		reloader: reloader,
	}
}

func (t *ReloadFeedTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	feedConfig, err := t.reloader.Reload(t.FeedName)
	if err != nil {
		return fmt.Errorf("failed to reload feed config: %w", err)
	}

	slog.Info("Task completed",
		"type", "ReloadFeed",
		"feed", t.FeedName,
		"enabled", feedConfig.Settings.Enabled,
		"filters", len(feedConfig.Filters),
		"duration", t.GetDuration())

	return nil
}
