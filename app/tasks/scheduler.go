package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/lysyi3m/intellinews/app/metrics"
)

const (
	DefaultWorkerCount = 4
	DefaultQueueSize   = 300
)

var _ TaskSchedulerInterface = (*Scheduler)(nil)

// Scheduler runs queued tasks on a fixed pool of workers. Failed tasks are
// logged and counted; they are never retried.
type Scheduler struct {
	workerCount int
	ctx         context.Context
	cancel      context.CancelFunc
	wg          sync.WaitGroup
	taskQueue   chan TaskInterface
}

func NewScheduler(workerCount, queueSize int) *Scheduler {
	if workerCount <= 0 {
		workerCount = DefaultWorkerCount
	}
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Scheduler{
		workerCount: workerCount,
		ctx:         ctx,
		cancel:      cancel,
		taskQueue:   make(chan TaskInterface, queueSize),
	}
}

func (s *Scheduler) Start() {
	for i := 0; i < s.workerCount; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}
	slog.Debug("Scheduler started", "workers", s.workerCount, "queue_size", cap(s.taskQueue))
}

// Stop cancels running tasks and waits for the workers to exit. Queued tasks
// that have not started are dropped.
func (s *Scheduler) Stop() {
	s.cancel()
	s.wg.Wait()
}

func (s *Scheduler) EnqueueTask(task TaskInterface) error {
	if err := s.ctx.Err(); err != nil {
		return err
	}

	select {
	case s.taskQueue <- task:
		return nil
	case <-s.ctx.Done():
		return s.ctx.Err()
	default:
		return fmt.Errorf("task queue is full")
	}
}

func (s *Scheduler) worker(id int) {
	defer s.wg.Done()

	for {
		select {
		case task := <-s.taskQueue:
			s.executeTask(id, task)

		case <-s.ctx.Done():
			return
		}
	}
}

func (s *Scheduler) executeTask(workerID int, task TaskInterface) {
	task.Start()

	err := task.Execute(s.ctx)
	metrics.RecordTask(string(task.GetType()), err)

	if err != nil {
		slog.Error("Worker task execution failed", "worker_id", workerID, "type", string(task.GetType()), "feed", task.GetFeedName(), "id", task.GetID(), "error", err)
		return
	}

	slog.Debug("Worker task completed", "worker_id", workerID, "type", string(task.GetType()), "feed", task.GetFeedName(), "duration", task.GetDuration())
}
