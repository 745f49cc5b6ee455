package tasks

// TaskSchedulerInterface is the worker pool seen by its users.
//
//	scheduler := NewScheduler(4, 100)
//	scheduler.Start()
//	defer scheduler.Stop()
//	scheduler.EnqueueTask(NewFuncTask(TaskTypeLoadPage, "top-stories", load))
type TaskSchedulerInterface interface {
	Start()
	Stop()
	EnqueueTask(task TaskInterface) error
}
