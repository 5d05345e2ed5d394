package jobs

import "github.com/hibiken/asynq"

const (
	// TaskTypePollCycle runs one polling cycle.
	TaskTypePollCycle = "poll:cycle"
)

const (
	QueueDefault = "default"
)

// NewPollCycleTask builds the periodic poll-cycle task. The fixed TaskID keeps
// the queue from piling up when a cycle outlives the schedule interval: asynq
// rejects a duplicate id while the previous task is still pending.
func NewPollCycleTask() *asynq.Task {
	return asynq.NewTask(
		TaskTypePollCycle,
		nil,
		asynq.Queue(QueueDefault),
		asynq.TaskID("poll-cycle"),
	)
}
