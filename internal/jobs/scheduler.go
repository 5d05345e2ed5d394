package jobs

import (
	"context"
	"log/slog"

	"github.com/hibiken/asynq"
)

// Scheduler registers the periodic polling task.
type Scheduler interface {
	RegisterTasks() error
	Run()
	Shutdown()
}

type scheduler struct {
	asynqScheduler *asynq.Scheduler
	log            *slog.Logger
}

// NewScheduler builds a Scheduler backed by asynq.
func NewScheduler(redisOpt asynq.RedisConnOpt, log *slog.Logger) Scheduler {
	return &scheduler{
		asynqScheduler: asynq.NewScheduler(redisOpt, nil),
		log:            log,
	}
}

// RegisterTasks enqueues the poll cycle every minute, matching the cadence of
// the original time-based trigger.
func (s *scheduler) RegisterTasks() error {
	if _, err := s.asynqScheduler.Register("* * * * *", NewPollCycleTask()); err != nil {
		return err
	}

	if s.log != nil {
		s.log.InfoContext(context.Background(), "scheduler: registered poll cycle task")
	}

	return nil
}

// Run starts the scheduler loop in the background.
func (s *scheduler) Run() {
	if s.log != nil {
		s.log.InfoContext(context.Background(), "scheduler: starting")
	}

	go func() {
		if err := s.asynqScheduler.Run(); err != nil && s.log != nil {
			s.log.ErrorContext(context.Background(), "scheduler: run failed", "error", err)
		}
	}()
}

// Shutdown stops the scheduler.
func (s *scheduler) Shutdown() {
	if s.log != nil {
		s.log.InfoContext(context.Background(), "scheduler: shutting down")
	}

	s.asynqScheduler.Shutdown()
}
