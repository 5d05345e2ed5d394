package handlers

import (
	"context"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/gastolog/gastobot/internal/cycle"
)

// PollCycleHandler executes one polling cycle per scheduled task.
type PollCycleHandler struct {
	runner *cycle.Runner
	log    *slog.Logger
}

// NewPollCycleHandler binds the handler to the cycle runner.
func NewPollCycleHandler(runner *cycle.Runner, log *slog.Logger) *PollCycleHandler {
	return &PollCycleHandler{
		runner: runner,
		log:    log,
	}
}

// ProcessTask runs the cycle. The error is returned so asynq records the
// failure, but the cycle itself already handled and logged it; the next
// scheduled task is the retry.
func (h *PollCycleHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	if h.log != nil {
		h.log.DebugContext(ctx, "poll cycle task started", slog.String("task_type", t.Type()))
	}

	return h.runner.RunOnce(ctx)
}
