// Package cycle orchestrates one polling cycle: load state, fetch, dispatch,
// persist.
package cycle

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/gastolog/gastobot/internal/dispatch"
	apperrors "github.com/gastolog/gastobot/internal/errors"
	"github.com/gastolog/gastobot/internal/poll"
	"github.com/gastolog/gastobot/internal/telegram"
	"github.com/gastolog/gastobot/pkg/logger"
	"github.com/gastolog/gastobot/pkg/metrics"
)

// Runner drives the ingestion pipeline once per scheduler invocation.
type Runner struct {
	fetcher    *poll.Fetcher
	dispatcher *dispatch.Dispatcher
	store      poll.Store
	errHandler *apperrors.Handler
	log        *slog.Logger
}

// NewRunner wires the cycle driver.
func NewRunner(
	fetcher *poll.Fetcher,
	dispatcher *dispatch.Dispatcher,
	store poll.Store,
	errHandler *apperrors.Handler,
	log *slog.Logger,
) *Runner {
	if log == nil {
		log = slog.Default()
	}

	return &Runner{
		fetcher:    fetcher,
		dispatcher: dispatcher,
		store:      store,
		errHandler: errHandler,
		log:        log,
	}
}

// RunOnce executes a full cycle. State is read once at the start and written
// once at the end; on fetch failure the unchanged state is written back and
// the next scheduled cycle retries from the same offset. One update's failure
// never blocks the rest of the batch.
func (r *Runner) RunOnce(ctx context.Context) error {
	ctx, cycleID := logger.WithCycleID(ctx)
	log := r.log.With(slog.String("cycle_id", cycleID))

	state, err := r.store.Load(ctx)
	if err != nil {
		metrics.RecordCycle("error")
		appErr := apperrors.NewStateStoreError("load", err)
		r.errHandler.Handle(ctx, appErr)
		return appErr
	}

	result := r.fetcher.Fetch(ctx, state.Offset)
	if !result.OK {
		metrics.RecordCycle("fetch_failed")
		r.errHandler.Handle(ctx, apperrors.NewTransportError("getUpdates", result.Err))
		log.Debug("fetch failed, will retry next cycle", slog.Int64("offset", state.Offset))
		return r.persist(ctx, log, state)
	}

	state.Offset = result.NewOffset

	if len(result.Updates) == 0 {
		metrics.RecordCycle("empty")
		return r.persist(ctx, log, state)
	}

	log.Info("processing update batch",
		slog.Int("count", len(result.Updates)),
		slog.Int64("new_offset", result.NewOffset),
	)

	for _, upd := range result.Updates {
		r.dispatchOne(ctx, log, upd, &state)
	}

	metrics.RecordCycle("ok")

	return r.persist(ctx, log, state)
}

// dispatchOne shields the batch from a single update's failure: errors and
// panics are logged and the loop continues. The failed update is not retried
// later because the offset has already advanced past it; the warn log and the
// dispatch metrics make that gap observable.
func (r *Runner) dispatchOne(ctx context.Context, log *slog.Logger, upd telegram.Update, state *poll.PollState) {
	defer func() {
		if rec := recover(); rec != nil {
			log.Error("panic during dispatch",
				slog.Int64("update_id", upd.UpdateID),
				slog.Any("panic", rec),
			)
		}
	}()

	handled, err := r.dispatcher.Dispatch(ctx, upd, state)
	if err != nil {
		r.errHandler.Handle(ctx, apperrors.NewSinkError(err))
		log.Warn("update skipped after dispatch failure",
			slog.Int64("update_id", upd.UpdateID),
			slog.Any("error", err),
		)
		return
	}

	log.Debug("update dispatched",
		slog.Int64("update_id", upd.UpdateID),
		slog.Bool("handled", handled),
	)
}

func (r *Runner) persist(ctx context.Context, log *slog.Logger, state poll.PollState) error {
	err := apperrors.WithRetry(ctx, func() error {
		return r.store.Save(ctx, state)
	})
	if err != nil {
		appErr := apperrors.NewStateStoreError("save", err)
		r.errHandler.Handle(ctx, appErr)
		return appErr
	}

	metrics.SetPollState(state.Offset, state.LastHandled)
	log.Debug("poll state persisted",
		slog.Int64("offset", state.Offset),
		slog.Int64("last_handled", state.LastHandled),
	)

	return nil
}

// Loop runs RunOnce on a fixed interval until ctx is cancelled. It is the
// in-process alternative to the asynq scheduler.
func (r *Runner) Loop(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		return fmt.Errorf("poll interval must be positive, got %s", interval)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	r.log.Info("polling loop started", slog.Duration("interval", interval))

	for {
		if err := r.RunOnce(ctx); err != nil {
			r.log.Warn("cycle failed", slog.Any("error", err))
		}

		select {
		case <-ctx.Done():
			r.log.Info("polling loop stopped")
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
