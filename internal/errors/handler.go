package errors

import (
	"context"
	"errors"
	"log/slog"

	"github.com/getsentry/sentry-go"

	"github.com/gastolog/gastobot/pkg/logger"
)

// Handler logs application errors and forwards the severe ones to Sentry.
type Handler struct {
	log           *slog.Logger
	sentryEnabled bool
}

func NewHandler(log *slog.Logger, sentryEnabled bool) *Handler {
	return &Handler{
		log:           log,
		sentryEnabled: sentryEnabled,
	}
}

// Handle logs err with its taxonomy metadata and reports high or critical
// severities to Sentry when enabled. It returns whether the error is
// retryable on a later cycle.
func (h *Handler) Handle(ctx context.Context, err error) bool {
	if err == nil {
		return false
	}

	if ctx == nil {
		ctx = context.Background()
	}

	log := h.log
	if log == nil {
		log = slog.Default()
	}

	if cycleID := logger.CycleIDFromContext(ctx); cycleID != "" {
		log = log.With(slog.String("cycle_id", cycleID))
	}

	var appErr *AppError
	if errors.As(err, &appErr) && appErr != nil {
		log.Error("application error",
			slog.String("code", appErr.Code),
			slog.String("message", appErr.Message),
			slog.String("severity", string(appErr.Severity)),
			slog.Bool("retryable", appErr.Retryable),
		)

		if h.sentryEnabled && (appErr.Severity == SeverityHigh || appErr.Severity == SeverityCritical) {
			h.sendToSentry(err, appErr)
		}

		return appErr.Retryable
	}

	log.Error("unknown error",
		slog.String("message", err.Error()),
		slog.String("severity", string(SeverityHigh)),
	)

	if h.sentryEnabled {
		h.sendToSentry(err, nil)
	}

	return false
}

func (h *Handler) sendToSentry(err error, appErr *AppError) {
	sentry.WithScope(func(scope *sentry.Scope) {
		if appErr != nil {
			if appErr.Code != "" {
				scope.SetTag("code", appErr.Code)
			}
			if appErr.Severity != "" {
				scope.SetTag("severity", string(appErr.Severity))
			}
		}

		sentry.CaptureException(err)
	})
}
