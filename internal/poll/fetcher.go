package poll

import (
	"context"
	"log/slog"

	"github.com/gastolog/gastobot/internal/telegram"
	"github.com/gastolog/gastobot/pkg/metrics"
)

// FetchResult is the outcome of one getUpdates round trip. OK=false means "no
// progress, retry next cycle"; it is never fatal. Err carries the underlying
// failure for reporting.
type FetchResult struct {
	OK        bool
	Updates   []telegram.Update
	NewOffset int64
	Err       error
}

// Fetcher pulls one batch of updates past the persisted offset. It issues a
// single request with no internal retry; retries happen only through the next
// scheduled cycle.
type Fetcher struct {
	api     telegram.API
	timeout int
	log     *slog.Logger
}

// NewFetcher builds a Fetcher. timeout is the getUpdates long-poll timeout in
// seconds; 0 requests an immediate response.
func NewFetcher(api telegram.API, timeout int, log *slog.Logger) *Fetcher {
	if log == nil {
		log = slog.Default()
	}

	return &Fetcher{
		api:     api,
		timeout: timeout,
		log:     log,
	}
}

// Fetch requests updates strictly after offset. On failure the offset is
// returned unchanged. On success NewOffset is the highest update id seen, or
// the incoming offset when the batch is empty.
func (f *Fetcher) Fetch(ctx context.Context, offset int64) FetchResult {
	// Bot API offset semantics: ask for update ids >= offset+1. A zero stored
	// offset means no confirmed update yet, so the parameter is omitted.
	var wireOffset int64
	if offset > 0 {
		wireOffset = offset + 1
	}

	updates, err := f.api.GetUpdates(ctx, wireOffset, f.timeout)
	if err != nil {
		f.log.Warn("getUpdates failed", slog.Int64("offset", offset), slog.Any("error", err))
		return FetchResult{OK: false, NewOffset: offset, Err: err}
	}

	newOffset := offset
	for _, upd := range updates {
		if upd.UpdateID > newOffset {
			newOffset = upd.UpdateID
		}
	}

	metrics.RecordUpdatesFetched(len(updates))

	return FetchResult{
		OK:        true,
		Updates:   updates,
		NewOffset: newOffset,
	}
}
