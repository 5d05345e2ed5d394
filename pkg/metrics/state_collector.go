package metrics

import (
	"context"
	"time"
)

// StateLoader reads the persisted offset and dedup watermark.
type StateLoader func(ctx context.Context) (offset, lastHandled int64, err error)

// StateCollector periodically reads the persisted poll state and exports the
// offset and dedup watermark as gauges.
type StateCollector struct {
	load     StateLoader
	interval time.Duration
}

// NewStateCollector builds a collector bound to the provided loader.
func NewStateCollector(load StateLoader) *StateCollector {
	return &StateCollector{
		load:     load,
		interval: 10 * time.Second,
	}
}

// Run polls the loader until ctx is cancelled. Read failures are ignored; the
// gauges simply keep their last value.
func (c *StateCollector) Run(ctx context.Context) {
	if c == nil || c.load == nil {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}

	for {
		if offset, lastHandled, err := c.load(ctx); err == nil {
			SetPollState(offset, lastHandled)
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(c.interval):
		}
	}
}
