package metrics

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestStateCollector_ExportsLoadedState(t *testing.T) {
	collector := NewStateCollector(func(ctx context.Context) (int64, int64, error) {
		return 120, 118, nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	collector.Run(ctx)

	assert.Equal(t, float64(120), testutil.ToFloat64(pollOffset))
	assert.Equal(t, float64(118), testutil.ToFloat64(lastHandledUpdateID))
}

func TestStateCollector_LoadFailureKeepsLastValue(t *testing.T) {
	SetPollState(7, 5)

	collector := NewStateCollector(func(ctx context.Context) (int64, int64, error) {
		return 0, 0, errors.New("store unavailable")
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	collector.Run(ctx)

	assert.Equal(t, float64(7), testutil.ToFloat64(pollOffset))
	assert.Equal(t, float64(5), testutil.ToFloat64(lastHandledUpdateID))
}

func TestStateCollector_NilLoaderIsNoOp(t *testing.T) {
	done := make(chan struct{})
	go func() {
		NewStateCollector(nil).Run(context.Background())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("collector with nil loader did not return")
	}
}
