// Package repository implements Redis-backed storage for the poll state.
package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	goredis "github.com/redis/go-redis/v9"

	"github.com/gastolog/gastobot/internal/poll"
)

const (
	offsetKey      = "poll:offset"
	lastHandledKey = "poll:last_handled_update_id"
)

// RedisClient is the subset of the Redis wrapper the repository needs. Both the
// plain and the instrumented client satisfy it.
type RedisClient interface {
	Get(ctx context.Context, key string) (string, error)
	TxPipeline() goredis.Pipeliner
	HealthCheck(ctx context.Context) error
}

// PollStateRepository persists the polling offset and dedup watermark in Redis.
type PollStateRepository struct {
	client RedisClient
}

var _ poll.Store = (*PollStateRepository)(nil)

// NewPollStateRepository creates a Redis-backed implementation of poll.Store.
func NewPollStateRepository(client RedisClient) *PollStateRepository {
	return &PollStateRepository{client: client}
}

// Load reads both watermarks. Missing keys yield a zero state.
func (r *PollStateRepository) Load(ctx context.Context) (poll.PollState, error) {
	offset, err := r.getInt(ctx, offsetKey)
	if err != nil {
		return poll.PollState{}, fmt.Errorf("load poll offset: %w", err)
	}

	lastHandled, err := r.getInt(ctx, lastHandledKey)
	if err != nil {
		return poll.PollState{}, fmt.Errorf("load last handled update id: %w", err)
	}

	return poll.PollState{Offset: offset, LastHandled: lastHandled}, nil
}

// Save writes both watermarks in one transactional pipeline, with no TTL: the
// state must survive until the next cycle regardless of how far away it is.
func (r *PollStateRepository) Save(ctx context.Context, state poll.PollState) error {
	pipe := r.client.TxPipeline()
	pipe.Set(ctx, offsetKey, strconv.FormatInt(state.Offset, 10), 0)
	pipe.Set(ctx, lastHandledKey, strconv.FormatInt(state.LastHandled, 10), 0)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("save poll state to redis: %w", err)
	}

	return nil
}

// HealthCheck pings the backing Redis.
func (r *PollStateRepository) HealthCheck(ctx context.Context) error {
	return r.client.HealthCheck(ctx)
}

func (r *PollStateRepository) getInt(ctx context.Context, key string) (int64, error) {
	value, err := r.client.Get(ctx, key)
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return 0, nil
		}
		return 0, err
	}

	n, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}

	return n, nil
}
