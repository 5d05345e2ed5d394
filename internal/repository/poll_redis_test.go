package repository

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gastolog/gastobot/internal/poll"
	appredis "github.com/gastolog/gastobot/pkg/redis"
)

func setupTestRedis(t *testing.T) (*appredis.Client, func()) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{
		Addr: mr.Addr(),
	})

	cleanup := func() {
		_ = client.Close()
		mr.Close()
	}

	return &appredis.Client{Client: client}, cleanup
}

func TestPollStateRepository_LoadEmptyState(t *testing.T) {
	client, cleanup := setupTestRedis(t)
	t.Cleanup(cleanup)

	repo := NewPollStateRepository(client)

	state, err := repo.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, poll.PollState{}, state)
}

func TestPollStateRepository_SaveLoadRoundTrip(t *testing.T) {
	client, cleanup := setupTestRedis(t)
	t.Cleanup(cleanup)

	repo := NewPollStateRepository(client)
	ctx := context.Background()

	saved := poll.PollState{Offset: 200, LastHandled: 198}
	require.NoError(t, repo.Save(ctx, saved))

	loaded, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, saved, loaded)
}

func TestPollStateRepository_KeysHaveNoTTL(t *testing.T) {
	client, cleanup := setupTestRedis(t)
	t.Cleanup(cleanup)

	repo := NewPollStateRepository(client)
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, poll.PollState{Offset: 1, LastHandled: 1}))

	ttl, err := client.Client.TTL(ctx, "poll:offset").Result()
	require.NoError(t, err)
	assert.True(t, ttl < 0, "expected no expiry, got ttl %s", ttl)
}

func TestPollStateRepository_CorruptValueFailsLoad(t *testing.T) {
	client, cleanup := setupTestRedis(t)
	t.Cleanup(cleanup)

	ctx := context.Background()
	require.NoError(t, client.Set(ctx, "poll:offset", "not-a-number", 0))

	repo := NewPollStateRepository(client)

	_, err := repo.Load(ctx)
	assert.Error(t, err)
}

func TestPollStateRepository_HealthCheck(t *testing.T) {
	client, cleanup := setupTestRedis(t)
	t.Cleanup(cleanup)

	repo := NewPollStateRepository(client)
	assert.NoError(t, repo.HealthCheck(context.Background()))
}
