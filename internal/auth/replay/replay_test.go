package replay_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"github.com/usama-mangi/kushim-web-sub002/internal/auth/replay"
	"github.com/usama-mangi/kushim-web-sub002/internal/auth/store/drivers/sqlite"
	"github.com/usama-mangi/kushim-web-sub002/internal/auth/store/storetest"
)

type guard interface {
	Consume(ctx context.Context, identityID string, step int64, expiresAt time.Time) (bool, error)
}

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func newStoreGuard(t *testing.T) (*replay.StoreGuard, string) {
	t.Helper()
	s, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	require.NoError(t, s.ApplyMigrations())
	t.Cleanup(func() { _ = s.Close() })

	role := storetest.SeedRole(t, s, "user")
	id := storetest.SeedIdentity(t, s, "alice@example.com", role.ID)
	return replay.NewStoreGuard(s), id.ID
}

func runGuardTests(t *testing.T, g guard, identityID string) {
	ctx := context.Background()
	exp := time.Now().Add(90 * time.Second)

	ok, err := g.Consume(ctx, identityID, 1000, exp)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = g.Consume(ctx, identityID, 1000, exp)
	require.NoError(t, err)
	require.False(t, ok, "same step must be rejected")

	ok, err = g.Consume(ctx, identityID, 1001, exp)
	require.NoError(t, err)
	require.True(t, ok, "next step is fresh")

	var wins atomic.Int32
	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := g.Consume(ctx, identityID, 2000, exp)
			if err == nil && ok {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()
	require.Equal(t, int32(1), wins.Load())
}

func TestStoreGuard(t *testing.T) {
	g, id := newStoreGuard(t)
	runGuardTests(t, g, id)
}

func TestRedisGuard(t *testing.T) {
	_, client := newTestRedis(t)
	runGuardTests(t, replay.NewRedisGuard(client, ""), "01HIDENTITY")
}

func TestRedisGuard_KeysExpire(t *testing.T) {
	mr, client := newTestRedis(t)
	g := replay.NewRedisGuard(client, "test:")
	ctx := context.Background()

	ok, err := g.Consume(ctx, "alice", 7, time.Now().Add(90*time.Second))
	require.NoError(t, err)
	require.True(t, ok)
	require.True(t, mr.Exists("test:alice:7"))

	mr.FastForward(91 * time.Second)
	require.False(t, mr.Exists("test:alice:7"))

	ok, err = g.Consume(ctx, "alice", 7, time.Now().Add(90*time.Second))
	require.NoError(t, err)
	require.True(t, ok)
}

func TestRedisGuard_Unavailable(t *testing.T) {
	mr, client := newTestRedis(t)
	g := replay.NewRedisGuard(client, "")
	mr.Close()

	_, err := g.Consume(context.Background(), "alice", 1, time.Now().Add(time.Minute))
	require.ErrorIs(t, err, replay.ErrUnavailable)
	require.Error(t, g.Ping(context.Background()))
}
