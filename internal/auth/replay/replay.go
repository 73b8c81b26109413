// Package replay records consumed TOTP time steps so each code is accepted
// at most once per identity.
package replay

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/usama-mangi/kushim-web-sub002/internal/auth/store"
)

// ErrUnavailable wraps backend failures.
var ErrUnavailable = errors.New("replay: backend unavailable")

// StoreGuard records steps in the totp_used_steps table.
type StoreGuard struct {
	Store store.Store
}

func NewStoreGuard(s store.Store) *StoreGuard {
	return &StoreGuard{Store: s}
}

// Consume reports true when (identityID, step) had not been seen before.
func (g *StoreGuard) Consume(ctx context.Context, identityID string, step int64, expiresAt time.Time) (bool, error) {
	err := g.Store.TOTPSteps().ConsumeTOTPStep(ctx, identityID, step, expiresAt)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, store.ErrAlreadyExists):
		return false, nil
	default:
		return false, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
}

// RedisGuard records steps as SETNX keys that expire with the code's
// validity window, so no housekeeping is needed.
type RedisGuard struct {
	redis  redis.UniversalClient
	prefix string
	now    func() time.Time
}

func NewRedisGuard(client redis.UniversalClient, prefix string) *RedisGuard {
	if prefix == "" {
		prefix = "auth:totp:"
	}
	return &RedisGuard{redis: client, prefix: prefix, now: time.Now}
}

func (g *RedisGuard) key(identityID string, step int64) string {
	return g.prefix + identityID + ":" + strconv.FormatInt(step, 10)
}

func (g *RedisGuard) Consume(ctx context.Context, identityID string, step int64, expiresAt time.Time) (bool, error) {
	ttl := expiresAt.Sub(g.now())
	if ttl < time.Second {
		ttl = time.Second
	}

	ok, err := g.redis.SetNX(ctx, g.key(identityID, step), 1, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return ok, nil
}

// Ping checks the Redis connection, for readiness probes.
func (g *RedisGuard) Ping(ctx context.Context) error {
	return g.redis.Ping(ctx).Err()
}
