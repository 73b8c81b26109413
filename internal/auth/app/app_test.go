package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"

	"github.com/usama-mangi/kushim-web-sub002/internal/auth/replay"
)

func testConfig(t *testing.T) Config {
	t.Helper()
	cfg := DefaultConfig()
	cfg.DatabaseDriver = "memory"
	cfg.PepperFile = filepath.Join(t.TempDir(), "pepper")
	cfg.TOTPIssuer = cfg.Issuer
	cfg.LogLevel = "error"
	return cfg
}

func TestNewServesHealth(t *testing.T) {
	application, err := New(context.Background(), testConfig(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = application.closeAll() })

	rec := httptest.NewRecorder()
	application.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	application.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestNewSeedsRoles(t *testing.T) {
	cfg := testConfig(t)
	cfg.DefaultRole = "member"

	application, err := New(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = application.closeAll() })

	roles, err := application.rolesService.ListRoles(context.Background())
	require.NoError(t, err)

	var names []string
	for _, r := range roles {
		names = append(names, r.Name)
	}
	require.ElementsMatch(t, []string{"admin", "user", "member"}, names)
}

func TestNewWithRedisReplay(t *testing.T) {
	mr := miniredis.RunT(t)

	cfg := testConfig(t)
	cfg.ReplayBackend = "redis"
	cfg.RedisAddr = mr.Addr()

	application, err := New(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = application.closeAll() })

	require.IsType(t, &replay.RedisGuard{}, application.replayGuard)
	require.NotNil(t, application.redis)
}

func TestNewRedisUnreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	cfg := testConfig(t)
	cfg.ReplayBackend = "redis"
	cfg.RedisAddr = addr

	_, err := New(context.Background(), cfg)
	require.Error(t, err)
	require.Contains(t, err.Error(), "redis")
}
