package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/usama-mangi/kushim-web-sub002/internal/auth/store"
	"github.com/usama-mangi/kushim-web-sub002/internal/auth/store/drivers/postgres"
	"github.com/usama-mangi/kushim-web-sub002/internal/auth/store/storetest"
)

// startPostgres runs a throwaway postgres container, skipping the test when
// Docker is not available.
func startPostgres(t *testing.T) string {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	// GenericContainer panics while resolving the Docker host when no daemon
	// is reachable, so the health check has to come first.
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()
	req := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "auth",
			"POSTGRES_PASSWORD": "auth",
			"POSTGRES_DB":       "auth",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}

	c, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Terminate(context.Background()) })

	host, err := c.Host(ctx)
	require.NoError(t, err)
	port, err := c.MappedPort(ctx, "5432")
	require.NoError(t, err)

	return "postgres://auth:auth@" + host + ":" + port.Port() + "/auth?sslmode=disable"
}

func TestStore(t *testing.T) {
	dsn := startPostgres(t)

	base, err := postgres.NewStore(dsn)
	require.NoError(t, err)
	require.NoError(t, base.ApplyMigrations())
	t.Cleanup(func() { _ = base.Close() })

	storetest.Run(t, func(t *testing.T) store.Store {
		_, err := base.DB().Exec(`TRUNCATE totp_used_steps, identities, roles, signing_keys`)
		require.NoError(t, err)
		return base
	})
}
