package sqlite_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/usama-mangi/kushim-web-sub002/internal/auth/store"
	"github.com/usama-mangi/kushim-web-sub002/internal/auth/store/drivers/sqlite"
	"github.com/usama-mangi/kushim-web-sub002/internal/auth/store/storetest"
)

func newTestStore(t *testing.T) store.Store {
	t.Helper()
	s, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	require.NoError(t, s.ApplyMigrations())
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStore(t *testing.T) {
	storetest.Run(t, newTestStore)
}

func TestApplyMigrations_Idempotent(t *testing.T) {
	s, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	require.NoError(t, s.ApplyMigrations())
	require.NoError(t, s.ApplyMigrations())
}

func TestStore_FileBacked(t *testing.T) {
	path := t.TempDir() + "/auth.db"

	s, err := sqlite.NewStore(sqlite.FileDSN(path))
	require.NoError(t, err)
	require.NoError(t, s.ApplyMigrations())
	role := storetest.SeedRole(t, s, "user")
	storetest.SeedIdentity(t, s, "alice@example.com", role.ID)
	require.NoError(t, s.Close())

	// Reopen and read back.
	s, err = sqlite.NewStore(sqlite.FileDSN(path))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	require.NoError(t, s.ApplyMigrations())

	got, err := s.Identities().GetIdentityByEmail(t.Context(), "alice@example.com")
	require.NoError(t, err)
	require.Equal(t, role.ID, got.RoleID)
}
