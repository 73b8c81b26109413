package memory_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/usama-mangi/kushim-web-sub002/internal/auth/store"
	"github.com/usama-mangi/kushim-web-sub002/internal/auth/store/drivers/memory"
	"github.com/usama-mangi/kushim-web-sub002/internal/auth/store/storetest"
)

func TestStore(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store { return memory.NewStore() })
}

func TestTx_DoneAfterCommit(t *testing.T) {
	s := memory.NewStore()

	tx, err := s.Tx(context.Background())
	require.NoError(t, err)
	require.NoError(t, tx.Commit())
	require.Error(t, tx.Commit())
	require.Error(t, tx.Rollback())

	_, err = tx.Roles().ListRoles(context.Background())
	require.Error(t, err)

	// Store is usable again.
	storetest.SeedRole(t, s, "user")
}

func TestTx_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := memory.NewStore().Tx(ctx)
	require.ErrorIs(t, err, context.Canceled)
}
