// Package storetest holds behaviour tests shared by every store driver.
package storetest

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/usama-mangi/kushim-web-sub002/internal/auth/domain"
	"github.com/usama-mangi/kushim-web-sub002/internal/auth/store"
	"github.com/usama-mangi/kushim-web-sub002/pkg/idx"
)

// Run exercises a store.Store implementation. newStore must return a fresh,
// migrated store for each call.
func Run(t *testing.T, newStore func(t *testing.T) store.Store) {
	t.Run("roles", func(t *testing.T) { testRoles(t, newStore(t)) })
	t.Run("identities", func(t *testing.T) { testIdentities(t, newStore(t)) })
	t.Run("mfa transitions", func(t *testing.T) { testMFATransitions(t, newStore(t)) })
	t.Run("mfa invariant", func(t *testing.T) { testMFAInvariant(t, newStore(t)) })
	t.Run("totp steps", func(t *testing.T) { testTOTPSteps(t, newStore(t)) })
	t.Run("concurrent consume", func(t *testing.T) { testConcurrentConsume(t, newStore(t)) })
	t.Run("signing keys", func(t *testing.T) { testSigningKeys(t, newStore(t)) })
	t.Run("transactions", func(t *testing.T) { testTransactions(t, newStore(t)) })
}

// SeedRole creates a role with the given name.
func SeedRole(t *testing.T, s store.Store, name string) domain.Role {
	t.Helper()
	r := domain.Role{ID: idx.New().String(), Name: name}
	require.NoError(t, s.Roles().CreateRole(context.Background(), r))
	return r
}

// SeedIdentity creates an identity with MFA disabled.
func SeedIdentity(t *testing.T, s store.Store, email, roleID string) domain.Identity {
	t.Helper()
	i := domain.Identity{
		ID:             idx.New().String(),
		Email:          email,
		CredentialHash: "$argon2id$v=19$m=1024,t=1,p=1$c2FsdA$a2V5",
		RoleID:         roleID,
	}
	require.NoError(t, s.Identities().CreateIdentity(context.Background(), i))
	return i
}

func testRoles(t *testing.T, s store.Store) {
	ctx := context.Background()

	user := SeedRole(t, s, "user")
	SeedRole(t, s, "admin")

	got, err := s.Roles().GetRoleByID(ctx, user.ID)
	require.NoError(t, err)
	require.Equal(t, "user", got.Name)
	require.False(t, got.CreatedAt.IsZero())

	got, err = s.Roles().GetRoleByName(ctx, "admin")
	require.NoError(t, err)
	require.Equal(t, "admin", got.Name)

	_, err = s.Roles().GetRoleByName(ctx, "missing")
	require.ErrorIs(t, err, store.ErrNotFound)

	err = s.Roles().CreateRole(ctx, domain.Role{ID: idx.New().String(), Name: "user"})
	require.ErrorIs(t, err, store.ErrAlreadyExists)

	roles, err := s.Roles().ListRoles(ctx)
	require.NoError(t, err)
	require.Len(t, roles, 2)
	require.Equal(t, "admin", roles[0].Name)
	require.Equal(t, "user", roles[1].Name)
}

func testIdentities(t *testing.T, s store.Store) {
	ctx := context.Background()
	role := SeedRole(t, s, "user")
	alice := SeedIdentity(t, s, "alice@example.com", role.ID)

	got, err := s.Identities().GetIdentityByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	require.Equal(t, alice.ID, got.ID)
	require.Equal(t, role.ID, got.RoleID)
	require.False(t, got.MFAEnabled)
	require.Nil(t, got.MFASecret)
	require.Nil(t, got.MFAEnabledAt)

	// email lookup is exact
	_, err = s.Identities().GetIdentityByEmail(ctx, "ALICE@example.com")
	require.ErrorIs(t, err, store.ErrNotFound)

	_, err = s.Identities().GetIdentityByID(ctx, idx.New().String())
	require.ErrorIs(t, err, store.ErrNotFound)

	dup := alice
	dup.ID = idx.New().String()
	require.ErrorIs(t, s.Identities().CreateIdentity(ctx, dup), store.ErrAlreadyExists)

	orphan := domain.Identity{
		ID:             idx.New().String(),
		Email:          "orphan@example.com",
		CredentialHash: "x",
		RoleID:         idx.New().String(),
	}
	require.ErrorIs(t, s.Identities().CreateIdentity(ctx, orphan), store.ErrNotFound)

	now := time.Now().UTC()
	require.NoError(t, s.Identities().UpdateCredentialHash(ctx, alice.ID, "new-hash", now))
	got, err = s.Identities().GetIdentityByID(ctx, alice.ID)
	require.NoError(t, err)
	require.Equal(t, "new-hash", got.CredentialHash)

	err = s.Identities().UpdateCredentialHash(ctx, idx.New().String(), "x", now)
	require.ErrorIs(t, err, store.ErrNotFound)
}

func testMFATransitions(t *testing.T, s store.Store) {
	ctx := context.Background()
	ids := s.Identities()
	role := SeedRole(t, s, "user")
	alice := SeedIdentity(t, s, "alice@example.com", role.ID)
	now := time.Now().UTC()

	require.ErrorIs(t, ids.SetPendingMFASecret(ctx, idx.New().String(), "S1", now), store.ErrNotFound)

	// Enable without a secret fails.
	require.ErrorIs(t, ids.EnableMFA(ctx, alice.ID, "S1", now), store.ErrConflict)

	require.NoError(t, ids.SetPendingMFASecret(ctx, alice.ID, "S1", now))
	require.NoError(t, ids.SetPendingMFASecret(ctx, alice.ID, "S2", now)) // last write wins

	got, err := ids.GetIdentityByID(ctx, alice.ID)
	require.NoError(t, err)
	require.NotNil(t, got.MFASecret)
	require.Equal(t, "S2", *got.MFASecret)
	require.True(t, got.MFAPending())

	// Stale secret loses.
	require.ErrorIs(t, ids.EnableMFA(ctx, alice.ID, "S1", now), store.ErrConflict)
	got, err = ids.GetIdentityByID(ctx, alice.ID)
	require.NoError(t, err)
	require.False(t, got.MFAEnabled)

	require.NoError(t, ids.EnableMFA(ctx, alice.ID, "S2", now))
	got, err = ids.GetIdentityByID(ctx, alice.ID)
	require.NoError(t, err)
	require.True(t, got.MFAEnabled)
	require.NotNil(t, got.MFAEnabledAt)
	require.Equal(t, "S2", *got.MFASecret)

	// Enabled exactly once; later writes to the secret are refused.
	require.ErrorIs(t, ids.EnableMFA(ctx, alice.ID, "S2", now), store.ErrConflict)
	require.ErrorIs(t, ids.SetPendingMFASecret(ctx, alice.ID, "S3", now), store.ErrConflict)
	got, err = ids.GetIdentityByID(ctx, alice.ID)
	require.NoError(t, err)
	require.Equal(t, "S2", *got.MFASecret)

	require.NoError(t, ids.DisableMFA(ctx, alice.ID, now))
	got, err = ids.GetIdentityByID(ctx, alice.ID)
	require.NoError(t, err)
	require.False(t, got.MFAEnabled)
	require.Nil(t, got.MFASecret)
	require.Nil(t, got.MFAEnabledAt)

	require.ErrorIs(t, ids.DisableMFA(ctx, idx.New().String(), now), store.ErrNotFound)
}

func testMFAInvariant(t *testing.T, s store.Store) {
	role := SeedRole(t, s, "user")
	bad := domain.Identity{
		ID:             idx.New().String(),
		Email:          "bad@example.com",
		CredentialHash: "x",
		RoleID:         role.ID,
		MFAEnabled:     true,
	}
	require.Error(t, s.Identities().CreateIdentity(context.Background(), bad))

	_, err := s.Identities().GetIdentityByID(context.Background(), bad.ID)
	require.ErrorIs(t, err, store.ErrNotFound)
}

func testTOTPSteps(t *testing.T, s store.Store) {
	ctx := context.Background()
	role := SeedRole(t, s, "user")
	alice := SeedIdentity(t, s, "alice@example.com", role.ID)
	bob := SeedIdentity(t, s, "bob@example.com", role.ID)
	now := time.Now().UTC()

	steps := s.TOTPSteps()
	require.NoError(t, steps.ConsumeTOTPStep(ctx, alice.ID, 100, now.Add(-time.Minute)))
	require.ErrorIs(t, steps.ConsumeTOTPStep(ctx, alice.ID, 100, now.Add(time.Minute)), store.ErrAlreadyExists)
	require.NoError(t, steps.ConsumeTOTPStep(ctx, alice.ID, 101, now.Add(time.Minute)))
	require.NoError(t, steps.ConsumeTOTPStep(ctx, bob.ID, 100, now.Add(time.Minute)))

	n, err := steps.DeleteExpiredTOTPSteps(ctx, now)
	require.NoError(t, err)
	require.Equal(t, int64(1), n)

	// Purged step can be recorded again.
	require.NoError(t, steps.ConsumeTOTPStep(ctx, alice.ID, 100, now.Add(time.Minute)))
}

func testConcurrentConsume(t *testing.T, s store.Store) {
	ctx := context.Background()
	role := SeedRole(t, s, "user")
	alice := SeedIdentity(t, s, "alice@example.com", role.ID)
	exp := time.Now().UTC().Add(time.Minute)

	const workers = 8
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := s.TOTPSteps().ConsumeTOTPStep(ctx, alice.ID, 42, exp); err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	require.Equal(t, 1, wins)
}

func testSigningKeys(t *testing.T, s store.Store) {
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	older := domain.SigningKey{
		ID:                  idx.New().String(),
		Kid:                 "kushim-old",
		Algorithm:           "EdDSA",
		PrivateKeyEncrypted: []byte{1, 2, 3},
		CreatedAt:           now.Add(-48 * time.Hour),
		ExpiresAt:           now.Add(-24 * time.Hour),
	}
	retired := now.Add(-time.Hour)
	newer := domain.SigningKey{
		ID:                  idx.New().String(),
		Kid:                 "kushim-new",
		Algorithm:           "ES256",
		PrivateKeyEncrypted: []byte{4, 5, 6},
		CreatedAt:           now,
		RetiredAt:           &retired,
		ExpiresAt:           now.Add(24 * time.Hour),
	}
	require.NoError(t, s.SigningKeys().CreateSigningKey(ctx, older))
	require.NoError(t, s.SigningKeys().CreateSigningKey(ctx, newer))

	dup := newer
	dup.ID = idx.New().String()
	require.ErrorIs(t, s.SigningKeys().CreateSigningKey(ctx, dup), store.ErrAlreadyExists)

	keys, err := s.SigningKeys().ListSigningKeys(ctx)
	require.NoError(t, err)
	require.Len(t, keys, 2)
	require.Equal(t, "kushim-new", keys[0].Kid)
	require.Equal(t, []byte{4, 5, 6}, keys[0].PrivateKeyEncrypted)
	require.NotNil(t, keys[0].RetiredAt)
	require.WithinDuration(t, retired, *keys[0].RetiredAt, time.Second)
	require.Nil(t, keys[1].RetiredAt)

	n, err := s.SigningKeys().DeleteExpiredSigningKeys(ctx, now)
	require.NoError(t, err)
	require.Equal(t, int64(1), n)

	keys, err = s.SigningKeys().ListSigningKeys(ctx)
	require.NoError(t, err)
	require.Len(t, keys, 1)
	require.Equal(t, "kushim-new", keys[0].Kid)
}

func testTransactions(t *testing.T, s store.Store) {
	ctx := context.Background()
	role := SeedRole(t, s, "user")

	// Rolled back on error.
	err := s.WithTx(ctx, func(tx store.Tx) error {
		SeedIdentity(t, tx, "rollback@example.com", role.ID)
		return store.ErrConflict
	})
	require.ErrorIs(t, err, store.ErrConflict)
	_, err = s.Identities().GetIdentityByEmail(ctx, "rollback@example.com")
	require.ErrorIs(t, err, store.ErrNotFound)

	// Committed on success.
	err = s.WithTx(ctx, func(tx store.Tx) error {
		SeedIdentity(t, tx, "commit@example.com", role.ID)

		// Nested transactions are refused.
		require.Error(t, tx.WithTx(ctx, func(store.Tx) error { return nil }))
		return nil
	})
	require.NoError(t, err)
	_, err = s.Identities().GetIdentityByEmail(ctx, "commit@example.com")
	require.NoError(t, err)

	require.NoError(t, s.Ping(ctx))
}
