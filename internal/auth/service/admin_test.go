package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIdentityService_CreateIdentity(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	identity, err := h.identities.CreateIdentity(ctx, " bob@example.com ", testPassword, "admin")
	require.NoError(t, err)
	require.Equal(t, "bob@example.com", identity.Email)
	require.Empty(t, identity.CredentialHash)

	admin, err := h.roles.Store.Roles().GetRoleByName(ctx, "admin")
	require.NoError(t, err)
	require.Equal(t, admin.ID, identity.RoleID)

	_, err = h.identities.CreateIdentity(ctx, "bob@example.com", testPassword, "admin")
	require.ErrorIs(t, err, ErrEmailTaken)

	_, err = h.identities.CreateIdentity(ctx, "x@example.com", testPassword, "ghost")
	require.ErrorIs(t, err, ErrRoleNotFound)

	_, err = h.identities.CreateIdentity(ctx, "", testPassword, "user")
	require.ErrorIs(t, err, ErrEmailRequired)

	_, err = h.identities.CreateIdentity(ctx, "y@example.com", "short", "user")
	require.ErrorIs(t, err, ErrPasswordTooShort)
}

func TestIdentityService_SetPassword(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	alice := h.createIdentity(t, "alice@example.com")

	require.NoError(t, h.identities.SetPassword(ctx, alice.ID, "a brand new password"))

	_, err := h.auth.Login(ctx, "alice@example.com", testPassword)
	require.ErrorIs(t, err, ErrUnauthorized)
	_, err = h.auth.Login(ctx, "alice@example.com", "a brand new password")
	require.NoError(t, err)

	require.ErrorIs(t, h.identities.SetPassword(ctx, "missing", "long enough pw"), ErrIdentityNotFound)
	require.ErrorIs(t, h.identities.SetPassword(ctx, alice.ID, "short"), ErrPasswordTooShort)
}

func TestIdentityService_GetAndReset(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	alice := h.createIdentity(t, "alice@example.com")

	got, err := h.identities.GetIdentity(ctx, alice.ID)
	require.NoError(t, err)
	require.Empty(t, got.CredentialHash)

	_, err = h.identities.GetIdentity(ctx, "missing")
	require.ErrorIs(t, err, ErrIdentityNotFound)

	byEmail, err := h.identities.GetIdentityByEmail(ctx, " alice@example.com")
	require.NoError(t, err)
	require.Equal(t, alice.ID, byEmail.ID)
	require.Empty(t, byEmail.CredentialHash)

	_, err = h.identities.GetIdentityByEmail(ctx, "nobody@example.com")
	require.ErrorIs(t, err, ErrIdentityNotFound)

	require.ErrorIs(t, h.identities.ResetMFA(ctx, "missing"), ErrIdentityNotFound)
}

func TestRolesService(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	role, err := h.roles.CreateRole(ctx, "auditor")
	require.NoError(t, err)
	require.NotEmpty(t, role.ID)

	_, err = h.roles.CreateRole(ctx, "auditor")
	require.ErrorIs(t, err, ErrRoleExists)

	_, err = h.roles.CreateRole(ctx, " ")
	require.ErrorIs(t, err, ErrRoleNameRequired)

	got, err := h.roles.GetRoleByID(ctx, role.ID)
	require.NoError(t, err)
	require.Equal(t, "auditor", got.Name)

	roles, err := h.roles.ListRoles(ctx)
	require.NoError(t, err)
	require.Len(t, roles, 3)

	// Idempotent.
	require.NoError(t, h.roles.EnsureRoles(ctx, "admin", "user", "auditor"))
}
