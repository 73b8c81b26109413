package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/usama-mangi/kushim-web-sub002/internal/auth/domain"
	"github.com/usama-mangi/kushim-web-sub002/internal/auth/store"
	"github.com/usama-mangi/kushim-web-sub002/pkg/idx"
	"github.com/usama-mangi/kushim-web-sub002/pkg/slogx"
)

var (
	ErrEmailRequired    = errors.New("email is required")
	ErrPasswordTooShort = errors.New("password must be at least 8 characters")
	ErrRoleNotFound     = errors.New("role not found")
	ErrEmailTaken       = errors.New("email already registered")
)

const minPasswordLength = 8

// IdentityService holds administrative identity operations.
type IdentityService struct {
	Store  store.Store
	Hasher PasswordHasher
	Now    func() time.Time
}

// GetIdentity returns the identity without credential material.
func (s *IdentityService) GetIdentity(ctx context.Context, id string) (domain.Identity, error) {
	identity, err := s.Store.Identities().GetIdentityByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return domain.Identity{}, newError(KindIdentityNotFound, "service.GetIdentity", nil)
	}
	if err != nil {
		return domain.Identity{}, newError(KindInternal, "service.GetIdentity", err)
	}
	return identity.Sanitized(), nil
}

// GetIdentityByEmail is GetIdentity keyed by the exact stored email.
func (s *IdentityService) GetIdentityByEmail(ctx context.Context, email string) (domain.Identity, error) {
	identity, err := s.Store.Identities().GetIdentityByEmail(ctx, strings.TrimSpace(email))
	if errors.Is(err, store.ErrNotFound) {
		return domain.Identity{}, newError(KindIdentityNotFound, "service.GetIdentityByEmail", nil)
	}
	if err != nil {
		return domain.Identity{}, newError(KindInternal, "service.GetIdentityByEmail", err)
	}
	return identity.Sanitized(), nil
}

// CreateIdentity registers a password identity with the named role.
func (s *IdentityService) CreateIdentity(ctx context.Context, email, password, roleName string) (domain.Identity, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return domain.Identity{}, ErrEmailRequired
	}
	if len(password) < minPasswordLength {
		return domain.Identity{}, ErrPasswordTooShort
	}

	hash, err := s.Hasher.Hash(password)
	if err != nil {
		return domain.Identity{}, fmt.Errorf("failed to hash password: %w", err)
	}

	now := nowFunc(s.Now)
	identity := domain.Identity{
		ID:             idx.NewAt(now).String(),
		Email:          email,
		CredentialHash: hash,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		role, err := tx.Roles().GetRoleByName(ctx, roleName)
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("%w: %s", ErrRoleNotFound, roleName)
		}
		if err != nil {
			return err
		}
		identity.RoleID = role.ID

		if err := tx.Identities().CreateIdentity(ctx, identity); err != nil {
			if errors.Is(err, store.ErrAlreadyExists) {
				return ErrEmailTaken
			}
			return err
		}
		return nil
	})
	if err != nil {
		return domain.Identity{}, err
	}

	slogx.FromContext(ctx).Info("identity created", "identity_id", identity.ID, "role", roleName)
	return identity.Sanitized(), nil
}

// SetPassword replaces the credential hash.
func (s *IdentityService) SetPassword(ctx context.Context, id, password string) error {
	if len(password) < minPasswordLength {
		return ErrPasswordTooShort
	}
	hash, err := s.Hasher.Hash(password)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	err = s.Store.Identities().UpdateCredentialHash(ctx, id, hash, nowFunc(s.Now))
	if errors.Is(err, store.ErrNotFound) {
		return newError(KindIdentityNotFound, "service.SetPassword", nil)
	}
	return err
}

// ResetMFA clears the secret and disables MFA. Challenge tokens already
// issued for the identity then fail with ErrMFANotEnabled.
func (s *IdentityService) ResetMFA(ctx context.Context, id string) error {
	err := s.Store.Identities().DisableMFA(ctx, id, nowFunc(s.Now))
	if errors.Is(err, store.ErrNotFound) {
		return newError(KindIdentityNotFound, "service.ResetMFA", nil)
	}
	if err != nil {
		return err
	}

	slogx.FromContext(ctx).Info("mfa reset", "identity_id", id)
	return nil
}
