package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/usama-mangi/kushim-web-sub002/internal/auth/domain"
	"github.com/usama-mangi/kushim-web-sub002/internal/auth/store"
	"github.com/usama-mangi/kushim-web-sub002/pkg/cryptox"
	"github.com/usama-mangi/kushim-web-sub002/pkg/slogx"
)

// CredentialValidator checks an email and password pair. Unknown emails and
// wrong passwords are indistinguishable to the caller.
//
// Build it with NewCredentialValidator so the hash verified against on
// unknown emails exists before the first request.
type CredentialValidator struct {
	Store  store.Store
	Hasher PasswordHasher

	dummyHash string
}

// NewCredentialValidator hashes a random value up front. Unknown emails are
// verified against that hash so both failure paths cost one full
// verification, starting with the first request.
func NewCredentialValidator(st store.Store, hasher PasswordHasher) (*CredentialValidator, error) {
	token, err := cryptox.GenerateToken(cryptox.TokenSize128)
	if err != nil {
		return nil, fmt.Errorf("failed to generate dummy credential: %w", err)
	}
	dummy, err := hasher.Hash(token)
	if err != nil {
		return nil, fmt.Errorf("failed to hash dummy credential: %w", err)
	}
	return &CredentialValidator{Store: st, Hasher: hasher, dummyHash: dummy}, nil
}

// Validate returns the identity with its credential hash cleared.
func (v *CredentialValidator) Validate(ctx context.Context, email, password string) (domain.Identity, error) {
	const op = "service.Validate"
	log := slogx.FromContext(ctx)

	identity, err := v.Store.Identities().GetIdentityByEmail(ctx, email)
	if errors.Is(err, store.ErrNotFound) {
		_ = v.Hasher.Verify(password, v.dummyHash)
		log.Warn("login rejected", "reason", "unknown email")
		return domain.Identity{}, newError(KindUnauthorized, op, nil)
	}
	if err != nil {
		return domain.Identity{}, newError(KindInternal, op, err)
	}

	if err := v.Hasher.Verify(password, identity.CredentialHash); err != nil {
		if !errors.Is(err, cryptox.ErrMismatch) {
			log.Error("stored credential hash unusable", "identity_id", identity.ID, "error", err)
		} else {
			log.Warn("login rejected", "reason", "wrong password", "identity_id", identity.ID)
		}
		return domain.Identity{}, newError(KindUnauthorized, op, nil)
	}

	return identity.Sanitized(), nil
}
