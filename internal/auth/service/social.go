package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/usama-mangi/kushim-web-sub002/internal/auth/domain"
	"github.com/usama-mangi/kushim-web-sub002/internal/auth/metrics"
	"github.com/usama-mangi/kushim-web-sub002/internal/auth/store"
	"github.com/usama-mangi/kushim-web-sub002/pkg/cryptox"
	"github.com/usama-mangi/kushim-web-sub002/pkg/idx"
	"github.com/usama-mangi/kushim-web-sub002/pkg/slogx"
)

// SocialResolver maps an email asserted by an external provider onto a
// local identity, creating one on first sight.
//
// Any configured provider is trusted to assert any email: a provider
// returning an address that belongs to an existing password account logs
// into that account.
type SocialResolver struct {
	Store       store.Store
	Hasher      PasswordHasher
	DefaultRole string // role name for new identities
	Metrics     metrics.Recorder
	Now         func() time.Time
}

// Resolve returns the identity for email. Two concurrent calls for the same
// new email return the same identity.
func (r *SocialResolver) Resolve(ctx context.Context, email, provider string) (domain.Identity, error) {
	const op = "service.Resolve"
	log := slogx.FromContext(ctx)
	rec := metrics.OrNop(r.Metrics)

	email = strings.TrimSpace(email)
	if email == "" {
		rec.RecordSocial(provider, metrics.OutcomeRejected)
		return domain.Identity{}, newError(KindUnauthorized, op, errors.New("provider returned no email"))
	}

	identity, err := r.Store.Identities().GetIdentityByEmail(ctx, email)
	if err == nil {
		log.Info("social login matched existing identity", "identity_id", identity.ID, "provider", provider)
		rec.RecordSocial(provider, metrics.OutcomeMatched)
		return identity.Sanitized(), nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		rec.RecordSocial(provider, metrics.OutcomeError)
		return domain.Identity{}, newError(KindInternal, op, err)
	}

	role, err := r.Store.Roles().GetRoleByName(ctx, r.DefaultRole)
	if err != nil {
		log.Error("default role unavailable", "role", r.DefaultRole, "error", err)
		rec.RecordSocial(provider, metrics.OutcomeError)
		return domain.Identity{}, newError(KindRoleResolution, op, err)
	}

	placeholder, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		return domain.Identity{}, newError(KindInternal, op, err)
	}
	hash, err := r.Hasher.Hash(placeholder)
	if err != nil {
		return domain.Identity{}, newError(KindInternal, op, err)
	}

	now := nowFunc(r.Now)
	identity = domain.Identity{
		ID:             idx.NewAt(now).String(),
		Email:          email,
		CredentialHash: hash,
		RoleID:         role.ID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	err = r.Store.Identities().CreateIdentity(ctx, identity)
	if errors.Is(err, store.ErrAlreadyExists) {
		// lost a concurrent first login; return the winner
		winner, getErr := r.Store.Identities().GetIdentityByEmail(ctx, email)
		if getErr != nil {
			return domain.Identity{}, newError(KindInternal, op, getErr)
		}
		rec.RecordSocial(provider, metrics.OutcomeMatched)
		return winner.Sanitized(), nil
	}
	if err != nil {
		rec.RecordSocial(provider, metrics.OutcomeError)
		return domain.Identity{}, newError(KindInternal, op, err)
	}

	log.Info("identity created from social login", "identity_id", identity.ID, "provider", provider)
	rec.RecordSocial(provider, metrics.OutcomeCreated)
	return identity.Sanitized(), nil
}
