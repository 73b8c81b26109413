package sqlstore

import (
	"context"
	"time"

	"github.com/usama-mangi/kushim-web-sub002/internal/auth/domain"
	"github.com/usama-mangi/kushim-web-sub002/internal/auth/store"
)

type identitiesRepo struct {
	q *Queries
	d Dialect
}

func (r *identitiesRepo) GetIdentityByID(ctx context.Context, id string) (domain.Identity, error) {
	row, err := r.q.GetIdentityByID(ctx, id)
	if err != nil {
		return domain.Identity{}, mapNotFound(err)
	}
	return mapIdentity(row), nil
}

func (r *identitiesRepo) GetIdentityByEmail(ctx context.Context, email string) (domain.Identity, error) {
	row, err := r.q.GetIdentityByEmail(ctx, email)
	if err != nil {
		return domain.Identity{}, mapNotFound(err)
	}
	return mapIdentity(row), nil
}

func (r *identitiesRepo) CreateIdentity(ctx context.Context, i domain.Identity) error {
	now := time.Now().UTC()
	createdAt, updatedAt := i.CreatedAt.UTC(), i.UpdatedAt.UTC()
	if i.CreatedAt.IsZero() {
		createdAt = now
	}
	if i.UpdatedAt.IsZero() {
		updatedAt = createdAt
	}

	err := r.q.CreateIdentity(ctx, IdentityRow{
		ID:             i.ID,
		Email:          i.Email,
		CredentialHash: i.CredentialHash,
		RoleID:         i.RoleID,
		MfaEnabled:     i.MFAEnabled,
		MfaSecret:      mapOptionalString(i.MFASecret),
		MfaEnabledAt:   mapOptionalTime(i.MFAEnabledAt),
		CreatedAt:      createdAt,
		UpdatedAt:      updatedAt,
	})
	return mapWriteErr(r.d, err)
}

func (r *identitiesRepo) UpdateCredentialHash(ctx context.Context, id string, hash string, now time.Time) error {
	n, err := r.q.UpdateCredentialHash(ctx, id, hash, now.UTC())
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *identitiesRepo) SetPendingMFASecret(ctx context.Context, id string, secret string, now time.Time) error {
	n, err := r.q.SetPendingMFASecret(ctx, id, secret, now.UTC())
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	return r.missingOrConflict(ctx, id)
}

func (r *identitiesRepo) EnableMFA(ctx context.Context, id string, expectedSecret string, now time.Time) error {
	n, err := r.q.EnableMFA(ctx, id, expectedSecret, now.UTC())
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	return r.missingOrConflict(ctx, id)
}

func (r *identitiesRepo) DisableMFA(ctx context.Context, id string, now time.Time) error {
	n, err := r.q.DisableMFA(ctx, id, now.UTC())
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

// missingOrConflict explains why a conditional update touched no row.
func (r *identitiesRepo) missingOrConflict(ctx context.Context, id string) error {
	ok, err := r.q.IdentityExists(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return store.ErrNotFound
	}
	return store.ErrConflict
}

func mapIdentity(row IdentityRow) domain.Identity {
	return domain.Identity{
		ID:             row.ID,
		Email:          row.Email,
		CredentialHash: row.CredentialHash,
		RoleID:         row.RoleID,
		MFAEnabled:     row.MfaEnabled,
		MFAEnabledAt:   mapNullTimePtr(row.MfaEnabledAt),
		MFASecret:      mapNullStringPtr(row.MfaSecret),
		CreatedAt:      row.CreatedAt.UTC(),
		UpdatedAt:      row.UpdatedAt.UTC(),
	}
}
