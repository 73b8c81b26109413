package sqlstore

import (
	"context"
	"time"

	"github.com/usama-mangi/kushim-web-sub002/internal/auth/domain"
)

type signingKeysRepo struct {
	q *Queries
	d Dialect
}

func (r *signingKeysRepo) CreateSigningKey(ctx context.Context, key domain.SigningKey) error {
	err := r.q.CreateSigningKey(ctx, SigningKeyRow{
		ID:                  key.ID,
		Kid:                 key.Kid,
		Algorithm:           key.Algorithm,
		PrivateKeyEncrypted: key.PrivateKeyEncrypted,
		CreatedAt:           key.CreatedAt.UTC(),
		RetiredAt:           mapOptionalTime(key.RetiredAt),
		ExpiresAt:           key.ExpiresAt.UTC(),
	})
	return mapWriteErr(r.d, err)
}

func (r *signingKeysRepo) ListSigningKeys(ctx context.Context) ([]domain.SigningKey, error) {
	rows, err := r.q.ListSigningKeys(ctx)
	if err != nil {
		return nil, err
	}

	keys := make([]domain.SigningKey, len(rows))
	for i, row := range rows {
		keys[i] = domain.SigningKey{
			ID:                  row.ID,
			Kid:                 row.Kid,
			Algorithm:           row.Algorithm,
			PrivateKeyEncrypted: row.PrivateKeyEncrypted,
			CreatedAt:           row.CreatedAt.UTC(),
			RetiredAt:           mapNullTimePtr(row.RetiredAt),
			ExpiresAt:           row.ExpiresAt.UTC(),
		}
	}
	return keys, nil
}

func (r *signingKeysRepo) DeleteExpiredSigningKeys(ctx context.Context, before time.Time) (int64, error) {
	return r.q.DeleteExpiredSigningKeys(ctx, before.UTC())
}
