package store

import (
	"context"

	"github.com/usama-mangi/kushim-web-sub002/internal/auth/domain"
	"github.com/usama-mangi/kushim-web-sub002/pkg/jwtx"
)

// KeyStoreAdapter adapts Store to jwtx.KeyStore so jwtx never imports
// the domain package.
type KeyStoreAdapter struct {
	store Store
}

func NewKeyStoreAdapter(store Store) *KeyStoreAdapter {
	return &KeyStoreAdapter{store: store}
}

func (a *KeyStoreAdapter) ListSigningKeys(ctx context.Context) ([]jwtx.SigningKeyRecord, error) {
	keys, err := a.store.SigningKeys().ListSigningKeys(ctx)
	if err != nil {
		return nil, err
	}

	records := make([]jwtx.SigningKeyRecord, len(keys))
	for i, key := range keys {
		records[i] = jwtx.SigningKeyRecord{
			ID:                  key.ID,
			Kid:                 key.Kid,
			Algorithm:           key.Algorithm,
			PrivateKeyEncrypted: key.PrivateKeyEncrypted,
			CreatedAt:           key.CreatedAt,
			RetiredAt:           key.RetiredAt,
			ExpiresAt:           key.ExpiresAt,
		}
	}
	return records, nil
}

func (a *KeyStoreAdapter) CreateSigningKey(ctx context.Context, rec jwtx.SigningKeyRecord) error {
	return a.store.SigningKeys().CreateSigningKey(ctx, domain.SigningKey{
		ID:                  rec.ID,
		Kid:                 rec.Kid,
		Algorithm:           rec.Algorithm,
		PrivateKeyEncrypted: rec.PrivateKeyEncrypted,
		CreatedAt:           rec.CreatedAt,
		RetiredAt:           rec.RetiredAt,
		ExpiresAt:           rec.ExpiresAt,
	})
}

var _ jwtx.KeyStore = (*KeyStoreAdapter)(nil)
