package jwtx

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/usama-mangi/kushim-web-sub002/pkg/cryptox"
	"github.com/usama-mangi/kushim-web-sub002/pkg/idx"
)

// SigningKeyRecord is a signing key as persisted by a KeyStore.
type SigningKeyRecord struct {
	ID                  string
	Kid                 string
	Algorithm           string
	PrivateKeyEncrypted []byte
	CreatedAt           time.Time
	RetiredAt           *time.Time
	ExpiresAt           time.Time
}

// KeyStore is the persistence the KeyManager needs. It is declared here so
// jwtx does not depend on any storage package.
type KeyStore interface {
	// ListSigningKeys returns every stored key, retired and expired included.
	ListSigningKeys(ctx context.Context) ([]SigningKeyRecord, error)

	// CreateSigningKey stores a new key with encrypted private material.
	CreateSigningKey(ctx context.Context, key SigningKeyRecord) error
}

// PersistentKeyManagerOptions configures a KeyManager with persistent key storage.
type PersistentKeyManagerOptions struct {
	KeyManagerOptions

	Store  KeyStore
	Cipher *cryptox.KeyCipher

	// Lifetime is how long a new key signs tokens. Defaults to 30 days.
	Lifetime time.Duration

	// VerifyGrace keeps a key verifiable after its lifetime ends so tokens
	// signed just before then stay valid. Defaults to 24h.
	VerifyGrace time.Duration

	// Now overrides the clock, for tests.
	Now func() time.Time
}

// NewPersistentKeyManager loads keys from the store and tops the active set
// up to NumKeys with freshly generated, encrypted keys.
//
// Keys whose lifetime has ended stay in the KeySet until VerifyGrace passes
// but are never chosen for signing.
func NewPersistentKeyManager(ctx context.Context, opts PersistentKeyManagerOptions) (*KeyManager, error) {
	if opts.Store == nil {
		return nil, errors.New("jwtx: Store is required for persistent key manager")
	}
	if opts.Cipher == nil {
		return nil, errors.New("jwtx: Cipher is required for persistent key manager")
	}
	if err := opts.normalize(); err != nil {
		return nil, err
	}
	if opts.Lifetime <= 0 {
		opts.Lifetime = 30 * 24 * time.Hour
	}
	if opts.VerifyGrace <= 0 {
		opts.VerifyGrace = 24 * time.Hour
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	records, err := opts.Store.ListSigningKeys(ctx)
	if err != nil {
		return nil, fmt.Errorf("jwtx: load signing keys: %w", err)
	}

	km := newKeyManager(opts.KeyManagerOptions)
	now := opts.Now().UTC()
	active := 0

	for _, rec := range records {
		if !now.Before(rec.ExpiresAt.Add(opts.VerifyGrace)) {
			continue // past verification window, housekeeping will delete it
		}

		pemData, err := opts.Cipher.Decrypt(rec.PrivateKeyEncrypted)
		if err != nil {
			return nil, fmt.Errorf("jwtx: decrypt key %s: %w", rec.Kid, err)
		}
		signer, err := NewSigner(rec.Algorithm, rec.Kid, pemData)
		if err != nil {
			return nil, fmt.Errorf("jwtx: load key %s: %w", rec.Kid, err)
		}

		if rec.RetiredAt == nil && now.Before(rec.ExpiresAt) && active < opts.NumKeys {
			if err := km.addActive(signer); err != nil {
				return nil, err
			}
			active++
			continue
		}

		if err := km.KeySet.AddSigner(signer); err != nil {
			return nil, fmt.Errorf("jwtx: add key %s to keyset: %w", rec.Kid, err)
		}
	}

	for active < opts.NumKeys {
		kid, err := generateRandomKeyID()
		if err != nil {
			return nil, err
		}

		pemData, signer, err := generateSigner(opts.Algorithm, kid, opts.RSABits)
		if err != nil {
			return nil, fmt.Errorf("jwtx: generate key: %w", err)
		}

		encrypted, err := opts.Cipher.Encrypt(pemData)
		if err != nil {
			return nil, fmt.Errorf("jwtx: encrypt key: %w", err)
		}

		rec := SigningKeyRecord{
			ID:                  idx.New().String(),
			Kid:                 kid,
			Algorithm:           opts.Algorithm,
			PrivateKeyEncrypted: encrypted,
			CreatedAt:           now,
			ExpiresAt:           now.Add(opts.Lifetime),
		}
		if err := opts.Store.CreateSigningKey(ctx, rec); err != nil {
			return nil, fmt.Errorf("jwtx: store key: %w", err)
		}

		if err := km.addActive(signer); err != nil {
			return nil, err
		}
		active++
	}

	return km, nil
}
