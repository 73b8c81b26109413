package domain

import "time"

// SigningKey is a JWT signing key persisted with its private half encrypted
// at rest. A key signs until ExpiresAt and stays published for verification
// for a grace period after that.
type SigningKey struct {
	ID                  string     // ULID
	Kid                 string     // JWKS key id, e.g. "kushim-abc123"
	Algorithm           string     // RS256, ES256 or EdDSA
	PrivateKeyEncrypted []byte     // AES-256-GCM sealed PKCS8 PEM
	CreatedAt           time.Time
	RetiredAt           *time.Time // nil while eligible for signing
	ExpiresAt           time.Time
}

// IsActive returns true if the key is not retired and not expired.
func (k *SigningKey) IsActive(now time.Time) bool {
	return k.RetiredAt == nil && now.Before(k.ExpiresAt)
}
