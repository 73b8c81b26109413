package store

import (
	"context"
	"errors"
	"time"

	"github.com/usama-mangi/kushim-web-sub002/internal/auth/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")

	// ErrConflict is returned when a conditional update matched no row
	// because the stored state no longer satisfies the condition.
	ErrConflict = errors.New("store: conflict")
)

// Store is the root data access interface. Concrete drivers (sqlite,
// postgres, memory) implement this. Sub-repositories are reached through
// methods so a Tx-scoped Store can hand out tx-bound repos and refuse to
// nest another transaction.
type Store interface {
	Identities() Identities
	Roles() Roles
	TOTPSteps() TOTPSteps
	SigningKeys() SigningKeys

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx executes a function within a transaction.
	// If fn returns an error, the transaction is rolled back.
	// If fn returns nil, the transaction is committed.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// Close releases any underlying resources.
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It embeds the same repos but adds Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Identities interface {
	GetIdentityByID(ctx context.Context, id string) (domain.Identity, error)

	// GetIdentityByEmail is an exact match on the stored email.
	GetIdentityByEmail(ctx context.Context, email string) (domain.Identity, error)

	// CreateIdentity inserts a new identity. ErrAlreadyExists when the id or
	// email is taken, ErrNotFound when the role does not exist.
	CreateIdentity(ctx context.Context, i domain.Identity) error

	// UpdateCredentialHash replaces the stored PHC hash and bumps updated_at.
	UpdateCredentialHash(ctx context.Context, id string, hash string, now time.Time) error

	// SetPendingMFASecret overwrites the stored secret in one statement,
	// only while MFA is disabled. ErrConflict when MFA is already enabled.
	SetPendingMFASecret(ctx context.Context, id string, secret string, now time.Time) error

	// EnableMFA flips mfa_enabled only if the stored secret still equals
	// expectedSecret and MFA is not yet enabled. ErrConflict otherwise.
	EnableMFA(ctx context.Context, id string, expectedSecret string, now time.Time) error

	// DisableMFA clears the flag, the secret and mfa_enabled_at.
	DisableMFA(ctx context.Context, id string, now time.Time) error
}

type Roles interface {
	GetRoleByID(ctx context.Context, id string) (domain.Role, error)

	// GetRoleByName is used to resolve the default role for new identities.
	GetRoleByName(ctx context.Context, name string) (domain.Role, error)

	// ListRoles returns all roles ordered by name.
	ListRoles(ctx context.Context) ([]domain.Role, error)

	// CreateRole inserts a new role (id is ULID). ErrAlreadyExists on a duplicate name.
	CreateRole(ctx context.Context, r domain.Role) error
}

// TOTPSteps records consumed TOTP time steps so a code is accepted once.
type TOTPSteps interface {
	// ConsumeTOTPStep records (identityID, step). ErrAlreadyExists when the
	// pair was already consumed.
	ConsumeTOTPStep(ctx context.Context, identityID string, step int64, expiresAt time.Time) error

	// DeleteExpiredTOTPSteps is housekeeping; returns the number of rows removed.
	DeleteExpiredTOTPSteps(ctx context.Context, now time.Time) (int64, error)
}

type SigningKeys interface {
	// CreateSigningKey stores a new signing key with encrypted private key material.
	CreateSigningKey(ctx context.Context, key domain.SigningKey) error

	// ListSigningKeys returns all signing keys (including retired and expired)
	// ordered by creation date (newest first).
	ListSigningKeys(ctx context.Context) ([]domain.SigningKey, error)

	// DeleteExpiredSigningKeys removes keys whose expires_at is before the
	// given instant. Returns the number of rows removed.
	DeleteExpiredSigningKeys(ctx context.Context, before time.Time) (int64, error)
}
