package service

import (
	"context"
	"time"

	"github.com/usama-mangi/kushim-web-sub002/pkg/jwtx"
	"github.com/usama-mangi/kushim-web-sub002/pkg/otpx"
)

// PasswordHasher hashes and checks credentials. Verify returns nil only on
// a match. Implemented by cryptox.Argon2Hasher.
type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, encoded string) error
}

// TOTPEngine is implemented by otpx.Engine.
type TOTPEngine interface {
	Generate(account string) (otpx.Key, error)

	// Verify reports whether code is valid at the given instant within the
	// skew window, and which time step it matched.
	Verify(secret, code string, at time.Time) (int64, bool, error)

	// Window is how long a single code stays acceptable.
	Window() time.Duration
}

// ReplayGuard remembers consumed (identity, step) pairs. Consume returns
// true exactly once per pair until expiresAt.
type ReplayGuard interface {
	Consume(ctx context.Context, identityID string, step int64, expiresAt time.Time) (bool, error)
}

// TokenSigner is implemented by jwtx.KeyManager.
type TokenSigner interface {
	Sign(claims jwtx.Claims) (string, error)
}

func nowFunc(fn func() time.Time) time.Time {
	if fn != nil {
		return fn().UTC()
	}
	return time.Now().UTC()
}
