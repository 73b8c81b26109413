package cryptox

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

// Token size constants (in bytes before encoding).
const (
	// TokenSize128 provides 128 bits of entropy (22 chars base64url).
	TokenSize128 = 16
	// TokenSize256 provides 256 bits of entropy (43 chars base64url).
	TokenSize256 = 32
)

// GenerateToken creates a cryptographically secure random token of size bytes.
// The token is returned as a base64url-encoded string (URL-safe, no padding).
// Returns an error if size is not positive or the random number generator
// fails.
//
// Sizes used in this module:
//   - TokenSize128 (16 bytes): signing key IDs, and the dummy credential
//     verified against on unknown emails
//   - TokenSize256 (32 bytes): social login state, and the unusable password
//     placeholder given to identities created by social login
func GenerateToken(size int) (string, error) {
	if size <= 0 {
		return "", fmt.Errorf("cryptox: token size must be positive, got %d", size)
	}

	buf := make([]byte, size)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("cryptox: generate token: %w", err)
	}

	return base64.RawURLEncoding.EncodeToString(buf), nil
}
