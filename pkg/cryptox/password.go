package cryptox

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"
)

// Default Argon2id parameters (OWASP minimum profile).
const (
	DefaultMemory      = 19 * 1024 // KiB
	DefaultIterations  = 2
	DefaultParallelism = 1
	DefaultKeyLength   = 32
	DefaultSaltLength  = 16
)

var (
	// ErrMismatch is returned when a password does not match its hash.
	ErrMismatch = errors.New("cryptox: password does not match")

	// ErrUnsupportedHash is returned for hashes in an unknown format.
	ErrUnsupportedHash = errors.New("cryptox: unsupported hash format")
)

// Argon2Hasher produces PHC-format Argon2id hashes. The pepper is appended to
// every plaintext before hashing and is never stored next to the hash.
//
// Verify also accepts bcrypt hashes ($2a$, $2b$, $2y$) so identities imported
// from older systems can still sign in. Bcrypt hashes are verified without the
// pepper.
type Argon2Hasher struct {
	Pepper      string
	Memory      uint32
	Iterations  uint32
	Parallelism uint8
	KeyLength   uint32
	SaltLength  int
}

// NewArgon2Hasher returns a hasher with the default parameters.
func NewArgon2Hasher(pepper string) *Argon2Hasher {
	return &Argon2Hasher{
		Pepper:      pepper,
		Memory:      DefaultMemory,
		Iterations:  DefaultIterations,
		Parallelism: DefaultParallelism,
		KeyLength:   DefaultKeyLength,
		SaltLength:  DefaultSaltLength,
	}
}

// Hash returns "$argon2id$v=19$m=...,t=...,p=...$salt$hash".
func (h *Argon2Hasher) Hash(plaintext string) (string, error) {
	salt := make([]byte, h.SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("cryptox: read salt: %w", err)
	}

	key := argon2.IDKey([]byte(plaintext+h.Pepper), salt, h.Iterations, h.Memory, h.Parallelism, h.KeyLength)

	return fmt.Sprintf(
		"$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		h.Memory,
		h.Iterations,
		h.Parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

// Verify compares plaintext against an encoded hash in constant time.
// It returns ErrMismatch on a wrong password and a wrapped
// ErrUnsupportedHash when the encoding cannot be parsed.
func (h *Argon2Hasher) Verify(plaintext, encoded string) error {
	if isBcrypt(encoded) {
		err := bcrypt.CompareHashAndPassword([]byte(encoded), []byte(plaintext))
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return ErrMismatch
		}
		if err != nil {
			return fmt.Errorf("%w: %v", ErrUnsupportedHash, err)
		}
		return nil
	}

	params, salt, want, err := decodeArgon2(encoded)
	if err != nil {
		return err
	}

	got := argon2.IDKey(
		[]byte(plaintext+h.Pepper),
		salt,
		params.iterations,
		params.memory,
		params.parallelism,
		uint32(len(want)), // #nosec G115 -- decoded key length is bounded by the hash string
	)

	if subtle.ConstantTimeCompare(got, want) != 1 {
		return ErrMismatch
	}
	return nil
}

type argon2Params struct {
	memory      uint32
	iterations  uint32
	parallelism uint8
}

// decodeArgon2 parses ["", "argon2id", "v=19", "m=X,t=Y,p=Z", salt, hash].
func decodeArgon2(encoded string) (argon2Params, []byte, []byte, error) {
	var p argon2Params

	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[0] != "" {
		return p, nil, nil, fmt.Errorf("%w: expected 6 segments", ErrUnsupportedHash)
	}
	if parts[1] != "argon2id" {
		return p, nil, nil, fmt.Errorf("%w: algorithm %q", ErrUnsupportedHash, parts[1])
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return p, nil, nil, fmt.Errorf("%w: version %q", ErrUnsupportedHash, parts[2])
	}

	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &p.memory, &p.iterations, &p.parallelism); err != nil {
		return p, nil, nil, fmt.Errorf("%w: parameters: %v", ErrUnsupportedHash, err)
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return p, nil, nil, fmt.Errorf("%w: salt: %v", ErrUnsupportedHash, err)
	}
	key, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(key) == 0 {
		return p, nil, nil, fmt.Errorf("%w: key", ErrUnsupportedHash)
	}

	return p, salt, key, nil
}

func isBcrypt(encoded string) bool {
	return strings.HasPrefix(encoded, "$2a$") ||
		strings.HasPrefix(encoded, "$2b$") ||
		strings.HasPrefix(encoded, "$2y$")
}
