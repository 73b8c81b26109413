package cryptox

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newTestHasher() *Argon2Hasher {
	h := NewArgon2Hasher("test-pepper")
	// Keep tests fast; the encoding carries the parameters.
	h.Memory = 1024
	h.Iterations = 1
	return h
}

func TestArgon2Hasher_Hash(t *testing.T) {
	h := newTestHasher()

	tests := []struct {
		name     string
		password string
	}{
		{"simple password", "password123"},
		{"complex password", "P@ssw0rd!#$%^&*()"},
		{"long password", strings.Repeat("a", 100)},
		{"empty password", ""},
		{"unicode password", "пароль🔒密码"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hash, err := h.Hash(tt.password)
			require.NoError(t, err)
			require.True(t, strings.HasPrefix(hash, "$argon2id$v=19$m=1024,t=1,p=1$"), hash)
			require.Len(t, strings.Split(hash, "$"), 6)

			require.NoError(t, h.Verify(tt.password, hash))
		})
	}
}

func TestArgon2Hasher_UniqueSalts(t *testing.T) {
	h := newTestHasher()

	a, err := h.Hash("same")
	require.NoError(t, err)
	b, err := h.Hash("same")
	require.NoError(t, err)

	require.NotEqual(t, a, b)
}

func TestArgon2Hasher_WrongPassword(t *testing.T) {
	h := newTestHasher()

	hash, err := h.Hash("correct horse")
	require.NoError(t, err)

	require.ErrorIs(t, h.Verify("battery staple", hash), ErrMismatch)
	require.ErrorIs(t, h.Verify("", hash), ErrMismatch)
}

func TestArgon2Hasher_PepperMatters(t *testing.T) {
	h := newTestHasher()
	hash, err := h.Hash("secret")
	require.NoError(t, err)

	other := newTestHasher()
	other.Pepper = "different"
	require.ErrorIs(t, other.Verify("secret", hash), ErrMismatch)
}

func TestArgon2Hasher_ParamsReadFromHash(t *testing.T) {
	weak := newTestHasher()
	hash, err := weak.Hash("secret")
	require.NoError(t, err)

	// A hasher configured with stronger params still verifies old hashes.
	strong := NewArgon2Hasher("test-pepper")
	require.NoError(t, strong.Verify("secret", hash))
}

func TestArgon2Hasher_InvalidHashFormat(t *testing.T) {
	h := newTestHasher()

	tests := []struct {
		name string
		hash string
	}{
		{"empty", ""},
		{"plain text", "not-a-hash"},
		{"wrong algorithm", "$argon2i$v=19$m=1024,t=1,p=1$c2FsdA$aGFzaA"},
		{"wrong version", "$argon2id$v=16$m=1024,t=1,p=1$c2FsdA$aGFzaA"},
		{"bad params", "$argon2id$v=19$garbage$c2FsdA$aGFzaA"},
		{"bad salt", "$argon2id$v=19$m=1024,t=1,p=1$!!!$aGFzaA"},
		{"missing segment", "$argon2id$v=19$m=1024,t=1,p=1$c2FsdA"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := h.Verify("password", tt.hash)
			require.ErrorIs(t, err, ErrUnsupportedHash)
		})
	}
}

func TestArgon2Hasher_LegacyBcrypt(t *testing.T) {
	h := newTestHasher()

	legacy, err := bcrypt.GenerateFromPassword([]byte("legacy-password"), bcrypt.MinCost)
	require.NoError(t, err)

	require.NoError(t, h.Verify("legacy-password", string(legacy)))
	require.ErrorIs(t, h.Verify("wrong", string(legacy)), ErrMismatch)
}

func TestLoadOrCreatePepper(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "pepper")

	first, err := LoadOrCreatePepper(path)
	require.NoError(t, err)
	require.NotEmpty(t, first)

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	second, err := LoadOrCreatePepper(path)
	require.NoError(t, err)
	require.Equal(t, first, second, "pepper must be stable across loads")
}

func TestLoadOrCreatePepper_EmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pepper")
	require.NoError(t, os.WriteFile(path, []byte("  \n"), 0o600))

	_, err := LoadOrCreatePepper(path)
	require.Error(t, err)
}
