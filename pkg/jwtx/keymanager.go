package jwtx

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/usama-mangi/kushim-web-sub002/pkg/cryptox"
)

// KeyManager owns the signing keys of one service instance and the KeySet
// used to verify and publish them. Signing picks one of the active keys at
// random; verification accepts any key in the KeySet.
type KeyManager struct {
	KeySet   *KeySet
	Verifier *KeySetVerifier

	algorithm string

	mu      sync.RWMutex
	signers []Signer
}

// KeyManagerOptions configures the KeyManager for a specific use case.
type KeyManagerOptions struct {
	// Algorithm is one of "RS256", "ES256", "EdDSA".
	Algorithm string

	// Issuer is the issuer claim (iss) that will be validated in tokens.
	Issuer string

	// Audience values (aud) validated on verify. Empty means no check.
	Audience []string

	// RSABits is the RSA key size for RS256. Defaults to 4096, minimum 2048.
	RSABits int

	// NumKeys is how many signing keys to keep active. Defaults to 3, capped at 10.
	NumKeys int

	// Leeway allows clock skew on exp/nbf.
	Leeway time.Duration
}

func (o *KeyManagerOptions) normalize() error {
	if o.Issuer == "" {
		return errors.New("jwtx: Issuer is required")
	}
	switch o.Algorithm {
	case AlgorithmRS256, AlgorithmES256, AlgorithmEdDSA:
	default:
		return fmt.Errorf("jwtx: unsupported algorithm %q (supported: RS256, ES256, EdDSA)", o.Algorithm)
	}

	if o.NumKeys <= 0 {
		o.NumKeys = 3
	}
	if o.NumKeys > 10 {
		o.NumKeys = 10
	}
	if o.RSABits == 0 {
		o.RSABits = 4096
	}
	return nil
}

// NewEphemeralKeyManager creates a KeyManager whose keys only exist in
// memory. Every token becomes invalid when the process restarts.
func NewEphemeralKeyManager(opts KeyManagerOptions) (*KeyManager, error) {
	if err := opts.normalize(); err != nil {
		return nil, err
	}

	km := newKeyManager(opts)

	for i := 0; i < opts.NumKeys; i++ {
		kid, err := generateRandomKeyID()
		if err != nil {
			return nil, err
		}

		_, signer, err := generateSigner(opts.Algorithm, kid, opts.RSABits)
		if err != nil {
			return nil, fmt.Errorf("jwtx: generate signer %d: %w", i+1, err)
		}

		if err := km.addActive(signer); err != nil {
			return nil, err
		}
	}

	return km, nil
}

func newKeyManager(opts KeyManagerOptions) *KeyManager {
	keyset := NewKeySet()
	return &KeyManager{
		KeySet: keyset,
		Verifier: NewVerifier(keyset, VerifyOptions{
			Issuer:   opts.Issuer,
			Audience: opts.Audience,
			Leeway:   opts.Leeway,
		}),
		algorithm: opts.Algorithm,
	}
}

func (km *KeyManager) addActive(s Signer) error {
	if err := km.KeySet.AddSigner(s); err != nil {
		return fmt.Errorf("jwtx: add key %s to keyset: %w", s.KID(), err)
	}

	km.mu.Lock()
	km.signers = append(km.signers, s)
	km.mu.Unlock()
	return nil
}

// generateSigner creates a fresh key for algorithm and returns the PEM and a
// signer over it.
func generateSigner(algorithm, kid string, rsaBits int) ([]byte, Signer, error) {
	var (
		pemBytes []byte
		err      error
	)

	switch algorithm {
	case AlgorithmRS256:
		pemBytes, err = cryptox.GenerateRSAKey(rsaBits)
	case AlgorithmES256:
		pemBytes, err = cryptox.GenerateES256Key()
	case AlgorithmEdDSA:
		pemBytes, err = cryptox.GenerateEd25519Key()
	default:
		return nil, nil, fmt.Errorf("unsupported algorithm %q", algorithm)
	}
	if err != nil {
		return nil, nil, err
	}

	signer, err := NewSigner(algorithm, kid, pemBytes)
	if err != nil {
		return nil, nil, err
	}
	return pemBytes, signer, nil
}

// Algorithm returns the algorithm used for newly generated keys.
func (km *KeyManager) Algorithm() string {
	return km.algorithm
}

// IsReady returns true if the KeyManager has valid keys loaded.
func (km *KeyManager) IsReady() bool {
	return km.KeySet.IsReady() && km.NumSigners() > 0
}

// GetSigner returns a randomly selected active signer, or nil when none.
func (km *KeyManager) GetSigner() Signer {
	km.mu.RLock()
	defer km.mu.RUnlock()

	switch len(km.signers) {
	case 0:
		return nil
	case 1:
		return km.signers[0]
	default:
		return km.signers[rand.IntN(len(km.signers))]
	}
}

// Sign signs claims with one of the active keys.
func (km *KeyManager) Sign(claims Claims) (string, error) {
	s := km.GetSigner()
	if s == nil {
		return "", errors.New("jwtx: no active signing key")
	}
	return s.Sign(claims)
}

// NumSigners returns the number of active signing keys.
func (km *KeyManager) NumSigners() int {
	km.mu.RLock()
	defer km.mu.RUnlock()
	return len(km.signers)
}

// generateRandomKeyID returns "kushim-{128-bit token}".
func generateRandomKeyID() (string, error) {
	token, err := cryptox.GenerateToken(cryptox.TokenSize128)
	if err != nil {
		return "", fmt.Errorf("jwtx: generate key ID: %w", err)
	}
	return "kushim-" + token, nil
}
