package jwtx

import (
	"errors"
	"sync"
)

var ErrNoKey = errors.New("jwtx: key not found")

type keyEntry struct {
	pub any
	alg string
}

// KeySet holds all public verification keys in memory. It's safe for
// concurrent use so the JWKS handler and the verifier can share one.
type KeySet struct {
	mu  sync.RWMutex
	jks JWKS
	pub map[string]keyEntry
}

// NewKeySet returns an empty KeySet.
func NewKeySet() *KeySet {
	return &KeySet{
		jks: JWKS{Keys: []JWK{}},
		pub: make(map[string]keyEntry),
	}
}

// AddSigner registers a Signer's public JWK into the KeySet.
func (k *KeySet) AddSigner(s Signer) error {
	return k.AddJWK(s.PublicJWK())
}

// AddJWK adds a JWK to the KeySet and parses it into a usable crypto key.
// Re-adding an existing kid replaces it.
func (k *KeySet) AddJWK(j JWK) error {
	key, err := j.PublicKey()
	if err != nil {
		return err
	}

	k.mu.Lock()
	defer k.mu.Unlock()

	if _, exists := k.pub[j.Kid]; exists {
		for i := range k.jks.Keys {
			if k.jks.Keys[i].Kid == j.Kid {
				k.jks.Keys[i] = j
			}
		}
	} else {
		k.jks.Keys = append(k.jks.Keys, j)
	}
	k.pub[j.Kid] = keyEntry{pub: key, alg: j.Alg}
	return nil
}

// Get returns the public key for the given kid.
func (k *KeySet) Get(kid string) (any, error) {
	pub, _, err := k.Lookup(kid)
	return pub, err
}

// Lookup returns the public key and its published algorithm.
func (k *KeySet) Lookup(kid string) (any, string, error) {
	k.mu.RLock()
	defer k.mu.RUnlock()
	if e, ok := k.pub[kid]; ok {
		return e.pub, e.alg, nil
	}
	return nil, "", ErrNoKey
}

// PublicJWKS returns a snapshot of the KeySet's JWKS for HTTP serving.
func (k *KeySet) PublicJWKS() JWKS {
	k.mu.RLock()
	defer k.mu.RUnlock()

	keys := make([]JWK, len(k.jks.Keys))
	copy(keys, k.jks.Keys)
	return JWKS{Keys: keys}
}

// IsReady returns true if the KeySet has at least one key loaded.
func (k *KeySet) IsReady() bool {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return len(k.pub) > 0
}

// ResetFromJWKS replaces all keys from a JWKS.
func (k *KeySet) ResetFromJWKS(jwks JWKS) error {
	next := make(map[string]keyEntry, len(jwks.Keys))
	for _, j := range jwks.Keys {
		key, err := j.PublicKey()
		if err != nil {
			return err
		}
		next[j.Kid] = keyEntry{pub: key, alg: j.Alg}
	}

	k.mu.Lock()
	defer k.mu.Unlock()

	k.pub = next
	k.jks = jwks

	return nil
}
