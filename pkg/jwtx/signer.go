package jwtx

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/elliptic"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// Supported JWT signing algorithms
const (
	AlgorithmRS256 = "RS256"
	AlgorithmES256 = "ES256"
	AlgorithmEdDSA = "EdDSA"
)

// Signer is our interface for anything that can sign JWTs.
type Signer interface {
	// Alg returns the JWS algorithm, one of the Algorithm constants.
	Alg() string
	// KID returns the key ID placed in the token header.
	KID() string
	// Sign returns the compact serialization of claims.
	Sign(Claims) (string, error)
	// PublicJWK returns the verification key for publishing in a JWKS.
	PublicJWK() JWK
}

type pemSigner struct {
	kid    string
	method jwt.SigningMethod
	key    crypto.Signer
	jwk    JWK
}

// NewSigner loads a PKCS8 private key from PEM bytes and returns a signer for
// alg. The key type must match the algorithm.
func NewSigner(alg, kid string, pemKey []byte) (Signer, error) {
	block, _ := pem.Decode(pemKey)
	if block == nil {
		return nil, errors.New("jwtx: invalid PEM")
	}
	if block.Type != "PRIVATE KEY" {
		return nil, fmt.Errorf("jwtx: expected PRIVATE KEY, got %q (PKCS8 required)", block.Type)
	}

	priv, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("jwtx: parse PKCS8: %w", err)
	}

	s := &pemSigner{kid: kid}

	switch alg {
	case AlgorithmRS256:
		key, ok := priv.(*rsa.PrivateKey)
		if !ok {
			return nil, errors.New("jwtx: not an RSA private key")
		}
		if key.N.BitLen() < 2048 {
			return nil, errors.New("jwtx: RSA key must be at least 2048 bits")
		}
		s.method, s.key = jwt.SigningMethodRS256, key
		s.jwk = NewRSAJWK(kid, "sig", alg, &key.PublicKey)

	case AlgorithmES256:
		key, ok := priv.(*ecdsa.PrivateKey)
		if !ok || key.Curve != elliptic.P256() {
			return nil, errors.New("jwtx: not an ECDSA P-256 private key")
		}
		s.method, s.key = jwt.SigningMethodES256, key
		s.jwk = NewES256JWK(kid, "sig", alg, &key.PublicKey)

	case AlgorithmEdDSA:
		key, ok := priv.(ed25519.PrivateKey)
		if !ok {
			return nil, errors.New("jwtx: not an Ed25519 private key")
		}
		s.method, s.key = jwt.SigningMethodEdDSA, key
		s.jwk = NewEd25519JWK(kid, "sig", alg, key.Public().(ed25519.PublicKey))

	default:
		return nil, fmt.Errorf("jwtx: unsupported algorithm %q (supported: RS256, ES256, EdDSA)", alg)
	}

	return s, nil
}

func (s *pemSigner) Alg() string    { return s.method.Alg() }
func (s *pemSigner) KID() string    { return s.kid }
func (s *pemSigner) PublicJWK() JWK { return s.jwk }

// Sign takes your claims and turns them into a signed JWT string.
func (s *pemSigner) Sign(claims Claims) (string, error) {
	t := jwt.NewWithClaims(s.method, claims)
	t.Header["kid"] = s.kid
	return t.SignedString(s.key)
}
