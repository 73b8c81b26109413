package jwtx

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Verifier validates a JWT and gives you back the claims if it's legit.
type Verifier interface {
	Verify(token string) (Claims, error)
}

// VerifyOptions captures common expectations used by verifiers.
type VerifyOptions struct {
	// Issuer the token must have (claims.iss). Empty means "don't care".
	Issuer string

	// Audience values the token must contain (claims.aud). Empty means "don't care".
	Audience []string

	// Leeway allows small clock skew when validating exp/nbf.
	Leeway time.Duration

	// Now overrides the clock, for tests.
	Now func() time.Time
}

var (
	ErrMalformed   = errors.New("jwtx: malformed token")
	ErrAlgMismatch = errors.New("jwtx: algorithm mismatch")
	ErrUnknownKID  = errors.New("jwtx: unknown kid")
	ErrInvalidSig  = errors.New("jwtx: invalid signature")

	ErrIssuer       = errors.New("jwtx: issuer mismatch")
	ErrAudience     = errors.New("jwtx: audience mismatch")
	ErrExpired      = errors.New("jwtx: token expired")
	ErrNotYetValid  = errors.New("jwtx: token not yet valid")
	ErrInvalidClaim = errors.New("jwtx: invalid claims")
)

// KeySetVerifier verifies tokens signed by any key in a KeySet. The header
// alg must match the algorithm the key was published with.
type KeySetVerifier struct {
	keys *KeySet
	opts VerifyOptions
}

// NewVerifier returns a verifier backed by keys.
func NewVerifier(keys *KeySet, opts VerifyOptions) *KeySetVerifier {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &KeySetVerifier{keys: keys, opts: opts}
}

// Verify validates the JWT string and returns its parsed Claims.
func (v *KeySetVerifier) Verify(tokenStr string) (Claims, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{AlgorithmRS256, AlgorithmES256, AlgorithmEdDSA}),
		// exp/nbf are checked below against our own clock
		jwt.WithoutClaimsValidation(),
	)

	var claims Claims
	_, err := parser.ParseWithClaims(tokenStr, &claims, func(t *jwt.Token) (any, error) {
		kid, _ := t.Header["kid"].(string)
		if kid == "" {
			return nil, fmt.Errorf("%w: missing kid", ErrMalformed)
		}

		pub, alg, err := v.keys.Lookup(kid)
		if err != nil {
			return nil, fmt.Errorf("%w %q", ErrUnknownKID, kid)
		}
		if alg != t.Method.Alg() {
			return nil, ErrAlgMismatch
		}
		return pub, nil
	})
	if err != nil {
		return Claims{}, classify(err)
	}

	if err := claims.ValidateIssuer(v.opts.Issuer); err != nil {
		return Claims{}, err
	}
	if err := claims.ValidateAudience(v.opts.Audience); err != nil {
		return Claims{}, err
	}
	if claims.ExpiresAt == nil {
		return Claims{}, fmt.Errorf("%w: missing exp", ErrInvalidClaim)
	}
	if err := claims.ValidateExpiry(v.opts.Now().UTC(), v.opts.Leeway); err != nil {
		return Claims{}, err
	}

	return claims, nil
}

// VerifySession verifies tokenStr and decodes it into the session variant.
func (v *KeySetVerifier) VerifySession(tokenStr string) (Session, error) {
	claims, err := v.Verify(tokenStr)
	if err != nil {
		return nil, err
	}
	return ParseSession(claims)
}

// classify maps parser errors onto our sentinels so callers never depend on
// the jwt library's error values.
func classify(err error) error {
	for _, sentinel := range []error{ErrUnknownKID, ErrAlgMismatch, ErrMalformed} {
		if errors.Is(err, sentinel) {
			return err
		}
	}

	switch {
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return fmt.Errorf("%w: %v", ErrInvalidSig, err)
	case errors.Is(err, jwt.ErrTokenUnverifiable), errors.Is(err, jwt.ErrSignatureInvalid):
		return fmt.Errorf("%w: %v", ErrInvalidSig, err)
	default:
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
}
