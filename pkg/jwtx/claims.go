package jwtx

import (
	"crypto/rand"
	"encoding/base64"
	"slices"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Default token lifetimes.
const (
	// DefaultSessionTTL is the lifetime of a full session token.
	DefaultSessionTTL = 12 * time.Hour

	// DefaultChallengeTTL is the lifetime of an MFA challenge token. It only
	// needs to outlive the time a user takes to type a code.
	DefaultChallengeTTL = 5 * time.Minute
)

// Authentication Methods Reference values (RFC 8176).
const (
	AMRPassword  = "pwd"
	AMROTP       = "otp"
	AMRMFA       = "mfa"
	AMRFederated = "fed"
)

// Claims is the wire shape of every token this service signs. A token is
// either a full session (email and role set) or an MFA challenge
// (is_mfa_challenge set, nothing else); use ParseSession to get the typed
// variant instead of reading these fields directly.
type Claims struct {
	jwt.RegisteredClaims

	Email string `json:"email,omitempty"`
	Role  string `json:"role,omitempty"`

	// MFAChallenge marks a token that only proves the password step.
	MFAChallenge bool `json:"is_mfa_challenge,omitempty"`

	// Authentication Methods Reference ["pwd","otp","mfa"]
	AMR []string `json:"amr,omitempty"`
}

// NewFullClaims builds claims for a full session.
func NewFullClaims(
	subject, email, role string,
	amr []string,
	ttl time.Duration,
	issuer string,
	audience []string,
	now time.Time,
) Claims {
	return Claims{
		RegisteredClaims: registered(subject, ttl, issuer, audience, now),
		Email:            email,
		Role:             role,
		AMR:              amr,
	}
}

// NewChallengeClaims builds claims for an MFA challenge. They carry the
// subject and nothing that could authorize a request.
func NewChallengeClaims(subject string, ttl time.Duration, issuer string, audience []string, now time.Time) Claims {
	return Claims{
		RegisteredClaims: registered(subject, ttl, issuer, audience, now),
		MFAChallenge:     true,
	}
}

func registered(subject string, ttl time.Duration, issuer string, audience []string, now time.Time) jwt.RegisteredClaims {
	return jwt.RegisteredClaims{
		Issuer:    issuer,
		Subject:   subject,
		Audience:  jwt.ClaimStrings(audience),
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		ID:        NewJTI(),
	}
}

// NewJTI returns a URL-safe random identifier for the "jti" claim.
func NewJTI() string {
	var b [20]byte
	_, _ = rand.Read(b[:])
	return base64.RawURLEncoding.EncodeToString(b[:])
}

// ValidateIssuer checks if the issuer matches expected value.
func (c *Claims) ValidateIssuer(expected string) error {
	if expected == "" {
		return nil // nothing to enforce
	}

	if c.Issuer != expected {
		return ErrIssuer
	}

	return nil
}

// ValidateAudience checks if at least one expected audience is present.
func (c *Claims) ValidateAudience(expected []string) error {
	if len(expected) == 0 {
		return nil // nothing to enforce
	}

	for _, want := range expected {
		if slices.Contains(c.Audience, want) {
			return nil
		}
	}

	return ErrAudience
}

// ValidateExpiry ensures the token hasn't expired (exp) and isn't before nbf
// at the given instant, allowing leeway for clock skew.
func (c *Claims) ValidateExpiry(now time.Time, leeway time.Duration) error {
	if c.ExpiresAt != nil && now.After(c.ExpiresAt.Add(leeway)) {
		return ErrExpired
	}

	if c.NotBefore != nil && now.Before(c.NotBefore.Add(-leeway)) {
		return ErrNotYetValid
	}

	return nil
}
