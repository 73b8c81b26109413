package service

import (
	"context"
	"time"

	"github.com/usama-mangi/kushim-web-sub002/internal/auth/domain"
	"github.com/usama-mangi/kushim-web-sub002/internal/auth/metrics"
	"github.com/usama-mangi/kushim-web-sub002/internal/auth/store"
	"github.com/usama-mangi/kushim-web-sub002/pkg/jwtx"
	"github.com/usama-mangi/kushim-web-sub002/pkg/slogx"
)

// UserSummary is the public view of an identity returned with a token.
type UserSummary struct {
	ID         string
	Email      string
	Role       string
	MFAEnabled bool
}

// FullToken is a signed full session.
type FullToken struct {
	AccessToken string
	ExpiresIn   time.Duration
	User        UserSummary
}

// LoginResult is either a full session or, when MFA is enabled, a challenge
// token that only the MFA verify step accepts. AccessToken is empty
// whenever MFARequired is true.
type LoginResult struct {
	MFARequired bool
	FullToken
	TempToken string
}

// TokenIssuer signs full and challenge tokens.
type TokenIssuer struct {
	Store        store.Store
	Signer       TokenSigner
	Issuer       string
	Audience     []string
	AccessTTL    time.Duration // defaults to jwtx.DefaultSessionTTL
	ChallengeTTL time.Duration // defaults to jwtx.DefaultChallengeTTL
	Metrics      metrics.Recorder
	Now          func() time.Time
}

func (t *TokenIssuer) accessTTL() time.Duration {
	if t.AccessTTL > 0 {
		return t.AccessTTL
	}
	return jwtx.DefaultSessionTTL
}

func (t *TokenIssuer) challengeTTL() time.Duration {
	if t.ChallengeTTL > 0 {
		return t.ChallengeTTL
	}
	return jwtx.DefaultChallengeTTL
}

// IssueLoginResult issues a full token when MFA is disabled and a challenge
// token when it is enabled. amr lists the methods already satisfied.
func (t *TokenIssuer) IssueLoginResult(ctx context.Context, identity domain.Identity, amr []string) (LoginResult, error) {
	const op = "service.IssueLoginResult"

	if !identity.MFAEnabled {
		full, err := t.IssueFullToken(ctx, identity, amr)
		if err != nil {
			return LoginResult{}, err
		}
		return LoginResult{FullToken: full}, nil
	}

	ttl := t.challengeTTL()
	claims := jwtx.NewChallengeClaims(identity.ID, ttl, t.Issuer, t.Audience, nowFunc(t.Now))
	token, err := t.Signer.Sign(claims)
	if err != nil {
		return LoginResult{}, newError(KindInternal, op, err)
	}
	metrics.OrNop(t.Metrics).RecordTokenIssued(metrics.TokenChallenge)

	return LoginResult{
		MFARequired: true,
		TempToken:   token,
		FullToken:   FullToken{ExpiresIn: ttl},
	}, nil
}

// IssueFullToken resolves the identity's role and signs a full session.
// A role that cannot be resolved is a data integrity failure.
func (t *TokenIssuer) IssueFullToken(ctx context.Context, identity domain.Identity, amr []string) (FullToken, error) {
	const op = "service.IssueFullToken"

	role, err := t.Store.Roles().GetRoleByID(ctx, identity.RoleID)
	if err != nil {
		slogx.FromContext(ctx).Error("role resolution failed",
			"identity_id", identity.ID,
			"role_id", identity.RoleID,
			"error", err,
		)
		return FullToken{}, newError(KindRoleResolution, op, err)
	}

	ttl := t.accessTTL()
	claims := jwtx.NewFullClaims(identity.ID, identity.Email, role.Name, amr, ttl, t.Issuer, t.Audience, nowFunc(t.Now))
	token, err := t.Signer.Sign(claims)
	if err != nil {
		return FullToken{}, newError(KindInternal, op, err)
	}
	metrics.OrNop(t.Metrics).RecordTokenIssued(metrics.TokenFull)

	return FullToken{
		AccessToken: token,
		ExpiresIn:   ttl,
		User: UserSummary{
			ID:         identity.ID,
			Email:      identity.Email,
			Role:       role.Name,
			MFAEnabled: identity.MFAEnabled,
		},
	}, nil
}
