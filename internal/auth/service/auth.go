package service

import (
	"context"

	"github.com/usama-mangi/kushim-web-sub002/internal/auth/domain"
	"github.com/usama-mangi/kushim-web-sub002/internal/auth/metrics"
	"github.com/usama-mangi/kushim-web-sub002/pkg/jwtx"
)

// AuthService is the entry point for the HTTP layer. It composes the
// components and owns no state of its own.
type AuthService struct {
	Credentials *CredentialValidator
	Tokens      *TokenIssuer
	Enrollment  *EnrollmentManager
	MFA         *MFAVerifier
	Social      *SocialResolver
	Metrics     metrics.Recorder
}

// Login checks the password and returns either a full session or an MFA
// challenge.
func (s *AuthService) Login(ctx context.Context, email, password string) (LoginResult, error) {
	rec := metrics.OrNop(s.Metrics)

	identity, err := s.Credentials.Validate(ctx, email, password)
	if err != nil {
		recordLogin(rec, err)
		return LoginResult{}, err
	}

	result, err := s.Tokens.IssueLoginResult(ctx, identity, []string{jwtx.AMRPassword})
	if err != nil {
		recordLogin(rec, err)
		return LoginResult{}, err
	}

	if result.MFARequired {
		rec.RecordLogin(metrics.OutcomeMFARequired)
	} else {
		rec.RecordLogin(metrics.OutcomeSuccess)
	}
	return result, nil
}

func recordLogin(rec metrics.Recorder, err error) {
	if KindOf(err) == KindUnauthorized {
		rec.RecordLogin(metrics.OutcomeRejected)
		return
	}
	rec.RecordLogin(metrics.OutcomeError)
}

func (s *AuthService) BeginEnrollment(ctx context.Context, userID string) (domain.Enrollment, error) {
	enrollment, err := s.Enrollment.BeginEnrollment(ctx, userID)
	if err != nil {
		metrics.OrNop(s.Metrics).RecordEnrollment(string(KindOf(err)))
		return domain.Enrollment{}, err
	}
	metrics.OrNop(s.Metrics).RecordEnrollment(metrics.OutcomeSuccess)
	return enrollment, nil
}

func (s *AuthService) ConfirmEnrollment(ctx context.Context, userID, code string) error {
	return s.MFA.ConfirmEnrollment(ctx, userID, code)
}

// VerifyLogin is the second step of a challenged login. userID comes from
// the challenge token.
func (s *AuthService) VerifyLogin(ctx context.Context, userID, code string) (FullToken, error) {
	return s.MFA.VerifyLogin(ctx, userID, code)
}

// SocialCallback resolves an identity asserted by provider and logs it in.
// Identities with MFA enabled still get a challenge.
func (s *AuthService) SocialCallback(ctx context.Context, email, provider string) (LoginResult, error) {
	identity, err := s.Social.Resolve(ctx, email, provider)
	if err != nil {
		return LoginResult{}, err
	}
	return s.Tokens.IssueLoginResult(ctx, identity, []string{jwtx.AMRFederated})
}
