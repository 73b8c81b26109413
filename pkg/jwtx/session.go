package jwtx

import (
	"errors"
	"time"
)

// ErrMixedSession is returned for claims that carry both the challenge marker
// and full-session fields.
var ErrMixedSession = errors.New("jwtx: claims mix challenge and session fields")

// Session is the decoded form of a verified token. It is either a
// FullSession or a ChallengeSession; callers switch on the concrete type:
//
//	switch s := session.(type) {
//	case jwtx.FullSession:
//		// s.Role, s.Email and s.AMR are available
//	case jwtx.ChallengeSession:
//		// only the MFA verification step may use s
//	}
//
// The interface is sealed, so no other package can add a third variant.
type Session interface {
	SubjectID() string
	Expiry() time.Time

	isSession()
}

// FullSession authorizes API access. It is issued after password login for
// identities without MFA, after a successful MFA verification, and after a
// social login.
type FullSession struct {
	Subject string
	Email   string
	Role    string

	// AMR lists the authentication methods used, e.g. ["pwd"] or
	// ["pwd", "otp", "mfa"].
	AMR []string

	ExpiresAt time.Time
}

func (s FullSession) SubjectID() string { return s.Subject }
func (s FullSession) Expiry() time.Time { return s.ExpiresAt }
func (FullSession) isSession()          {}

// HasAMR reports whether method was used to authenticate the session.
func (s FullSession) HasAMR(method string) bool {
	for _, m := range s.AMR {
		if m == method {
			return true
		}
	}
	return false
}

// ChallengeSession only permits completing the MFA step. It names the
// identity that passed the password check and nothing else.
type ChallengeSession struct {
	Subject   string
	ExpiresAt time.Time
}

func (s ChallengeSession) SubjectID() string { return s.Subject }
func (s ChallengeSession) Expiry() time.Time { return s.ExpiresAt }
func (ChallengeSession) isSession()          {}

// ParseSession converts verified claims into the tagged session variant.
//
// Claims with the challenge marker decode to a ChallengeSession and must not
// carry an email, role or AMR (ErrMixedSession otherwise). All other claims
// decode to a FullSession and must carry a role. A missing subject is
// ErrInvalidClaim in both cases.
func ParseSession(c Claims) (Session, error) {
	if c.Subject == "" {
		return nil, ErrInvalidClaim
	}

	var exp time.Time
	if c.ExpiresAt != nil {
		exp = c.ExpiresAt.Time
	}

	if c.MFAChallenge {
		if c.Email != "" || c.Role != "" || len(c.AMR) > 0 {
			return nil, ErrMixedSession
		}
		return ChallengeSession{Subject: c.Subject, ExpiresAt: exp}, nil
	}

	if c.Role == "" {
		return nil, ErrInvalidClaim
	}

	return FullSession{
		Subject:   c.Subject,
		Email:     c.Email,
		Role:      c.Role,
		AMR:       c.AMR,
		ExpiresAt: exp,
	}, nil
}
