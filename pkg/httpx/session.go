package httpx

import (
	"context"

	"github.com/usama-mangi/kushim-web-sub002/pkg/jwtx"
)

type ctxKey string

const ctxKeySession ctxKey = "session"

// WithSession stores a verified session on ctx.
func WithSession(ctx context.Context, s jwtx.Session) context.Context {
	return context.WithValue(ctx, ctxKeySession, s)
}

// SessionFromContext returns the verified session of either kind.
func SessionFromContext(ctx context.Context) (jwtx.Session, bool) {
	s, ok := ctx.Value(ctxKeySession).(jwtx.Session)
	return s, ok && s != nil
}

// FullSessionFromContext returns the session only when it is a full session.
func FullSessionFromContext(ctx context.Context) (jwtx.FullSession, bool) {
	s, _ := SessionFromContext(ctx)
	full, ok := s.(jwtx.FullSession)
	return full, ok
}

// ChallengeFromContext returns the session only when it is an MFA challenge.
func ChallengeFromContext(ctx context.Context) (jwtx.ChallengeSession, bool) {
	s, _ := SessionFromContext(ctx)
	ch, ok := s.(jwtx.ChallengeSession)
	return ch, ok
}

// SubjectFromContext returns the subject of whatever session is present.
func SubjectFromContext(ctx context.Context) string {
	if s, ok := SessionFromContext(ctx); ok {
		return s.SubjectID()
	}
	return ""
}
