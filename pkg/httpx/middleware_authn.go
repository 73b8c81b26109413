package httpx

import (
	"errors"
	"net/http"
	"strings"

	"github.com/usama-mangi/kushim-web-sub002/pkg/jwtx"
	"github.com/usama-mangi/kushim-web-sub002/pkg/slogx"
)

// SessionVerifier verifies a bearer token and decodes its session variant.
type SessionVerifier interface {
	VerifySession(token string) (jwtx.Session, error)
}

// AuthnMiddleware verifies the bearer token and stores the decoded session
// on the request context. It does not decide which session kind is allowed;
// pair it with RequireFullSession or RequireChallenge.
func AuthnMiddleware(v SessionVerifier) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			log := slogx.FromContext(ctx)

			authz := r.Header.Get("Authorization")
			if authz == "" || !strings.HasPrefix(authz, "Bearer ") {
				writeBearerError(w, "missing bearer token")
				return
			}
			raw := strings.TrimSpace(strings.TrimPrefix(authz, "Bearer "))

			session, err := v.VerifySession(raw)
			if err != nil {
				log.Warn("jwt verify failed", "err", err)
				if errors.Is(err, jwtx.ErrExpired) {
					writeBearerError(w, "token expired")
					return
				}
				writeBearerError(w, "token verification failed")
				return
			}

			ctx = slogx.With(ctx, "identity_id", session.SubjectID())
			next.ServeHTTP(w, r.WithContext(WithSession(ctx, session)))
		})
	}
}

// RFC 6750-compliant error response for bearer auth.
func writeBearerError(w http.ResponseWriter, desc string) {
	w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token", error_description="`+desc+`"`)
	WriteJSON(w, http.StatusUnauthorized, map[string]string{
		"error":             "invalid_token",
		"error_description": desc,
	})
}
