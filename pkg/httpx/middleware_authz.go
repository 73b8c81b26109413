package httpx

import (
	"net/http"
	"slices"
	"strings"
)

// RequireFullSession rejects requests that carry an MFA challenge token or
// no session at all. Every protected route except MFA verification sits
// behind it.
func RequireFullSession() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := FullSessionFromContext(r.Context()); !ok {
				if _, challenge := ChallengeFromContext(r.Context()); challenge {
					writeBearerError(w, "mfa verification required")
					return
				}
				writeBearerError(w, "missing session")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireChallenge admits only MFA challenge tokens.
func RequireChallenge() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := ChallengeFromContext(r.Context()); !ok {
				writeBearerError(w, "mfa challenge token required")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireRole the caller must hold a full session with one of the roles.
func RequireRole(roles ...string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			full, ok := FullSessionFromContext(r.Context())
			if !ok {
				writeBearerError(w, "missing session")
				return
			}
			if !slices.Contains(roles, full.Role) {
				writeBearerRoleError(w, roles...)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RFC 6750 insufficient_scope, with the accepted roles in place of scopes.
func writeBearerRoleError(w http.ResponseWriter, roles ...string) {
	w.Header().
		Set("WWW-Authenticate", `Bearer error="insufficient_scope", scope="`+strings.Join(roles, " ")+`"`)
	WriteJSON(w, http.StatusForbidden, map[string]string{
		"error":             "insufficient_scope",
		"error_description": "role not permitted",
	})
}
