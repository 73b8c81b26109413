package http

import (
	"errors"
	"net/http"

	"github.com/usama-mangi/kushim-web-sub002/internal/auth/service"
	"github.com/usama-mangi/kushim-web-sub002/internal/auth/social"
	"github.com/usama-mangi/kushim-web-sub002/pkg/authsdk"
	"github.com/usama-mangi/kushim-web-sub002/pkg/slogx"
)

var errNoSigningKeys = errors.New("no keys loaded")

// writeServiceError maps a service error kind onto its HTTP response. The
// underlying cause is logged, never written.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch service.KindOf(err) {
	case service.KindUnauthorized:
		authsdk.ErrUnauthorized.WriteError(w)
	case service.KindInvalidCode:
		authsdk.ErrInvalidCode.WriteError(w)
	case service.KindMFANotPending:
		authsdk.ErrMFANotPending.WriteError(w)
	case service.KindMFANotEnabled:
		authsdk.ErrMFANotEnabled.WriteError(w)
	case service.KindMFAAlreadyEnabled:
		authsdk.ErrMFAAlreadyEnabled.WriteError(w)
	case service.KindIdentityNotFound:
		authsdk.ErrIdentityNotFound.WriteError(w)
	default:
		slogx.FromContext(r.Context()).Error("request failed", "error", err)
		authsdk.ErrServerError.WriteError(w)
	}
}

// writeProviderError maps a social provider failure.
func writeProviderError(w http.ResponseWriter, r *http.Request, err error) {
	log := slogx.FromContext(r.Context())

	switch {
	case errors.Is(err, social.ErrNoVerifiedEmail):
		log.Warn("social login without verified email", "error", err)
		authsdk.NewAPIError(http.StatusBadGateway, authsdk.ErrorCodeProviderError,
			"the identity provider did not return a verified email").WriteError(w)
	case errors.Is(err, social.ErrExchange), errors.Is(err, social.ErrInvalidToken):
		log.Warn("social code exchange failed", "error", err)
		authsdk.ErrProviderError.WriteError(w)
	default:
		log.Error("social login failed", "error", err)
		authsdk.ErrServerError.WriteError(w)
	}
}
