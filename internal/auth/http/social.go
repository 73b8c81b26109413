package http

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"time"

	"github.com/usama-mangi/kushim-web-sub002/internal/auth/service"
	"github.com/usama-mangi/kushim-web-sub002/internal/auth/social"
	"github.com/usama-mangi/kushim-web-sub002/pkg/authsdk"
	"github.com/usama-mangi/kushim-web-sub002/pkg/cryptox"
	"github.com/usama-mangi/kushim-web-sub002/pkg/httpx"
	"github.com/usama-mangi/kushim-web-sub002/pkg/slogx"
)

const (
	stateCookieName = "auth_social_state"
	stateCookieTTL  = 10 * time.Minute
)

// SocialHandler starts and completes logins through external providers.
type SocialHandler struct {
	AuthService   *service.AuthService
	Providers     *social.Registry
	SecureCookies bool
}

// HandleLogin handles GET /v1/auth/social/{provider}/login
//
//	@Summary		Start a social login
//	@Description	Sets a state cookie and redirects to the provider's authorization page.
//	@Tags			Social
//	@Param			provider	path	string	true	"Provider name, e.g. github"
//	@Success		302
//	@Failure		400	{object}	authsdk.ErrorResponse	"Unknown provider"
//	@Failure		500	{object}	authsdk.ErrorResponse	"Internal server error"
//	@Router			/v1/auth/social/{provider}/login [get].
func (h *SocialHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("provider")

	provider, err := h.Providers.Get(name)
	if err != nil {
		authsdk.NewAPIError(http.StatusBadRequest, authsdk.ErrorCodeInvalidRequest, "unknown provider").WriteError(w)
		return
	}

	state, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		slogx.FromContext(r.Context()).Error("failed to generate state", "error", err)
		authsdk.ErrServerError.WriteError(w)
		return
	}

	http.SetCookie(w, h.stateCookie(name, state, int(stateCookieTTL.Seconds())))
	httpx.NoCache(w)
	http.Redirect(w, r, provider.AuthCodeURL(state), http.StatusFound)
}

// HandleCallback handles GET /v1/auth/social/{provider}/callback
//
//	@Summary		Complete a social login
//	@Description	Checks the state cookie, exchanges the code and logs the verified email in.
//	@Description	Unknown emails get a new identity with the default role.
//	@Tags			Social
//	@Produce		json
//	@Param			provider	path		string					true	"Provider name"
//	@Param			code		query		string					true	"Authorization code"
//	@Param			state		query		string					true	"State from the login redirect"
//	@Success		200			{object}	authsdk.LoginResponse	"Full token or MFA challenge"
//	@Failure		400			{object}	authsdk.ErrorResponse	"Unknown provider, state mismatch or missing code"
//	@Failure		401			{object}	authsdk.ErrorResponse	"Provider asserted no usable email"
//	@Failure		502			{object}	authsdk.ErrorResponse	"Provider exchange failed"
//	@Failure		500			{object}	authsdk.ErrorResponse	"Internal server error"
//	@Router			/v1/auth/social/{provider}/callback [get].
func (h *SocialHandler) HandleCallback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)
	name := r.PathValue("provider")

	provider, err := h.Providers.Get(name)
	if err != nil {
		authsdk.NewAPIError(http.StatusBadRequest, authsdk.ErrorCodeInvalidRequest, "unknown provider").WriteError(w)
		return
	}

	// The state is single use whatever happens next.
	http.SetCookie(w, h.stateCookie(name, "", -1))

	query := r.URL.Query()
	if providerErr := query.Get("error"); providerErr != "" {
		log.Warn("provider returned an error", "provider", name, "error", providerErr)
		authsdk.ErrProviderError.WriteError(w)
		return
	}

	state := query.Get("state")
	cookie, err := r.Cookie(stateCookieName)
	if err != nil || state == "" || subtle.ConstantTimeCompare([]byte(cookie.Value), []byte(state)) != 1 {
		log.Warn("social state mismatch", "provider", name)
		authsdk.NewAPIError(http.StatusBadRequest, authsdk.ErrorCodeInvalidRequest, "state mismatch").WriteError(w)
		return
	}

	code := query.Get("code")
	if code == "" {
		authsdk.NewAPIError(http.StatusBadRequest, authsdk.ErrorCodeInvalidRequest, "missing code").WriteError(w)
		return
	}

	profile, err := provider.Exchange(ctx, code, state)
	if err != nil {
		writeProviderError(w, r, err)
		return
	}

	result, err := h.AuthService.SocialCallback(ctx, profile.Email, profile.Provider)
	if err != nil {
		if errors.Is(err, service.ErrUnauthorized) {
			log.Warn("social identity rejected", "provider", name)
		}
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, loginResponse(result))
}

func (h *SocialHandler) stateCookie(provider, value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     stateCookieName,
		Value:    value,
		Path:     "/v1/auth/social/" + provider + "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   h.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	}
}
