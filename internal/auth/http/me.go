package http

import (
	"net/http"

	"github.com/usama-mangi/kushim-web-sub002/internal/auth/service"
	"github.com/usama-mangi/kushim-web-sub002/pkg/authsdk"
	"github.com/usama-mangi/kushim-web-sub002/pkg/httpx"
)

type MeHandler struct {
	IdentityService *service.IdentityService
}

// ServeHTTP handles GET /v1/me
//
//	@Summary		Get the current identity
//	@Description	Returns the identity behind a full access token. Challenge tokens are rejected.
//	@Tags			Identity
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{object}	authsdk.MeResponse		"Identity"
//	@Failure		401	{object}	authsdk.ErrorResponse	"Missing, invalid or challenge token"
//	@Failure		404	{object}	authsdk.ErrorResponse	"Identity no longer exists"
//	@Failure		500	{object}	authsdk.ErrorResponse	"Internal server error"
//	@Router			/v1/me [get].
func (h *MeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	session, ok := httpx.FullSessionFromContext(ctx)
	if !ok {
		authsdk.ErrInvalidToken.WriteError(w)
		return
	}

	identity, err := h.IdentityService.GetIdentity(ctx, session.Subject)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, authsdk.MeResponse{
		User: authsdk.User{
			ID:         identity.ID,
			Email:      identity.Email,
			Role:       session.Role,
			MFAEnabled: identity.MFAEnabled,
		},
		AMR: session.AMR,
	})
}
