package http

import (
	"net/http"

	"github.com/usama-mangi/kushim-web-sub002/internal/auth/service"
	"github.com/usama-mangi/kushim-web-sub002/pkg/authsdk"
	"github.com/usama-mangi/kushim-web-sub002/pkg/httpx"
	"github.com/usama-mangi/kushim-web-sub002/pkg/slogx"
)

type LoginHandler struct {
	AuthService *service.AuthService
}

// ServeHTTP handles POST /v1/auth/login
//
//	@Summary		Log in with email and password
//	@Description	Returns a full access token, or a challenge token with mfa_required=true when the identity has MFA enabled.
//	@Description	Unknown emails and wrong passwords get the same response.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.LoginRequest	true	"Credentials"
//	@Success		200		{object}	authsdk.LoginResponse	"Full token or MFA challenge"
//	@Failure		400		{object}	authsdk.ErrorResponse	"Malformed request"
//	@Failure		401		{object}	authsdk.ErrorResponse	"Invalid credentials"
//	@Failure		429		{object}	authsdk.ErrorResponse	"Rate limited"
//	@Failure		500		{object}	authsdk.ErrorResponse	"Internal server error"
//	@Router			/v1/auth/login [post].
func (h *LoginHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req authsdk.LoginRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		slogx.FromContext(r.Context()).Warn("invalid login body", "error", err)
		authsdk.ErrInvalidRequest.WriteError(w)
		return
	}
	if req.Email == "" || req.Password == "" {
		authsdk.ErrInvalidRequest.WriteError(w)
		return
	}

	result, err := h.AuthService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, loginResponse(result))
}

func loginResponse(result service.LoginResult) authsdk.LoginResponse {
	if result.MFARequired {
		return authsdk.LoginResponse{
			MFARequired: true,
			TempToken:   result.TempToken,
			ExpiresIn:   int(result.ExpiresIn.Seconds()),
		}
	}
	return fullTokenResponse(result.FullToken)
}

func fullTokenResponse(token service.FullToken) authsdk.LoginResponse {
	return authsdk.LoginResponse{
		AccessToken: token.AccessToken,
		TokenType:   "Bearer",
		ExpiresIn:   int(token.ExpiresIn.Seconds()),
		User: &authsdk.User{
			ID:         token.User.ID,
			Email:      token.User.Email,
			Role:       token.User.Role,
			MFAEnabled: token.User.MFAEnabled,
		},
	}
}
