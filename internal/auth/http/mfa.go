package http

import (
	"net/http"

	"github.com/usama-mangi/kushim-web-sub002/internal/auth/service"
	"github.com/usama-mangi/kushim-web-sub002/pkg/authsdk"
	"github.com/usama-mangi/kushim-web-sub002/pkg/httpx"
	"github.com/usama-mangi/kushim-web-sub002/pkg/slogx"
)

// MFAHandler handles TOTP enrollment and the second login step.
type MFAHandler struct {
	AuthService *service.AuthService
}

// HandleEnroll handles POST /v1/mfa/totp/enroll
//
//	@Summary		Begin TOTP enrollment
//	@Description	Generates a new pending TOTP secret and returns it with a provisioning URI and QR code.
//	@Description	Calling it again before confirmation replaces the pending secret.
//	@Tags			MFA
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{object}	authsdk.EnrollmentResponse	"Secret, provisioning URI and QR code"
//	@Failure		401	{object}	authsdk.ErrorResponse		"Missing, invalid or challenge token"
//	@Failure		404	{object}	authsdk.ErrorResponse		"Identity not found"
//	@Failure		409	{object}	authsdk.ErrorResponse		"MFA already enabled"
//	@Failure		500	{object}	authsdk.ErrorResponse		"Internal server error"
//	@Router			/v1/mfa/totp/enroll [post].
func (h *MFAHandler) HandleEnroll(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	session, ok := httpx.FullSessionFromContext(ctx)
	if !ok {
		authsdk.ErrInvalidToken.WriteError(w)
		return
	}

	enrollment, err := h.AuthService.BeginEnrollment(ctx, session.Subject)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, authsdk.EnrollmentResponse{
		Secret:          enrollment.Secret,
		ProvisioningURI: enrollment.ProvisioningURI,
		QRCode:          enrollment.QRCodeDataURL,
	})
}

// HandleConfirm handles POST /v1/mfa/totp/confirm
//
//	@Summary		Confirm TOTP enrollment
//	@Description	Enables MFA when the code matches the pending secret.
//	@Tags			MFA
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.CodeRequest		true	"TOTP code"
//	@Success		200		{object}	authsdk.SuccessResponse	"MFA enabled"
//	@Failure		400		{object}	authsdk.ErrorResponse	"Invalid code or request"
//	@Failure		401		{object}	authsdk.ErrorResponse	"Missing, invalid or challenge token"
//	@Failure		409		{object}	authsdk.ErrorResponse	"No pending enrollment, or MFA already enabled"
//	@Failure		500		{object}	authsdk.ErrorResponse	"Internal server error"
//	@Router			/v1/mfa/totp/confirm [post].
func (h *MFAHandler) HandleConfirm(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	session, ok := httpx.FullSessionFromContext(ctx)
	if !ok {
		authsdk.ErrInvalidToken.WriteError(w)
		return
	}

	code, ok := decodeCode(w, r)
	if !ok {
		return
	}

	if err := h.AuthService.ConfirmEnrollment(ctx, session.Subject, code); err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, authsdk.SuccessResponse{Success: true})
}

// HandleVerify handles POST /v1/auth/mfa/verify
//
//	@Summary		Complete an MFA login
//	@Description	Exchanges the challenge token from login plus a TOTP code for a full access token.
//	@Description	Only challenge tokens are accepted here.
//	@Tags			Auth
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.CodeRequest		true	"TOTP code"
//	@Success		200		{object}	authsdk.LoginResponse	"Full access token"
//	@Failure		400		{object}	authsdk.ErrorResponse	"Invalid code or request"
//	@Failure		401		{object}	authsdk.ErrorResponse	"Missing, invalid or non-challenge token"
//	@Failure		409		{object}	authsdk.ErrorResponse	"MFA not enabled"
//	@Failure		500		{object}	authsdk.ErrorResponse	"Internal server error"
//	@Router			/v1/auth/mfa/verify [post].
func (h *MFAHandler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	challenge, ok := httpx.ChallengeFromContext(ctx)
	if !ok {
		authsdk.ErrInvalidToken.WriteError(w)
		return
	}

	code, ok := decodeCode(w, r)
	if !ok {
		return
	}

	token, err := h.AuthService.VerifyLogin(ctx, challenge.Subject, code)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, fullTokenResponse(token))
}

func decodeCode(w http.ResponseWriter, r *http.Request) (string, bool) {
	var req authsdk.CodeRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		slogx.FromContext(r.Context()).Warn("invalid code body", "error", err)
		authsdk.ErrInvalidRequest.WriteError(w)
		return "", false
	}
	if req.Code == "" {
		authsdk.ErrInvalidRequest.WriteError(w)
		return "", false
	}
	return req.Code, true
}
