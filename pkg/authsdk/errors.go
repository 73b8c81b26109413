package authsdk

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/usama-mangi/kushim-web-sub002/pkg/httpx"
)

// Error codes written in the "error" field of failure responses.
const (
	ErrorCodeInvalidRequest    = "invalid_request"
	ErrorCodeUnauthorized      = "unauthorized"
	ErrorCodeInvalidCode       = "invalid_code"
	ErrorCodeMFANotPending     = "mfa_not_pending"
	ErrorCodeMFANotEnabled     = "mfa_not_enabled"
	ErrorCodeMFAAlreadyEnabled = "mfa_already_enabled"
	ErrorCodeIdentityNotFound  = "identity_not_found"
	ErrorCodeProviderError     = "provider_error"
	ErrorCodeServerError       = "server_error"
	ErrorCodeInvalidToken      = "invalid_token"
	ErrorCodeInsufficientScope = "insufficient_scope"
	ErrorCodeRateLimited       = "rate_limit_exceeded"
)

// APIError is the error body shared by the server and the client.
type APIError struct {
	// StatusCode is the HTTP status code for this error
	StatusCode int `json:"-"`

	// Code is the machine readable error, one of the ErrorCode constants.
	Code string `json:"error"`

	// Description is a human readable explanation. It never says which part
	// of a credential was wrong.
	Description string `json:"error_description"`
}

// Error formats the error as "code: description".
func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Description)
}

// WriteError writes the error as a JSON response.
func (e *APIError) WriteError(w http.ResponseWriter) {
	httpx.WriteJSON(w, e.StatusCode, ErrorResponse{
		Error:            e.Code,
		ErrorDescription: e.Description,
	})
}

// NewAPIError creates an APIError with a custom description.
func NewAPIError(statusCode int, code, description string) *APIError {
	return &APIError{
		StatusCode:  statusCode,
		Code:        code,
		Description: description,
	}
}

// IsCode reports whether err is an APIError with the given code.
func IsCode(err error, code string) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Code == code
}

var (
	ErrInvalidRequest = &APIError{
		StatusCode:  http.StatusBadRequest,
		Code:        ErrorCodeInvalidRequest,
		Description: "the request is malformed or missing required parameters",
	}

	// ErrUnauthorized covers unknown emails and wrong passwords alike.
	ErrUnauthorized = &APIError{
		StatusCode:  http.StatusUnauthorized,
		Code:        ErrorCodeUnauthorized,
		Description: "invalid credentials",
	}

	ErrInvalidCode = &APIError{
		StatusCode:  http.StatusBadRequest,
		Code:        ErrorCodeInvalidCode,
		Description: "the one-time code is invalid or was already used",
	}

	ErrMFANotPending = &APIError{
		StatusCode:  http.StatusConflict,
		Code:        ErrorCodeMFANotPending,
		Description: "no mfa enrollment is pending",
	}

	ErrMFANotEnabled = &APIError{
		StatusCode:  http.StatusConflict,
		Code:        ErrorCodeMFANotEnabled,
		Description: "mfa is not enabled for this identity",
	}

	ErrMFAAlreadyEnabled = &APIError{
		StatusCode:  http.StatusConflict,
		Code:        ErrorCodeMFAAlreadyEnabled,
		Description: "mfa is already enabled for this identity",
	}

	ErrIdentityNotFound = &APIError{
		StatusCode:  http.StatusNotFound,
		Code:        ErrorCodeIdentityNotFound,
		Description: "identity not found",
	}

	ErrProviderError = &APIError{
		StatusCode:  http.StatusBadGateway,
		Code:        ErrorCodeProviderError,
		Description: "the identity provider rejected the login",
	}

	ErrServerError = &APIError{
		StatusCode:  http.StatusInternalServerError,
		Code:        ErrorCodeServerError,
		Description: "internal server error",
	}

	ErrInvalidToken = &APIError{
		StatusCode:  http.StatusUnauthorized,
		Code:        ErrorCodeInvalidToken,
		Description: "the access token is missing, invalid or expired",
	}
)

// MFAChallenge is returned by SDKClient.Login when the identity has MFA
// enabled. Complete the login with SDKClient.VerifyMFA.
type MFAChallenge struct {
	// TempToken is the challenge token. It is only accepted by the MFA
	// verification endpoint; every other endpoint rejects it as invalid_token.
	TempToken string

	// ExpiresIn is the challenge lifetime in seconds.
	ExpiresIn int
}

func (e *MFAChallenge) Error() string {
	return "mfa verification required"
}

// parseErrorResponse turns a non-2xx response into an *APIError.
func parseErrorResponse(resp *http.Response, body []byte) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	var errResp ErrorResponse
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error != "" {
		return &APIError{
			StatusCode:  resp.StatusCode,
			Code:        errResp.Error,
			Description: errResp.ErrorDescription,
		}
	}

	return &APIError{
		StatusCode:  resp.StatusCode,
		Code:        ErrorCodeServerError,
		Description: fmt.Sprintf("HTTP %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode)),
	}
}
