package authsdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// BeginEnrollment starts TOTP enrollment and returns the new secret.
// Calling it again before confirmation replaces the pending secret.
func (s *Session) BeginEnrollment(ctx context.Context) (*EnrollmentResponse, error) {
	resp, err := s.doAuthRequest(ctx, http.MethodPost, "/v1/mfa/totp/enroll", nil, nil)
	if err != nil {
		return nil, err
	}

	var out EnrollmentResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// ConfirmEnrollment enables MFA with a code from the pending secret.
func (s *Session) ConfirmEnrollment(ctx context.Context, code string) error {
	body, err := json.Marshal(CodeRequest{Code: code})
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	resp, err := s.doAuthRequest(ctx, http.MethodPost, "/v1/mfa/totp/confirm", bytes.NewReader(body), jsonHeaders())
	if err != nil {
		return err
	}

	var out SuccessResponse
	return decodeJSON(resp, &out, http.StatusOK)
}
