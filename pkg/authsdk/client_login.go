package authsdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// Login authenticates with email and password. When the identity has MFA
// enabled the returned error is an *MFAChallenge and the Session is nil.
func (c *SDKClient) Login(ctx context.Context, email, password string) (*Session, error) {
	body, err := json.Marshal(LoginRequest{Email: email, Password: password})
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	resp, err := c.doRequest(ctx, http.MethodPost, "/v1/auth/login", bytes.NewReader(body), jsonHeaders())
	if err != nil {
		return nil, err
	}

	var out LoginResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return c.sessionOrChallenge(&out)
}

// VerifyMFA completes a login with the temp token from an MFAChallenge.
func (c *SDKClient) VerifyMFA(ctx context.Context, tempToken, code string) (*Session, error) {
	body, err := json.Marshal(CodeRequest{Code: code})
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	resp, err := c.send(ctx, http.MethodPost, "/v1/auth/mfa/verify", tempToken, bytes.NewReader(body), jsonHeaders())
	if err != nil {
		return nil, err
	}

	var out LoginResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return newSession(c, &out), nil
}

func (c *SDKClient) sessionOrChallenge(out *LoginResponse) (*Session, error) {
	if out.MFARequired {
		return nil, &MFAChallenge{TempToken: out.TempToken, ExpiresIn: out.ExpiresIn}
	}
	return newSession(c, out), nil
}

func jsonHeaders() map[string]string {
	return map[string]string{"Content-Type": "application/json"}
}
