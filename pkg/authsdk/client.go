package authsdk

import (
	"net/http"
	"strings"
	"time"
)

// SDKClient is a client for the Kushim authentication service.
// It provides access to the unauthenticated operations (login, MFA
// verification, health and JWKS) and creates authenticated Sessions.
//
// An SDKClient holds no credentials and is safe for concurrent use.
type SDKClient struct {
	// BaseURL is the service root without a trailing slash,
	// e.g. "https://auth.example.com".
	BaseURL string

	// HTTPClient performs every request. Replace it to change timeouts or
	// transport settings.
	HTTPClient *http.Client
}

// NewSDKClient creates a new auth service client with a 10 second request
// timeout. A trailing slash on baseURL is removed.
func NewSDKClient(baseURL string) *SDKClient {
	return &SDKClient{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// NewSessionFromToken creates an authenticated session from an access token
// obtained elsewhere, for example one kept by a web frontend after login.
// expiresIn is the remaining lifetime in seconds; the session does not
// refresh, so callers log in again once it has passed.
func (c *SDKClient) NewSessionFromToken(accessToken string, expiresIn int) *Session {
	return newSession(c, &LoginResponse{AccessToken: accessToken, ExpiresIn: expiresIn})
}
