package authsdk

import (
	"sync"
	"time"
)

// Session holds a full access token. It does not refresh; log in again once
// Expired reports true.
type Session struct {
	client *SDKClient

	mu          sync.RWMutex
	accessToken string
	expiresAt   time.Time
	user        *User
}

// newSession creates a session from a full token response.
func newSession(client *SDKClient, out *LoginResponse) *Session {
	// 30 second buffer so a request started just before expiry still lands.
	expiresAt := time.Now().Add(time.Duration(out.ExpiresIn)*time.Second - 30*time.Second)

	return &Session{
		client:      client,
		accessToken: out.AccessToken,
		expiresAt:   expiresAt,
		user:        out.User,
	}
}

// AccessToken returns the bearer token.
func (s *Session) AccessToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.accessToken
}

// User returns the identity summary from the login response, or nil for
// sessions built with NewSessionFromToken.
func (s *Session) User() *User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user
}

// Expired reports whether the access token is at or past its expiry.
func (s *Session) Expired() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return !time.Now().Before(s.expiresAt)
}
