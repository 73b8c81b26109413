package authsdk

import (
	"context"
	"net/http"
)

// Me returns the identity behind the session and how it authenticated.
func (s *Session) Me(ctx context.Context) (*MeResponse, error) {
	return authGetJSON[MeResponse](ctx, s, "/v1/me")
}

// ListRoles lists every role. The session must hold the admin role;
// otherwise the error is an *APIError with code insufficient_scope.
func (s *Session) ListRoles(ctx context.Context) (*RolesResponse, error) {
	return authGetJSON[RolesResponse](ctx, s, "/v1/roles")
}

func authGetJSON[T any](ctx context.Context, s *Session, path string) (*T, error) {
	resp, err := s.doAuthRequest(ctx, http.MethodGet, path, nil, nil)
	if err != nil {
		return nil, err
	}

	var out T
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}
