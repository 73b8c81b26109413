package authsdk

import (
	"context"
	"net/http"
)

// GetLiveness calls /livez.
func (c *SDKClient) GetLiveness(ctx context.Context) (*HealthResponse, error) {
	return getJSON[HealthResponse](ctx, c, "/livez")
}

// GetReadiness calls /readyz. A degraded service answers 503, which is
// returned as an *APIError.
func (c *SDKClient) GetReadiness(ctx context.Context) (*HealthResponse, error) {
	return getJSON[HealthResponse](ctx, c, "/readyz")
}

// GetJWKS fetches the public keys that verify issued tokens.
func (c *SDKClient) GetJWKS(ctx context.Context) (*JWKSResponse, error) {
	return getJSON[JWKSResponse](ctx, c, "/.well-known/jwks.json")
}

func getJSON[T any](ctx context.Context, c *SDKClient, path string) (*T, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, path, nil, nil)
	if err != nil {
		return nil, err
	}

	var out T
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}
