package auth_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/usama-mangi/kushim-web-sub002/pkg/authsdk"
	"github.com/usama-mangi/kushim-web-sub002/pkg/jwtx"
)

// TestJWKSVerification verifies that tokens issued by the service can be
// verified offline using the published JWKS.
func TestJWKSVerification(t *testing.T) {
	c := setupAuthContainer(t)
	c.createIdentity(t, adminEmail, adminPassword, "admin")

	client := authsdk.NewSDKClient(c.BaseURL)
	session := loginFull(t, client, adminEmail, adminPassword)

	jwksResp, err := client.GetJWKS(t.Context())
	require.NoError(t, err, "Should fetch JWKS successfully")
	require.NotEmpty(t, jwksResp.Keys, "JWKS should contain at least one key")

	keySet := jwtx.NewKeySet()
	require.NoError(t, keySet.ResetFromJWKS(jwtx.JWKS(*jwksResp)))

	verifier := jwtx.NewVerifier(keySet, jwtx.VerifyOptions{Issuer: testIssuer})
	verified, err := verifier.VerifySession(session.AccessToken())
	require.NoError(t, err, "Should verify access token successfully")

	full, ok := verified.(jwtx.FullSession)
	require.True(t, ok, "access token should decode to a full session, got %T", verified)
	require.Equal(t, adminEmail, full.Email)
	require.Equal(t, "admin", full.Role)
	require.Equal(t, []string{"pwd"}, full.AMR)
	require.NotZero(t, full.ExpiresAt)
}

// TestJWKSFormat verifies the JWKS endpoint returns properly formatted keys.
func TestJWKSFormat(t *testing.T) {
	c := setupAuthContainer(t)
	client := authsdk.NewSDKClient(c.BaseURL)

	jwksResp, err := client.GetJWKS(t.Context())
	require.NoError(t, err)
	require.Len(t, jwksResp.Keys, 1, "AUTH_NUM_KEYS=1 publishes one key")

	key := jwksResp.Keys[0]
	require.Equal(t, "EdDSA", key.Alg)
	require.Equal(t, "OKP", key.Kty)
	require.Equal(t, "Ed25519", key.Crv)
	require.Equal(t, "sig", key.Use)
	require.NotEmpty(t, key.Kid)
	require.NotEmpty(t, key.X)

	pemStr, err := key.PEM()
	require.NoError(t, err, "Should convert JWK to PEM")
	require.Contains(t, pemStr, "PUBLIC KEY")
}
