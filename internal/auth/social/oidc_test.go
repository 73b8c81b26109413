package social

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/usama-mangi/kushim-web-sub002/pkg/jwtx"
)

type fakeIssuer struct {
	srv    *httptest.Server
	key    *rsa.PrivateKey
	claims jwt.MapClaims
}

func newFakeIssuer(t *testing.T) *fakeIssuer {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	f := &fakeIssuer{key: key}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /.well-known/openid-configuration", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"issuer":                                f.srv.URL,
			"authorization_endpoint":                f.srv.URL + "/authorize",
			"token_endpoint":                        f.srv.URL + "/token",
			"jwks_uri":                              f.srv.URL + "/jwks",
			"id_token_signing_alg_values_supported": []string{"RS256"},
		})
	})
	mux.HandleFunc("GET /jwks", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(jwtx.JWKS{Keys: []jwtx.JWK{
			jwtx.NewRSAJWK("k1", "sig", "RS256", &key.PublicKey),
		}})
	})
	mux.HandleFunc("POST /token", func(w http.ResponseWriter, r *http.Request) {
		tok := jwt.NewWithClaims(jwt.SigningMethodRS256, f.claims)
		tok.Header["kid"] = "k1"
		raw, err := tok.SignedString(key)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token": "at",
			"token_type":   "bearer",
			"expires_in":   300,
			"id_token":     raw,
		})
	})

	f.srv = httptest.NewServer(mux)
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakeIssuer) issue(nonce, email string, verified bool) {
	now := time.Now()
	f.claims = jwt.MapClaims{
		"iss":            f.srv.URL,
		"aud":            "client",
		"sub":            "subject-1",
		"iat":            now.Unix(),
		"exp":            now.Add(5 * time.Minute).Unix(),
		"nonce":          nonce,
		"email":          email,
		"email_verified": verified,
	}
}

func newTestOIDC(t *testing.T, f *fakeIssuer) *OIDCProvider {
	t.Helper()
	p, err := NewOIDCProvider(context.Background(), OIDCConfig{
		Name:         "corp",
		IssuerURL:    f.srv.URL,
		ClientID:     "client",
		ClientSecret: "secret",
		RedirectURL:  "http://localhost/callback",
	})
	require.NoError(t, err)
	return p
}

func TestOIDCProvider_AuthCodeURL(t *testing.T) {
	f := newFakeIssuer(t)
	p := newTestOIDC(t, f)
	require.Equal(t, "corp", p.Name())

	u, err := url.Parse(p.AuthCodeURL("st-1"))
	require.NoError(t, err)
	require.Equal(t, "/authorize", u.Path)
	require.Equal(t, "st-1", u.Query().Get("state"))
	require.Equal(t, "st-1", u.Query().Get("nonce"))
	require.Contains(t, u.Query().Get("scope"), "openid")
}

func TestOIDCProvider_Exchange(t *testing.T) {
	f := newFakeIssuer(t)
	p := newTestOIDC(t, f)

	f.issue("st-1", "dev@example.com", true)
	profile, err := p.Exchange(context.Background(), "code", "st-1")
	require.NoError(t, err)
	require.Equal(t, Profile{Provider: "corp", Subject: "subject-1", Email: "dev@example.com"}, profile)
}

func TestOIDCProvider_Rejections(t *testing.T) {
	f := newFakeIssuer(t)
	p := newTestOIDC(t, f)

	t.Run("unverified email", func(t *testing.T) {
		f.issue("st-1", "dev@example.com", false)
		_, err := p.Exchange(context.Background(), "code", "st-1")
		require.ErrorIs(t, err, ErrNoVerifiedEmail)
	})

	t.Run("missing email", func(t *testing.T) {
		f.issue("st-1", "", true)
		_, err := p.Exchange(context.Background(), "code", "st-1")
		require.ErrorIs(t, err, ErrNoVerifiedEmail)
	})

	t.Run("nonce mismatch", func(t *testing.T) {
		f.issue("other", "dev@example.com", true)
		_, err := p.Exchange(context.Background(), "code", "st-1")
		require.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("wrong audience", func(t *testing.T) {
		f.issue("st-1", "dev@example.com", true)
		f.claims["aud"] = "someone-else"
		_, err := p.Exchange(context.Background(), "code", "st-1")
		require.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestNewOIDCProvider_DiscoveryFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	t.Cleanup(srv.Close)

	_, err := NewOIDCProvider(context.Background(), OIDCConfig{IssuerURL: srv.URL, ClientID: "c"})
	require.Error(t, err)
}
