package social

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

type fakeGitHub struct {
	emails     []map[string]any
	tokenCode  int
	emailsCode int
}

func (f *fakeGitHub) start(t *testing.T) (*GitHubProvider, *httptest.Server) {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("POST /login/oauth/access_token", func(w http.ResponseWriter, r *http.Request) {
		if f.tokenCode != 0 {
			w.WriteHeader(f.tokenCode)
			return
		}
		_ = r.ParseForm()
		if r.Form.Get("code") != "good-code" {
			w.WriteHeader(http.StatusBadRequest)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "bad_verification_code"})
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"access_token": "gh-token", "token_type": "bearer"})
	})
	mux.HandleFunc("GET /api/user", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer gh-token" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"id": 4242, "login": "octo"})
	})
	mux.HandleFunc("GET /api/user/emails", func(w http.ResponseWriter, r *http.Request) {
		if f.emailsCode != 0 {
			w.WriteHeader(f.emailsCode)
			return
		}
		_ = json.NewEncoder(w).Encode(f.emails)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	p := NewGitHubProvider(GitHubConfig{
		ClientID:     "client",
		ClientSecret: "secret",
		RedirectURL:  "http://localhost/callback",
		Endpoint: &oauth2.Endpoint{
			AuthURL:  srv.URL + "/login/oauth/authorize",
			TokenURL: srv.URL + "/login/oauth/access_token",
		},
		APIBase: srv.URL + "/api",
	})
	return p, srv
}

func TestGitHubProvider_AuthCodeURL(t *testing.T) {
	p, srv := (&fakeGitHub{}).start(t)

	u, err := url.Parse(p.AuthCodeURL("state-123"))
	require.NoError(t, err)
	require.Equal(t, srv.URL+"/login/oauth/authorize", u.Scheme+"://"+u.Host+u.Path)
	require.Equal(t, "state-123", u.Query().Get("state"))
	require.Equal(t, "client", u.Query().Get("client_id"))
	require.Equal(t, "read:user user:email", u.Query().Get("scope"))
}

func TestGitHubProvider_Exchange(t *testing.T) {
	f := &fakeGitHub{emails: []map[string]any{
		{"email": "old@example.com", "primary": false, "verified": true},
		{"email": "octo@example.com", "primary": true, "verified": true},
	}}
	p, _ := f.start(t)

	profile, err := p.Exchange(context.Background(), "good-code", "state")
	require.NoError(t, err)
	require.Equal(t, Profile{Provider: "github", Subject: "4242", Email: "octo@example.com"}, profile)
}

func TestGitHubProvider_PrimaryUnverified(t *testing.T) {
	f := &fakeGitHub{emails: []map[string]any{
		{"email": "octo@example.com", "primary": true, "verified": false},
		{"email": "other@example.com", "primary": false, "verified": true},
	}}
	p, _ := f.start(t)

	_, err := p.Exchange(context.Background(), "good-code", "state")
	require.ErrorIs(t, err, ErrNoVerifiedEmail)
}

func TestGitHubProvider_ExchangeFailures(t *testing.T) {
	t.Run("bad code", func(t *testing.T) {
		p, _ := (&fakeGitHub{}).start(t)
		_, err := p.Exchange(context.Background(), "bad-code", "state")
		require.ErrorIs(t, err, ErrExchange)
	})

	t.Run("emails endpoint down", func(t *testing.T) {
		p, _ := (&fakeGitHub{emailsCode: http.StatusBadGateway}).start(t)
		_, err := p.Exchange(context.Background(), "good-code", "state")
		require.ErrorIs(t, err, ErrExchange)
	})
}

func TestRegistry(t *testing.T) {
	gh := NewGitHubProvider(GitHubConfig{ClientID: "c"})
	r := NewRegistry(gh)

	p, err := r.Get("github")
	require.NoError(t, err)
	require.Same(t, gh, p)

	_, err = r.Get("gitlab")
	require.ErrorIs(t, err, ErrUnknownProvider)
	require.Equal(t, []string{"github"}, r.Names())

	var nilRegistry *Registry
	_, err = nilRegistry.Get("github")
	require.ErrorIs(t, err, ErrUnknownProvider)
}
