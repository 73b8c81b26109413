package social

import (
	"context"
	"fmt"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"
)

// OIDCConfig configures a generic OpenID Connect provider discovered from
// IssuerURL.
type OIDCConfig struct {
	Name         string // defaults to "oidc"
	IssuerURL    string
	ClientID     string
	ClientSecret string
	RedirectURL  string
}

// OIDCProvider verifies the id_token returned by the code exchange and
// requires email_verified.
type OIDCProvider struct {
	name     string
	oauth    *oauth2.Config
	verifier *oidc.IDTokenVerifier
}

// NewOIDCProvider fetches the discovery document, so it needs the issuer
// to be reachable.
func NewOIDCProvider(ctx context.Context, cfg OIDCConfig) (*OIDCProvider, error) {
	provider, err := oidc.NewProvider(ctx, cfg.IssuerURL)
	if err != nil {
		return nil, fmt.Errorf("social: oidc discovery: %w", err)
	}

	name := cfg.Name
	if name == "" {
		name = "oidc"
	}

	return &OIDCProvider{
		name: name,
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Endpoint:     provider.Endpoint(),
			Scopes:       []string{oidc.ScopeOpenID, "email", "profile"},
		},
		verifier: provider.Verifier(&oidc.Config{ClientID: cfg.ClientID}),
	}, nil
}

func (p *OIDCProvider) Name() string { return p.name }

// AuthCodeURL binds the state to the id_token through the nonce.
func (p *OIDCProvider) AuthCodeURL(state string) string {
	return p.oauth.AuthCodeURL(state, oidc.Nonce(state))
}

func (p *OIDCProvider) Exchange(ctx context.Context, code, state string) (Profile, error) {
	token, err := p.oauth.Exchange(ctx, code)
	if err != nil {
		return Profile{}, fmt.Errorf("%w: %v", ErrExchange, err)
	}

	raw, ok := token.Extra("id_token").(string)
	if !ok || raw == "" {
		return Profile{}, fmt.Errorf("%w: no id_token in token response", ErrInvalidToken)
	}

	idToken, err := p.verifier.Verify(ctx, raw)
	if err != nil {
		return Profile{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if idToken.Nonce != state {
		return Profile{}, fmt.Errorf("%w: nonce mismatch", ErrInvalidToken)
	}

	var claims struct {
		Email         string `json:"email"`
		EmailVerified bool   `json:"email_verified"`
	}
	if err := idToken.Claims(&claims); err != nil {
		return Profile{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Email == "" || !claims.EmailVerified {
		return Profile{}, ErrNoVerifiedEmail
	}

	return Profile{
		Provider: p.name,
		Subject:  idToken.Subject,
		Email:    claims.Email,
	}, nil
}
