// Package social runs the OAuth2 authorization code exchange against external
// identity providers and returns the verified email they assert. Mapping that
// email onto a local identity is service.SocialResolver's job.
package social

import (
	"context"
	"errors"
	"sort"
)

var (
	ErrUnknownProvider = errors.New("social: unknown provider")
	ErrExchange        = errors.New("social: code exchange failed")
	ErrNoVerifiedEmail = errors.New("social: provider returned no verified email")
	ErrInvalidToken    = errors.New("social: id token rejected")
)

// Profile is what a provider asserts about the user after the exchange.
type Profile struct {
	Provider string
	Subject  string // provider-scoped user id
	Email    string // verified
}

// Provider is one configured identity provider.
type Provider interface {
	Name() string

	// AuthCodeURL is where the browser is sent to start a login. state is
	// echoed back on the callback.
	AuthCodeURL(state string) string

	// Exchange trades the callback code for a verified profile.
	Exchange(ctx context.Context, code, state string) (Profile, error)
}

// Registry looks providers up by name.
type Registry struct {
	providers map[string]Provider
}

func NewRegistry(providers ...Provider) *Registry {
	r := &Registry{providers: make(map[string]Provider, len(providers))}
	for _, p := range providers {
		r.providers[p.Name()] = p
	}
	return r
}

func (r *Registry) Get(name string) (Provider, error) {
	if r == nil {
		return nil, ErrUnknownProvider
	}
	p, ok := r.providers[name]
	if !ok {
		return nil, ErrUnknownProvider
	}
	return p, nil
}

// Names returns the configured provider names, sorted.
func (r *Registry) Names() []string {
	if r == nil {
		return nil
	}
	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
