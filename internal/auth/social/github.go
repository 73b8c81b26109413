package social

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"
)

const defaultGitHubAPI = "https://api.github.com"

// GitHubConfig configures the GitHub provider. Endpoint and APIBase default
// to github.com.
type GitHubConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	Endpoint     *oauth2.Endpoint
	APIBase      string
}

// GitHubProvider uses the primary verified address from /user/emails.
type GitHubProvider struct {
	oauth   *oauth2.Config
	apiBase string
}

func NewGitHubProvider(cfg GitHubConfig) *GitHubProvider {
	endpoint := github.Endpoint
	if cfg.Endpoint != nil {
		endpoint = *cfg.Endpoint
	}
	apiBase := strings.TrimRight(cfg.APIBase, "/")
	if apiBase == "" {
		apiBase = defaultGitHubAPI
	}

	return &GitHubProvider{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       []string{"read:user", "user:email"},
			Endpoint:     endpoint,
		},
		apiBase: apiBase,
	}
}

func (p *GitHubProvider) Name() string { return "github" }

func (p *GitHubProvider) AuthCodeURL(state string) string {
	return p.oauth.AuthCodeURL(state)
}

func (p *GitHubProvider) Exchange(ctx context.Context, code, state string) (Profile, error) {
	token, err := p.oauth.Exchange(ctx, code)
	if err != nil {
		return Profile{}, fmt.Errorf("%w: %v", ErrExchange, err)
	}
	client := p.oauth.Client(ctx, token)

	var user struct {
		ID    int64  `json:"id"`
		Login string `json:"login"`
	}
	if err := getJSON(ctx, client, p.apiBase+"/user", &user); err != nil {
		return Profile{}, err
	}

	var emails []struct {
		Email    string `json:"email"`
		Primary  bool   `json:"primary"`
		Verified bool   `json:"verified"`
	}
	if err := getJSON(ctx, client, p.apiBase+"/user/emails", &emails); err != nil {
		return Profile{}, err
	}

	for _, e := range emails {
		if e.Primary && e.Verified && e.Email != "" {
			return Profile{
				Provider: p.Name(),
				Subject:  strconv.FormatInt(user.ID, 10),
				Email:    e.Email,
			}, nil
		}
	}
	return Profile{}, ErrNoVerifiedEmail
}

func getJSON(ctx context.Context, client *http.Client, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrExchange, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: %s returned status %d", ErrExchange, url, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode %s: %v", ErrExchange, url, err)
	}
	return nil
}
