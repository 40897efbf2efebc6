// Package oauth wraps the GitHub authorization-code flow and normalizes the
// fetched account into an OAuthProfile.
package oauth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"

	"github.com/aakamshpm/unicode/internal/domain"
)

const defaultAPIBaseURL = "https://api.github.com"

// Config holds the GitHub OAuth application settings. Endpoint and APIBaseURL
// default to github.com and exist so tests can point at a local server.
// HTTPClient, when set, underlies both the code exchange and the API calls;
// the wiring passes a circuit-breaker guarded client here.
type Config struct {
	ClientID     string
	ClientSecret string
	CallbackURL  string
	Endpoint     oauth2.Endpoint
	APIBaseURL   string
	HTTPClient   *http.Client
}

// GitHubClient drives the GitHub authorization-code flow.
type GitHubClient struct {
	config     *oauth2.Config
	apiBaseURL string
	httpClient *http.Client
}

// NewGitHubClient creates a client for the GitHub OAuth application.
func NewGitHubClient(cfg Config) *GitHubClient {
	endpoint := cfg.Endpoint
	if endpoint.AuthURL == "" {
		endpoint = github.Endpoint
	}
	apiBaseURL := cfg.APIBaseURL
	if apiBaseURL == "" {
		apiBaseURL = defaultAPIBaseURL
	}

	return &GitHubClient{
		config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.CallbackURL,
			Scopes:       []string{"user:email"},
			Endpoint:     endpoint,
		},
		apiBaseURL: apiBaseURL,
		httpClient: cfg.HTTPClient,
	}
}

// AuthURL returns the GitHub authorization page URL carrying the given
// anti-forgery state.
func (c *GitHubClient) AuthURL(state string) string {
	return c.config.AuthCodeURL(state)
}

// githubUser is the subset of the GitHub /user response we consume.
type githubUser struct {
	Login     string `json:"login"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	AvatarURL string `json:"avatar_url"`
}

// githubEmail is one entry of the GitHub /user/emails response.
type githubEmail struct {
	Email    string `json:"email"`
	Primary  bool   `json:"primary"`
	Verified bool   `json:"verified"`
}

// FetchProfile exchanges the authorization code and fetches the account
// profile. When the public profile hides the email, the /user/emails endpoint
// supplies the primary verified address; a profile may still come back with
// an empty email, which callers must reject.
func (c *GitHubClient) FetchProfile(ctx context.Context, code string) (*domain.OAuthProfile, error) {
	if c.httpClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
	}

	token, err := c.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("exchange authorization code: %w", err)
	}

	client := c.config.Client(ctx, token)

	var user githubUser
	if err := c.getJSON(ctx, client, "/user", &user); err != nil {
		return nil, fmt.Errorf("fetch github user: %w", err)
	}

	email := user.Email
	if email == "" {
		var emails []githubEmail
		if err := c.getJSON(ctx, client, "/user/emails", &emails); err != nil {
			return nil, fmt.Errorf("fetch github emails: %w", err)
		}
		for _, e := range emails {
			if e.Primary && e.Verified {
				email = e.Email
				break
			}
		}
	}

	displayName := user.Name
	if displayName == "" {
		displayName = user.Login
	}

	return &domain.OAuthProfile{
		Email:       email,
		DisplayName: displayName,
		AvatarURL:   user.AvatarURL,
	}, nil
}

func (c *GitHubClient) getJSON(ctx context.Context, client *http.Client, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.apiBaseURL+path, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("github api request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("github api %s returned %d: %s", path, resp.StatusCode, body)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode github response: %w", err)
	}

	return nil
}
