// Package github implements the GitHub issue/PR client behind the HTTP
// surface's /github/* pass-through routes (C11), using the REST v3 API
// with a circuit breaker guarding against sustained rate limiting.
package github

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"autotundra/internal/external"
	sharederrors "autotundra/internal/shared/errors"
	"autotundra/internal/shared/logging"
)

const (
	baseURL      = "https://api.github.com"
	tokenEnvVar  = "GITHUB_TOKEN"
	tokenRefresh = 5 * time.Minute
	breakerName  = "github"
)

// Issue is the subset of GitHub's issue/PR JSON shape the board exposes.
type Issue struct {
	Number    int       `json:"number"`
	Title     string    `json:"title"`
	State     string    `json:"state"`
	HTMLURL   string    `json:"html_url"`
	Body      string    `json:"body"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Client talks to api.github.com on behalf of a single owner/repo.
type Client struct {
	owner, repo string
	token       *external.EnvToken
	http        *http.Client
	breaker     *sharederrors.CircuitBreaker
}

// New constructs a Client for owner/repo, reading its token from
// $GITHUB_TOKEN (re-read every 5 minutes to pick up rotation).
func New(owner, repo string, log logging.Logger) *Client {
	return &Client{
		owner:   owner,
		repo:    repo,
		token:   external.NewEnvToken(tokenEnvVar, tokenRefresh, log),
		http:    &http.Client{Timeout: 15 * time.Second},
		breaker: sharederrors.NewCircuitBreaker(breakerName, sharederrors.DefaultCircuitBreakerConfig()),
	}
}

func (c *Client) authorize(req *http.Request) {
	if tok := c.token.Current(); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
}

// ListIssues returns the repository's open issues (GitHub's API includes
// PRs in this endpoint; callers filter on PullRequest presence if needed).
func (c *Client) ListIssues(ctx context.Context) ([]Issue, error) {
	url := fmt.Sprintf("%s/repos/%s/%s/issues?state=open", baseURL, c.owner, c.repo)
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	c.authorize(req)

	var issues []Issue
	err = external.DoJSON(ctx, c.http, c.breaker, "github", req, func(body io.Reader) error {
		return json.NewDecoder(body).Decode(&issues)
	})
	return issues, err
}

// GetIssue fetches a single issue/PR by number.
func (c *Client) GetIssue(ctx context.Context, number int) (Issue, error) {
	url := fmt.Sprintf("%s/repos/%s/%s/issues/%d", baseURL, c.owner, c.repo, number)
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return Issue{}, err
	}
	c.authorize(req)

	var issue Issue
	err = external.DoJSON(ctx, c.http, c.breaker, "github", req, func(body io.Reader) error {
		return json.NewDecoder(body).Decode(&issue)
	})
	return issue, err
}

// Close releases the client's background token-refresh goroutine.
func (c *Client) Close() { c.token.Close() }
