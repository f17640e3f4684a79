// Package gitlab implements the GitLab issue/MR client behind the HTTP
// surface's /gitlab/* pass-through routes (C11), using the v4 REST API
// with a circuit breaker guarding against sustained rate limiting.
package gitlab

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"autotundra/internal/external"
	sharederrors "autotundra/internal/shared/errors"
	"autotundra/internal/shared/logging"
)

const (
	baseURL      = "https://gitlab.com/api/v4"
	tokenEnvVar  = "GITLAB_TOKEN"
	tokenRefresh = 5 * time.Minute
	breakerName  = "gitlab"
)

// Issue is the subset of GitLab's issue JSON shape the board exposes.
type Issue struct {
	IID       int       `json:"iid"`
	Title     string    `json:"title"`
	State     string    `json:"state"`
	WebURL    string    `json:"web_url"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Client talks to gitlab.com on behalf of a single numeric project ID.
type Client struct {
	projectID string
	token     *external.EnvToken
	http      *http.Client
	breaker   *sharederrors.CircuitBreaker
}

// New constructs a Client for projectID, reading its token from
// $GITLAB_TOKEN (re-read every 5 minutes to pick up rotation).
func New(projectID string, log logging.Logger) *Client {
	return &Client{
		projectID: projectID,
		token:     external.NewEnvToken(tokenEnvVar, tokenRefresh, log),
		http:      &http.Client{Timeout: 15 * time.Second},
		breaker:   sharederrors.NewCircuitBreaker(breakerName, sharederrors.DefaultCircuitBreakerConfig()),
	}
}

func (c *Client) authorize(req *http.Request) {
	if tok := c.token.Current(); tok != "" {
		req.Header.Set("PRIVATE-TOKEN", tok)
	}
}

// ListIssues returns the project's open issues.
func (c *Client) ListIssues(ctx context.Context) ([]Issue, error) {
	reqURL := fmt.Sprintf("%s/projects/%s/issues?state=opened", baseURL, url.PathEscape(c.projectID))
	req, err := http.NewRequest(http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}
	c.authorize(req)

	var issues []Issue
	err = external.DoJSON(ctx, c.http, c.breaker, "gitlab", req, func(body io.Reader) error {
		return json.NewDecoder(body).Decode(&issues)
	})
	return issues, err
}

// GetIssue fetches a single issue by its project-scoped IID.
func (c *Client) GetIssue(ctx context.Context, iid int) (Issue, error) {
	reqURL := fmt.Sprintf("%s/projects/%s/issues/%d", baseURL, url.PathEscape(c.projectID), iid)
	req, err := http.NewRequest(http.MethodGet, reqURL, nil)
	if err != nil {
		return Issue{}, err
	}
	c.authorize(req)

	var issue Issue
	err = external.DoJSON(ctx, c.http, c.breaker, "gitlab", req, func(body io.Reader) error {
		return json.NewDecoder(body).Decode(&issue)
	})
	return issue, err
}

// Close releases the client's background token-refresh goroutine.
func (c *Client) Close() { c.token.Close() }
