// Package linear implements the Linear issue client behind the HTTP
// surface's /linear/* pass-through routes (C11), using Linear's GraphQL
// API with a circuit breaker guarding against sustained rate limiting.
package linear

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"autotundra/internal/external"
	sharederrors "autotundra/internal/shared/errors"
	"autotundra/internal/shared/logging"
)

const (
	graphqlURL   = "https://api.linear.app/graphql"
	apiKeyEnvVar = "LINEAR_API_KEY"
	tokenRefresh = 5 * time.Minute
	breakerName  = "linear"
)

// Issue is the subset of Linear's issue GraphQL shape the board exposes.
type Issue struct {
	ID         string `json:"id"`
	Identifier string `json:"identifier"`
	Title      string `json:"title"`
	StateName  string `json:"stateName"`
	URL        string `json:"url"`
}

// Client talks to Linear's GraphQL API scoped to a single team.
type Client struct {
	teamID  string
	apiKey  *external.EnvToken
	http    *http.Client
	breaker *sharederrors.CircuitBreaker
}

// New constructs a Client for teamID, reading its key from
// $LINEAR_API_KEY (re-read every 5 minutes to pick up rotation).
func New(teamID string, log logging.Logger) *Client {
	return &Client{
		teamID:  teamID,
		apiKey:  external.NewEnvToken(apiKeyEnvVar, tokenRefresh, log),
		http:    &http.Client{Timeout: 15 * time.Second},
		breaker: sharederrors.NewCircuitBreaker(breakerName, sharederrors.DefaultCircuitBreakerConfig()),
	}
}

const listIssuesQuery = `query($teamId: String!) {
  team(id: $teamId) {
    issues {
      nodes { id identifier title url state { name } }
    }
  }
}`

type graphqlRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables"`
}

type listIssuesResponse struct {
	Data struct {
		Team struct {
			Issues struct {
				Nodes []struct {
					ID         string `json:"id"`
					Identifier string `json:"identifier"`
					Title      string `json:"title"`
					URL        string `json:"url"`
					State      struct {
						Name string `json:"name"`
					} `json:"state"`
				} `json:"nodes"`
			} `json:"issues"`
		} `json:"team"`
	} `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

// ListIssues returns every issue in the client's team.
func (c *Client) ListIssues(ctx context.Context) ([]Issue, error) {
	payload, err := json.Marshal(graphqlRequest{
		Query:     listIssuesQuery,
		Variables: map[string]any{"teamId": c.teamID},
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequest(http.MethodPost, graphqlURL, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if key := c.apiKey.Current(); key != "" {
		req.Header.Set("Authorization", key)
	}

	var decoded listIssuesResponse
	err = external.DoJSON(ctx, c.http, c.breaker, "linear", req, func(body io.Reader) error {
		return json.NewDecoder(body).Decode(&decoded)
	})
	if err != nil {
		return nil, err
	}
	if len(decoded.Errors) > 0 {
		return nil, sharederrors.NewPermanentError(nil, "linear: "+decoded.Errors[0].Message)
	}

	nodes := decoded.Data.Team.Issues.Nodes
	out := make([]Issue, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, Issue{ID: n.ID, Identifier: n.Identifier, Title: n.Title, StateName: n.State.Name, URL: n.URL})
	}
	return out, nil
}

// Close releases the client's background token-refresh goroutine.
func (c *Client) Close() { c.apiKey.Close() }
