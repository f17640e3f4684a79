package http

import (
	"errors"
	"net/http"
	"strconv"

	"autotundra/internal/external"
)

// writeExternalError maps a C11 client failure to its HTTP projection: a
// RateLimitedError becomes 429 with Retry-After, everything else a 502
// (the upstream tracker, not this service, is what's unavailable).
func writeExternalError(w http.ResponseWriter, err error) {
	var rl *external.RateLimitedError
	if errors.As(err, &rl) {
		w.Header().Set("Retry-After", strconv.Itoa(int(rl.Backoff.Seconds())))
		writeJSON(w, http.StatusTooManyRequests, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusBadGateway, map[string]string{"error": err.Error()})
}

func (s *server) handleGitHubIssues(w http.ResponseWriter, r *http.Request) {
	if s.deps.GitHub == nil {
		writeJSON(w, http.StatusNotImplemented, map[string]string{"error": "github client not configured"})
		return
	}
	issues, err := s.deps.GitHub.ListIssues(r.Context())
	if err != nil {
		writeExternalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, issues)
}

func (s *server) handleGitLabIssues(w http.ResponseWriter, r *http.Request) {
	if s.deps.GitLab == nil {
		writeJSON(w, http.StatusNotImplemented, map[string]string{"error": "gitlab client not configured"})
		return
	}
	issues, err := s.deps.GitLab.ListIssues(r.Context())
	if err != nil {
		writeExternalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, issues)
}

func (s *server) handleLinearIssues(w http.ResponseWriter, r *http.Request) {
	if s.deps.Linear == nil {
		writeJSON(w, http.StatusNotImplemented, map[string]string{"error": "linear client not configured"})
		return
	}
	issues, err := s.deps.Linear.ListIssues(r.Context())
	if err != nil {
		writeExternalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, issues)
}
