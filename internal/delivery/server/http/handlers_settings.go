package http

import (
	"encoding/json"
	"net/http"
)

const directModeSettingKey = "agents.direct_mode"

func (s *server) handleGetDirectMode(w http.ResponseWriter, r *http.Request) {
	value, _ := s.deps.Storage.GetSetting(directModeSettingKey)
	writeJSON(w, http.StatusOK, map[string]bool{"direct_mode": value == "true"})
}

type setDirectModeRequest struct {
	DirectMode bool `json:"direct_mode"`
}

func (s *server) handleSetDirectMode(w http.ResponseWriter, r *http.Request) {
	var req setDirectModeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	value := "false"
	if req.DirectMode {
		value = "true"
	}
	s.deps.Storage.SetSetting(directModeSettingKey, value)
	writeJSON(w, http.StatusOK, map[string]bool{"direct_mode": req.DirectMode})
}

// handleCredentialsStatus reports which external clients (GitHub, GitLab,
// Linear) were constructed at startup, without ever returning token values.
// It does not check whether a client's token is actually set.
func (s *server) handleCredentialsStatus(w http.ResponseWriter, r *http.Request) {
	status := map[string]bool{
		"github": s.deps.GitHub != nil,
		"gitlab": s.deps.GitLab != nil,
		"linear": s.deps.Linear != nil,
	}
	writeJSON(w, http.StatusOK, status)
}
