package http

import (
	"encoding/json"
	"net/http"
	"time"

	"autotundra/internal/domain"
	sharederrors "autotundra/internal/shared/errors"
)

type nudgeAgentRequest struct {
	Message string `json:"message"`
}

// handleNudgeAgent publishes a nudge as a bus event addressed to the agent;
// there's no direct stdin-injection API into a running PTY from C9, so the
// nudge is delivered the same way every other agent-directed signal is:
// through C1, for whichever component is watching that agent to act on.
func (s *server) handleNudgeAgent(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, ok := s.agents.get(id); !ok {
		writeError(w, sharederrors.NewNotFoundError("agent not found: "+id))
		return
	}
	var req nudgeAgentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, sharederrors.NewValidationError("invalid request body"))
		return
	}
	if s.deps.Bus != nil {
		s.deps.Bus.Publish(domain.DomainEvent{
			Type:       domain.EventCustom,
			AgentID:    id,
			CustomType: "nudge",
			Message:    req.Message,
			Timestamp:  time.Now(),
		})
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"agent_id": id, "status": "nudged"})
}

// handleStopAgent requests that the agent identified by id be stopped.
func (s *server) handleStopAgent(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, ok := s.agents.get(id); !ok {
		writeError(w, sharederrors.NewNotFoundError("agent not found: "+id))
		return
	}
	if s.deps.Bus != nil {
		s.deps.Bus.Publish(domain.DomainEvent{
			Type:       domain.EventCustom,
			AgentID:    id,
			CustomType: "stop_requested",
			Timestamp:  time.Now(),
		})
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"agent_id": id, "status": "stop_requested"})
}
