package http

import (
	"encoding/json"
	"net/http"
	"sort"

	"autotundra/internal/domain"
	sharederrors "autotundra/internal/shared/errors"
)

type lockColumnRequest struct {
	ColumnID string `json:"column_id"`
	Locked   bool   `json:"locked"`
}

// handleLockColumn toggles a kanban column's manual-reorder lock. Column
// layout is operator config, not task/bead state, so it's held directly in
// storage's settings map rather than a dedicated collection.
func (s *server) handleLockColumn(w http.ResponseWriter, r *http.Request) {
	var req lockColumnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, sharederrors.NewValidationError("invalid request body"))
		return
	}
	if req.ColumnID == "" {
		writeError(w, sharederrors.NewValidationError("column_id is required"))
		return
	}
	value := "false"
	if req.Locked {
		value = "true"
	}
	s.deps.Storage.SetSetting("kanban.column_lock."+req.ColumnID, value)
	writeJSON(w, http.StatusOK, map[string]any{"column_id": req.ColumnID, "locked": req.Locked})
}

type kanbanOrderingRequest struct {
	BeadIDs []string `json:"bead_ids"`
}

// handleKanbanOrdering accepts the client's full drag-and-drop ordering for
// a column and persists it as a priority assignment (highest first),
// rejecting any bead ID that isn't known.
func (s *server) handleKanbanOrdering(w http.ResponseWriter, r *http.Request) {
	var req kanbanOrderingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, sharederrors.NewValidationError("invalid request body"))
		return
	}
	beads := make([]*domain.Bead, 0, len(req.BeadIDs))
	for _, id := range req.BeadIDs {
		bead, ok := s.deps.Storage.GetBead(id)
		if !ok {
			writeError(w, sharederrors.NewNotFoundError("bead not found: "+id))
			return
		}
		beads = append(beads, bead)
	}
	n := len(beads)
	for i, bead := range beads {
		bead.Priority = n - i
		s.deps.Storage.PutBead(bead)
	}
	writeJSON(w, http.StatusOK, map[string]any{"reordered": len(beads)})
}

type pokerStartRequest struct {
	BeadID       string            `json:"bead_id"`
	Deck         *domain.PokerDeck `json:"deck,omitempty"`
	Participants []string          `json:"participants"`
}

func (s *server) handlePokerStart(w http.ResponseWriter, r *http.Request) {
	var req pokerStartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, sharederrors.NewValidationError("invalid request body"))
		return
	}
	deck := domain.PokerDeck{}
	if req.Deck != nil {
		deck = *req.Deck
	}
	session := s.deps.Poker.Start(req.BeadID, deck, req.Participants)
	writeJSON(w, http.StatusCreated, session)
}

type pokerVoteRequest struct {
	SessionID     string `json:"session_id"`
	ParticipantID string `json:"participant_id"`
	Value         string `json:"value"`
}

func (s *server) handlePokerVote(w http.ResponseWriter, r *http.Request) {
	var req pokerVoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, sharederrors.NewValidationError("invalid request body"))
		return
	}
	session, err := s.deps.Poker.Vote(req.SessionID, req.ParticipantID, req.Value)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

type pokerRevealRequest struct {
	SessionID string `json:"session_id"`
}

func (s *server) handlePokerReveal(w http.ResponseWriter, r *http.Request) {
	var req pokerRevealRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, sharederrors.NewValidationError("invalid request body"))
		return
	}
	session, err := s.deps.Poker.Reveal(req.SessionID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

type pokerSimulateRequest struct {
	BeadID     string `json:"bead_id"`
	AgentCount int    `json:"agent_count"`
	Seed       int64  `json:"seed"`
	AutoReveal bool   `json:"auto_reveal"`
}

// handlePokerSimulate drives scenario S6: given the same (bead_id,
// agent_count, seed), it always produces the same votes and consensus_card.
func (s *server) handlePokerSimulate(w http.ResponseWriter, r *http.Request) {
	var req pokerSimulateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, sharederrors.NewValidationError("invalid request body"))
		return
	}
	session := s.deps.Poker.Simulate(req.BeadID, req.AgentCount, req.Seed, req.AutoReveal)
	writeJSON(w, http.StatusCreated, session)
}

func (s *server) handlePokerGet(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	session, ok := s.deps.Poker.Get(id)
	if !ok {
		writeError(w, sharederrors.NewNotFoundError("poker session not found: "+id))
		return
	}
	writeJSON(w, http.StatusOK, session)
}

// handleListAgents reports every agent the bus has reported status for,
// sorted by ID for a stable listing.
func (s *server) handleListAgents(w http.ResponseWriter, r *http.Request) {
	agents := s.agents.list()
	sort.Slice(agents, func(i, j int) bool { return agents[i].ID < agents[j].ID })
	writeJSON(w, http.StatusOK, agents)
}
