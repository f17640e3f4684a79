package http

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"

	"autotundra/internal/domain"
	sharederrors "autotundra/internal/shared/errors"
)

func (s *server) handleListBeads(w http.ResponseWriter, r *http.Request) {
	if s.deps.Storage == nil {
		writeJSON(w, http.StatusOK, []*domain.Bead{})
		return
	}
	writeJSON(w, http.StatusOK, s.deps.Storage.ListBeads())
}

type createBeadRequest struct {
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Lane        domain.BeadLane `json:"lane"`
	Priority    int             `json:"priority"`
}

func (s *server) handleCreateBead(w http.ResponseWriter, r *http.Request) {
	var req createBeadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, sharederrors.NewValidationError("invalid request body"))
		return
	}
	if req.Title == "" {
		writeError(w, sharederrors.NewValidationError("title is required"))
		return
	}
	if req.Lane == "" {
		req.Lane = domain.LaneStandard
	}
	now := time.Now()
	bead := &domain.Bead{
		ID:          uuid.NewString(),
		Title:       req.Title,
		Description: req.Description,
		Lane:        req.Lane,
		Status:      domain.BeadBacklog,
		Priority:    req.Priority,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	s.deps.Storage.PutBead(bead)
	writeJSON(w, http.StatusCreated, bead)
}

func (s *server) handleGetBead(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	bead, ok := s.deps.Storage.GetBead(id)
	if !ok {
		writeError(w, sharederrors.NewNotFoundError("bead not found: "+id))
		return
	}
	writeJSON(w, http.StatusOK, bead)
}

type updateBeadRequest struct {
	Title       *string          `json:"title"`
	Description *string          `json:"description"`
	Lane        *domain.BeadLane `json:"lane"`
	Priority    *int             `json:"priority"`
}

func (s *server) handleUpdateBead(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	bead, ok := s.deps.Storage.GetBead(id)
	if !ok {
		writeError(w, sharederrors.NewNotFoundError("bead not found: "+id))
		return
	}
	var req updateBeadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, sharederrors.NewValidationError("invalid request body"))
		return
	}
	if req.Title != nil {
		bead.Title = *req.Title
	}
	if req.Description != nil {
		bead.Description = *req.Description
	}
	if req.Lane != nil {
		bead.Lane = *req.Lane
	}
	if req.Priority != nil {
		bead.Priority = *req.Priority
	}
	bead.UpdatedAt = time.Now()
	s.deps.Storage.PutBead(bead)
	writeJSON(w, http.StatusOK, bead)
}

type transitionBeadRequest struct {
	Status domain.BeadStatus `json:"status"`
}

func (s *server) handleTransitionBead(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	bead, ok := s.deps.Storage.GetBead(id)
	if !ok {
		writeError(w, sharederrors.NewNotFoundError("bead not found: "+id))
		return
	}
	var req transitionBeadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, sharederrors.NewValidationError("invalid request body"))
		return
	}
	if !domain.CanTransitionBead(bead.Status, req.Status) {
		writeError(w, sharederrors.NewConflictError(
			"illegal bead transition: "+string(bead.Status)+" -> "+string(req.Status)))
		return
	}
	bead.Status = req.Status
	bead.UpdatedAt = time.Now()
	s.deps.Storage.PutBead(bead)
	writeJSON(w, http.StatusOK, bead)
}
