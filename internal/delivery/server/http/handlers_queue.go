package http

import (
	"encoding/json"
	"net/http"
	"sort"

	"autotundra/internal/domain"
	sharederrors "autotundra/internal/shared/errors"
)

// pendingTasks returns every non-archived, not-yet-started task, highest
// priority first (ties broken by creation order).
func (s *server) pendingTasks() []*domain.Task {
	var out []*domain.Task
	for _, t := range s.deps.Storage.ListTasks() {
		if t.Archived || t.StartedAt != nil || t.IsTerminal() {
			continue
		}
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Priority != out[j].Priority {
			return out[i].Priority > out[j].Priority
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

func (s *server) handleGetQueue(w http.ResponseWriter, r *http.Request) {
	out := s.pendingTasks()
	if out == nil {
		out = []*domain.Task{}
	}
	writeJSON(w, http.StatusOK, out)
}

type reorderQueueRequest struct {
	TaskIDs []string `json:"task_ids"`
}

func (s *server) handleReorderQueue(w http.ResponseWriter, r *http.Request) {
	var req reorderQueueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, sharederrors.NewValidationError("invalid request body"))
		return
	}
	n := len(req.TaskIDs)
	for i, id := range req.TaskIDs {
		task, ok := s.deps.Storage.GetTask(id)
		if !ok {
			writeError(w, sharederrors.NewNotFoundError("task not found: "+id))
			return
		}
		task.Priority = n - i
		s.deps.Storage.PutTask(task)
	}
	writeJSON(w, http.StatusOK, s.pendingTasks())
}

func (s *server) handlePrioritizeQueue(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("task_id")
	task, ok := s.deps.Storage.GetTask(id)
	if !ok {
		writeError(w, sharederrors.NewNotFoundError("task not found: "+id))
		return
	}
	top := s.pendingTasks()
	maxPriority := task.Priority
	for _, t := range top {
		if t.Priority > maxPriority {
			maxPriority = t.Priority
		}
	}
	task.Priority = maxPriority + 1
	s.deps.Storage.PutTask(task)
	writeJSON(w, http.StatusOK, task)
}
