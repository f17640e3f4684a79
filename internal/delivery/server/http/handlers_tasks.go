package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"

	"autotundra/internal/domain"
	sharederrors "autotundra/internal/shared/errors"
)

func (s *server) handleListTasks(w http.ResponseWriter, r *http.Request) {
	var out []*domain.Task
	for _, t := range s.deps.Storage.ListTasks() {
		if !t.Archived {
			out = append(out, t)
		}
	}
	if out == nil {
		out = []*domain.Task{}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *server) handleListArchivedTasks(w http.ResponseWriter, r *http.Request) {
	var out []*domain.Task
	for _, t := range s.deps.Storage.ListTasks() {
		if t.Archived {
			out = append(out, t)
		}
	}
	if out == nil {
		out = []*domain.Task{}
	}
	writeJSON(w, http.StatusOK, out)
}

type createTaskRequest struct {
	BeadID      string `json:"bead_id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Priority    int    `json:"priority"`
	Complexity  int    `json:"complexity"`
}

func (s *server) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	var req createTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, sharederrors.NewValidationError("invalid request body"))
		return
	}
	if req.Title == "" {
		writeError(w, sharederrors.NewValidationError("title is required"))
		return
	}
	if req.BeadID != "" {
		if _, ok := s.deps.Storage.GetBead(req.BeadID); !ok {
			writeError(w, sharederrors.NewNotFoundError("bead not found: "+req.BeadID))
			return
		}
		for _, existing := range s.deps.Storage.ListTasks() {
			if existing.BeadID == req.BeadID && !existing.IsTerminal() {
				writeError(w, sharederrors.NewConflictError(
					"bead "+req.BeadID+" already has a non-terminal task: "+existing.ID))
				return
			}
		}
	}
	now := time.Now()
	task := &domain.Task{
		ID:          uuid.NewString(),
		BeadID:      req.BeadID,
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Priority:    req.Priority,
		Complexity:  req.Complexity,
		Phase:       domain.PhaseDiscovery,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	task.SetPhase(domain.PhaseDiscovery)
	s.deps.Storage.PutTask(task)
	writeJSON(w, http.StatusCreated, task)
}

func (s *server) handleGetTask(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	task, ok := s.deps.Storage.GetTask(id)
	if !ok {
		writeError(w, sharederrors.NewNotFoundError("task not found: "+id))
		return
	}
	writeJSON(w, http.StatusOK, task)
}

// handleExecuteTask is the S1 happy-path entrypoint: it checks the task's
// budget, then hands the task to the orchestrator on its own goroutine
// (StartTask blocks for the task's full lifetime) and returns immediately
// with 202 Accepted so the caller follows progress over /ws or by polling
// GET /api/tasks/{id}.
func (s *server) handleExecuteTask(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	task, ok := s.deps.Storage.GetTask(id)
	if !ok {
		writeError(w, sharederrors.NewNotFoundError("task not found: "+id))
		return
	}
	if task.StartedAt != nil && !task.IsTerminal() {
		writeError(w, sharederrors.NewConflictError("task "+id+" is already running"))
		return
	}
	if s.deps.Costs != nil {
		check := s.deps.Costs.CheckBudget(id, 0, 0)
		if !check.IsAllowed() {
			s.publishNotification("budget_denied", "task "+id+" denied: "+check.Reason)
			writeError(w, sharederrors.NewBudgetDeniedError(check.Reason))
			return
		}
	}

	go func() {
		ctx := context.WithoutCancel(r.Context())
		if err := s.deps.Orchestrator.StartTask(ctx, task); err != nil {
			s.log.Warn("task execution failed", "task_id", id, "error", err)
		}
	}()

	writeJSON(w, http.StatusAccepted, task)
}

type setPhaseRequest struct {
	Phase domain.TaskPhase `json:"phase"`
}

func (s *server) handleSetTaskPhase(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	task, ok := s.deps.Storage.GetTask(id)
	if !ok {
		writeError(w, sharederrors.NewNotFoundError("task not found: "+id))
		return
	}
	var req setPhaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, sharederrors.NewValidationError("invalid request body"))
		return
	}
	task.SetPhase(req.Phase)
	s.deps.Storage.PutTask(task)
	writeJSON(w, http.StatusOK, task)
}

func (s *server) handleTaskLogs(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	task, ok := s.deps.Storage.GetTask(id)
	if !ok {
		writeError(w, sharederrors.NewNotFoundError("task not found: "+id))
		return
	}
	writeJSON(w, http.StatusOK, task.Logs)
}

func (s *server) handleArchiveTask(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	task, ok := s.deps.Storage.GetTask(id)
	if !ok {
		writeError(w, sharederrors.NewNotFoundError("task not found: "+id))
		return
	}
	if !task.IsTerminal() {
		writeError(w, sharederrors.NewConflictError("task "+id+" is not terminal"))
		return
	}
	task.Archived = true
	task.UpdatedAt = time.Now()
	s.deps.Storage.PutTask(task)
	writeJSON(w, http.StatusOK, task)
}

func (s *server) handleUnarchiveTask(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	task, ok := s.deps.Storage.GetTask(id)
	if !ok {
		writeError(w, sharederrors.NewNotFoundError("task not found: "+id))
		return
	}
	task.Archived = false
	task.UpdatedAt = time.Now()
	s.deps.Storage.PutTask(task)
	writeJSON(w, http.StatusOK, task)
}

func (s *server) handleCancelTask(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, ok := s.deps.Storage.GetTask(id); !ok {
		writeError(w, sharederrors.NewNotFoundError("task not found: "+id))
		return
	}
	s.deps.Orchestrator.CancelTask(id)
	task, _ := s.deps.Storage.GetTask(id)
	writeJSON(w, http.StatusOK, task)
}

func (s *server) handleRetryTask(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	task, ok := s.deps.Storage.GetTask(id)
	if !ok {
		writeError(w, sharederrors.NewNotFoundError("task not found: "+id))
		return
	}
	if task.Phase != domain.PhaseError && task.Phase != domain.PhaseStopped {
		writeError(w, sharederrors.NewConflictError("task "+id+" is not in a retryable phase"))
		return
	}
	ctx := context.WithoutCancel(r.Context())
	go func() {
		if err := s.deps.Orchestrator.RetryTask(ctx, task); err != nil {
			s.log.Warn("task retry failed", "task_id", id, "error", err)
		}
	}()
	writeJSON(w, http.StatusAccepted, task)
}

// ── Drafts ──

func (s *server) handleListDrafts(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.deps.Storage.ListDrafts())
}

type createDraftRequest struct {
	BeadID      string `json:"bead_id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Category    string `json:"category"`
}

func (s *server) handleCreateDraft(w http.ResponseWriter, r *http.Request) {
	var req createDraftRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, sharederrors.NewValidationError("invalid request body"))
		return
	}
	now := time.Now()
	draft := &domain.TaskDraft{
		ID:          uuid.NewString(),
		BeadID:      req.BeadID,
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	s.deps.Storage.PutDraft(draft)
	writeJSON(w, http.StatusCreated, draft)
}

func (s *server) handleDeleteDraft(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, ok := s.deps.Storage.GetDraft(id); !ok {
		writeError(w, sharederrors.NewNotFoundError("draft not found: "+id))
		return
	}
	s.deps.Storage.DeleteDraft(id)
	w.WriteHeader(http.StatusNoContent)
}

// ── Attachments ──

func (s *server) handleListAttachments(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	writeJSON(w, http.StatusOK, s.deps.Storage.ListAttachmentsForTask(id))
}

type createAttachmentRequest struct {
	FileName    string `json:"file_name"`
	ContentType string `json:"content_type"`
	SizeBytes   int64  `json:"size_bytes"`
	StorageKey  string `json:"storage_key"`
}

func (s *server) handleCreateAttachment(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, ok := s.deps.Storage.GetTask(id); !ok {
		writeError(w, sharederrors.NewNotFoundError("task not found: "+id))
		return
	}
	var req createAttachmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, sharederrors.NewValidationError("invalid request body"))
		return
	}
	attachment := &domain.Attachment{
		ID:          uuid.NewString(),
		TaskID:      id,
		FileName:    req.FileName,
		ContentType: req.ContentType,
		SizeBytes:   req.SizeBytes,
		StorageKey:  req.StorageKey,
		CreatedAt:   time.Now(),
	}
	s.deps.Storage.PutAttachment(attachment)
	writeJSON(w, http.StatusCreated, attachment)
}
