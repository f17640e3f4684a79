package http

import (
	"net/http"
	"path/filepath"

	"autotundra/internal/domain"
	sharederrors "autotundra/internal/shared/errors"
	"autotundra/internal/worktree"
)

// worktreeView is the wire shape for a task's worktree: WorktreeInfo itself
// has no ID (it's a value object owned by the task), so C9 keys the
// /api/worktrees/{id} surface off the owning task's ID.
type worktreeView struct {
	TaskID     string `json:"task_id"`
	Path       string `json:"path"`
	Branch     string `json:"branch"`
	BaseBranch string `json:"base_branch"`
	Phase      string `json:"phase"`
}

func worktreeInfoForTask(task *domain.Task) (*domain.WorktreeInfo, bool) {
	if task.WorktreePath == nil || task.GitBranch == nil {
		return nil, false
	}
	return &domain.WorktreeInfo{
		Path:       *task.WorktreePath,
		Branch:     *task.GitBranch,
		BaseBranch: "main",
		TaskName:   filepath.Base(*task.WorktreePath),
		CreatedAt:  task.CreatedAt,
	}, true
}

func (s *server) handleListWorktrees(w http.ResponseWriter, r *http.Request) {
	var out []worktreeView
	for _, task := range s.deps.Storage.ListTasks() {
		info, ok := worktreeInfoForTask(task)
		if !ok {
			continue
		}
		out = append(out, worktreeView{
			TaskID:     task.ID,
			Path:       info.Path,
			Branch:     info.Branch,
			BaseBranch: info.BaseBranch,
			Phase:      string(task.Phase),
		})
	}
	if out == nil {
		out = []worktreeView{}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *server) handleGetWorktree(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	task, ok := s.deps.Storage.GetTask(id)
	if !ok {
		writeError(w, sharederrors.NewNotFoundError("task not found: "+id))
		return
	}
	info, ok := worktreeInfoForTask(task)
	if !ok {
		writeError(w, sharederrors.NewNotFoundError("task "+id+" has no worktree"))
		return
	}
	writeJSON(w, http.StatusOK, worktreeView{
		TaskID: id, Path: info.Path, Branch: info.Branch, BaseBranch: info.BaseBranch, Phase: string(task.Phase),
	})
}

func (s *server) handleMergeWorktree(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	task, ok := s.deps.Storage.GetTask(id)
	if !ok {
		writeError(w, sharederrors.NewNotFoundError("task not found: "+id))
		return
	}
	info, ok := worktreeInfoForTask(task)
	if !ok {
		writeError(w, sharederrors.NewNotFoundError("task "+id+" has no worktree"))
		return
	}
	result, err := s.deps.Worktrees.MergeToMain(info)
	if err != nil {
		writeError(w, err)
		return
	}
	if result.Outcome == worktree.MergeSuccess {
		task.SetPhase(domain.PhaseComplete)
		now := task.UpdatedAt
		task.CompletedAt = &now
		s.deps.Storage.PutTask(task)
	} else if result.Outcome == worktree.MergeConflict {
		s.publishNotification("merge_conflict", "task "+id+" merge conflict: "+result.Message)
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *server) handleMergePreview(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	task, ok := s.deps.Storage.GetTask(id)
	if !ok {
		writeError(w, sharederrors.NewNotFoundError("task not found: "+id))
		return
	}
	info, ok := worktreeInfoForTask(task)
	if !ok {
		writeError(w, sharederrors.NewNotFoundError("task "+id+" has no worktree"))
		return
	}
	preview, err := s.deps.Worktrees.PreviewMerge(info)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"task_id": id, "path": info.Path, "branch": info.Branch, "base_branch": info.BaseBranch,
		"would_conflict": preview.WouldConflict, "nothing_to_merge": preview.NothingToMerge,
		"files": preview.Files, "diffs": preview.Diffs,
	})
}

type resolveWorktreeRequest struct {
	Strategy string `json:"strategy"`
}

// handleResolveWorktree retries MergeToMain after the caller has resolved
// conflicts in the worktree (e.g. via an external editor); the manager has
// no separate "resolve" primitive, so this is just a re-run of the merge.
func (s *server) handleResolveWorktree(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	task, ok := s.deps.Storage.GetTask(id)
	if !ok {
		writeError(w, sharederrors.NewNotFoundError("task not found: "+id))
		return
	}
	info, ok := worktreeInfoForTask(task)
	if !ok {
		writeError(w, sharederrors.NewNotFoundError("task "+id+" has no worktree"))
		return
	}
	result, err := s.deps.Worktrees.MergeToMain(info)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
