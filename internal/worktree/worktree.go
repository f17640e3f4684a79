// Package worktree implements the Worktree Manager (C6): per-task isolated
// git worktrees, merge-to-mainline with conflict detection and rollback,
// and stale-worktree cleanup. All git invocations go through a GitRunner
// capability so the manager is testable without a real git binary.
package worktree

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"autotundra/internal/domain"
	sharederrors "autotundra/internal/shared/errors"
	"autotundra/internal/shared/logging"
)

// GitRunner is the capability boundary this package depends on, letting
// tests inject a fake instead of shelling out to a real git binary.
type GitRunner interface {
	RunGit(cwd string, argv []string) (GitResult, error)
}

// GitResult is the outcome of one git invocation.
type GitResult struct {
	Success bool
	Stdout  string
	Stderr  string
}

// MergeOutcome tags the result of MergeToMain.
type MergeOutcome int

const (
	MergeSuccess MergeOutcome = iota
	MergeNothingToMerge
	MergeConflict
)

// MergeResult is the full outcome of a MergeToMain call.
type MergeResult struct {
	Outcome MergeOutcome
	Files   []string // populated only on MergeConflict
	Message string
}

// Manager creates, merges, and cleans up per-task worktrees rooted under
// baseDir/.worktrees.
type Manager struct {
	baseDir string
	git     GitRunner
	log     logging.Logger
}

// New constructs a Manager rooted at baseDir (typically the project's
// working copy) driving git through runner.
func New(baseDir string, runner GitRunner, log logging.Logger) *Manager {
	return &Manager{baseDir: baseDir, git: runner, log: logging.OrNop(log)}
}

// SanitizeName lower-cases title, keeps alnum runs joined by '-'/'_', and
// maps every other character to '-'. Mirrors §4.6's create_for_task naming
// rule exactly.
func SanitizeName(title string) string {
	var b strings.Builder
	lower := strings.ToLower(title)
	for _, r := range lower {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('-')
		}
	}
	out := b.String()
	for strings.Contains(out, "--") {
		out = strings.ReplaceAll(out, "--", "-")
	}
	out = strings.Trim(out, "-")
	if out == "" {
		out = "task"
	}
	return out
}

// AlreadyExistsError reports CreateForTask being called against a path
// that already exists on disk.
type AlreadyExistsError struct {
	Path string
}

func (e *AlreadyExistsError) Error() string {
	return fmt.Sprintf("worktree: path already exists: %s", e.Path)
}

// worktreesDir is the base.`.worktrees` directory every task-scoped
// worktree lives under.
func (m *Manager) worktreesDir() string {
	return filepath.Join(m.baseDir, ".worktrees")
}

// CreateForTask creates an isolated worktree + branch for task, deriving
// both from task.Title via SanitizeName. Fails with *AlreadyExistsError if
// the target path already exists.
func (m *Manager) CreateForTask(task *domain.Task) (*domain.WorktreeInfo, error) {
	name := SanitizeName(task.Title)
	path := filepath.Join(m.worktreesDir(), name)
	branch := "task/" + name

	if _, err := os.Stat(path); err == nil {
		return nil, &AlreadyExistsError{Path: path}
	}

	if err := os.MkdirAll(m.worktreesDir(), 0o755); err != nil {
		return nil, fmt.Errorf("worktree: create base dir: %w", err)
	}

	res, err := m.git.RunGit(m.baseDir, []string{"worktree", "add", "-b", branch, path, "main"})
	if err != nil {
		return nil, sharederrors.NewWorktreeError(sharederrors.WorktreeGitCommand, err, "git worktree add failed")
	}
	if !res.Success {
		return nil, sharederrors.NewWorktreeError(sharederrors.WorktreeGitCommand, nil, strings.TrimSpace(res.Stderr))
	}

	info := &domain.WorktreeInfo{
		Path:       path,
		Branch:     branch,
		BaseBranch: "main",
		TaskName:   name,
		CreatedAt:  time.Now(),
	}
	m.log.Info("worktree created", "path", path, "branch", branch, "task_id", task.ID)
	return info, nil
}

// CleanupStale removes every worktree directory under baseDir/.worktrees
// whose mtime is older than now-maxAge, best-effort: a failed removal is
// logged and iteration continues. Returns the paths successfully removed.
func (m *Manager) CleanupStale(maxAge time.Duration) []string {
	entries, err := os.ReadDir(m.worktreesDir())
	if err != nil {
		return nil
	}

	cutoff := time.Now().Add(-maxAge)
	var removed []string
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		path := filepath.Join(m.worktreesDir(), entry.Name())
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}
		res, err := m.git.RunGit(m.baseDir, []string{"worktree", "remove", "--force", path})
		if err != nil || !res.Success {
			m.log.Warn("cleanup_stale: failed to remove worktree", "path", path, "error", err, "stderr", res.Stderr)
			continue
		}
		removed = append(removed, path)
	}
	return removed
}

// MergeToMain merges wt's branch into main per §4.6's exact sequencing:
// fetch (best-effort) → diff --stat (empty → NothingToMerge) → merge
// --no-ff --no-commit → on success: commit, remove worktree, delete
// branch; on failure: collect conflicted files, abort the merge. On every
// return path the working tree is left with no in-progress merge state.
func (m *Manager) MergeToMain(wt *domain.WorktreeInfo) (*MergeResult, error) {
	_, _ = m.git.RunGit(m.baseDir, []string{"fetch", "origin"})

	diff, err := m.git.RunGit(m.baseDir, []string{"diff", "--stat", wt.BaseBranch, wt.Branch})
	if err != nil {
		return nil, sharederrors.NewWorktreeError(sharederrors.WorktreeGitCommand, err, "git diff --stat failed")
	}
	if strings.TrimSpace(diff.Stdout) == "" {
		return &MergeResult{Outcome: MergeNothingToMerge}, nil
	}

	merge, mergeErr := m.git.RunGit(m.baseDir, []string{"merge", "--no-ff", "--no-commit", wt.Branch})
	if mergeErr == nil && merge.Success {
		commit, err := m.git.RunGit(m.baseDir, []string{"commit", "-m", fmt.Sprintf("Merge branch '%s' into main", wt.Branch)})
		if err != nil || !commit.Success {
			if _, abortErr := m.git.RunGit(m.baseDir, []string{"merge", "--abort"}); abortErr != nil {
				m.log.Warn("merge_to_main: merge --abort failed", "error", abortErr)
			}
			msg := "merge commit failed"
			if err == nil {
				msg = strings.TrimSpace(commit.Stderr)
			}
			return nil, sharederrors.NewWorktreeError(sharederrors.WorktreeGitCommand, err, msg)
		}
		if _, err := m.git.RunGit(m.baseDir, []string{"worktree", "remove", "--force", wt.Path}); err != nil {
			m.log.Warn("merge_to_main: failed to remove worktree after merge", "path", wt.Path, "error", err)
		}
		if _, err := m.git.RunGit(m.baseDir, []string{"branch", "-d", wt.Branch}); err != nil {
			m.log.Warn("merge_to_main: failed to delete branch after merge", "branch", wt.Branch, "error", err)
		}
		m.log.Info("worktree merged", "branch", wt.Branch)
		return &MergeResult{Outcome: MergeSuccess}, nil
	}

	files := conflictFiles(m.git, m.baseDir, merge.Stderr)
	if _, err := m.git.RunGit(m.baseDir, []string{"merge", "--abort"}); err != nil {
		m.log.Warn("merge_to_main: merge --abort failed", "error", err)
	}
	return &MergeResult{Outcome: MergeConflict, Files: files, Message: strings.TrimSpace(merge.Stderr)}, nil
}

// conflictFiles collects conflicted paths via `git diff --name-only
// --diff-filter=U`, falling back to parsing `CONFLICT` lines out of stderr
// if that yields nothing.
func conflictFiles(git GitRunner, cwd, stderr string) []string {
	res, err := git.RunGit(cwd, []string{"diff", "--name-only", "--diff-filter=U"})
	if err == nil && res.Success {
		if files := splitNonEmptyLines(res.Stdout); len(files) > 0 {
			return files
		}
	}

	var files []string
	for _, line := range strings.Split(stderr, "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "CONFLICT") {
			continue
		}
		if idx := strings.LastIndex(line, " in "); idx >= 0 {
			files = append(files, strings.TrimSpace(line[idx+len(" in "):]))
		}
	}
	return files
}

func splitNonEmptyLines(s string) []string {
	var out []string
	for _, line := range strings.Split(s, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
