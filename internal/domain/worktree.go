package domain

import "time"

// WorktreeInfo describes a git worktree C6 created for a task. It is
// created when the task enters ContextGathering and destroyed on a
// successful merge or explicit cleanup.
type WorktreeInfo struct {
	Path       string    `json:"path"`
	Branch     string    `json:"branch"`
	BaseBranch string    `json:"base_branch"`
	TaskName   string    `json:"task_name"`
	CreatedAt  time.Time `json:"created_at"`
}
