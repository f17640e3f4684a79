package domain

import "time"

// TaskPhase is a node in the pipeline state machine C8 drives a Task
// through. See ProgressPercent for the canonical progress mapping and
// internal/orchestrator for the transition edges.
type TaskPhase string

const (
	PhaseDiscovery        TaskPhase = "Discovery"
	PhaseContextGathering TaskPhase = "ContextGathering"
	PhaseSpecCreation     TaskPhase = "SpecCreation"
	PhasePlanning         TaskPhase = "Planning"
	PhaseCoding           TaskPhase = "Coding"
	PhaseQA               TaskPhase = "QA"
	PhaseFixing           TaskPhase = "Fixing"
	PhaseMerging          TaskPhase = "Merging"
	PhaseComplete         TaskPhase = "Complete"
	PhaseError            TaskPhase = "Error"
	PhaseStopped          TaskPhase = "Stopped"
)

// phaseProgress is the canonical progress_percent for each phase, shown on
// the kanban board while a task is in flight.
var phaseProgress = map[TaskPhase]int{
	PhaseDiscovery:        5,
	PhaseContextGathering: 15,
	PhaseSpecCreation:     25,
	PhasePlanning:         35,
	PhaseCoding:           60,
	PhaseQA:               75,
	PhaseFixing:           70,
	PhaseMerging:          90,
	PhaseComplete:         100,
	PhaseError:            0,
	PhaseStopped:          0,
}

// ProgressPercent returns the canonical progress percentage for p.
func (p TaskPhase) ProgressPercent() int {
	return phaseProgress[p]
}

// LogKind classifies a TaskLogEntry.
type LogKind string

const (
	LogInfo       LogKind = "Info"
	LogSuccess    LogKind = "Success"
	LogError      LogKind = "Error"
	LogPhaseStart LogKind = "PhaseStart"
	LogPhaseEnd   LogKind = "PhaseEnd"
)

// TaskLogEntry is one append-only line of a Task's execution history.
type TaskLogEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Kind      LogKind   `json:"kind"`
	Message   string    `json:"message"`
}

// Task is an executable instance attached to a Bead. Exactly one Task may
// be non-terminal (not Complete/Error/Stopped) per Bead at a time.
type Task struct {
	ID              string         `json:"id"`
	BeadID          string         `json:"bead_id"`
	Title           string         `json:"title"`
	Description     string         `json:"description"`
	Category        string         `json:"category"`
	Priority        int            `json:"priority"`
	Complexity      int            `json:"complexity"`
	Phase           TaskPhase      `json:"phase"`
	ProgressPercent int            `json:"progress_percent"`
	WorktreePath    *string        `json:"worktree_path,omitempty"`
	GitBranch       *string        `json:"git_branch,omitempty"`
	Subtasks        []Subtask      `json:"subtasks,omitempty"`
	QaReport        *QaReport      `json:"qa_report,omitempty"`
	Logs            []TaskLogEntry `json:"logs,omitempty"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	StartedAt       *time.Time     `json:"started_at,omitempty"`
	CompletedAt     *time.Time     `json:"completed_at,omitempty"`
	Error           *string        `json:"error,omitempty"`
	Archived        bool           `json:"archived"`
}

// IsTerminal reports whether the task has left the active pipeline.
func (t *Task) IsTerminal() bool {
	switch t.Phase {
	case PhaseComplete, PhaseError, PhaseStopped:
		return true
	default:
		return false
	}
}

// AppendLog appends a timestamped log entry to the task's log.
func (t *Task) AppendLog(kind LogKind, message string) {
	t.Logs = append(t.Logs, TaskLogEntry{Timestamp: time.Now(), Kind: kind, Message: message})
}

// SetPhase advances the task to phase, syncing ProgressPercent.
func (t *Task) SetPhase(phase TaskPhase) {
	t.Phase = phase
	t.ProgressPercent = phase.ProgressPercent()
	t.UpdatedAt = time.Now()
}
