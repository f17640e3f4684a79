package rlm

import (
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// SubTaskStatus is a decomposition sub-task's lifecycle state.
type SubTaskStatus string

const (
	SubTaskPending  SubTaskStatus = "pending"
	SubTaskRunning  SubTaskStatus = "running"
	SubTaskComplete SubTaskStatus = "complete"
	SubTaskFailed   SubTaskStatus = "failed"
	SubTaskSkipped  SubTaskStatus = "skipped"
)

// SynthesisStrategy selects how Decomposition.Synthesize combines
// completed sub-task results.
type SynthesisStrategy string

const (
	SynthesizeConcatenate SynthesisStrategy = "concatenate"
	SynthesizeLLMMerge    SynthesisStrategy = "llm_merge"
	SynthesizeBestOf      SynthesisStrategy = "best_of"
	SynthesizeVote        SynthesisStrategy = "vote"
	SynthesizeRefine      SynthesisStrategy = "refine"
)

// SubTask is one node in a Decomposition tree.
type SubTask struct {
	ID             uuid.UUID
	Description    string
	Status         SubTaskStatus
	Sequence       int
	ContextFoldID  *uuid.UUID
	ContextSlice   *[2]int
	Result         *string
	AgentRole      *string
	Parallelizable bool
}

// Decomposition recursively breaks a task into sub-tasks, dispatches them,
// and synthesizes their results — the orchestrator's analogue of an RLM
// batch call.
type Decomposition struct {
	mu sync.RWMutex

	ID              uuid.UUID
	TaskDescription string
	Subtasks        map[uuid.UUID]*SubTask
	nextSequence    int
	Synthesis       SynthesisStrategy
	MaxDepth        int
	Depth           int
}

// NewDecomposition creates a root decomposition (depth 0) with the default
// concatenate synthesis strategy.
func NewDecomposition(task string, maxDepth int) *Decomposition {
	return &Decomposition{
		ID:              uuid.New(),
		TaskDescription: task,
		Subtasks:        make(map[uuid.UUID]*SubTask),
		Synthesis:       SynthesizeConcatenate,
		MaxDepth:        maxDepth,
	}
}

// AddSubtask appends a pending, parallelizable-by-default sub-task and
// returns its id.
func (d *Decomposition) AddSubtask(description string) uuid.UUID {
	d.mu.Lock()
	defer d.mu.Unlock()
	st := &SubTask{
		ID:             uuid.New(),
		Description:    description,
		Status:         SubTaskPending,
		Sequence:       d.nextSequence,
		Parallelizable: true,
	}
	d.nextSequence++
	d.Subtasks[st.ID] = st
	return st.ID
}

// PendingSubtasks returns every sub-task still awaiting dispatch.
func (d *Decomposition) PendingSubtasks() []*SubTask {
	d.mu.RLock()
	defer d.mu.RUnlock()
	var out []*SubTask
	for _, st := range d.Subtasks {
		if st.Status == SubTaskPending {
			out = append(out, st)
		}
	}
	return out
}

// ParallelBatch returns pending sub-tasks flagged parallelizable.
func (d *Decomposition) ParallelBatch() []*SubTask {
	d.mu.RLock()
	defer d.mu.RUnlock()
	var out []*SubTask
	for _, st := range d.Subtasks {
		if st.Status == SubTaskPending && st.Parallelizable {
			out = append(out, st)
		}
	}
	return out
}

// RecordResult marks a sub-task complete with its result. Reports whether
// the sub-task id existed.
func (d *Decomposition) RecordResult(id uuid.UUID, result string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	st, ok := d.Subtasks[id]
	if !ok {
		return false
	}
	st.Result = &result
	st.Status = SubTaskComplete
	return true
}

// MarkFailed marks a sub-task failed. Reports whether the id existed.
func (d *Decomposition) MarkFailed(id uuid.UUID) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	st, ok := d.Subtasks[id]
	if !ok {
		return false
	}
	st.Status = SubTaskFailed
	return true
}

// IsComplete reports whether the decomposition has at least one sub-task
// and every sub-task is Complete or Skipped.
func (d *Decomposition) IsComplete() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if len(d.Subtasks) == 0 {
		return false
	}
	for _, st := range d.Subtasks {
		if st.Status != SubTaskComplete && st.Status != SubTaskSkipped {
			return false
		}
	}
	return true
}

// HasFailures reports whether any sub-task has failed.
func (d *Decomposition) HasFailures() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, st := range d.Subtasks {
		if st.Status == SubTaskFailed {
			return true
		}
	}
	return false
}

// Synthesize combines completed sub-task results per the configured
// strategy. LLMMerge and Vote require an actual model call the caller
// layers on top; here they fall back to concatenation, matching the
// no-LLM-available default.
func (d *Decomposition) Synthesize() string {
	d.mu.RLock()
	defer d.mu.RUnlock()

	type seqResult struct {
		seq    int
		result string
	}
	var completed []seqResult
	for _, st := range d.Subtasks {
		if st.Result != nil {
			completed = append(completed, seqResult{seq: st.Sequence, result: *st.Result})
		}
	}
	sort.Slice(completed, func(i, j int) bool { return completed[i].seq < completed[j].seq })

	results := make([]string, len(completed))
	for i, c := range completed {
		results[i] = c.result
	}

	switch d.Synthesis {
	case SynthesizeBestOf, SynthesizeRefine:
		if len(results) == 0 {
			return ""
		}
		return results[len(results)-1]
	default: // Concatenate, LLMMerge, Vote
		return strings.Join(results, "\n\n---\n\n")
	}
}

// CanRecurse reports whether Depth is still below MaxDepth.
func (d *Decomposition) CanRecurse() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.Depth < d.MaxDepth
}

// Child creates a new decomposition for a sub-task, one level deeper,
// inheriting the parent's synthesis strategy and depth ceiling.
func (d *Decomposition) Child(task string) *Decomposition {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return &Decomposition{
		ID:              uuid.New(),
		TaskDescription: task,
		Subtasks:        make(map[uuid.UUID]*SubTask),
		Synthesis:       d.Synthesis,
		MaxDepth:        d.MaxDepth,
		Depth:           d.Depth + 1,
	}
}
