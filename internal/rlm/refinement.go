package rlm

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Revision is a single progressive-refinement revision of an answer.
type Revision struct {
	Version    int
	Content    string
	Delta      *string
	Confidence float64
	Timestamp  time.Time
}

// ProgressiveRefinement tracks an answer iteratively improved across
// multiple agent turns — RLM's "answer diffusion" pattern, rather than
// committing to a single response.
type ProgressiveRefinement struct {
	mu sync.RWMutex

	ID           uuid.UUID
	Task         string
	Revisions    []Revision
	MaxRevisions int
	Finalized    bool
}

// NewProgressiveRefinement starts a refinement session capped at
// maxRevisions revisions.
func NewProgressiveRefinement(task string, maxRevisions int) *ProgressiveRefinement {
	return &ProgressiveRefinement{
		ID:           uuid.New(),
		Task:         task,
		MaxRevisions: maxRevisions,
	}
}

// Revise appends a new revision. Confidence is clamped to [0, 1]. Returns
// false (no-op) once finalized or once MaxRevisions has been reached.
func (p *ProgressiveRefinement) Revise(content string, delta *string, confidence float64) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Finalized || len(p.Revisions) >= p.MaxRevisions {
		return false
	}
	if confidence < 0 {
		confidence = 0
	} else if confidence > 1 {
		confidence = 1
	}
	p.Revisions = append(p.Revisions, Revision{
		Version:    len(p.Revisions) + 1,
		Content:    content,
		Delta:      delta,
		Confidence: confidence,
		Timestamp:  time.Now(),
	})
	return true
}

// Latest returns the most recent revision, if any.
func (p *ProgressiveRefinement) Latest() *Revision {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if len(p.Revisions) == 0 {
		return nil
	}
	r := p.Revisions[len(p.Revisions)-1]
	return &r
}

// Finalize stops further revisions.
func (p *ProgressiveRefinement) Finalize() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Finalized = true
}

// IsConfident reports whether the latest revision's confidence is at or
// above threshold.
func (p *ProgressiveRefinement) IsConfident(threshold float64) bool {
	latest := p.Latest()
	return latest != nil && latest.Confidence >= threshold
}

// RevisionCount returns how many revisions have been recorded.
func (p *ProgressiveRefinement) RevisionCount() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.Revisions)
}

// CanRevise reports whether another Revise call would succeed.
func (p *ProgressiveRefinement) CanRevise() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return !p.Finalized && len(p.Revisions) < p.MaxRevisions
}
