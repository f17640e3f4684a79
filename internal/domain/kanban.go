package domain

import "time"

// KanbanColumnConfig is a board column's display config: name, order, and
// whether manual reordering within it is locked.
type KanbanColumnConfig struct {
	ID     string     `json:"id"`
	Name   string     `json:"name"`
	Status BeadStatus `json:"status"`
	Order  int        `json:"order"`
	Locked bool       `json:"locked"`
}

// PokerDeck is a named set of estimation card values (e.g. Fibonacci).
type PokerDeck struct {
	Name   string   `json:"name"`
	Values []string `json:"values"`
}

// PokerVote is one participant's vote in a PlanningPokerSession round.
type PokerVote struct {
	ParticipantID string `json:"participant_id"`
	Value         string `json:"value"`
}

// PlanningPokerSessionStatus is the lifecycle of an estimation round.
type PlanningPokerSessionStatus string

const (
	PokerOpen     PlanningPokerSessionStatus = "open"
	PokerRevealed PlanningPokerSessionStatus = "revealed"
	PokerClosed   PlanningPokerSessionStatus = "closed"
)

// PokerStats summarizes a revealed round's vote distribution.
type PokerStats struct {
	VoteCounts map[string]int `json:"vote_counts"`
	Agreement  float64        `json:"agreement"` // fraction of votes matching the consensus card
}

// PlanningPokerSession is one estimation round over a Bead/Task, driven by
// the kanban.planning_poker config's deck and reveal rules.
type PlanningPokerSession struct {
	ID            string                     `json:"id"`
	BeadID        string                     `json:"bead_id"`
	Deck          PokerDeck                  `json:"deck"`
	Status        PlanningPokerSessionStatus `json:"status"`
	Votes         []PokerVote                `json:"votes,omitempty"`
	Participants  []string                   `json:"participants"`
	Result        *string                    `json:"result,omitempty"`
	ConsensusCard string                     `json:"consensus_card,omitempty"`
	Stats         *PokerStats                `json:"stats,omitempty"`
	Seed          *int64                     `json:"seed,omitempty"`
	CreatedAt     time.Time                  `json:"created_at"`
	RevealedAt    *time.Time                 `json:"revealed_at,omitempty"`
}

// AllVoted reports whether every participant has cast a vote.
func (s *PlanningPokerSession) AllVoted() bool {
	if len(s.Participants) == 0 {
		return false
	}
	voted := make(map[string]bool, len(s.Votes))
	for _, v := range s.Votes {
		voted[v.ParticipantID] = true
	}
	for _, p := range s.Participants {
		if !voted[p] {
			return false
		}
	}
	return true
}

// Attachment is a file uploaded against a task (design doc, log export).
type Attachment struct {
	ID          string    `json:"id"`
	TaskID      string    `json:"task_id"`
	FileName    string    `json:"file_name"`
	ContentType string    `json:"content_type"`
	SizeBytes   int64     `json:"size_bytes"`
	StorageKey  string    `json:"storage_key"`
	CreatedAt   time.Time `json:"created_at"`
}

// TaskDraft is an unsubmitted Task being composed in the UI before it's
// promoted to a real Task.
type TaskDraft struct {
	ID          string    `json:"id"`
	BeadID      string    `json:"bead_id,omitempty"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Category    string    `json:"category,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
