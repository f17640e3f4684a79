package domain

import "time"

// Release is a recorded build/deploy artifact the Storage Facade tracks
// under its `releases` collection (§4.10).
type Release struct {
	ID        string    `json:"id"`
	Version   string    `json:"version"`
	Notes     string    `json:"notes"`
	TaskIDs   []string  `json:"task_ids,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
