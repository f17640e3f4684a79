package domain

import "time"

// EventType tags the variant of a DomainEvent's payload.
type EventType string

const (
	EventTaskPhaseChanged   EventType = "TaskPhaseChanged"
	EventTaskLogAppended    EventType = "TaskLogAppended"
	EventAgentStatusChanged EventType = "AgentStatusChanged"
	EventPipelineStarted    EventType = "PipelineStarted"
	EventPipelineComplete   EventType = "PipelineComplete"
	EventMergeResult        EventType = "MergeResult"
	EventCustom             EventType = "Custom"
)

// DomainEvent is the tagged-union value C1 fans out to subscribers. Only
// the fields relevant to Type are populated; Payload carries the rest for
// EventCustom and anything a specific variant doesn't have a named field
// for (kept loose so new event shapes don't require a bus API change).
type DomainEvent struct {
	Type       EventType      `json:"type"`
	TaskID     string         `json:"task_id,omitempty"`
	AgentID    string         `json:"agent_id,omitempty"`
	Phase      TaskPhase      `json:"phase,omitempty"`
	LogEntry   *TaskLogEntry  `json:"log_entry,omitempty"`
	Message    string         `json:"message,omitempty"`
	CustomType string         `json:"custom_type,omitempty"`
	Payload    map[string]any `json:"payload,omitempty"`
	Timestamp  time.Time      `json:"timestamp"`
}
