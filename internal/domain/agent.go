package domain

import "time"

// AgentStatus is the lifecycle state of a spawned agent process.
type AgentStatus string

const (
	AgentActive  AgentStatus = "Active"
	AgentIdle    AgentStatus = "Idle"
	AgentPending AgentStatus = "Pending"
	AgentStopped AgentStatus = "Stopped"
)

// Agent is created by the executor on process spawn and destroyed when the
// child process exits.
type Agent struct {
	ID        string      `json:"id"`
	Name      string      `json:"name"`
	Role      string      `json:"role"`
	CLIType   string      `json:"cli_type"`
	Model     string      `json:"model"`
	Status    AgentStatus `json:"status"`
	LastSeen  time.Time   `json:"last_seen"`
	SessionID *string     `json:"session_id,omitempty"`
}
