package models

import "time"

// ExecutionStatus represents the lifecycle state of an execution session.
type ExecutionStatus string

const (
	// ExecutionRunning indicates the session was admitted and is in flight.
	ExecutionRunning ExecutionStatus = "running"
	// ExecutionCompleted indicates the owner marked the work done.
	ExecutionCompleted ExecutionStatus = "completed"
	// ExecutionCancelled indicates the owner stopped tracking the work.
	ExecutionCancelled ExecutionStatus = "cancelled"
	// ExecutionFailed indicates the work failed or timed out.
	ExecutionFailed ExecutionStatus = "failed"
)

// Valid returns true if the status is a known value.
func (s ExecutionStatus) Valid() bool {
	switch s {
	case ExecutionRunning, ExecutionCompleted, ExecutionCancelled, ExecutionFailed:
		return true
	default:
		return false
	}
}

// Terminal returns true for completed, cancelled and failed.
func (s ExecutionStatus) Terminal() bool {
	switch s {
	case ExecutionCompleted, ExecutionCancelled, ExecutionFailed:
		return true
	default:
		return false
	}
}

// ExecutionSession tracks one admitted agent task.
type ExecutionSession struct {
	// ID is the opaque, unique session identifier.
	ID string `json:"id"`
	// Agent is the agent running the task.
	Agent AgentID `json:"agent"`
	// UserID is the owner of the session.
	UserID string `json:"user_id"`
	// StartedAt is when the session was admitted.
	StartedAt time.Time `json:"started_at"`
	// EstimatedDuration is the caller's estimate of the task length.
	EstimatedDuration time.Duration `json:"estimated_duration"`
	// Status is the lifecycle state.
	Status ExecutionStatus `json:"status"`
	// Progress is the completion percentage (0-100).
	Progress int `json:"progress"`
	// CurrentTask describes what the agent is doing right now.
	CurrentTask string `json:"current_task"`
	// EndedAt is when the session reached a terminal state.
	EndedAt time.Time `json:"ended_at,omitempty"`
}

// Age returns how long the session has existed as of now.
func (s ExecutionSession) Age(now time.Time) time.Duration {
	return now.Sub(s.StartedAt)
}
