package state

import (
	"io"
	"time"

	"github.com/chiziuwaga/fixitforme-contractor-sub002/pkg/models"
)

// SessionLedger handles execution-session persistence.
type SessionLedger interface {
	RecordSession(s models.ExecutionSession) error
	GetSession(id string) (*models.ExecutionSession, error)
	ListSessions(status *models.ExecutionStatus, limit int) ([]models.ExecutionSession, error)
	RecoverInterrupted(now time.Time) (int64, error)
	SessionCounts() (map[models.ExecutionStatus]int, error)
}

// DecisionLog handles routing decision persistence.
type DecisionLog interface {
	RecordDecision(d *Decision) error
	ListDecisions(limit int) ([]Decision, error)
	DecisionCounts() (map[models.AgentID]int, error)
}

// Migrator handles database schema migrations.
type Migrator interface {
	// Migrate applies all pending schema migrations.
	Migrate() error
}

// StateStore composes the persistence interfaces used by the CLI.
type StateStore interface {
	io.Closer
	Migrator
	SessionLedger
	DecisionLog
}

// Compile-time verification that DB implements all interfaces.
var (
	_ StateStore    = (*DB)(nil)
	_ Migrator      = (*DB)(nil)
	_ SessionLedger = (*DB)(nil)
	_ DecisionLog   = (*DB)(nil)
)
