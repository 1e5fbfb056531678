package state

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/chiziuwaga/fixitforme-contractor-sub002/pkg/models"
)

// RecordSession inserts or replaces the ledger row for s.
func (db *DB) RecordSession(s models.ExecutionSession) error {
	_, err := db.Exec(`
		INSERT INTO execution_sessions
			(id, agent, user_id, started_at, estimated_ms, status, progress, current_task, ended_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			status = excluded.status,
			progress = excluded.progress,
			current_task = excluded.current_task,
			ended_at = excluded.ended_at,
			updated_at = excluded.updated_at
	`, s.ID, string(s.Agent), s.UserID, formatTime(s.StartedAt), s.EstimatedDuration.Milliseconds(),
		string(s.Status), s.Progress, s.CurrentTask, nullableTime(s.EndedAt), formatTime(time.Now()))
	if err != nil {
		return fmt.Errorf("record session %s: %w", s.ID, err)
	}
	return nil
}

// GetSession retrieves a session by ID. Returns nil, nil if it does not exist.
func (db *DB) GetSession(id string) (*models.ExecutionSession, error) {
	row := db.QueryRow(`
		SELECT id, agent, user_id, started_at, estimated_ms, status, progress, current_task, ended_at
		FROM execution_sessions WHERE id = ?
	`, id)

	s, err := scanSession(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	return &s, nil
}

// ListSessions returns the most recently started sessions, newest first.
// A nil status lists every status. A limit of zero or less means no limit.
func (db *DB) ListSessions(status *models.ExecutionStatus, limit int) ([]models.ExecutionSession, error) {
	query := `
		SELECT id, agent, user_id, started_at, estimated_ms, status, progress, current_task, ended_at
		FROM execution_sessions`
	var args []any
	if status != nil {
		query += " WHERE status = ?"
		args = append(args, string(*status))
	}
	query += " ORDER BY started_at DESC"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []models.ExecutionSession
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}

// SessionCounts returns the number of ledger rows per status.
func (db *DB) SessionCounts() (map[models.ExecutionStatus]int, error) {
	rows, err := db.Query(`SELECT status, COUNT(*) FROM execution_sessions GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("count sessions: %w", err)
	}
	defer rows.Close()

	counts := make(map[models.ExecutionStatus]int)
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("scan session count: %w", err)
		}
		counts[models.ExecutionStatus(status)] = n
	}
	return counts, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (models.ExecutionSession, error) {
	var s models.ExecutionSession
	var agent, status, startedAt string
	var estimatedMS int64
	var endedAt sql.NullString

	if err := row.Scan(&s.ID, &agent, &s.UserID, &startedAt, &estimatedMS, &status, &s.Progress, &s.CurrentTask, &endedAt); err != nil {
		return s, err
	}

	s.Agent = models.AgentID(agent)
	s.Status = models.ExecutionStatus(status)
	s.StartedAt, _ = parseTime(startedAt)
	s.EstimatedDuration = time.Duration(estimatedMS) * time.Millisecond
	s.EndedAt = parseNullableTime(endedAt)
	return s, nil
}
