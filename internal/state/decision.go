package state

import (
	"fmt"
	"time"

	"github.com/chiziuwaga/fixitforme-contractor-sub002/pkg/models"
)

// Decision is one routing outcome. The routed message is not kept.
type Decision struct {
	ID         int64
	Target     models.AgentID
	Rule       string
	Reason     string
	Intent     string
	Confidence float64
	NewThread  bool
	HasAccess  bool
	CreatedAt  time.Time
}

// RecordDecision appends d to the decision log and sets its ID.
func (db *DB) RecordDecision(d *Decision) error {
	if d.CreatedAt.IsZero() {
		d.CreatedAt = time.Now()
	}
	result, err := db.Exec(`
		INSERT INTO routing_decisions (target, rule, reason, intent, confidence, new_thread, has_access, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, string(d.Target), d.Rule, d.Reason, d.Intent, d.Confidence, d.NewThread, d.HasAccess, formatTime(d.CreatedAt))
	if err != nil {
		return fmt.Errorf("record decision: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("get decision id: %w", err)
	}
	d.ID = id
	return nil
}

// ListDecisions returns the latest decisions, newest first.
// A limit of zero or less means no limit.
func (db *DB) ListDecisions(limit int) ([]Decision, error) {
	query := `
		SELECT id, target, rule, reason, intent, confidence, new_thread, has_access, created_at
		FROM routing_decisions ORDER BY id DESC`
	var args []any
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list decisions: %w", err)
	}
	defer rows.Close()

	var out []Decision
	for rows.Next() {
		var d Decision
		var target, createdAt string
		if err := rows.Scan(&d.ID, &target, &d.Rule, &d.Reason, &d.Intent, &d.Confidence, &d.NewThread, &d.HasAccess, &createdAt); err != nil {
			return nil, fmt.Errorf("scan decision: %w", err)
		}
		d.Target = models.AgentID(target)
		d.CreatedAt, _ = parseTime(createdAt)
		out = append(out, d)
	}
	return out, rows.Err()
}

// DecisionCounts returns how often each agent was chosen.
func (db *DB) DecisionCounts() (map[models.AgentID]int, error) {
	rows, err := db.Query(`SELECT target, COUNT(*) FROM routing_decisions GROUP BY target`)
	if err != nil {
		return nil, fmt.Errorf("count decisions: %w", err)
	}
	defer rows.Close()

	counts := make(map[models.AgentID]int)
	for rows.Next() {
		var target string
		var n int
		if err := rows.Scan(&target, &n); err != nil {
			return nil, fmt.Errorf("scan decision count: %w", err)
		}
		counts[models.AgentID(target)] = n
	}
	return counts, rows.Err()
}
