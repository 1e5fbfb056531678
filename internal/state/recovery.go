package state

import (
	"database/sql"
	"fmt"
	"time"
)

// interruptedTask is written to sessions left running by a process that exited.
const interruptedTask = "Interrupted"

// RecoverInterrupted marks ledger rows still running from a previous process
// as failed. Sessions live only in memory, so any row still running at
// startup belongs to a process that exited without finishing it.
// Returns the number of sessions updated.
func (db *DB) RecoverInterrupted(now time.Time) (int64, error) {
	var count int64
	err := db.Transaction(func(tx *sql.Tx) error {
		result, err := tx.Exec(`
			UPDATE execution_sessions
			SET status = 'failed', current_task = ?, ended_at = ?, updated_at = ?
			WHERE status = 'running'
		`, interruptedTask, formatTime(now), formatTime(now))
		if err != nil {
			return fmt.Errorf("recover interrupted sessions: %w", err)
		}
		count, err = result.RowsAffected()
		if err != nil {
			return fmt.Errorf("get rows affected: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return count, nil
}
