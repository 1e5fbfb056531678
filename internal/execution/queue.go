package execution

import (
	"time"

	"github.com/chiziuwaga/fixitforme-contractor-sub002/pkg/models"
)

// queueEntry is a StartExecution call waiting for a free slot.
type queueEntry struct {
	userID     string
	agent      models.AgentID
	estimated  time.Duration
	enqueuedAt time.Time
	// ready receives the session id on promotion. Buffered so the manager
	// never blocks while holding its lock.
	ready chan string
}

// fifo is a strict first-in first-out queue. Not safe for concurrent use;
// the manager guards it with its mutex.
type fifo struct {
	entries []*queueEntry
}

func (q *fifo) push(e *queueEntry) {
	q.entries = append(q.entries, e)
}

func (q *fifo) peek() *queueEntry {
	if len(q.entries) == 0 {
		return nil
	}
	return q.entries[0]
}

func (q *fifo) pop() *queueEntry {
	if len(q.entries) == 0 {
		return nil
	}
	e := q.entries[0]
	q.entries[0] = nil
	q.entries = q.entries[1:]
	return e
}

// remove withdraws e and reports whether it was still queued.
func (q *fifo) remove(e *queueEntry) bool {
	for i, qe := range q.entries {
		if qe == e {
			q.entries = append(q.entries[:i], q.entries[i+1:]...)
			return true
		}
	}
	return false
}

func (q *fifo) len() int {
	return len(q.entries)
}
