package execution

import (
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/chiziuwaga/fixitforme-contractor-sub002/pkg/models"
)

// EventType identifies a session lifecycle change.
type EventType string

const (
	EventStarted   EventType = "started"
	EventQueued    EventType = "queued"
	EventPromoted  EventType = "promoted"
	EventUpdated   EventType = "updated"
	EventCompleted EventType = "completed"
	EventCancelled EventType = "cancelled"
	EventFailed    EventType = "failed"
	EventRemoved   EventType = "removed"
)

// Event is published after every change to the manager's state.
type Event struct {
	Type EventType
	// Session is a copy taken when the change happened. Zero for EventQueued.
	Session models.ExecutionSession
	// Agent is set for every event, including EventQueued.
	Agent models.AgentID
	// QueueLength is the queue length right after the change.
	QueueLength int
	Timestamp   time.Time
}

// emitter delivers events on a buffered channel.
// When the channel is full the event is dropped and counted; emit never blocks.
type emitter struct {
	mu           sync.RWMutex
	closed       bool
	events       chan Event
	droppedCount atomic.Uint64
}

func newEmitter(bufferSize int) *emitter {
	return &emitter{events: make(chan Event, bufferSize)}
}

func (e *emitter) emit(event Event) {
	if e == nil {
		return
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.closed {
		return
	}

	select {
	case e.events <- event:
	default:
		count := e.droppedCount.Add(1)
		if count%10 == 1 {
			log.Printf("[execution] WARNING: Event channel full, dropped event (total dropped: %d): type=%s", count, event.Type)
		}
	}
}

func (e *emitter) close() {
	if e == nil {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.closed {
		e.closed = true
		close(e.events)
	}
}
