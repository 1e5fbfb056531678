package execution

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/chiziuwaga/fixitforme-contractor-sub002/internal/logging"
	"github.com/chiziuwaga/fixitforme-contractor-sub002/pkg/models"
)

// ErrNoOwner is returned by StartExecution when there is no current user.
var ErrNoOwner = errors.New("no current user to own the execution")

const (
	taskStarting  = "Starting..."
	taskCompleted = "Completed"
	taskCancelled = "Cancelled by user"
	taskTimeout   = "Execution timeout"
)

// IdentityProvider reports the user who owns new executions.
type IdentityProvider interface {
	CurrentUser() (string, bool)
}

// StaticIdentity is an IdentityProvider for a fixed user id. The empty
// string means nobody is signed in.
type StaticIdentity string

// CurrentUser implements IdentityProvider.
func (s StaticIdentity) CurrentUser() (string, bool) {
	return string(s), s != ""
}

// Recorder receives a copy of a session after every change.
type Recorder interface {
	RecordSession(models.ExecutionSession) error
}

// Config holds the manager's limits.
type Config struct {
	// MaxConcurrent is the number of running sessions allowed per user.
	MaxConcurrent int
	// Timeout is how long a session may run before the sweep fails it.
	Timeout time.Duration
	// SweepInterval is how often Run calls Sweep.
	SweepInterval time.Duration
	// CompletionGrace is how long a completed session stays visible.
	CompletionGrace time.Duration
	// DefaultEstimate is used when StartExecution gets a non-positive estimate.
	DefaultEstimate time.Duration
}

// DefaultConfig returns the standard limits.
func DefaultConfig() Config {
	return Config{
		MaxConcurrent:   2,
		Timeout:         10 * time.Minute,
		SweepInterval:   30 * time.Second,
		CompletionGrace: 3 * time.Second,
		DefaultEstimate: 5 * time.Minute,
	}
}

// withDefaults fills zero fields from DefaultConfig.
func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.MaxConcurrent <= 0 {
		c.MaxConcurrent = d.MaxConcurrent
	}
	if c.Timeout <= 0 {
		c.Timeout = d.Timeout
	}
	if c.SweepInterval <= 0 {
		c.SweepInterval = d.SweepInterval
	}
	if c.CompletionGrace <= 0 {
		c.CompletionGrace = d.CompletionGrace
	}
	if c.DefaultEstimate <= 0 {
		c.DefaultEstimate = d.DefaultEstimate
	}
	return c
}

// ExecutionUpdate is a partial update. Nil fields are left unchanged.
type ExecutionUpdate struct {
	Progress    *int
	CurrentTask *string
	Status      *models.ExecutionStatus
}

// Option configures a Manager.
type Option func(*Manager)

// WithConfig sets the manager's limits. Zero fields keep their defaults.
func WithConfig(cfg Config) Option {
	return func(m *Manager) { m.cfg = cfg.withDefaults() }
}

// WithRecorder sets a sink that receives every session change.
func WithRecorder(r Recorder) Option {
	return func(m *Manager) { m.recorder = r }
}

// WithLogger sets the debug logger.
func WithLogger(l *logging.DebugLogger) Option {
	return func(m *Manager) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithClock replaces time.Now. Used by tests to drive the timeout sweep.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// WithEventBuffer sets the event channel size. Zero disables events.
func WithEventBuffer(size int) Option {
	return func(m *Manager) { m.eventBuffer = size }
}

// Manager admits agent executions up to a per-user cap, queues the rest
// in FIFO order and fails sessions that outlive the timeout.
type Manager struct {
	cfg      Config
	identity IdentityProvider
	recorder Recorder
	logger   *logging.DebugLogger
	now      func() time.Time

	eventBuffer int
	events      *emitter

	// pubMu serialises delivery so changes reach the recorder and the event
	// channel in the order they were made.
	pubMu sync.Mutex

	// mu protects everything below.
	mu       sync.Mutex
	pending  []change
	sessions map[string]*models.ExecutionSession
	order    []string
	queue    fifo
	timers   map[string]*time.Timer
	closed   bool
}

// NewManager creates a Manager. identity decides who owns new sessions.
func NewManager(identity IdentityProvider, opts ...Option) *Manager {
	m := &Manager{
		cfg:         DefaultConfig(),
		identity:    identity,
		logger:      logging.NopLogger(),
		now:         time.Now,
		eventBuffer: 256,
		sessions:    make(map[string]*models.ExecutionSession),
		timers:      make(map[string]*time.Timer),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.eventBuffer > 0 {
		m.events = newEmitter(m.eventBuffer)
	}
	return m
}

// Config returns the manager's limits.
func (m *Manager) Config() Config {
	return m.cfg
}

// Events returns the event channel, or nil when events are disabled.
// The channel is closed by Close.
func (m *Manager) Events() <-chan Event {
	if m.events == nil {
		return nil
	}
	return m.events.events
}

// DroppedEvents returns how many events were dropped because nobody was reading.
func (m *Manager) DroppedEvents() uint64 {
	if m.events == nil {
		return 0
	}
	return m.events.droppedCount.Load()
}

// change is a state transition collected under the lock and published after it.
type change struct {
	typ      EventType
	session  models.ExecutionSession
	agent    models.AgentID
	queueLen int
}

// StartExecution admits a new session for agent, or waits in the queue until
// a slot frees. It returns the new session id.
//
// If ctx ends while waiting, the queue entry is withdrawn and ctx.Err() is
// returned. A session promoted at that same moment is cancelled so its slot
// is released.
func (m *Manager) StartExecution(ctx context.Context, agent models.AgentID, estimated time.Duration) (string, error) {
	user, ok := "", false
	if m.identity != nil {
		user, ok = m.identity.CurrentUser()
	}
	if !ok || user == "" {
		return "", ErrNoOwner
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if estimated <= 0 {
		estimated = m.cfg.DefaultEstimate
	}

	m.mu.Lock()
	if m.runningCountLocked(user) < m.cfg.MaxConcurrent {
		s := m.startLocked(user, agent, estimated)
		id := s.ID
		m.commitLocked(change{typ: EventStarted, session: *s, agent: agent, queueLen: m.queue.len()})
		m.mu.Unlock()

		m.logger.Log("[execution] started %s for %s (agent=%s)", id, user, agent)
		m.flush()
		return id, nil
	}

	entry := &queueEntry{
		userID:     user,
		agent:      agent,
		estimated:  estimated,
		enqueuedAt: m.now(),
		ready:      make(chan string, 1),
	}
	m.queue.push(entry)
	position := m.queue.len()
	m.commitLocked(change{typ: EventQueued, agent: agent, queueLen: position})
	m.mu.Unlock()

	m.logger.Log("[execution] queued %s request for %s (position %d)", agent, user, position)
	m.flush()

	select {
	case id := <-entry.ready:
		return id, nil
	case <-ctx.Done():
		m.mu.Lock()
		withdrawn := m.queue.remove(entry)
		m.mu.Unlock()

		if !withdrawn {
			id := <-entry.ready
			m.logger.Log("[execution] caller left after promotion, cancelling %s", id)
			m.CancelExecution(id)
		}
		return "", ctx.Err()
	}
}

// UpdateExecution merges u into the session. Unknown ids are ignored, as are
// updates to a session that already ended.
func (m *Manager) UpdateExecution(id string, u ExecutionUpdate) {
	m.mu.Lock()
	s, ok := m.sessions[id]
	if !ok || s.Status.Terminal() {
		m.mu.Unlock()
		return
	}

	var changes []change
	if u.Progress != nil {
		s.Progress = clampProgress(*u.Progress)
	}
	if u.CurrentTask != nil {
		s.CurrentTask = *u.CurrentTask
	}

	terminal := false
	if u.Status != nil && *u.Status != s.Status && u.Status.Valid() {
		if u.Status.Terminal() {
			changes = m.finishLocked(s, *u.Status, s.CurrentTask)
			terminal = true
		} else {
			s.Status = *u.Status
		}
	}
	if !terminal {
		changes = append(changes, change{typ: EventUpdated, session: *s, agent: s.Agent, queueLen: m.queue.len()})
	}
	m.commitLocked(changes...)
	m.mu.Unlock()

	m.flush()
}

// CancelExecution ends a running session as cancelled.
func (m *Manager) CancelExecution(id string) {
	m.endExecution(id, models.ExecutionCancelled, taskCancelled)
}

// CompleteExecution ends a running session as completed. The session stays
// visible for the completion grace period and is then removed.
func (m *Manager) CompleteExecution(id string) {
	m.endExecution(id, models.ExecutionCompleted, taskCompleted)
}

func (m *Manager) endExecution(id string, status models.ExecutionStatus, task string) {
	m.mu.Lock()
	s, ok := m.sessions[id]
	if !ok || s.Status.Terminal() {
		m.mu.Unlock()
		return
	}
	m.commitLocked(m.finishLocked(s, status, task)...)
	m.mu.Unlock()

	m.logger.Log("[execution] %s %s", id, status)
	m.flush()
}

// QueuePosition returns the number of waiting StartExecution calls.
func (m *Manager) QueuePosition() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.queue.len()
}

// ActiveSessions returns copies of every tracked session in start order.
// Sessions that ended stay here until they are removed.
func (m *Manager) ActiveSessions() []models.ExecutionSession {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]models.ExecutionSession, 0, len(m.order))
	for _, id := range m.order {
		if s, ok := m.sessions[id]; ok {
			out = append(out, *s)
		}
	}
	return out
}

// CanStartNew reports whether the current user could start a session without queueing.
func (m *Manager) CanStartNew() bool {
	if m.identity == nil {
		return false
	}
	user, ok := m.identity.CurrentUser()
	if !ok || user == "" {
		return false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.runningCountLocked(user) < m.cfg.MaxConcurrent
}

// Close stops pending removals and closes the event channel.
// Queued callers are not released; cancel their contexts.
func (m *Manager) Close() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	for id, t := range m.timers {
		t.Stop()
		delete(m.timers, id)
	}
	m.mu.Unlock()

	m.events.close()
}

func (m *Manager) runningCountLocked(user string) int {
	n := 0
	for _, s := range m.sessions {
		if s.UserID == user && s.Status == models.ExecutionRunning {
			n++
		}
	}
	return n
}

func (m *Manager) startLocked(user string, agent models.AgentID, estimated time.Duration) *models.ExecutionSession {
	s := &models.ExecutionSession{
		ID:                "exec-" + uuid.New().String(),
		Agent:             agent,
		UserID:            user,
		StartedAt:         m.now(),
		EstimatedDuration: estimated,
		Status:            models.ExecutionRunning,
		CurrentTask:       taskStarting,
	}
	m.sessions[s.ID] = s
	m.order = append(m.order, s.ID)
	return s
}

// finishLocked moves s to a terminal status and promotes queued entries into
// the freed slot.
func (m *Manager) finishLocked(s *models.ExecutionSession, status models.ExecutionStatus, task string) []change {
	s.Status = status
	s.CurrentTask = task
	s.EndedAt = m.now()

	typ := EventFailed
	switch status {
	case models.ExecutionCompleted:
		typ = EventCompleted
		s.Progress = 100
		m.scheduleRemovalLocked(s.ID)
	case models.ExecutionCancelled:
		typ = EventCancelled
	}

	changes := []change{{typ: typ, session: *s, agent: s.Agent}}
	changes = append(changes, m.promoteLocked()...)
	for i := range changes {
		changes[i].queueLen = m.queue.len()
	}
	return changes
}

// promoteLocked admits queue heads while their owner is under the cap.
// Only the head is considered, so order is strictly FIFO.
func (m *Manager) promoteLocked() []change {
	var changes []change
	for {
		head := m.queue.peek()
		if head == nil || m.runningCountLocked(head.userID) >= m.cfg.MaxConcurrent {
			return changes
		}
		m.queue.pop()
		s := m.startLocked(head.userID, head.agent, head.estimated)
		head.ready <- s.ID
		changes = append(changes, change{typ: EventPromoted, session: *s, agent: s.Agent})
		m.logger.Log("[execution] promoted %s for %s after %s in queue", s.ID, head.userID, m.now().Sub(head.enqueuedAt))
	}
}

func (m *Manager) scheduleRemovalLocked(id string) {
	if m.closed {
		return
	}
	m.timers[id] = time.AfterFunc(m.cfg.CompletionGrace, func() {
		m.remove(id)
	})
}

func (m *Manager) remove(id string) {
	m.mu.Lock()
	delete(m.timers, id)
	if c, ok := m.removeLocked(id); ok {
		m.commitLocked(c)
	}
	m.mu.Unlock()
	m.flush()
}

func (m *Manager) removeLocked(id string) (change, bool) {
	s, ok := m.sessions[id]
	if !ok {
		return change{}, false
	}
	delete(m.sessions, id)
	for i, oid := range m.order {
		if oid == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return change{typ: EventRemoved, session: *s, agent: s.Agent, queueLen: m.queue.len()}, true
}

// commitLocked queues changes for delivery. Callers hold mu, so pending is
// in transition order.
func (m *Manager) commitLocked(changes ...change) {
	m.pending = append(m.pending, changes...)
}

// flush delivers pending changes. Must be called without holding mu.
// When it returns, every change committed before the call has been delivered,
// either by this goroutine or by the one that held pubMu before it.
func (m *Manager) flush() {
	m.pubMu.Lock()
	defer m.pubMu.Unlock()
	for {
		m.mu.Lock()
		batch := m.pending
		m.pending = nil
		m.mu.Unlock()
		if len(batch) == 0 {
			return
		}
		m.publish(batch)
	}
}

// publish records and emits changes. Callers hold pubMu.
func (m *Manager) publish(changes []change) {
	for _, c := range changes {
		if m.recorder != nil && c.session.ID != "" && c.typ != EventRemoved {
			if err := m.recorder.RecordSession(c.session); err != nil {
				m.logger.Log("[execution] record %s: %v", c.session.ID, err)
			}
		}
		m.events.emit(Event{
			Type:        c.typ,
			Session:     c.session,
			Agent:       c.agent,
			QueueLength: c.queueLen,
			Timestamp:   m.now(),
		})
	}
}

func clampProgress(p int) int {
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}
