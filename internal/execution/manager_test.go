package execution

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/chiziuwaga/fixitforme-contractor-sub002/pkg/models"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type memRecorder struct {
	mu       sync.Mutex
	sessions []models.ExecutionSession
}

func (r *memRecorder) RecordSession(s models.ExecutionSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions = append(r.sessions, s)
	return nil
}

func newTestManager(t *testing.T, cfg Config, opts ...Option) *Manager {
	t.Helper()
	if cfg.CompletionGrace == 0 {
		cfg.CompletionGrace = time.Hour
	}
	opts = append([]Option{WithConfig(cfg), WithEventBuffer(0)}, opts...)
	m := NewManager(StaticIdentity("contractor-1"), opts...)
	t.Cleanup(m.Close)
	return m
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func countStatus(sessions []models.ExecutionSession, status models.ExecutionStatus) int {
	n := 0
	for _, s := range sessions {
		if s.Status == status {
			n++
		}
	}
	return n
}

type startResult struct {
	label string
	id    string
	err   error
}

func startAsync(m *Manager, ctx context.Context, label string, agent models.AgentID, out chan<- startResult) {
	go func() {
		id, err := m.StartExecution(ctx, agent, time.Minute)
		out <- startResult{label: label, id: id, err: err}
	}()
}

func TestStartExecution_CapAndPromotion(t *testing.T) {
	m := newTestManager(t, Config{MaxConcurrent: 2})
	ctx := context.Background()

	first, err := m.StartExecution(ctx, models.AgentLexi, 0)
	if err != nil {
		t.Fatalf("StartExecution() error = %v", err)
	}
	if _, err := m.StartExecution(ctx, models.AgentAlex, 0); err != nil {
		t.Fatalf("StartExecution() error = %v", err)
	}
	if m.CanStartNew() {
		t.Error("CanStartNew() = true at cap")
	}

	results := make(chan startResult, 1)
	startAsync(m, ctx, "third", models.AgentRex, results)
	waitFor(t, "third call to queue", func() bool { return m.QueuePosition() == 1 })

	if got := countStatus(m.ActiveSessions(), models.ExecutionRunning); got != 2 {
		t.Fatalf("running sessions = %d, want 2", got)
	}

	m.CompleteExecution(first)

	// Promotion happens inside CompleteExecution.
	if got := m.QueuePosition(); got != 0 {
		t.Errorf("QueuePosition() = %d after completion, want 0", got)
	}
	sessions := m.ActiveSessions()
	if got := countStatus(sessions, models.ExecutionRunning); got != 2 {
		t.Errorf("running sessions = %d after promotion, want 2", got)
	}
	if got := countStatus(sessions, models.ExecutionCompleted); got != 1 {
		t.Errorf("completed sessions = %d, want 1", got)
	}

	select {
	case r := <-results:
		if r.err != nil || r.id == "" {
			t.Fatalf("queued StartExecution() = %q, %v", r.id, r.err)
		}
		if last := sessions[len(sessions)-1]; last.ID != r.id || last.Agent != models.AgentRex {
			t.Errorf("promoted session = %+v, want id %s for rex", last, r.id)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("queued caller was not released")
	}
}

func TestStartExecution_FIFO(t *testing.T) {
	m := newTestManager(t, Config{MaxConcurrent: 1})
	ctx := context.Background()

	running, err := m.StartExecution(ctx, models.AgentLexi, 0)
	if err != nil {
		t.Fatal(err)
	}

	results := make(chan startResult, 3)
	for i, label := range []string{"A", "B", "C"} {
		startAsync(m, ctx, label, models.AgentAlex, results)
		want := i + 1
		waitFor(t, label+" to queue", func() bool { return m.QueuePosition() == want })
	}

	for _, want := range []string{"A", "B", "C"} {
		m.CompleteExecution(running)
		select {
		case r := <-results:
			if r.label != want {
				t.Fatalf("promoted %s, want %s", r.label, want)
			}
			running = r.id
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for %s", want)
		}
	}
}

func TestSweep_TimeoutIsolation(t *testing.T) {
	clock := newFakeClock()
	m := newTestManager(t, Config{MaxConcurrent: 2, Timeout: 10 * time.Minute}, WithClock(clock.Now))
	ctx := context.Background()

	old, _ := m.StartExecution(ctx, models.AgentRex, 0)
	clock.Advance(5 * time.Minute)
	fresh, _ := m.StartExecution(ctx, models.AgentAlex, 0)
	clock.Advance(5 * time.Minute)

	// Exactly at the timeout is not past it.
	m.Sweep()
	if got := countStatus(m.ActiveSessions(), models.ExecutionRunning); got != 2 {
		t.Fatalf("running = %d at exact timeout, want 2", got)
	}

	clock.Advance(time.Second)
	m.Sweep()

	byID := map[string]models.ExecutionSession{}
	for _, s := range m.ActiveSessions() {
		byID[s.ID] = s
	}
	if s := byID[old]; s.Status != models.ExecutionFailed || s.CurrentTask != taskTimeout {
		t.Errorf("old session = %s %q, want failed %q", s.Status, s.CurrentTask, taskTimeout)
	}
	if s := byID[fresh]; s.Status != models.ExecutionRunning {
		t.Errorf("fresh session status = %s, want running", s.Status)
	}

	m.Sweep()
	sessions := m.ActiveSessions()
	if len(sessions) != 1 || sessions[0].ID != fresh {
		t.Errorf("after second sweep sessions = %+v, want only %s", sessions, fresh)
	}
}

func TestSweep_TimeoutPromotesQueued(t *testing.T) {
	clock := newFakeClock()
	m := newTestManager(t, Config{MaxConcurrent: 1, Timeout: time.Minute}, WithClock(clock.Now))
	ctx := context.Background()

	if _, err := m.StartExecution(ctx, models.AgentLexi, 0); err != nil {
		t.Fatal(err)
	}
	results := make(chan startResult, 1)
	startAsync(m, ctx, "next", models.AgentRex, results)
	waitFor(t, "queue", func() bool { return m.QueuePosition() == 1 })

	clock.Advance(2 * time.Minute)
	m.Sweep()

	select {
	case r := <-results:
		if r.err != nil {
			t.Fatalf("queued StartExecution() error = %v", r.err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timeout did not free the slot")
	}
}

func TestUpdateExecution(t *testing.T) {
	m := newTestManager(t, Config{})
	id, err := m.StartExecution(context.Background(), models.AgentAlex, 0)
	if err != nil {
		t.Fatal(err)
	}

	before := m.ActiveSessions()
	m.UpdateExecution("exec-unknown", ExecutionUpdate{Progress: intPtr(50)})
	if after := m.ActiveSessions(); len(after) != len(before) || after[0] != before[0] {
		t.Errorf("update on unknown id changed state: %+v", after)
	}

	tests := []struct {
		progress int
		want     int
	}{
		{40, 40},
		{150, 100},
		{-5, 0},
	}
	for _, tt := range tests {
		m.UpdateExecution(id, ExecutionUpdate{Progress: intPtr(tt.progress)})
		if got := m.ActiveSessions()[0].Progress; got != tt.want {
			t.Errorf("UpdateExecution(Progress: %d) progress = %d, want %d", tt.progress, got, tt.want)
		}
	}

	task := "Pricing lumber"
	m.UpdateExecution(id, ExecutionUpdate{CurrentTask: &task})
	if got := m.ActiveSessions()[0].CurrentTask; got != task {
		t.Errorf("CurrentTask = %q, want %q", got, task)
	}

	failed := models.ExecutionFailed
	m.UpdateExecution(id, ExecutionUpdate{Status: &failed})
	s := m.ActiveSessions()[0]
	if s.Status != models.ExecutionFailed || s.EndedAt.IsZero() {
		t.Errorf("status = %s ended=%v, want failed with EndedAt", s.Status, s.EndedAt)
	}

	running := models.ExecutionRunning
	m.UpdateExecution(id, ExecutionUpdate{Status: &running, Progress: intPtr(10)})
	if s := m.ActiveSessions()[0]; s.Status != models.ExecutionFailed || s.Progress == 10 {
		t.Errorf("terminal session changed: %+v", s)
	}
}

func TestCancelExecution(t *testing.T) {
	m := newTestManager(t, Config{MaxConcurrent: 1})
	id, _ := m.StartExecution(context.Background(), models.AgentRex, 0)

	m.CancelExecution(id)
	s := m.ActiveSessions()[0]
	if s.Status != models.ExecutionCancelled || s.CurrentTask != taskCancelled {
		t.Errorf("session = %s %q, want cancelled %q", s.Status, s.CurrentTask, taskCancelled)
	}
	if !m.CanStartNew() {
		t.Error("CanStartNew() = false after cancel")
	}

	// Completing a cancelled session has no effect.
	m.CompleteExecution(id)
	if got := m.ActiveSessions()[0].Status; got != models.ExecutionCancelled {
		t.Errorf("status = %s, want cancelled", got)
	}

	m.Sweep()
	if got := len(m.ActiveSessions()); got != 0 {
		t.Errorf("sessions after sweep = %d, want 0", got)
	}
}

func TestCompleteExecution_RemovedAfterGrace(t *testing.T) {
	m := NewManager(StaticIdentity("contractor-1"), WithConfig(Config{CompletionGrace: 20 * time.Millisecond}))
	defer m.Close()

	id, _ := m.StartExecution(context.Background(), models.AgentLexi, 0)
	m.CompleteExecution(id)

	s := m.ActiveSessions()[0]
	if s.Status != models.ExecutionCompleted || s.Progress != 100 || s.CurrentTask != taskCompleted {
		t.Errorf("session = %+v, want completed at 100%%", s)
	}

	waitFor(t, "removal", func() bool { return len(m.ActiveSessions()) == 0 })

	var got []EventType
	for len(got) < 3 {
		select {
		case ev := <-m.Events():
			got = append(got, ev.Type)
		case <-time.After(2 * time.Second):
			t.Fatalf("events = %v, want started, completed, removed", got)
		}
	}
	want := []EventType{EventStarted, EventCompleted, EventRemoved}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("events = %v, want %v", got, want)
			break
		}
	}
}

func TestStartExecution_NoOwner(t *testing.T) {
	for _, identity := range []IdentityProvider{StaticIdentity(""), nil} {
		m := NewManager(identity, WithEventBuffer(0))
		id, err := m.StartExecution(context.Background(), models.AgentLexi, 0)
		if !errors.Is(err, ErrNoOwner) || id != "" {
			t.Errorf("StartExecution() = %q, %v, want ErrNoOwner", id, err)
		}
		if m.CanStartNew() {
			t.Error("CanStartNew() = true without an owner")
		}
	}
}

func TestStartExecution_ContextCancelledWhileQueued(t *testing.T) {
	m := newTestManager(t, Config{MaxConcurrent: 1})
	if _, err := m.StartExecution(context.Background(), models.AgentLexi, 0); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	results := make(chan startResult, 1)
	startAsync(m, ctx, "waiter", models.AgentAlex, results)
	waitFor(t, "queue", func() bool { return m.QueuePosition() == 1 })

	cancel()
	r := <-results
	if !errors.Is(r.err, context.Canceled) || r.id != "" {
		t.Errorf("StartExecution() = %q, %v, want context.Canceled", r.id, r.err)
	}
	if got := m.QueuePosition(); got != 0 {
		t.Errorf("QueuePosition() = %d, want 0", got)
	}
	if got := len(m.ActiveSessions()); got != 1 {
		t.Errorf("sessions = %d, want 1", got)
	}
}

func TestStartExecution_DefaultEstimate(t *testing.T) {
	m := newTestManager(t, Config{DefaultEstimate: 7 * time.Minute})
	if _, err := m.StartExecution(context.Background(), models.AgentLexi, 0); err != nil {
		t.Fatal(err)
	}
	if got := m.ActiveSessions()[0].EstimatedDuration; got != 7*time.Minute {
		t.Errorf("EstimatedDuration = %v, want 7m", got)
	}
}

func TestManager_RecordsTransitions(t *testing.T) {
	rec := &memRecorder{}
	m := newTestManager(t, Config{}, WithRecorder(rec))

	id, _ := m.StartExecution(context.Background(), models.AgentAlex, 0)
	m.UpdateExecution(id, ExecutionUpdate{Progress: intPtr(30)})
	m.CancelExecution(id)

	rec.mu.Lock()
	defer rec.mu.Unlock()
	if len(rec.sessions) != 3 {
		t.Fatalf("recorded %d sessions, want 3", len(rec.sessions))
	}
	if rec.sessions[1].Progress != 30 || rec.sessions[2].Status != models.ExecutionCancelled {
		t.Errorf("recorded = %+v", rec.sessions)
	}
}

func TestUpdateExecution_NoReaderDoesNotBlock(t *testing.T) {
	m := NewManager(StaticIdentity("contractor-1"), WithEventBuffer(16))
	defer m.Close()

	id, err := m.StartExecution(context.Background(), models.AgentLexi, 0)
	if err != nil {
		t.Fatal(err)
	}

	var slowest time.Duration
	for i := 0; i < 100; i++ {
		start := time.Now()
		m.UpdateExecution(id, ExecutionUpdate{Progress: intPtr(i)})
		if d := time.Since(start); d > slowest {
			slowest = d
		}
	}
	if slowest > 20*time.Millisecond {
		t.Errorf("slowest UpdateExecution with a full event buffer took %v", slowest)
	}
	if got := m.DroppedEvents(); got == 0 {
		t.Error("DroppedEvents() = 0, want dropped events once the buffer filled")
	}
}

// stallingRecorder sleeps once, on the first new-session record after it is
// armed, so later transitions are committed while that record is in flight.
type stallingRecorder struct {
	memRecorder
	armed atomic.Bool
}

func (r *stallingRecorder) RecordSession(s models.ExecutionSession) error {
	if s.Status == models.ExecutionRunning && s.CurrentTask == taskStarting && r.armed.CompareAndSwap(true, false) {
		time.Sleep(50 * time.Millisecond)
	}
	return r.memRecorder.RecordSession(s)
}

func TestManager_RecordsInTransitionOrder(t *testing.T) {
	rec := &stallingRecorder{}
	m := newTestManager(t, Config{MaxConcurrent: 1}, WithRecorder(rec))
	ctx := context.Background()

	first, err := m.StartExecution(ctx, models.AgentLexi, 0)
	if err != nil {
		t.Fatal(err)
	}

	results := make(chan startResult, 1)
	startAsync(m, ctx, "second", models.AgentAlex, results)
	waitFor(t, "second call to queue", func() bool { return m.QueuePosition() == 1 })

	rec.armed.Store(true)
	completed := make(chan struct{})
	go func() {
		defer close(completed)
		m.CompleteExecution(first)
	}()

	var second string
	select {
	case r := <-results:
		if r.err != nil {
			t.Fatalf("queued StartExecution() error = %v", r.err)
		}
		second = r.id
	case <-time.After(2 * time.Second):
		t.Fatal("queued caller was not released")
	}
	m.CompleteExecution(second)
	<-completed

	rec.mu.Lock()
	defer rec.mu.Unlock()
	var statuses []models.ExecutionStatus
	for _, s := range rec.sessions {
		if s.ID == second {
			statuses = append(statuses, s.Status)
		}
	}
	if len(statuses) != 2 || statuses[0] != models.ExecutionRunning || statuses[1] != models.ExecutionCompleted {
		t.Errorf("recorded statuses of %s = %v, want [running completed]", second, statuses)
	}
}

func TestRun_SweepsUntilCancelled(t *testing.T) {
	clock := newFakeClock()
	m := newTestManager(t, Config{Timeout: time.Minute, SweepInterval: 5 * time.Millisecond}, WithClock(clock.Now))
	if _, err := m.StartExecution(context.Background(), models.AgentLexi, 0); err != nil {
		t.Fatal(err)
	}
	clock.Advance(2 * time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		m.Run(ctx)
		close(done)
	}()

	waitFor(t, "sweep", func() bool { return len(m.ActiveSessions()) == 0 })
	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func intPtr(v int) *int { return &v }
