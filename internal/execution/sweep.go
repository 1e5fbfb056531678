package execution

import (
	"context"
	"time"

	"github.com/chiziuwaga/fixitforme-contractor-sub002/pkg/models"
)

// Run sweeps every SweepInterval until ctx is done.
func (m *Manager) Run(ctx context.Context) {
	ticker := time.NewTicker(m.cfg.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Sweep()
		}
	}
}

// Sweep drops cancelled and failed sessions, then fails running sessions
// older than Timeout. A session that times out is therefore still visible,
// as failed, until the following sweep.
func (m *Manager) Sweep() {
	m.mu.Lock()
	var changes []change

	for _, id := range append([]string(nil), m.order...) {
		s := m.sessions[id]
		if s.Status == models.ExecutionCancelled || s.Status == models.ExecutionFailed {
			if c, ok := m.removeLocked(id); ok {
				changes = append(changes, c)
			}
		}
	}

	now := m.now()
	var timedOut int
	for _, id := range m.order {
		s := m.sessions[id]
		if s.Status == models.ExecutionRunning && s.Age(now) > m.cfg.Timeout {
			changes = append(changes, m.finishLocked(s, models.ExecutionFailed, taskTimeout)...)
			timedOut++
		}
	}
	m.commitLocked(changes...)
	m.mu.Unlock()

	if timedOut > 0 {
		m.logger.Log("[execution] sweep failed %d timed-out session(s)", timedOut)
	}
	m.flush()
}
