// Package timer manages pending-process timers for material that arrives
// before its parent case. Each (subject key, process kind) pair owns at most
// one active timer; cancel and fire race safely and resolve exactly once.
package timer

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"caseflow/internal/lifecycle"
)

// ProcessKind names the pending process a timer guards.
type ProcessKind string

const (
	ProcessMaterialExpiry ProcessKind = "MATERIAL_EXPIRY"
	ProcessGroupApproval  ProcessKind = "GROUP_APPROVAL"
)

// Status is the lifecycle of one timer record.
type Status string

const (
	StatusActive    Status = "ACTIVE"
	StatusCancelled Status = "CANCELLED"
	StatusFired     Status = "FIRED"
)

type timerKey struct {
	subject string
	kind    ProcessKind
}

type record struct {
	status     Status
	deadline   time.Time
	underlying *time.Timer
}

// Publisher is the event sink for expiry side effects.
type Publisher interface {
	Publish(ctx context.Context, events ...lifecycle.Event) error
}

// Manager holds one record per (subjectKey, processKind). All transitions run
// under the manager mutex, so fire and cancel observe each other atomically:
// whichever arrives first wins and the loser becomes a no-op.
type Manager struct {
	mu      sync.Mutex
	records map[timerKey]*record

	ttl    time.Duration
	pub    Publisher
	logger *slog.Logger
	now    func() time.Time
}

type Option func(*Manager)

func WithTTL(d time.Duration) Option {
	return func(m *Manager) { m.ttl = d }
}

func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) { m.logger = l }
}

func NewManager(pub Publisher, opts ...Option) *Manager {
	m := &Manager{
		records: make(map[timerKey]*record),
		ttl:     72 * time.Hour,
		pub:     pub,
		logger:  slog.Default(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Schedule creates an Active timer for the key unless one already exists.
// Scheduling over an existing Active timer is a no-op; scheduling after a
// terminal outcome starts a fresh timer.
func (m *Manager) Schedule(_ context.Context, subjectKey, processKind string) error {
	k := timerKey{subject: subjectKey, kind: ProcessKind(processKind)}

	m.mu.Lock()
	defer m.mu.Unlock()

	if rec, ok := m.records[k]; ok && rec.status == StatusActive {
		return nil
	}

	rec := &record{
		status:   StatusActive,
		deadline: m.now().Add(m.ttl),
	}
	rec.underlying = time.AfterFunc(m.ttl, func() {
		m.fire(k)
	})
	m.records[k] = rec

	m.logger.Debug("pending timer scheduled",
		"subject_key", subjectKey, "process_kind", processKind, "deadline", rec.deadline)
	return nil
}

// Cancel transitions Active→Cancelled. Cancelling a missing or already-terminal
// timer succeeds without effect.
func (m *Manager) Cancel(_ context.Context, subjectKey, processKind string) error {
	k := timerKey{subject: subjectKey, kind: ProcessKind(processKind)}

	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.records[k]
	if !ok || rec.status != StatusActive {
		return nil
	}

	rec.status = StatusCancelled
	rec.underlying.Stop()

	m.logger.Debug("pending timer cancelled",
		"subject_key", subjectKey, "process_kind", processKind)
	return nil
}

// fire runs on the timer goroutine. The status check under the mutex is what
// decides the race against Cancel: a timer that was cancelled after AfterFunc
// dispatched but before the lock was taken fires into a no-op.
func (m *Manager) fire(k timerKey) {
	m.mu.Lock()
	rec, ok := m.records[k]
	if !ok || rec.status != StatusActive {
		m.mu.Unlock()
		return
	}
	rec.status = StatusFired
	m.mu.Unlock()

	ev := lifecycle.Event{
		Type:       lifecycle.EventMaterialExpired,
		SubjectKey: k.subject,
		OccurredAt: m.now().UTC(),
	}
	if err := m.pub.Publish(context.Background(), ev); err != nil {
		m.logger.Error("material expiry publish failed",
			"subject_key", k.subject, "process_kind", string(k.kind), "error", err)
		return
	}
	m.logger.Info("pending timer fired",
		"subject_key", k.subject, "process_kind", string(k.kind))
}

// Status reports the current state of a timer record; ok is false when no
// record exists for the key.
func (m *Manager) Status(subjectKey, processKind string) (Status, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[timerKey{subject: subjectKey, kind: ProcessKind(processKind)}]
	if !ok {
		return "", false
	}
	return rec.status, true
}

// Shutdown stops every active timer without firing. Used on process exit.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, rec := range m.records {
		if rec.status == StatusActive {
			rec.status = StatusCancelled
			rec.underlying.Stop()
		}
	}
}
