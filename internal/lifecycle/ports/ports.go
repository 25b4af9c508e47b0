// Package ports declares the interfaces the lifecycle service depends on.
// Implementations live in store/ subpackages and in the outbox and timer
// packages; tests swap in-memory versions.
package ports

import (
	"context"

	"caseflow/internal/lifecycle"
	"caseflow/internal/resolver"
	"caseflow/pkg/domain"
)

// CaseStore persists the case aggregate. Save enforces optimistic concurrency:
// it fails with sentinel.ErrVersionConflict when the stored version does not
// match expectedVersion (0 means "must not exist yet").
type CaseStore interface {
	GetByID(ctx context.Context, id domain.CaseID) (*lifecycle.Case, error)
	GetByURN(ctx context.Context, urn string) (*lifecycle.Case, error)
	Save(ctx context.Context, c *lifecycle.Case, expectedVersion int64) error
}

// DecisionStore retains summons-application decisions per case for the
// lifetime of the case.
type DecisionStore interface {
	ListByCase(ctx context.Context, caseID domain.CaseID) ([]resolver.SummonsApplicationDecision, error)
	Record(ctx context.Context, caseID domain.CaseID, decision resolver.SummonsApplicationDecision) error
}

// Publisher dispatches domain events. The production implementation appends to
// the transactional outbox; the events reach Kafka via the relay worker.
type Publisher interface {
	Publish(ctx context.Context, events ...lifecycle.Event) error
}

// TimerScheduler is the slice of the timer manager the lifecycle service
// needs: best-effort cancellation of pending material timers when a case is
// filtered or matched.
type TimerScheduler interface {
	Schedule(ctx context.Context, subjectKey, processKind string) error
	Cancel(ctx context.Context, subjectKey, processKind string) error
}
