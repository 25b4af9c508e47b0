package projection

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"caseflow/internal/lifecycle"
	"caseflow/pkg/domain"
	"caseflow/pkg/platform/sentinel"
)

// Projector folds lifecycle events into the error store. Validation-failure
// events from one transition share an OccurredAt timestamp; a newer timestamp
// starts a fresh generation, so problems fixed since the last failure drop out
// even when no event restates them.
type Projector struct {
	store  Store
	logger *slog.Logger
}

type Option func(*Projector)

func WithLogger(l *slog.Logger) Option {
	return func(p *Projector) { p.logger = l }
}

func NewProjector(store Store, opts ...Option) *Projector {
	p := &Projector{store: store, logger: slog.Default()}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Projector) ApplyEvent(ctx context.Context, ev lifecycle.Event) error {
	switch ev.Type {
	case lifecycle.EventCaseValidationFailed:
		return p.applyFailure(ctx, ev, func(ce *CaseErrors) {
			ce.CaseProblems = ev.Problems
		})
	case lifecycle.EventDefendantValidationFailed:
		return p.applyFailure(ctx, ev, func(ce *CaseErrors) {
			if ce.Defendants == nil {
				ce.Defendants = make(map[domain.DefendantID]DefendantErrors)
			}
			ce.Defendants[ev.DefendantID] = DefendantErrors{
				PoliceSystemID: ev.PoliceSystemID,
				Problems:       ev.Problems,
			}
		})
	case lifecycle.EventCaseReceived,
		lifecycle.EventResolvedCase,
		lifecycle.EventProsecutionRejected,
		lifecycle.EventCaseInitiated:
		// The case no longer has outstanding problems to report.
		if err := p.store.Delete(ctx, ev.CaseID); err != nil {
			return fmt.Errorf("clear case errors: %w", err)
		}
		return nil
	default:
		return nil
	}
}

func (p *Projector) applyFailure(ctx context.Context, ev lifecycle.Event, mutate func(*CaseErrors)) error {
	ce, err := p.store.Get(ctx, ev.CaseID)
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		ce = &CaseErrors{CaseID: ev.CaseID}
	case err != nil:
		return fmt.Errorf("load case errors: %w", err)
	}

	if ev.OccurredAt.After(ce.AsOf) {
		ce.CaseProblems = nil
		ce.Defendants = nil
		ce.AsOf = ev.OccurredAt
	}

	ce.URN = ev.URN
	ce.CaseType = ev.CaseType
	ce.CourtLocation = ev.CourtLocation
	mutate(ce)

	if err := p.store.Upsert(ctx, ce); err != nil {
		return fmt.Errorf("store case errors: %w", err)
	}
	p.logger.Debug("error projection updated",
		"case_id", ev.CaseID.String(), "event_type", string(ev.Type), "problems", ce.ProblemCount())
	return nil
}
