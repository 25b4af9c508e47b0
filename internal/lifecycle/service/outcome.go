package service

import (
	"context"

	"caseflow/internal/lifecycle"
	"caseflow/internal/resolver"
	"caseflow/pkg/domain"
	dErrors "caseflow/pkg/domain-errors"
	pstrings "caseflow/pkg/platform/strings"
)

// ApplicationOutcome is a court decision on a summons application for a case,
// optionally on behalf of a group submission.
type ApplicationOutcome struct {
	ApplicationID   domain.ApplicationID
	GroupID         domain.GroupID
	ExpectedVersion int64
	Approved        bool
	Reasons         []string
}

// HandleApplicationOutcome records the court's decision for every defendant on
// the case, feeding the resolver's prior-decision table. A rejection also
// rejects the case; an approval lets the case proceed and, for group
// submissions, releases the parked group.
func (s *Service) HandleApplicationOutcome(ctx context.Context, caseID domain.CaseID, outcome ApplicationOutcome) (*lifecycle.Case, error) {
	ctx, span := s.tracer.Start(ctx, "lifecycle.court-application-outcome")
	defer span.End()

	started := s.now()
	c, err := s.applyOutcome(ctx, caseID, outcome)
	s.observe("court-application-outcome", started, err)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return c, nil
}

func (s *Service) applyOutcome(ctx context.Context, caseID domain.CaseID, outcome ApplicationOutcome) (*lifecycle.Case, error) {
	now := s.at(ctx).UTC()
	outcome.Reasons = pstrings.DedupeAndTrim(outcome.Reasons)

	current, err := s.loadByID(ctx, caseID)
	if err != nil {
		return nil, err
	}

	prior := resolver.PriorRejected
	if outcome.Approved {
		prior = resolver.PriorApproved
	}
	// Runs inside the same transaction as the lifecycle transition, so a
	// rolled-back transition never leaves decisions behind.
	recordDecisions := func(ctx context.Context) error {
		for _, d := range current.Defendants {
			decision := resolver.SummonsApplicationDecision{
				DedupKey:    d.DedupKey,
				DefendantID: d.ID,
				Outcome:     prior,
				Channel:     current.Channel,
				DecidedAt:   now,
			}
			if err := s.decisions.Record(ctx, current.ID, decision); err != nil {
				return dErrors.Wrap(err, dErrors.CodeInternal, "record application decision")
			}
		}
		return nil
	}

	if outcome.Approved {
		var events []lifecycle.Event
		if !outcome.GroupID.IsNil() {
			events = append(events, lifecycle.Event{
				Type:       lifecycle.EventGroupCasesReceived,
				GroupID:    outcome.GroupID,
				CaseID:     current.ID,
				URN:        current.URN,
				OccurredAt: now,
			})
		}
		err := s.txRunner.Within(ctx, func(ctx context.Context) error {
			if err := recordDecisions(ctx); err != nil {
				return err
			}
			if len(events) == 0 {
				return nil
			}
			return s.publisher.Publish(ctx, events...)
		})
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "record application approval")
		}
		s.project(ctx, events)
		s.logger.Info("application approved",
			"application_id", outcome.ApplicationID.String(), "case_id", current.ID.String())
		return current, nil
	}

	next, events, err := lifecycle.Apply(current, lifecycle.RejectCase{
		ExpectedVersion: outcome.ExpectedVersion,
		Reasons:         outcome.Reasons,
		Now:             now,
	})
	if err != nil {
		return nil, mapApplyErr(err)
	}
	if !outcome.GroupID.IsNil() {
		events = append(events, lifecycle.Event{
			Type:       lifecycle.EventGroupProsecutionRejected,
			GroupID:    outcome.GroupID,
			CaseID:     next.ID,
			URN:        next.URN,
			Reasons:    outcome.Reasons,
			OccurredAt: now,
		})
	}

	if err := s.commitWith(ctx, recordDecisions, next, outcome.ExpectedVersion, events); err != nil {
		return nil, mapCommitErr(err)
	}

	s.logger.Info("application rejected",
		"application_id", outcome.ApplicationID.String(),
		"case_id", next.ID.String(),
		"reasons", len(outcome.Reasons),
	)
	return next, nil
}

// HandleInitiate marks court proceedings as issued downstream; the case
// reaches its terminal Initiated status.
func (s *Service) HandleInitiate(ctx context.Context, caseID domain.CaseID, expectedVersion int64) (*lifecycle.Case, error) {
	ctx, span := s.tracer.Start(ctx, "lifecycle.initiate-case")
	defer span.End()

	started := s.now()
	c, err := s.initiate(ctx, caseID, expectedVersion)
	s.observe("initiate-case", started, err)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return c, nil
}

func (s *Service) initiate(ctx context.Context, caseID domain.CaseID, expectedVersion int64) (*lifecycle.Case, error) {
	current, err := s.loadByID(ctx, caseID)
	if err != nil {
		return nil, err
	}

	next, events, err := lifecycle.Apply(current, lifecycle.InitiateCase{
		ExpectedVersion: expectedVersion,
		Now:             s.at(ctx).UTC(),
	})
	if err != nil {
		return nil, mapApplyErr(err)
	}

	if err := s.commit(ctx, next, expectedVersion, events); err != nil {
		return nil, mapCommitErr(err)
	}

	s.logger.Info("case initiated", "case_id", next.ID.String(), "version", next.Version)
	return next, nil
}
