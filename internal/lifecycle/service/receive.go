package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"caseflow/internal/intake"
	"caseflow/internal/lifecycle"
	"caseflow/internal/resolver"
	"caseflow/internal/timer"
	"caseflow/internal/validation"
	"caseflow/pkg/domain"
	dErrors "caseflow/pkg/domain-errors"
	"caseflow/pkg/platform/sentinel"
)

// HandleInitiateProsecution runs one submission through the full pipeline:
// normalize, validate, resolve against prior decisions, apply the transition,
// persist and publish. The returned case reflects the committed state.
func (s *Service) HandleInitiateProsecution(ctx context.Context, sub intake.Submission) (*lifecycle.Case, error) {
	ctx, span := s.tracer.Start(ctx, "lifecycle.receive-case")
	defer span.End()

	started := s.now()
	c, err := s.receiveOne(ctx, sub)
	s.observe("receive-case", started, err)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return c, nil
}

func (s *Service) receiveOne(ctx context.Context, sub intake.Submission) (*lifecycle.Case, error) {
	now := s.at(ctx).UTC()

	ci, err := intake.Normalize(sub, now)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInvalidInput, "normalize submission")
	}

	current, err := s.loadByURN(ctx, ci.URN)
	if err != nil {
		return nil, err
	}

	var history []resolver.SummonsApplicationDecision
	if current != nil {
		history, err = s.decisions.ListByCase(ctx, current.ID)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "load prior decisions")
		}
	}

	result := s.validator.Validate(ctx, ci, now)
	decisions := s.resolver.Resolve(ci, history)
	for _, d := range decisions {
		s.metrics.IncrementResolverOutcome(string(d.Outcome))
	}
	s.countProblems(result)

	expectedVersion := int64(0)
	if current != nil {
		expectedVersion = current.Version
	}

	next, events, err := lifecycle.Apply(current, lifecycle.ReceiveCase{
		ExpectedVersion: expectedVersion,
		Intake:          ci,
		Validation:      result,
		Decisions:       decisions,
		Now:             now,
	})
	if err != nil {
		return nil, mapApplyErr(err)
	}
	if next == current {
		// Fully absorbed as duplicates; nothing changed, nothing to commit.
		s.logger.Info("submission absorbed as duplicate",
			"urn", ci.URN, "channel", string(ci.Channel), "case_id", current.ID.String())
		return current, nil
	}

	if err := s.commit(ctx, next, expectedVersion, events); err != nil {
		return nil, mapCommitErr(err)
	}

	s.handleMaterialTimers(ctx, current, ci)

	s.logger.Info("submission processed",
		"urn", ci.URN,
		"channel", string(ci.Channel),
		"case_id", next.ID.String(),
		"status", string(next.Status),
		"version", next.Version,
		"problems", len(next.OutstandingProblems()),
	)
	return next, nil
}

// handleMaterialTimers starts an expiration timer for bulk-scan material that
// arrived before its parent case, and cancels it when a later submission
// matches the case. Timer signals are best effort and never fail the command.
func (s *Service) handleMaterialTimers(ctx context.Context, previous *lifecycle.Case, ci intake.CaseIntake) {
	switch {
	case ci.Channel == intake.ChannelBulkScanMaterial && previous == nil:
		if ci.CorrelationID == "" {
			return
		}
		if err := s.timers.Schedule(ctx, ci.CorrelationID, string(timer.ProcessMaterialExpiry)); err != nil {
			s.logger.Error("material timer schedule failed",
				"subject_key", ci.CorrelationID, "error", err)
		}
	case previous != nil && previous.Channel == intake.ChannelBulkScanMaterial &&
		ci.Channel != intake.ChannelBulkScanMaterial && previous.CorrelationID != "":
		if err := s.timers.Cancel(ctx, previous.CorrelationID, string(timer.ProcessMaterialExpiry)); err != nil {
			s.logger.Error("material timer cancel failed",
				"subject_key", previous.CorrelationID, "error", err)
		}
	}
}

// GroupResult reports the outcome of a group submission.
type GroupResult struct {
	GroupID domain.GroupID
	Cases   []*lifecycle.Case
	Parked  bool
}

// HandleGroupProsecution fans a group of submissions out to the per-case
// pipeline, then emits one group-level event: parked for approval when any
// member requires a summons application decision, received otherwise.
func (s *Service) HandleGroupProsecution(ctx context.Context, groupID domain.GroupID, subs []intake.Submission) (*GroupResult, error) {
	ctx, span := s.tracer.Start(ctx, "lifecycle.receive-group")
	defer span.End()

	started := s.now()
	res, err := s.receiveGroup(ctx, groupID, subs)
	s.observe("receive-group", started, err)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return res, nil
}

func (s *Service) receiveGroup(ctx context.Context, groupID domain.GroupID, subs []intake.Submission) (*GroupResult, error) {
	if len(subs) == 0 {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "group submission has no cases")
	}

	res := &GroupResult{GroupID: groupID}
	for i, sub := range subs {
		c, err := s.receiveOne(ctx, sub)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeOf(err), fmt.Sprintf("group case %d", i))
		}
		res.Cases = append(res.Cases, c)
		if needsSummonsApproval(c) {
			res.Parked = true
		}
	}

	ev := lifecycle.Event{
		Type:       lifecycle.EventGroupCasesReceived,
		GroupID:    groupID,
		OccurredAt: s.at(ctx).UTC(),
	}
	if res.Parked {
		ev.Type = lifecycle.EventGroupCasesParkedForApproval
	}
	if err := s.publisher.Publish(ctx, ev); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "publish group event")
	}
	s.project(ctx, []lifecycle.Event{ev})

	s.logger.Info("group submission processed",
		"group_id", groupID.String(), "cases", len(res.Cases), "parked", res.Parked)
	return res, nil
}

// needsSummonsApproval reports whether initiating this case requires a court
// decision on a summons application: requisition-type cases that were not
// already stopped by validation or rejection.
func needsSummonsApproval(c *lifecycle.Case) bool {
	return c.CaseType == "R" &&
		c.Status != lifecycle.StatusRejected &&
		c.Status != lifecycle.StatusValidationFailed
}

func (s *Service) loadByURN(ctx context.Context, urn string) (*lifecycle.Case, error) {
	current, err := s.cases.GetByURN(ctx, urn)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "load case by urn")
	}
	return current, nil
}

func (s *Service) countProblems(result validation.Result) {
	for _, p := range result.Flatten() {
		s.metrics.IncrementProblems(string(p.Category), 1)
	}
}

func (s *Service) observe(command string, started time.Time, err error) {
	s.metrics.ObserveHandleLatency(command, s.now().Sub(started))
	s.metrics.IncrementCommand(command, resultLabel(err))
}

func resultLabel(err error) string {
	switch {
	case err == nil:
		return "applied"
	case dErrors.HasCode(err, dErrors.CodeConflict):
		return "conflict"
	case dErrors.HasCode(err, dErrors.CodeInvalidInput), dErrors.HasCode(err, dErrors.CodeNotFound):
		return "invalid"
	default:
		return "error"
	}
}

func mapApplyErr(err error) error {
	switch {
	case errors.Is(err, sentinel.ErrVersionConflict):
		return dErrors.Wrap(err, dErrors.CodeConflict, "version conflict")
	case errors.Is(err, sentinel.ErrInvalidState):
		return dErrors.Wrap(err, dErrors.CodeConflict, "invalid state for command")
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.Wrap(err, dErrors.CodeNotFound, "not found")
	default:
		var de *dErrors.Error
		if errors.As(err, &de) {
			return err
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "apply command")
	}
}

func mapCommitErr(err error) error {
	if errors.Is(err, sentinel.ErrVersionConflict) {
		return dErrors.Wrap(err, dErrors.CodeConflict, "concurrent update")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "persist case")
}
