package service

import (
	"context"
	"errors"
	"time"

	"caseflow/internal/intake"
	"caseflow/internal/lifecycle"
	"caseflow/pkg/domain"
	dErrors "caseflow/pkg/domain-errors"
	"caseflow/pkg/platform/sentinel"
)

// Correction carries the fields a caller resubmits to fix validation problems.
// Provided fields override the retained intake; omitted fields keep their
// original values. A provided defendant list replaces the whole tree.
type Correction struct {
	ExpectedVersion  int64
	InitiationCode   string
	ProsecutorOUCode string
	Markers          []intake.MarkerSubmission
	Defendants       []intake.DefendantSubmission
}

// HandleCorrection re-validates a failed case against the merged intake and
// applies the resulting transition: Resolved when clean, ValidationFailed with
// the reduced problem set otherwise.
func (s *Service) HandleCorrection(ctx context.Context, caseID domain.CaseID, corr Correction) (*lifecycle.Case, error) {
	ctx, span := s.tracer.Start(ctx, "lifecycle.resolve-case-errors")
	defer span.End()

	started := s.now()
	c, err := s.correct(ctx, caseID, corr)
	s.observe("resolve-case-errors", started, err)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return c, nil
}

func (s *Service) correct(ctx context.Context, caseID domain.CaseID, corr Correction) (*lifecycle.Case, error) {
	now := s.at(ctx).UTC()

	current, err := s.loadByID(ctx, caseID)
	if err != nil {
		return nil, err
	}

	merged, err := s.mergeCorrection(current, corr, now)
	if err != nil {
		return nil, err
	}

	result := s.validator.Validate(ctx, merged, now)
	s.countProblems(result)

	next, events, err := lifecycle.Apply(current, lifecycle.CorrectErrors{
		ExpectedVersion: corr.ExpectedVersion,
		Merged:          merged,
		Validation:      result,
		Now:             now,
	})
	if err != nil {
		return nil, mapApplyErr(err)
	}

	if err := s.commit(ctx, next, corr.ExpectedVersion, events); err != nil {
		return nil, mapCommitErr(err)
	}

	s.logger.Info("correction applied",
		"case_id", next.ID.String(),
		"status", string(next.Status),
		"version", next.Version,
		"remaining_problems", len(next.OutstandingProblems()),
	)
	return next, nil
}

// mergeCorrection overlays corrected fields on the retained intake and
// re-normalizes the result. The URN and channel are case identity and cannot
// be corrected.
func (s *Service) mergeCorrection(current *lifecycle.Case, corr Correction, now time.Time) (intake.CaseIntake, error) {
	orig := current.Intake

	sub := intake.Submission{
		Channel:          orig.Channel,
		URN:              orig.URN,
		CorrelationID:    orig.CorrelationID,
		InitiationCode:   orig.InitiationCode,
		ProsecutorOUCode: orig.ProsecutorOUCode,
	}
	if corr.InitiationCode != "" {
		sub.InitiationCode = corr.InitiationCode
	}
	if corr.ProsecutorOUCode != "" {
		sub.ProsecutorOUCode = corr.ProsecutorOUCode
	}

	merged, err := intake.Normalize(sub, now)
	if err != nil {
		return intake.CaseIntake{}, dErrors.Wrap(err, dErrors.CodeInvalidInput, "normalize correction")
	}
	merged.ReceivedAt = orig.ReceivedAt
	if merged.CaseType == "" {
		merged.CaseType = orig.CaseType
	}

	if corr.Markers != nil {
		merged.Markers = intake.NormalizeMarkers(corr.Markers)
	} else {
		merged.Markers = orig.Markers
	}
	if corr.Defendants != nil {
		merged.Defendants = intake.NormalizeDefendants(orig.Channel, corr.Defendants)
	} else {
		merged.Defendants = orig.Defendants
	}
	return merged, nil
}

func (s *Service) loadByID(ctx context.Context, caseID domain.CaseID) (*lifecycle.Case, error) {
	current, err := s.cases.GetByID(ctx, caseID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.Wrap(err, dErrors.CodeNotFound, "case not found")
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "load case")
	}
	return current, nil
}
