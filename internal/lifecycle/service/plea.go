package service

import (
	"context"

	"caseflow/internal/intake"
	"caseflow/internal/lifecycle"
	"caseflow/internal/timer"
	"caseflow/pkg/domain"
)

// PleaSubmission is one online plea for a defendant on an existing case.
type PleaSubmission struct {
	ExpectedVersion int64
	DefendantID     domain.DefendantID
	Plea            string
	PcqVisitID      string
	DeviceName      string
}

// HandlePlea records an online plea. The case status is unchanged; the plea
// travels as events and the version advances so concurrent pleas serialize.
func (s *Service) HandlePlea(ctx context.Context, caseID domain.CaseID, plea PleaSubmission) (*lifecycle.Case, error) {
	ctx, span := s.tracer.Start(ctx, "lifecycle.plead-online")
	defer span.End()

	started := s.now()
	c, err := s.plead(ctx, caseID, plea)
	s.observe("plead-online", started, err)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return c, nil
}

func (s *Service) plead(ctx context.Context, caseID domain.CaseID, plea PleaSubmission) (*lifecycle.Case, error) {
	current, err := s.loadByID(ctx, caseID)
	if err != nil {
		return nil, err
	}

	next, events, err := lifecycle.Apply(current, lifecycle.SubmitPlea{
		ExpectedVersion: plea.ExpectedVersion,
		DefendantID:     plea.DefendantID,
		Plea:            plea.Plea,
		PcqVisitID:      plea.PcqVisitID,
		DeviceName:      plea.DeviceName,
		Now:             s.at(ctx).UTC(),
	})
	if err != nil {
		return nil, mapApplyErr(err)
	}

	if err := s.commit(ctx, next, plea.ExpectedVersion, events); err != nil {
		return nil, mapCommitErr(err)
	}

	s.logger.Info("plea recorded",
		"case_id", caseID.String(),
		"defendant_id", plea.DefendantID.String(),
		"pcq_visit", plea.PcqVisitID != "",
	)
	return next, nil
}

// HandleCaseFiltered marks the case as filtered/matched downstream and cancels
// any pending material-expiration timer tied to it.
func (s *Service) HandleCaseFiltered(ctx context.Context, caseID domain.CaseID, expectedVersion int64) (*lifecycle.Case, error) {
	ctx, span := s.tracer.Start(ctx, "lifecycle.case-filtered")
	defer span.End()

	started := s.now()
	c, err := s.filter(ctx, caseID, expectedVersion)
	s.observe("case-filtered", started, err)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return c, nil
}

func (s *Service) filter(ctx context.Context, caseID domain.CaseID, expectedVersion int64) (*lifecycle.Case, error) {
	current, err := s.loadByID(ctx, caseID)
	if err != nil {
		return nil, err
	}

	next, events, err := lifecycle.Apply(current, lifecycle.FilterCase{
		ExpectedVersion: expectedVersion,
		Now:             s.at(ctx).UTC(),
	})
	if err != nil {
		return nil, mapApplyErr(err)
	}

	if err := s.commit(ctx, next, expectedVersion, events); err != nil {
		return nil, mapCommitErr(err)
	}

	if current.Channel == intake.ChannelBulkScanMaterial && current.CorrelationID != "" {
		if err := s.timers.Cancel(ctx, current.CorrelationID, string(timer.ProcessMaterialExpiry)); err != nil {
			s.logger.Error("material timer cancel failed",
				"subject_key", current.CorrelationID, "error", err)
		}
	}

	s.logger.Info("case filtered", "case_id", caseID.String(), "version", next.Version)
	return next, nil
}

// GetCase loads one case aggregate.
func (s *Service) GetCase(ctx context.Context, caseID domain.CaseID) (*lifecycle.Case, error) {
	return s.loadByID(ctx, caseID)
}
