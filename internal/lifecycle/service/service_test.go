package service_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"caseflow/internal/intake"
	"caseflow/internal/lifecycle"
	"caseflow/internal/lifecycle/service"
	"caseflow/internal/lifecycle/service/mocks"
	casememory "caseflow/internal/lifecycle/store/memory"
	"caseflow/internal/outbox"
	"caseflow/internal/projection"
	projmemory "caseflow/internal/projection/store/memory"
	refmemory "caseflow/internal/refdata/store/memory"
	"caseflow/internal/resolver"
	decmemory "caseflow/internal/resolver/store/memory"
	"caseflow/internal/timer"
	"caseflow/internal/validation"
	"caseflow/pkg/domain"
	dErrors "caseflow/pkg/domain-errors"
	"caseflow/pkg/requestcontext"
)

var serviceNow = time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC)

// ServiceSuite wires the full pipeline with real components: memory stores,
// the real validation engine over seeded reference data, the real resolver
// and the outbox publisher. Mocks are reserved for the timer port.
type ServiceSuite struct {
	suite.Suite
	ctx       context.Context
	ctrl      *gomock.Controller
	cases     *casememory.Store
	decisions *decmemory.Store
	outbox    *outbox.MemoryStore
	projStore *projmemory.Store
	timers    *mocks.MockTimerScheduler
	svc       *service.Service
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.ctx = context.Background()
	s.ctrl = gomock.NewController(s.T())
	s.cases = casememory.New()
	s.decisions = decmemory.New()
	s.outbox = outbox.NewMemoryStore()
	s.projStore = projmemory.New()
	s.timers = mocks.NewMockTimerScheduler(s.ctrl)

	engine, err := validation.NewEngine(refmemory.Seeded())
	s.Require().NoError(err)

	svc, err := service.New(
		s.cases,
		s.decisions,
		outbox.NewPublisher(s.outbox),
		engine,
		resolver.New(),
		service.WithTimerScheduler(s.timers),
		service.WithProjector(projection.NewProjector(s.projStore)),
		service.WithClock(func() time.Time { return serviceNow }),
	)
	s.Require().NoError(err)
	s.svc = svc
}

func validSubmission(urn string) intake.Submission {
	return intake.Submission{
		Channel:          intake.ChannelPoliceFeed,
		URN:              urn,
		CorrelationID:    "corr-" + urn,
		InitiationCode:   "C",
		ProsecutorOUCode: "01AB",
		Defendants: []intake.DefendantSubmission{{
			Reference:            "01AB/DEF-001",
			FirstName:            "Ada",
			LastName:             "Hughes",
			DateOfBirth:          "1990-05-04",
			CustodyStatus:        "BAIL",
			ObservedEthnicity:    "W1",
			SelfDefinedEthnicity: "W1",
			Offences: []intake.OffenceSubmission{{
				Code:                 "TH68001",
				CommittedDate:        "2026-01-10",
				ArrestDate:           "2026-01-12",
				ModeOfTrial:          "SUMMARY",
				CourtHearingLocation: "B01LA",
				HearingDate:          "2027-03-01",
			}},
		}},
	}
}

func (s *ServiceSuite) eventTypes() []string {
	var out []string
	for _, e := range s.outbox.All() {
		out = append(out, e.EventType)
	}
	return out
}

func (s *ServiceSuite) publishedEvent(t lifecycle.EventType) lifecycle.Event {
	for _, e := range s.outbox.All() {
		if e.EventType == string(t) {
			var ev lifecycle.Event
			s.Require().NoError(json.Unmarshal(e.Payload, &ev))
			return ev
		}
	}
	s.Require().Failf("event not published", "no %s in outbox", string(t))
	return lifecycle.Event{}
}

func (s *ServiceSuite) TestCleanSubmissionIsReceived() {
	c, err := s.svc.HandleInitiateProsecution(s.ctx, validSubmission("01AB12345/26"))
	s.Require().NoError(err)

	s.Equal(lifecycle.StatusReceived, c.Status)
	s.EqualValues(1, c.Version)
	s.Equal("01AB12345/26", c.URN)
	s.Contains(s.eventTypes(), string(lifecycle.EventCaseReceived))

	// Clean cases never surface in the error projection.
	counts, err := s.projStore.Counts(s.ctx, projection.CountFilter{})
	s.Require().NoError(err)
	s.Empty(counts)
}

func (s *ServiceSuite) TestFailingSubmissionProjectsErrors() {
	sub := validSubmission("01AB12346/26")
	sub.InitiationCode = "Z"
	sub.Defendants[0].LastName = ""
	sub.Defendants[0].FirstName = ""
	sub.CaseType = "C"

	c, err := s.svc.HandleInitiateProsecution(s.ctx, sub)
	s.Require().NoError(err)
	s.Equal(lifecycle.StatusValidationFailed, c.Status)

	s.Contains(s.eventTypes(), string(lifecycle.EventCaseValidationFailed))
	s.Contains(s.eventTypes(), string(lifecycle.EventDefendantValidationFailed))

	ce, err := s.projStore.Get(s.ctx, c.ID)
	s.Require().NoError(err)
	s.Positive(ce.ProblemCount())
}

func (s *ServiceSuite) TestCorrectionResolvesCase() {
	sub := validSubmission("01AB12347/26")
	sub.InitiationCode = "Z"
	sub.CaseType = "C"
	c, err := s.svc.HandleInitiateProsecution(s.ctx, sub)
	s.Require().NoError(err)
	s.Require().Equal(lifecycle.StatusValidationFailed, c.Status)

	corrected, err := s.svc.HandleCorrection(s.ctx, c.ID, service.Correction{
		ExpectedVersion: c.Version,
		InitiationCode:  "C",
	})
	s.Require().NoError(err)
	s.Equal(lifecycle.StatusResolved, corrected.Status)
	s.EqualValues(c.Version+1, corrected.Version)
	s.Contains(s.eventTypes(), string(lifecycle.EventResolvedCase))

	// The projection forgets resolved cases.
	_, err = s.projStore.Get(s.ctx, c.ID)
	s.Error(err)
}

func (s *ServiceSuite) TestStaleCorrectionConflicts() {
	sub := validSubmission("01AB12348/26")
	sub.InitiationCode = "Z"
	sub.CaseType = "C"
	c, err := s.svc.HandleInitiateProsecution(s.ctx, sub)
	s.Require().NoError(err)

	_, err = s.svc.HandleCorrection(s.ctx, c.ID, service.Correction{
		ExpectedVersion: c.Version + 5,
		InitiationCode:  "C",
	})
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))
}

func (s *ServiceSuite) TestCrossChannelDuplicateAbsorbedSameChannelRejected() {
	urn := "01AB12349/26"
	c, err := s.svc.HandleInitiateProsecution(s.ctx, validSubmission(urn))
	s.Require().NoError(err)

	// The court approves the summons application for every defendant.
	_, err = s.svc.HandleApplicationOutcome(s.ctx, c.ID, service.ApplicationOutcome{
		ApplicationID:   domain.NewApplicationID(),
		ExpectedVersion: c.Version,
		Approved:        true,
	})
	s.Require().NoError(err)

	// Same defendant arrives again via a different channel: absorbed silently.
	manual := validSubmission(urn)
	manual.Channel = intake.ChannelManual
	manual.Defendants[0].Reference = "DEF-001" // manual entry has no force prefix
	absorbed, err := s.svc.HandleInitiateProsecution(s.ctx, manual)
	s.Require().NoError(err)
	s.Equal(c.ID, absorbed.ID)
	s.EqualValues(c.Version, absorbed.Version, "duplicate absorption must not advance the case")

	// Via the original channel: the application is already in progress.
	again, err := s.svc.HandleInitiateProsecution(s.ctx, validSubmission(urn))
	s.Require().NoError(err)
	s.Equal(lifecycle.StatusRejected, again.Status)
	s.Contains(s.eventTypes(), string(lifecycle.EventProsecutionRejected))
}

func (s *ServiceSuite) TestMaterialTimerScheduledThenCancelledOnMatch() {
	urn := "01AB12350/26"
	material := validSubmission(urn)
	material.Channel = intake.ChannelBulkScanMaterial
	material.CorrelationID = "mat-778"
	material.Defendants[0].Reference = "DEF-001"

	s.timers.EXPECT().
		Schedule(gomock.Any(), "mat-778", string(timer.ProcessMaterialExpiry)).
		Return(nil)
	_, err := s.svc.HandleInitiateProsecution(s.ctx, material)
	s.Require().NoError(err)

	s.timers.EXPECT().
		Cancel(gomock.Any(), "mat-778", string(timer.ProcessMaterialExpiry)).
		Return(nil)
	matched := validSubmission(urn)
	_, err = s.svc.HandleInitiateProsecution(s.ctx, matched)
	s.Require().NoError(err)
}

func (s *ServiceSuite) TestFilteredCaseCancelsMaterialTimer() {
	material := validSubmission("01AB12351/26")
	material.Channel = intake.ChannelBulkScanMaterial
	material.CorrelationID = "mat-991"
	material.Defendants[0].Reference = "DEF-001"

	s.timers.EXPECT().
		Schedule(gomock.Any(), "mat-991", string(timer.ProcessMaterialExpiry)).
		Return(nil)
	c, err := s.svc.HandleInitiateProsecution(s.ctx, material)
	s.Require().NoError(err)

	s.timers.EXPECT().
		Cancel(gomock.Any(), "mat-991", string(timer.ProcessMaterialExpiry)).
		Return(nil)
	filtered, err := s.svc.HandleCaseFiltered(s.ctx, c.ID, c.Version)
	s.Require().NoError(err)
	s.EqualValues(c.Version+1, filtered.Version)
	s.Contains(s.eventTypes(), string(lifecycle.EventCaseFiltered))
}

func (s *ServiceSuite) TestGroupParkedWhenSummonsApprovalNeeded() {
	groupID := domain.NewGroupID()
	summons := validSubmission("01AB12352/26")
	summons.InitiationCode = "S" // requisition: needs a court decision
	charge := validSubmission("01AB12353/26")

	res, err := s.svc.HandleGroupProsecution(s.ctx, groupID, []intake.Submission{summons, charge})
	s.Require().NoError(err)
	s.True(res.Parked)
	s.Len(res.Cases, 2)
	s.Contains(s.eventTypes(), string(lifecycle.EventGroupCasesParkedForApproval))
}

func (s *ServiceSuite) TestGroupReceivedWhenNoApprovalNeeded() {
	groupID := domain.NewGroupID()
	res, err := s.svc.HandleGroupProsecution(s.ctx, groupID, []intake.Submission{
		validSubmission("01AB12354/26"),
		validSubmission("01AB12355/26"),
	})
	s.Require().NoError(err)
	s.False(res.Parked)
	s.Contains(s.eventTypes(), string(lifecycle.EventGroupCasesReceived))
}

func (s *ServiceSuite) TestApplicationRejectionRejectsCaseWithGroupEvent() {
	groupID := domain.NewGroupID()
	sub := validSubmission("01AB12356/26")
	sub.InitiationCode = "S"
	res, err := s.svc.HandleGroupProsecution(s.ctx, groupID, []intake.Submission{sub})
	s.Require().NoError(err)
	c := res.Cases[0]

	rejected, err := s.svc.HandleApplicationOutcome(s.ctx, c.ID, service.ApplicationOutcome{
		ApplicationID:   domain.NewApplicationID(),
		GroupID:         groupID,
		ExpectedVersion: c.Version,
		Approved:        false,
		Reasons:         []string{"INSUFFICIENT_EVIDENCE"},
	})
	s.Require().NoError(err)
	s.Equal(lifecycle.StatusRejected, rejected.Status)
	s.Contains(s.eventTypes(), string(lifecycle.EventGroupProsecutionRejected))
}

func (s *ServiceSuite) TestPleaEmitsPleaAndQuestionnaireEvents() {
	c, err := s.svc.HandleInitiateProsecution(s.ctx, validSubmission("01AB12357/26"))
	s.Require().NoError(err)
	s.Require().NotEmpty(c.Defendants)

	next, err := s.svc.HandlePlea(s.ctx, c.ID, service.PleaSubmission{
		ExpectedVersion: c.Version,
		DefendantID:     c.Defendants[0].ID,
		Plea:            "GUILTY",
		PcqVisitID:      "pcq-42",
		DeviceName:      "Safari on iPhone",
	})
	s.Require().NoError(err)
	s.EqualValues(c.Version+1, next.Version)
	s.Contains(s.eventTypes(), string(lifecycle.EventPcqVisitedSubmitted))

	plea := s.publishedEvent(lifecycle.EventOnlinePleaSubmitted)
	s.Equal("GUILTY", plea.Plea)
	s.Equal("Safari on iPhone", plea.Device)
}

func (s *ServiceSuite) TestPleaForUnknownDefendantFails() {
	c, err := s.svc.HandleInitiateProsecution(s.ctx, validSubmission("01AB12358/26"))
	s.Require().NoError(err)

	_, err = s.svc.HandlePlea(s.ctx, c.ID, service.PleaSubmission{
		ExpectedVersion: c.Version,
		DefendantID:     domain.NewDefendantID(),
		Plea:            "GUILTY",
	})
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *ServiceSuite) TestStaleRejectionRecordsNoDecisions() {
	c, err := s.svc.HandleInitiateProsecution(s.ctx, validSubmission("01AB12362/26"))
	s.Require().NoError(err)

	_, err = s.svc.HandleApplicationOutcome(s.ctx, c.ID, service.ApplicationOutcome{
		ApplicationID:   domain.NewApplicationID(),
		ExpectedVersion: c.Version + 3,
		Approved:        false,
		Reasons:         []string{"INSUFFICIENT_EVIDENCE"},
	})
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))

	history, err := s.decisions.ListByCase(s.ctx, c.ID)
	s.Require().NoError(err)
	s.Empty(history, "a failed rejection must not leave decisions behind")
}

func (s *ServiceSuite) TestCommandsUseRequestScopedTime() {
	reqTime := time.Date(2026, 7, 2, 9, 30, 0, 0, time.UTC)
	ctx := requestcontext.WithTime(s.ctx, reqTime)

	c, err := s.svc.HandleInitiateProsecution(ctx, validSubmission("01AB12363/26"))
	s.Require().NoError(err)
	s.Equal(reqTime, c.CreatedAt)
	s.Equal(reqTime, c.UpdatedAt)

	received := s.publishedEvent(lifecycle.EventCaseReceived)
	s.Equal(reqTime, received.OccurredAt)
}

func (s *ServiceSuite) TestUnknownChannelIsInvalidInput() {
	sub := validSubmission("01AB12359/26")
	sub.Channel = intake.Channel("CARRIER_PIGEON")
	_, err := s.svc.HandleInitiateProsecution(s.ctx, sub)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
}

func TestPublishFailureSurfacesAsInternal(t *testing.T) {
	ctrl := gomock.NewController(t)
	publisher := mocks.NewMockPublisher(ctrl)
	publisher.EXPECT().
		Publish(gomock.Any(), gomock.Any()).
		Return(dErrors.New(dErrors.CodeInternal, "broker down"))

	engine, err := validation.NewEngine(refmemory.Seeded())
	if err != nil {
		t.Fatal(err)
	}
	svc, err := service.New(
		casememory.New(),
		decmemory.New(),
		publisher,
		engine,
		resolver.New(),
		service.WithClock(func() time.Time { return serviceNow }),
	)
	if err != nil {
		t.Fatal(err)
	}

	_, err = svc.HandleInitiateProsecution(context.Background(), validSubmission("01AB12360/26"))
	if !dErrors.HasCode(err, dErrors.CodeInternal) {
		t.Fatalf("expected internal error, got %v", err)
	}
}
