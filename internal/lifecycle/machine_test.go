package lifecycle

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"caseflow/internal/intake"
	"caseflow/internal/resolver"
	"caseflow/internal/validation"
	"caseflow/pkg/platform/sentinel"
)

var testNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func cleanIntake(ch intake.Channel) intake.CaseIntake {
	dob := time.Date(1990, 6, 1, 0, 0, 0, 0, time.UTC)
	committed := time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)
	return intake.CaseIntake{
		Channel:          ch,
		URN:              "01AB0123456/26",
		InitiationCode:   "C",
		ProsecutorOUCode: "01AB",
		CaseType:         "C",
		ReceivedAt:       testNow,
		Defendants: []intake.DefendantIntake{{
			Reference:   "DEF-001",
			FirstName:   "Ada",
			LastName:    "Byron",
			DateOfBirth: &dob,
			Offences: []intake.OffenceIntake{{
				Code:                 "TH68001",
				CommittedDate:        &committed,
				CourtHearingLocation: "B01LA",
			}},
		}},
	}
}

func acceptAll(ci intake.CaseIntake) []resolver.Decision {
	decisions := make([]resolver.Decision, len(ci.Defendants))
	for i, d := range ci.Defendants {
		decisions[i] = resolver.Decision{
			DefendantIndex: i,
			DedupKey:       resolver.DedupKey(d),
			Outcome:        resolver.OutcomeAccept,
		}
	}
	return decisions
}

func cleanResult(ci intake.CaseIntake) validation.Result {
	r := validation.Result{}
	for range ci.Defendants {
		r.Defendants = append(r.Defendants, validation.DefendantResult{Offences: [][]validation.Problem{nil}})
	}
	return r
}

func problem(code validation.Code, cat validation.Category, path string) validation.Problem {
	return validation.Problem{Category: cat, Code: code, Path: path, Version: 1}
}

func TestApply_CleanIntakeBecomesReceived(t *testing.T) {
	ci := cleanIntake(intake.ChannelPoliceFeed)
	next, events, err := Apply(nil, ReceiveCase{
		Intake:     ci,
		Validation: cleanResult(ci),
		Decisions:  acceptAll(ci),
		Now:        testNow,
	})
	require.NoError(t, err)

	assert.Equal(t, StatusReceived, next.Status)
	assert.EqualValues(t, 1, next.Version)
	assert.Equal(t, "B01LA", next.CourtLocation)
	require.Len(t, next.Defendants, 1)
	assert.Equal(t, DefendantNew, next.Defendants[0].Status)

	require.Len(t, events, 1)
	assert.Equal(t, EventCaseReceived, events[0].Type)
	assert.Equal(t, next.ID, events[0].CaseID)
}

func TestApply_ManualChannelAlsoEmitsManualReceived(t *testing.T) {
	ci := cleanIntake(intake.ChannelManual)
	_, events, err := Apply(nil, ReceiveCase{
		Intake: ci, Validation: cleanResult(ci), Decisions: acceptAll(ci), Now: testNow,
	})
	require.NoError(t, err)

	require.Len(t, events, 2)
	assert.Equal(t, EventCaseReceived, events[0].Type)
	assert.Equal(t, EventManualCaseReceived, events[1].Type)
}

func TestApply_ValidationProblemsBecomeValidationFailed(t *testing.T) {
	ci := cleanIntake(intake.ChannelPoliceFeed)
	result := cleanResult(ci)
	result.Case = []validation.Problem{problem(validation.CodeURNInvalidFormat, validation.CategoryCase, "case.urn")}
	result.Defendants[0].Problems = []validation.Problem{problem(validation.CodeDefendantDOBMissing, validation.CategoryDefendant, "defendants[0].dateOfBirth")}

	next, events, err := Apply(nil, ReceiveCase{
		Intake: ci, Validation: result, Decisions: acceptAll(ci), Now: testNow,
	})
	require.NoError(t, err)

	assert.Equal(t, StatusValidationFailed, next.Status)
	require.Len(t, events, 2)
	assert.Equal(t, EventCaseValidationFailed, events[0].Type)
	assert.Equal(t, EventDefendantValidationFailed, events[1].Type)
	assert.Equal(t, "DEF-001", events[1].PoliceSystemID)
	require.Len(t, events[1].Problems, 1)
	assert.Equal(t, validation.CodeDefendantDOBMissing, events[1].Problems[0].Code)
}

func TestApply_StaleVersionIsConcurrencyConflict(t *testing.T) {
	ci := cleanIntake(intake.ChannelPoliceFeed)
	current, _, err := Apply(nil, ReceiveCase{
		Intake: ci, Validation: cleanResult(ci), Decisions: acceptAll(ci), Now: testNow,
	})
	require.NoError(t, err)

	// Same expected version applied twice: first wins, second conflicts.
	_, _, err = Apply(current, ReceiveCase{
		ExpectedVersion: 0,
		Intake:          ci, Validation: cleanResult(ci), Decisions: acceptAll(ci), Now: testNow,
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, sentinel.ErrVersionConflict))
}

func TestApply_CorrectionReducesProblemSet(t *testing.T) {
	ci := cleanIntake(intake.ChannelPoliceFeed)
	p1 := problem(validation.CodeURNInvalidFormat, validation.CategoryCase, "case.urn")
	p2 := problem(validation.CodeInitiationCodeMissing, validation.CategoryCase, "case.initiationCode")

	result := cleanResult(ci)
	result.Case = []validation.Problem{p1, p2}
	failed, _, err := Apply(nil, ReceiveCase{
		Intake: ci, Validation: result, Decisions: acceptAll(ci), Now: testNow,
	})
	require.NoError(t, err)
	require.Equal(t, StatusValidationFailed, failed.Status)

	// The correction fixes P1; P2 persists and its version token bumps.
	remaining := cleanResult(ci)
	remaining.Case = []validation.Problem{p2}
	next, events, err := Apply(failed, CorrectErrors{
		ExpectedVersion: failed.Version,
		Merged:          ci,
		Validation:      remaining,
		Now:             testNow.Add(time.Hour),
	})
	require.NoError(t, err)

	assert.Equal(t, StatusValidationFailed, next.Status)
	require.Len(t, next.Problems, 1)
	assert.Equal(t, validation.CodeInitiationCodeMissing, next.Problems[0].Code)
	assert.Equal(t, 2, next.Problems[0].Version, "recurring problem bumps its version token")

	require.Len(t, events, 1)
	assert.Equal(t, EventCaseValidationFailed, events[0].Type)
	for _, p := range events[0].Problems {
		assert.NotEqual(t, validation.CodeURNInvalidFormat, p.Code, "resolved problem must not be re-reported")
	}
}

func TestApply_FullCorrectionResolvesCase(t *testing.T) {
	ci := cleanIntake(intake.ChannelPoliceFeed)
	result := cleanResult(ci)
	result.Case = []validation.Problem{problem(validation.CodeURNInvalidFormat, validation.CategoryCase, "case.urn")}
	failed, _, err := Apply(nil, ReceiveCase{
		Intake: ci, Validation: result, Decisions: acceptAll(ci), Now: testNow,
	})
	require.NoError(t, err)

	next, events, err := Apply(failed, CorrectErrors{
		ExpectedVersion: failed.Version,
		Merged:          ci,
		Validation:      cleanResult(ci),
		Now:             testNow.Add(time.Hour),
	})
	require.NoError(t, err)

	assert.Equal(t, StatusResolved, next.Status)
	assert.Empty(t, next.OutstandingProblems())
	require.Len(t, events, 1)
	assert.Equal(t, EventResolvedCase, events[0].Type)
}

func TestApply_AllDefendantsRejectedRejectsCase(t *testing.T) {
	ci := cleanIntake(intake.ChannelManual)
	p := problem(validation.CodeDefendantAlreadyInProgress, validation.CategoryDefendant, "defendants[0]")
	decisions := []resolver.Decision{{
		DefendantIndex: 0,
		DedupKey:       resolver.DedupKey(ci.Defendants[0]),
		Outcome:        resolver.OutcomeReject,
		Problem:        &p,
	}}

	next, events, err := Apply(nil, ReceiveCase{
		Intake: ci, Validation: cleanResult(ci), Decisions: decisions, Now: testNow,
	})
	require.NoError(t, err)

	assert.Equal(t, StatusRejected, next.Status)
	require.Len(t, events, 1)
	assert.Equal(t, EventProsecutionRejected, events[0].Type)
	assert.Contains(t, events[0].Reasons, string(validation.CodeDefendantAlreadyInProgress))
}

func TestApply_DuplicateOnlyResubmissionIsAbsorbed(t *testing.T) {
	ci := cleanIntake(intake.ChannelPoliceFeed)
	current, _, err := Apply(nil, ReceiveCase{
		Intake: ci, Validation: cleanResult(ci), Decisions: acceptAll(ci), Now: testNow,
	})
	require.NoError(t, err)

	decisions := acceptAll(ci)
	decisions[0].Outcome = resolver.OutcomeDuplicateIgnore
	next, events, err := Apply(current, ReceiveCase{
		ExpectedVersion: current.Version,
		Intake:          ci, Validation: cleanResult(ci), Decisions: decisions, Now: testNow,
	})
	require.NoError(t, err)

	assert.Same(t, current, next, "fully absorbed resubmission leaves the case untouched")
	assert.Empty(t, events)
}

func TestApply_TerminalStatusBlocksFurtherCommands(t *testing.T) {
	ci := cleanIntake(intake.ChannelPoliceFeed)
	received, _, err := Apply(nil, ReceiveCase{
		Intake: ci, Validation: cleanResult(ci), Decisions: acceptAll(ci), Now: testNow,
	})
	require.NoError(t, err)

	initiated, events, err := Apply(received, InitiateCase{ExpectedVersion: received.Version, Now: testNow})
	require.NoError(t, err)
	assert.Equal(t, StatusInitiated, initiated.Status)
	require.Len(t, events, 1)
	assert.Equal(t, EventCaseInitiated, events[0].Type)

	_, _, err = Apply(initiated, RejectCase{ExpectedVersion: initiated.Version, Now: testNow})
	require.Error(t, err)
	assert.True(t, errors.Is(err, sentinel.ErrInvalidState))
}

func TestApply_PleaEmitsEventsWithoutStatusChange(t *testing.T) {
	ci := cleanIntake(intake.ChannelOnlinePlea)
	received, _, err := Apply(nil, ReceiveCase{
		Intake: ci, Validation: cleanResult(ci), Decisions: acceptAll(ci), Now: testNow,
	})
	require.NoError(t, err)

	next, events, err := Apply(received, SubmitPlea{
		ExpectedVersion: received.Version,
		DefendantID:     received.Defendants[0].ID,
		Plea:            "GUILTY",
		PcqVisitID:      "pcq-123",
		DeviceName:      "Safari on iPhone",
		Now:             testNow,
	})
	require.NoError(t, err)

	assert.Equal(t, StatusReceived, next.Status)
	assert.Equal(t, received.Version+1, next.Version)
	require.Len(t, events, 2)
	assert.Equal(t, EventOnlinePleaSubmitted, events[0].Type)
	assert.Equal(t, "GUILTY", events[0].Plea)
	assert.Equal(t, "Safari on iPhone", events[0].Device)
	assert.Equal(t, EventPcqVisitedSubmitted, events[1].Type)
	assert.Equal(t, "pcq-123", events[1].PcqVisitID)
}

func TestApply_PleaForUnknownDefendantFails(t *testing.T) {
	ci := cleanIntake(intake.ChannelOnlinePlea)
	received, _, err := Apply(nil, ReceiveCase{
		Intake: ci, Validation: cleanResult(ci), Decisions: acceptAll(ci), Now: testNow,
	})
	require.NoError(t, err)

	_, _, err = Apply(received, SubmitPlea{
		ExpectedVersion: received.Version,
		Now:             testNow, // zero DefendantID matches nothing
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, sentinel.ErrNotFound))
}

func TestApply_ResubmissionKeepsCaseAndDefendantIdentity(t *testing.T) {
	ci := cleanIntake(intake.ChannelPoliceFeed)
	first, _, err := Apply(nil, ReceiveCase{
		Intake: ci, Validation: cleanResult(ci), Decisions: acceptAll(ci), Now: testNow,
	})
	require.NoError(t, err)

	second, _, err := Apply(first, ReceiveCase{
		ExpectedVersion: first.Version,
		Intake:          ci, Validation: cleanResult(ci), Decisions: acceptAll(ci),
		Now:             testNow.Add(time.Minute),
	})
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID, "system id is stable per URN")
	assert.Equal(t, first.Defendants[0].ID, second.Defendants[0].ID,
		"same dedup key keeps the defendant id across resubmission")
	assert.Equal(t, first.Version+1, second.Version)
}
