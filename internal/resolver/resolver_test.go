package resolver

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"caseflow/internal/intake"
	"caseflow/internal/validation"
	"caseflow/pkg/domain"
)

func defendant(ref, first, last string) intake.DefendantIntake {
	dob := time.Date(1990, 6, 1, 0, 0, 0, 0, time.UTC)
	return intake.DefendantIntake{
		Reference:   ref,
		FirstName:   first,
		LastName:    last,
		DateOfBirth: &dob,
	}
}

func intakeVia(ch intake.Channel, defendants ...intake.DefendantIntake) intake.CaseIntake {
	return intake.CaseIntake{Channel: ch, URN: "01AB0123456/26", Defendants: defendants}
}

func prior(d intake.DefendantIntake, outcome PriorOutcome, ch intake.Channel) SummonsApplicationDecision {
	return SummonsApplicationDecision{
		DedupKey:    DedupKey(d),
		DefendantID: domain.NewDefendantID(),
		Outcome:     outcome,
		Channel:     ch,
		DecidedAt:   time.Now(),
	}
}

func TestResolve_NoHistoryAccepts(t *testing.T) {
	r := New()
	decisions := r.Resolve(intakeVia(intake.ChannelPoliceFeed, defendant("DEF-001", "Ada", "Byron")), nil)

	require.Len(t, decisions, 1)
	assert.Equal(t, OutcomeAccept, decisions[0].Outcome)
	assert.Nil(t, decisions[0].Problem)
}

func TestResolve_RejectionClearsTheWay(t *testing.T) {
	r := New()
	d := defendant("DEF-001", "Ada", "Byron")
	history := []SummonsApplicationDecision{prior(d, PriorRejected, intake.ChannelManual)}

	decisions := r.Resolve(intakeVia(intake.ChannelManual, d), history)
	require.Len(t, decisions, 1)
	assert.Equal(t, OutcomeAccept, decisions[0].Outcome,
		"a fresh attempt after rejection is not a duplicate")
}

func TestResolve_ApprovedSameChannelRejects(t *testing.T) {
	r := New()
	d := defendant("DEF-001", "Ada", "Byron")
	history := []SummonsApplicationDecision{prior(d, PriorApproved, intake.ChannelManual)}

	decisions := r.Resolve(intakeVia(intake.ChannelManual, d), history)
	require.Len(t, decisions, 1)
	assert.Equal(t, OutcomeReject, decisions[0].Outcome)
	require.NotNil(t, decisions[0].Problem)
	assert.Equal(t, validation.CodeDefendantAlreadyInProgress, decisions[0].Problem.Code)
	assert.Equal(t, "defendants[0]", decisions[0].Problem.Path)
}

func TestResolve_ApprovedDifferentChannelIgnores(t *testing.T) {
	r := New()
	d := defendant("DEF-001", "Ada", "Byron")
	history := []SummonsApplicationDecision{prior(d, PriorApproved, intake.ChannelManual)}

	decisions := r.Resolve(intakeVia(intake.ChannelPoliceFeed, d), history)
	require.Len(t, decisions, 1)
	assert.Equal(t, OutcomeDuplicateIgnore, decisions[0].Outcome,
		"channels race to report the same event; the loser is absorbed silently")
	assert.Nil(t, decisions[0].Problem)
}

// The full §-matrix of the testable property: approved via A, resubmitted via
// B -> ignored; resubmitted via A again -> rejected.
func TestResolve_CrossChannelMatrix(t *testing.T) {
	r := New()
	d := defendant("DEF-001", "Ada", "Byron")
	history := []SummonsApplicationDecision{prior(d, PriorApproved, intake.ChannelOnlinePlea)}

	viaB := r.Resolve(intakeVia(intake.ChannelManual, d), history)
	assert.Equal(t, OutcomeDuplicateIgnore, viaB[0].Outcome)

	viaA := r.Resolve(intakeVia(intake.ChannelOnlinePlea, d), history)
	assert.Equal(t, OutcomeReject, viaA[0].Outcome)
}

func TestResolve_DecisionsAreIndependentPerDefendant(t *testing.T) {
	r := New()
	rejected := defendant("DEF-001", "Ada", "Byron")
	fresh := defendant("DEF-002", "Charles", "Babbage")
	history := []SummonsApplicationDecision{prior(rejected, PriorApproved, intake.ChannelManual)}

	decisions := r.Resolve(intakeVia(intake.ChannelManual, rejected, fresh), history)
	require.Len(t, decisions, 2)
	assert.Equal(t, OutcomeReject, decisions[0].Outcome)
	assert.Equal(t, OutcomeAccept, decisions[1].Outcome,
		"one defendant's rejection must not block siblings")
}

func TestResolve_IntraSubmissionDuplicateMerges(t *testing.T) {
	r := New()
	d := defendant("DEF-001", "Ada", "Byron")

	decisions := r.Resolve(intakeVia(intake.ChannelBulkScanMaterial, d, d), nil)
	require.Len(t, decisions, 2)
	assert.Equal(t, OutcomeAccept, decisions[0].Outcome)
	assert.Equal(t, OutcomeMerge, decisions[1].Outcome)
}

func TestDedupKey_Stability(t *testing.T) {
	a := defendant("DEF-001", "Ada", "Byron")
	b := defendant("def-001", "ADA", "byron") // case differences normalize away

	assert.Equal(t, DedupKey(a), DedupKey(b))

	c := defendant("DEF-001", "Ada", "Lovelace")
	assert.NotEqual(t, DedupKey(a), DedupKey(c), "identity fields are part of the key")
}
