package lifecycle

import (
	"time"

	"caseflow/internal/intake"
	"caseflow/internal/resolver"
	"caseflow/internal/validation"
	"caseflow/pkg/domain"
)

// Command is one unit of work for the state machine. Commands carry the
// already-computed validation and resolution results so Apply itself stays a
// pure function of (Case, Command).
type Command interface {
	commandName() string
	expectedVersion() int64
}

// ReceiveCase admits a new or resubmitted intake. ExpectedVersion is 0 for a
// brand-new URN and the current version for a resubmission.
type ReceiveCase struct {
	ExpectedVersion int64
	Intake          intake.CaseIntake
	Validation      validation.Result
	Decisions       []resolver.Decision
	Now             time.Time
}

func (ReceiveCase) commandName() string { return "receive-case" }
func (c ReceiveCase) expectedVersion() int64 { return c.ExpectedVersion }

// CorrectErrors re-validates a case after the caller merged corrected fields
// over the original intake. Validation is the result for the merged intake.
type CorrectErrors struct {
	ExpectedVersion int64
	Merged          intake.CaseIntake
	Validation      validation.Result
	Now             time.Time
}

func (CorrectErrors) commandName() string { return "resolve-case-errors" }
func (c CorrectErrors) expectedVersion() int64 { return c.ExpectedVersion }

// RejectCase explicitly rejects a pre-initiated case.
type RejectCase struct {
	ExpectedVersion int64
	Reasons         []string
	Now             time.Time
}

func (RejectCase) commandName() string { return "reject-case" }
func (c RejectCase) expectedVersion() int64 { return c.ExpectedVersion }

// InitiateCase marks downstream proceedings as issued.
type InitiateCase struct {
	ExpectedVersion int64
	Now             time.Time
}

func (InitiateCase) commandName() string { return "initiate-case" }
func (c InitiateCase) expectedVersion() int64 { return c.ExpectedVersion }

// SubmitPlea records an online plea for one defendant. PcqVisitID, when
// present, additionally emits the questionnaire-visit event.
type SubmitPlea struct {
	ExpectedVersion int64
	DefendantID     domain.DefendantID
	Plea            string
	PcqVisitID      string
	DeviceName      string
	Now             time.Time
}

func (SubmitPlea) commandName() string { return "plead-online" }
func (c SubmitPlea) expectedVersion() int64 { return c.ExpectedVersion }

// FilterCase signals the case was filtered/matched; pending material timers
// are cancelled by the service around this command.
type FilterCase struct {
	ExpectedVersion int64
	Now             time.Time
}

func (FilterCase) commandName() string { return "case-filtered" }
func (c FilterCase) expectedVersion() int64 { return c.ExpectedVersion }
