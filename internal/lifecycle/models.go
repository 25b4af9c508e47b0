package lifecycle

import (
	"time"

	"caseflow/internal/intake"
	"caseflow/internal/validation"
	"caseflow/pkg/domain"
)

// CaseStatus is the authoritative lifecycle position of a case.
type CaseStatus string

const (
	StatusReceived         CaseStatus = "RECEIVED"
	StatusValidationFailed CaseStatus = "VALIDATION_FAILED"
	StatusResolved         CaseStatus = "RESOLVED"
	StatusRejected         CaseStatus = "REJECTED"
	StatusInitiated        CaseStatus = "INITIATED"
)

// IsTerminal reports whether no further transition is possible.
func (s CaseStatus) IsTerminal() bool {
	return s == StatusRejected || s == StatusInitiated
}

// transitions lists the permitted moves. Absence means the transition is a
// state-machine violation.
var transitions = map[CaseStatus][]CaseStatus{
	StatusReceived:         {StatusInitiated, StatusRejected},
	StatusValidationFailed: {StatusResolved, StatusValidationFailed, StatusRejected},
	StatusResolved:         {StatusInitiated, StatusRejected},
}

// CanTransitionTo reports whether s -> target is a legal move.
func (s CaseStatus) CanTransitionTo(target CaseStatus) bool {
	for _, t := range transitions[s] {
		if t == target {
			return true
		}
	}
	return false
}

// DefendantStatus tracks the resolver outcome applied to a defendant.
type DefendantStatus string

const (
	DefendantNew             DefendantStatus = "NEW"
	DefendantDuplicateIgnored DefendantStatus = "DUPLICATE_IGNORED"
	DefendantMerged          DefendantStatus = "MERGED"
	DefendantRejected        DefendantStatus = "REJECTED"
)

// Case is the aggregate root. Created on the first valid or invalid intake for
// a URN; mutated only through Apply; never deleted, only transitioned to a
// terminal status. Version is the optimistic-concurrency token and increments
// on every mutation.
type Case struct {
	ID            domain.CaseID
	URN           string
	Status        CaseStatus
	Version       int64
	Channel       intake.Channel
	CorrelationID string
	CaseType      string
	CourtLocation string
	Defendants    []Defendant
	Problems      []validation.Problem
	// Intake retains the accepted canonical submission so corrections can be
	// merged over the original fields on re-validation.
	Intake    intake.CaseIntake
	CreatedAt time.Time
	UpdatedAt time.Time
}

// OutstandingProblems collects every unresolved problem in the aggregate tree.
func (c *Case) OutstandingProblems() []validation.Problem {
	var out []validation.Problem
	out = append(out, c.Problems...)
	for _, d := range c.Defendants {
		out = append(out, d.Problems...)
		for _, o := range d.Offences {
			out = append(out, o.Problems...)
		}
	}
	return out
}

// Defendant is a child of Case.
type Defendant struct {
	ID        domain.DefendantID
	Reference string
	DedupKey  string
	Status    DefendantStatus
	Offences  []Offence
	Problems  []validation.Problem
}

// Offence is a child of Defendant.
type Offence struct {
	ID            domain.OffenceID
	Code          string
	CommittedDate *time.Time
	Problems      []validation.Problem
}
