// Package projection maintains queryable views of outstanding validation
// errors, derived from lifecycle events. The projector is a pure consumer: it
// never reaches back into the case store.
package projection

import (
	"context"
	"time"

	"caseflow/internal/validation"
	"caseflow/pkg/domain"
)

// CaseErrors is the outstanding problem set for one case.
type CaseErrors struct {
	CaseID        domain.CaseID                          `json:"caseId"`
	URN           string                                 `json:"urn"`
	CaseType      string                                 `json:"caseType"`
	CourtLocation string                                 `json:"courtLocation"`
	CaseProblems  []validation.Problem                   `json:"caseProblems,omitempty"`
	Defendants    map[domain.DefendantID]DefendantErrors `json:"defendants,omitempty"`
	AsOf          time.Time                              `json:"asOf"`
}

// DefendantErrors carries one defendant's outstanding problems, with the
// police-system reference the reporting channel knows them by.
type DefendantErrors struct {
	PoliceSystemID string               `json:"policeSystemId,omitempty"`
	Problems       []validation.Problem `json:"problems"`
}

// ProblemCount returns the total number of outstanding problems on the case.
func (ce CaseErrors) ProblemCount() int {
	n := len(ce.CaseProblems)
	for _, d := range ce.Defendants {
		n += len(d.Problems)
	}
	return n
}

// CountBucket is one row of the counts query.
type CountBucket struct {
	CourtLocation string `json:"courtLocation"`
	CaseType      string `json:"caseType"`
	Cases         int    `json:"cases"`
	Problems      int    `json:"problems"`
}

// CountFilter narrows the counts query. Zero-value fields match everything.
type CountFilter struct {
	CourtLocation string
	CaseType      string
}

// Store holds the projected error state.
type Store interface {
	Get(ctx context.Context, caseID domain.CaseID) (*CaseErrors, error)
	Upsert(ctx context.Context, ce *CaseErrors) error
	Delete(ctx context.Context, caseID domain.CaseID) error
	Counts(ctx context.Context, filter CountFilter) ([]CountBucket, error)
}
