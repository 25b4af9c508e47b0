// Package memory holds the projected error state in process. Sufficient for a
// single instance; a multi-instance deployment would back this with a shared
// store fed from the event topic.
package memory

import (
	"context"
	"sort"
	"sync"

	"caseflow/internal/projection"
	"caseflow/internal/validation"
	"caseflow/pkg/domain"
	"caseflow/pkg/platform/sentinel"
)

type Store struct {
	mu    sync.RWMutex
	cases map[domain.CaseID]*projection.CaseErrors
}

func New() *Store {
	return &Store{cases: make(map[domain.CaseID]*projection.CaseErrors)}
}

func (s *Store) Get(_ context.Context, caseID domain.CaseID) (*projection.CaseErrors, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ce, ok := s.cases[caseID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return clone(ce), nil
}

func (s *Store) Upsert(_ context.Context, ce *projection.CaseErrors) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cases[ce.CaseID] = clone(ce)
	return nil
}

func (s *Store) Delete(_ context.Context, caseID domain.CaseID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.cases, caseID)
	return nil
}

func (s *Store) Counts(_ context.Context, filter projection.CountFilter) ([]projection.CountBucket, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	type bucketKey struct {
		location string
		caseType string
	}
	buckets := make(map[bucketKey]*projection.CountBucket)
	for _, ce := range s.cases {
		if ce.ProblemCount() == 0 {
			continue
		}
		if filter.CourtLocation != "" && ce.CourtLocation != filter.CourtLocation {
			continue
		}
		if filter.CaseType != "" && ce.CaseType != filter.CaseType {
			continue
		}
		k := bucketKey{location: ce.CourtLocation, caseType: ce.CaseType}
		b, ok := buckets[k]
		if !ok {
			b = &projection.CountBucket{CourtLocation: k.location, CaseType: k.caseType}
			buckets[k] = b
		}
		b.Cases++
		b.Problems += ce.ProblemCount()
	}

	out := make([]projection.CountBucket, 0, len(buckets))
	for _, b := range buckets {
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CourtLocation != out[j].CourtLocation {
			return out[i].CourtLocation < out[j].CourtLocation
		}
		return out[i].CaseType < out[j].CaseType
	})
	return out, nil
}

func clone(ce *projection.CaseErrors) *projection.CaseErrors {
	cp := *ce
	if ce.CaseProblems != nil {
		cp.CaseProblems = append([]validation.Problem(nil), ce.CaseProblems...)
	}
	if ce.Defendants != nil {
		cp.Defendants = make(map[domain.DefendantID]projection.DefendantErrors, len(ce.Defendants))
		for id, de := range ce.Defendants {
			de.Problems = append([]validation.Problem(nil), de.Problems...)
			cp.Defendants[id] = de
		}
	}
	return &cp
}
