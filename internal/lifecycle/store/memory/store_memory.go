package memory

import (
	"context"
	"sync"

	"caseflow/internal/lifecycle"
	"caseflow/pkg/domain"
	"caseflow/pkg/platform/sentinel"
)

// Store is the in-memory case store. It enforces the same optimistic
// concurrency contract as the postgres store so service tests exercise real
// conflict behavior.
type Store struct {
	mu    sync.RWMutex
	byID  map[domain.CaseID]*lifecycle.Case
	byURN map[string]domain.CaseID
}

func New() *Store {
	return &Store{
		byID:  make(map[domain.CaseID]*lifecycle.Case),
		byURN: make(map[string]domain.CaseID),
	}
}

func (s *Store) GetByID(_ context.Context, id domain.CaseID) (*lifecycle.Case, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.byID[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return c, nil
}

func (s *Store) GetByURN(_ context.Context, urn string) (*lifecycle.Case, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byURN[urn]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return s.byID[id], nil
}

func (s *Store) Save(_ context.Context, c *lifecycle.Case, expectedVersion int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.byID[c.ID]
	if !ok {
		if expectedVersion != 0 {
			return sentinel.ErrVersionConflict
		}
	} else if existing.Version != expectedVersion {
		return sentinel.ErrVersionConflict
	}

	s.byID[c.ID] = c
	s.byURN[c.URN] = c.ID
	return nil
}
