package memory

import (
	"context"
	"sync"

	"caseflow/internal/resolver"
	"caseflow/pkg/domain"
)

// Store keeps summons-application decisions in memory, keyed by case.
type Store struct {
	mu        sync.RWMutex
	decisions map[domain.CaseID][]resolver.SummonsApplicationDecision
}

func New() *Store {
	return &Store{decisions: make(map[domain.CaseID][]resolver.SummonsApplicationDecision)}
}

func (s *Store) ListByCase(_ context.Context, caseID domain.CaseID) ([]resolver.SummonsApplicationDecision, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]resolver.SummonsApplicationDecision(nil), s.decisions[caseID]...), nil
}

// Record stores a decision. A later decision for the same dedup key supersedes
// the earlier one, so resubmission handling always sees the latest outcome.
func (s *Store) Record(_ context.Context, caseID domain.CaseID, decision resolver.SummonsApplicationDecision) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing := s.decisions[caseID]
	for i, d := range existing {
		if d.DedupKey == decision.DedupKey {
			existing[i] = decision
			return nil
		}
	}
	s.decisions[caseID] = append(existing, decision)
	return nil
}
