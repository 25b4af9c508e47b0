package memory

import (
	"context"
	"sync"

	"caseflow/internal/refdata"
)

// Store is an in-memory reference-data source. Used by tests and as the
// fallback when no upstream reference-data service is configured.
type Store struct {
	mu       sync.RWMutex
	snapshot *refdata.Snapshot
}

func New(snapshot *refdata.Snapshot) *Store {
	return &Store{snapshot: snapshot}
}

// Seeded returns a store populated with a small but representative slice of
// the production reference tables.
func Seeded() *Store {
	return New(&refdata.Snapshot{
		OrganisationUnits: map[string]refdata.OrganisationUnit{
			"01AB": {OUCode: "01AB", Name: "Metropolitan North"},
			"02CD": {OUCode: "02CD", Name: "West Midlands Central"},
			"03EF": {OUCode: "03EF", Name: "Avon and Somerset"},
		},
		OffenceCodes: map[string]refdata.OffenceCode{
			"TH68001": {Code: "TH68001", Title: "Theft from shop", ModeOfTrials: []string{"SUMMARY", "EITHER_WAY"}},
			"TH68010": {Code: "TH68010", Title: "Burglary dwelling", ModeOfTrials: []string{"EITHER_WAY", "INDICTABLE"}},
			"RT88191": {Code: "RT88191", Title: "Driving without insurance", ModeOfTrials: []string{"SUMMARY"}},
			"PU86001": {Code: "PU86001", Title: "Public order offence", ModeOfTrials: []string{"SUMMARY"}},
		},
		Ethnicities: map[string]struct{}{
			"W1": {}, "W2": {}, "M1": {}, "A1": {}, "B1": {}, "O1": {}, "NS": {},
		},
		CustodyStatuses: map[string]struct{}{
			"REMAND": {}, "BAIL": {}, "NOT_APPLICABLE": {},
		},
		Prosecutors: map[string]refdata.Prosecutor{
			"01AB": {OUCode: "01AB", Name: "CPS North"},
			"02CD": {OUCode: "02CD", Name: "CPS Midlands"},
		},
		CourtLocations: map[string]struct{}{
			"B01LA": {}, "B02XY": {}, "C03QQ": {},
		},
	})
}

func (s *Store) Snapshot(_ context.Context) (*refdata.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot, nil
}

// Replace swaps the snapshot wholesale. Readers holding the previous snapshot
// keep a consistent view; only new validation passes see the replacement.
func (s *Store) Replace(snapshot *refdata.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot = snapshot
}
