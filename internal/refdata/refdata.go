package refdata

import "context"

// Snapshot is an immutable view of reference data. The validation engine
// captures one snapshot per pass so a single pass never sees two versions of
// the same table. A snapshot may be stale; it must never be internally
// inconsistent.
type Snapshot struct {
	OrganisationUnits map[string]OrganisationUnit
	OffenceCodes      map[string]OffenceCode
	Ethnicities       map[string]struct{}
	CustodyStatuses   map[string]struct{}
	Prosecutors       map[string]Prosecutor
	CourtLocations    map[string]struct{}
}

// OrganisationUnit identifies a policing or prosecuting body by OU code.
type OrganisationUnit struct {
	OUCode string
	Name   string
}

// OffenceCode is one entry of the offence catalogue.
type OffenceCode struct {
	Code         string
	Title        string
	ModeOfTrials []string
}

// Prosecutor is an authority permitted to initiate proceedings.
type Prosecutor struct {
	OUCode string
	Name   string
}

// HasOrganisationUnit reports whether the OU code is recognised.
func (s *Snapshot) HasOrganisationUnit(code string) bool {
	_, ok := s.OrganisationUnits[code]
	return ok
}

// HasOffenceCode reports whether the offence code is in the catalogue.
func (s *Snapshot) HasOffenceCode(code string) bool {
	_, ok := s.OffenceCodes[code]
	return ok
}

// HasEthnicity reports whether the ethnicity code is in the code list.
func (s *Snapshot) HasEthnicity(code string) bool {
	_, ok := s.Ethnicities[code]
	return ok
}

// HasCustodyStatus reports whether the custody status is recognised.
func (s *Snapshot) HasCustodyStatus(code string) bool {
	_, ok := s.CustodyStatuses[code]
	return ok
}

// HasProsecutor reports whether a prosecutor exists for the OU code.
func (s *Snapshot) HasProsecutor(ouCode string) bool {
	_, ok := s.Prosecutors[ouCode]
	return ok
}

// HasCourtLocation reports whether the court hearing location is recognised.
func (s *Snapshot) HasCourtLocation(code string) bool {
	_, ok := s.CourtLocations[code]
	return ok
}

// Source provides reference-data snapshots. Implementations must treat the
// returned snapshot as read-only after handing it out. A failed or timed-out
// fetch is reported as an error; the validation engine degrades it to
// lookup-unavailable problems rather than failing the pass.
type Source interface {
	Snapshot(ctx context.Context) (*Snapshot, error)
}
