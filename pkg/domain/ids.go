package domain

import (
	"github.com/google/uuid"

	dErrors "caseflow/pkg/domain-errors"
)

// Typed IDs prevent accidental cross-assignment between aggregates. A CaseID can
// never be handed to a function expecting a DefendantID without an explicit,
// visible conversion.
type (
	CaseID        uuid.UUID
	DefendantID   uuid.UUID
	OffenceID     uuid.UUID
	ApplicationID uuid.UUID
	GroupID       uuid.UUID
)

func NewCaseID() CaseID               { return CaseID(uuid.New()) }
func NewDefendantID() DefendantID     { return DefendantID(uuid.New()) }
func NewOffenceID() OffenceID         { return OffenceID(uuid.New()) }
func NewApplicationID() ApplicationID { return ApplicationID(uuid.New()) }
func NewGroupID() GroupID             { return GroupID(uuid.New()) }

func (id CaseID) String() string        { return uuid.UUID(id).String() }
func (id DefendantID) String() string   { return uuid.UUID(id).String() }
func (id OffenceID) String() string     { return uuid.UUID(id).String() }
func (id ApplicationID) String() string { return uuid.UUID(id).String() }
func (id GroupID) String() string       { return uuid.UUID(id).String() }

func (id CaseID) IsNil() bool        { return uuid.UUID(id) == uuid.Nil }
func (id DefendantID) IsNil() bool   { return uuid.UUID(id) == uuid.Nil }
func (id OffenceID) IsNil() bool     { return uuid.UUID(id) == uuid.Nil }
func (id ApplicationID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id GroupID) IsNil() bool       { return uuid.UUID(id) == uuid.Nil }

// Text marshalling keeps IDs as canonical UUID strings in JSON payloads
// (events, persisted aggregates) instead of raw byte arrays.
func (id CaseID) MarshalText() ([]byte, error)        { return marshalID(uuid.UUID(id)) }
func (id DefendantID) MarshalText() ([]byte, error)   { return marshalID(uuid.UUID(id)) }
func (id OffenceID) MarshalText() ([]byte, error)     { return marshalID(uuid.UUID(id)) }
func (id ApplicationID) MarshalText() ([]byte, error) { return marshalID(uuid.UUID(id)) }
func (id GroupID) MarshalText() ([]byte, error)       { return marshalID(uuid.UUID(id)) }

func (id *CaseID) UnmarshalText(b []byte) error {
	u, err := unmarshalID(b)
	*id = CaseID(u)
	return err
}

func (id *DefendantID) UnmarshalText(b []byte) error {
	u, err := unmarshalID(b)
	*id = DefendantID(u)
	return err
}

func (id *OffenceID) UnmarshalText(b []byte) error {
	u, err := unmarshalID(b)
	*id = OffenceID(u)
	return err
}

func (id *ApplicationID) UnmarshalText(b []byte) error {
	u, err := unmarshalID(b)
	*id = ApplicationID(u)
	return err
}

func (id *GroupID) UnmarshalText(b []byte) error {
	u, err := unmarshalID(b)
	*id = GroupID(u)
	return err
}

func marshalID(u uuid.UUID) ([]byte, error) {
	return []byte(u.String()), nil
}

func unmarshalID(b []byte) (uuid.UUID, error) {
	if len(b) == 0 {
		return uuid.Nil, nil
	}
	return uuid.Parse(string(b))
}

// parseUUID enforces the shared invariant: IDs must be valid, non-empty,
// non-nil UUIDs. All Parse helpers funnel through here so trust-boundary
// behavior stays uniform.
func parseUUID(raw, kind string) (uuid.UUID, error) {
	if raw == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, kind+" is required")
	}
	parsed, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, dErrors.Wrap(err, dErrors.CodeInvalidInput, "invalid "+kind)
	}
	if parsed == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, kind+" must not be nil")
	}
	return parsed, nil
}

func ParseCaseID(raw string) (CaseID, error) {
	u, err := parseUUID(raw, "case_id")
	return CaseID(u), err
}

func ParseDefendantID(raw string) (DefendantID, error) {
	u, err := parseUUID(raw, "defendant_id")
	return DefendantID(u), err
}

func ParseOffenceID(raw string) (OffenceID, error) {
	u, err := parseUUID(raw, "offence_id")
	return OffenceID(u), err
}

func ParseApplicationID(raw string) (ApplicationID, error) {
	u, err := parseUUID(raw, "application_id")
	return ApplicationID(u), err
}

func ParseGroupID(raw string) (GroupID, error) {
	u, err := parseUUID(raw, "group_id")
	return GroupID(u), err
}
