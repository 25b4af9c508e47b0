package intake

import "time"

// Channel identifies the originating system of a submission. The engine treats
// CaseIntake as a tagged union: the channel tag selects the normalization
// function, and everything downstream operates only on the canonical form.
type Channel string

const (
	ChannelPoliceFeed         Channel = "POLICE_FEED"
	ChannelManual             Channel = "MANUAL"
	ChannelOnlinePlea         Channel = "ONLINE_PLEA"
	ChannelApplicationOutcome Channel = "APPLICATION_OUTCOME"
	ChannelBulkScanMaterial   Channel = "BULK_SCAN_MATERIAL"
)

func (c Channel) IsValid() bool {
	switch c {
	case ChannelPoliceFeed, ChannelManual, ChannelOnlinePlea,
		ChannelApplicationOutcome, ChannelBulkScanMaterial:
		return true
	}
	return false
}

// CaseIntake is the canonical form of one submission. Immutable once
// constructed; produced exactly once per inbound command.
type CaseIntake struct {
	Channel          Channel
	URN              string
	CorrelationID    string
	InitiationCode   string
	ProsecutorOUCode string
	CaseType         string
	Defendants       []DefendantIntake
	Markers          []CaseMarker
	ReceivedAt       time.Time
}

// DefendantIntake is owned exclusively by its parent CaseIntake. Reference is
// channel-scoped, not globally unique; cross-channel identity is established by
// the resolver's dedup key, never by Reference alone.
type DefendantIntake struct {
	Reference            string
	Title                string
	FirstName            string
	LastName             string
	OrganisationName     string
	DateOfBirth          *time.Time
	CustodyStatus        string
	ObservedEthnicity    string
	SelfDefinedEthnicity string
	Offences             []OffenceIntake
}

// IsOrganisation reports whether this defendant is a corporate entity rather
// than a person. Person and organisation submissions carry disjoint identity
// fields and are validated by different rules.
func (d DefendantIntake) IsOrganisation() bool {
	return d.OrganisationName != ""
}

// OffenceIntake is owned exclusively by its parent defendant.
type OffenceIntake struct {
	Code                 string
	ArrestDate           *time.Time
	CommittedDate        *time.Time
	ModeOfTrial          string
	CourtHearingLocation string
	HearingDate          *time.Time
}

// CaseMarker flags case-level conditions (e.g. welsh-language, youth).
type CaseMarker struct {
	Type  string
	Value string
}
