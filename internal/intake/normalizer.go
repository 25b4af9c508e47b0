package intake

import (
	"strings"
	"time"

	dErrors "caseflow/pkg/domain-errors"
)

// Submission is the already-deserialized payload of an inbound command before
// normalization. Each channel populates a different subset of fields; the
// normalizer maps all of them onto one canonical CaseIntake. No business
// validation happens here - structurally broken values pass through so the rule
// engine can report them with proper problem codes.
type Submission struct {
	Channel          Channel
	URN              string
	CorrelationID    string
	InitiationCode   string
	ProsecutorOUCode string
	CaseType         string
	Defendants       []DefendantSubmission
	Markers          []MarkerSubmission
}

type DefendantSubmission struct {
	Reference            string
	Title                string
	FirstName            string
	LastName             string
	OrganisationName     string
	DateOfBirth          string
	CustodyStatus        string
	ObservedEthnicity    string
	SelfDefinedEthnicity string
	Offences             []OffenceSubmission
}

type OffenceSubmission struct {
	Code                 string
	ArrestDate           string
	CommittedDate        string
	ModeOfTrial          string
	CourtHearingLocation string
	HearingDate          string
}

type MarkerSubmission struct {
	Type  string
	Value string
}

// dateLayouts covers the formats the channels are known to emit. The police
// feed uses RFC3339, manual entry and bulk scan use bare dates.
var dateLayouts = []string{time.RFC3339, "2006-01-02", "02/01/2006"}

// Normalize maps a channel submission to the canonical CaseIntake. The only
// error condition is an unrecognized channel tag; everything else - missing
// names, unparseable dates, unknown codes - is preserved for the validation
// engine to report.
func Normalize(sub Submission, receivedAt time.Time) (CaseIntake, error) {
	if !sub.Channel.IsValid() {
		return CaseIntake{}, dErrors.New(dErrors.CodeInvalidInput, "unrecognized channel: "+string(sub.Channel))
	}

	ci := CaseIntake{
		Channel:          sub.Channel,
		URN:              normalizeURN(sub.URN),
		CorrelationID:    strings.TrimSpace(sub.CorrelationID),
		InitiationCode:   strings.ToUpper(strings.TrimSpace(sub.InitiationCode)),
		ProsecutorOUCode: strings.ToUpper(strings.TrimSpace(sub.ProsecutorOUCode)),
		CaseType:         normalizeCaseType(sub),
		ReceivedAt:       receivedAt,
	}

	ci.Markers = NormalizeMarkers(sub.Markers)
	ci.Defendants = NormalizeDefendants(sub.Channel, sub.Defendants)

	return ci, nil
}

// NormalizeMarkers maps raw marker submissions to canonical case markers.
func NormalizeMarkers(ms []MarkerSubmission) []CaseMarker {
	var out []CaseMarker
	for _, m := range ms {
		out = append(out, CaseMarker{
			Type:  strings.ToUpper(strings.TrimSpace(m.Type)),
			Value: strings.TrimSpace(m.Value),
		})
	}
	return out
}

// NormalizeDefendants maps raw defendant submissions to canonical defendants,
// applying the channel's reference conventions.
func NormalizeDefendants(ch Channel, ds []DefendantSubmission) []DefendantIntake {
	var out []DefendantIntake
	for _, d := range ds {
		out = append(out, normalizeDefendant(ch, d))
	}
	return out
}

func normalizeDefendant(ch Channel, d DefendantSubmission) DefendantIntake {
	di := DefendantIntake{
		Reference:            strings.TrimSpace(d.Reference),
		Title:                strings.TrimSpace(d.Title),
		FirstName:            strings.TrimSpace(d.FirstName),
		LastName:             strings.TrimSpace(d.LastName),
		OrganisationName:     strings.TrimSpace(d.OrganisationName),
		DateOfBirth:          parseDate(d.DateOfBirth),
		CustodyStatus:        strings.ToUpper(strings.TrimSpace(d.CustodyStatus)),
		ObservedEthnicity:    strings.ToUpper(strings.TrimSpace(d.ObservedEthnicity)),
		SelfDefinedEthnicity: strings.ToUpper(strings.TrimSpace(d.SelfDefinedEthnicity)),
	}

	// The police feed prefixes defendant references with the force code; the
	// canonical form strips it so references compare across resubmissions.
	if ch == ChannelPoliceFeed {
		if idx := strings.IndexByte(di.Reference, '/'); idx > 0 {
			di.Reference = di.Reference[idx+1:]
		}
	}

	for _, o := range d.Offences {
		di.Offences = append(di.Offences, OffenceIntake{
			Code:                 strings.ToUpper(strings.TrimSpace(o.Code)),
			ArrestDate:           parseDate(o.ArrestDate),
			CommittedDate:        parseDate(o.CommittedDate),
			ModeOfTrial:          strings.ToUpper(strings.TrimSpace(o.ModeOfTrial)),
			CourtHearingLocation: strings.ToUpper(strings.TrimSpace(o.CourtHearingLocation)),
			HearingDate:          parseDate(o.HearingDate),
		})
	}

	return di
}

func normalizeURN(urn string) string {
	return strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(urn), " ", ""))
}

// normalizeCaseType derives the case type from the initiation code when the
// channel does not carry one explicitly. Charge-initiated cases are type "C",
// summons/requisition cases type "R".
func normalizeCaseType(sub Submission) string {
	if ct := strings.ToUpper(strings.TrimSpace(sub.CaseType)); ct != "" {
		return ct
	}
	switch strings.ToUpper(strings.TrimSpace(sub.InitiationCode)) {
	case "C", "J":
		return "C"
	case "S", "Q", "R":
		return "R"
	}
	return ""
}

// parseDate returns nil for empty or unparseable input. Date validity is a
// rule-engine concern, not a normalization failure.
func parseDate(raw string) *time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return &t
		}
	}
	return nil
}
