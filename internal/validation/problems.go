package validation

import "fmt"

// Category locates a problem within the case aggregate.
type Category string

const (
	CategoryCase       Category = "CASE"
	CategoryCaseMarker Category = "CASE_MARKER"
	CategoryDefendant  Category = "DEFENDANT"
	CategoryOffence    Category = "OFFENCE"
)

// Code is a validation problem code. The catalogue is closed and versioned:
// every code the engine can emit is registered below, and emitting an
// unregistered code is a programming defect, not a validation outcome.
type Code string

const (
	// Case-identity rules
	CodeURNMissing                    Code = "URN_MISSING"
	CodeURNInvalidFormat              Code = "URN_INVALID_FORMAT"
	CodeInitiationCodeMissing         Code = "INITIATION_CODE_MISSING"
	CodeInitiationCodeNotRecognised   Code = "INITIATION_CODE_NOT_RECOGNISED"
	CodeProsecutorOUCodeMissing       Code = "PROSECUTOR_OUCODE_MISSING"
	CodeProsecutorOUCodeNotRecognised Code = "PROSECUTOR_OUCODE_NOT_RECOGNISED"
	CodeOUCodeNotRecognised           Code = "OUCODE_NOT_RECOGNISED"
	CodeNoDefendants                  Code = "NO_DEFENDANTS"
	CodeLookupUnavailable             Code = "REFERENCE_DATA_LOOKUP_UNAVAILABLE"

	// Case-marker rules
	CodeMarkerTypeNotRecognised Code = "MARKER_TYPE_NOT_RECOGNISED"
	CodeMarkerValueMissing      Code = "MARKER_VALUE_MISSING"

	// Defendant rules
	CodeDefendantReferenceMissing   Code = "DEFENDANT_REFERENCE_MISSING"
	CodeDefendantNameMissing        Code = "DEFENDANT_NAME_MISSING"
	CodeDefendantDOBMissing         Code = "DEFENDANT_DOB_MISSING"
	CodeDefendantDOBInFuture        Code = "DEFENDANT_DOB_IN_FUTURE"
	CodeCustodyStatusNotRecognised  Code = "CUSTODY_STATUS_NOT_RECOGNISED"
	CodeEthnicityNotRecognised      Code = "ETHNICITY_NOT_RECOGNISED"
	CodeNoOffences                  Code = "NO_OFFENCES"
	CodeDefendantAlreadyInProgress  Code = "DEFENDANT_APPLICATION_ALREADY_IN_PROGRESS"

	// Offence rules
	CodeOffenceCodeMissing           Code = "OFFENCE_CODE_MISSING"
	CodeOffenceCodeNotRecognised     Code = "OFFENCE_CODE_NOT_RECOGNISED"
	CodeCommittedDateMissing         Code = "COMMITTED_DATE_MISSING"
	CodeCommittedDateInFuture        Code = "COMMITTED_DATE_IN_FUTURE"
	CodeArrestBeforeCommitted        Code = "ARREST_DATE_BEFORE_COMMITTED_DATE"
	CodeModeOfTrialInvalid           Code = "MODE_OF_TRIAL_INVALID_FOR_OFFENCE"
	CodeHearingLocationNotRecognised Code = "HEARING_LOCATION_NOT_RECOGNISED"
	CodeHearingDateInPast            Code = "HEARING_DATE_IN_PAST"
)

// catalogue maps every emittable code to its category and human-readable
// description. This is the single registration point for the closed set.
var catalogue = map[Code]struct {
	Category    Category
	Description string
}{
	CodeURNMissing:                    {CategoryCase, "unique reference number is missing"},
	CodeURNInvalidFormat:              {CategoryCase, "unique reference number format is invalid"},
	CodeInitiationCodeMissing:         {CategoryCase, "initiation code is missing"},
	CodeInitiationCodeNotRecognised:   {CategoryCase, "initiation code is not recognised"},
	CodeProsecutorOUCodeMissing:       {CategoryCase, "prosecutor OU code is missing"},
	CodeProsecutorOUCodeNotRecognised: {CategoryCase, "prosecutor OU code is not recognised"},
	CodeOUCodeNotRecognised:           {CategoryCase, "organisation unit code is not recognised"},
	CodeNoDefendants:                  {CategoryCase, "case has no defendants"},
	CodeLookupUnavailable:             {CategoryCase, "reference data could not be fetched; lookup rules not evaluated"},

	CodeMarkerTypeNotRecognised: {CategoryCaseMarker, "case marker type is not recognised"},
	CodeMarkerValueMissing:      {CategoryCaseMarker, "case marker value is missing"},

	CodeDefendantReferenceMissing:  {CategoryDefendant, "defendant reference is missing"},
	CodeDefendantNameMissing:       {CategoryDefendant, "defendant has neither a person name nor an organisation name"},
	CodeDefendantDOBMissing:        {CategoryDefendant, "defendant date of birth is missing"},
	CodeDefendantDOBInFuture:       {CategoryDefendant, "defendant date of birth is in the future"},
	CodeCustodyStatusNotRecognised: {CategoryDefendant, "custody status is not recognised"},
	CodeEthnicityNotRecognised:     {CategoryDefendant, "ethnicity code is not recognised"},
	CodeNoOffences:                 {CategoryDefendant, "defendant has no offences"},
	CodeDefendantAlreadyInProgress: {CategoryDefendant, "a summons application for this defendant is already in progress"},

	CodeOffenceCodeMissing:           {CategoryOffence, "offence code is missing"},
	CodeOffenceCodeNotRecognised:     {CategoryOffence, "offence code is not in the catalogue"},
	CodeCommittedDateMissing:         {CategoryOffence, "offence committed date is missing"},
	CodeCommittedDateInFuture:        {CategoryOffence, "offence committed date is in the future"},
	CodeArrestBeforeCommitted:        {CategoryOffence, "arrest date precedes committed date"},
	CodeModeOfTrialInvalid:           {CategoryOffence, "mode of trial is not permitted for this offence"},
	CodeHearingLocationNotRecognised: {CategoryOffence, "court hearing location is not recognised"},
	CodeHearingDateInPast:            {CategoryOffence, "court hearing date is in the past"},
}

// KnownCode reports whether code is registered in the catalogue.
func KnownCode(code Code) bool {
	_, ok := catalogue[code]
	return ok
}

// Describe returns the catalogue description for a code; empty for unknown.
func Describe(code Code) string {
	return catalogue[code].Description
}

// Problem is one rule violation, addressable by field path. Version starts at 1
// and is bumped by the lifecycle when the same (category, path, code) recurs
// across a correction cycle, so consumers can tell "still unresolved" from
// "newly raised".
type Problem struct {
	Category Category `json:"category"`
	Code     Code     `json:"code"`
	Path     string   `json:"path"`
	Version  int      `json:"version"`
}

// Key identifies a problem across correction cycles.
func (p Problem) Key() string {
	return string(p.Category) + "|" + string(p.Code) + "|" + p.Path
}

// newProblem registers a problem occurrence. Panics on an unregistered code:
// the catalogue is closed, so emitting an unknown code is an invariant
// violation that must surface immediately, never a validation result.
func newProblem(code Code, path string) Problem {
	entry, ok := catalogue[code]
	if !ok {
		panic(fmt.Sprintf("validation: unregistered problem code %q", code))
	}
	return Problem{Category: entry.Category, Code: code, Path: path, Version: 1}
}
