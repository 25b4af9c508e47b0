package validation

import (
	"fmt"
	"regexp"

	"caseflow/internal/intake"
)

// URN format: 2-digit force, 2-letter unit, 5-7 digit sequence, 2-digit year.
var urnPattern = regexp.MustCompile(`^[0-9]{2}[A-Z]{2}[0-9]{5,7}/[0-9]{2}$`)

// initiationCodes the engine recognises: C charge, J joint charge, S summons,
// Q requisition, R re-issue.
var initiationCodes = map[string]struct{}{
	"C": {}, "J": {}, "S": {}, "Q": {}, "R": {},
}

// runCaseIdentityRules checks URN, initiation code, prosecutor and OU codes,
// and the presence of defendants.
func runCaseIdentityRules(rc ruleContext, ci intake.CaseIntake) []Problem {
	var out []Problem

	switch {
	case ci.URN == "":
		out = append(out, newProblem(CodeURNMissing, "case.urn"))
	case !urnPattern.MatchString(ci.URN):
		out = append(out, newProblem(CodeURNInvalidFormat, "case.urn"))
	}

	switch {
	case ci.InitiationCode == "":
		out = append(out, newProblem(CodeInitiationCodeMissing, "case.initiationCode"))
	default:
		if _, ok := initiationCodes[ci.InitiationCode]; !ok {
			out = append(out, newProblem(CodeInitiationCodeNotRecognised, "case.initiationCode"))
		}
	}

	if ci.ProsecutorOUCode == "" {
		out = append(out, newProblem(CodeProsecutorOUCodeMissing, "case.prosecutorOUCode"))
	} else if rc.lookupAvailable() {
		if !rc.snapshot.HasOrganisationUnit(ci.ProsecutorOUCode) {
			out = append(out, newProblem(CodeOUCodeNotRecognised, "case.prosecutorOUCode"))
		} else if !rc.snapshot.HasProsecutor(ci.ProsecutorOUCode) {
			out = append(out, newProblem(CodeProsecutorOUCodeNotRecognised, "case.prosecutorOUCode"))
		}
	}

	if len(ci.Defendants) == 0 {
		out = append(out, newProblem(CodeNoDefendants, "case.defendants"))
	}

	return out
}

// markerTypes the engine recognises at case level.
var markerTypes = map[string]struct{}{
	"YOUTH": {}, "WELSH_LANGUAGE": {}, "DOMESTIC_ABUSE": {}, "HATE_CRIME": {}, "INTERPRETER": {},
}

// markersRequiringValue must carry a value (e.g. the interpreter language).
var markersRequiringValue = map[string]struct{}{
	"WELSH_LANGUAGE": {}, "INTERPRETER": {},
}

func runCaseMarkerRules(_ ruleContext, ci intake.CaseIntake) []Problem {
	var out []Problem
	for i, m := range ci.Markers {
		path := fmt.Sprintf("case.markers[%d]", i)
		if _, ok := markerTypes[m.Type]; !ok {
			out = append(out, newProblem(CodeMarkerTypeNotRecognised, path+".type"))
			continue
		}
		if _, needs := markersRequiringValue[m.Type]; needs && m.Value == "" {
			out = append(out, newProblem(CodeMarkerValueMissing, path+".value"))
		}
	}
	return out
}
