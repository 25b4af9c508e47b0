package validation

import (
	"slices"

	"caseflow/internal/intake"
)

// runOffenceRules checks code, dates, mode of trial and hearing location for a
// single offence. Ordering within the returned slice follows field order in
// the intake so output stays stable.
func runOffenceRules(rc ruleContext, o intake.OffenceIntake, path string) []Problem {
	var out []Problem

	switch {
	case o.Code == "":
		out = append(out, newProblem(CodeOffenceCodeMissing, path+".code"))
	case rc.lookupAvailable() && !rc.snapshot.HasOffenceCode(o.Code):
		out = append(out, newProblem(CodeOffenceCodeNotRecognised, path+".code"))
	}

	switch {
	case o.CommittedDate == nil:
		out = append(out, newProblem(CodeCommittedDateMissing, path+".committedDate"))
	case o.CommittedDate.After(rc.now):
		out = append(out, newProblem(CodeCommittedDateInFuture, path+".committedDate"))
	}

	if o.ArrestDate != nil && o.CommittedDate != nil && o.ArrestDate.Before(*o.CommittedDate) {
		out = append(out, newProblem(CodeArrestBeforeCommitted, path+".arrestDate"))
	}

	if rc.lookupAvailable() && o.ModeOfTrial != "" {
		if entry, ok := rc.snapshot.OffenceCodes[o.Code]; ok {
			if !slices.Contains(entry.ModeOfTrials, o.ModeOfTrial) {
				out = append(out, newProblem(CodeModeOfTrialInvalid, path+".modeOfTrial"))
			}
		}
	}

	if rc.lookupAvailable() && o.CourtHearingLocation != "" {
		if !rc.snapshot.HasCourtLocation(o.CourtHearingLocation) {
			out = append(out, newProblem(CodeHearingLocationNotRecognised, path+".courtHearingLocation"))
		}
	}

	if o.HearingDate != nil && o.HearingDate.Before(rc.now) {
		out = append(out, newProblem(CodeHearingDateInPast, path+".hearingDate"))
	}

	return out
}
