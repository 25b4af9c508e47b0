package validation

import "caseflow/internal/intake"

// runDefendantIdentityRules checks reference, name presence and offence count.
func runDefendantIdentityRules(_ ruleContext, d intake.DefendantIntake, path string) []Problem {
	var out []Problem

	if d.Reference == "" {
		out = append(out, newProblem(CodeDefendantReferenceMissing, path+".reference"))
	}

	if !d.IsOrganisation() && (d.FirstName == "" || d.LastName == "") {
		out = append(out, newProblem(CodeDefendantNameMissing, path+".name"))
	}

	if len(d.Offences) == 0 {
		out = append(out, newProblem(CodeNoOffences, path+".offences"))
	}

	return out
}

// runDefendantDemographicRules checks date of birth, custody status and
// ethnicity codes. Organisations carry no demographics, so person rules are
// skipped for them.
func runDefendantDemographicRules(rc ruleContext, d intake.DefendantIntake, path string) []Problem {
	var out []Problem

	if !d.IsOrganisation() {
		switch {
		case d.DateOfBirth == nil:
			out = append(out, newProblem(CodeDefendantDOBMissing, path+".dateOfBirth"))
		case d.DateOfBirth.After(rc.now):
			out = append(out, newProblem(CodeDefendantDOBInFuture, path+".dateOfBirth"))
		}
	}

	if rc.lookupAvailable() {
		if d.CustodyStatus != "" && !rc.snapshot.HasCustodyStatus(d.CustodyStatus) {
			out = append(out, newProblem(CodeCustodyStatusNotRecognised, path+".custodyStatus"))
		}
		if d.ObservedEthnicity != "" && !rc.snapshot.HasEthnicity(d.ObservedEthnicity) {
			out = append(out, newProblem(CodeEthnicityNotRecognised, path+".observedEthnicity"))
		}
		if d.SelfDefinedEthnicity != "" && !rc.snapshot.HasEthnicity(d.SelfDefinedEthnicity) {
			out = append(out, newProblem(CodeEthnicityNotRecognised, path+".selfDefinedEthnicity"))
		}
	}

	return out
}
