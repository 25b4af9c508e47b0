package lifecycle

import (
	"fmt"

	dErrors "caseflow/pkg/domain-errors"
	"caseflow/pkg/platform/sentinel"

	"caseflow/internal/intake"
	"caseflow/internal/resolver"
	"caseflow/internal/validation"
	"caseflow/pkg/domain"
)

// Apply is the transition function: total, and side-effect-free except for the
// returned events. The caller persists the returned case and dispatches the
// events atomically together. Apply never mutates the input case.
//
// current is nil for a command targeting a URN with no prior case; only
// ReceiveCase may create one.
func Apply(current *Case, cmd Command) (*Case, []Event, error) {
	version := int64(0)
	if current != nil {
		version = current.Version
	}
	if cmd.expectedVersion() != version {
		return nil, nil, fmt.Errorf("%s: expected version %d, have %d: %w",
			cmd.commandName(), cmd.expectedVersion(), version, sentinel.ErrVersionConflict)
	}

	if current != nil && current.Status.IsTerminal() {
		// A fresh intake after rejection starts a new attempt on the same
		// URN; everything else is blocked by terminality.
		_, receiving := cmd.(ReceiveCase)
		if !(receiving && current.Status == StatusRejected) {
			return nil, nil, fmt.Errorf("%s: case %s is %s: %w",
				cmd.commandName(), current.ID, current.Status, sentinel.ErrInvalidState)
		}
	}

	switch c := cmd.(type) {
	case ReceiveCase:
		return applyReceive(current, c)
	case CorrectErrors:
		return applyCorrection(current, c)
	case RejectCase:
		return applyReject(current, c)
	case InitiateCase:
		return applyInitiate(current, c)
	case SubmitPlea:
		return applyPlea(current, c)
	case FilterCase:
		return applyFilter(current, c)
	default:
		return nil, nil, dErrors.New(dErrors.CodeInternal, fmt.Sprintf("unknown command %T", cmd))
	}
}

func applyReceive(current *Case, cmd ReceiveCase) (*Case, []Event, error) {
	if len(cmd.Decisions) != len(cmd.Intake.Defendants) {
		return nil, nil, dErrors.New(dErrors.CodeInternal, "resolver decisions not aligned with intake defendants")
	}
	if len(cmd.Validation.Defendants) != len(cmd.Intake.Defendants) {
		return nil, nil, dErrors.New(dErrors.CodeInternal, "validation result not aligned with intake defendants")
	}

	accepted, rejected, ignored := 0, 0, 0
	for _, d := range cmd.Decisions {
		switch d.Outcome {
		case resolver.OutcomeAccept:
			accepted++
		case resolver.OutcomeReject:
			rejected++
		case resolver.OutcomeDuplicateIgnore, resolver.OutcomeMerge:
			ignored++
		}
	}

	// An intake fully absorbed as cross-channel duplicates produces no
	// progression and no error on an existing case.
	if current != nil && accepted == 0 && rejected == 0 && ignored > 0 {
		return current, nil, nil
	}

	next := buildCase(current, cmd)
	next.Version = cmd.expectedVersion() + 1
	next.UpdatedAt = cmd.Now

	var events []Event

	switch {
	case cmd.Validation.HasProblems():
		next.Status = StatusValidationFailed
		events = validationFailureEvents(next, cmd.Intake)

	case accepted == 0 && rejected > 0:
		next.Status = StatusRejected
		events = append(events, Event{
			Type:       EventProsecutionRejected,
			CaseID:     next.ID,
			URN:        next.URN,
			Reasons:    rejectionReasons(next),
			OccurredAt: cmd.Now,
		})

	default:
		next.Status = StatusReceived
		events = append(events, Event{
			Type:          EventCaseReceived,
			CaseID:        next.ID,
			URN:           next.URN,
			CorrelationID: next.CorrelationID,
			CaseType:      next.CaseType,
			CourtLocation: next.CourtLocation,
			OccurredAt:    cmd.Now,
		})
		if next.Channel == intake.ChannelManual {
			events = append(events, Event{
				Type:       EventManualCaseReceived,
				CaseID:     next.ID,
				URN:        next.URN,
				OccurredAt: cmd.Now,
			})
		}
		// Rejected siblings still get their failure reported even when the
		// case itself progresses.
		events = append(events, defendantFailureEvents(next, cmd.Intake)...)
	}

	return next, events, nil
}

// buildCase constructs the next aggregate from the intake, validation result
// and resolver decisions, carrying problem versions forward from the previous
// cycle when the same problem recurs.
func buildCase(current *Case, cmd ReceiveCase) *Case {
	next := &Case{
		URN:           cmd.Intake.URN,
		Channel:       cmd.Intake.Channel,
		CorrelationID: cmd.Intake.CorrelationID,
		CaseType:      cmd.Intake.CaseType,
		CourtLocation: firstHearingLocation(cmd.Intake),
		Intake:        cmd.Intake,
		CreatedAt:     cmd.Now,
	}
	if current != nil {
		next.ID = current.ID
		next.CreatedAt = current.CreatedAt
	} else {
		next.ID = domain.NewCaseID()
	}

	prior := map[string]int{}
	if current != nil {
		for _, p := range current.OutstandingProblems() {
			prior[p.Key()] = p.Version
		}
	}

	next.Problems = bumpRecurring(cmd.Validation.Case, prior)

	for i, di := range cmd.Intake.Defendants {
		decision := cmd.Decisions[i]
		def := Defendant{
			ID:        domain.NewDefendantID(),
			Reference: di.Reference,
			DedupKey:  decision.DedupKey,
			Status:    defendantStatus(decision.Outcome),
		}
		if current != nil {
			if existing := current.defendantByDedupKey(decision.DedupKey); existing != nil {
				def.ID = existing.ID
			}
		}

		problems := cmd.Validation.Defendants[i].Problems
		if decision.Problem != nil {
			problems = append(append([]validation.Problem{}, problems...), *decision.Problem)
		}
		def.Problems = bumpRecurring(problems, prior)

		for j, oi := range di.Offences {
			off := Offence{
				ID:            domain.NewOffenceID(),
				Code:          oi.Code,
				CommittedDate: oi.CommittedDate,
			}
			if j < len(cmd.Validation.Defendants[i].Offences) {
				off.Problems = bumpRecurring(cmd.Validation.Defendants[i].Offences[j], prior)
			}
			def.Offences = append(def.Offences, off)
		}
		next.Defendants = append(next.Defendants, def)
	}

	return next
}

func applyCorrection(current *Case, cmd CorrectErrors) (*Case, []Event, error) {
	if current == nil {
		return nil, nil, sentinel.ErrNotFound
	}
	if current.Status != StatusValidationFailed {
		return nil, nil, fmt.Errorf("resolve-case-errors: case %s is %s: %w",
			current.ID, current.Status, sentinel.ErrInvalidState)
	}

	next := cloneCase(current)
	next.Version++
	next.UpdatedAt = cmd.Now
	next.Intake = cmd.Merged

	prior := map[string]int{}
	for _, p := range current.OutstandingProblems() {
		prior[p.Key()] = p.Version
	}

	if !cmd.Validation.HasProblems() {
		next.Status = StatusResolved
		next.Problems = nil
		for i := range next.Defendants {
			next.Defendants[i].Problems = nil
			for j := range next.Defendants[i].Offences {
				next.Defendants[i].Offences[j].Problems = nil
			}
		}
		return next, []Event{{
			Type:       EventResolvedCase,
			CaseID:     next.ID,
			URN:        next.URN,
			OccurredAt: cmd.Now,
		}}, nil
	}

	// Still failing: only the remaining problems are carried and reported;
	// resolved ones disappear from subsequent error reports.
	next.Status = StatusValidationFailed
	next.Problems = bumpRecurring(cmd.Validation.Case, prior)
	for i := range next.Defendants {
		if i < len(cmd.Validation.Defendants) {
			next.Defendants[i].Problems = bumpRecurring(cmd.Validation.Defendants[i].Problems, prior)
			for j := range next.Defendants[i].Offences {
				if j < len(cmd.Validation.Defendants[i].Offences) {
					next.Defendants[i].Offences[j].Problems = bumpRecurring(cmd.Validation.Defendants[i].Offences[j], prior)
				}
			}
		}
	}

	return next, validationFailureEvents(next, cmd.Merged), nil
}

func applyReject(current *Case, cmd RejectCase) (*Case, []Event, error) {
	if current == nil {
		return nil, nil, sentinel.ErrNotFound
	}
	next := cloneCase(current)
	next.Status = StatusRejected
	next.Version++
	next.UpdatedAt = cmd.Now

	return next, []Event{{
		Type:       EventProsecutionRejected,
		CaseID:     next.ID,
		URN:        next.URN,
		Reasons:    cmd.Reasons,
		OccurredAt: cmd.Now,
	}}, nil
}

func applyInitiate(current *Case, cmd InitiateCase) (*Case, []Event, error) {
	if current == nil {
		return nil, nil, sentinel.ErrNotFound
	}
	if !current.Status.CanTransitionTo(StatusInitiated) {
		return nil, nil, fmt.Errorf("initiate-case: case %s is %s: %w",
			current.ID, current.Status, sentinel.ErrInvalidState)
	}
	next := cloneCase(current)
	next.Status = StatusInitiated
	next.Version++
	next.UpdatedAt = cmd.Now

	return next, []Event{{
		Type:       EventCaseInitiated,
		CaseID:     next.ID,
		URN:        next.URN,
		OccurredAt: cmd.Now,
	}}, nil
}

func applyPlea(current *Case, cmd SubmitPlea) (*Case, []Event, error) {
	if current == nil {
		return nil, nil, sentinel.ErrNotFound
	}
	found := false
	for _, d := range current.Defendants {
		if d.ID == cmd.DefendantID {
			found = true
			break
		}
	}
	if !found {
		return nil, nil, fmt.Errorf("plead-online: defendant %s not on case %s: %w",
			cmd.DefendantID, current.ID, sentinel.ErrNotFound)
	}

	next := cloneCase(current)
	next.Version++
	next.UpdatedAt = cmd.Now

	events := []Event{{
		Type:        EventOnlinePleaSubmitted,
		CaseID:      next.ID,
		DefendantID: cmd.DefendantID,
		Plea:        cmd.Plea,
		Device:      cmd.DeviceName,
		OccurredAt:  cmd.Now,
	}}
	if cmd.PcqVisitID != "" {
		events = append(events, Event{
			Type:        EventPcqVisitedSubmitted,
			CaseID:      next.ID,
			DefendantID: cmd.DefendantID,
			PcqVisitID:  cmd.PcqVisitID,
			OccurredAt:  cmd.Now,
		})
	}
	return next, events, nil
}

func applyFilter(current *Case, cmd FilterCase) (*Case, []Event, error) {
	if current == nil {
		return nil, nil, sentinel.ErrNotFound
	}
	next := cloneCase(current)
	next.Version++
	next.UpdatedAt = cmd.Now

	return next, []Event{{
		Type:       EventCaseFiltered,
		CaseID:     next.ID,
		URN:        next.URN,
		OccurredAt: cmd.Now,
	}}, nil
}

// validationFailureEvents emits CaseValidationFailed for case-level problems
// and one DefendantValidationFailed per defendant carrying problems.
func validationFailureEvents(c *Case, ci intake.CaseIntake) []Event {
	var events []Event
	if len(c.Problems) > 0 {
		events = append(events, Event{
			Type:          EventCaseValidationFailed,
			CaseID:        c.ID,
			URN:           c.URN,
			CaseType:      c.CaseType,
			CourtLocation: c.CourtLocation,
			Problems:      c.Problems,
			OccurredAt:    c.UpdatedAt,
		})
	}
	events = append(events, defendantFailureEvents(c, ci)...)
	return events
}

func defendantFailureEvents(c *Case, ci intake.CaseIntake) []Event {
	var events []Event
	for i, d := range c.Defendants {
		problems := append([]validation.Problem{}, d.Problems...)
		for _, o := range d.Offences {
			problems = append(problems, o.Problems...)
		}
		if len(problems) == 0 {
			continue
		}
		ev := Event{
			Type:          EventDefendantValidationFailed,
			CaseID:        c.ID,
			DefendantID:   d.ID,
			URN:           c.URN,
			CaseType:      c.CaseType,
			CourtLocation: c.CourtLocation,
			Problems:      problems,
			OccurredAt:    c.UpdatedAt,
		}
		if i < len(ci.Defendants) {
			ev.PoliceSystemID = ci.Defendants[i].Reference
		}
		events = append(events, ev)
	}
	return events
}

func rejectionReasons(c *Case) []string {
	var reasons []string
	for _, d := range c.Defendants {
		for _, p := range d.Problems {
			reasons = append(reasons, string(p.Code))
		}
	}
	return reasons
}

func defendantStatus(o resolver.Outcome) DefendantStatus {
	switch o {
	case resolver.OutcomeAccept:
		return DefendantNew
	case resolver.OutcomeDuplicateIgnore:
		return DefendantDuplicateIgnored
	case resolver.OutcomeMerge:
		return DefendantMerged
	default:
		return DefendantRejected
	}
}

// bumpRecurring assigns version tokens: a problem whose (category, path, code)
// key was already outstanding carries the prior version plus one, so consumers
// can tell "still unresolved" from "newly raised".
func bumpRecurring(problems []validation.Problem, prior map[string]int) []validation.Problem {
	if len(problems) == 0 {
		return nil
	}
	out := make([]validation.Problem, len(problems))
	for i, p := range problems {
		if v, ok := prior[p.Key()]; ok {
			p.Version = v + 1
		}
		out[i] = p
	}
	return out
}

func firstHearingLocation(ci intake.CaseIntake) string {
	for _, d := range ci.Defendants {
		for _, o := range d.Offences {
			if o.CourtHearingLocation != "" {
				return o.CourtHearingLocation
			}
		}
	}
	return ""
}

func (c *Case) defendantByDedupKey(key string) *Defendant {
	for i := range c.Defendants {
		if c.Defendants[i].DedupKey == key {
			return &c.Defendants[i]
		}
	}
	return nil
}

// cloneCase deep-copies the aggregate so Apply never aliases caller state.
func cloneCase(c *Case) *Case {
	next := *c
	next.Defendants = make([]Defendant, len(c.Defendants))
	for i, d := range c.Defendants {
		nd := d
		nd.Problems = append([]validation.Problem(nil), d.Problems...)
		nd.Offences = make([]Offence, len(d.Offences))
		for j, o := range d.Offences {
			no := o
			no.Problems = append([]validation.Problem(nil), o.Problems...)
			nd.Offences[j] = no
		}
		next.Defendants[i] = nd
	}
	next.Problems = append([]validation.Problem(nil), c.Problems...)
	return &next
}
