package resolver

import (
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/blake2b"

	"caseflow/internal/intake"
	"caseflow/internal/validation"
	"caseflow/pkg/domain"
)

// Outcome is the resolver's per-defendant verdict.
type Outcome string

const (
	// OutcomeAccept admits the defendant as new.
	OutcomeAccept Outcome = "ACCEPT"
	// OutcomeDuplicateIgnore silently absorbs a cross-channel duplicate: no
	// case progression for this defendant, but no error either.
	OutcomeDuplicateIgnore Outcome = "DUPLICATE_IGNORE"
	// OutcomeMerge folds an intra-submission duplicate into its earlier
	// sibling.
	OutcomeMerge Outcome = "MERGE"
	// OutcomeReject refuses the defendant with an addressable problem.
	OutcomeReject Outcome = "REJECT"
)

// Decision is the resolver output for one incoming defendant, index-aligned
// with the intake's defendant list. Problem is set only for OutcomeReject.
type Decision struct {
	DefendantIndex int
	DedupKey       string
	Outcome        Outcome
	Problem        *validation.Problem
}

// PriorOutcome is the recorded result of an earlier summons application.
type PriorOutcome string

const (
	PriorApproved PriorOutcome = "APPROVED"
	PriorRejected PriorOutcome = "REJECTED"
)

// SummonsApplicationDecision is retained per dedup key for the lifetime of the
// case so later resubmissions of the same defendant, via the same or a
// different channel, are handled idempotently.
type SummonsApplicationDecision struct {
	DedupKey    string
	DefendantID domain.DefendantID
	Outcome     PriorOutcome
	Channel     intake.Channel
	DecidedAt   time.Time
}

// policeFeedRededupEnabled gates re-dedup of police-feed resubmissions after a
// rejection. The source systems disagree on this pairing; until product
// clarifies, the decision table's rule applies (a rejection clears the way for
// a fresh attempt). Flipping this makes rule 3 treat POLICE_FEED like an
// approval.
const policeFeedRededupEnabled = false

// Resolver applies the cross-channel deduplication policy. Stateless per
// invocation; history is supplied by the caller from the case's decision
// table.
type Resolver struct{}

func New() *Resolver {
	return &Resolver{}
}

// Resolve computes one decision per incoming defendant. Decisions are
// independent: one defendant's Reject never blocks a sibling's Accept.
func (r *Resolver) Resolve(ci intake.CaseIntake, history []SummonsApplicationDecision) []Decision {
	byKey := make(map[string]SummonsApplicationDecision, len(history))
	for _, h := range history {
		byKey[h.DedupKey] = h
	}

	seen := make(map[string]struct{}, len(ci.Defendants))
	decisions := make([]Decision, 0, len(ci.Defendants))

	for i, d := range ci.Defendants {
		key := DedupKey(d)
		decision := Decision{DefendantIndex: i, DedupKey: key}

		if _, dup := seen[key]; dup {
			// Same real-world defendant listed twice in one submission.
			decision.Outcome = OutcomeMerge
			decisions = append(decisions, decision)
			continue
		}
		seen[key] = struct{}{}

		prior, exists := byKey[key]
		switch {
		case !exists:
			decision.Outcome = OutcomeAccept

		case prior.Outcome == PriorRejected && !(policeFeedRededupEnabled && ci.Channel == intake.ChannelPoliceFeed):
			// A submission after a rejection is a fresh attempt, not a
			// duplicate.
			decision.Outcome = OutcomeAccept

		case prior.Channel == ci.Channel:
			// Same channel re-reporting an approved defendant: the
			// application is already in progress.
			decision.Outcome = OutcomeReject
			problem := rejectProblem(i)
			decision.Problem = &problem

		default:
			// Channels race to report the same real-world event; the loser
			// is absorbed without error.
			decision.Outcome = OutcomeDuplicateIgnore
		}

		decisions = append(decisions, decision)
	}

	return decisions
}

func rejectProblem(defendantIndex int) validation.Problem {
	return validation.Problem{
		Category: validation.CategoryDefendant,
		Code:     validation.CodeDefendantAlreadyInProgress,
		Path:     fmt.Sprintf("defendants[%d]", defendantIndex),
		Version:  1,
	}
}

// DedupKey derives the stable identity of a defendant across resubmissions and
// channels: a keyed hash of the normalized reference plus identity fields.
// Keep this stable - persisted decisions are looked up by it.
func DedupKey(d intake.DefendantIntake) string {
	var dob string
	if d.DateOfBirth != nil {
		dob = d.DateOfBirth.Format("2006-01-02")
	}
	parts := []string{
		strings.ToUpper(d.Reference),
		strings.ToUpper(d.LastName),
		strings.ToUpper(d.FirstName),
		strings.ToUpper(d.OrganisationName),
		dob,
	}
	sum := blake2b.Sum256([]byte(strings.Join(parts, "|")))
	return hex.EncodeToString(sum[:16])
}
