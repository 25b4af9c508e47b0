package validation

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"caseflow/internal/intake"
	"caseflow/internal/refdata"
)

// Result is the structured outcome of one validation pass. Slices are
// index-aligned with the intake: Defendants[i] corresponds to
// intake.Defendants[i], and Defendants[i].Offences[j] to its j-th offence.
type Result struct {
	Case       []Problem
	Defendants []DefendantResult
}

type DefendantResult struct {
	Problems []Problem
	Offences [][]Problem
}

// HasProblems reports whether any rule fired anywhere in the tree.
func (r Result) HasProblems() bool {
	if len(r.Case) > 0 {
		return true
	}
	for _, d := range r.Defendants {
		if len(d.Problems) > 0 {
			return true
		}
		for _, o := range d.Offences {
			if len(o) > 0 {
				return true
			}
		}
	}
	return false
}

// Flatten returns every problem in deterministic engine order: case problems
// first, then per-defendant problems, then that defendant's offence problems.
func (r Result) Flatten() []Problem {
	var out []Problem
	out = append(out, r.Case...)
	for _, d := range r.Defendants {
		out = append(out, d.Problems...)
		for _, o := range d.Offences {
			out = append(out, o...)
		}
	}
	return out
}

// ruleContext is the read-only environment a rule sees. Snapshot is captured
// once per pass and may be nil when the lookup failed; lookup rules must no-op
// then (the engine has already recorded CodeLookupUnavailable).
type ruleContext struct {
	snapshot *refdata.Snapshot
	now      time.Time
}

func (rc ruleContext) lookupAvailable() bool { return rc.snapshot != nil }

// Engine runs the ordered rule groups over a canonical intake. It is stateless
// across invocations and safe for concurrent use.
type Engine struct {
	source        refdata.Source
	lookupTimeout time.Duration
	logger        *slog.Logger
}

type Option func(*Engine)

func WithLookupTimeout(d time.Duration) Option {
	return func(e *Engine) { e.lookupTimeout = d }
}

func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

func NewEngine(source refdata.Source, opts ...Option) (*Engine, error) {
	if source == nil {
		return nil, fmt.Errorf("reference-data source is required")
	}
	e := &Engine{
		source:        source,
		lookupTimeout: 3 * time.Second,
		logger:        slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Validate runs every rule group in fixed order and reports all violations in
// one pass. Rules never mutate the intake. Given the same intake, snapshot and
// now, output is identical across runs; now is a parameter precisely so
// date-relative rules stay deterministic.
func (e *Engine) Validate(ctx context.Context, ci intake.CaseIntake, now time.Time) Result {
	rc := ruleContext{now: now}

	lookupCtx, cancel := context.WithTimeout(ctx, e.lookupTimeout)
	defer cancel()
	snapshot, err := e.source.Snapshot(lookupCtx)
	if err != nil {
		// A lookup miss is a validation problem, not a system failure; the
		// pass continues with lookup rules disabled.
		e.logger.Warn("reference data unavailable, degrading validation pass",
			"urn", ci.URN, "error", err)
	} else {
		rc.snapshot = snapshot
	}

	var result Result

	// Group order is fixed: case identity, case markers, defendant identity,
	// defendant demographics, offences. Output ordering is part of the
	// engine's contract.
	result.Case = append(result.Case, runCaseIdentityRules(rc, ci)...)
	if !rc.lookupAvailable() {
		result.Case = append(result.Case, newProblem(CodeLookupUnavailable, "case"))
	}
	result.Case = append(result.Case, runCaseMarkerRules(rc, ci)...)

	for di, d := range ci.Defendants {
		dr := DefendantResult{}
		dPath := fmt.Sprintf("defendants[%d]", di)
		dr.Problems = append(dr.Problems, runDefendantIdentityRules(rc, d, dPath)...)
		dr.Problems = append(dr.Problems, runDefendantDemographicRules(rc, d, dPath)...)

		for oi, o := range d.Offences {
			oPath := fmt.Sprintf("%s.offences[%d]", dPath, oi)
			dr.Offences = append(dr.Offences, runOffenceRules(rc, o, oPath))
		}
		result.Defendants = append(result.Defendants, dr)
	}

	return result
}
