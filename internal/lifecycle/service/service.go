// Package service orchestrates case submission handling: normalize, validate,
// resolve duplicates, apply the lifecycle transition, then persist the case
// and dispatch its events atomically.
package service

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"caseflow/internal/intake"
	"caseflow/internal/lifecycle"
	"caseflow/internal/lifecycle/metrics"
	"caseflow/internal/lifecycle/ports"
	"caseflow/internal/resolver"
	"caseflow/internal/validation"
	dErrors "caseflow/pkg/domain-errors"
	"caseflow/pkg/requestcontext"
)

// Validator is the slice of the validation engine the service needs.
type Validator interface {
	Validate(ctx context.Context, ci intake.CaseIntake, now time.Time) validation.Result
}

// Resolver decides per-defendant dedup outcomes against prior decisions.
type Resolver interface {
	Resolve(ci intake.CaseIntake, history []resolver.SummonsApplicationDecision) []resolver.Decision
}

// Projector folds committed events into the queryable error views. Projection
// failures are logged, never surfaced to the caller: the events are already
// committed to the outbox and the view catches up from there.
type Projector interface {
	ApplyEvent(ctx context.Context, ev lifecycle.Event) error
}

type Service struct {
	cases     ports.CaseStore
	decisions ports.DecisionStore
	publisher ports.Publisher
	validator Validator
	resolver  Resolver
	timers    ports.TimerScheduler
	projector Projector
	txRunner  TxRunner

	metrics *metrics.Metrics
	logger  *slog.Logger
	tracer  trace.Tracer
	now     func() time.Time
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithTimerScheduler(t ports.TimerScheduler) Option {
	return func(s *Service) { s.timers = t }
}

func WithProjector(p Projector) Option {
	return func(s *Service) { s.projector = p }
}

// WithTxRunner makes persistence and outbox appends share one SQL transaction.
// Without it each store call commits on its own, which is what the in-memory
// stores want.
func WithTxRunner(r TxRunner) Option {
	return func(s *Service) { s.txRunner = r }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func New(
	cases ports.CaseStore,
	decisions ports.DecisionStore,
	publisher ports.Publisher,
	validator Validator,
	res Resolver,
	opts ...Option,
) (*Service, error) {
	if cases == nil {
		return nil, dErrors.New(dErrors.CodeInternal, "case store is required")
	}
	if decisions == nil {
		return nil, dErrors.New(dErrors.CodeInternal, "decision store is required")
	}
	if publisher == nil {
		return nil, dErrors.New(dErrors.CodeInternal, "publisher is required")
	}
	if validator == nil {
		return nil, dErrors.New(dErrors.CodeInternal, "validator is required")
	}
	if res == nil {
		return nil, dErrors.New(dErrors.CodeInternal, "resolver is required")
	}

	s := &Service{
		cases:     cases,
		decisions: decisions,
		publisher: publisher,
		validator: validator,
		resolver:  res,
		timers:    noopTimers{},
		txRunner:  passthroughTx{},
		logger:    slog.Default(),
		tracer:    otel.Tracer("caseflow/lifecycle"),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// at returns the timestamp commands stamp on the case and its events: the
// request-scoped time when the transport captured one, so every write within a
// single request observes the same "now", otherwise the service clock.
func (s *Service) at(ctx context.Context) time.Time {
	if t, ok := requestcontext.TimeFrom(ctx); ok {
		return t
	}
	return s.now()
}

// commit persists the case and appends its events inside one transaction, then
// hands the committed events to the projector.
func (s *Service) commit(ctx context.Context, c *lifecycle.Case, expectedVersion int64, events []lifecycle.Event) error {
	return s.commitWith(ctx, nil, c, expectedVersion, events)
}

// commitWith additionally runs extra writes inside the same transaction as the
// case save and outbox append, so a failed transition rolls them back too.
func (s *Service) commitWith(ctx context.Context, extra func(ctx context.Context) error, c *lifecycle.Case, expectedVersion int64, events []lifecycle.Event) error {
	err := s.txRunner.Within(ctx, func(ctx context.Context) error {
		if extra != nil {
			if err := extra(ctx); err != nil {
				return err
			}
		}
		if err := s.cases.Save(ctx, c, expectedVersion); err != nil {
			return err
		}
		if len(events) == 0 {
			return nil
		}
		return s.publisher.Publish(ctx, events...)
	})
	if err != nil {
		return err
	}
	s.project(ctx, events)
	return nil
}

func (s *Service) project(ctx context.Context, events []lifecycle.Event) {
	if s.projector == nil {
		return
	}
	for _, ev := range events {
		if err := s.projector.ApplyEvent(ctx, ev); err != nil {
			s.logger.Error("event projection failed",
				"event_type", string(ev.Type), "case_id", ev.CaseID.String(), "error", err)
		}
	}
}

// noopTimers is the default when no timer manager is wired.
type noopTimers struct{}

func (noopTimers) Schedule(context.Context, string, string) error { return nil }
func (noopTimers) Cancel(context.Context, string, string) error   { return nil }
