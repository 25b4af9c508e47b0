//go:build integration

package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"caseflow/internal/intake"
	"caseflow/internal/resolver"
	"caseflow/internal/resolver/store/postgres"
	"caseflow/pkg/domain"
	"caseflow/pkg/testutil/containers"
)

type DecisionStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *postgres.Store
}

func TestDecisionStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(DecisionStoreSuite))
}

func (s *DecisionStoreSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.postgres = mgr.GetPostgres(s.T())
	s.store = postgres.New(s.postgres.DB)
}

func (s *DecisionStoreSuite) SetupTest() {
	s.Require().NoError(
		s.postgres.TruncateTables(context.Background(), "summons_application_decisions"))
}

func (s *DecisionStoreSuite) TestRecordAndListByCase() {
	ctx := context.Background()
	caseID := domain.NewCaseID()
	now := time.Now().UTC().Truncate(time.Microsecond)

	first := resolver.SummonsApplicationDecision{
		DedupKey:    "dedup-a",
		DefendantID: domain.NewDefendantID(),
		Outcome:     resolver.PriorRejected,
		Channel:     intake.ChannelPoliceFeed,
		DecidedAt:   now,
	}
	second := resolver.SummonsApplicationDecision{
		DedupKey:    "dedup-b",
		DefendantID: domain.NewDefendantID(),
		Outcome:     resolver.PriorApproved,
		Channel:     intake.ChannelManual,
		DecidedAt:   now.Add(time.Second),
	}
	s.Require().NoError(s.store.Record(ctx, caseID, first))
	s.Require().NoError(s.store.Record(ctx, caseID, second))

	got, err := s.store.ListByCase(ctx, caseID)
	s.Require().NoError(err)
	s.Require().Len(got, 2)
	s.Equal(first.DedupKey, got[0].DedupKey)
	s.Equal(resolver.PriorRejected, got[0].Outcome)
	s.Equal(second.DedupKey, got[1].DedupKey)
	s.Equal(resolver.PriorApproved, got[1].Outcome)
}

func (s *DecisionStoreSuite) TestRecordUpsertsOnSameDedupKey() {
	ctx := context.Background()
	caseID := domain.NewCaseID()
	now := time.Now().UTC().Truncate(time.Microsecond)

	d := resolver.SummonsApplicationDecision{
		DedupKey:    "dedup-a",
		DefendantID: domain.NewDefendantID(),
		Outcome:     resolver.PriorRejected,
		Channel:     intake.ChannelPoliceFeed,
		DecidedAt:   now,
	}
	s.Require().NoError(s.store.Record(ctx, caseID, d))

	// A later court decision for the same defendant replaces the earlier one.
	d.Outcome = resolver.PriorApproved
	d.DecidedAt = now.Add(time.Minute)
	s.Require().NoError(s.store.Record(ctx, caseID, d))

	got, err := s.store.ListByCase(ctx, caseID)
	s.Require().NoError(err)
	s.Require().Len(got, 1)
	s.Equal(resolver.PriorApproved, got[0].Outcome)
}

func (s *DecisionStoreSuite) TestDecisionsAreScopedToCase() {
	ctx := context.Background()
	caseID := domain.NewCaseID()
	other := domain.NewCaseID()

	s.Require().NoError(s.store.Record(ctx, caseID, resolver.SummonsApplicationDecision{
		DedupKey:    "dedup-a",
		DefendantID: domain.NewDefendantID(),
		Outcome:     resolver.PriorApproved,
		Channel:     intake.ChannelPoliceFeed,
		DecidedAt:   time.Now().UTC(),
	}))

	got, err := s.store.ListByCase(ctx, other)
	s.Require().NoError(err)
	s.Empty(got)
}
