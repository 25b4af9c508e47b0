package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"caseflow/internal/intake"
	"caseflow/internal/resolver"
	"caseflow/pkg/domain"
	txcontext "caseflow/pkg/platform/tx"
)

// Store persists summons-application decisions, one row per (case, dedup key).
// A later decision for the same key supersedes the earlier one.
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *Store) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

func (s *Store) Record(ctx context.Context, caseID domain.CaseID, d resolver.SummonsApplicationDecision) error {
	query := `
		INSERT INTO summons_application_decisions
			(case_id, dedup_key, defendant_id, outcome, channel, decided_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (case_id, dedup_key)
		DO UPDATE SET defendant_id = $3, outcome = $4, channel = $5, decided_at = $6
	`
	_, err := s.execer(ctx).ExecContext(ctx, query,
		uuid.UUID(caseID), d.DedupKey, uuid.UUID(d.DefendantID),
		string(d.Outcome), string(d.Channel), d.DecidedAt,
	)
	if err != nil {
		return fmt.Errorf("record summons decision: %w", err)
	}
	return nil
}

func (s *Store) ListByCase(ctx context.Context, caseID domain.CaseID) ([]resolver.SummonsApplicationDecision, error) {
	query := `
		SELECT dedup_key, defendant_id, outcome, channel, decided_at
		FROM summons_application_decisions
		WHERE case_id = $1
		ORDER BY decided_at
	`
	rows, err := s.db.QueryContext(ctx, query, uuid.UUID(caseID))
	if err != nil {
		return nil, fmt.Errorf("query summons decisions: %w", err)
	}
	defer rows.Close()

	var out []resolver.SummonsApplicationDecision
	for rows.Next() {
		var (
			d           resolver.SummonsApplicationDecision
			defendantID uuid.UUID
			outcome     string
			channel     string
		)
		if err := rows.Scan(&d.DedupKey, &defendantID, &outcome, &channel, &d.DecidedAt); err != nil {
			return nil, fmt.Errorf("scan summons decision: %w", err)
		}
		d.DefendantID = domain.DefendantID(defendantID)
		d.Outcome = resolver.PriorOutcome(outcome)
		d.Channel = intake.Channel(channel)
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate summons decisions: %w", err)
	}
	return out, nil
}
