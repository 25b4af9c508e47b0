package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"caseflow/internal/intake"
	"caseflow/internal/lifecycle"
	"caseflow/internal/validation"
	"caseflow/pkg/domain"
	"caseflow/pkg/platform/sentinel"
	txcontext "caseflow/pkg/platform/tx"
)

// Store persists case aggregates. Scalar columns carry what queries filter on;
// the defendant/offence tree travels as JSONB. Save participates in a
// context-carried transaction so a lifecycle transition and its outbox entries
// commit together.
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *Store) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

// aggregateDoc is the JSONB shape of the defendant tree, case-level problems
// and retained intake.
type aggregateDoc struct {
	Defendants   []lifecycle.Defendant `json:"defendants"`
	CaseProblems []validation.Problem  `json:"caseProblems,omitempty"`
	Intake       intake.CaseIntake     `json:"intake"`
}

func (s *Store) Save(ctx context.Context, c *lifecycle.Case, expectedVersion int64) error {
	doc, err := json.Marshal(aggregateDoc{
		Defendants:   c.Defendants,
		CaseProblems: c.Problems,
		Intake:       c.Intake,
	})
	if err != nil {
		return fmt.Errorf("marshal aggregate: %w", err)
	}

	if expectedVersion == 0 {
		query := `
			INSERT INTO cases (id, urn, status, version, channel, case_type, court_location,
				correlation_id, aggregate, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		`
		_, err := s.execer(ctx).ExecContext(ctx, query,
			uuid.UUID(c.ID), c.URN, string(c.Status), c.Version, string(c.Channel),
			c.CaseType, c.CourtLocation, c.CorrelationID, doc, c.CreatedAt, c.UpdatedAt,
		)
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			// Another writer created the case first.
			return sentinel.ErrVersionConflict
		}
		if err != nil {
			return fmt.Errorf("insert case: %w", err)
		}
		return nil
	}

	query := `
		UPDATE cases
		SET status = $1, version = $2, case_type = $3, court_location = $4,
			aggregate = $5, updated_at = $6
		WHERE id = $7 AND version = $8
	`
	res, err := s.execer(ctx).ExecContext(ctx, query,
		string(c.Status), c.Version, c.CaseType, c.CourtLocation,
		doc, c.UpdatedAt, uuid.UUID(c.ID), expectedVersion,
	)
	if err != nil {
		return fmt.Errorf("update case: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update case rows affected: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrVersionConflict
	}
	return nil
}

func (s *Store) GetByID(ctx context.Context, id domain.CaseID) (*lifecycle.Case, error) {
	return s.get(ctx, `SELECT id, urn, status, version, channel, case_type, court_location,
		correlation_id, aggregate, created_at, updated_at FROM cases WHERE id = $1`, uuid.UUID(id))
}

func (s *Store) GetByURN(ctx context.Context, urn string) (*lifecycle.Case, error) {
	return s.get(ctx, `SELECT id, urn, status, version, channel, case_type, court_location,
		correlation_id, aggregate, created_at, updated_at FROM cases WHERE urn = $1`, urn)
}

func (s *Store) get(ctx context.Context, query string, arg any) (*lifecycle.Case, error) {
	var (
		c         lifecycle.Case
		rawID     uuid.UUID
		status    string
		channel   string
		doc       []byte
		createdAt, updatedAt time.Time
	)
	err := s.execer(ctx).QueryRowContext(ctx, query, arg).Scan(
		&rawID, &c.URN, &status, &c.Version, &channel, &c.CaseType,
		&c.CourtLocation, &c.CorrelationID, &doc, &createdAt, &updatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query case: %w", err)
	}

	c.ID = domain.CaseID(rawID)
	c.Status = lifecycle.CaseStatus(status)
	c.Channel = intake.Channel(channel)
	c.CreatedAt = createdAt
	c.UpdatedAt = updatedAt

	var agg aggregateDoc
	if err := json.Unmarshal(doc, &agg); err != nil {
		return nil, fmt.Errorf("unmarshal aggregate: %w", err)
	}
	c.Defendants = agg.Defendants
	c.Problems = agg.CaseProblems
	c.Intake = agg.Intake
	return &c, nil
}
