// Package outbox implements the transactional outbox: domain events are
// appended in the same transaction as the case mutation and shipped to Kafka
// by the relay worker. Kafka is the source of truth for downstream consumers.
package outbox

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"caseflow/internal/lifecycle"
)

// Entry is one outbox row.
type Entry struct {
	ID            uuid.UUID
	AggregateType string
	AggregateID   string
	EventType     string
	Payload       []byte
	CreatedAt     time.Time
}

// Store persists outbox entries and tracks publication.
type Store interface {
	Append(ctx context.Context, entries ...Entry) error
	Unpublished(ctx context.Context, limit int) ([]Entry, error)
	MarkPublished(ctx context.Context, ids []uuid.UUID) error
}

// Publisher satisfies the lifecycle Publisher port by appending events to the
// outbox. When the caller carries a SQL transaction in context, the append
// joins it, so persistence of the case and dispatch of its events are atomic.
type Publisher struct {
	store Store
}

func NewPublisher(store Store) *Publisher {
	return &Publisher{store: store}
}

func (p *Publisher) Publish(ctx context.Context, events ...lifecycle.Event) error {
	entries := make([]Entry, 0, len(events))
	for _, ev := range events {
		payload, err := json.Marshal(ev)
		if err != nil {
			return fmt.Errorf("marshal event %s: %w", ev.Type, err)
		}
		entries = append(entries, Entry{
			ID:            uuid.New(),
			AggregateType: "case",
			AggregateID:   ev.CaseID.String(),
			EventType:     string(ev.Type),
			Payload:       payload,
			CreatedAt:     ev.OccurredAt,
		})
	}
	return p.store.Append(ctx, entries...)
}
