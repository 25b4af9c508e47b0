package outbox

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/twmb/franz-go/pkg/kgo"
)

// producer is the slice of kgo.Client the relay needs. Tests substitute a fake.
type producer interface {
	ProduceSync(ctx context.Context, rs ...*kgo.Record) kgo.ProduceResults
}

// Relay drains the outbox to Kafka. Records are keyed by aggregate ID so all
// events for one case land on the same partition in order.
type Relay struct {
	store    Store
	client   producer
	topic    string
	interval time.Duration
	batch    int
	logger   *slog.Logger
}

type RelayOption func(*Relay)

func WithInterval(d time.Duration) RelayOption {
	return func(r *Relay) { r.interval = d }
}

func WithBatchSize(n int) RelayOption {
	return func(r *Relay) { r.batch = n }
}

func WithLogger(l *slog.Logger) RelayOption {
	return func(r *Relay) { r.logger = l }
}

func NewRelay(store Store, client producer, topic string, opts ...RelayOption) *Relay {
	r := &Relay{
		store:    store,
		client:   client,
		topic:    topic,
		interval: time.Second,
		batch:    100,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run polls until the context is cancelled. Publish failures are logged and
// retried on the next tick; entries stay unpublished until delivery succeeds.
func (r *Relay) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := r.drain(ctx); err != nil {
				r.logger.Error("outbox drain failed", "error", err)
			}
		}
	}
}

func (r *Relay) drain(ctx context.Context) error {
	for {
		entries, err := r.store.Unpublished(ctx, r.batch)
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			return nil
		}

		records := make([]*kgo.Record, len(entries))
		for i, e := range entries {
			records[i] = &kgo.Record{
				Topic: r.topic,
				Key:   []byte(e.AggregateID),
				Value: e.Payload,
				Headers: []kgo.RecordHeader{
					{Key: "event_type", Value: []byte(e.EventType)},
				},
			}
		}

		if err := r.client.ProduceSync(ctx, records...).FirstErr(); err != nil {
			return err
		}

		ids := make([]uuid.UUID, len(entries))
		for i, e := range entries {
			ids[i] = e.ID
		}
		if err := r.store.MarkPublished(ctx, ids); err != nil {
			return err
		}
		r.logger.Debug("outbox batch published", "count", len(entries))

		if len(entries) < r.batch {
			return nil
		}
	}
}
