package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"caseflow/internal/refdata"
)

const snapshotKey = "refdata:snapshot"

// Store caches reference-data snapshots in Redis in front of a slower upstream
// source. Multiple engine instances share one cached snapshot, so all of them
// validate against the same reference view within the TTL window.
type Store struct {
	client   *redis.Client
	upstream refdata.Source
	ttl      time.Duration
}

func New(client *redis.Client, upstream refdata.Source, ttl time.Duration) *Store {
	return &Store{client: client, upstream: upstream, ttl: ttl}
}

func (s *Store) Snapshot(ctx context.Context) (*refdata.Snapshot, error) {
	raw, err := s.client.Get(ctx, snapshotKey).Bytes()
	if err == nil {
		var snap refdata.Snapshot
		if uerr := json.Unmarshal(raw, &snap); uerr == nil {
			return &snap, nil
		}
		// Corrupt cache entry: fall through to the upstream and overwrite.
	} else if !errors.Is(err, redis.Nil) {
		// Redis being down must not take validation down with it.
		return s.upstream.Snapshot(ctx)
	}

	snap, err := s.upstream.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	if payload, merr := json.Marshal(snap); merr == nil {
		// Best effort; a failed cache write only costs the next caller a fetch.
		_ = s.client.Set(ctx, snapshotKey, payload, s.ttl).Err()
	}
	return snap, nil
}

// Invalidate drops the cached snapshot so the next pass refetches.
func (s *Store) Invalidate(ctx context.Context) error {
	return s.client.Del(ctx, snapshotKey).Err()
}
