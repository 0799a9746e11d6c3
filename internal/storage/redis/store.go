// Package redis stores records as JSON strings under "<prefix><kind>:<id>".
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"medtransit/pkg/platform/sentinel"
)

// Store implements storage.Store over one key namespace. Serialization per key
// is provided in-process by storage.ShardedTx, so a Redis-backed deployment runs
// a single writer replica.
type Store[K ~string, V any] struct {
	client redis.UniversalClient
	prefix string
}

// New builds a store whose keys are prefix+kind+":"+id.
func New[K ~string, V any](client redis.UniversalClient, prefix, kind string) *Store[K, V] {
	return &Store[K, V]{client: client, prefix: prefix + kind + ":"}
}

func (s *Store[K, V]) key(id K) string {
	return s.prefix + string(id)
}

func (s *Store[K, V]) Get(ctx context.Context, id K) (V, error) {
	var zero V
	raw, err := s.client.Get(ctx, s.key(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return zero, fmt.Errorf("%s: %w", s.key(id), sentinel.ErrNotFound)
		}
		return zero, fmt.Errorf("redis get: %w", err)
	}
	var v V
	if err := json.Unmarshal(raw, &v); err != nil {
		return zero, fmt.Errorf("decode %s: %w", s.key(id), err)
	}
	return v, nil
}

func (s *Store[K, V]) Put(ctx context.Context, id K, value V) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", s.key(id), err)
	}
	if err := s.client.Set(ctx, s.key(id), raw, 0).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (s *Store[K, V]) Exists(ctx context.Context, id K) (bool, error) {
	n, err := s.client.Exists(ctx, s.key(id)).Result()
	if err != nil {
		return false, fmt.Errorf("redis exists: %w", err)
	}
	return n > 0, nil
}
