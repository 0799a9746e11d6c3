package main

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/redis/go-redis/v9"

	"medtransit/internal/audit"
	auditpg "medtransit/internal/audit/postgres"
	"medtransit/internal/platform/config"
	"medtransit/internal/storage"
	"medtransit/internal/storage/memory"
	pgstore "medtransit/internal/storage/postgres"
	redisstore "medtransit/internal/storage/redis"
)

// backend carries the connections the selected storage engine needs.
type backend struct {
	name        string
	db          *sql.DB
	redis       redis.UniversalClient
	redisPrefix string
}

// openStore returns the store for one entity kind and, for postgres, the
// cross-process serialization point. A nil Tx means the ledger serializes
// in-process.
func openStore[K ~string, V any](ctx context.Context, b backend, kind, table string) (storage.Store[K, V], storage.Tx[K, V], error) {
	switch b.name {
	case config.BackendMemory:
		return memory.New[K, V](), nil, nil
	case config.BackendPostgres:
		store := pgstore.New[K, V](b.db, table)
		if err := store.EnsureSchema(ctx); err != nil {
			return nil, nil, err
		}
		return store, pgstore.NewTx(b.db, store), nil
	case config.BackendRedis:
		return redisstore.New[K, V](b.redis, b.redisPrefix, kind), nil, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage backend %q", b.name)
	}
}

// openAuditStore keeps the trail next to the records. On postgres, events are
// inserted in the same transaction as the write they describe.
func openAuditStore(ctx context.Context, b backend) (audit.Store, error) {
	if b.name != config.BackendPostgres {
		return audit.NewInMemoryStore(), nil
	}
	trail := auditpg.New(b.db)
	if err := trail.EnsureSchema(ctx); err != nil {
		return nil, err
	}
	return trail, nil
}
