// Package registry holds what the driver, vehicle and patient registries share:
// record bookkeeping, the certification predicate and a keyed ledger that runs
// every mutation as one serialized check-then-write.
package registry

import (
	"context"
	"errors"

	"medtransit/internal/audit"
	"medtransit/internal/storage"
	"medtransit/pkg/domain"
	dErrors "medtransit/pkg/domain-errors"
	"medtransit/pkg/platform/sentinel"
)

// Meta is the bookkeeping every registry record carries. Owner is the principal
// whose rights the record's authorization rules check against.
type Meta struct {
	Owner     domain.Principal `json:"owner"`
	Active    bool             `json:"active"`
	CreatedAt domain.Height    `json:"created_at"`
	UpdatedAt domain.Height    `json:"updated_at"`
}

// NewMeta returns active bookkeeping stamped at now.
func NewMeta(owner domain.Principal, now domain.Height) Meta {
	return Meta{Owner: owner, Active: true, CreatedAt: now, UpdatedAt: now}
}

// Touch advances UpdatedAt to now unless now is behind it.
func (m *Meta) Touch(now domain.Height) {
	m.UpdatedAt = m.UpdatedAt.Later(now)
}

// Deactivate is permanent; there is no reactivation.
func (m *Meta) Deactivate(now domain.Height) {
	m.Active = false
	m.Touch(now)
}

// OwnedBy reports whether p is the record's owner. The empty principal owns nothing.
func (m Meta) OwnedBy(p domain.Principal) bool {
	return !p.IsNil() && m.Owner == p
}

// CertificationValid is the predicate behind every isValid query: the record is
// active and now is strictly before expiry. Existence is the caller's check.
func CertificationValid(m Meta, expiry, now domain.Height) bool {
	return m.Active && now < expiry
}

// Ledger is keyed storage for one entity kind. When it has an emitter, every
// write carries its audit event in the same transaction.
type Ledger[K ~string, V any] struct {
	kind    string
	store   storage.Store[K, V]
	tx      storage.Tx[K, V]
	emitter audit.Emitter
}

// Trail builds the audit event for the record about to be written.
type Trail[V any] func(record V) audit.Event

// NewLedger builds a ledger. A nil tx serializes in-process over store; a nil
// emitter records nothing.
func NewLedger[K ~string, V any](kind string, store storage.Store[K, V], tx storage.Tx[K, V], emitter audit.Emitter) *Ledger[K, V] {
	if tx == nil {
		tx = storage.NewShardedTx(store, 0)
	}
	return &Ledger[K, V]{kind: kind, store: store, tx: tx, emitter: emitter}
}

// Create stores build's record under id unless id is already taken. Ids are
// never reused, including ids of deactivated records.
func (l *Ledger[K, V]) Create(ctx context.Context, id K, build func() V, trail Trail[V]) (V, error) {
	var created V
	var recorded *audit.Event
	err := l.tx.RunInTx(ctx, id, func(txCtx context.Context, store storage.Store[K, V]) error {
		exists, err := store.Exists(txCtx, id)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to check "+l.kind)
		}
		if exists {
			return dErrors.New(dErrors.CodeDuplicateID, l.kind+" already registered")
		}
		record := build()
		if recorded, err = l.record(txCtx, trail, record); err != nil {
			return err
		}
		if err := store.Put(txCtx, id, record); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to save "+l.kind)
		}
		created = record
		return nil
	})
	if err != nil {
		var zero V
		return zero, err
	}
	l.committed(ctx, recorded)
	return created, nil
}

// Execute loads the record, runs validate against it and, if that passes,
// stores mutate's result. Both callbacks run while the key is held, so validate
// sees the state mutate will change.
func (l *Ledger[K, V]) Execute(ctx context.Context, id K, validate func(current V) error, mutate func(current V) V, trail Trail[V]) (V, error) {
	var updated V
	var recorded *audit.Event
	err := l.tx.RunInTx(ctx, id, func(txCtx context.Context, store storage.Store[K, V]) error {
		current, err := store.Get(txCtx, id)
		if err != nil {
			return l.wrapErr(err)
		}
		if err := validate(current); err != nil {
			return err
		}
		next := mutate(current)
		if recorded, err = l.record(txCtx, trail, next); err != nil {
			return err
		}
		if err := store.Put(txCtx, id, next); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to save "+l.kind)
		}
		updated = next
		return nil
	})
	if err != nil {
		var zero V
		return zero, err
	}
	l.committed(ctx, recorded)
	return updated, nil
}

// record appends the event before the record is written, so a failing trail
// leaves the record untouched on every backend.
func (l *Ledger[K, V]) record(ctx context.Context, trail Trail[V], record V) (*audit.Event, error) {
	if l.emitter == nil || trail == nil {
		return nil, nil
	}
	event, err := l.emitter.Record(ctx, trail(record))
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to record "+l.kind+" audit event")
	}
	return &event, nil
}

func (l *Ledger[K, V]) committed(ctx context.Context, event *audit.Event) {
	if event != nil {
		l.emitter.Committed(ctx, *event)
	}
}

// Get reads without taking the key.
func (l *Ledger[K, V]) Get(ctx context.Context, id K) (V, error) {
	record, err := l.store.Get(ctx, id)
	if err != nil {
		var zero V
		return zero, l.wrapErr(err)
	}
	return record, nil
}

func (l *Ledger[K, V]) wrapErr(err error) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, l.kind+" not found")
	}
	var coded *dErrors.Error
	if errors.As(err, &coded) {
		return err
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load "+l.kind)
}
