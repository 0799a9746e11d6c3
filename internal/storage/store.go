// Package storage defines the keyed record storage the registries and the trip
// coordinator persist through. Every entity kind gets its own Store; engines live
// in the memory, postgres and redis subpackages.
package storage

import "context"

// Store is update-in-place keyed storage with no secondary indices. Get returns
// sentinel.ErrNotFound (possibly wrapped) for an absent key.
type Store[K ~string, V any] interface {
	Get(ctx context.Context, id K) (V, error)
	Put(ctx context.Context, id K, value V) error
	Exists(ctx context.Context, id K) (bool, error)
}

// Tx serializes mutations per key. fn runs while no other RunInTx for the same
// key is in flight, so a Get/Exists followed by Put inside fn is a race-free
// check-then-write. fn must use the ctx and store it is handed.
type Tx[K ~string, V any] interface {
	RunInTx(ctx context.Context, id K, fn func(ctx context.Context, store Store[K, V]) error) error
}

// Cloner is implemented by values that own slices or maps. In-process stores
// clone on the way in and out so callers never share backing arrays with the
// stored record.
type Cloner[V any] interface {
	Clone() V
}

// Clone copies v if it implements Cloner.
func Clone[V any](v V) V {
	if c, ok := any(v).(Cloner[V]); ok {
		return c.Clone()
	}
	return v
}
