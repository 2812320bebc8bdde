// Package store implements the in-memory record cache fronting the
// durable repos (spec.md §2's "key→record store" external
// collaborator, named concretely in SPEC_FULL.md §2). Callers reach
// records only through Immutable/Mutable closures, matching the
// original's DataDirector::GetCharacter(uid).Immutable(...) style
// (see PrivateChatDirector.cpp's GetCharacter(...).Immutable usage)
// and spec.md §5: "external code accesses records only through
// Immutable/Mutable closures... must keep them short and must not
// perform network I/O inside them."
package store

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/multierr"
)

// Loader fetches a record from the backing repo on a cache miss.
// Saver persists a mutated record back to the backing repo.
type Loader[K comparable, V any] func(ctx context.Context, key K) (V, error)
type Saver[K comparable, V any] func(ctx context.Context, key K, value V) error

// Store is a synchronized cache of key→record for one record kind,
// backed by a repo for misses and mutations. Each director creates the
// Stores it uses (the lobby: users, characters, horses, items; the
// ranch and race directors: characters).
type Store[K comparable, V any] struct {
	mu      sync.Mutex
	records map[K]V
	load    Loader[K, V]
	save    Saver[K, V]
}

// New returns an empty Store backed by the given load/save functions.
func New[K comparable, V any](load Loader[K, V], save Saver[K, V]) *Store[K, V] {
	return &Store[K, V]{
		records: make(map[K]V),
		load:    load,
		save:    save,
	}
}

// Immutable runs fn against the current value for key, loading it
// from the backing repo on a cache miss. fn must be short and must
// not perform network I/O (spec.md §5) — the store's lock is held for
// its duration.
func (s *Store[K, V]) Immutable(ctx context.Context, key K, fn func(V)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.records[key]
	if !ok {
		loaded, err := s.load(ctx, key)
		if err != nil {
			return fmt.Errorf("store: load %v: %w", key, err)
		}
		s.records[key] = loaded
		v = loaded
	}
	fn(v)
	return nil
}

// Mutable runs fn against the current value for key (loading on a
// miss), stores fn's result back in the cache, and persists it via
// the backing Saver. Same short-closure discipline as Immutable.
func (s *Store[K, V]) Mutable(ctx context.Context, key K, fn func(V) V) error {
	s.mu.Lock()
	v, ok := s.records[key]
	if !ok {
		loaded, err := s.load(ctx, key)
		if err != nil {
			s.mu.Unlock()
			return fmt.Errorf("store: load %v: %w", key, err)
		}
		v = loaded
	}

	updated := fn(v)
	s.records[key] = updated
	s.mu.Unlock()

	if s.save == nil {
		return nil
	}
	if err := s.save(ctx, key, updated); err != nil {
		return fmt.Errorf("store: save %v: %w", key, err)
	}
	return nil
}

// Put seeds or replaces a record in the cache without touching the
// backing repo — used for newly created records the caller has
// already persisted itself (e.g. account creation).
func (s *Store[K, V]) Put(key K, value V) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[key] = value
}

// Evict drops a cached record, forcing the next access to reload it.
func (s *Store[K, V]) Evict(key K) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, key)
}

// GetAll runs Immutable for every key in keys and returns each result,
// aggregating all load failures with multierr rather than failing
// fast on the first miss (spec.md §2: "batched Get... using
// go.uber.org/multierr").
func GetAll[K comparable, V any](ctx context.Context, s *Store[K, V], keys []K) ([]V, error) {
	out := make([]V, 0, len(keys))
	var errs error
	for _, k := range keys {
		var got V
		err := s.Immutable(ctx, k, func(v V) { got = v })
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		out = append(out, got)
	}
	return out, errs
}

// CreateAll persists a batch of new records via create, aggregating
// every failure with multierr instead of stopping at the first one
// (spec.md §2: "batched... Create/Delete").
func CreateAll[K comparable, V any](ctx context.Context, keys []K, values []V, create func(context.Context, K, V) error) error {
	var errs error
	for i, k := range keys {
		if err := create(ctx, k, values[i]); err != nil {
			errs = multierr.Append(errs, err)
		}
	}
	return errs
}

// DeleteAll removes a batch of records via delete, aggregating every
// failure with multierr.
func DeleteAll[K comparable](ctx context.Context, keys []K, delete func(context.Context, K) error) error {
	var errs error
	for _, k := range keys {
		if err := delete(ctx, k); err != nil {
			errs = multierr.Append(errs, err)
		}
	}
	return errs
}
