// Package store implements the generic resource store: an observable,
// locally-cached mirror of one server-side collection. Every mutation patches
// the cache from the server's authoritative response instead of re-fetching
// the whole collection, and every publish replaces the snapshot wholesale so
// subscribers never observe partial state.
//
// Concurrent mutations to the same entity are resolved last-request-wins:
// each outgoing mutation takes a per-id sequence number, and a response is
// applied only if no later-issued mutation for that id has already been
// applied.
package store

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/user/taskboard-go/apperror"
	"github.com/user/taskboard-go/httpapi"
	"github.com/user/taskboard-go/observable"
)

// Entity is any collection element carrying a server-assigned integer id.
// EntityID returns 0 for a draft that has not been acknowledged yet.
type Entity interface {
	EntityID() int
}

// Paths maps store operations onto backend endpoints.
type Paths struct {
	List   string
	Create string
	Update func(id int) string
	Delete func(id int) string
}

// Store is the observable cache of one server-side collection.
type Store[T Entity] struct {
	name   string
	client *httpapi.Client
	paths  Paths
	value  *observable.Value[[]T]
	logger *zap.Logger

	mu      sync.Mutex
	issued  map[int]uint64 // last mutation sequence handed out per entity id
	applied map[int]uint64 // highest mutation sequence applied per entity id
}

// New creates an empty store for the named collection.
func New[T Entity](name string, client *httpapi.Client, paths Paths, logger *zap.Logger) *Store[T] {
	return &Store[T]{
		name:    name,
		client:  client,
		paths:   paths,
		value:   observable.NewValue([]T{}),
		logger:  logger.With(zap.String("collection", name)),
		issued:  make(map[int]uint64),
		applied: make(map[int]uint64),
	}
}

// Snapshot returns the current cached collection. The returned slice is a
// published snapshot; callers must not mutate it.
func (s *Store[T]) Snapshot() []T {
	return s.value.Get()
}

// Subscribe registers for collection updates. The channel is primed with the
// current snapshot.
func (s *Store[T]) Subscribe() (string, <-chan []T) {
	return s.value.Subscribe(4)
}

// Unsubscribe releases a collection subscription.
func (s *Store[T]) Unsubscribe(id string) {
	s.value.Unsubscribe(id)
}

// requireToken refuses to issue a request when no bearer token is available.
func (s *Store[T]) requireToken() error {
	if !s.client.HasToken() {
		return apperror.NewUnauthenticatedError(fmt.Sprintf("%s: no token available", s.name), nil)
	}
	return nil
}

// List fetches the full collection, replaces the cache wholesale, and
// publishes it.
func (s *Store[T]) List(ctx context.Context) ([]T, error) {
	if err := s.requireToken(); err != nil {
		return nil, err
	}
	var fetched []T
	if err := s.client.Get(ctx, s.paths.List, &fetched); err != nil {
		return nil, err
	}
	if fetched == nil {
		fetched = []T{}
	}
	s.value.Set(fetched)
	s.logger.Debug("collection refreshed", zap.Int("count", len(fetched)))
	return fetched, nil
}

// Create posts a draft. On success the server-returned entity, now carrying
// its assigned id, is prepended to the cache; on failure the cache is
// unchanged.
func (s *Store[T]) Create(ctx context.Context, draft T) (T, error) {
	var zero T
	if err := s.requireToken(); err != nil {
		return zero, err
	}
	var created T
	if err := s.client.Post(ctx, s.paths.Create, draft, &created); err != nil {
		return zero, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	current := s.value.Get()
	next := make([]T, 0, len(current)+1)
	next = append(next, created)
	next = append(next, current...)
	s.value.Set(next)
	return created, nil
}

// Update puts the full entity by id. On success the cache entry with the
// matching id is replaced in place; a response whose id is no longer cached is
// dropped from the cache while the call still succeeds. Stale responses from
// an earlier-issued mutation that arrive after a later one are discarded.
func (s *Store[T]) Update(ctx context.Context, entity T) (T, error) {
	var zero T
	if err := s.requireToken(); err != nil {
		return zero, err
	}
	id := entity.EntityID()
	seq := s.nextSeq(id)

	var updated T
	if err := s.client.Put(ctx, s.paths.Update(id), entity, &updated); err != nil {
		return zero, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if seq < s.applied[id] {
		s.logger.Debug("discarding stale update response",
			zap.Int("id", id), zap.Uint64("seq", seq), zap.Uint64("applied", s.applied[id]))
		return updated, nil
	}
	s.applied[id] = seq

	current := s.value.Get()
	index := -1
	for i, item := range current {
		if item.EntityID() == updated.EntityID() {
			index = i
			break
		}
	}
	if index == -1 {
		// The id is not cached; keep the cache as-is. See the update contract.
		s.logger.Debug("update response for uncached entity dropped", zap.Int("id", updated.EntityID()))
		return updated, nil
	}
	next := make([]T, len(current))
	copy(next, current)
	next[index] = updated
	s.value.Set(next)
	return updated, nil
}

// Remove deletes the entity by id. On success every cache entry with that id
// is filtered out and the result published.
func (s *Store[T]) Remove(ctx context.Context, id int) error {
	if err := s.requireToken(); err != nil {
		return err
	}
	seq := s.nextSeq(id)

	if err := s.client.Delete(ctx, s.paths.Delete(id)); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if seq < s.applied[id] {
		s.logger.Debug("discarding stale delete response", zap.Int("id", id))
		return nil
	}
	s.applied[id] = seq

	current := s.value.Get()
	next := make([]T, 0, len(current))
	for _, item := range current {
		if item.EntityID() != id {
			next = append(next, item)
		}
	}
	if len(next) != len(current) {
		s.value.Set(next)
	}
	return nil
}

func (s *Store[T]) nextSeq(id int) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.issued[id]++
	return s.issued[id]
}
