// Package users provides the observable user collection over the /users
// endpoints. It is available to admin surfaces; new accounts are created
// through signup, so the collection store exposes no create operation.
package users

import (
	"context"
	"strconv"

	"go.uber.org/zap"

	"github.com/user/taskboard-go/auth"
	"github.com/user/taskboard-go/httpapi"
	"github.com/user/taskboard-go/store"
)

// Store is the observable user collection.
type Store struct {
	inner *store.Store[auth.User]
}

// NewStore creates the user store.
func NewStore(client *httpapi.Client, logger *zap.Logger) *Store {
	paths := store.Paths{
		List:   "/users/all",
		Update: func(id int) string { return "/users/update/" + strconv.Itoa(id) },
		Delete: func(id int) string { return "/users/delete/" + strconv.Itoa(id) },
	}
	return &Store{inner: store.New[auth.User]("users", client, paths, logger)}
}

// List fetches all users, replaces the cache wholesale, and publishes it.
func (s *Store) List(ctx context.Context) ([]auth.User, error) {
	return s.inner.List(ctx)
}

// Update puts the full user by id and patches the cache from the response.
// The write-only password travels on the request but is cleared from what the
// cache retains.
func (s *Store) Update(ctx context.Context, user auth.User) (auth.User, error) {
	updated, err := s.inner.Update(ctx, user)
	if err != nil {
		return auth.User{}, err
	}
	return updated.Sanitized(), nil
}

// Remove deletes the user by id and filters it out of the cache.
func (s *Store) Remove(ctx context.Context, id int) error {
	return s.inner.Remove(ctx, id)
}

// Snapshot returns the current cached collection.
func (s *Store) Snapshot() []auth.User {
	return s.inner.Snapshot()
}

// Subscribe registers for collection updates; the channel is primed with the
// current snapshot.
func (s *Store) Subscribe() (string, <-chan []auth.User) {
	return s.inner.Subscribe()
}

// Unsubscribe releases a collection subscription.
func (s *Store) Unsubscribe(id string) {
	s.inner.Unsubscribe(id)
}
