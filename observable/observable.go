// Package observable provides a generic observable value: a current snapshot
// plus a set of subscriber channels that receive every published update. It is
// the state-distribution primitive behind the session and the collection
// caches. Values are replaced wholesale on every publish, never mutated in
// place, so subscribers always observe a consistent snapshot.
package observable

import (
	"sync"

	"github.com/google/uuid"
)

// Value holds a current value of type T and broadcasts updates to subscribers.
// It is safe for concurrent use.
type Value[T any] struct {
	mu      sync.RWMutex
	current T
	subs    map[string]chan T
}

// NewValue creates a Value seeded with an initial snapshot.
func NewValue[T any](initial T) *Value[T] {
	return &Value[T]{
		current: initial,
		subs:    make(map[string]chan T),
	}
}

// Get returns the current snapshot.
func (v *Value[T]) Get() T {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.current
}

// Set replaces the current snapshot and broadcasts it to all subscribers.
// Sends are non-blocking: a subscriber that has fallen behind a full buffer
// misses intermediate updates but will see the latest snapshot on its next
// receive or via Get.
func (v *Value[T]) Set(next T) {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.current = next
	for _, ch := range v.subs {
		select {
		case ch <- next:
		default:
		}
	}
}

// Subscribe registers a new subscriber and returns its id and receive channel.
// The channel is buffered with the given capacity (minimum 1) and immediately
// primed with the current snapshot, so a new subscriber never starts blind.
func (v *Value[T]) Subscribe(buffer int) (string, <-chan T) {
	if buffer < 1 {
		buffer = 1
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	id := uuid.New().String()
	ch := make(chan T, buffer)
	ch <- v.current
	v.subs[id] = ch
	return id, ch
}

// Unsubscribe removes a subscriber and closes its channel. Unknown ids are
// ignored.
func (v *Value[T]) Unsubscribe(id string) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if ch, ok := v.subs[id]; ok {
		close(ch)
		delete(v.subs, id)
	}
}

// Close removes all subscribers and closes their channels. The current
// snapshot remains readable through Get.
func (v *Value[T]) Close() {
	v.mu.Lock()
	defer v.mu.Unlock()

	for id, ch := range v.subs {
		close(ch)
		delete(v.subs, id)
	}
}
