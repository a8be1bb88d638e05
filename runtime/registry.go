package runtime

import "sync"

// Subscription is one consumer's live feed over a watched key. Consumers
// read Updates until the feed closes, and call Cancel to detach without
// affecting other consumers of the same key.
type Subscription[T any] struct {
	updates chan T
	cancel  func()
	once    sync.Once
}

// Updates delivers snapshots, newest first when the consumer lags: the feed
// keeps a single buffered value and overwrites it, so a slow reader skips
// intermediate states instead of blocking the publisher.
func (s *Subscription[T]) Updates() <-chan T {
	return s.updates
}

// Cancel detaches the subscription and closes its channel. Safe to call more
// than once.
func (s *Subscription[T]) Cancel() {
	s.once.Do(s.cancel)
}

// Registry tracks which keys have live consumers and fans each published
// snapshot out to all of them. It is the in-process side of the subscription
// layer; the Watcher feeds it from the gateway's change stream.
//
// Registry is safe for concurrent use by multiple goroutines.
type Registry[T any] struct {
	mu   sync.Mutex
	subs map[string]map[*Subscription[T]]struct{}
}

func NewRegistry[T any]() *Registry[T] {
	return &Registry[T]{subs: make(map[string]map[*Subscription[T]]struct{})}
}

// Attach registers a new consumer for key and seeds it with the current
// snapshot, so an observer immediately sees state before the next change.
func (r *Registry[T]) Attach(key string, seed T) *Subscription[T] {
	r.mu.Lock()
	defer r.mu.Unlock()

	sub := &Subscription[T]{updates: make(chan T, 1)}
	sub.cancel = func() { r.detach(key, sub) }

	if _, ok := r.subs[key]; !ok {
		r.subs[key] = make(map[*Subscription[T]]struct{})
	}
	r.subs[key][sub] = struct{}{}
	sub.updates <- seed
	return sub
}

// Watched reports whether any consumer is attached to key. The Watcher uses
// it to skip re-reads of documents nobody observes.
func (r *Registry[T]) Watched(key string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.subs[key]) > 0
}

// Publish delivers a snapshot to every consumer of key. Each subscription
// channel holds at most one pending value: a stale pending snapshot is
// dropped in favor of the new one.
func (r *Registry[T]) Publish(key string, value T) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for sub := range r.subs[key] {
		select {
		case sub.updates <- value:
		default:
			select {
			case <-sub.updates:
			default:
			}
			sub.updates <- value
		}
	}
}

// CloseKey terminates every feed on key, e.g. when the watched discussion
// has been deleted. Consumers observe the channel closing.
func (r *Registry[T]) CloseKey(key string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for sub := range r.subs[key] {
		close(sub.updates)
	}
	delete(r.subs, key)
}

func (r *Registry[T]) detach(key string, sub *Subscription[T]) {
	r.mu.Lock()
	defer r.mu.Unlock()
	members, ok := r.subs[key]
	if !ok {
		return
	}
	if _, attached := members[sub]; !attached {
		// CloseKey already closed the channel.
		return
	}
	delete(members, sub)
	close(sub.updates)

	// If no one is left watching the key, remove the entry entirely
	if len(members) == 0 {
		delete(r.subs, key)
	}
}
