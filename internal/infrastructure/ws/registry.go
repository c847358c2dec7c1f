package ws

import "sync"

// Registry tracks which clients are currently interested in which routing
// key. It holds non-owning references only: the connection that created a
// client is responsible for unregistering it on every exit path.
//
// A single coarse lock guards the whole map. Subscriber sets keep insertion
// order and an empty set is pruned together with its key so an idle process
// holds no leftover entries.
type Registry struct {
	mu          sync.RWMutex
	subscribers map[RoutingKey][]*Client
}

func NewRegistry() *Registry {
	return &Registry{
		subscribers: make(map[RoutingKey][]*Client),
	}
}

// Register adds the client to the subscriber set for key, creating the set if
// absent. Registering the same client twice under one key causes duplicate
// delivery; callers register once per connection.
func (r *Registry) Register(key RoutingKey, client *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.subscribers[key] = append(r.subscribers[key], client)
	activeChannels.WithLabelValues(key.Scope().String()).Inc()
}

// Unregister removes the client from the set for key and prunes the key once
// the set is empty. It is a no-op when the key or the client is already gone,
// so teardown paths can call it unconditionally.
func (r *Registry) Unregister(key RoutingKey, client *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()

	set, ok := r.subscribers[key]
	if !ok {
		return
	}

	for i, existing := range set {
		if existing == client {
			r.subscribers[key] = append(set[:i], set[i+1:]...)
			activeChannels.WithLabelValues(key.Scope().String()).Dec()
			break
		}
	}

	if len(r.subscribers[key]) == 0 {
		delete(r.subscribers, key)
	}
}

// Subscribers returns a snapshot of the current set for key, safe to iterate
// while other goroutines mutate the registry.
func (r *Registry) Subscribers(key RoutingKey) []*Client {
	r.mu.RLock()
	defer r.mu.RUnlock()

	set, ok := r.subscribers[key]
	if !ok {
		return nil
	}

	snapshot := make([]*Client, len(set))
	copy(snapshot, set)
	return snapshot
}

// Keys reports how many keys currently have at least one subscriber.
func (r *Registry) Keys() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.subscribers)
}
