package chat

import (
	"sort"
	"sync"
)

// Registry maps a handle to the channel currently registered under it.
// It only holds references; closing channels is the transport's business.
type Registry struct {
	mu      sync.RWMutex
	clients map[string]Channel // handle -> channel
}

func NewRegistry() *Registry {
	return &Registry{clients: map[string]Channel{}}
}

// Register inserts or replaces. A superseded channel is left open.
func (r *Registry) Register(handle string, ch Channel) {
	r.mu.Lock()
	r.clients[handle] = ch
	r.mu.Unlock()
}

// Unregister removes handle only while it still points at ch, so a late
// disconnect from a replaced connection cannot evict the newer one.
func (r *Registry) Unregister(handle string, ch Channel) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.clients[handle]
	if !ok || cur != ch {
		return false
	}
	delete(r.clients, handle)
	return true
}

func (r *Registry) Lookup(handle string) (Channel, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ch, ok := r.clients[handle]
	return ch, ok
}

// Snapshot copies the registered channels under the read lock.
func (r *Registry) Snapshot() []Channel {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Channel, 0, len(r.clients))
	for _, ch := range r.clients {
		out = append(out, ch)
	}
	return out
}

// Handles returns the online handles sorted by name.
func (r *Registry) Handles() []string {
	r.mu.RLock()
	out := make([]string, 0, len(r.clients))
	for h := range r.clients {
		out = append(out, h)
	}
	r.mu.RUnlock()
	sort.Strings(out)
	return out
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.clients)
}
