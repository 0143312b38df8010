package realtime

import (
	"sort"
	"sync"
)

// Registry maps each user to the set of their live connection ids.
// A user is online while the set is non-empty.
type Registry struct {
	mu    sync.Mutex
	conns map[string]map[string]struct{}
}

func NewRegistry() *Registry {
	return &Registry{conns: make(map[string]map[string]struct{})}
}

// Register adds connID under userID and reports whether this was the user's first connection
func (r *Registry) Register(userID, connID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	set, ok := r.conns[userID]
	if !ok {
		set = make(map[string]struct{})
		r.conns[userID] = set
	}
	set[connID] = struct{}{}
	return !ok
}

// Unregister removes connID and reports whether it was the user's last connection.
// Unknown ids are ignored.
func (r *Registry) Unregister(userID, connID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	set, ok := r.conns[userID]
	if !ok {
		return false
	}
	if _, ok := set[connID]; !ok {
		return false
	}
	delete(set, connID)
	if len(set) > 0 {
		return false
	}
	delete(r.conns, userID)
	return true
}

// Snapshot returns the sorted ids of online users other than exclude
func (r *Registry) Snapshot(exclude string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	ids := make([]string, 0, len(r.conns))
	for id := range r.conns {
		if id != exclude {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

func (r *Registry) IsOnline(userID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.conns[userID]
	return ok
}

// Connections returns how many live connections userID holds
func (r *Registry) Connections(userID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.conns[userID])
}

// OnlineCount returns the number of online users
func (r *Registry) OnlineCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.conns)
}
