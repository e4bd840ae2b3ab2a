// Package presence tracks which users currently hold a live connection.
// The registry is the only mutable shared state of the delivery path; it is
// process-local and rebuilt from nothing on restart.
package presence

import (
	"sort"
	"sync"
)

// Conn is a live transport session able to push named events to one client.
type Conn interface {
	Send(event string, payload any) error
}

// Registry maps online user ids to their single live connection. A new
// connection for the same user supersedes the prior one; it never queues
// alongside it.
type Registry struct {
	mu    sync.Mutex
	conns map[string]Conn
}

func NewRegistry() *Registry {
	return &Registry{conns: make(map[string]Conn)}
}

// Register inserts or replaces the mapping for userID and returns the
// superseded connection, if any. The registry does not close the old handle;
// that is a connection-lifecycle decision left to the caller.
func (r *Registry) Register(userID string, c Conn) (prev Conn, replaced bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	prev, replaced = r.conns[userID]
	r.conns[userID] = c
	return prev, replaced
}

// Unregister removes the mapping for userID only if c is still the registered
// handle, and reports whether the registry changed. The identity check keeps a
// user online when an older tab disconnects after a newer one superseded it.
func (r *Registry) Unregister(userID string, c Conn) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if cur, ok := r.conns[userID]; ok && cur == c {
		delete(r.conns, userID)
		return true
	}
	return false
}

// Lookup returns the live connection for userID, if one is registered.
func (r *Registry) Lookup(userID string) (Conn, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.conns[userID]
	return c, ok
}

// OnlineIDs returns the sorted set of currently online user ids.
func (r *Registry) OnlineIDs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]string, 0, len(r.conns))
	for id := range r.conns {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Connections returns every open connection, for broadcasting.
func (r *Registry) Connections() []Conn {
	r.mu.Lock()
	defer r.mu.Unlock()
	conns := make([]Conn, 0, len(r.conns))
	for _, c := range r.conns {
		conns = append(conns, c)
	}
	return conns
}
