// Package server tracks which connection belongs to which room via the
// Registry type, the single source of truth for membership.
package server

import "sync"

// Connection is the registry's record of one live client session. Values are
// copied out of the registry; no caller mutates a record in place.
type Connection struct {
	ID   string
	Name string
	Room string
}

// Registry maps connection ids to their current name and room. All access is
// serialized through a single RWMutex so concurrent events for the same id
// resolve as two ordered operations.
type Registry struct {
	mu    sync.RWMutex
	conns map[string]Connection
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		conns: make(map[string]Connection),
	}
}

// Upsert inserts or replaces the entry for id and returns the stored record.
// A connection is in at most one room, so a re-join simply overwrites the
// previous room.
func (r *Registry) Upsert(id, name, room string) Connection {
	conn := Connection{ID: id, Name: name, Room: room}

	r.mu.Lock()
	r.conns[id] = conn
	r.mu.Unlock()

	return conn
}

// Get returns the entry for id. The second value is false when the id is
// unknown, which callers treat as a normal non-fatal case.
func (r *Registry) Get(id string) (Connection, bool) {
	r.mu.RLock()
	conn, ok := r.conns[id]
	r.mu.RUnlock()
	return conn, ok
}

// Remove deletes and returns the prior entry for id. The second value is
// false when there was nothing to remove; a second racing removal for the
// same id observes absence and no-ops.
func (r *Registry) Remove(id string) (Connection, bool) {
	r.mu.Lock()
	conn, ok := r.conns[id]
	if ok {
		delete(r.conns, id)
	}
	r.mu.Unlock()
	return conn, ok
}

// Snapshot returns a consistent copy of every entry at the instant of the
// call. Derivations over the snapshot never see a torn view.
func (r *Registry) Snapshot() []Connection {
	r.mu.RLock()
	conns := make([]Connection, 0, len(r.conns))
	for _, conn := range r.conns {
		conns = append(conns, conn)
	}
	r.mu.RUnlock()
	return conns
}

// Len reports the number of registered connections.
func (r *Registry) Len() int {
	r.mu.RLock()
	n := len(r.conns)
	r.mu.RUnlock()
	return n
}
