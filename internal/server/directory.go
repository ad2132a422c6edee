// Package server derives room membership views from the Registry via the
// Directory type. Rooms are never stored: a room exists exactly while at
// least one connection references it.
package server

import "sort"

// Directory answers membership queries over the registry's state at call
// time. It holds no state of its own, so there is nothing to invalidate when
// rooms appear or empty out.
type Directory struct {
	registry *Registry
}

// NewDirectory creates a Directory deriving from the given registry.
func NewDirectory(registry *Registry) *Directory {
	return &Directory{registry: registry}
}

// MembersOf returns every connection currently in the given room. The result
// is computed from a single registry snapshot, so it contains no duplicates
// and no half-applied mutations.
func (d *Directory) MembersOf(room string) []Connection {
	if room == "" {
		return nil
	}

	var members []Connection
	for _, conn := range d.registry.Snapshot() {
		if conn.Room == room {
			members = append(members, conn)
		}
	}
	return members
}

// AllRoomNames returns the distinct room names currently in use, sorted so
// repeated derivations over the same state produce identical lists.
func (d *Directory) AllRoomNames() []string {
	seen := make(map[string]struct{})
	var rooms []string
	for _, conn := range d.registry.Snapshot() {
		if conn.Room == "" {
			continue
		}
		if _, ok := seen[conn.Room]; ok {
			continue
		}
		seen[conn.Room] = struct{}{}
		rooms = append(rooms, conn.Room)
	}

	sort.Strings(rooms)
	return rooms
}
