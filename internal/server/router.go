// Package server routes inbound client events to the connections that must
// see their effects. The Router owns every broadcast-routing decision; the
// transport behind the Emitter interface only delivers.
package server

import "log"

const welcomeText = "Welcome to Roomcast!"

// Emitter is the capability surface the router requires from the transport
// layer. Emits are fire-and-forget: the router never waits on delivery
// before making further membership decisions.
type Emitter interface {
	// EmitTo sends an event to a single connection.
	EmitTo(id, event string, payload any)
	// EmitToRoom sends an event to every connection in a room, skipping
	// excludeID when non-empty.
	EmitToRoom(room, event string, payload any, excludeID string)
	// EmitToAll sends an event to every connection.
	EmitToAll(event string, payload any)
}

type eventHandler func(id string, ev InboundEvent) error

// Router applies the per-connection state machine: Unjoined, InRoom, and
// terminal Disconnected. It reads and mutates the registry, queries the
// directory for current membership, and emits through the transport adapter.
type Router struct {
	registry  *Registry
	directory *Directory
	formatter *Formatter
	emitter   Emitter
	handlers  map[string]eventHandler
}

// NewRouter creates a Router dispatching events against the given registry,
// directory, and formatter, emitting through the given transport.
func NewRouter(registry *Registry, directory *Directory, formatter *Formatter, emitter Emitter) *Router {
	rt := &Router{
		registry:  registry,
		directory: directory,
		formatter: formatter,
		emitter:   emitter,
	}
	rt.handlers = map[string]eventHandler{
		EventEnterRoom: rt.handleEnterRoom,
		EventMessage:   rt.handleMessage,
		EventActivity:  rt.handleActivity,
	}
	return rt
}

// Dispatch routes one inbound event from the given connection. Invalid or
// unroutable events are logged and dropped; nothing here is fatal.
func (rt *Router) Dispatch(id string, ev InboundEvent) {
	handler, ok := rt.handlers[ev.Event]
	if !ok {
		log.Printf("Dropping unknown event %q from connection %s", ev.Event, id)
		return
	}

	if err := handler(id, ev); err != nil {
		log.Printf("Dropping %q event from connection %s: %v", ev.Event, id, err)
	}
}

// HandleConnect greets a freshly connected transport. The registry is not
// touched; a connection has no entry until it joins a room.
func (rt *Router) HandleConnect(id string) {
	rt.emitAnnouncementTo(id, welcomeText)
}

// HandleDisconnect removes the connection and, when it had a room, announces
// the departure to the remaining members and refreshes the derived lists.
// A second disconnect for the same id finds the entry already absent and
// emits nothing.
func (rt *Router) HandleDisconnect(id string) {
	conn, ok := rt.registry.Remove(id)
	if !ok {
		return
	}

	if conn.Room == "" {
		return
	}

	rt.emitAnnouncementToRoom(conn.Room, conn.Name+" has left the room", "")
	rt.emitUserList(conn.Room)
	rt.emitRoomList()
}

// handleEnterRoom moves the connection into a room. The previous room's
// departure announcement and member-list refresh use post-mutation
// membership, so the registry must already reflect the move before either
// room is told about it.
func (rt *Router) handleEnterRoom(id string, ev InboundEvent) error {
	if ev.Name == "" {
		return &ValidationError{Field: "name"}
	}
	if ev.Room == "" {
		return &ValidationError{Field: "room"}
	}

	prev, hadPrev := rt.registry.Get(id)
	conn := rt.registry.Upsert(id, ev.Name, ev.Room)

	if hadPrev && prev.Room != "" {
		// Excluding the mover only matters on a same-room rejoin, where the
		// upsert has already put them back among the recipients.
		rt.emitAnnouncementToRoom(prev.Room, conn.Name+" has left the room", id)
		rt.emitUserList(prev.Room)
	}

	rt.emitAnnouncementTo(id, "You have joined the "+conn.Room+" chat room")
	rt.emitAnnouncementToRoom(conn.Room, conn.Name+" has joined the room", id)
	rt.emitUserList(conn.Room)
	rt.emitRoomList()
	return nil
}

// handleMessage fans a chat message out to every member of the sender's
// current room, sender included.
func (rt *Router) handleMessage(id string, ev InboundEvent) error {
	if ev.Name == "" {
		return &ValidationError{Field: "name"}
	}
	if ev.Text == "" {
		return &ValidationError{Field: "text"}
	}

	conn, ok := rt.registry.Get(id)
	if !ok {
		return ErrConnectionNotFound
	}
	if conn.Room == "" {
		return nil
	}

	envelope, err := rt.formatter.Message(ev.Name, ev.Text)
	if err != nil {
		log.Printf("Timestamp unavailable for message from connection %s: %v", id, err)
	}
	rt.emitter.EmitToRoom(conn.Room, EventMessage, envelope, "")
	return nil
}

// handleActivity relays a typing indicator to every other member of the
// sender's room.
func (rt *Router) handleActivity(id string, ev InboundEvent) error {
	conn, ok := rt.registry.Get(id)
	if !ok {
		return ErrConnectionNotFound
	}
	if conn.Room == "" {
		return nil
	}

	rt.emitter.EmitToRoom(conn.Room, EventActivity, ev.Name, id)
	return nil
}

func (rt *Router) emitAnnouncementTo(id, text string) {
	envelope, err := rt.formatter.Announcement(text)
	if err != nil {
		log.Printf("Timestamp unavailable for announcement to connection %s: %v", id, err)
	}
	rt.emitter.EmitTo(id, EventMessage, envelope)
}

func (rt *Router) emitAnnouncementToRoom(room, text, excludeID string) {
	envelope, err := rt.formatter.Announcement(text)
	if err != nil {
		log.Printf("Timestamp unavailable for announcement to room %q: %v", room, err)
	}
	rt.emitter.EmitToRoom(room, EventMessage, envelope, excludeID)
}

func (rt *Router) emitUserList(room string) {
	members := rt.directory.MembersOf(room)
	users := make([]UserRef, 0, len(members))
	for _, member := range members {
		users = append(users, UserRef{ID: member.ID, Name: member.Name})
	}
	rt.emitter.EmitToRoom(room, EventUserList, UserListPayload{Room: room, Users: users}, "")
}

func (rt *Router) emitRoomList() {
	rt.emitter.EmitToAll(EventRoomList, RoomListPayload{Rooms: rt.directory.AllRoomNames()})
}
