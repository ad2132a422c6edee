// Package server defines the wire frames exchanged with clients and utility
// helpers reused across client and hub logic.
package server

import "strings"

// Inbound event names accepted from clients.
const (
	EventEnterRoom = "enterRoom"
	EventMessage   = "message"
	EventActivity  = "activity"
)

// Outbound event names emitted to clients. EventMessage is used in both
// directions.
const (
	EventUserList = "userList"
	EventRoomList = "roomList"
)

// InboundEvent is the JSON frame clients send. The event name selects the
// handler; the remaining fields are that handler's payload.
type InboundEvent struct {
	Event string `json:"event"`
	Name  string `json:"name,omitempty"`
	Room  string `json:"room,omitempty"`
	Text  string `json:"text,omitempty"`
}

// OutboundEvent is the JSON frame sent to clients: an event name plus its
// payload.
type OutboundEvent struct {
	Event   string `json:"event"`
	Payload any    `json:"payload"`
}

// UserRef identifies one room member in a userList payload.
type UserRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// UserListPayload carries the full member list of a room.
type UserListPayload struct {
	Room  string    `json:"room"`
	Users []UserRef `json:"users"`
}

// RoomListPayload carries the distinct names of every active room.
type RoomListPayload struct {
	Rooms []string `json:"rooms"`
}

// isExpectedCloseError checks if an error is expected during connection closure.
func isExpectedCloseError(err error) bool {
	if err == nil {
		return true
	}
	errStr := err.Error()
	return strings.Contains(errStr, "use of closed network connection") ||
		strings.Contains(errStr, "websocket: close sent") ||
		strings.Contains(errStr, "broken pipe")
}
