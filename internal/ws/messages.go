package ws

import (
	"encoding/json"
	"time"

	"chatrelaygo/internal/services/chat"
)

// Envelope wraps every WS frame, inbound and outbound.
type Envelope struct {
	Event string          `json:"event"`          // e.g. "joinRoom"
	Body  json.RawMessage `json:"body,omitempty"` // event payload
}

// ──────────────────────────── Request DTOs ───────────────────────────────────

type CreateRoomRequest struct {
	Username string `json:"username"`
}

type JoinRoomRequest struct {
	RoomCode string `json:"roomCode"`
	Username string `json:"username"`
}

type LeaveRoomRequest struct {
	RoomCode string `json:"roomCode"`
}

// ChatMessageRequest is fire-and-forget: it never produces an ack, and an
// invalid one is dropped without feedback.
type ChatMessageRequest struct {
	RoomCode string `json:"roomCode"`
	Username string `json:"username"`
	Message  string `json:"message"`
}

// ──────────────────────────── Ack / broadcast DTOs ───────────────────────────

type RoomAck struct {
	Success  bool   `json:"success"`
	RoomCode string `json:"roomCode,omitempty"`
}

type LeaveAck struct {
	Success bool `json:"success"`
}

// ErrorAck is the negative acknowledgment for any failed request.
type ErrorAck struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// RoomUpdateEvent carries the roster after every membership change.
type RoomUpdateEvent struct {
	Users []chat.RosterEntry `json:"users"`
}

type ChatMessageEvent struct {
	Username string    `json:"username"`
	Message  string    `json:"message"`
	Time     time.Time `json:"time"`
}
