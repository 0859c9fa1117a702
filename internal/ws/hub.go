package ws

import (
	"encoding/json"
	"sync"

	"go.uber.org/zap"
)

// Hub keeps connection sets per room code. Rooms here mirror the chat
// service's rooms but hold sockets, not usernames; a hub room disappears
// as soon as its last socket leaves.
type Hub struct {
	mu    sync.Mutex
	rooms map[string]*room
}

func NewHub() *Hub { return &Hub{rooms: make(map[string]*room)} }

func (h *Hub) Join(code string, c *clientConn) {
	h.mu.Lock()
	r, ok := h.rooms[code]
	if !ok {
		r = newRoom()
		h.rooms[code] = r
	}
	h.mu.Unlock()
	r.add(c)
}

func (h *Hub) Leave(code string, c *clientConn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	r, ok := h.rooms[code]
	if !ok {
		return
	}
	r.remove(c)
	if r.empty() {
		delete(h.rooms, code)
	}
}

// Broadcast fans an event out to every socket in the room, marshalling
// the envelope once. Delivery is best-effort and never awaited.
func (h *Hub) Broadcast(code, event string, body any) {
	h.mu.Lock()
	r, ok := h.rooms[code]
	h.mu.Unlock()
	if !ok {
		return
	}
	raw, err := json.Marshal(body)
	if err != nil {
		zap.L().Warn("ws.broadcast_marshal", zap.String("event", event), zap.Error(err))
		return
	}
	msg, _ := json.Marshal(Envelope{Event: event, Body: raw})
	r.broadcast(msg)
}
