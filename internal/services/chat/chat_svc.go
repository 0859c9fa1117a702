package chat

import (
	"errors"
	"math/rand/v2"
	"slices"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	codeAlphabet    = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	codeLength      = 6
	codeMaxAttempts = 100
)

var (
	// Error strings double as the wire-level error payloads, hence the casing.
	ErrRoomNotFound = errors.New("Room not found")
	ErrRoomFull     = errors.New("Room is full")

	ErrCodeSpaceExhausted = errors.New("room code space exhausted")
)

// ChatMessage is one accepted chat line. Immutable once buffered.
type ChatMessage struct {
	Username string
	Text     string
	SentAt   time.Time
}

// UserEntry tracks every live connection currently representing one
// username inside a room. ConnIDs keeps insertion order; the first id is
// the roster display id. The entry exists iff ConnIDs is non-empty.
type UserEntry struct {
	Username string
	ConnIDs  []string
}

// Room is the unit of broadcast scope. Owned exclusively by the service;
// no caller retains a *Room across calls.
type Room struct {
	Code      string
	Users     map[string]*UserEntry
	Messages  []ChatMessage
	CreatedAt time.Time
}

// RosterEntry is the broadcast-safe membership view of one user.
type RosterEntry struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// Departure describes the room a connection was detached from. Roster is
// nil when the room did not survive the detach (last user left).
type Departure struct {
	RoomCode string
	Roster   []RosterEntry
	Survived bool
}

type connAssoc struct {
	roomCode string
	username string
}

type IChatService interface {
	// CreateRoom allocates a fresh room and joins the connection to it as
	// username. departed is non-nil when the connection was still attached
	// to another room and got detached first.
	CreateRoom(username, connID string) (code string, roster []RosterEntry, departed *Departure, err error)
	// JoinRoom attaches the connection to an existing room. Fails with
	// ErrRoomNotFound or ErrRoomFull; on failure any prior attachment is
	// left untouched.
	JoinRoom(code, username, connID string) (roster []RosterEntry, departed *Departure, err error)
	// Detach removes the connection from whatever room it is attached to.
	// ok is false when the connection had no attachment (idempotent).
	Detach(connID string) (departed *Departure, ok bool)
	// SendMessage validates that connID currently represents username in
	// the room, then buffers the trimmed message. Returns false on any
	// mismatch; the caller must not surface that to the sender.
	SendMessage(code, username, text, connID string) (ChatMessage, bool)
	// RoomCount reports the number of live rooms, for the health endpoint.
	RoomCount() int
}

type chatService struct {
	// mu is the whole concurrency model: every operation runs to
	// completion under it, so room mutations never interleave.
	mu       sync.Mutex
	rooms    map[string]*Room
	conns    map[string]connAssoc // connID -> current (room, username)
	capacity int
	bufCap   int
}

func NewChatService(capacity, bufferCap int) IChatService {
	return &chatService{
		rooms:    make(map[string]*Room),
		conns:    make(map[string]connAssoc),
		capacity: capacity,
		bufCap:   bufferCap,
	}
}

func (svc *chatService) CreateRoom(username, connID string) (string, []RosterEntry, *Departure, error) {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	code, err := svc.newCode()
	if err != nil {
		zap.L().Error("chat.code_exhausted", zap.Int("rooms", len(svc.rooms)))
		return "", nil, nil, err
	}

	departed := svc.detachLocked(connID)

	room := &Room{
		Code:      code,
		Users:     make(map[string]*UserEntry),
		CreatedAt: time.Now(),
	}
	svc.rooms[code] = room

	roster := svc.joinLocked(room, username, connID)
	zap.L().Info("chat.room_created",
		zap.String("room", code), zap.String("username", username))
	return code, roster, departed, nil
}

func (svc *chatService) JoinRoom(code, username, connID string) ([]RosterEntry, *Departure, error) {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	room, ok := svc.rooms[code]
	if !ok {
		return nil, nil, ErrRoomNotFound
	}
	// Capacity counts distinct usernames, never connections; a username
	// already present may always add another connection. Checked before
	// the detach below: a failed join must leave the connection's current
	// attachment untouched, so a full room refuses a new username even
	// from a connection already inside it under another name.
	if _, present := room.Users[username]; !present && len(room.Users) >= svc.capacity {
		return nil, nil, ErrRoomFull
	}

	departed := svc.detachLocked(connID)
	// The detach above may have emptied the target room itself (same-room
	// rejoin under a new username with no one else present).
	if _, alive := svc.rooms[code]; !alive {
		svc.rooms[code] = room
	}

	return svc.joinLocked(room, username, connID), departed, nil
}

func (svc *chatService) Detach(connID string) (*Departure, bool) {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	departed := svc.detachLocked(connID)
	if departed == nil {
		return nil, false
	}
	return departed, true
}

func (svc *chatService) SendMessage(code, username, text, connID string) (ChatMessage, bool) {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	room, ok := svc.rooms[code]
	if !ok {
		return ChatMessage{}, false
	}
	entry, ok := room.Users[username]
	if !ok || !slices.Contains(entry.ConnIDs, connID) {
		// Silent drop: a connection may only speak as the username it
		// joined with. No feedback reaches the sender.
		zap.L().Debug("chat.message_dropped",
			zap.String("room", code),
			zap.String("username", username),
			zap.String("conn_id", connID))
		return ChatMessage{}, false
	}

	msg := ChatMessage{
		Username: username,
		Text:     strings.TrimSpace(text),
		SentAt:   time.Now(),
	}
	room.Messages = append(room.Messages, msg)
	if len(room.Messages) > svc.bufCap {
		room.Messages = room.Messages[len(room.Messages)-svc.bufCap:]
	}
	return msg, true
}

func (svc *chatService) RoomCount() int {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	return len(svc.rooms)
}

// joinLocked adds connID under username and records the connection's
// association. The capacity check belongs to the caller.
func (svc *chatService) joinLocked(room *Room, username, connID string) []RosterEntry {
	entry, present := room.Users[username]
	switch {
	case present && slices.Contains(entry.ConnIDs, connID):
		zap.L().Info("chat.join_duplicate_conn",
			zap.String("room", room.Code),
			zap.String("username", username),
			zap.String("conn_id", connID))
	case present:
		entry.ConnIDs = append(entry.ConnIDs, connID)
	default:
		room.Users[username] = &UserEntry{Username: username, ConnIDs: []string{connID}}
	}
	svc.conns[connID] = connAssoc{roomCode: room.Code, username: username}
	return snapshot(room)
}

// detachLocked drops connID's association, shrinks or removes its
// UserEntry, and deletes the room the moment the last user is gone.
func (svc *chatService) detachLocked(connID string) *Departure {
	assoc, ok := svc.conns[connID]
	if !ok {
		return nil
	}
	delete(svc.conns, connID)

	room, ok := svc.rooms[assoc.roomCode]
	if !ok {
		return &Departure{RoomCode: assoc.roomCode}
	}
	if entry, ok := room.Users[assoc.username]; ok {
		entry.ConnIDs = slices.DeleteFunc(entry.ConnIDs, func(id string) bool { return id == connID })
		if len(entry.ConnIDs) == 0 {
			delete(room.Users, assoc.username)
		}
	}
	if len(room.Users) == 0 {
		delete(svc.rooms, assoc.roomCode)
		zap.L().Info("chat.room_deleted", zap.String("room", assoc.roomCode))
		return &Departure{RoomCode: assoc.roomCode}
	}
	return &Departure{
		RoomCode: assoc.roomCode,
		Roster:   snapshot(room),
		Survived: true,
	}
}

// newCode samples the base-36 code space until it finds a free code.
// Collisions are rare (36^6 codes); the attempt cap guards against a
// pathologically full store instead of looping forever.
func (svc *chatService) newCode() (string, error) {
	for attempt := 0; attempt < codeMaxAttempts; attempt++ {
		b := make([]byte, codeLength)
		for i := range b {
			b[i] = codeAlphabet[rand.IntN(len(codeAlphabet))]
		}
		code := string(b)
		if _, taken := svc.rooms[code]; !taken {
			return code, nil
		}
	}
	return "", ErrCodeSpaceExhausted
}

// snapshot derives the broadcast-safe roster: one entry per username,
// display id = the user's first live connection id. Sorted by username so
// every broadcast of the same membership is byte-identical.
func snapshot(room *Room) []RosterEntry {
	roster := make([]RosterEntry, 0, len(room.Users))
	for _, u := range room.Users {
		roster = append(roster, RosterEntry{ID: u.ConnIDs[0], Username: u.Username})
	}
	slices.SortFunc(roster, func(a, b RosterEntry) int {
		return strings.Compare(a.Username, b.Username)
	})
	return roster
}
