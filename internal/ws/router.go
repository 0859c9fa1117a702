package ws

import (
	"encoding/json"
	"errors"
	"sync"
)

var errUnknownEvent = errors.New("unknown_event")

// ConnContext carries the per-connection state handlers need.
type ConnContext struct {
	ConnID string
	Conn   *clientConn
	Server *WsServer
}

// internal (untyped) handler signature. A nil result with a nil error
// means "no acknowledgment frame".
type rawHandler func(c *ConnContext, body json.RawMessage) (any, error)

// Router keeps a map[event]handler, à-la gin.Engine.
type Router struct {
	mu       sync.RWMutex
	handlers map[string]rawHandler
}

func NewRouter() *Router { return &Router{handlers: make(map[string]rawHandler)} }

// Register binds an event to a strongly-typed handler whose result is
// acknowledged back to the sender.
func Register[Req any, Res any](
	r *Router,
	event string,
	h func(c *ConnContext, req Req) (Res, error),
) {
	r.register(event, func(c *ConnContext, body json.RawMessage) (any, error) {
		var req Req
		if len(body) > 0 {
			if err := json.Unmarshal(body, &req); err != nil {
				return nil, err
			}
		}
		return h(c, req)
	})
}

// RegisterEvent binds a fire-and-forget event: no acknowledgment is sent
// regardless of outcome.
func RegisterEvent[Req any](
	r *Router,
	event string,
	h func(c *ConnContext, req Req),
) {
	r.register(event, func(c *ConnContext, body json.RawMessage) (any, error) {
		var req Req
		if len(body) > 0 {
			if err := json.Unmarshal(body, &req); err != nil {
				return nil, nil // malformed fire-and-forget frames are dropped
			}
		}
		h(c, req)
		return nil, nil
	})
}

func (r *Router) register(event string, h rawHandler) {
	if event == "" {
		panic("ws router: empty event")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[event] = h
}

// dispatch is called by the server's reader loop.
func (r *Router) dispatch(c *ConnContext, env Envelope) (any, error) {
	r.mu.RLock()
	h, ok := r.handlers[env.Event]
	r.mu.RUnlock()
	if !ok {
		return nil, errUnknownEvent
	}
	return h(c, env.Body)
}
