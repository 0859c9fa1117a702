package ws

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"chatrelaygo/internal/services/chat"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 54 * time.Second // must be < pongWait
	maxMessageSize = 4096
)

// errInternal is the generic negative ack for panics and other faults a
// client gets no detail about.
var errInternal = errors.New("Internal server error")

type WsServer struct {
	hub      *Hub
	router   *Router
	chatSvc  chat.IChatService
	upgrader websocket.Upgrader
}

func NewWsServer(h *Hub, chatSvc chat.IChatService, allowedOrigins []string) *WsServer {
	srv := &WsServer{
		hub:     h,
		router:  NewRouter(),
		chatSvc: chatSvc,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
	}
	srv.registerHandlers() // ← all WS endpoints configured here
	return srv
}

// ---------------------------------------------------------------------------
//  Public: Gin entry-point
// ---------------------------------------------------------------------------

func (s *WsServer) Handle(ginCtx *gin.Context) {
	rawConn, err := s.upgrader.Upgrade(ginCtx.Writer, ginCtx.Request, nil)
	if err != nil {
		zap.L().Warn("ws.upgrade", zap.Error(err))
		return
	}
	rawConn.SetReadLimit(maxMessageSize)

	conn := &clientConn{id: uuid.NewString(), rawConn: rawConn}
	zap.L().Info("ws.connected",
		zap.String("conn_id", conn.id),
		zap.String("remote", rawConn.RemoteAddr().String()))

	go s.reader(conn)
	go s.pinger(conn)
}

// ---------------------------------------------------------------------------
//  Event handlers
// ---------------------------------------------------------------------------

func (s *WsServer) registerHandlers() {
	// 🔹 createRoom -----------------------------------------------------------
	Register(
		s.router,
		"createRoom",
		func(cc *ConnContext, req CreateRoomRequest) (RoomAck, error) {
			code, roster, departed, err := s.chatSvc.CreateRoom(req.Username, cc.ConnID)
			if err != nil {
				return RoomAck{}, errInternal
			}
			s.applyDeparture(cc.Conn, departed)
			s.hub.Join(code, cc.Conn)
			s.hub.Broadcast(code, "roomUpdate", RoomUpdateEvent{Users: roster})
			return RoomAck{Success: true, RoomCode: code}, nil
		},
	)

	// 🔹 joinRoom -------------------------------------------------------------
	Register(
		s.router,
		"joinRoom",
		func(cc *ConnContext, req JoinRoomRequest) (RoomAck, error) {
			roster, departed, err := s.chatSvc.JoinRoom(req.RoomCode, req.Username, cc.ConnID)
			if err != nil {
				return RoomAck{}, err
			}
			s.applyDeparture(cc.Conn, departed)
			s.hub.Join(req.RoomCode, cc.Conn)
			s.hub.Broadcast(req.RoomCode, "roomUpdate", RoomUpdateEvent{Users: roster})
			return RoomAck{Success: true, RoomCode: req.RoomCode}, nil
		},
	)

	// 🔹 leaveRoom ------------------------------------------------------------
	// The recorded association decides which room the connection leaves;
	// the client-supplied room code is advisory. Always succeeds.
	Register(
		s.router,
		"leaveRoom",
		func(cc *ConnContext, _ LeaveRoomRequest) (LeaveAck, error) {
			if departed, ok := s.chatSvc.Detach(cc.ConnID); ok {
				s.applyDeparture(cc.Conn, departed)
			}
			return LeaveAck{Success: true}, nil
		},
	)

	// 🔹 chatMessage ----------------------------------------------------------
	RegisterEvent(
		s.router,
		"chatMessage",
		func(cc *ConnContext, req ChatMessageRequest) {
			msg, ok := s.chatSvc.SendMessage(req.RoomCode, req.Username, req.Message, cc.ConnID)
			if !ok {
				return // silent drop
			}
			s.hub.Broadcast(req.RoomCode, "chatMessage", ChatMessageEvent{
				Username: msg.Username,
				Message:  msg.Text,
				Time:     msg.SentAt,
			})
		},
	)
}

// ---------------------------------------------------------------------------
//  Private helpers
// ---------------------------------------------------------------------------

// applyDeparture mirrors a chat-core detach on the transport side: the
// socket leaves the hub room, and survivors get the fresh roster. A room
// that died with the detach broadcasts nothing.
func (s *WsServer) applyDeparture(conn *clientConn, departed *chat.Departure) {
	if departed == nil {
		return
	}
	s.hub.Leave(departed.RoomCode, conn)
	if departed.Survived {
		s.hub.Broadcast(departed.RoomCode, "roomUpdate", RoomUpdateEvent{Users: departed.Roster})
	}
}

func (s *WsServer) reader(conn *clientConn) {
	defer func() {
		// Disconnect gets the exact treatment of an explicit leave, keyed
		// off the recorded association instead of a client payload.
		if departed, ok := s.chatSvc.Detach(conn.id); ok {
			s.applyDeparture(conn, departed)
		}
		conn.close()
		zap.L().Info("ws.disconnected", zap.String("conn_id", conn.id))
	}()

	_ = conn.rawConn.SetReadDeadline(time.Now().Add(pongWait))
	conn.rawConn.SetPongHandler(func(string) error {
		return conn.rawConn.SetReadDeadline(time.Now().Add(pongWait))
	})

	cc := &ConnContext{ConnID: conn.id, Conn: conn, Server: s}

	for {
		var env Envelope
		if err := conn.rawConn.ReadJSON(&env); err != nil {
			return // client closed or errored
		}

		res, err := s.dispatch(cc, env)

		// ---- failure -> {"event":"<evt>-ack", "body":{success:false}} ----
		if err != nil {
			_ = conn.writeJSON(map[string]any{
				"event": env.Event + "-ack",
				"body":  ErrorAck{Error: err.Error()},
			})
			continue
		}

		// ---- success -> {"event":"<evt>-ack", "body":{...}} --------------
		if res == nil {
			continue // fire-and-forget event
		}
		_ = conn.writeJSON(map[string]any{
			"event": env.Event + "-ack",
			"body":  res,
		})
	}
}

// dispatch isolates handler faults: a panic in one connection's event is
// logged and acked as a generic failure, never taking the process down.
func (s *WsServer) dispatch(cc *ConnContext, env Envelope) (res any, err error) {
	defer func() {
		if r := recover(); r != nil {
			zap.L().Error("ws.handler_panic",
				zap.String("event", env.Event),
				zap.String("conn_id", cc.ConnID),
				zap.Any("panic", r))
			res, err = nil, errInternal
		}
	}()
	return s.router.dispatch(cc, env)
}

func (s *WsServer) pinger(conn *clientConn) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for range ticker.C {
		if err := conn.ping(); err != nil {
			conn.close()
			return
		}
	}
}
