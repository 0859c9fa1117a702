package http_server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"chatrelaygo/internal/http/healthhandler"
	"chatrelaygo/internal/services/chat"
	"chatrelaygo/internal/ws"
)

type httpServer struct {
	listenPort uint16
	srv        http.Server
	ln         net.Listener
	chatSvc    chat.IChatService
	wsSrv      *ws.WsServer
}

func NewHttpServer(listenPort uint16, wsSrv *ws.WsServer, chatSvc chat.IChatService) *httpServer {
	return &httpServer{
		listenPort: listenPort,
		wsSrv:      wsSrv,
		chatSvc:    chatSvc,
	}
}

func (h *httpServer) Start() error {
	if err := h.listen(); err != nil {
		return err
	}
	zap.L().Info("http_listen", zap.String("addr", h.ln.Addr().String()))
	return h.srv.Serve(h.ln)
}

// listen binds the port and wires the router; serving starts in Start.
func (h *httpServer) listen() error {
	var err error
	listenAddr := fmt.Sprintf(":%d", h.listenPort)
	h.ln, err = net.Listen("tcp", listenAddr)
	if err != nil {
		return err
	}

	routerEngine := gin.New()

	routerEngine.Use(ginzap.Ginzap(zap.L(), time.RFC3339, true))
	routerEngine.Use(ginzap.RecoveryWithZap(zap.L(), true))

	// websocket endpoint
	routerEngine.GET("/ws", h.wsSrv.Handle)

	// health / status
	hh := healthhandler.New(h.chatSvc)
	hh.Register(routerEngine)

	h.srv = http.Server{
		Handler: routerEngine,
	}
	return nil
}

// Dispose gracefully shuts the HTTP server down.
// It waits up to 10 s for in-flight requests to finish. The drain window
// is rooted in a fresh context: Dispose runs after the process signal
// context has fired, and a timeout parented there would already be done.
func (h *httpServer) Dispose() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := h.srv.Shutdown(ctx); err != nil {
		zap.L().Error("http_dispose", zap.Error(err))
		return err // e.g. active conns didn't finish in time
	}
	return nil
}
