package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"chatrelaygo/internal/config"
	"chatrelaygo/internal/http/http_server"
	"chatrelaygo/internal/services/chat"
	"chatrelaygo/internal/ws"
)

var (
	Log, _ = zap.NewDevelopment()
)

func main() {
	defer Log.Sync()
	zap.ReplaceGlobals(Log)

	// 1. Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		Log.Fatal("Failed to load configuration", zap.Error(err))
	}
	Log.Debug("Configuration loaded successfully", zap.Any("config", cfg))

	// 2. Context with signal handling
	ctx, stop := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGINT, syscall.SIGTERM,
	)
	defer stop()

	// 3. Chat core: room store, membership, message buffer
	chatService := chat.NewChatService(cfg.RoomCapacity, cfg.MessageBufferCap)

	// 4. WebSockets hub + server
	hub := ws.NewHub()
	wsSrv := ws.NewWsServer(hub, chatService, cfg.AllowedOrigins)

	// 5. HTTP + WS server
	httpServer := http_server.NewHttpServer(cfg.HttpServerPort, wsSrv, chatService)
	go func() {
		if err := httpServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			Log.Fatal("Failed to start HTTP server", zap.Error(err))
		}
	}()

	// 6. Block until shutdown signal, then drain
	<-ctx.Done()
	if err := httpServer.Dispose(); err != nil {
		Log.Error("Shutdown failed", zap.Error(err))
	}
}
