package http_server

import (
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chatrelaygo/internal/services/chat"
	"chatrelaygo/internal/ws"
)

func TestDisposeDrainsAfterSignalCancel(t *testing.T) {
	gin.SetMode(gin.TestMode)

	chatSvc := chat.NewChatService(4, 100)
	wsSrv := ws.NewWsServer(ws.NewHub(), chatSvc, nil)
	h := NewHttpServer(0, wsSrv, chatSvc)

	require.NoError(t, h.listen())
	baseURL := "http://" + h.ln.Addr().String()

	serveErr := make(chan error, 1)
	go func() { serveErr <- h.srv.Serve(h.ln) }()

	resp, err := http.Get(baseURL + "/health")
	require.NoError(t, err)
	_ = resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// Dispose runs after the process signal context has fired; the drain
	// must still complete cleanly rather than inherit that cancellation.
	assert.NoError(t, h.Dispose())

	select {
	case err := <-serveErr:
		assert.ErrorIs(t, err, http.ErrServerClosed)
	case <-time.After(2 * time.Second):
		t.Fatal("server did not stop")
	}

	_, err = http.Get(baseURL + "/health")
	assert.Error(t, err)
}
