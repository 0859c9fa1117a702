package healthhandler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chatrelaygo/internal/services/chat"
)

func getHealth(t *testing.T, engine *gin.Engine) HealthResponse {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestHealthReportsLiveRoomCount(t *testing.T) {
	gin.SetMode(gin.TestMode)

	svc := chat.NewChatService(4, 100)
	engine := gin.New()
	New(svc).Register(engine)

	body := getHealth(t, engine)
	assert.Equal(t, "ok", body.Status)
	assert.Equal(t, 0, body.Rooms)

	_, _, _, err := svc.CreateRoom("alice", "c1")
	require.NoError(t, err)
	_, _, _, err = svc.CreateRoom("bob", "c2")
	require.NoError(t, err)

	body = getHealth(t, engine)
	assert.Equal(t, 2, body.Rooms)

	_, ok := svc.Detach("c1")
	require.True(t, ok)

	body = getHealth(t, engine)
	assert.Equal(t, 1, body.Rooms)
}
