package healthhandler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"chatrelaygo/internal/services/chat"
)

type Handler struct {
	svc chat.IChatService
}

func New(svc chat.IChatService) *Handler { return &Handler{svc: svc} }

func (h *Handler) Register(r gin.IRoutes) {
	r.GET("/health", h.health)
}

// HealthResponse exposes the live room count and nothing about the rooms
// themselves.
type HealthResponse struct {
	Status string `json:"status"`
	Rooms  int    `json:"rooms"`
}

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{Status: "ok", Rooms: h.svc.RoomCount()})
}
