package handler

import (
	"github.com/RPwnage/EA-Software-sub002/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// EventsHandler serves the WebSocket event feed for harness clients.
type EventsHandler struct {
	hub    *service.EventHub
	logger *zap.Logger
}

// NewEventsHandler creates the events handler.
func NewEventsHandler(hub *service.EventHub, logger *zap.Logger) *EventsHandler {
	return &EventsHandler{hub: hub, logger: logger}
}

// ServeWS upgrades the request and streams directory lifecycle events until
// the client disconnects.
func (h *EventsHandler) ServeWS(c *gin.Context) {
	conn, err := h.hub.Upgrader().Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	sub, cleanup := h.hub.Register(conn)
	defer cleanup()

	go h.writePump(sub)
	h.readPump(sub)
}

// readPump drains the connection so close frames are processed; subscribers
// never send payloads.
func (h *EventsHandler) readPump(s *service.Subscriber) {
	defer func() {
		_ = s.Conn.Close()
	}()
	for {
		if _, _, err := s.Conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.logger.Debug("read error", zap.Error(err))
			}
			break
		}
	}
}

func (h *EventsHandler) writePump(s *service.Subscriber) {
	defer func() {
		_ = s.Conn.Close()
	}()
	for data := range s.Send {
		if err := s.Conn.WriteMessage(websocket.TextMessage, data); err != nil {
			break
		}
	}
}
