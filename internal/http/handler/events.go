package handler

import (
	"net/http"
	"time"

	"github.com/edirooss/avcapture-server/internal/events"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	wsPingInterval  = 54 * time.Second
	wsReadDeadline  = 60 * time.Second
	wsWriteDeadline = 10 * time.Second
	wsReadLimit     = 512
)

// EventsHandler streams hub events to WebSocket clients as JSON text
// messages. Clients only listen; anything they send is discarded.
type EventsHandler struct {
	log      *zap.Logger
	hub      *events.Hub
	upgrader websocket.Upgrader
}

func NewEventsHandler(log *zap.Logger, hub *events.Hub) *EventsHandler {
	return &EventsHandler{
		log: log.Named("ws"),
		hub: hub,
		upgrader: websocket.Upgrader{
			// the server binds to loopback; the UI may be served from anywhere
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Stream handles GET /events.
func (h *EventsHandler) Stream(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade has already written the HTTP error
		c.Error(err)
		return
	}

	ch, cancel := h.hub.Subscribe()
	h.log.Debug("client connected", zap.String("remote", conn.RemoteAddr().String()))

	closed := make(chan struct{})
	go h.readPump(conn, closed)
	h.writePump(conn, ch, closed)

	cancel()
	h.log.Debug("client disconnected", zap.String("remote", conn.RemoteAddr().String()))
}

// readPump drains the connection so control frames are processed, and
// closes done when the peer goes away.
func (h *EventsHandler) readPump(conn *websocket.Conn, done chan<- struct{}) {
	defer close(done)

	conn.SetReadLimit(wsReadLimit)
	conn.SetReadDeadline(time.Now().Add(wsReadDeadline))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(wsReadDeadline))
		return nil
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.log.Warn("websocket read failed", zap.Error(err))
			}
			return
		}
	}
}

func (h *EventsHandler) writePump(conn *websocket.Conn, ch <-chan events.Event, done <-chan struct{}) {
	ticker := time.NewTicker(wsPingInterval)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	for {
		select {
		case <-done:
			return

		case ev, ok := <-ch:
			conn.SetWriteDeadline(time.Now().Add(wsWriteDeadline))
			if !ok {
				conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteJSON(ev); err != nil {
				h.log.Warn("websocket write failed", zap.Error(err))
				return
			}

		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(wsWriteDeadline))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
