// Package ws streams coordinator lifecycle events to shell surfaces over
// WebSocket, so taskbars and badges repaint without polling.
package ws

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/SerVas333/WindowsLauncher-sub003/internal/domain/coordinator"
	"github.com/SerVas333/WindowsLauncher-sub003/internal/infrastructure/logging"
	"github.com/SerVas333/WindowsLauncher-sub003/internal/infrastructure/monitoring"
	"github.com/SerVas333/WindowsLauncher-sub003/internal/shared/types"
)

const (
	writeWait  = 5 * time.Second
	pingPeriod = 30 * time.Second
	// subscriberBuffer absorbs bursts; a client that cannot drain it loses
	// events and repaints from GET /instances.
	subscriberBuffer = 64
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// The service binds to the local shell surfaces only.
		return true
	},
}

// Handler manages event-stream connections.
type Handler struct {
	coord   *coordinator.Coordinator
	logger  *logging.Logger
	metrics *monitoring.Metrics
}

// NewHandler creates a WebSocket handler over the coordinator.
func NewHandler(coord *coordinator.Coordinator, logger *logging.Logger) *Handler {
	return &Handler{coord: coord, logger: logger.Named("ws")}
}

// WithMetrics adds metrics tracking.
func (h *Handler) WithMetrics(m *monitoring.Metrics) *Handler {
	h.metrics = m
	return h
}

// Stream upgrades the connection and forwards lifecycle events until the
// client goes away.
func (h *Handler) Stream(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	if h.metrics != nil {
		h.metrics.WSConnections.Inc()
		defer h.metrics.WSConnections.Dec()
	}

	sub := h.coord.Subscribe(subscriberBuffer)
	defer sub.Close()

	connID := uuid.NewString()
	h.logger.Info("event stream connected",
		zap.String("conn", connID),
		zap.String("remote", conn.RemoteAddr().String()),
	)

	// Reader: the client sends nothing meaningful, but the read loop is what
	// notices the connection dropping.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			h.logger.Info("event stream disconnected", zap.String("conn", connID))
			return
		case <-c.Request.Context().Done():
			return
		case ev := <-sub.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(envelope(ev)); err != nil {
				h.logger.Debug("event stream write failed", zap.Error(err))
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func envelope(ev types.Event) map[string]interface{} {
	return map[string]interface{}{
		"type":      "event",
		"event":     ev,
		"timestamp": ev.Timestamp.Unix(),
	}
}
