package ws

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/devlens/devlens/internal/domain/ingest"
	"github.com/devlens/devlens/internal/infrastructure/logging"
	"github.com/devlens/devlens/internal/infrastructure/monitoring"
	"github.com/devlens/devlens/internal/shared/types"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins in dev
	},
}

// Handler manages WebSocket connections
type Handler struct {
	service *ingest.Service
	bus     *ingest.Bus
	logger  *logging.Logger
	metrics *monitoring.Metrics
}

// NewHandler creates a new WebSocket handler
func NewHandler(service *ingest.Service, bus *ingest.Bus, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Handler{
		service: service,
		bus:     bus,
		logger:  logger,
	}
}

// WithMetrics adds metrics tracking to the handler
func (h *Handler) WithMetrics(metrics *monitoring.Metrics) *Handler {
	h.metrics = metrics
	return h
}

// conn serializes writes so the event forwarder and the read loop never
// interleave frames on the same socket.
type conn struct {
	mu sync.Mutex
	ws *websocket.Conn
}

func (c *conn) writeJSON(v interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ws.WriteJSON(v)
}

// HandleConnection handles WebSocket upgrade and messages
func (h *Handler) HandleConnection(c *gin.Context) {
	sock, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed", zap.Error(err))
		return
	}
	defer sock.Close()

	if h.metrics != nil {
		h.metrics.WSConnections.Inc()
		defer h.metrics.WSConnections.Dec()
	}

	reqCtx := c.Request.Context()
	wc := &conn{ws: sock}

	// Send welcome message
	h.send(wc, map[string]interface{}{
		"type":    "system",
		"message": "Connected to DevLens telemetry stream",
	})

	var subID string
	defer func() {
		if subID != "" {
			h.bus.Unsubscribe(subID)
		}
	}()

	// Listen for messages
	for {
		var msg types.Message
		if err := sock.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Warn("websocket read error", zap.Error(err))
			}
			break
		}

		switch msg.Type {
		case "ping":
			h.send(wc, map[string]interface{}{"type": "pong"})
		case "subscribe":
			if subID != "" {
				h.sendError(wc, "already subscribed")
				continue
			}
			id, events := h.bus.Subscribe(0)
			subID = id
			go h.forwardEvents(wc, events)
			h.send(wc, map[string]interface{}{
				"type":      "subscribed",
				"timestamp": time.Now().UnixMilli(),
			})
		default:
			h.handleIngest(wc, msg, reqCtx)
		}
	}
}

// handleIngest routes a telemetry frame through the same service as POST /ingest
func (h *Handler) handleIngest(wc *conn, msg types.Message, reqCtx context.Context) {
	ctx, cancel := context.WithTimeout(reqCtx, 2*time.Minute)
	defer cancel()

	res, err := h.service.Handle(ctx, msg)
	if err != nil {
		h.sendError(wc, err.Error())
		return
	}

	h.send(wc, map[string]interface{}{
		"type":      "result",
		"success":   true,
		"data":      res.Data,
		"timestamp": res.Timestamp,
	})
}

// forwardEvents relays bus events to the socket until the subscription closes
func (h *Handler) forwardEvents(wc *conn, events <-chan types.Event) {
	for ev := range events {
		if err := wc.writeJSON(map[string]interface{}{
			"type":      "event",
			"event":     ev,
			"timestamp": time.Now().UnixMilli(),
		}); err != nil {
			return
		}
	}
}

func (h *Handler) send(wc *conn, data interface{}) error {
	return wc.writeJSON(data)
}

func (h *Handler) sendError(wc *conn, msg string) error {
	return h.send(wc, map[string]interface{}{
		"type":      "error",
		"message":   msg,
		"timestamp": time.Now().UnixMilli(),
	})
}
