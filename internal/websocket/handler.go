package websocket

import (
	"context"
	"net/http"
	"time"

	"logline-fusion/internal/middleware"
	"logline-fusion/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Handler upgrades HTTP requests to websocket connections and registers them
// with the hub.
type Handler struct {
	hub               *Hub
	keepAliveInterval time.Duration
	writeTimeout      time.Duration
	log               *logger.Logger
}

func NewHandler(hub *Hub, keepAliveInterval, writeTimeout time.Duration, log *logger.Logger) *Handler {
	return &Handler{
		hub:               hub,
		keepAliveInterval: keepAliveInterval,
		writeTimeout:      writeTimeout,
		log:               log,
	}
}

// Handle upgrades the connection. The subscriber identity comes from the
// authenticated actor when present, falling back to an explicit query
// parameter for unauthenticated deployments.
func (h *Handler) Handle(c *gin.Context) {
	subscriberID, _ := middleware.ActorFromContext(c.Request.Context())
	if subscriberID == "" {
		subscriberID = c.Query("subscriber_id")
	}
	if subscriberID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing subscriber identity"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Logger.Error("websocket upgrade failed",
			zap.String("subscriber_id", subscriberID), zap.Error(err))
		return
	}

	client := NewClient(conn, subscriberID, h.writeTimeout)
	h.hub.Subscribe(client)

	// The request context is cancelled the moment this handler returns, so
	// the keepalive loop gets its own context, stopped by the read loop when
	// the peer goes away.
	ctx, stop := context.WithCancel(context.Background())
	go client.KeepAlive(ctx, h.keepAliveInterval)
	go h.readLoop(conn, client, stop)
}

// readLoop drains inbound frames (subscribers only listen) and reaps the
// connection once the peer goes away.
func (h *Handler) readLoop(conn *websocket.Conn, client *Client, stop context.CancelFunc) {
	defer func() {
		stop()
		h.hub.Unsubscribe(client)
	}()
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
