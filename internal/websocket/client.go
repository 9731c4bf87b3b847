package websocket

import (
	"context"
	"errors"
	"sync"
	"time"

	fusion_errors "logline-fusion/pkg/errors"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Conn is the write side of a websocket connection. *websocket.Conn
// satisfies it; tests substitute fakes.
type Conn interface {
	WriteJSON(v interface{}) error
	WriteMessage(messageType int, data []byte) error
	SetWriteDeadline(t time.Time) error
	Close() error
}

// sendQueueSize bounds how far a slow connection may fall behind before
// messages are dropped.
const sendQueueSize = 32

var errClientClosed = errors.New("websocket client closed")

// Client is one live connection owned by a subscriber identity. A subscriber
// may hold several clients at once (multiple tabs, devices). Messages pass
// through a per-connection queue drained by a single writer, so delivery
// order on one connection matches enqueue order.
type Client struct {
	ID           string
	SubscriberID string

	conn         Conn
	writeTimeout time.Duration
	mu           sync.Mutex // serializes writes on conn

	send      chan interface{}
	closed    chan struct{}
	closeOnce sync.Once
}

func NewClient(conn Conn, subscriberID string, writeTimeout time.Duration) *Client {
	if writeTimeout <= 0 {
		writeTimeout = 10 * time.Second
	}
	return &Client{
		ID:           uuid.New().String(),
		SubscriberID: subscriberID,
		conn:         conn,
		writeTimeout: writeTimeout,
		send:         make(chan interface{}, sendQueueSize),
		closed:       make(chan struct{}),
	}
}

// Enqueue hands a message to the connection's writer. Never blocks: a closed
// client or a saturated queue drops the message with an error.
func (c *Client) Enqueue(v interface{}) error {
	select {
	case <-c.closed:
		return errClientClosed
	default:
	}
	select {
	case c.send <- v:
		return nil
	default:
		return fusion_errors.ErrQueueFull
	}
}

// WriteJSON sends one message, holding the write lock and a deadline.
func (c *Client) WriteJSON(v interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout))
	return c.conn.WriteJSON(v)
}

// KeepAlive pings the connection on an idle interval until the context ends
// or a ping fails. The transport treats a missed reply as disconnection.
func (c *Client) KeepAlive(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.mu.Lock()
			_ = c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout))
			err := c.conn.WriteMessage(websocket.PingMessage, []byte("ping"))
			c.mu.Unlock()
			if err != nil {
				return
			}
		}
	}
}

// Close marks the client closed, stopping its writer, and closes the
// underlying connection. Safe to call more than once.
func (c *Client) Close() {
	c.closeOnce.Do(func() { close(c.closed) })
	c.mu.Lock()
	_ = c.conn.Close()
	c.mu.Unlock()
}
