package websocket

import (
	"sync"

	"logline-fusion/internal/domain/logevent"
	"logline-fusion/pkg/logger"

	"go.uber.org/zap"
)

// EventMessageType is the envelope discriminator for committed log events.
const EventMessageType = "new_log_event_v2"

// EventMessage wraps a committed event for delivery to subscribers.
type EventMessage struct {
	Type    string             `json:"type"`
	Payload *logevent.LogEvent `json:"payload"`
}

// Hub is the realtime notifier: a registry of live connections keyed by
// subscriber identity. Registry mutations and snapshots happen under one
// lock; sends happen outside it so slow connections never hold the registry.
type Hub struct {
	mu          sync.Mutex
	subscribers map[string]map[*Client]struct{}
	log         *logger.Logger
}

func NewHub(log *logger.Logger) *Hub {
	return &Hub{
		subscribers: make(map[string]map[*Client]struct{}),
		log:         log,
	}
}

// Subscribe registers a live connection under its subscriber identity and
// starts the connection's writer.
func (h *Hub) Subscribe(c *Client) {
	h.mu.Lock()
	set, ok := h.subscribers[c.SubscriberID]
	if !ok {
		set = make(map[*Client]struct{})
		h.subscribers[c.SubscriberID] = set
	}
	set[c] = struct{}{}
	count := len(set)
	h.mu.Unlock()

	go h.writePump(c)

	h.log.Logger.Info("websocket subscribed",
		zap.String("subscriber_id", c.SubscriberID),
		zap.Int("subscriber_connections", count))
}

// Unsubscribe reaps a connection. Safe to call more than once; this is the
// only place dead connections are removed.
func (h *Hub) Unsubscribe(c *Client) {
	h.mu.Lock()
	if set, ok := h.subscribers[c.SubscriberID]; ok {
		delete(set, c)
		if len(set) == 0 {
			delete(h.subscribers, c.SubscriberID)
		}
	}
	h.mu.Unlock()
	c.Close()
}

// SendTo delivers a message to every live connection of one subscriber.
func (h *Hub) SendTo(subscriberID string, message interface{}) {
	h.mu.Lock()
	targets := make([]*Client, 0, len(h.subscribers[subscriberID]))
	for c := range h.subscribers[subscriberID] {
		targets = append(targets, c)
	}
	h.mu.Unlock()

	for _, c := range targets {
		h.deliver(c, message)
	}
}

// Broadcast delivers a message to all live connections, minus excluded
// subscriber identities. Delivery is best-effort: one failing connection
// never aborts the others.
func (h *Hub) Broadcast(message interface{}, excludeSubscriberIDs ...string) {
	excluded := make(map[string]struct{}, len(excludeSubscriberIDs))
	for _, id := range excludeSubscriberIDs {
		excluded[id] = struct{}{}
	}

	h.mu.Lock()
	targets := make([]*Client, 0)
	for subscriberID, set := range h.subscribers {
		if _, skip := excluded[subscriberID]; skip {
			continue
		}
		for c := range set {
			targets = append(targets, c)
		}
	}
	h.mu.Unlock()

	for _, c := range targets {
		h.deliver(c, message)
	}
}

// BroadcastEvent wraps a committed event in the wire envelope and broadcasts
// it to every subscriber.
func (h *Hub) BroadcastEvent(e *logevent.LogEvent) {
	h.Broadcast(EventMessage{Type: EventMessageType, Payload: e})
}

// SubscriberCount returns the number of distinct subscriber identities.
func (h *Hub) SubscriberCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subscribers)
}

// ConnectionCount returns the number of live connections.
func (h *Hub) ConnectionCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	n := 0
	for _, set := range h.subscribers {
		n += len(set)
	}
	return n
}

// deliver queues a message on the client without blocking. A closed client
// or a saturated queue drops the message with a warning.
func (h *Hub) deliver(c *Client, message interface{}) {
	if err := c.Enqueue(message); err != nil {
		h.log.Logger.Warn("websocket message dropped",
			zap.String("subscriber_id", c.SubscriberID),
			zap.String("client_id", c.ID),
			zap.Error(err))
	}
}

// writePump drains the client's queue onto its connection. One pump per
// connection keeps delivery ordered; the disconnect path reaps the
// connection, here failures are only logged.
func (h *Hub) writePump(c *Client) {
	for {
		select {
		case <-c.closed:
			return
		case v := <-c.send:
			if err := c.WriteJSON(v); err != nil {
				h.log.Logger.Warn("websocket send failed",
					zap.String("subscriber_id", c.SubscriberID),
					zap.String("client_id", c.ID),
					zap.Error(err))
			}
		}
	}
}
