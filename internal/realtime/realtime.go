package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// Push events exchanged with the backend.
const (
	EventInventoryUpdated = "inventory-updated"
	EventOrderUpdated     = "order-updated"
	EventCashCloseUpdated = "cash-close-updated"

	emitInventoryUpdate = "inventory-update"
	emitOrderUpdate     = "order-update"
	emitCashCloseUpdate = "cash-close-update"

	joinRestaurant = "join-restaurant"
)

var ErrNotConnected = errors.New("socket not connected")

type message struct {
	Event        string          `json:"event"`
	RestaurantID string          `json:"restaurantId,omitempty"`
	Data         json.RawMessage `json:"data,omitempty"`
}

// Channel is the live-update socket: it joins the restaurant's room on
// connect and forwards push events to registered handlers. A dropped
// connection stays dropped until the channel is reconnected by its
// owner; there is no retry loop.
type Channel struct {
	url          string
	restaurantID string
	log          *logrus.Entry

	mu       sync.Mutex
	conn     *websocket.Conn
	handlers map[string][]func(json.RawMessage)
}

func NewChannel(socketURL string, restaurantID string) *Channel {
	return &Channel{
		url:          socketURL,
		restaurantID: restaurantID,
		log:          logrus.WithField("component", "realtime"),
		handlers:     make(map[string][]func(json.RawMessage)),
	}
}

// On registers a handler for a push event. Handlers must be registered
// before Connect; they run on the read-loop goroutine.
func (c *Channel) On(event string, handler func(json.RawMessage)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers[event] = append(c.handlers[event], handler)
}

func (c *Channel) OnInventoryUpdated(handler func(json.RawMessage)) {
	c.On(EventInventoryUpdated, handler)
}

func (c *Channel) OnOrderUpdated(handler func(json.RawMessage)) {
	c.On(EventOrderUpdated, handler)
}

func (c *Channel) OnCashCloseUpdated(handler func(json.RawMessage)) {
	c.On(EventCashCloseUpdated, handler)
}

// Connect dials the socket, joins the restaurant room, and starts the
// read loop.
func (c *Channel) Connect(ctx context.Context) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.url, nil)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()

	if err := c.send(message{Event: joinRestaurant, RestaurantID: c.restaurantID}); err != nil {
		c.Close()
		return err
	}

	go c.readLoop(conn)
	c.log.WithField("restaurant", c.restaurantID).Info("socket connected")
	return nil
}

func (c *Channel) readLoop(conn *websocket.Conn) {
	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			c.log.WithError(err).Warn("socket closed")
			c.mu.Lock()
			if c.conn == conn {
				c.conn = nil
			}
			c.mu.Unlock()
			return
		}

		var msg message
		if err := json.Unmarshal(payload, &msg); err != nil {
			c.log.WithError(err).Warn("unreadable socket frame")
			continue
		}

		c.mu.Lock()
		handlers := make([]func(json.RawMessage), len(c.handlers[msg.Event]))
		copy(handlers, c.handlers[msg.Event])
		c.mu.Unlock()

		for _, handler := range handlers {
			handler(msg.Data)
		}
	}
}

func (c *Channel) send(msg message) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return ErrNotConnected
	}
	return c.conn.WriteJSON(msg)
}

func (c *Channel) emit(event string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return c.send(message{Event: event, RestaurantID: c.restaurantID, Data: data})
}

func (c *Channel) EmitInventoryUpdate(payload any) error {
	return c.emit(emitInventoryUpdate, payload)
}

func (c *Channel) EmitOrderUpdate(payload any) error {
	return c.emit(emitOrderUpdate, payload)
}

func (c *Channel) EmitCashCloseUpdate(payload any) error {
	return c.emit(emitCashCloseUpdate, payload)
}

func (c *Channel) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn != nil
}

func (c *Channel) Close() {
	c.mu.Lock()
	conn := c.conn
	c.conn = nil
	c.mu.Unlock()
	if conn != nil {
		_ = conn.Close()
	}
}
