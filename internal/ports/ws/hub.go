package ws

import (
	"fmt"
	"sync"
	"time"

	"tetrisduel/internal/ports"

	"github.com/gorilla/websocket"
	"github.com/heroiclabs/nakama-common/runtime"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendBuffer     = 64
)

// client is one websocket connection. Outbound messages are queued and
// written by a dedicated goroutine.
type client struct {
	id    string
	conn  *websocket.Conn
	codec Codec
	send  chan ports.Message
	done  chan struct{}
	once  sync.Once
}

func newClient(id string, conn *websocket.Conn, codec Codec) *client {
	return &client{
		id:    id,
		conn:  conn,
		codec: codec,
		send:  make(chan ports.Message, sendBuffer),
		done:  make(chan struct{}),
	}
}

// enqueue queues msg without blocking. It fails if the client is closed or
// its buffer is full.
func (c *client) enqueue(msg ports.Message) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.send <- msg:
		return true
	default:
		return false
	}
}

func (c *client) close() {
	c.once.Do(func() { close(c.done) })
}

func (c *client) writePump(logger runtime.Logger) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg := <-c.send:
			data, err := c.codec.Encode(msg)
			if err != nil {
				logger.Error("ws: encode %s for %s: %v", msg.Type, c.id, err)
				continue
			}
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(c.codec.MessageType(), data); err != nil {
				logger.Debug("ws: write to %s: %v", c.id, err)
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.done:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}

// Hub tracks live connections and implements ports.Publisher.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*client
	logger  runtime.Logger
}

// NewHub returns an empty hub.
func NewHub(logger runtime.Logger) *Hub {
	return &Hub{
		clients: make(map[string]*client),
		logger:  logger,
	}
}

var _ ports.Publisher = (*Hub)(nil)

// Publish queues msg for every connected recipient.
func (h *Hub) Publish(recipients []string, msg ports.Message) error {
	h.mu.RLock()
	defer h.mu.RUnlock()

	var dropped []string
	for _, id := range recipients {
		c, ok := h.clients[id]
		if !ok {
			continue
		}
		if !c.enqueue(msg) {
			dropped = append(dropped, id)
		}
	}
	if len(dropped) > 0 {
		return fmt.Errorf("dropped %s for %v", msg.Type, dropped)
	}
	return nil
}

// Len returns the number of live connections.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// CloseAll closes every connection.
func (h *Hub) CloseAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, c := range h.clients {
		c.close()
		delete(h.clients, id)
	}
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c.id] = c
}

func (h *Hub) unregister(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if c, ok := h.clients[id]; ok {
		c.close()
		delete(h.clients, id)
	}
}
