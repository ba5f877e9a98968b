// internal/server/handlers/websocket.go

package handlers

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// EventSource delivers raw event payloads published under a subject
type EventSource interface {
	Subscribe(subject string, fn func(data []byte)) (unsubscribe func(), err error)
}

// NATSEventSource adapts a NATS connection to EventSource
type NATSEventSource struct {
	conn *nats.Conn
}

// NewNATSEventSource creates an event source on conn
func NewNATSEventSource(conn *nats.Conn) *NATSEventSource {
	return &NATSEventSource{conn: conn}
}

// Subscribe subscribes to subject; wildcards are allowed
func (s *NATSEventSource) Subscribe(subject string, fn func(data []byte)) (func(), error) {
	sub, err := s.conn.Subscribe(subject, func(msg *nats.Msg) {
		fn(msg.Data)
	})
	if err != nil {
		return nil, err
	}
	return func() { sub.Unsubscribe() }, nil
}

// WebSocketClient represents a connected WebSocket client
type WebSocketClient struct {
	id          string
	conn        *websocket.Conn
	send        chan []byte
	done        chan struct{}
	closeOnce   sync.Once
	unsubscribe func()
	config      WebSocketConfig
	logger      *zap.Logger
}

// WebSocketConfig contains configuration for WebSocket connections
type WebSocketConfig struct {
	// Time allowed to write a message to the peer
	WriteWait time.Duration

	// Time allowed to read the next pong message from the peer
	PongWait time.Duration

	// Send pings to peer with this period
	PingPeriod time.Duration

	// Maximum message size allowed from peer
	MaxMessageSize int64
}

// DefaultWebSocketConfig returns the default WebSocket configuration
func DefaultWebSocketConfig() WebSocketConfig {
	return WebSocketConfig{
		WriteWait:      10 * time.Second,
		PongWait:       60 * time.Second,
		PingPeriod:     (60 * time.Second * 9) / 10,
		MaxMessageSize: 1024 * 1024, // 1MB
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// ShopEventsHandler streams every shop event published under topic to the
// connected client, one JSON document per text message
func ShopEventsHandler(source EventSource, topic string, logger *zap.Logger) http.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.Warn("Failed to upgrade to WebSocket", zap.Error(err))
			return
		}

		client := &WebSocketClient{
			id:     uuid.New().String(),
			conn:   conn,
			send:   make(chan []byte, 256),
			done:   make(chan struct{}),
			config: DefaultWebSocketConfig(),
			logger: logger,
		}

		unsubscribe, err := source.Subscribe(topic+".>", client.deliver)
		if err != nil {
			logger.Error("Failed to subscribe to shop events", zap.Error(err))
			client.closeConnection()
			return
		}
		client.unsubscribe = unsubscribe

		go client.writePump()
		go client.readPump()

		logger.Info("WebSocket client connected", zap.String("client_id", client.id))
	}
}

// deliver queues an event for the client and drops it when the client is
// too slow or already gone
func (c *WebSocketClient) deliver(data []byte) {
	if !json.Valid(data) {
		c.logger.Warn("Dropping malformed shop event", zap.String("client_id", c.id))
		return
	}

	select {
	case <-c.done:
	case c.send <- data:
	default:
		c.logger.Warn("WebSocket client too slow, dropping event", zap.String("client_id", c.id))
	}
}

// readPump only consumes control frames; clients never send events
func (c *WebSocketClient) readPump() {
	defer c.closeConnection()

	c.conn.SetReadLimit(c.config.MaxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(c.config.PongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(c.config.PongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Warn("WebSocket error", zap.String("client_id", c.id), zap.Error(err))
			}
			return
		}
	}
}

// writePump pumps events to the WebSocket connection
func (c *WebSocketClient) writePump() {
	ticker := time.NewTicker(c.config.PingPeriod)
	defer func() {
		ticker.Stop()
		c.closeConnection()
	}()

	for {
		select {
		case <-c.done:
			return

		case message := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(c.config.WriteWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(c.config.WriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// closeConnection unsubscribes and closes the connection once
func (c *WebSocketClient) closeConnection() {
	c.closeOnce.Do(func() {
		close(c.done)
		if c.unsubscribe != nil {
			c.unsubscribe()
		}
		c.conn.Close()
		c.logger.Info("WebSocket connection closed", zap.String("client_id", c.id))
	})
}
