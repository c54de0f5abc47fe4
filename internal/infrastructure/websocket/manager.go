package websocket

import (
	"context"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/storystove/devnet-sub000/pkg/logger"
)

// Client represents a WebSocket connection client. Each client owns the live
// store subscriptions opened on its behalf; they are released exactly once,
// either on explicit unsubscribe or on disconnect.
type Client struct {
	UserID string
	Conn   *websocket.Conn
	Send   chan []byte

	mu      sync.Mutex
	cancels map[string]func()
	closed  bool
}

func NewClient(userID string, conn *websocket.Conn) *Client {
	return &Client{
		UserID:  userID,
		Conn:    conn,
		Send:    make(chan []byte, 256),
		cancels: make(map[string]func()),
	}
}

// AddSubscription registers a cancellable live subscription under key. An
// existing subscription with the same key is cancelled first, so a client can
// never hold two live feeds of the same kind.
func (c *Client) AddSubscription(key string, cancel func()) {
	c.mu.Lock()
	prev := c.cancels[key]
	if c.closed {
		c.mu.Unlock()
		cancel()
		return
	}
	c.cancels[key] = cancel
	c.mu.Unlock()

	if prev != nil {
		prev()
	}
}

// CancelSubscription releases the subscription registered under key, if any.
func (c *Client) CancelSubscription(key string) {
	c.mu.Lock()
	cancel := c.cancels[key]
	delete(c.cancels, key)
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
}

// releaseAll cancels every owned subscription. Called once on unregister.
func (c *Client) releaseAll() {
	c.mu.Lock()
	cancels := c.cancels
	c.cancels = make(map[string]func())
	c.closed = true
	c.mu.Unlock()

	for _, cancel := range cancels {
		cancel()
	}
}

// Manager manages all active WebSocket connections
type Manager struct {
	clients    map[string]*Client
	Register   chan *Client
	Unregister chan *Client
	mutex      sync.RWMutex

	handler func(client *Client, message []byte)
}

// NewManager creates a new WebSocket connection manager
func NewManager() *Manager {
	return &Manager{
		clients:    make(map[string]*Client),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
	}
}

// SetMessageHandler installs the routing function for inbound client frames.
// Must be called before the first connection is accepted.
func (m *Manager) SetMessageHandler(handler func(client *Client, message []byte)) {
	m.handler = handler
}

// Start runs the manager's main loop in a goroutine
func (m *Manager) Start(ctx context.Context) {
	go func() {
		for {
			select {
			case client := <-m.Register:
				m.mutex.Lock()
				if prev, ok := m.clients[client.UserID]; ok {
					prev.releaseAll()
					close(prev.Send)
				}
				m.clients[client.UserID] = client
				m.mutex.Unlock()
				logger.Info("Client registered: %s", client.UserID)

			case client := <-m.Unregister:
				m.mutex.Lock()
				if current, ok := m.clients[client.UserID]; ok && current == client {
					delete(m.clients, client.UserID)
					close(client.Send)
				}
				m.mutex.Unlock()
				client.releaseAll()
				logger.Info("Client unregistered: %s", client.UserID)

			case <-ctx.Done():
				return
			}
		}
	}()
}

// SendToUser sends a message to a specific user
func (m *Manager) SendToUser(userID string, message []byte) {
	m.mutex.RLock()
	client, ok := m.clients[userID]
	m.mutex.RUnlock()

	if !ok {
		return
	}

	select {
	case client.Send <- message:
	default:
		logger.Warn("Send buffer full for client %s, dropping frame", userID)
	}
}

// ReadPump reads messages from the WebSocket connection
func (c *Client) ReadPump(m *Manager) {
	defer func() {
		m.Unregister <- c
		c.Conn.Close()
	}()

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Error("websocket read: %v", err)
			}
			break
		}

		if m.handler != nil {
			m.handler(c, message)
		}
	}
}

// WritePump sends messages to the WebSocket connection
func (c *Client) WritePump() {
	defer c.Conn.Close()

	for {
		message, ok := <-c.Send
		if !ok {
			c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		}

		if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
			logger.Error("websocket write: %v", err)
			return
		}
	}
}
