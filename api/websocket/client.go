package websocket

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/platformkit/scaling-engine/internal/logger"
)

const (
	defaultWriteWait      = 10 * time.Second
	defaultPongWait       = 60 * time.Second
	defaultMaxMessageSize = 512
	defaultClientBuffer   = 256
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Client is one websocket connection. An empty subscription means the client
// receives the full event firehose.
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte

	writeWait  time.Duration
	pongWait   time.Duration
	pingEvery  time.Duration
	maxMessage int64

	mu         sync.Mutex
	resourceID string
}

type IncomingMessage struct {
	Type       string `json:"type"`
	ResourceID string `json:"resource_id,omitempty"`
}

func NewClient(hub *Hub, conn *websocket.Conn, resourceID string) *Client {
	cfg := hub.config

	writeWait := cfg.WriteTimeout
	if writeWait <= 0 {
		writeWait = defaultWriteWait
	}
	pongWait := cfg.PongTimeout
	if pongWait <= 0 {
		pongWait = defaultPongWait
	}
	pingEvery := cfg.PingInterval
	if pingEvery <= 0 || pingEvery >= pongWait {
		pingEvery = pongWait * 9 / 10
	}
	maxMessage := cfg.MaxMessageSize
	if maxMessage <= 0 {
		maxMessage = defaultMaxMessageSize
	}
	buffer := cfg.ClientBuffer
	if buffer <= 0 {
		buffer = defaultClientBuffer
	}

	return &Client{
		hub:        hub,
		conn:       conn,
		send:       make(chan []byte, buffer),
		writeWait:  writeWait,
		pongWait:   pongWait,
		pingEvery:  pingEvery,
		maxMessage: maxMessage,
		resourceID: resourceID,
	}
}

// target returns the resource the client is subscribed to, or "" for all.
func (c *Client) target() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.resourceID
}

func (c *Client) setTarget(resourceID string) (previous string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	previous = c.resourceID
	c.resourceID = resourceID
	return previous
}

// ReadPump consumes subscription commands until the connection drops, then
// detaches the client from the hub.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(c.maxMessage)
	c.conn.SetReadDeadline(time.Now().Add(c.pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(c.pongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Errorf("WebSocket error: %v", err)
			}
			return
		}
		var msg IncomingMessage
		if json.Unmarshal(raw, &msg) == nil {
			c.handleMessage(&msg)
		}
	}
}

// WritePump pushes queued messages and keepalive pings to the connection.
func (c *Client) WritePump() {
	ticker := time.NewTicker(c.pingEvery)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(c.writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, nil)
				return
			}
			if err := c.writeBatch(message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(c.writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// writeBatch folds any further queued messages into the same frame.
func (c *Client) writeBatch(first []byte) error {
	w, err := c.conn.NextWriter(websocket.TextMessage)
	if err != nil {
		return err
	}
	w.Write(first)
	for pending := len(c.send); pending > 0; pending-- {
		w.Write([]byte{'\n'})
		w.Write(<-c.send)
	}
	return w.Close()
}

func (c *Client) handleMessage(msg *IncomingMessage) {
	switch msg.Type {
	case "subscribe":
		if msg.ResourceID != "" {
			c.setTarget(msg.ResourceID)
			logger.Infof("Client subscribed to resource: %s", msg.ResourceID)
			c.sendConfirmation("subscribed", msg.ResourceID)
		}
	case "unsubscribe":
		previous := c.setTarget("")
		logger.Info("Client unsubscribed from resource")
		c.sendConfirmation("unsubscribed", previous)
	}
}

func (c *Client) sendConfirmation(action, resourceID string) {
	data, err := json.Marshal(map[string]interface{}{
		"type":        "subscription_update",
		"action":      action,
		"resource_id": resourceID,
		"timestamp":   time.Now(),
	})
	if err != nil {
		logger.Errorf("Failed to marshal confirmation: %v", err)
		return
	}
	select {
	case c.send <- data:
	default:
		logger.Warn("Client send channel full, dropping confirmation")
	}
}

func ServeWebSocket(hub *Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			logger.Errorf("WebSocket upgrade failed: %v", err)
			return
		}

		client := NewClient(hub, conn, c.Query("resource_id"))
		if !hub.Register(client) {
			conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseTryAgainLater, "connection limit reached"))
			conn.Close()
			return
		}

		go client.WritePump()
		go client.ReadPump()
	}
}
