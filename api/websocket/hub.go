package websocket

import (
	"sync"

	"github.com/platformkit/scaling-engine/internal/logger"
	"github.com/platformkit/scaling-engine/pkg/config"
)

const defaultBroadcastBuffer = 256

// Hub tracks connected clients and fans broadcast messages out to them.
// Clients subscribed to a resource receive only that resource's events.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
	queue   chan []byte
	config  config.WebSocketConfig
}

func NewHub(cfg config.WebSocketConfig) *Hub {
	buffer := cfg.BroadcastBuffer
	if buffer <= 0 {
		buffer = defaultBroadcastBuffer
	}
	return &Hub{
		clients: make(map[*Client]struct{}),
		queue:   make(chan []byte, buffer),
		config:  cfg,
	}
}

// Run drains the broadcast queue. Per-resource sends bypass the queue and go
// straight to matching clients.
func (h *Hub) Run() {
	for message := range h.queue {
		h.fanOut(message, "")
	}
}

// Broadcast queues the message for all clients, dropping it if the hub is
// backed up.
func (h *Hub) Broadcast(message []byte) {
	select {
	case h.queue <- message:
	default:
		logger.Warn("Broadcast channel full, dropping message")
	}
}

// BroadcastToResource sends only to clients subscribed to the resource
func (h *Hub) BroadcastToResource(resourceID string, message []byte) {
	h.fanOut(message, resourceID)
}

func (h *Hub) fanOut(message []byte, resourceID string) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.clients {
		if resourceID != "" && client.target() != resourceID {
			continue
		}
		select {
		case client.send <- message:
		default:
		}
	}
}

// Register admits the client unless the hub is at its connection limit.
func (h *Hub) Register(client *Client) bool {
	h.mu.Lock()
	if h.config.MaxConnections > 0 && len(h.clients) >= h.config.MaxConnections {
		h.mu.Unlock()
		logger.Warn("WebSocket connection limit reached, rejecting client")
		return false
	}
	h.clients[client] = struct{}{}
	total := len(h.clients)
	h.mu.Unlock()
	logger.Infof("WebSocket client connected (total: %d)", total)
	return true
}

func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	_, known := h.clients[client]
	if known {
		delete(h.clients, client)
		close(client.send)
	}
	total := len(h.clients)
	h.mu.Unlock()
	if known {
		logger.Infof("WebSocket client disconnected (total: %d)", total)
	}
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
