package websocket

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"drowsyguard/internal/models"
	"drowsyguard/internal/registry"
	"drowsyguard/pkg/logger"
)

// Hub owns the live websocket sessions for dashboard subscribers and keeps
// the connection registry in step with them. It doubles as the push
// transport: Send delivers a payload to one connection by id.
type Hub struct {
	clients    map[string]*Client
	register   chan *Client
	unregister chan *Client
	registry   *registry.Registry
	logger     *logger.Logger
	mutex      sync.RWMutex
}

type welcomeMessage struct {
	Type         string `json:"type"`
	ConnectionID string `json:"connection_id"`
	Timestamp    int64  `json:"timestamp"`
}

func NewHub(reg *registry.Registry, log *logger.Logger) *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		registry:   reg,
		logger:     log,
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)
		}
	}
}

func (h *Hub) registerClient(client *Client) {
	h.mutex.Lock()
	// A reconnect with the same id replaces the old session outright.
	if old, ok := h.clients[client.ConnectionID]; ok {
		close(old.send)
	}
	h.clients[client.ConnectionID] = client
	h.mutex.Unlock()

	h.registry.Register(client.ConnectionID, client.Role)

	welcome, _ := json.Marshal(welcomeMessage{
		Type:         "welcome",
		ConnectionID: client.ConnectionID,
		Timestamp:    time.Now().Unix(),
	})
	select {
	case client.send <- welcome:
	default:
	}
}

func (h *Hub) unregisterClient(client *Client) {
	h.mutex.Lock()
	current, ok := h.clients[client.ConnectionID]
	if ok && current == client {
		delete(h.clients, client.ConnectionID)
		close(client.send)
	}
	h.mutex.Unlock()

	if ok && current == client {
		h.registry.Unregister(client.ConnectionID)
	}
}

// Send implements the dashboard push interface. An unknown connection id
// means the session is gone; a full send buffer is a transient failure the
// dispatcher may retry next round.
func (h *Hub) Send(ctx context.Context, connectionID string, payload []byte) error {
	h.mutex.RLock()
	client, ok := h.clients[connectionID]
	h.mutex.RUnlock()

	if !ok {
		return models.ErrConnectionGone
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	select {
	case client.send <- payload:
		return nil
	default:
		return fmt.Errorf("send buffer full for connection %s", connectionID)
	}
}

// ClientCount reports the number of live sessions.
func (h *Hub) ClientCount() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients)
}
