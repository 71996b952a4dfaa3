// Package realtime pushes ledger events to connected browsers over
// websockets, optionally fanned out across server instances through Redis.
package realtime

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/mmynk/splitledger/internal/metrics"
	"github.com/mmynk/splitledger/pkg/api"
)

// Publisher delivers an event to every session of a user.
type Publisher interface {
	Publish(ctx context.Context, userID string, event api.Event) error
}

// Hub tracks the open connections of this process, keyed by user ID.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]map[*Client]struct{}
	metrics *metrics.Metrics
	logger  *slog.Logger
}

var _ Publisher = (*Hub)(nil)

// NewHub creates a hub. m may be nil.
func NewHub(m *metrics.Metrics, logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		clients: make(map[string]map[*Client]struct{}),
		metrics: m,
		logger:  logger,
	}
}

func (h *Hub) Register(userID string, client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[userID] == nil {
		h.clients[userID] = make(map[*Client]struct{})
	}
	h.clients[userID][client] = struct{}{}
	if h.metrics != nil {
		h.metrics.WebsocketConnections.Inc()
	}
}

// Unregister is safe to call twice for the same client.
func (h *Hub) Unregister(userID string, client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[userID][client]; !ok {
		return
	}
	delete(h.clients[userID], client)
	if len(h.clients[userID]) == 0 {
		delete(h.clients, userID)
	}
	if h.metrics != nil {
		h.metrics.WebsocketConnections.Dec()
	}
}

// Connections returns the number of open sessions of userID.
func (h *Hub) Connections(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID])
}

// Publish queues the event on each of the user's sessions. A session whose
// buffer is full misses the event rather than blocking the caller.
func (h *Hub) Publish(_ context.Context, userID string, event api.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	h.deliver(userID, payload)
	return nil
}

func (h *Hub) deliver(userID string, payload []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.clients[userID] {
		select {
		case client.send <- payload:
		default:
			h.logger.Warn("Dropping realtime event for slow client", "user_id", userID)
		}
	}
}
