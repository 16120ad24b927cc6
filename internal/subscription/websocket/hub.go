package websocket

import (
	"context"
	"sync"
	"time"

	gorillaWS "github.com/gorilla/websocket"

	commonerrors "github.com/AlibekovAA/postgraph/internal/common/errors"
	"github.com/AlibekovAA/postgraph/internal/common/logger"
	"github.com/AlibekovAA/postgraph/internal/observability/metrics"
)

// Hub tracks live connections and enforces the connection cap. A slot is
// reserved before the upgrade and released when the client disconnects.
type Hub struct {
	mu       sync.Mutex
	clients  map[*Client]struct{}
	reserved int
	max      int
	closing  bool
	log      *logger.Logger
}

func NewHub(maxConnections int, log *logger.Logger) *Hub {
	return &Hub{
		clients: make(map[*Client]struct{}),
		max:     maxConnections,
		log:     log,
	}
}

func (h *Hub) reserve() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closing {
		metrics.WebSocketConnectionsRejected.Inc()
		return commonerrors.ErrServiceUnavailable
	}
	if h.max > 0 && h.reserved >= h.max {
		metrics.WebSocketConnectionsRejected.Inc()
		return commonerrors.ErrTooManyConnections
	}
	h.reserved++
	return nil
}

func (h *Hub) release() {
	h.mu.Lock()
	h.reserved--
	h.mu.Unlock()
}

func (h *Hub) register(c *Client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()

	metrics.WebSocketConnectionsActive.Inc()
	h.log.WithFields(c.ctx, logger.Fields{
		"connection_id": c.id,
		"action":        "ws_connect",
	}).Info("websocket client connected")
}

func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	_, ok := h.clients[c]
	if ok {
		delete(h.clients, c)
		h.reserved--
	}
	h.mu.Unlock()

	if ok {
		metrics.WebSocketConnectionsActive.Dec()
	}
}

func (h *Hub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Shutdown refuses new connections, closes the live ones with going-away
// and waits until they have all unregistered or ctx expires.
func (h *Hub) Shutdown(ctx context.Context) error {
	h.mu.Lock()
	h.closing = true
	clients := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	h.log.Infof("closing %d websocket connections", len(clients))
	for _, c := range clients {
		c.closeWith(gorillaWS.CloseGoingAway, "server shutting down", "shutdown")
	}

	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()
	for h.Count() > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
	return nil
}
