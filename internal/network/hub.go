package network

import (
	"context"
	"sync"

	"github.com/MTorner/GemeloVital/server/internal/platform/logger"
	"github.com/MTorner/GemeloVital/server/internal/platform/metrics"
	"github.com/MTorner/GemeloVital/server/internal/session"
)

// Hub maintains the set of active clients and fans state notifications out to
// the subscribers of each session. It implements sim.Broadcaster.
type Hub struct {
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	mu         sync.Mutex
	logger     *logger.Logger
	manager    *session.Manager
}

// NewHub initializes a new WebSocket Hub.
func NewHub(log *logger.Logger) *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    make(map[*Client]bool),
		logger:     log,
	}
}

// AttachManager gives the hub access to the session manager for routing
// incoming client actions. Set once at bootstrap.
func (h *Hub) AttachManager(m *session.Manager) {
	h.manager = m
}

// Run starts the Hub's main loop to handle client connections.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.logger.Info("WebSocket Hub shutting down.")
			return
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			metrics.Get().RecordWSConnection(1)
			h.logger.Info("New WebSocket client subscribed to session %s", client.sessionID)
		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				metrics.Get().RecordWSConnection(-1)
				h.logger.Info("WebSocket client disconnected from session %s", client.sessionID)
			}
			h.mu.Unlock()
		}
	}
}

// BroadcastState sends a state notification to every subscriber of a
// session. Sends are best-effort: a slow or closed subscriber is dropped so
// fan-out never blocks tick progress.
func (h *Hub) BroadcastState(sessionID string, payload []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.clients {
		if client.sessionID != sessionID {
			continue
		}
		select {
		case client.send <- payload:
			metrics.Get().RecordWSMessage(false)
		default:
			close(client.send)
			delete(h.clients, client)
			metrics.Get().RecordWSConnection(-1)
			metrics.Get().RecordWSError()
		}
	}
}
