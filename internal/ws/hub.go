package ws

import (
	"log/slog"
	"sync"

	"github.com/lexc24/tictactoe/internal/model"
)

// Hub tracks connected clients and fans messages out to them
type Hub struct {
	clients map[model.ParticipantID]*Client
	mu      sync.RWMutex
	logger  *slog.Logger

	register   chan *Client
	unregister chan *Client
	broadcast  chan OutgoingMessage
	done       chan struct{}
}

// NewHub creates a new Hub
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		clients:    make(map[model.ParticipantID]*Client),
		logger:     logger.With(slog.String("component", "ws-hub")),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan OutgoingMessage, 64),
		done:       make(chan struct{}),
	}
}

// Run starts the hub's event loop
func (h *Hub) Run() {
	h.logger.Info("ws hub started")
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.id] = client
			count := len(h.clients)
			h.mu.Unlock()
			h.logger.Info("ws client registered",
				slog.String("participant_id", string(client.id)),
				slog.Int("total_clients", count))

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client.id]; ok {
				delete(h.clients, client.id)
				close(client.send)
			}
			count := len(h.clients)
			h.mu.Unlock()
			h.logger.Info("ws client unregistered",
				slog.String("participant_id", string(client.id)),
				slog.Int("total_clients", count))

		case msg := <-h.broadcast:
			h.mu.RLock()
			dropped := 0
			for _, client := range h.clients {
				select {
				case client.send <- msg:
				default:
					dropped++
				}
			}
			h.mu.RUnlock()
			if dropped > 0 {
				h.logger.Warn("ws broadcast partially dropped",
					slog.Int("dropped", dropped))
			}

		case <-h.done:
			h.mu.Lock()
			for id, client := range h.clients {
				close(client.send)
				delete(h.clients, id)
			}
			h.mu.Unlock()
			h.logger.Info("ws hub stopped")
			return
		}
	}
}

// Close shuts the hub down and disconnects every client
func (h *Hub) Close() {
	close(h.done)
}

// Broadcast queues a message for every connected client
func (h *Hub) Broadcast(msg OutgoingMessage) {
	select {
	case h.broadcast <- msg:
	case <-h.done:
	}
}

// BroadcastQueueUpdate pushes a queue snapshot to every client. This is
// the notifier's delivery path.
func (h *Hub) BroadcastQueueUpdate(snapshot model.QueueSnapshot) {
	h.Broadcast(OutgoingMessage{Action: ActionQueueUpdate, Data: snapshot})
}
