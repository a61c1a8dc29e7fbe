package sse

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"sync"

	"github.com/hostcard/pokerroom/internal/model"
	"github.com/hostcard/pokerroom/internal/storage"
)

// EventChange is the SSE event name for change-feed events
const EventChange = "change"

// Hub fans one room's change feed out to its connected SSE clients.
// It owns a single feed subscription however many devices are watching.
type Hub struct {
	roomCode model.RoomCode
	feed     storage.ChangeFeed
	logger   *slog.Logger

	clients map[*Client]bool
	mu      sync.RWMutex

	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	stopOnce   sync.Once
}

// NewHub creates a new Hub for a room
func NewHub(roomCode model.RoomCode, feed storage.ChangeFeed, logger *slog.Logger) *Hub {
	return &Hub{
		roomCode:   roomCode,
		feed:       feed,
		logger:     logger.With(slog.String("room", string(roomCode))),
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// Run starts the hub's event loop, pumping feed events to clients
func (h *Hub) Run() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, cancelFeed, err := h.feed.Subscribe(ctx, h.roomCode)
	if err != nil {
		h.logger.Error("sse hub feed subscribe failed", slog.Any("error", err))
		return
	}
	defer cancelFeed()

	h.logger.Info("sse hub started")
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			clientCount := len(h.clients)
			h.mu.Unlock()
			h.logger.Info("sse client registered",
				slog.String("player_id", string(client.playerID)),
				slog.Int("total_clients", clientCount))

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			clientCount := len(h.clients)
			h.mu.Unlock()
			h.logger.Info("sse client unregistered",
				slog.String("player_id", string(client.playerID)),
				slog.Int("total_clients", clientCount))

		case event, ok := <-events:
			if !ok {
				// Feed closed underneath us; clients must reconnect
				h.Close()
				h.closeClients()
				h.logger.Info("sse hub stopped, feed closed")
				return
			}
			h.broadcastEvent(event)

		case <-h.done:
			h.closeClients()
			h.logger.Info("sse hub stopped")
			return
		}
	}
}

func (h *Hub) broadcastEvent(event model.ChangeEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		h.logger.Error("sse event marshal failed", slog.Any("error", err))
		return
	}
	message := FormatMessage(EventChange, string(data))

	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.clients {
		select {
		case client.send <- message:
		default:
			// Slow client; it repairs itself with a full fetch on the
			// next event it does receive.
			h.logger.Warn("sse message dropped - client buffer full",
				slog.String("player_id", string(client.playerID)))
		}
	}
}

func (h *Hub) closeClients() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		close(client.send)
		delete(h.clients, client)
	}
}

// Register adds a client to the hub. Returns false if the hub has
// already stopped; the caller should retry against a fresh hub.
func (h *Hub) Register(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

// Unregister removes a client from the hub
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Close shuts down the hub
func (h *Hub) Close() {
	h.stopOnce.Do(func() {
		close(h.done)
	})
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// FormatMessage formats an SSE message with event name and data.
// Multi-line data gets a "data: " prefix on each line.
func FormatMessage(eventName, data string) []byte {
	var b strings.Builder
	b.WriteString("event: ")
	b.WriteString(eventName)
	b.WriteString("\n")
	for _, line := range strings.Split(strings.ReplaceAll(data, "\r\n", "\n"), "\n") {
		b.WriteString("data: ")
		b.WriteString(line)
		b.WriteString("\n")
	}
	b.WriteString("\n")
	return []byte(b.String())
}

// HubManager manages hubs for all rooms
type HubManager struct {
	feed   storage.ChangeFeed
	hubs   map[model.RoomCode]*Hub
	mu     sync.RWMutex
	logger *slog.Logger
}

// NewHubManager creates a new HubManager over the store's change feed
func NewHubManager(feed storage.ChangeFeed, logger *slog.Logger) *HubManager {
	return &HubManager{
		feed:   feed,
		hubs:   make(map[model.RoomCode]*Hub),
		logger: logger.With(slog.String("component", "sse")),
	}
}

// GetOrCreateHub returns the hub for a room, creating one if it doesn't exist
func (m *HubManager) GetOrCreateHub(roomCode model.RoomCode) *Hub {
	m.mu.Lock()
	defer m.mu.Unlock()

	if hub, ok := m.hubs[roomCode]; ok {
		return hub
	}

	hub := NewHub(roomCode, m.feed, m.logger)
	m.hubs[roomCode] = hub
	go hub.Run()
	return hub
}

// RemoveHub removes and closes a hub, for when a room ends
func (m *HubManager) RemoveHub(roomCode model.RoomCode) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if hub, ok := m.hubs[roomCode]; ok {
		hub.Close()
		delete(m.hubs, roomCode)
		m.logger.Info("sse hub removed", slog.String("room", string(roomCode)))
	}
}

// CleanupEmptyHubs removes hubs with no clients
func (m *HubManager) CleanupEmptyHubs() {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for code, hub := range m.hubs {
		if hub.ClientCount() == 0 {
			hub.Close()
			delete(m.hubs, code)
			removed++
		}
	}
	if removed > 0 {
		m.logger.Info("sse empty hubs cleaned up", slog.Int("removed", removed))
	}
}
