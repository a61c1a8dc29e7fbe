package sse

import (
	"net/http"
	"time"

	"github.com/hostcard/pokerroom/internal/model"
)

const (
	// Time between keepalive pings
	pingPeriod = 30 * time.Second

	// Buffer size for outgoing messages
	sendBufferSize = 256
)

// Client represents a connected SSE client
type Client struct {
	hub      *Hub
	playerID model.PlayerID
	send     chan []byte
}

// NewClient creates a new SSE client. The host device connects with an
// empty player id.
func NewClient(hub *Hub, playerID model.PlayerID) *Client {
	return &Client{
		hub:      hub,
		playerID: playerID,
		send:     make(chan []byte, sendBufferSize),
	}
}

// ServeSSE handles the SSE connection for a client. snapshot is the
// initial full-state event sent before any feed events, covering
// whatever the client missed before subscribing.
func ServeSSE(w http.ResponseWriter, r *http.Request, hub *Hub, playerID model.PlayerID, snapshot []byte) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("X-Accel-Buffering", "no") // Disable nginx buffering

	client := NewClient(hub, playerID)
	if !hub.Register(client) {
		http.Error(w, "Room stream unavailable", http.StatusServiceUnavailable)
		return
	}
	defer hub.Unregister(client)

	if len(snapshot) > 0 {
		if _, err := w.Write(snapshot); err != nil {
			return
		}
		flusher.Flush()
	}

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case message, ok := <-client.send:
			if !ok {
				// Hub closed the channel
				return
			}
			if _, err := w.Write(message); err != nil {
				return
			}
			flusher.Flush()

		case <-ticker.C:
			if _, err := w.Write([]byte(": keepalive\n\n")); err != nil {
				return
			}
			flusher.Flush()

		case <-r.Context().Done():
			return
		}
	}
}
