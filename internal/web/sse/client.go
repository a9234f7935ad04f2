package sse

import (
	"net/http"
	"time"
)

const (
	// Time between keepalive pings
	pingPeriod = 30 * time.Second

	// Buffer size for outgoing messages
	sendBufferSize = 256
)

// Client represents a connected SSE client
type Client struct {
	id          string
	send        chan []byte
	connectedAt time.Time
}

// NewClient creates a new SSE client. An empty id gets a generated one.
func NewClient(id string) *Client {
	if id == "" {
		id = newClientID()
	}
	return &Client{
		id:          id,
		send:        make(chan []byte, sendBufferSize),
		connectedAt: time.Now(),
	}
}

// ID returns the client's identifier
func (c *Client) ID() string {
	return c.id
}

// ServeSSE streams hub events to the client until the request ends or the hub closes
func ServeSSE(w http.ResponseWriter, r *http.Request, hub *Hub, clientID string) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // Disable nginx buffering

	client := NewClient(clientID)
	hub.Register(client)
	defer hub.Unregister(client)

	// Reconnect delay for the browser's EventSource
	_, _ = w.Write([]byte("retry: 3000\n\n"))
	_, _ = w.Write(formatSSEMessage("connected", `{"status":"connected","topic":"`+hub.topic+`"}`))
	flusher.Flush()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case message, ok := <-client.send:
			if !ok {
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
