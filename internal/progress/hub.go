// Package progress broadcasts per-file completion events over
// WebSocket to any connected observers — a live view of a generation
// run in flight. It is purely additive: nothing in internal/pth
// depends on it directly, and a run with no Hub attached produces a
// byte-identical artifact. Grounded on the teacher's
// internal/network.Hub.
package progress

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/VanirLLVM/external-clang/internal/pthlog"
)

// Client is one active WebSocket connection subscribed to run events.
type Client struct {
	conn *websocket.Conn
	send chan []byte
}

// FileEvent is the JSON payload broadcast after each cached file.
type FileEvent struct {
	Path       string `json:"path"`
	Tokens     int    `json:"tokens"`
	Bytes      int    `json:"bytes"`
	ElapsedMS  int64  `json:"elapsed_ms"`
}

// Hub maintains the set of connected clients and fans out FileEvents
// to all of them.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client
	mu         sync.Mutex
	logger     *pthlog.Logger
}

// NewHub creates a Hub. Run must be called to start its dispatch loop.
func NewHub(logger *pthlog.Logger) *Hub {
	return &Hub{
		broadcast:  make(chan []byte),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    make(map[*Client]bool),
		logger:     logger,
	}
}

// Run drives the Hub's main loop until ctx is canceled. It owns all
// mutation of the client set and broadcast fan-out — the PTH
// assembler's own goroutine never touches this state directly,
// matching spec.md §5's single-threaded core.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.logger.Info("progress hub shutting down")
			return
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()
		case message := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					close(client.send)
					delete(h.clients, client)
				}
			}
			h.mu.Unlock()
		}
	}
}

// FileDone implements pth.Reporter: it serializes a FileEvent and
// hands it to the broadcast channel. Called from the assembler's
// single execution context, so the send itself must never block —
// Run always drains broadcast promptly, but a closed/unbuffered Hub
// with Run not yet started would deadlock the caller, so callers must
// start Run before attaching the Hub as a Reporter.
func (h *Hub) FileDone(path string, tokenCount, byteCount int, elapsed time.Duration) {
	payload, err := json.Marshal(FileEvent{
		Path:      path,
		Tokens:    tokenCount,
		Bytes:     byteCount,
		ElapsedMS: elapsed.Milliseconds(),
	})
	if err != nil {
		h.logger.Warn("failed to serialize progress event: " + err.Error())
		return
	}
	h.broadcast <- payload
}

// Register subscribes conn to the broadcast stream and starts its
// write pump.
func (h *Hub) Register(conn *websocket.Conn) {
	c := &Client{conn: conn, send: make(chan []byte, 16)}
	h.register <- c
	go h.writePump(c)
}

func (h *Hub) writePump(c *Client) {
	defer c.conn.Close()
	for msg := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			h.unregister <- c
			return
		}
	}
}
