package notify

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
)

// Hub broadcasts notifications to connected WebSocket clients.
// Mount it as an http.Handler (usually at /ws).
type Hub struct {
	clients   map[*websocket.Conn]bool
	clientsMu sync.RWMutex

	broadcast chan Notification

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	logger *log.Logger

	// OriginPatterns is passed to websocket.Accept. Empty means same-origin only.
	OriginPatterns []string
}

// NewHub creates a hub and starts its broadcast loop.
func NewHub(logger *log.Logger) *Hub {
	if logger == nil {
		logger = log.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	h := &Hub{
		clients:   make(map[*websocket.Conn]bool),
		broadcast: make(chan Notification, 100),
		ctx:       ctx,
		cancel:    cancel,
		logger:    logger,
	}
	h.wg.Add(1)
	go h.broadcastLoop()
	return h
}

// Notify queues a notification for every client. Drops when the queue is full.
func (h *Hub) Notify(n Notification) {
	select {
	case h.broadcast <- n:
	case <-h.ctx.Done():
	default:
		h.logger.Println("Warning: notification queue full, dropping message")
	}
}

// ServeHTTP upgrades the request and registers the client.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: h.OriginPatterns,
	})
	if err != nil {
		h.logger.Printf("WebSocket upgrade failed: %v", err)
		return
	}

	h.clientsMu.Lock()
	h.clients[conn] = true
	count := len(h.clients)
	h.clientsMu.Unlock()
	h.logger.Printf("Client connected (total: %d)", count)

	// Block until the client goes away so the handler owns the connection.
	h.readLoop(conn)
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.clientsMu.RLock()
	defer h.clientsMu.RUnlock()
	return len(h.clients)
}

// Close disconnects every client and stops the broadcast loop.
func (h *Hub) Close() {
	h.cancel()

	h.clientsMu.Lock()
	for conn := range h.clients {
		_ = conn.Close(websocket.StatusGoingAway, "server shutting down")
		delete(h.clients, conn)
	}
	h.clientsMu.Unlock()

	h.wg.Wait()
}

func (h *Hub) broadcastLoop() {
	defer h.wg.Done()

	for {
		select {
		case <-h.ctx.Done():
			return
		case n := <-h.broadcast:
			if n.Timestamp.IsZero() {
				n.Timestamp = time.Now()
			}
			data, err := json.Marshal(n)
			if err != nil {
				h.logger.Printf("Failed to marshal notification: %v", err)
				continue
			}

			h.clientsMu.RLock()
			conns := make([]*websocket.Conn, 0, len(h.clients))
			for c := range h.clients {
				conns = append(conns, c)
			}
			h.clientsMu.RUnlock()

			for _, c := range conns {
				ctx, cancel := context.WithTimeout(h.ctx, 5*time.Second)
				err := c.Write(ctx, websocket.MessageText, data)
				cancel()
				if err != nil {
					h.logger.Printf("Failed to send to client: %v", err)
					h.removeClient(c)
				}
			}
		}
	}
}

// readLoop keeps the connection open until the client disconnects.
// Client messages are ignored.
func (h *Hub) readLoop(conn *websocket.Conn) {
	defer h.removeClient(conn)
	for {
		if _, _, err := conn.Read(h.ctx); err != nil {
			return
		}
	}
}

func (h *Hub) removeClient(conn *websocket.Conn) {
	h.clientsMu.Lock()
	if _, ok := h.clients[conn]; !ok {
		h.clientsMu.Unlock()
		return
	}
	delete(h.clients, conn)
	count := len(h.clients)
	h.clientsMu.Unlock()

	_ = conn.Close(websocket.StatusNormalClosure, "")
	h.logger.Printf("Client disconnected (total: %d)", count)
}
