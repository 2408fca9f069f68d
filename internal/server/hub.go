package server

import (
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ayusman/handarm/internal/gesture"
	"github.com/ayusman/handarm/internal/logging"
)

const (
	writeWait   = 2 * time.Second
	updateQueue = 8
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow local connections
	},
}

// Update is one frame's worth of live state.
type Update struct {
	Hand       bool             `json:"hand"`
	Metrics    *gesture.Metrics `json:"metrics,omitempty"`
	Published  bool             `json:"published"`
	Publishing bool             `json:"publishing"`
	Timestamp  int64            `json:"timestamp"`
}

// Hub fans live updates out to websocket clients and keeps the latest
// update and annotated frame for the HTTP endpoints.
// Its Publish methods never block the caller.
type Hub struct {
	log *logging.Logger

	mu      sync.RWMutex
	clients map[*websocket.Conn]bool
	latest  *Update

	frameMu  sync.RWMutex
	frame    []byte
	frameSeq uint64
	viewers  atomic.Int32

	updates chan []byte
	done    chan struct{}
	once    sync.Once
}

// NewHub starts the broadcaster.
func NewHub(log *logging.Logger) *Hub {
	h := &Hub{
		log:     log,
		clients: make(map[*websocket.Conn]bool),
		updates: make(chan []byte, updateQueue),
		done:    make(chan struct{}),
	}
	go h.broadcast()
	return h
}

// PublishMetrics records u as the latest update and queues it for websocket clients.
// When the queue is full the update is not sent; the next one will be.
func (h *Hub) PublishMetrics(u Update) {
	h.mu.Lock()
	h.latest = &u
	n := len(h.clients)
	h.mu.Unlock()

	if n == 0 {
		return
	}

	msg, err := json.Marshal(u)
	if err != nil {
		h.log.Warn("failed to encode update", "error", err)
		return
	}
	select {
	case h.updates <- msg:
	default:
	}
}

// Latest returns the most recent update, or false before the first one.
func (h *Hub) Latest() (Update, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.latest == nil {
		return Update{}, false
	}
	return *h.latest, true
}

// WantsFrames reports whether any MJPEG viewer is connected.
func (h *Hub) WantsFrames() bool {
	return h.viewers.Load() > 0
}

// PublishFrame stores an encoded JPEG as the latest frame.
func (h *Hub) PublishFrame(jpeg []byte) {
	h.frameMu.Lock()
	h.frame = jpeg
	h.frameSeq++
	h.frameMu.Unlock()
}

// Frame returns the latest JPEG and its sequence number.
func (h *Hub) Frame() ([]byte, uint64) {
	h.frameMu.RLock()
	defer h.frameMu.RUnlock()
	return h.frame, h.frameSeq
}

// Clients returns the number of connected websocket clients.
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// ServeHTTP upgrades the request to a websocket and keeps it registered until it closes.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade error", "error", err)
		return
	}
	defer conn.Close()

	h.mu.Lock()
	h.clients[conn] = true
	h.mu.Unlock()

	defer func() {
		h.mu.Lock()
		delete(h.clients, conn)
		h.mu.Unlock()
	}()

	// Keep connection alive by reading messages
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}

// broadcast sends queued updates to all connected clients.
func (h *Hub) broadcast() {
	for {
		select {
		case <-h.done:
			return
		case msg := <-h.updates:
			h.mu.RLock()
			for conn := range h.clients {
				conn.SetWriteDeadline(time.Now().Add(writeWait))
				if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
					h.log.Debug("websocket write failed", "remote", conn.RemoteAddr(), "error", err)
				}
			}
			h.mu.RUnlock()
		}
	}
}

// Close stops the broadcaster and disconnects clients.
func (h *Hub) Close() {
	h.once.Do(func() {
		close(h.done)
		h.mu.Lock()
		for conn := range h.clients {
			conn.Close()
		}
		h.mu.Unlock()
	})
}
