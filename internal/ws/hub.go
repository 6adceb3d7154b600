// Package ws pushes engine snapshots to dashboard clients over WebSocket.
// The stream is one-way: clients never send commands here, every mutation
// goes through the HTTP API and shows up in the next broadcast.
package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"sensorwatch/internal/engine"
	"sensorwatch/internal/logger"
	"sensorwatch/internal/metrics"
)

const (
	// writeWait bounds a single frame write.
	writeWait = 10 * time.Second

	// pongWait is how long a connection may stay silent before it is
	// considered dead. pingInterval must be shorter.
	pongWait     = 60 * time.Second
	pingInterval = (pongWait * 9) / 10

	// outboxDepth is the per-session snapshot buffer. A session that falls
	// this far behind is dropped rather than backpressuring the broadcast.
	outboxDepth = 16
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	// Origin policy belongs to the reverse proxy in front of this service.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Message is the envelope for every frame sent to a client.
type Message struct {
	Event string          `json:"event"`
	Data  engine.Snapshot `json:"data"`
}

// session is one connected dashboard client. Its outbox is closed only by
// the hub, under the hub's write lock.
type session struct {
	conn   *websocket.Conn
	outbox chan []byte
}

// Hub fans the current engine snapshot out to all connected sessions on a
// fixed interval. Snapshot payloads are marshalled once per broadcast, not
// per session.
//
// Locking: sends into session outboxes happen only while holding mu for
// read; outboxes are closed only while holding mu for write. A send can
// therefore never race a close.
type Hub struct {
	engine   *engine.Engine
	interval time.Duration

	mu       sync.RWMutex
	sessions map[*session]struct{}
}

// New creates a Hub that reads from eng and broadcasts every interval.
func New(eng *engine.Engine, interval time.Duration) *Hub {
	return &Hub{
		engine:   eng,
		interval: interval,
		sessions: make(map[*session]struct{}),
	}
}

// Run drives the broadcast loop until ctx is cancelled, then disconnects
// every session.
func (h *Hub) Run(ctx context.Context) {
	t := time.NewTicker(h.interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return
		case <-t.C:
			h.broadcast()
		}
	}
}

// ServeHTTP upgrades the request and serves the session until the client
// disconnects. The current snapshot is queued before the session becomes
// visible to broadcasts, so a client always has data on connect.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log := logger.WithComponent("ws")
		log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	s := &session{
		conn:   conn,
		outbox: make(chan []byte, outboxDepth),
	}
	if payload, err := h.snapshotPayload(); err == nil {
		s.outbox <- payload
	}

	h.attach(s)
	defer h.detach(s)

	go s.writeLoop()
	s.readLoop() // returns when the connection dies
}

// Count returns the number of connected sessions.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions)
}

func (h *Hub) attach(s *session) {
	h.mu.Lock()
	h.sessions[s] = struct{}{}
	metrics.WSClients.Set(float64(len(h.sessions)))
	h.mu.Unlock()
}

// detach removes the session and closes its outbox. Idempotent: the slow-path
// drop in broadcast and the deferred detach in ServeHTTP may both fire.
func (h *Hub) detach(s *session) {
	h.mu.Lock()
	if _, ok := h.sessions[s]; ok {
		delete(h.sessions, s)
		close(s.outbox)
	}
	metrics.WSClients.Set(float64(len(h.sessions)))
	h.mu.Unlock()
}

func (h *Hub) broadcast() {
	payload, err := h.snapshotPayload()
	if err != nil {
		return
	}

	var stale []*session
	h.mu.RLock()
	for s := range h.sessions {
		select {
		case s.outbox <- payload:
		default:
			stale = append(stale, s)
		}
	}
	h.mu.RUnlock()

	// Full outbox means the client stopped draining; cut it loose.
	for _, s := range stale {
		h.detach(s)
	}
}

func (h *Hub) snapshotPayload() ([]byte, error) {
	return json.Marshal(Message{
		Event: "snapshot",
		Data:  h.engine.Snapshot(),
	})
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for s := range h.sessions {
		close(s.outbox)
		delete(h.sessions, s)
	}
	metrics.WSClients.Set(0)
}

// writeLoop forwards outbox payloads to the connection and keeps the client
// alive with pings. One per session; exits when the outbox closes or a
// write fails.
func (s *session) writeLoop() {
	pings := time.NewTicker(pingInterval)
	defer func() {
		pings.Stop()
		s.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-s.outbox:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Hub detached us; say goodbye properly.
				s.conn.WriteMessage(websocket.CloseMessage, []byte{}) //nolint:errcheck
				return
			}
			if err := s.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}

		case <-pings.C:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readLoop consumes control frames (pong, close) and detects disconnects.
// Clients have nothing to say on this stream; any data frames are discarded.
func (s *session) readLoop() {
	defer s.conn.Close()
	s.conn.SetReadLimit(512)
	s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		s.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		if _, _, err := s.conn.ReadMessage(); err != nil {
			return
		}
	}
}
