package api

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"

	"github.com/nerrad567/gray-logic-node/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-node/internal/infrastructure/logging"
	"github.com/nerrad567/gray-logic-node/internal/telemetry"
)

// Frame types on the live telemetry socket.
const (
	FrameReading = "reading"
	FramePing    = "ping"
	FramePong    = "pong"
	FrameError   = "error"
)

// Frame is one JSON message on the live telemetry socket.
//
// Server to client: "reading" (Seq and Reading set), "pong", "error".
// Client to server: "ping". ID is echoed back on the reply.
type Frame struct {
	Type    string             `json:"type"`
	ID      string             `json:"id,omitempty"`
	Seq     uint64             `json:"seq,omitempty"`
	Reading *telemetry.Reading `json:"reading,omitempty"`
	Error   string             `json:"error,omitempty"`
}

// Feed defaults applied when the config leaves a value unset.
const (
	defaultWSMaxMessageSize = 4096
	defaultWSPingInterval   = 30
	defaultWSPongTimeout    = 10

	// wsSendBufferSize is the per-subscriber outbound frame buffer.
	wsSendBufferSize = 64
)

// Hub fans telemetry readings out to WebSocket subscribers.
//
// A new subscriber is sent the most recent reading straight away, so a
// dashboard does not sit empty until the next tick. A subscriber whose
// buffer is full misses frames; the telemetry loop is never held up.
type Hub struct {
	cfg    config.WebSocketConfig
	logger *logging.Logger

	// mu guards subs, last and closed. Frames are queued and channels
	// closed only while it is held.
	mu     sync.Mutex
	subs   map[*subscriber]struct{}
	last   []byte
	closed bool

	seq     atomic.Uint64
	dropped atomic.Uint64
}

// NewHub creates a hub. Zero values in cfg fall back to defaults.
func NewHub(cfg config.WebSocketConfig, logger *logging.Logger) *Hub {
	if cfg.MaxMessageSize <= 0 {
		cfg.MaxMessageSize = defaultWSMaxMessageSize
	}
	if cfg.PingInterval <= 0 {
		cfg.PingInterval = defaultWSPingInterval
	}
	if cfg.PongTimeout <= 0 {
		cfg.PongTimeout = defaultWSPongTimeout
	}
	return &Hub{
		cfg:    cfg,
		logger: logger,
		subs:   make(map[*subscriber]struct{}),
	}
}

// Run blocks until ctx is cancelled, then disconnects every subscriber.
func (h *Hub) Run(ctx context.Context) {
	<-ctx.Done()
	h.shutdown()
}

// Record publishes a reading to every subscriber. It never blocks, which
// lets the hub serve as a telemetry.Recorder.
func (h *Hub) Record(r telemetry.Reading) {
	data, err := json.Marshal(Frame{Type: FrameReading, Seq: h.seq.Add(1), Reading: &r})
	if err != nil {
		h.logger.Error("encoding telemetry frame failed", "error", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.last = data
	for s := range h.subs {
		if !s.queue(data) {
			h.dropped.Add(1)
		}
	}
}

// ClientCount returns the number of connected subscribers.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// Dropped returns how many frames were skipped for slow subscribers.
func (h *Hub) Dropped() uint64 {
	return h.dropped.Load()
}

// add registers s and queues the latest reading for it.
// It reports false once the hub has shut down.
func (h *Hub) add(s *subscriber) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return false
	}
	h.subs[s] = struct{}{}
	if h.last != nil {
		s.queue(h.last)
	}
	h.logger.Debug("websocket subscriber connected", "clients", len(h.subs))
	return true
}

// remove unregisters s and closes its outbound queue. Safe to call twice.
func (h *Hub) remove(s *subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.subs[s]; !ok {
		return
	}
	delete(h.subs, s)
	close(s.out)
	h.logger.Debug("websocket subscriber disconnected", "clients", len(h.subs))
}

func (h *Hub) shutdown() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.closed = true
	for s := range h.subs {
		delete(h.subs, s)
		close(s.out)
	}
}
