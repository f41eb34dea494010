package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

// upgrader configures the WebSocket upgrader.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(_ *http.Request) bool {
		// Origin checking is handled by CORS middleware
		return true
	},
}

// subscriber is one live telemetry connection.
type subscriber struct {
	conn *websocket.Conn
	out  chan []byte
}

func newSubscriber(conn *websocket.Conn) *subscriber {
	return &subscriber{conn: conn, out: make(chan []byte, wsSendBufferSize)}
}

// queue offers a frame without blocking. The caller holds the hub lock.
func (s *subscriber) queue(data []byte) bool {
	select {
	case s.out <- data:
		return true
	default:
		return false
	}
}

// handleWebSocket upgrades the connection and streams telemetry frames.
//
// With a JWT secret configured the token travels in the "token" query
// parameter, since browsers cannot set headers on a WebSocket handshake.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	if secret := s.secCfg.JWT.Secret; secret != "" {
		token := r.URL.Query().Get("token")
		if token == "" {
			writeUnauthorized(w, "token query parameter is required")
			return
		}
		if _, err := parseToken(token, secret); err != nil {
			writeUnauthorized(w, "invalid or expired token")
			return
		}
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("websocket upgrade failed", "error", err)
		return
	}

	sub := newSubscriber(conn)
	if !s.hub.add(sub) {
		//nolint:errcheck // Best-effort close during shutdown
		conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"))
		conn.Close()
		return
	}

	go s.hub.writeLoop(sub)
	go s.hub.readLoop(sub)
}

// readLoop handles client frames until the connection fails.
// Any inbound frame, or a pong, extends the read deadline.
func (h *Hub) readLoop(sub *subscriber) {
	defer func() {
		h.remove(sub)
		sub.conn.Close()
	}()

	idle := time.Duration(h.cfg.PingInterval+h.cfg.PongTimeout) * time.Second
	extend := func() error {
		return sub.conn.SetReadDeadline(time.Now().Add(idle))
	}

	sub.conn.SetReadLimit(int64(h.cfg.MaxMessageSize))
	_ = extend() //nolint:errcheck // Best-effort deadline on connection setup
	sub.conn.SetPongHandler(func(string) error { return extend() })

	for {
		_, data, err := sub.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Warn("websocket read error", "error", err)
			}
			return
		}
		_ = extend() //nolint:errcheck // Best-effort deadline reset

		if reply := h.reply(data); reply != nil {
			h.mu.Lock()
			if _, ok := h.subs[sub]; ok {
				sub.queue(reply)
			}
			h.mu.Unlock()
		}
	}
}

// reply builds the answer to one client frame.
func (h *Hub) reply(data []byte) []byte {
	var in Frame
	var out Frame
	switch err := json.Unmarshal(data, &in); {
	case err != nil:
		out = Frame{Type: FrameError, Error: "invalid JSON frame"}
	case in.Type == FramePing:
		out = Frame{Type: FramePong, ID: in.ID}
	default:
		out = Frame{Type: FrameError, ID: in.ID, Error: "unsupported frame type: " + in.Type}
	}

	encoded, err := json.Marshal(out)
	if err != nil {
		return nil
	}
	return encoded
}

// writeLoop sends queued frames and keepalive pings. It exits when the
// hub closes the queue or a write fails.
func (h *Hub) writeLoop(sub *subscriber) {
	ticker := time.NewTicker(time.Duration(h.cfg.PingInterval) * time.Second)
	defer func() {
		ticker.Stop()
		sub.conn.Close()
	}()

	writeWait := time.Duration(h.cfg.PongTimeout) * time.Second

	for {
		select {
		case data, ok := <-sub.out:
			//nolint:errcheck // Best-effort deadline; write error caught below
			sub.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				//nolint:errcheck // Best-effort close frame
				sub.conn.WriteMessage(websocket.CloseMessage, nil)
				return
			}
			if err := sub.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			//nolint:errcheck // Best-effort deadline; ping error caught below
			sub.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := sub.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
