package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/nerrad567/gray-logic-node/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-node/internal/infrastructure/logging"
	"github.com/nerrad567/gray-logic-node/internal/telemetry"
)

func newTestHub() *Hub {
	return NewHub(config.WebSocketConfig{MaxMessageSize: 8192, PingInterval: 30, PongTimeout: 10}, logging.Discard())
}

func newTestSubscriber(buffer int) *subscriber {
	return &subscriber{out: make(chan []byte, buffer)}
}

func decodeFrame(t *testing.T, data []byte) Frame {
	t.Helper()
	var f Frame
	if err := json.Unmarshal(data, &f); err != nil {
		t.Fatalf("unmarshal frame %s: %v", data, err)
	}
	return f
}

func TestHub_RecordFansOut(t *testing.T) {
	hub := newTestHub()
	a := newTestSubscriber(wsSendBufferSize)
	b := newTestSubscriber(wsSendBufferSize)
	hub.add(a)
	hub.add(b)

	light := int32(812)
	hub.Record(telemetry.Reading{Temperature: 23.5, Humidity: 61.2, Light: &light, Time: time.Now()})

	for name, sub := range map[string]*subscriber{"a": a, "b": b} {
		select {
		case data := <-sub.out:
			f := decodeFrame(t, data)
			if f.Type != FrameReading || f.Seq != 1 {
				t.Errorf("%s: frame = %+v", name, f)
			}
			if f.Reading == nil || f.Reading.Temperature != 23.5 || f.Reading.Light == nil || *f.Reading.Light != 812 {
				t.Errorf("%s: reading = %+v", name, f.Reading)
			}
		default:
			t.Errorf("%s: no frame queued", name)
		}
	}
}

func TestHub_ReplaysLastReading(t *testing.T) {
	hub := newTestHub()
	hub.Record(telemetry.Reading{Temperature: 20})
	hub.Record(telemetry.Reading{Temperature: 21})

	sub := newTestSubscriber(wsSendBufferSize)
	hub.add(sub)

	select {
	case data := <-sub.out:
		f := decodeFrame(t, data)
		if f.Seq != 2 || f.Reading.Temperature != 21 {
			t.Errorf("replayed frame = %+v, want seq 2 at 21", f)
		}
	default:
		t.Fatal("latest reading not replayed on connect")
	}
}

func TestHub_SlowSubscriberDropsFrames(t *testing.T) {
	hub := newTestHub()
	sub := newTestSubscriber(1)
	hub.add(sub)

	hub.Record(telemetry.Reading{Temperature: 20})
	hub.Record(telemetry.Reading{Temperature: 21})
	hub.Record(telemetry.Reading{Temperature: 22})

	if got := hub.Dropped(); got != 2 {
		t.Errorf("Dropped() = %d, want 2", got)
	}
	if f := decodeFrame(t, <-sub.out); f.Seq != 1 {
		t.Errorf("queued frame seq = %d, want 1", f.Seq)
	}
}

func TestHub_AddRemove(t *testing.T) {
	hub := newTestHub()
	sub := newTestSubscriber(wsSendBufferSize)

	hub.add(sub)
	if hub.ClientCount() != 1 {
		t.Errorf("after add count = %d, want 1", hub.ClientCount())
	}

	hub.remove(sub)
	hub.remove(sub)
	if hub.ClientCount() != 0 {
		t.Errorf("after remove count = %d, want 0", hub.ClientCount())
	}
	if _, ok := <-sub.out; ok {
		t.Error("queue should be closed after remove")
	}

	// Recording after removal must not touch the closed queue.
	hub.Record(telemetry.Reading{Temperature: 20})
}

func TestHub_RunShutsDownOnCancel(t *testing.T) {
	hub := newTestHub()
	sub := newTestSubscriber(wsSendBufferSize)
	hub.add(sub)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}

	if _, ok := <-sub.out; ok {
		t.Error("subscriber queue should be closed on shutdown")
	}
	if hub.add(newTestSubscriber(1)) {
		t.Error("add after shutdown should be refused")
	}
}

func TestHub_Reply(t *testing.T) {
	hub := newTestHub()

	tests := []struct {
		name   string
		in     string
		want   string
		wantID string
	}{
		{"ping", `{"type":"ping","id":"p1"}`, FramePong, "p1"},
		{"unsupported", `{"type":"subscribe","id":"s1"}`, FrameError, "s1"},
		{"invalid json", `{not json`, FrameError, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := decodeFrame(t, hub.reply([]byte(tt.in)))
			if f.Type != tt.want || f.ID != tt.wantID {
				t.Errorf("reply = %+v, want type %s id %q", f, tt.want, tt.wantID)
			}
		})
	}
}

func TestNewHub_Defaults(t *testing.T) {
	hub := NewHub(config.WebSocketConfig{}, logging.Discard())
	if hub.cfg.PingInterval <= 0 || hub.cfg.PongTimeout <= 0 || hub.cfg.MaxMessageSize <= 0 {
		t.Errorf("cfg = %+v, want defaults filled in", hub.cfg)
	}
}

func dialWS(t *testing.T, ts *httptest.Server, query string) (*websocket.Conn, *http.Response, error) {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/v1/ws" + query
	return websocket.DefaultDialer.Dial(url, nil)
}

func readFrame(t *testing.T, ws *websocket.Conn) Frame {
	t.Helper()
	_ = ws.SetReadDeadline(time.Now().Add(2 * time.Second))
	var f Frame
	if err := ws.ReadJSON(&f); err != nil {
		t.Fatalf("read frame: %v", err)
	}
	return f
}

func TestWebSocket_StreamsTelemetry(t *testing.T) {
	env := newTestEnv(t)
	ts := httptest.NewServer(env.router)
	defer ts.Close()

	hub := env.srv.Hub()
	hub.Record(telemetry.Reading{Temperature: 21, Humidity: 40})

	ws, _, err := dialWS(t, ts, "")
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer ws.Close()

	// The replay proves the subscriber is registered.
	if f := readFrame(t, ws); f.Type != FrameReading || f.Seq != 1 {
		t.Fatalf("first frame = %+v, want replayed reading", f)
	}

	hub.Record(telemetry.Reading{Temperature: 22, Humidity: 41})

	f := readFrame(t, ws)
	if f.Type != FrameReading || f.Seq != 2 || f.Reading == nil || f.Reading.Temperature != 22 {
		t.Errorf("second frame = %+v", f)
	}
}

func TestWebSocket_Ping(t *testing.T) {
	env := newTestEnv(t)
	ts := httptest.NewServer(env.router)
	defer ts.Close()

	ws, _, err := dialWS(t, ts, "")
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer ws.Close()

	if err := ws.WriteJSON(Frame{Type: FramePing, ID: "p1"}); err != nil {
		t.Fatalf("write ping: %v", err)
	}
	if f := readFrame(t, ws); f.Type != FramePong || f.ID != "p1" {
		t.Errorf("response = %+v, want pong p1", f)
	}
}

func TestWebSocket_TokenRequiredWithSecret(t *testing.T) {
	env := newTestEnv(t, withSecret)
	ts := httptest.NewServer(env.router)
	defer ts.Close()

	_, resp, err := dialWS(t, ts, "")
	if err == nil {
		t.Fatal("dial without token should fail")
	}
	if resp == nil || resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("handshake response = %v, want 401", resp)
	}

	ws, _, err := dialWS(t, ts, "?token="+signToken(t, testSecret, jwtClaims("panel")))
	if err != nil {
		t.Fatalf("dial with token: %v", err)
	}
	ws.Close()
}
