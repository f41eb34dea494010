package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/nerrad567/gray-logic-node/internal/audit"
	"github.com/nerrad567/gray-logic-node/internal/hardware"
	"github.com/nerrad567/gray-logic-node/internal/telemetry"
	"periph.io/x/conn/v3/gpio"
)

func TestOp_ActuatorOnThenReadTemperature(t *testing.T) {
	env := newTestEnv(t)

	w := env.get(t, "/led/on")
	if w.Code != http.StatusOK || w.Body.String() != "success" {
		t.Fatalf("GET /led/on = %d %q, want 200 success", w.Code, w.Body.String())
	}
	state, err := env.actuator.State()
	if err != nil || state != hardware.On {
		t.Errorf("actuator state = %v, %v; want on", state, err)
	}
	if env.pin.Level() != gpio.High {
		t.Errorf("pin level = %v, want High", env.pin.Level())
	}

	env.driver.SetReading(hardware.RawClimate{Temperature: 250, Humidity: 400})
	w = env.get(t, "/temp")
	if w.Code != http.StatusOK || w.Body.String() != "25" {
		t.Errorf("GET /temp = %d %q, want 200 25", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Errorf("Content-Type = %q, want text/plain", ct)
	}
}

func TestOp_Readings(t *testing.T) {
	tests := []struct {
		path string
		raw  hardware.RawClimate
		want string
	}{
		{"/temp", hardware.RawClimate{Temperature: 235, Humidity: 612}, "23.5"},
		{"/humidity", hardware.RawClimate{Temperature: 235, Humidity: 612}, "61.2"},
		{"/temp", hardware.RawClimate{Temperature: -45, Humidity: 0}, "-4.5"},
		{"/humidity", hardware.RawClimate{Temperature: 0, Humidity: 1000}, "100"},
	}

	for _, tt := range tests {
		t.Run(tt.path+"="+tt.want, func(t *testing.T) {
			env := newTestEnv(t)
			env.driver.SetReading(tt.raw)

			w := env.get(t, tt.path)
			if w.Code != http.StatusOK || w.Body.String() != tt.want {
				t.Errorf("GET %s = %d %q, want 200 %q", tt.path, w.Code, w.Body.String(), tt.want)
			}
		})
	}
}

func TestOp_OnOffLastWriteWins(t *testing.T) {
	env := newTestEnv(t)

	env.get(t, "/led/on")
	env.get(t, "/led/off")

	state, err := env.actuator.State()
	if err != nil || state != hardware.Off {
		t.Errorf("actuator state = %v, %v; want off", state, err)
	}
	if env.pin.Level() != gpio.Low {
		t.Errorf("pin level = %v, want Low", env.pin.Level())
	}
}

func TestOp_SensorFailure(t *testing.T) {
	tests := []struct {
		path   string
		prefix string
	}{
		{"/temp", "read temperature from sensor failed: "},
		{"/humidity", "read humidity from sensor failed: "},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			env := newTestEnv(t)
			env.driver.SetError(errors.New("checksum mismatch"))

			w := env.get(t, tt.path)
			if w.Code != http.StatusInternalServerError {
				t.Fatalf("status = %d, want 500", w.Code)
			}
			body := w.Body.String()
			if !strings.HasPrefix(body, tt.prefix) {
				t.Errorf("body = %q, want prefix %q", body, tt.prefix)
			}
			if !strings.Contains(body, "checksum mismatch") || !strings.Contains(body, hardware.ErrHardwareTiming.Error()) {
				t.Errorf("body = %q, want cause and failure class", body)
			}
		})
	}
}

func TestOp_SensorHangAnswersWithinBudget(t *testing.T) {
	env := newTestEnv(t)
	env.driver.SetHang(true)

	done := make(chan int, 1)
	go func() { done <- env.get(t, "/temp").Code }()

	select {
	case code := <-done:
		if code != http.StatusInternalServerError {
			t.Errorf("status = %d, want 500", code)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("request did not complete within a bounded time")
	}
}

func TestOp_SensorRecoversOnNextRequest(t *testing.T) {
	env := newTestEnv(t)
	env.driver.FailNext(1, errors.New("no response"))

	if w := env.get(t, "/temp"); w.Code != http.StatusInternalServerError {
		t.Errorf("first status = %d, want 500", w.Code)
	}
	if w := env.get(t, "/temp"); w.Code != http.StatusOK || w.Body.String() != "23.5" {
		t.Errorf("second = %d %q, want 200 23.5", w.Code, w.Body.String())
	}
}

func TestOp_ActuatorFaultEscalates(t *testing.T) {
	env := newTestEnv(t)

	var mu sync.Mutex
	var escalated []error
	env.actuator.SetFaultHandler(func(err error) {
		mu.Lock()
		escalated = append(escalated, err)
		mu.Unlock()
	})
	env.pin.SetError(errors.New("gpio write: EIO"))

	w := env.get(t, "/led/on")
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", w.Code)
	}
	if !strings.HasPrefix(w.Body.String(), "set led on failed: ") {
		t.Errorf("body = %q", w.Body.String())
	}

	mu.Lock()
	defer mu.Unlock()
	if len(escalated) != 1 || !errors.Is(escalated[0], hardware.ErrFatalActuatorFault) {
		t.Errorf("escalated = %v, want one fatal actuator fault", escalated)
	}
}

func TestOp_LivenessUnderTelemetryContention(t *testing.T) {
	env := newTestEnv(t)
	env.driver.SetDelay(2 * time.Millisecond)

	loop := telemetry.New(telemetry.Config{
		Interval: time.Millisecond,
		Topic:    "worker/rawData",
		Climate:  env.climate,
	})
	ctx, cancel := context.WithCancel(context.Background())
	loopDone := make(chan struct{})
	go func() {
		loop.Run(ctx)
		close(loopDone)
	}()

	const requests = 20
	var wg sync.WaitGroup
	codes := make(chan int, requests)
	for i := 0; i < requests; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			path := "/temp"
			if i%2 == 1 {
				path = "/humidity"
			}
			codes <- env.get(t, path).Code
		}(i)
	}

	finished := make(chan struct{})
	go func() {
		wg.Wait()
		close(finished)
	}()

	select {
	case <-finished:
	case <-time.After(5 * time.Second):
		t.Fatal("requests starved while telemetry loop ran")
	}
	cancel()
	<-loopDone

	close(codes)
	for code := range codes {
		if code != http.StatusOK {
			t.Errorf("status = %d, want 200", code)
		}
	}
	if env.driver.Overlapped() {
		t.Error("climate driver was entered by two callers at once")
	}
	if loop.Stats().Ticks == 0 {
		t.Error("telemetry loop never ticked")
	}
}

func TestDispatch_UnknownOp(t *testing.T) {
	env := newTestEnv(t)

	if _, err := env.srv.dispatch(context.Background(), Op(99)); !errors.Is(err, ErrUnknownOp) {
		t.Errorf("dispatch(99) error = %v, want ErrUnknownOp", err)
	}
}

func TestOp_String(t *testing.T) {
	tests := []struct {
		op       Op
		name     string
		describe string
	}{
		{OpActuatorOn, "actuator_on", "set led on"},
		{OpActuatorOff, "actuator_off", "set led off"},
		{OpReadTemperature, "read_temperature", "read temperature from sensor"},
		{OpReadHumidity, "read_humidity", "read humidity from sensor"},
		{Op(0), "unknown", "unknown operation"},
	}
	for _, tt := range tests {
		if got := tt.op.String(); got != tt.name {
			t.Errorf("Op(%d).String() = %q, want %q", tt.op, got, tt.name)
		}
		if got := tt.op.describe(); got != tt.describe {
			t.Errorf("Op(%d).describe() = %q, want %q", tt.op, got, tt.describe)
		}
	}
}

func TestFormatReading(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{25, "25"},
		{23.5, "23.5"},
		{61.2, "61.2"},
		{-0.5, "-0.5"},
		{0, "0"},
	}
	for _, tt := range tests {
		if got := formatReading(tt.in); got != tt.want {
			t.Errorf("formatReading(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestJournal_RecordsCommandsAndFailures(t *testing.T) {
	env := newTestEnv(t, withJournal(t))

	env.get(t, "/led/on")
	env.driver.SetError(errors.New("checksum mismatch"))
	env.get(t, "/temp", "X-Request-ID", "req-7")
	env.flushJournal()

	w := env.get(t, "/api/v1/journal")
	if w.Code != http.StatusOK {
		t.Fatalf("journal status = %d", w.Code)
	}
	var all audit.ListResult
	if err := json.NewDecoder(w.Body).Decode(&all); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if all.Total != 2 {
		t.Fatalf("total = %d, want 2", all.Total)
	}

	w = env.get(t, "/api/v1/journal?action=failure&limit=10")
	var failures audit.ListResult
	if err := json.NewDecoder(w.Body).Decode(&failures); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if failures.Total != 1 || failures.Limit != 10 {
		t.Fatalf("failures = %+v, want 1 entry, limit 10", failures)
	}
	e := failures.Entries[0]
	if e.Operation != "read_temperature" || e.Source != "http" || e.Details["request_id"] != "req-7" {
		t.Errorf("entry = %+v", e)
	}
}

func TestJournal_NotConfigured(t *testing.T) {
	env := newTestEnv(t)

	if w := env.get(t, "/api/v1/journal"); w.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", w.Code)
	}
}
