package periph

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/nerrad567/gray-logic-node/internal/hardware"
)

func TestClimate_Measure(t *testing.T) {
	c := &Climate{read: func() (float32, float32, error) { return 23.5, 61.2, nil }}

	raw, err := c.Measure(context.Background())
	if err != nil {
		t.Fatalf("Measure() error = %v", err)
	}
	want := hardware.RawClimate{Temperature: 235, Humidity: 612}
	if raw != want {
		t.Errorf("Measure() = %+v, want %+v", raw, want)
	}
}

func TestClimate_DriverError(t *testing.T) {
	wantErr := errors.New("checksum")
	c := &Climate{read: func() (float32, float32, error) { return -1, -1, wantErr }}

	if _, err := c.Measure(context.Background()); !errors.Is(err, wantErr) {
		t.Errorf("Measure() error = %v, want %v", err, wantErr)
	}
}

func TestClimate_TimeoutWaitsForStaleRead(t *testing.T) {
	release := make(chan struct{})
	var inFlight, maxInFlight atomic.Int32
	c := &Climate{read: func() (float32, float32, error) {
		n := inFlight.Add(1)
		if n > maxInFlight.Load() {
			maxInFlight.Store(n)
		}
		defer inFlight.Add(-1)
		<-release
		return 20, 50, nil
	}}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := c.Measure(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Measure() error = %v, want DeadlineExceeded", err)
	}

	// The stale read still holds the sensor; a short second attempt also times out.
	ctx2, cancel2 := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel2()
	if _, err := c.Measure(ctx2); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("second Measure() error = %v, want DeadlineExceeded", err)
	}

	close(release)
	raw, err := c.Measure(context.Background())
	if err != nil {
		t.Fatalf("third Measure() error = %v", err)
	}
	if raw.Temperature != 200 {
		t.Errorf("Temperature = %d, want 200", raw.Temperature)
	}
	if maxInFlight.Load() > 1 {
		t.Errorf("reads in flight at once = %d, want 1", maxInFlight.Load())
	}
}

func TestToTenths_Rounds(t *testing.T) {
	raw := toTenths(22.999, 40.05)
	if raw.Temperature != 230 {
		t.Errorf("Temperature = %d, want 230", raw.Temperature)
	}
	if raw.Humidity != 401 && raw.Humidity != 400 {
		t.Errorf("Humidity = %d, want 400 or 401", raw.Humidity)
	}
}

func TestIsDHT22(t *testing.T) {
	if !isDHT22("DHT22") || isDHT22("dht11") {
		t.Error("isDHT22 mismatch")
	}
}
