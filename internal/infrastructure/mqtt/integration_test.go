//go:build integration

package mqtt

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/nerrad567/gray-logic-node/internal/infrastructure/config"
)

// Integration tests against a real broker at 127.0.0.1:1883.
//
// Run with:
//   go test -tags=integration -count=1 -v ./internal/infrastructure/mqtt/...

func integrationConfig(clientID string) config.MQTTConfig {
	cfg := testConfig()
	cfg.Broker.ClientID = clientID
	return cfg
}

func TestIntegration_Connect(t *testing.T) {
	client, err := Connect(integrationConfig("node-int-connect"))
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer client.Close()

	if !client.IsConnected() {
		t.Error("IsConnected() = false, want true")
	}
	if err := client.HealthCheck(context.Background()); err != nil {
		t.Errorf("HealthCheck() error = %v", err)
	}
}

func TestIntegration_ConnectRefused(t *testing.T) {
	cfg := integrationConfig("node-int-refused")
	cfg.Broker.Port = 19999

	_, err := Connect(cfg)
	if !errors.Is(err, ErrConnectionFailed) {
		t.Errorf("Connect() error = %v, want ErrConnectionFailed", err)
	}
}

func TestIntegration_TelemetryRoundtrip(t *testing.T) {
	sub, err := Connect(integrationConfig("node-int-sub"))
	if err != nil {
		t.Fatalf("Connect() subscriber error = %v", err)
	}
	defer sub.Close()

	pub, err := Connect(integrationConfig("node-int-pub"))
	if err != nil {
		t.Fatalf("Connect() publisher error = %v", err)
	}
	defer pub.Close()

	const topic = "graylogic/int/worker/rawData"
	if err := sub.Listen(topic); err != nil {
		t.Fatalf("Listen() error = %v", err)
	}
	time.Sleep(100 * time.Millisecond)

	want := `{"temp":23.5,"humidity":61.2}`
	if err := pub.Publish(topic, []byte(want), 0, false); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	deadline := time.After(5 * time.Second)
	for {
		select {
		case ev := <-sub.Events():
			if ev.Kind != EventMessage || ev.Topic != topic {
				continue
			}
			if string(ev.Payload) != want {
				t.Errorf("payload = %q, want %q", ev.Payload, want)
			}
			return
		case <-deadline:
			t.Fatal("timeout waiting for telemetry message")
		}
	}
}
