package periph

import (
	"context"
	"errors"
	"testing"

	"periph.io/x/conn/v3/gpio"

	"github.com/nerrad567/gray-logic-node/internal/hardware"
	"github.com/nerrad567/gray-logic-node/internal/infrastructure/config"
)

func TestOpenSimulated(t *testing.T) {
	sim := OpenSimulated(config.HardwareConfig{LED: config.LEDConfig{Pin: "GPIO2"}})

	raw, err := sim.Climate.Measure(context.Background())
	if err != nil || raw.Measurement().Temperature != 21.5 {
		t.Errorf("Measure() = %+v, %v; want 21.5 °C", raw, err)
	}

	sample, err := sim.Light.Read()
	if err != nil || sample.Raw != simLight {
		t.Errorf("Read() = %+v, %v", sample, err)
	}

	if sim.LED.Name() != "GPIO2" {
		t.Errorf("LED name = %q, want GPIO2", sim.LED.Name())
	}

	actuator := hardware.NewActuator(sim.LED)
	if err := actuator.Set(hardware.On); err != nil {
		t.Fatalf("Set(On) error = %v", err)
	}
	if sim.LED.(gpio.PinIn).Read() != gpio.High {
		t.Error("simulated LED not driven high")
	}
}

func TestSimClimate_HonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := (SimClimate{}).Measure(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Measure() error = %v, want context.Canceled", err)
	}
}
