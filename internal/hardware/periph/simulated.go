package periph

import (
	"context"

	"periph.io/x/conn/v3/analog"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpiotest"

	"github.com/nerrad567/gray-logic-node/internal/hardware"
	"github.com/nerrad567/gray-logic-node/internal/infrastructure/config"
)

// Readings reported by the simulated handles.
const (
	simTemperature = 215 // 21.5 °C
	simHumidity    = 450 // 45.0 %RH
	simLight       = 1200
)

// SimClimate is a climate driver that always reports the same reading.
type SimClimate struct {
	Raw hardware.RawClimate
}

// Measure implements hardware.ClimateDriver.
func (s SimClimate) Measure(ctx context.Context) (hardware.RawClimate, error) {
	if err := ctx.Err(); err != nil {
		return hardware.RawClimate{}, err
	}
	return s.Raw, nil
}

// SimADC is an ADC channel that always reports the same count.
type SimADC struct {
	Raw int32
}

// Read implements hardware.ADC.
func (s SimADC) Read() (analog.Sample, error) {
	return analog.Sample{Raw: s.Raw}, nil
}

// Simulated holds stand-in handles for a host without the sensor board.
type Simulated struct {
	Climate SimClimate
	Light   SimADC
	LED     gpio.PinOut
}

// OpenSimulated returns fixed-reading handles and an in-memory LED pin named
// after the configured one.
func OpenSimulated(cfg config.HardwareConfig) *Simulated {
	return &Simulated{
		Climate: SimClimate{Raw: hardware.RawClimate{Temperature: simTemperature, Humidity: simHumidity}},
		Light:   SimADC{Raw: simLight},
		LED:     &gpiotest.Pin{N: cfg.LED.Pin},
	}
}
