package hardware

import (
	"context"

	"periph.io/x/conn/v3/analog"
	"periph.io/x/conn/v3/gpio"
)

// RawClimate is one reading from the climate sensor in tenths of a unit
// (235 means 23.5 °C, 612 means 61.2 %RH).
type RawClimate struct {
	Temperature int
	Humidity    int
}

// ClimateDriver performs a single temperature/humidity conversion.
//
// Implementations must return once ctx is done. A driver that cannot abort a
// conversion in flight must still not let a second conversion start until the
// first has finished.
type ClimateDriver interface {
	Measure(ctx context.Context) (RawClimate, error)
}

// ADC reads one analog channel. periph's analog.PinADC satisfies it.
type ADC interface {
	Read() (analog.Sample, error)
}

// OutputPin drives one digital output. periph's gpio.PinOut satisfies it.
type OutputPin interface {
	Out(l gpio.Level) error
}
