package periph

import (
	"fmt"

	"periph.io/x/conn/v3/analog"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/devices/v3/ads1x15"

	"github.com/nerrad567/gray-logic-node/internal/infrastructure/config"
)

// Light is one single-ended ADS1115 channel wired to the light sensor.
type Light struct {
	bus i2c.BusCloser
	pin ads1x15.PinADC
}

var channels = [...]ads1x15.Channel{
	ads1x15.Channel0,
	ads1x15.Channel1,
	ads1x15.Channel2,
	ads1x15.Channel3,
}

// OpenLight opens the I²C bus and configures the ADC channel named in cfg.
func OpenLight(cfg config.LightConfig) (*Light, error) {
	if cfg.Channel < 0 || cfg.Channel >= len(channels) {
		return nil, fmt.Errorf("adc channel %d out of range", cfg.Channel)
	}

	bus, err := i2creg.Open(cfg.I2CBus)
	if err != nil {
		return nil, fmt.Errorf("opening i2c bus %q: %w", cfg.I2CBus, err)
	}

	opts := ads1x15.DefaultOpts
	if cfg.Address != 0 {
		opts.I2cAddress = cfg.Address
	}

	adc, err := ads1x15.NewADS1115(bus, &opts)
	if err != nil {
		_ = bus.Close()
		return nil, fmt.Errorf("opening ads1115 at %#x: %w", opts.I2cAddress, err)
	}

	pin, err := adc.PinForChannel(channels[cfg.Channel], 5*physic.Volt, 1*physic.Hertz, ads1x15.SaveEnergy)
	if err != nil {
		_ = bus.Close()
		return nil, fmt.Errorf("configuring adc channel %d: %w", cfg.Channel, err)
	}

	return &Light{bus: bus, pin: pin}, nil
}

// Read performs one conversion.
func (l *Light) Read() (analog.Sample, error) {
	return l.pin.Read()
}

// Close halts the channel and releases the bus.
func (l *Light) Close() error {
	_ = l.pin.Halt()
	return l.bus.Close()
}
