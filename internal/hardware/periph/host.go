package periph

import (
	"errors"
	"fmt"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"

	"github.com/nerrad567/gray-logic-node/internal/infrastructure/config"
)

// ErrUnsupported is returned when a driver is not available in this build.
var ErrUnsupported = errors.New("driver not supported on this platform")

// ErrPinNotFound is returned when a GPIO name is unknown to the host.
var ErrPinNotFound = errors.New("gpio pin not found")

// Init loads the periph host drivers. Safe to call more than once.
func Init() error {
	if _, err := host.Init(); err != nil {
		return fmt.Errorf("initialising periph host: %w", err)
	}
	return nil
}

// OpenLED looks up the LED pin by name (e.g. "GPIO2") and returns it as an
// output pin. The level is not changed.
func OpenLED(cfg config.LEDConfig) (gpio.PinOut, error) {
	p := gpioreg.ByName(cfg.Pin)
	if p == nil {
		return nil, fmt.Errorf("%w: %s", ErrPinNotFound, cfg.Pin)
	}
	return p, nil
}
