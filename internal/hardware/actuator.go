package hardware

import (
	"periph.io/x/conn/v3/gpio"
)

// LEDState is the logical state of the actuator.
type LEDState int

const (
	Off LEDState = iota
	On
)

func (s LEDState) String() string {
	if s == On {
		return "on"
	}
	return "off"
}

// level maps the logical state to the pin level (active high).
func (s LEDState) level() gpio.Level {
	return gpio.Level(s == On)
}

// led is the actuator handle: the pin plus the last state written to it.
type led struct {
	pin   OutputPin
	state LEDState
}

// Actuator drives the status/control LED.
type Actuator struct {
	guard  *Guard[*led]
	faults faults
}

// NewActuator takes ownership of pin. The logical state starts Off; the pin
// is not driven until the first Set.
func NewActuator(pin OutputPin) *Actuator {
	return &Actuator{guard: NewGuard("led", &led{pin: pin})}
}

// SetFaultHandler registers the receiver of fatal errors. Every Set failure
// is fatal.
func (a *Actuator) SetFaultHandler(h FaultHandler) {
	a.faults.set(h)
}

// Set drives the LED to state.
//
// A pin write failure is returned as a *DeviceError matching
// ErrFatalActuatorFault, is never retried, and is passed to the fault handler.
// The logical state is left unchanged on failure.
func (a *Actuator) Set(state LEDState) error {
	err := a.guard.With(func(l *led) error {
		if err := l.pin.Out(state.level()); err != nil {
			return &DeviceError{Device: a.guard.Name(), Kind: ErrFatalActuatorFault, Err: err}
		}
		l.state = state
		return nil
	})
	if err != nil {
		a.faults.escalate(err)
		return err
	}
	return nil
}

// State returns the last state successfully written.
func (a *Actuator) State() (LEDState, error) {
	var state LEDState
	err := a.guard.With(func(l *led) error {
		state = l.state
		return nil
	})
	if err != nil {
		a.faults.escalate(err)
		return Off, err
	}
	return state, nil
}
