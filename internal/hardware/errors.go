package hardware

import (
	"errors"
	"fmt"
	"sync"
)

// Domain-specific errors for hardware access.
var (
	// ErrHardwareTiming indicates the climate sensor did not complete a
	// measurement within its timing budget, or reported a protocol failure.
	ErrHardwareTiming = errors.New("sensor timing failure")

	// ErrConversion indicates an analog-to-digital conversion failed.
	ErrConversion = errors.New("adc conversion failed")

	// ErrFatalActuatorFault indicates a digital output write failed.
	// The actuator state can no longer be trusted.
	ErrFatalActuatorFault = errors.New("fatal actuator fault")

	// ErrGuardPoisoned indicates an earlier borrower panicked while holding
	// the guard, leaving the device in an unknown state.
	ErrGuardPoisoned = errors.New("device guard poisoned")
)

// DeviceError carries the failure class and the driver's underlying cause.
//
// errors.Is matches both the class (e.g. ErrHardwareTiming) and anything the
// cause wraps (e.g. context.DeadlineExceeded).
type DeviceError struct {
	Device string
	Kind   error
	Err    error
}

func (e *DeviceError) Error() string {
	return fmt.Sprintf("%s: %v: %v", e.Device, e.Kind, e.Err)
}

func (e *DeviceError) Unwrap() []error {
	return []error{e.Kind, e.Err}
}

// IsFatal reports whether err belongs to a class that must terminate the
// process rather than be retried.
func IsFatal(err error) bool {
	return errors.Is(err, ErrFatalActuatorFault) || errors.Is(err, ErrGuardPoisoned)
}

// FaultHandler receives fatal hardware errors.
type FaultHandler func(err error)

// faults holds an optional FaultHandler shared by a service.
type faults struct {
	mu      sync.RWMutex
	handler FaultHandler
}

func (f *faults) set(h FaultHandler) {
	f.mu.Lock()
	f.handler = h
	f.mu.Unlock()
}

// escalate forwards err to the registered handler if err is fatal.
func (f *faults) escalate(err error) {
	if !IsFatal(err) {
		return
	}
	f.mu.RLock()
	h := f.handler
	f.mu.RUnlock()
	if h != nil {
		h(err)
	}
}
