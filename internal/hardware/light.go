package hardware

import (
	"context"
)

// LightSensor serialises access to the light-level ADC channel.
// Samples are raw device counts; calibration is left to consumers.
type LightSensor struct {
	guard  *Guard[ADC]
	faults faults
}

// NewLightSensor takes ownership of adc.
func NewLightSensor(adc ADC) *LightSensor {
	return &LightSensor{guard: NewGuard("light", adc)}
}

// SetFaultHandler registers the receiver of fatal errors (a poisoned guard).
func (s *LightSensor) SetFaultHandler(h FaultHandler) {
	s.faults.set(h)
}

// Sample performs one conversion and returns the raw count.
// A failed conversion is returned as a *DeviceError matching ErrConversion.
func (s *LightSensor) Sample(ctx context.Context) (int32, error) {
	if err := ctx.Err(); err != nil {
		return 0, &DeviceError{Device: s.guard.Name(), Kind: ErrConversion, Err: err}
	}

	var raw int32
	err := s.guard.With(func(adc ADC) error {
		sample, err := adc.Read()
		if err != nil {
			return &DeviceError{Device: s.guard.Name(), Kind: ErrConversion, Err: err}
		}
		raw = sample.Raw
		return nil
	})
	if err != nil {
		s.faults.escalate(err)
		return 0, err
	}

	return raw, nil
}
