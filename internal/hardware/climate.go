package hardware

import (
	"context"
	"time"
)

// DefaultTimingBudget bounds one climate measurement when no budget is configured.
const DefaultTimingBudget = 2 * time.Second

// Measurement is a climate reading in physical units.
type Measurement struct {
	Temperature float64 // °C
	Humidity    float64 // %RH
}

// Measurement converts tenths to units.
func (r RawClimate) Measurement() Measurement {
	return Measurement{
		Temperature: float64(r.Temperature) / 10,
		Humidity:    float64(r.Humidity) / 10,
	}
}

// ClimateSensor serialises access to the temperature/humidity sensor.
//
// Every call performs a fresh physical read; nothing is cached.
type ClimateSensor struct {
	guard  *Guard[ClimateDriver]
	budget time.Duration
	faults faults
}

// NewClimateSensor takes ownership of driver. A non-positive budget selects
// DefaultTimingBudget.
func NewClimateSensor(driver ClimateDriver, budget time.Duration) *ClimateSensor {
	if budget <= 0 {
		budget = DefaultTimingBudget
	}
	return &ClimateSensor{
		guard:  NewGuard("climate", driver),
		budget: budget,
	}
}

// SetFaultHandler registers the receiver of fatal errors (a poisoned guard).
func (s *ClimateSensor) SetFaultHandler(h FaultHandler) {
	s.faults.set(h)
}

// Measure reads temperature and humidity once.
//
// The driver runs under a deadline of the timing budget. Any driver failure,
// including a missed deadline, is returned as a *DeviceError matching
// ErrHardwareTiming. Measure never retries.
func (s *ClimateSensor) Measure(ctx context.Context) (Measurement, error) {
	var raw RawClimate
	err := s.guard.With(func(d ClimateDriver) error {
		mctx, cancel := context.WithTimeout(ctx, s.budget)
		defer cancel()

		r, err := d.Measure(mctx)
		if err != nil {
			return &DeviceError{Device: s.guard.Name(), Kind: ErrHardwareTiming, Err: err}
		}
		raw = r
		return nil
	})
	if err != nil {
		s.faults.escalate(err)
		return Measurement{}, err
	}

	return raw.Measurement(), nil
}
