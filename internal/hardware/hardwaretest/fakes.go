// Package hardwaretest provides substitute device handles for tests.
//
// Every fake records whether two callers were ever inside it at the same
// time, so tests can assert that the guards in package hardware serialise
// access.
package hardwaretest

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"periph.io/x/conn/v3/analog"
	"periph.io/x/conn/v3/gpio"

	"github.com/nerrad567/gray-logic-node/internal/hardware"
)

// occupancy detects overlapping calls.
type occupancy struct {
	inside     atomic.Int32
	overlapped atomic.Bool
}

func (o *occupancy) enter() {
	if o.inside.Add(1) > 1 {
		o.overlapped.Store(true)
	}
}

func (o *occupancy) leave() {
	o.inside.Add(-1)
}

// Overlapped reports whether two calls were ever in flight together.
func (o *occupancy) Overlapped() bool {
	return o.overlapped.Load()
}

// Climate is a hardware.ClimateDriver returning a programmable reading.
type Climate struct {
	occupancy

	mu       sync.Mutex
	raw      hardware.RawClimate
	err      error
	failNext int
	delay    time.Duration
	hang     bool
	calls    int
}

// NewClimate returns a driver that reports raw.
func NewClimate(raw hardware.RawClimate) *Climate {
	return &Climate{raw: raw}
}

// SetReading changes the reading returned by later calls.
func (c *Climate) SetReading(raw hardware.RawClimate) {
	c.mu.Lock()
	c.raw = raw
	c.mu.Unlock()
}

// SetError makes every later call fail with err (nil clears it).
func (c *Climate) SetError(err error) {
	c.mu.Lock()
	c.err = err
	c.mu.Unlock()
}

// FailNext makes the next n calls fail with err, after which the driver
// reports its reading again.
func (c *Climate) FailNext(n int, err error) {
	c.mu.Lock()
	c.failNext = n
	c.err = err
	c.mu.Unlock()
}

// SetDelay makes each call take d (cut short if the context ends first).
func (c *Climate) SetDelay(d time.Duration) {
	c.mu.Lock()
	c.delay = d
	c.mu.Unlock()
}

// SetHang makes each call block until its context is done.
func (c *Climate) SetHang(hang bool) {
	c.mu.Lock()
	c.hang = hang
	c.mu.Unlock()
}

// Calls returns the number of Measure calls so far.
func (c *Climate) Calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

// Measure implements hardware.ClimateDriver.
func (c *Climate) Measure(ctx context.Context) (hardware.RawClimate, error) {
	c.enter()
	defer c.leave()

	c.mu.Lock()
	c.calls++
	raw, err, delay, hang := c.raw, c.err, c.delay, c.hang
	if c.failNext > 0 {
		c.failNext--
		if c.failNext == 0 {
			c.err = nil
		}
	}
	c.mu.Unlock()

	if hang {
		<-ctx.Done()
		return hardware.RawClimate{}, ctx.Err()
	}
	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return hardware.RawClimate{}, ctx.Err()
		}
	}
	if err != nil {
		return hardware.RawClimate{}, err
	}
	return raw, nil
}

// ADC is a hardware.ADC returning a programmable count.
type ADC struct {
	occupancy

	mu    sync.Mutex
	raw   int32
	err   error
	calls int
}

// NewADC returns an ADC that reports raw.
func NewADC(raw int32) *ADC {
	return &ADC{raw: raw}
}

// SetError makes later reads fail with err (nil clears it).
func (a *ADC) SetError(err error) {
	a.mu.Lock()
	a.err = err
	a.mu.Unlock()
}

// Calls returns the number of Read calls so far.
func (a *ADC) Calls() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.calls
}

// Read implements hardware.ADC.
func (a *ADC) Read() (analog.Sample, error) {
	a.enter()
	defer a.leave()

	a.mu.Lock()
	defer a.mu.Unlock()
	a.calls++
	if a.err != nil {
		return analog.Sample{}, a.err
	}
	return analog.Sample{Raw: a.raw}, nil
}

// Pin is a hardware.OutputPin that can be made to fail.
type Pin struct {
	occupancy

	mu     sync.Mutex
	level  gpio.Level
	err    error
	writes int
}

// SetError makes later writes fail with err (nil clears it).
func (p *Pin) SetError(err error) {
	p.mu.Lock()
	p.err = err
	p.mu.Unlock()
}

// Level returns the last level successfully written.
func (p *Pin) Level() gpio.Level {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.level
}

// Writes returns the number of Out calls, failed ones included.
func (p *Pin) Writes() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.writes
}

// Out implements hardware.OutputPin.
func (p *Pin) Out(l gpio.Level) error {
	p.enter()
	defer p.leave()

	p.mu.Lock()
	defer p.mu.Unlock()
	p.writes++
	if p.err != nil {
		return p.err
	}
	p.level = l
	return nil
}
