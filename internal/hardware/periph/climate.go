package periph

import (
	"context"
	"math"
	"strings"

	"github.com/nerrad567/gray-logic-node/internal/hardware"
)

// Climate drives a DHT11/DHT22 sensor.
//
// The underlying read cannot be interrupted. When the caller's context ends
// first, Measure returns and the read is left to finish in the background;
// the next Measure waits for it before starting a new one, so two reads never
// run against the sensor at once.
//
// Climate is not safe for concurrent use; hardware.ClimateSensor serialises calls.
type Climate struct {
	read    func() (float32, float32, error)
	pending chan struct{}
}

// reading is the result of one raw read.
type reading struct {
	raw hardware.RawClimate
	err error
}

// Measure implements hardware.ClimateDriver.
func (c *Climate) Measure(ctx context.Context) (hardware.RawClimate, error) {
	if c.pending != nil {
		select {
		case <-c.pending:
			c.pending = nil
		case <-ctx.Done():
			return hardware.RawClimate{}, ctx.Err()
		}
	}

	done := make(chan struct{})
	result := make(chan reading, 1)
	go func() {
		defer close(done)
		t, h, err := c.read()
		result <- reading{raw: toTenths(t, h), err: err}
	}()

	select {
	case r := <-result:
		return r.raw, r.err
	case <-ctx.Done():
		c.pending = done
		return hardware.RawClimate{}, ctx.Err()
	}
}

// toTenths converts the driver's float readings to tenths.
func toTenths(temperature, humidity float32) hardware.RawClimate {
	return hardware.RawClimate{
		Temperature: int(math.Round(float64(temperature) * 10)),
		Humidity:    int(math.Round(float64(humidity) * 10)),
	}
}

func isDHT22(sensorType string) bool {
	return strings.EqualFold(sensorType, "dht22")
}
