package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// Measurement names written by the node.
const (
	MeasurementClimate = "climate"
	MeasurementLight   = "light"
)

// WriteClimate records one temperature/humidity reading.
//
// Example line: climate,node_id=greenhouse-01 humidity_pct=61.2,temperature_c=23.5
func (c *Client) WriteClimate(temperature, humidity float64, at time.Time) {
	c.writePoint(MeasurementClimate, map[string]any{
		"temperature_c": temperature,
		"humidity_pct":  humidity,
	}, at)
}

// WriteLight records one raw light-level sample in ADC counts.
func (c *Client) WriteLight(raw int32, at time.Time) {
	c.writePoint(MeasurementLight, map[string]any{
		"raw": raw,
	}, at)
}

func (c *Client) writePoint(measurement string, fields map[string]any, at time.Time) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(measurement, map[string]string{"node_id": c.nodeID}, fields, at)
	c.writer.WritePoint(point)
}
