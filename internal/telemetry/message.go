package telemetry

import (
	"encoding/json"
	"time"

	"github.com/nerrad567/gray-logic-node/internal/hardware"
)

// Message is the payload published on the telemetry topic.
type Message struct {
	Temp     float64 `json:"temp"`
	Humidity float64 `json:"humidity"`
}

// NewMessage builds a Message from a measurement.
func NewMessage(m hardware.Measurement) Message {
	return Message{Temp: m.Temperature, Humidity: m.Humidity}
}

// Encode returns the JSON wire form, e.g. {"temp":23.5,"humidity":61.2}.
func (m Message) Encode() ([]byte, error) {
	return json.Marshal(m)
}

// Reading is what recorders receive for each successful tick.
type Reading struct {
	Temperature float64   `json:"temperature"`
	Humidity    float64   `json:"humidity"`
	Light       *int32    `json:"light,omitempty"`
	Time        time.Time `json:"time"`
}
