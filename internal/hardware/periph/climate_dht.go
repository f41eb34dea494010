//go:build linux && cgo

package periph

import (
	"github.com/d2r2/go-dht"

	"github.com/nerrad567/gray-logic-node/internal/infrastructure/config"
)

// OpenClimate returns a DHT driver for the sensor described by cfg.
func OpenClimate(cfg config.ClimateConfig) (*Climate, error) {
	sensorType := dht.DHT11
	if isDHT22(cfg.Type) {
		sensorType = dht.DHT22
	}
	pin := cfg.Pin

	return &Climate{
		read: func() (float32, float32, error) {
			return dht.ReadDHTxx(sensorType, pin, false)
		},
	}, nil
}
