package influxdb

import "errors"

// Sentinel errors returned by the telemetry history sink.
//
// None of them stop the node: history is optional and the telemetry loop
// publishes to MQTT whether or not InfluxDB is reachable.
var (
	// ErrDisabled is returned by Connect when influxdb.enabled is false.
	ErrDisabled = errors.New("influxdb: disabled in configuration")

	// ErrConnectionFailed is returned by Connect when the server cannot be
	// pinged or reports itself unhealthy.
	ErrConnectionFailed = errors.New("influxdb: connection failed")

	// ErrNotConnected is returned by HealthCheck after Close.
	ErrNotConnected = errors.New("influxdb: not connected")

	// ErrWriteFailed wraps every error from the asynchronous write API
	// before it reaches the SetOnError callback.
	ErrWriteFailed = errors.New("influxdb: write failed")
)
