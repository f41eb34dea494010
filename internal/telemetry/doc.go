// Package telemetry runs the node's periodic sensor-to-broker loop.
//
// On start and then on every tick the loop measures temperature and
// humidity, publishes {"temp":..,"humidity":..} fire-and-forget, and hands
// the reading to any recorders (InfluxDB history, WebSocket clients). It also
// samples the light level, which is only logged.
//
// A failed measurement skips that tick's publish; the next tick is the retry.
// Nothing is queued or replayed. The loop ends only when its context is
// cancelled.
package telemetry
