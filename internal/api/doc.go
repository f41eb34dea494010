// Package api implements the node's HTTP surface.
//
// This package provides:
//   - The four operation routes (/led/on, /led/off, /temp, /humidity)
//     answered with plain-text bodies
//   - JSON endpoints under /api/v1 for health, metrics and the journal
//   - A WebSocket feed that streams every telemetry reading
//   - Middleware stack (request ID, logging, recovery, CORS, body limit,
//     optional bearer JWT)
//
// # Dispatch
//
// Every operation route maps to one Op. dispatch runs the matching hardware
// service to completion, which releases the device guard, and only then is
// the response written. A slow client therefore never holds a guard.
//
// # Failures
//
// A failed operation answers 500 with "<operation> failed: <cause>". The
// failure is logged, counted in /api/v1/metrics and written to the journal.
// A fatal actuator fault is also escalated by the hardware layer, which
// stops the process.
package api
