// Package hardware owns the node's physical peripherals.
//
// Every peripheral is represented by a device handle (a driver satisfying one
// of the small interfaces in handles.go) and is reachable only through a
// Guard. Services built on top (ClimateSensor, LightSensor, Actuator) are the
// only code that borrows a guard, and each borrows exactly one guard per call.
//
// # Concurrency
//
// HTTP handlers, the telemetry loop and the MQTT receive loop all run in their
// own goroutines. Operations against the same handle are serialised by its
// guard; operations against different handles are unordered. A borrower never
// acquires a second guard, so no lock-ordering cycle can form.
//
// # Failure classes
//
//   - ErrHardwareTiming: the climate sensor missed its timing budget (recoverable)
//   - ErrConversion: the ADC read failed (recoverable)
//   - ErrFatalActuatorFault: a GPIO write failed (fatal)
//   - ErrGuardPoisoned: an earlier borrower panicked mid-operation (fatal)
//
// Fatal errors are passed to the handler registered with SetFaultHandler.
// cmd/graylogic-node terminates the process from there.
package hardware
