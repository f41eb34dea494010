// Package periph opens the node's real peripherals through periph.io.
//
// It is the only package that touches host hardware. Everything it returns
// satisfies the handle interfaces in package hardware, so services and tests
// never depend on periph host drivers directly.
//
//	if err := periph.Init(); err != nil { ... }
//	led, err := periph.OpenLED(cfg.Hardware.LED)
//	light, err := periph.OpenLight(cfg.Hardware.Light)
//	climate, err := periph.OpenClimate(cfg.Hardware.Climate)
//
// The DHT driver needs cgo on linux; other builds get a stub returning
// ErrUnsupported.
package periph
