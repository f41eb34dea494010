// Package config handles loading and validating Gray Logic Node configuration.
//
// This package manages:
//   - Loading configuration from YAML files
//   - Overriding with GRAYLOGIC_NODE_* environment variables
//   - Validation of every section, reporting all problems at once
//   - Default value handling
//
// The hardware section describes the peripherals wired to the node (climate
// sensor pin and model, ADC bus/address/channel, LED pin). It is read once at
// start to build the device handles and never consulted again.
//
// Security Considerations:
//   - The MQTT password, InfluxDB token and JWT secret should come from the environment
//   - The config file should have restricted permissions (0600)
//
// Usage:
//
//	cfg, err := config.Load(config.Path())
//	if err != nil {
//	    log.Fatal(err)
//	}
package config
