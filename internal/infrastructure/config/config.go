package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for a Gray Logic Node.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Node      NodeConfig      `yaml:"node"`
	Network   NetworkConfig   `yaml:"network"`
	Hardware  HardwareConfig  `yaml:"hardware"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	MQTT      MQTTConfig      `yaml:"mqtt"`
	API       APIConfig       `yaml:"api"`
	WebSocket WebSocketConfig `yaml:"websocket"`
	InfluxDB  InfluxDBConfig  `yaml:"influxdb"`
	Database  DatabaseConfig  `yaml:"database"`
	Logging   LoggingConfig   `yaml:"logging"`
	Security  SecurityConfig  `yaml:"security"`
}

// NodeConfig identifies this node within a site.
type NodeConfig struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
}

// NetworkConfig describes the network path the node waits for before serving.
//
// Joining the network (WiFi association, DHCP) is left to the operating system;
// the node only waits until the interface carries a usable address.
type NetworkConfig struct {
	// Interface is the network interface to wait for (e.g. "wlan0").
	// Empty disables the wait.
	Interface string `yaml:"interface"`

	// WaitTimeout is the maximum time to wait for the interface (seconds).
	WaitTimeout int `yaml:"wait_timeout"`
}

// HardwareConfig describes the peripherals attached to the node.
type HardwareConfig struct {
	// HostInit loads the periph host drivers and opens the real peripherals.
	// When false the node runs on simulated handles (development machines
	// without GPIO).
	HostInit bool          `yaml:"host_init"`
	Climate  ClimateConfig `yaml:"climate"`
	Light    LightConfig   `yaml:"light"`
	LED      LEDConfig     `yaml:"led"`
}

// ClimateConfig configures the combined temperature/humidity sensor.
type ClimateConfig struct {
	// Type is the sensor model: "dht11" or "dht22".
	Type string `yaml:"type"`

	// Pin is the BCM GPIO number the sensor data line is wired to.
	Pin int `yaml:"pin"`

	// TimingBudget bounds a single measurement (milliseconds).
	TimingBudget int `yaml:"timing_budget_ms"`
}

// LightConfig configures the light-level ADC channel.
type LightConfig struct {
	// I2CBus is the I²C bus name passed to i2creg.Open ("" selects the first bus).
	I2CBus string `yaml:"i2c_bus"`

	// Address is the ADS1115 I²C address.
	Address uint16 `yaml:"address"`

	// Channel is the single-ended ADC input (0-3).
	Channel int `yaml:"channel"`
}

// LEDConfig configures the status/control LED.
type LEDConfig struct {
	// Pin is the GPIO name as known to periph (e.g. "GPIO2").
	Pin string `yaml:"pin"`
}

// TelemetryConfig configures the periodic telemetry loop.
type TelemetryConfig struct {
	// Interval between samples (seconds).
	Interval int `yaml:"interval"`

	// Topic is the MQTT topic telemetry is published to.
	Topic string `yaml:"topic"`

	// QoS is the MQTT QoS level for telemetry (0 = fire and forget).
	QoS int `yaml:"qos"`

	// Retained marks telemetry as retained on the broker.
	Retained bool `yaml:"retained"`
}

// MQTTConfig contains MQTT broker connection settings.
type MQTTConfig struct {
	Broker    MQTTBrokerConfig    `yaml:"broker"`
	Auth      MQTTAuthConfig      `yaml:"auth"`
	QoS       int                 `yaml:"qos"`
	Reconnect MQTTReconnectConfig `yaml:"reconnect"`

	// Subscriptions are inbound topics drained by the receive loop.
	Subscriptions []string `yaml:"subscriptions"`
}

// MQTTBrokerConfig contains MQTT broker connection details.
type MQTTBrokerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	TLS      bool   `yaml:"tls"`
	ClientID string `yaml:"client_id"`
}

// MQTTAuthConfig contains MQTT authentication credentials.
type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// MQTTReconnectConfig contains MQTT reconnection settings.
type MQTTReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
}

// APIConfig contains HTTP API server settings.
type APIConfig struct {
	Host     string           `yaml:"host"`
	Port     int              `yaml:"port"`
	Timeouts APITimeoutConfig `yaml:"timeouts"`
	CORS     CORSConfig       `yaml:"cors"`
}

// APITimeoutConfig contains HTTP timeout settings.
type APITimeoutConfig struct {
	Read  int `yaml:"read"`
	Write int `yaml:"write"`
	Idle  int `yaml:"idle"`
}

// CORSConfig contains Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
	AllowedMethods []string `yaml:"allowed_methods"`
	AllowedHeaders []string `yaml:"allowed_headers"`
}

// WebSocketConfig contains WebSocket server settings.
type WebSocketConfig struct {
	MaxMessageSize int `yaml:"max_message_size"`
	PingInterval   int `yaml:"ping_interval"`
	PongTimeout    int `yaml:"pong_timeout"`
}

// InfluxDBConfig contains InfluxDB connection settings.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

// DatabaseConfig contains SQLite database settings for the local journal.
type DatabaseConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// SecurityConfig contains security settings.
type SecurityConfig struct {
	JWT JWTConfig `yaml:"jwt"`
}

// JWTConfig contains JWT token settings.
// An empty secret leaves the operation routes open, matching a bench setup.
type JWTConfig struct {
	Secret string `yaml:"secret"`
}

// minJWTSecretLength is the shortest accepted HS256 secret.
const minJWTSecretLength = 32

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: GRAYLOGIC_NODE_SECTION_KEY
// For example: GRAYLOGIC_NODE_MQTT_HOST, GRAYLOGIC_NODE_API_PORT
//
// Parameters:
//   - path: Path to the YAML configuration file
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: If file cannot be read, parsed, or validation fails
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		Node: NodeConfig{
			ID:   "node-001",
			Name: "Gray Logic Node",
		},
		Network: NetworkConfig{
			WaitTimeout: 60,
		},
		Hardware: HardwareConfig{
			HostInit: true,
			Climate: ClimateConfig{
				Type:         "dht11",
				Pin:          4,
				TimingBudget: 2000,
			},
			Light: LightConfig{
				Address: 0x48,
				Channel: 0,
			},
			LED: LEDConfig{
				Pin: "GPIO2",
			},
		},
		Telemetry: TelemetryConfig{
			Interval: 5,
			Topic:    "worker/rawData",
			QoS:      0,
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "graylogic-node",
			},
			QoS: 1,
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
			},
		},
		API: APIConfig{
			Host: "0.0.0.0",
			Port: 8080,
			Timeouts: APITimeoutConfig{
				Read:  10,
				Write: 10,
				Idle:  60,
			},
		},
		WebSocket: WebSocketConfig{
			MaxMessageSize: 4096,
			PingInterval:   30,
			PongTimeout:    10,
		},
		Database: DatabaseConfig{
			Enabled:     true,
			Path:        "./data/graylogic-node.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: GRAYLOGIC_NODE_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	// Node
	if v := os.Getenv("GRAYLOGIC_NODE_ID"); v != "" {
		cfg.Node.ID = v
	}

	// Network
	if v := os.Getenv("GRAYLOGIC_NODE_NETWORK_INTERFACE"); v != "" {
		cfg.Network.Interface = v
	}

	// MQTT
	if v := os.Getenv("GRAYLOGIC_NODE_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("GRAYLOGIC_NODE_MQTT_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.MQTT.Broker.Port = port
		}
	}
	if v := os.Getenv("GRAYLOGIC_NODE_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("GRAYLOGIC_NODE_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}

	// API
	if v := os.Getenv("GRAYLOGIC_NODE_API_HOST"); v != "" {
		cfg.API.Host = v
	}

	// Database
	if v := os.Getenv("GRAYLOGIC_NODE_DATABASE_PATH"); v != "" {
		cfg.Database.Path = v
	}

	// InfluxDB
	if v := os.Getenv("GRAYLOGIC_NODE_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}

	// Security
	if v := os.Getenv("GRAYLOGIC_NODE_JWT_SECRET"); v != "" {
		cfg.Security.JWT.Secret = v
	}
}

// Validate checks the configuration for errors.
//
// Returns:
//   - error: Description of every validation failure, or nil if valid
func (c *Config) Validate() error { //nolint:gocognit,gocyclo // flat list of independent field checks
	var errs []string

	if c.Node.ID == "" {
		errs = append(errs, "node.id is required")
	}

	switch strings.ToLower(c.Hardware.Climate.Type) {
	case "dht11", "dht22":
	default:
		errs = append(errs, "hardware.climate.type must be dht11 or dht22")
	}
	if c.Hardware.Climate.TimingBudget <= 0 {
		errs = append(errs, "hardware.climate.timing_budget_ms must be positive")
	}
	if c.Hardware.Light.Channel < 0 || c.Hardware.Light.Channel > 3 {
		errs = append(errs, "hardware.light.channel must be between 0 and 3")
	}
	if c.Hardware.LED.Pin == "" {
		errs = append(errs, "hardware.led.pin is required")
	}

	if c.Telemetry.Interval <= 0 {
		errs = append(errs, "telemetry.interval must be positive")
	}
	if c.Telemetry.Topic == "" {
		errs = append(errs, "telemetry.topic is required")
	}
	if c.Telemetry.QoS < 0 || c.Telemetry.QoS > 2 {
		errs = append(errs, "telemetry.qos must be 0, 1, or 2")
	}

	if c.MQTT.Broker.Host == "" {
		errs = append(errs, "mqtt.broker.host is required")
	}
	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}

	if c.API.Port < 1 || c.API.Port > 65535 {
		errs = append(errs, "api.port must be between 1 and 65535")
	}

	if c.Database.Enabled && c.Database.Path == "" {
		errs = append(errs, "database.path is required when the journal is enabled")
	}

	if c.InfluxDB.Enabled && c.InfluxDB.URL == "" {
		errs = append(errs, "influxdb.url is required when influxdb is enabled")
	}

	if s := c.Security.JWT.Secret; s != "" && len(s) < minJWTSecretLength {
		errs = append(errs, "security.jwt.secret must be at least 32 characters")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// GetReadTimeout returns the API read timeout as a Duration.
func (c *Config) GetReadTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Read) * time.Second
}

// GetWriteTimeout returns the API write timeout as a Duration.
func (c *Config) GetWriteTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Write) * time.Second
}

// GetIdleTimeout returns the API idle timeout as a Duration.
func (c *Config) GetIdleTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Idle) * time.Second
}

// GetTelemetryInterval returns the telemetry cadence as a Duration.
func (c *Config) GetTelemetryInterval() time.Duration {
	return time.Duration(c.Telemetry.Interval) * time.Second
}

// GetTimingBudget returns the climate sensor timing budget as a Duration.
func (c *Config) GetTimingBudget() time.Duration {
	return time.Duration(c.Hardware.Climate.TimingBudget) * time.Millisecond
}

// GetNetworkWaitTimeout returns the network wait timeout as a Duration.
func (c *Config) GetNetworkWaitTimeout() time.Duration {
	return time.Duration(c.Network.WaitTimeout) * time.Second
}

// defaultPath is used when GRAYLOGIC_NODE_CONFIG is unset.
const defaultPath = "configs/config.yaml"

// Path returns the configuration file path from GRAYLOGIC_NODE_CONFIG,
// falling back to configs/config.yaml.
func Path() string {
	if p := os.Getenv("GRAYLOGIC_NODE_CONFIG"); p != "" {
		return p
	}
	return defaultPath
}
