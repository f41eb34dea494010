// Gray Logic Node - sensor/actuator node
//
// This is the main entry point for a Gray Logic Node: a small controller with
// a temperature/humidity sensor, a light-level ADC channel and a status LED.
// It answers HTTP requests for readings and LED control, and publishes
// telemetry to the site MQTT broker on a fixed cadence.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/nerrad567/gray-logic-node/internal/api"
	"github.com/nerrad567/gray-logic-node/internal/audit"
	"github.com/nerrad567/gray-logic-node/internal/connectivity"
	"github.com/nerrad567/gray-logic-node/internal/hardware"
	"github.com/nerrad567/gray-logic-node/internal/hardware/periph"
	"github.com/nerrad567/gray-logic-node/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-node/internal/infrastructure/database"
	"github.com/nerrad567/gray-logic-node/internal/infrastructure/influxdb"
	"github.com/nerrad567/gray-logic-node/internal/infrastructure/logging"
	"github.com/nerrad567/gray-logic-node/internal/infrastructure/mqtt"
	"github.com/nerrad567/gray-logic-node/internal/telemetry"
	"github.com/nerrad567/gray-logic-node/migrations"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// journalSourceHardware marks journal entries raised by the hardware layer.
const journalSourceHardware = "hardware"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the application logic, separated from main for testability.
//
// Returns:
//   - error: nil on clean shutdown; the startup failure or the fatal
//     hardware fault that stopped the node otherwise
func run(ctx context.Context) error { //nolint:gocognit,gocyclo // linear bootstrap sequence
	ctx, stop := context.WithCancelCause(ctx)
	defer stop(nil)

	log := logging.Default()
	log.Info("starting Gray Logic Node",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	configPath := config.Path()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	log = logging.New(cfg.Logging, version).With("node_id", cfg.Node.ID)
	log.Info("configuration loaded", "path", configPath)

	if _, err := connectivity.Wait(ctx, cfg.Network.Interface, cfg.GetNetworkWaitTimeout(), log.Component("connectivity")); err != nil {
		return fmt.Errorf("waiting for network: %w", err)
	}

	// Local journal (optional)
	var journal *audit.Journal
	var db *database.DB
	if cfg.Database.Enabled {
		db, err = openDatabase(ctx, cfg.Database)
		if err != nil {
			return err
		}
		defer func() {
			log.Info("closing database")
			if closeErr := db.Close(); closeErr != nil {
				log.Error("error closing database", "error", closeErr)
			}
		}()
		journal = audit.NewJournal(db.DB)
		log.Info("journal ready", "path", cfg.Database.Path)
	} else {
		journal = audit.NewJournal(nil)
		log.Info("journal disabled")
	}

	// Hardware
	devices, err := openDevices(cfg, log.Component("hardware"))
	if err != nil {
		return err
	}
	defer devices.Close()

	onFault := newFaultHandler(log, journal, stop)
	devices.climate.SetFaultHandler(onFault)
	devices.actuator.SetFaultHandler(onFault)
	if devices.light != nil {
		devices.light.SetFaultHandler(onFault)
	}

	// LED on while booting.
	if err := devices.actuator.Set(hardware.On); err != nil {
		return fmt.Errorf("setting boot indicator: %w", err)
	}

	// MQTT
	mqttClient, err := mqtt.Connect(cfg.MQTT)
	if err != nil {
		return fmt.Errorf("connecting to MQTT: %w", err)
	}
	defer func() {
		log.Info("disconnecting from MQTT")
		if closeErr := mqttClient.Close(); closeErr != nil {
			log.Error("error closing MQTT", "error", closeErr)
		}
	}()
	log.Info("MQTT connected",
		"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
		"client_id", cfg.MQTT.Broker.ClientID,
	)

	// Background loops stop on ctx; cancel before waiting so early returns
	// do not hang.
	var wg sync.WaitGroup
	defer func() {
		stop(nil)
		wg.Wait()
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		mqttClient.RunReceiveLoop(ctx, log.Component("mqtt"))
	}()

	if len(cfg.MQTT.Subscriptions) > 0 {
		if err := mqttClient.Listen(cfg.MQTT.Subscriptions...); err != nil {
			log.Warn("inbound subscriptions failed", "topics", cfg.MQTT.Subscriptions, "error", err)
		}
	}

	// InfluxDB (optional)
	hub := api.NewHub(cfg.WebSocket, log.Component("websocket"))
	recorders := []telemetry.Recorder{hub}

	if cfg.InfluxDB.Enabled {
		influxClient, influxErr := influxdb.Connect(cfg.InfluxDB, cfg.Node.ID)
		if influxErr != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", influxErr)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
		recorders = append(recorders, influxRecorder(influxClient))
		log.Info("InfluxDB connected",
			"url", cfg.InfluxDB.URL,
			"org", cfg.InfluxDB.Org,
			"bucket", cfg.InfluxDB.Bucket,
		)
	} else {
		log.Info("InfluxDB disabled")
	}

	// Telemetry
	loopCfg := telemetry.Config{
		Interval:  cfg.GetTelemetryInterval(),
		Topic:     cfg.Telemetry.Topic,
		QoS:       byte(cfg.Telemetry.QoS), //nolint:gosec // validated to 0-2
		Retained:  cfg.Telemetry.Retained,
		Climate:   devices.climate,
		Publisher: mqttClient,
		Recorders: recorders,
	}
	if devices.light != nil {
		loopCfg.Light = devices.light
	}
	loop := telemetry.New(loopCfg)
	loop.SetLogger(log.Component("telemetry"))

	// HTTP
	deps := api.Deps{
		Config:    cfg.API,
		WS:        cfg.WebSocket,
		Security:  cfg.Security,
		Logger:    log.Component("api"),
		Climate:   devices.climate,
		Actuator:  devices.actuator,
		MQTT:      mqttClient,
		Telemetry: loop,
		Hub:       hub,
		Version:   version,
	}
	if db != nil {
		deps.Journal = journal
		deps.DB = db.DB
	}
	server, err := api.New(deps)
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}
	if err := server.Start(ctx); err != nil {
		return fmt.Errorf("starting API server: %w", err)
	}
	defer func() {
		if closeErr := server.Close(); closeErr != nil {
			log.Error("error closing API server", "error", closeErr)
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		loop.Run(ctx)
	}()

	if err := healthCheck(ctx, db, mqttClient, server); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}

	// LED off once ready.
	if err := devices.actuator.Set(hardware.Off); err != nil {
		return fmt.Errorf("clearing boot indicator: %w", err)
	}
	log.Info("initialisation complete, waiting for shutdown signal", "api", server.Addr())

	<-ctx.Done()

	if err := exitError(ctx); err != nil {
		log.Error("stopping after fatal fault", "error", err)
		return err
	}

	log.Info("shutdown signal received, cleaning up")
	log.Info("Gray Logic Node stopped")
	return nil
}

// newFaultHandler returns the receiver of fatal hardware errors. It logs the
// fault, journals it with the failing device, and cancels the node with the
// error as cause.
//
// Parameters:
//   - log: Logger for the fault
//   - journal: Journal for the fault entry (a disabled journal discards it)
//   - stop: Cancels the root context of run
//
// Returns:
//   - hardware.FaultHandler: Handler to register on every hardware service
func newFaultHandler(log *logging.Logger, journal audit.Repository, stop context.CancelCauseFunc) hardware.FaultHandler {
	return func(err error) {
		log.Error("fatal hardware fault, shutting down", "error", err)

		details := map[string]any{"error": err.Error()}
		var devErr *hardware.DeviceError
		if errors.As(err, &devErr) {
			details["device"] = devErr.Device
		}
		entry := &audit.Entry{
			Action:  audit.ActionFault,
			Source:  journalSourceHardware,
			Details: details,
		}
		if jErr := journal.Create(context.Background(), entry); jErr != nil {
			log.Error("journal write failed", "error", jErr)
		}

		stop(err)
	}
}

// exitError decides run's result once ctx is done: an error when a fatal
// hardware fault stopped the node, nil for a signal or parent cancellation.
func exitError(ctx context.Context) error {
	cause := context.Cause(ctx)
	if hardware.IsFatal(cause) {
		return fmt.Errorf("fatal hardware fault: %w", cause)
	}
	return nil
}

// openDatabase opens the journal database and applies migrations.
func openDatabase(ctx context.Context, cfg config.DatabaseConfig) (*database.DB, error) {
	db, err := database.Open(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.Migrate(ctx, migrations.FS); err != nil {
		_ = db.Close() //nolint:errcheck // Best effort cleanup on error path
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return db, nil
}

// devices holds the hardware services built over the node's handles.
type devices struct {
	climate  *hardware.ClimateSensor
	light    *hardware.LightSensor
	actuator *hardware.Actuator
	closers  []io.Closer
}

// Close releases bus handles.
func (d *devices) Close() {
	for _, c := range d.closers {
		_ = c.Close() //nolint:errcheck // Best effort on shutdown
	}
}

// openDevices opens the peripherals described in cfg.Hardware, or simulated
// ones when host_init is off.
func openDevices(cfg *config.Config, log *logging.Logger) (*devices, error) {
	budget := cfg.GetTimingBudget()

	if !cfg.Hardware.HostInit {
		sim := periph.OpenSimulated(cfg.Hardware)
		log.Warn("host_init disabled, using simulated hardware")
		return &devices{
			climate:  hardware.NewClimateSensor(sim.Climate, budget),
			light:    hardware.NewLightSensor(sim.Light),
			actuator: hardware.NewActuator(sim.LED),
		}, nil
	}

	if err := periph.Init(); err != nil {
		return nil, err
	}

	led, err := periph.OpenLED(cfg.Hardware.LED)
	if err != nil {
		return nil, fmt.Errorf("opening LED: %w", err)
	}

	climate, err := periph.OpenClimate(cfg.Hardware.Climate)
	if err != nil {
		return nil, fmt.Errorf("opening climate sensor: %w", err)
	}

	d := &devices{
		climate:  hardware.NewClimateSensor(climate, budget),
		actuator: hardware.NewActuator(led),
	}

	light, err := periph.OpenLight(cfg.Hardware.Light)
	if err != nil {
		// Light level is observability only; run without it.
		log.Warn("light sensor unavailable", "error", err)
	} else {
		d.light = hardware.NewLightSensor(light)
		d.closers = append(d.closers, light)
	}

	log.Info("hardware opened",
		"climate", cfg.Hardware.Climate.Type,
		"climate_pin", cfg.Hardware.Climate.Pin,
		"led", cfg.Hardware.LED.Pin,
		"light", d.light != nil,
	)
	return d, nil
}

// influxRecorder writes each telemetry reading to InfluxDB.
func influxRecorder(c *influxdb.Client) telemetry.RecorderFunc {
	return func(r telemetry.Reading) {
		c.WriteClimate(r.Temperature, r.Humidity, r.Time)
		if r.Light != nil {
			c.WriteLight(*r.Light, r.Time)
		}
	}
}

// healthCheck verifies all infrastructure connections are healthy.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//   - db: Database to check (nil when the journal is disabled)
//   - mqttClient: MQTT client to check
//   - server: API server to check
//
// Returns:
//   - error: First health check failure, or nil if all healthy
func healthCheck(ctx context.Context, db *database.DB, mqttClient *mqtt.Client, server *api.Server) error {
	if db != nil {
		if err := db.HealthCheck(ctx); err != nil {
			return fmt.Errorf("database: %w", err)
		}
	}
	if err := mqttClient.HealthCheck(ctx); err != nil {
		return fmt.Errorf("mqtt: %w", err)
	}
	if err := server.HealthCheck(ctx); err != nil {
		return fmt.Errorf("api: %w", err)
	}
	return nil
}
