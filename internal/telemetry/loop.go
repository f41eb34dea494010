package telemetry

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nerrad567/gray-logic-node/internal/hardware"
)

// DefaultInterval is the sampling cadence when none is configured.
const DefaultInterval = 5 * time.Second

// Publisher hands a payload to the message broker.
// Implemented by *mqtt.Client.
type Publisher interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
}

// ClimateReader is implemented by *hardware.ClimateSensor.
type ClimateReader interface {
	Measure(ctx context.Context) (hardware.Measurement, error)
}

// LightReader is implemented by *hardware.LightSensor.
type LightReader interface {
	Sample(ctx context.Context) (int32, error)
}

// Recorder receives every successful reading. Record must not block.
type Recorder interface {
	Record(r Reading)
}

// RecorderFunc adapts a function to Recorder.
type RecorderFunc func(r Reading)

// Record calls f(r).
func (f RecorderFunc) Record(r Reading) { f(r) }

// Logger interface for optional logging support.
// Compatible with logging.Logger and slog.Logger.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// State is the loop's position in its cycle.
type State int32

const (
	StateIdle State = iota
	StateSampling
)

func (s State) String() string {
	if s == StateSampling {
		return "sampling"
	}
	return "idle"
}

// Config holds the loop's collaborators and settings.
type Config struct {
	// Interval between ticks. Default: 5 seconds.
	Interval time.Duration

	// Topic, QoS and Retained are passed to Publisher for every message.
	Topic    string
	QoS      byte
	Retained bool

	Climate   ClimateReader
	Light     LightReader // optional
	Publisher Publisher
	Recorders []Recorder
}

// Stats is a snapshot of the loop's counters.
type Stats struct {
	Ticks           uint64    `json:"ticks"`
	Published       uint64    `json:"published"`
	Skipped         uint64    `json:"skipped"`
	PublishFailures uint64    `json:"publish_failures"`
	LightFailures   uint64    `json:"light_failures"`
	LastPublished   time.Time `json:"last_published,omitzero"`
}

// Loop samples sensors on a fixed cadence and publishes the readings.
type Loop struct {
	cfg   Config
	state atomic.Int32

	ticks           atomic.Uint64
	published       atomic.Uint64
	skipped         atomic.Uint64
	publishFailures atomic.Uint64
	lightFailures   atomic.Uint64
	lastPublished   atomic.Int64

	logger   Logger
	loggerMu sync.RWMutex
}

// New creates a loop. Call Run to start it.
func New(cfg Config) *Loop {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	return &Loop{cfg: cfg}
}

// SetLogger sets the logger for this loop.
func (l *Loop) SetLogger(logger Logger) {
	l.loggerMu.Lock()
	l.logger = logger
	l.loggerMu.Unlock()
}

func (l *Loop) getLogger() Logger {
	l.loggerMu.RLock()
	defer l.loggerMu.RUnlock()
	return l.logger
}

// Run samples immediately, then on every tick, until ctx is cancelled.
func (l *Loop) Run(ctx context.Context) {
	ticker := time.NewTicker(l.cfg.Interval)
	defer ticker.Stop()

	if logger := l.getLogger(); logger != nil {
		logger.Info("telemetry loop started",
			"interval", l.cfg.Interval.String(),
			"topic", l.cfg.Topic,
		)
	}

	l.tick(ctx)

	for {
		select {
		case <-ctx.Done():
			if logger := l.getLogger(); logger != nil {
				logger.Info("telemetry loop stopped", "ticks", l.ticks.Load())
			}
			return
		case <-ticker.C:
			l.tick(ctx)
		}
	}
}

// tick performs one Sampling pass and returns the loop to Idle.
func (l *Loop) tick(ctx context.Context) {
	l.state.Store(int32(StateSampling))
	defer l.state.Store(int32(StateIdle))

	l.ticks.Add(1)
	now := time.Now()

	m, err := l.cfg.Climate.Measure(ctx)
	if err != nil {
		l.skipped.Add(1)
		l.warn("telemetry sample skipped", "error", err)
	} else {
		l.publish(m)
	}

	light, lightOK := l.sampleLight(ctx)

	if err != nil {
		return
	}
	reading := Reading{Temperature: m.Temperature, Humidity: m.Humidity, Time: now}
	if lightOK {
		reading.Light = &light
	}
	for _, r := range l.cfg.Recorders {
		r.Record(reading)
	}
}

// sampleLight reads the light level for logging only.
func (l *Loop) sampleLight(ctx context.Context) (int32, bool) {
	if l.cfg.Light == nil {
		return 0, false
	}
	raw, err := l.cfg.Light.Sample(ctx)
	if err != nil {
		l.lightFailures.Add(1)
		l.warn("light level read failed", "error", err)
		return 0, false
	}
	if logger := l.getLogger(); logger != nil {
		logger.Info("light level", "raw", raw)
	}
	return raw, true
}

// publish hands the message to the broker. Failures are counted and logged.
func (l *Loop) publish(m hardware.Measurement) {
	if l.cfg.Publisher == nil {
		return
	}

	payload, err := NewMessage(m).Encode()
	if err != nil {
		l.publishFailures.Add(1)
		l.warn("telemetry encode failed", "error", err)
		return
	}

	if err := l.cfg.Publisher.Publish(l.cfg.Topic, payload, l.cfg.QoS, l.cfg.Retained); err != nil {
		l.publishFailures.Add(1)
		l.warn("telemetry publish failed", "topic", l.cfg.Topic, "error", err)
		return
	}

	l.published.Add(1)
	l.lastPublished.Store(time.Now().UnixNano())
	if logger := l.getLogger(); logger != nil {
		logger.Debug("telemetry published", "topic", l.cfg.Topic, "payload", string(payload))
	}
}

func (l *Loop) warn(msg string, args ...any) {
	if logger := l.getLogger(); logger != nil {
		logger.Warn(msg, args...)
	}
}

// State returns whether the loop is idle or mid-tick.
func (l *Loop) State() State {
	return State(l.state.Load())
}

// Stats returns a snapshot of the loop's counters.
func (l *Loop) Stats() Stats {
	s := Stats{
		Ticks:           l.ticks.Load(),
		Published:       l.published.Load(),
		Skipped:         l.skipped.Load(),
		PublishFailures: l.publishFailures.Load(),
		LightFailures:   l.lightFailures.Load(),
	}
	if ns := l.lastPublished.Load(); ns != 0 {
		s.LastPublished = time.Unix(0, ns)
	}
	return s
}
