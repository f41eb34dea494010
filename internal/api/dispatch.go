package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync/atomic"

	"github.com/nerrad567/gray-logic-node/internal/audit"
	"github.com/nerrad567/gray-logic-node/internal/hardware"
)

// Op is one routed operation.
type Op int

const (
	OpActuatorOn Op = iota + 1
	OpActuatorOff
	OpReadTemperature
	OpReadHumidity

	opCount = iota
)

// successBody acknowledges an actuator command.
const successBody = "success"

// ErrUnknownOp is returned by dispatch for an Op outside the closed set.
var ErrUnknownOp = errors.New("unknown operation")

// opRoutes maps each operation route to its Op.
var opRoutes = map[string]Op{
	"/led/on":   OpActuatorOn,
	"/led/off":  OpActuatorOff,
	"/temp":     OpReadTemperature,
	"/humidity": OpReadHumidity,
}

func (o Op) String() string {
	switch o {
	case OpActuatorOn:
		return "actuator_on"
	case OpActuatorOff:
		return "actuator_off"
	case OpReadTemperature:
		return "read_temperature"
	case OpReadHumidity:
		return "read_humidity"
	default:
		return "unknown"
	}
}

// describe is the operation as it appears in a failure body.
func (o Op) describe() string {
	switch o {
	case OpActuatorOn:
		return "set led on"
	case OpActuatorOff:
		return "set led off"
	case OpReadTemperature:
		return "read temperature from sensor"
	case OpReadHumidity:
		return "read humidity from sensor"
	default:
		return "unknown operation"
	}
}

func (o Op) isCommand() bool {
	return o == OpActuatorOn || o == OpActuatorOff
}

// dispatch runs op to completion and returns the response body.
// The device guard has been released by the time dispatch returns.
func (s *Server) dispatch(ctx context.Context, op Op) (string, error) {
	switch op {
	case OpActuatorOn:
		if err := s.actuator.Set(hardware.On); err != nil {
			return "", err
		}
		return successBody, nil

	case OpActuatorOff:
		if err := s.actuator.Set(hardware.Off); err != nil {
			return "", err
		}
		return successBody, nil

	case OpReadTemperature:
		m, err := s.climate.Measure(ctx)
		if err != nil {
			return "", err
		}
		return formatReading(m.Temperature), nil

	case OpReadHumidity:
		m, err := s.climate.Measure(ctx)
		if err != nil {
			return "", err
		}
		return formatReading(m.Humidity), nil

	default:
		return "", fmt.Errorf("%w: %d", ErrUnknownOp, int(op))
	}
}

// formatReading renders v as the shortest decimal that round-trips:
// 23.5 -> "23.5", 25 -> "25".
func formatReading(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// handleOp serves one operation route.
func (s *Server) handleOp(op Op) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.failures.request(op)

		body, err := s.dispatch(r.Context(), op)
		if err != nil {
			s.recordFailure(r, op, err)
			writeText(w, http.StatusInternalServerError, fmt.Sprintf("%s failed: %v", op.describe(), err))
			return
		}

		if op.isCommand() {
			s.recordJournal(&audit.Entry{
				Action:    audit.ActionCommand,
				Source:    journalSourceHTTP,
				Operation: op.String(),
				Details:   map[string]any{"request_id": requestID(r)},
			})
		}
		writeText(w, http.StatusOK, body)
	}
}

// recordFailure logs, counts and journals a failed operation.
func (s *Server) recordFailure(r *http.Request, op Op, err error) {
	s.failures.fail(op)

	s.logger.Error("operation failed",
		"operation", op.String(),
		"error", err,
		"fatal", hardware.IsFatal(err),
		"request_id", requestID(r),
	)

	s.recordJournal(&audit.Entry{
		Action:    audit.ActionFailure,
		Source:    journalSourceHTTP,
		Operation: op.String(),
		Details: map[string]any{
			"error":      err.Error(),
			"request_id": requestID(r),
		},
	})
}

// OpMetrics counts requests for one operation.
type OpMetrics struct {
	Requests uint64 `json:"requests"`
	Failures uint64 `json:"failures"`
}

// failureCounters holds per-operation request and failure counts.
type failureCounters struct {
	requests [opCount + 1]atomic.Uint64
	failures [opCount + 1]atomic.Uint64
}

func (c *failureCounters) request(op Op) {
	if op > 0 && int(op) <= opCount {
		c.requests[op].Add(1)
	}
}

func (c *failureCounters) fail(op Op) {
	if op > 0 && int(op) <= opCount {
		c.failures[op].Add(1)
	}
}

// snapshot returns the counters keyed by operation name.
func (c *failureCounters) snapshot() map[string]OpMetrics {
	out := make(map[string]OpMetrics, opCount)
	for op := Op(1); int(op) <= opCount; op++ {
		out[op.String()] = OpMetrics{
			Requests: c.requests[op].Load(),
			Failures: c.failures[op].Load(),
		}
	}
	return out
}
