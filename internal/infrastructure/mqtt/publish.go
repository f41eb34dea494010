package mqtt

import (
	"fmt"
)

// maxPayloadSize caps outbound payloads. Telemetry messages are a few dozen
// bytes; anything near this size is a bug upstream.
const maxPayloadSize = 64 << 10

// Publish hands a message to paho and waits, at most defaultPublishTimeout,
// for paho to accept it.
//
// At QoS 0 acceptance means the packet was written to the connection; no
// broker acknowledgment exists. While the client is disconnected Publish
// fails fast with ErrNotConnected rather than queueing, so a telemetry tick
// taken during an outage is dropped.
//
// Parameters:
//   - topic: Destination topic (e.g., "worker/rawData")
//   - payload: Encoded message, at most 64 KiB
//   - qos: 0, 1 or 2
//   - retained: Ask the broker to keep the message for late subscribers
//
// Returns:
//   - error: ErrInvalidTopic, ErrInvalidQoS, ErrNotConnected or a wrapped ErrPublishFailed
func (c *Client) Publish(topic string, payload []byte, qos byte, retained bool) error {
	switch {
	case topic == "":
		return ErrInvalidTopic
	case qos > maxQoS:
		return ErrInvalidQoS
	case len(payload) > maxPayloadSize:
		return fmt.Errorf("%w: %d byte payload over %d byte limit", ErrPublishFailed, len(payload), maxPayloadSize)
	case !c.IsConnected():
		return ErrNotConnected
	}

	tok := c.client.Publish(topic, qos, retained, payload)
	if !tok.WaitTimeout(defaultPublishTimeout) {
		return fmt.Errorf("%w: not accepted within %v", ErrPublishFailed, defaultPublishTimeout)
	}
	if err := tok.Error(); err != nil {
		return fmt.Errorf("%w: %w", ErrPublishFailed, err)
	}
	return nil
}
