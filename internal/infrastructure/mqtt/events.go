package mqtt

import (
	"context"
	"time"
)

// eventBufferSize bounds the events waiting for RunReceiveLoop.
// When full, new events are dropped and counted.
const eventBufferSize = 64

// maxLoggedPayload caps how much of a payload is written to the log.
const maxLoggedPayload = 256

// EventKind classifies an Event.
type EventKind int

const (
	EventMessage EventKind = iota
	EventConnected
	EventConnectionLost
	EventReconnecting
	EventHandlerError
)

func (k EventKind) String() string {
	switch k {
	case EventMessage:
		return "message"
	case EventConnected:
		return "connected"
	case EventConnectionLost:
		return "connection_lost"
	case EventReconnecting:
		return "reconnecting"
	case EventHandlerError:
		return "handler_error"
	default:
		return "unknown"
	}
}

// Event is something paho reported asynchronously.
type Event struct {
	Kind    EventKind
	Topic   string
	Payload []byte
	Err     error
	Time    time.Time
}

func messageEvent(topic string, payload []byte) Event {
	return Event{Kind: EventMessage, Topic: topic, Payload: payload}
}

// emit queues ev without blocking paho's goroutines.
func (c *Client) emit(ev Event) {
	if ev.Time.IsZero() {
		ev.Time = time.Now()
	}
	select {
	case c.events <- ev:
	default:
		c.dropped.Add(1)
	}
}

// Events returns the event stream drained by RunReceiveLoop.
// Only one consumer should read it.
func (c *Client) Events() <-chan Event {
	return c.events
}

// DroppedEvents returns how many events were discarded because the stream was full.
func (c *Client) DroppedEvents() uint64 {
	return c.dropped.Load()
}

// RunReceiveLoop drains the event stream and logs each event until ctx is
// cancelled or the client is closed. Errors are logged and never end the loop.
//
// Run it in its own goroutine:
//
//	go client.RunReceiveLoop(ctx, logger.Component("mqtt"))
func (c *Client) RunReceiveLoop(ctx context.Context, logger Logger) {
	logger.Info("mqtt receive loop listening",
		"client_id", c.cfg.Broker.ClientID,
		"subscriptions", c.SubscriptionCount(),
	)

	for {
		select {
		case <-ctx.Done():
			logger.Info("mqtt receive loop exited", "reason", ctx.Err())
			return
		case <-c.done:
			logger.Info("mqtt receive loop exited", "reason", "client closed")
			return
		case ev := <-c.events:
			logEvent(logger, ev)
		}
	}
}

// logEvent writes one event at a level matching its kind.
func logEvent(logger Logger, ev Event) {
	switch ev.Kind {
	case EventMessage:
		logger.Info("mqtt message received",
			"topic", ev.Topic,
			"bytes", len(ev.Payload),
			"payload", truncate(ev.Payload),
		)
	case EventConnected:
		logger.Info("mqtt connected")
	case EventReconnecting:
		logger.Warn("mqtt reconnecting")
	case EventConnectionLost:
		logger.Warn("mqtt connection lost", "error", ev.Err)
	case EventHandlerError:
		logger.Error("mqtt handler failed", "topic", ev.Topic, "error", ev.Err)
	default:
		logger.Debug("mqtt event", "kind", ev.Kind.String())
	}
}

func truncate(payload []byte) string {
	if len(payload) > maxLoggedPayload {
		return string(payload[:maxLoggedPayload]) + "..."
	}
	return string(payload)
}
