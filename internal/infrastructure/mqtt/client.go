package mqtt

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/nerrad567/gray-logic-node/internal/infrastructure/config"
)

// Client wraps paho.mqtt.golang for a Gray Logic Node.
//
// Publishing is synchronous up to the hand-off to paho. Everything paho
// reports asynchronously (inbound messages, connection changes, handler
// failures) is turned into an Event and queued for RunReceiveLoop.
//
// Thread Safety:
//   - All methods are safe for concurrent use from multiple goroutines.
//   - Subscriptions are automatically restored on reconnection.
type Client struct {
	client  pahomqtt.Client
	options *pahomqtt.ClientOptions
	cfg     config.MQTTConfig

	// subscriptions tracks active subscriptions for re-subscription on reconnect.
	subscriptions map[string]subscription
	subMu         sync.RWMutex

	state  ConnectionState
	connMu sync.RWMutex

	events  chan Event
	dropped atomic.Uint64

	done      chan struct{}
	closeOnce sync.Once
}

// Logger interface for the receive loop.
// Compatible with logging.Logger and slog.Logger.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// subscription holds subscription details for re-subscription on reconnect.
type subscription struct {
	topic   string
	qos     byte
	handler MessageHandler
}

// MessageHandler is the callback signature for received messages.
//
// Handlers are invoked in paho's goroutines and should not block.
// A returned error is queued as an EventHandlerError.
type MessageHandler func(topic string, payload []byte) error

// ConnectionState is the client's view of the broker connection.
type ConnectionState int32

const (
	StateDisconnected ConnectionState = iota
	StateConnecting
	StateConnected
)

func (s ConnectionState) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	default:
		return "disconnected"
	}
}

// newClient builds an unconnected Client. Connect attaches the paho client.
func newClient(cfg config.MQTTConfig) *Client {
	return &Client{
		cfg:           cfg,
		subscriptions: make(map[string]subscription),
		events:        make(chan Event, eventBufferSize),
		done:          make(chan struct{}),
	}
}

// Connect establishes a connection to the MQTT broker.
//
// It performs the following setup:
//  1. Builds connection options from config (broker URL, auth, TLS)
//  2. Configures Last Will and Testament (LWT) on the node status topic
//  3. Routes paho callbacks into the event stream
//  4. Attempts initial connection with timeout
//
// Parameters:
//   - cfg: MQTT configuration from config.yaml
//
// Returns:
//   - *Client: Connected client ready for use
//   - error: If initial connection fails within timeout
func Connect(cfg config.MQTTConfig) (*Client, error) {
	opts := buildClientOptions(cfg)
	configureLWT(opts, cfg.Broker.ClientID)

	c := newClient(cfg)
	c.options = opts
	c.attachHandlers(opts)

	c.setState(StateConnecting)
	c.client = pahomqtt.NewClient(opts)
	token := c.client.Connect()
	if !token.WaitTimeout(defaultConnectTimeout) {
		c.client.Disconnect(0)
		c.setState(StateDisconnected)
		return nil, fmt.Errorf("%w: timeout after %v", ErrConnectionFailed, defaultConnectTimeout)
	}
	if err := token.Error(); err != nil {
		c.setState(StateDisconnected)
		return nil, fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}

	// The OnConnect callback runs asynchronously and may not have fired yet.
	c.setState(StateConnected)

	return c, nil
}

// attachHandlers routes paho's asynchronous callbacks into the event stream.
func (c *Client) attachHandlers(opts *pahomqtt.ClientOptions) {
	opts.SetDefaultPublishHandler(func(_ pahomqtt.Client, msg pahomqtt.Message) {
		c.emit(messageEvent(msg.Topic(), msg.Payload()))
	})

	opts.SetOnConnectHandler(func(_ pahomqtt.Client) {
		c.handleConnect()
	})

	opts.SetConnectionLostHandler(func(_ pahomqtt.Client, err error) {
		c.handleDisconnect(err)
	})

	opts.SetReconnectingHandler(func(_ pahomqtt.Client, _ *pahomqtt.ClientOptions) {
		c.setState(StateConnecting)
		c.emit(Event{Kind: EventReconnecting})
	})
}

// handleConnect is called when the connection is established.
func (c *Client) handleConnect() {
	c.setState(StateConnected)
	c.restoreSubscriptions()
	c.publishStatus(buildOnlinePayload(c.cfg.Broker.ClientID))
	c.emit(Event{Kind: EventConnected})
}

// handleDisconnect is called when the connection is lost.
func (c *Client) handleDisconnect(err error) {
	c.setState(StateDisconnected)
	c.emit(Event{Kind: EventConnectionLost, Err: err})
}

// restoreSubscriptions re-subscribes to all tracked topics after reconnect.
func (c *Client) restoreSubscriptions() {
	c.subMu.RLock()
	defer c.subMu.RUnlock()

	for _, sub := range c.subscriptions {
		// Failures surface later as missing messages; the next reconnect retries.
		c.client.Subscribe(sub.topic, sub.qos, c.wrapHandler(sub.handler))
	}
}

// publishStatus publishes a retained status payload on the node status topic.
func (c *Client) publishStatus(payload string) pahomqtt.Token {
	topic := Topics{}.NodeStatus(c.cfg.Broker.ClientID)
	return c.client.Publish(topic, byte(c.cfg.QoS), true, payload)
}

// Close gracefully disconnects from the MQTT broker and stops RunReceiveLoop.
//
// It performs:
//  1. Publishes graceful offline status (different from LWT crash status)
//  2. Disconnects from broker, letting pending operations drain
//
// Returns:
//   - error: Always nil; a connection that is already closed is not an error
func (c *Client) Close() error {
	if c.done != nil {
		c.closeOnce.Do(func() { close(c.done) })
	}

	if c.client == nil {
		return nil
	}

	if c.IsConnected() {
		token := c.publishStatus(buildOfflinePayload(c.cfg.Broker.ClientID))
		token.WaitTimeout(defaultPublishTimeout)
	}

	c.client.Disconnect(defaultDisconnectQuiesce)
	c.setState(StateDisconnected)

	return nil
}

// HealthCheck verifies the MQTT connection is alive.
//
// Returns:
//   - error: nil if healthy, ErrNotConnected or the context error otherwise
func (c *Client) HealthCheck(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("mqtt health check: %w", ctx.Err())
	default:
	}

	if !c.IsConnected() {
		return ErrNotConnected
	}

	return nil
}

// IsConnected returns the current connection state.
func (c *Client) IsConnected() bool {
	if c.client == nil {
		return false
	}
	return c.State() == StateConnected && c.client.IsConnected()
}

// State returns the last connection state reported by paho.
func (c *Client) State() ConnectionState {
	c.connMu.RLock()
	defer c.connMu.RUnlock()
	return c.state
}

func (c *Client) setState(s ConnectionState) {
	c.connMu.Lock()
	c.state = s
	c.connMu.Unlock()
}

// wrapHandler wraps a MessageHandler with panic recovery. Failures are
// queued as EventHandlerError rather than logged here.
func (c *Client) wrapHandler(handler MessageHandler) pahomqtt.MessageHandler {
	return func(_ pahomqtt.Client, msg pahomqtt.Message) {
		defer func() {
			if r := recover(); r != nil {
				c.emit(Event{
					Kind:  EventHandlerError,
					Topic: msg.Topic(),
					Err:   fmt.Errorf("%w: %v", ErrHandlerPanic, r),
				})
			}
		}()

		if err := handler(msg.Topic(), msg.Payload()); err != nil {
			c.emit(Event{Kind: EventHandlerError, Topic: msg.Topic(), Err: err})
		}
	}
}
