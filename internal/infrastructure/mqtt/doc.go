// Package mqtt provides the MQTT client for a Gray Logic Node.
//
// This package manages:
//   - Connection to the broker with auto-reconnect (paho.mqtt.golang)
//   - Fire-and-forget publishing of telemetry
//   - Retained online/offline status with a Last Will on graylogic/node/{client_id}/status
//   - An event stream of everything paho reports asynchronously
//
// # Receive loop
//
// Paho delivers inbound messages and connection changes on its own
// goroutines. The client converts each into an Event on a bounded channel;
// RunReceiveLoop drains that channel and logs every event until the context
// is cancelled or the client is closed. Nothing in the stream is fatal.
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	go client.RunReceiveLoop(ctx, logger.Component("mqtt"))
//	_ = client.Listen(cfg.MQTT.Subscriptions...)
//
//	err = client.Publish("worker/rawData", payload, 0, false)
//
// # Security Considerations
//
//   - Enable TLS (cfg.Broker.TLS=true) whenever the broker is off-host
//   - Supply credentials through GRAYLOGIC_NODE_MQTT_USERNAME/PASSWORD
package mqtt
