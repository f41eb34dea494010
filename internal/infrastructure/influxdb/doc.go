// Package influxdb records node telemetry history in InfluxDB v2.
//
// It wraps the official influxdb-client-go v2 library. The telemetry loop
// hands each successful reading to WriteClimate and WriteLight; writes are
// non-blocking and batched, so a slow or absent server never delays a tick.
//
// History is optional (influxdb.enabled in config.yaml). The node runs the
// same with or without it.
//
//	client, err := influxdb.Connect(cfg.InfluxDB, cfg.Node.ID)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	client.WriteClimate(23.5, 61.2, time.Now())
//
// Async write failures are delivered to the SetOnError callback.
package influxdb
