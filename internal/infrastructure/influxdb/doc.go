// Package influxdb stores Vigil's time-series telemetry: periodic frame
// stream health samples and terminal workflow run outcomes.
//
// # Purpose
//
// MQTT carries discrete events; this package carries the numbers behind
// them. Dashboards chart FPS, drop rates, memory and per-workflow
// failure rates from the measurements written here. It wraps the
// official influxdb-client-go v2 library; nothing else in Vigil touches
// the InfluxDB API directly.
//
// # Usage
//
//	client, err := influxdb.Connect(ctx, cfg.InfluxDB)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//	client.SetOnError(func(err error) { log.Error("influxdb write", "error", err) })
//
//	client.WriteStreamSample(influxdb.StreamSample{ServiceID: "vigil-01", Frames: 1024})
//	client.WriteRunMetric("vigil-01", "sweep", "completed", 3200)
//
// # Write Path
//
// Writes are non-blocking: points go into the client library's batch
// buffer and flush on batch_size or flush_interval, whichever comes
// first. A failed batch surfaces through the SetOnError callback, not
// the write call. Telemetry loss is acceptable; stalling the capture
// loop is not.
//
// # Thread Safety
//
// All methods are safe for concurrent use.
package influxdb
