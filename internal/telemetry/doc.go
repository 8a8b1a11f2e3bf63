// Package telemetry bridges engine activity to the outside world.
//
// # Purpose
//
// Three collaborators live here:
//
//   - Publisher: implements engine.EventSink, converting engine events
//     into JSON messages on the vigil/event MQTT topic tree.
//   - RunMetrics: implements engine.EventSink, recording terminal run
//     outcomes to InfluxDB for failure-rate and duration dashboards.
//   - Recorder: samples stream health metrics on a fixed interval and
//     writes them to InfluxDB.
//
// MultiSink fans engine events out when more than one sink is wired.
// Everything is strictly best-effort: a broker or database outage
// degrades observability, never the capture loop or a running workflow.
//
// # Usage
//
//	pub := telemetry.NewPublisher(mqttClient, cfg.Service.ID)
//	pub.SetLogger(log)
//	runs := telemetry.NewRunMetrics(influxClient, cfg.Service.ID)
//	sinks := telemetry.MultiSink{pub, runs}
//
//	rec := telemetry.NewRecorder(cfg.Service.ID, cfg.GetSampleInterval(), str.Metrics, influxClient)
//	if err := rec.Start(); err != nil {
//	    return err
//	}
//	defer rec.Stop()
//
// # Thread Safety
//
// Publisher.Publish and RunMetrics.Publish are safe for concurrent use
// (the underlying clients serialise). Recorder Start/Stop are safe for
// concurrent use; the sampling goroutine is the only writer to the
// backend.
package telemetry
