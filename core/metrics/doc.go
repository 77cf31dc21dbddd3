// Package metrics defines where finished simulation runs are reported. A
// RunSink receives one RunReport per run; Prometheus, InfluxDB and MQTT sinks
// live in the infra packages and register themselves by type name so the
// configuration can pick any combination. Several sinks are combined with
// NewMultiSink.
package metrics
