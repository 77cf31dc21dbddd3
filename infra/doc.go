// Package infra contains technical adapters: loggers, the Prometheus and
// InfluxDB run sinks and the MQTT publisher. These packages depend only on
// the interfaces defined in the core packages.
package infra
