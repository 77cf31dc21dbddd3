package metrics

import "github.com/kilianp07/socsim/core/factory"

// Config lists the sinks every run is reported to.
type Config struct {
	// Addr is the listen address of the /metrics endpoint. Empty disables it.
	Addr  string                 `json:"addr" yaml:"addr"`
	Sinks []factory.ModuleConfig `json:"sinks" yaml:"sinks"`
}
