package config

import "fmt"

// MonitoringConfig defines Sentry error reporting. An empty SentryDSN
// disables it.
type MonitoringConfig struct {
	SentryDSN        string  `json:"sentry_dsn"`
	Environment      string  `json:"environment"`
	Release          string  `json:"release"`
	TracesSampleRate float64 `json:"traces_sample_rate"`
}

// Validate checks the sample rate range.
func (c MonitoringConfig) Validate() error {
	if c.TracesSampleRate < 0 || c.TracesSampleRate > 1 {
		return fmt.Errorf("monitoring: traces_sample_rate must be within [0, 1], got %g", c.TracesSampleRate)
	}
	return nil
}
