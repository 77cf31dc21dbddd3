package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kilianp07/socsim/core/factory"
	coremetrics "github.com/kilianp07/socsim/core/metrics"
)

// init registers the built-in run sinks.
func init() {
	_ = coremetrics.RegisterRunSink("prometheus", func(map[string]any) (coremetrics.RunSink, error) {
		// The /metrics listener is started by the caller; the sink only
		// owns the collectors.
		return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
	})

	_ = coremetrics.RegisterRunSink("influx", func(conf map[string]any) (coremetrics.RunSink, error) {
		var c struct {
			URL      string `json:"url"`
			Token    string `json:"token"`
			Org      string `json:"org"`
			Bucket   string `json:"bucket"`
			Fallback *bool  `json:"fallback"`
		}
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		if c.URL == "" || c.Bucket == "" {
			return nil, fmt.Errorf("url and bucket are required")
		}
		if c.Fallback != nil && !*c.Fallback {
			return NewInfluxSink(c.URL, c.Token, c.Org, c.Bucket), nil
		}
		return NewInfluxSinkWithFallback(c.URL, c.Token, c.Org, c.Bucket), nil
	})
}
