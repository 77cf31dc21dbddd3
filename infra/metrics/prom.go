package metrics

import (
	"context"
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/kilianp07/socsim/core/metrics"
)

// PromSink exposes run results as Prometheus metrics.
type PromSink struct {
	runs        *prometheus.CounterVec
	finalSOC    *prometheus.GaugeVec
	finalTemp   *prometheus.GaugeVec
	timeToEmpty *prometheus.GaugeVec
	stepPower   *prometheus.HistogramVec
}

// NewPromSink registers run metrics on the default Prometheus registerer.
func NewPromSink() (*PromSink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	s := &PromSink{
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "socsim_runs_total",
			Help: "Simulation runs reported, by scenario",
		}, []string{"scenario"}),
		finalSOC: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "socsim_final_soc",
			Help: "State of charge at the last tick of the latest run",
		}, []string{"scenario"}),
		finalTemp: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "socsim_final_temp_celsius",
			Help: "Battery temperature at the last tick of the latest run",
		}, []string{"scenario"}),
		timeToEmpty: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "socsim_time_to_empty_seconds",
			Help: "Linear time-to-empty estimate of the latest run",
		}, []string{"scenario"}),
		stepPower: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "socsim_step_power_watts",
			Help:    "Total power draw per simulated tick",
			Buckets: []float64{0.25, 0.5, 0.75, 1, 1.25, 1.5, 2, 3},
		}, []string{"scenario"}),
	}
	var err error
	if s.runs, err = register(reg, s.runs); err != nil {
		return nil, err
	}
	if s.finalSOC, err = register(reg, s.finalSOC); err != nil {
		return nil, err
	}
	if s.finalTemp, err = register(reg, s.finalTemp); err != nil {
		return nil, err
	}
	if s.timeToEmpty, err = register(reg, s.timeToEmpty); err != nil {
		return nil, err
	}
	if s.stepPower, err = register(reg, s.stepPower); err != nil {
		return nil, err
	}
	return s, nil
}

// register adds c to reg, reusing an identical collector that is already
// registered.
func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// RecordRun updates the gauges and observes every tick's power.
func (s *PromSink) RecordRun(_ context.Context, r coremetrics.RunReport) error {
	label := r.Scenario
	if label == "" {
		label = "default"
	}
	s.runs.WithLabelValues(label).Inc()
	s.finalSOC.WithLabelValues(label).Set(r.Summary.FinalSOC)
	s.finalTemp.WithLabelValues(label).Set(r.Summary.FinalTempC)
	if r.Summary.TimeToEmptyOK {
		s.timeToEmpty.WithLabelValues(label).Set(r.Summary.TimeToEmptyS)
	}
	obs := s.stepPower.WithLabelValues(label)
	for _, rec := range r.Trajectory.Records {
		obs.Observe(rec.PowerW)
	}
	return nil
}
