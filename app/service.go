package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/kilianp07/socsim/config"
	coremetrics "github.com/kilianp07/socsim/core/metrics"
	"github.com/kilianp07/socsim/core/model"
	coremon "github.com/kilianp07/socsim/core/monitoring"
	"github.com/kilianp07/socsim/core/simulation"
	"github.com/kilianp07/socsim/infra/logger"
	"github.com/kilianp07/socsim/infra/metrics"
	// Register the "kafka" and "mqtt" run sinks.
	_ "github.com/kilianp07/socsim/infra/kafka"
	_ "github.com/kilianp07/socsim/infra/mqtt"
	"github.com/kilianp07/socsim/pkg/export"
)

// Service runs simulations from a configuration and hands the results to the
// configured sinks and exporters.
type Service struct {
	cfg  *config.Config
	sink coremetrics.RunSink
	log  logger.Logger

	now   func() time.Time
	newID func() string
}

// New creates a Service from the configuration.
func New(cfg *config.Config) (*Service, error) {
	sink, err := coremetrics.NewRunSink(cfg.Metrics.Sinks)
	if err != nil {
		return nil, fmt.Errorf("run sinks: %w", err)
	}
	return NewWithSink(cfg, sink), nil
}

// NewWithSink creates a Service reporting to sink.
func NewWithSink(cfg *config.Config, sink coremetrics.RunSink) *Service {
	if sink == nil {
		sink = coremetrics.NopSink{}
	}
	return &Service{
		cfg:   cfg,
		sink:  sink,
		log:   logger.New("service"),
		now:   time.Now,
		newID: uuid.NewString,
	}
}

// Run simulates spec under p, logs schedule issues and reports the run to
// the sinks. Sink failures are logged and captured by the monitor; they
// never fail the run.
func (s *Service) Run(ctx context.Context, name string, p model.Params, spec simulation.RunSpec) (coremetrics.RunReport, error) {
	runID := s.newID()
	log := s.log.With(map[string]any{"run_id": runID, "scenario": name})
	for _, issue := range spec.Usage.Lint(spec.Duration) {
		log.Warnf("usage schedule: %s", issue)
	}
	if limit := p.MaxStableStep(); spec.Step >= limit {
		log.Warnf("step %gs reaches the thermal stability limit %gs; temperature will diverge", spec.Step, limit)
	}

	started := s.now()
	tr, err := simulation.Run(p, spec)
	if err != nil {
		coremon.CaptureException(err, map[string]string{"module": "simulation", "run_id": runID, "scenario": name})
		return coremetrics.RunReport{}, err
	}
	report := coremetrics.RunReport{
		RunID:      runID,
		Scenario:   name,
		StartedAt:  started,
		Params:     p,
		Trajectory: tr,
		Summary:    simulation.Summarize(tr, p),
	}
	log.Infof("run finished: %d ticks, final SOC %.4f, final temperature %.2fC",
		report.Summary.Ticks, report.Summary.FinalSOC, report.Summary.FinalTempC)

	if err := s.sink.RecordRun(ctx, report); err != nil {
		log.Errorf("record run: %v", err)
		coremon.CaptureException(err, map[string]string{"module": "sink", "run_id": runID, "scenario": name})
	}
	return report, nil
}

// Simulate runs the configured simulation and writes the configured exports.
// It returns the report and the files written.
func (s *Service) Simulate(ctx context.Context) (coremetrics.RunReport, []string, error) {
	report, err := s.Run(ctx, s.cfg.Run.Name, s.cfg.Params(), s.cfg.Spec())
	if err != nil {
		return report, nil, err
	}
	files, err := s.Export(report, s.cfg.Export)
	if err != nil {
		coremon.CaptureException(err, map[string]string{"module": "export", "run_id": report.RunID})
	}
	return report, files, err
}

// Sweep runs the configured simulation once per ambient temperature and
// reports every variant.
func (s *Service) Sweep(ctx context.Context, temps []float64) ([]simulation.SweepResult, error) {
	if len(temps) == 0 {
		return nil, errors.New("sweep needs at least one temperature")
	}
	variants := simulation.AmbientVariants(s.cfg.Params(), temps)
	results, err := simulation.Sweep(ctx, variants, s.cfg.Spec())
	for _, r := range results {
		report := coremetrics.RunReport{
			RunID:      s.newID(),
			Scenario:   r.Variant.Name,
			StartedAt:  s.now(),
			Params:     r.Variant.Params,
			Trajectory: r.Trajectory,
			Summary:    r.Summary,
		}
		if serr := s.sink.RecordRun(ctx, report); serr != nil {
			s.log.Errorf("record sweep variant %s: %v", r.Variant.Name, serr)
			coremon.CaptureException(serr, map[string]string{"module": "sink", "run_id": report.RunID, "scenario": report.Scenario})
		}
	}
	if err != nil {
		coremon.CaptureException(err, map[string]string{"module": "sweep"})
	}
	return results, err
}

// Export writes the report's trajectory in every format the configuration
// names and returns the resolved paths.
func (s *Service) Export(r coremetrics.RunReport, cfg config.ExportConfig) ([]string, error) {
	title := r.Scenario
	if title == "" {
		title = "socsim"
	}
	outputs := []struct {
		path  string
		write func(io.Writer) error
	}{
		{cfg.CSV, func(w io.Writer) error { return export.WriteCSV(w, r.Trajectory) }},
		{cfg.JSON, func(w io.Writer) error { return export.WriteJSON(w, r.Trajectory) }},
		{cfg.Chart, func(w io.Writer) error { return export.WriteChart(w, title, r.Trajectory) }},
	}
	var files []string
	for _, o := range outputs {
		if o.path == "" {
			continue
		}
		path, err := export.ToFile(cfg.Dir, o.path, o.write)
		if err != nil {
			return files, fmt.Errorf("export %s: %w", o.path, err)
		}
		s.log.Infof("wrote %s", path)
		files = append(files, path)
	}
	return files, nil
}

// ServeMetrics exposes the Prometheus registry on the configured address
// until ctx is cancelled. It is a no-op without an address.
func (s *Service) ServeMetrics(ctx context.Context) {
	addr := s.cfg.Metrics.Addr
	if addr == "" {
		return
	}
	go func() {
		defer coremon.Current().Recover()
		if err := metrics.StartPromServer(ctx, addr, nil); err != nil {
			s.log.Errorf("prom server: %v", err)
			coremon.CaptureException(err, map[string]string{"module": "prom_server"})
		}
	}()
	s.log.Infof("serving metrics on %s/metrics", addr)
}

// Close releases resources held by the sinks.
func (s *Service) Close() error { return coremetrics.Close(s.sink) }
