package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/kilianp07/socsim/core/metrics"
	"github.com/kilianp07/socsim/core/model"
	"github.com/kilianp07/socsim/core/simulation"
)

// EnvPrefix marks environment variables that override file settings.
// SOCSIM_RUN__STEP_S=30 sets run.step_s.
const EnvPrefix = "SOCSIM_"

// Config is the full run configuration: battery parameters, the run and its
// schedules, exports, run sinks, logging and error monitoring.
type Config struct {
	Model      model.Params        `json:"model"`
	Run        RunConfig           `json:"run"`
	Usage      model.UsageSchedule `json:"usage"`
	Ambient    AmbientConfig       `json:"ambient"`
	Export     ExportConfig        `json:"export"`
	Metrics    metrics.Config      `json:"metrics"`
	Logging    LoggingConfig       `json:"logging"`
	Monitoring MonitoringConfig    `json:"monitoring"`
}

// RunConfig describes a single simulation request.
type RunConfig struct {
	Name       string  `json:"name"`
	DurationS  float64 `json:"duration_s"`
	StepS      float64 `json:"step_s"`
	InitialSOC float64 `json:"initial_soc"`
	// InitialTemp overrides model.initial_temp for the battery and the held
	// ambient temperature.
	InitialTemp *float64 `json:"initial_temp"`
}

// Validate checks the run bounds.
func (r RunConfig) Validate() error {
	if !(r.StepS > 0) {
		return fmt.Errorf("run.step_s must be positive, got %g", r.StepS)
	}
	if r.DurationS < 0 {
		return fmt.Errorf("run.duration_s must be non-negative, got %g", r.DurationS)
	}
	return nil
}

// AmbientConfig is either a constant temperature or a segment list. Segments
// take precedence.
type AmbientConfig struct {
	Constant *float64               `json:"constant"`
	Segments []model.AmbientSegment `json:"segments"`
}

// Schedule converts the configuration into an ambient schedule. Nil means the
// engine holds the initial temperature.
func (a AmbientConfig) Schedule() model.AmbientSchedule {
	switch {
	case len(a.Segments) > 0:
		return model.AmbientSegments(a.Segments)
	case a.Constant != nil:
		return model.ConstantAmbient(*a.Constant)
	}
	return nil
}

// ExportConfig names the output files of a run. Relative paths are resolved
// against Dir; an empty path disables that format.
type ExportConfig struct {
	Dir   string `json:"dir"`
	CSV   string `json:"csv"`
	JSON  string `json:"json"`
	Chart string `json:"chart"`
}

// DemoSchedule is the two-hour reference workload: one hour of heavy use with
// GPS, then one hour of light use.
func DemoSchedule() model.UsageSchedule {
	return model.UsageSchedule{
		{Start: 0, End: 3600, Usage: model.Usage{Brightness: 0.8, CPULoad: 0.7, Network: true, GPS: true, Background: true}},
		{Start: 3600, End: 7200, Usage: model.Usage{Brightness: 0.3, CPULoad: 0.3, Network: true, Background: true}},
	}
}

// Default returns the configuration of the demo run.
func Default() Config {
	return Config{
		Model: model.DefaultParams(),
		Run: RunConfig{
			Name:       "demo",
			DurationS:  7200,
			StepS:      60,
			InitialSOC: 1,
		},
		Usage:  DemoSchedule(),
		Export: ExportConfig{Dir: "output"},
	}
}

// Spec turns the configuration into a simulation request.
func (c Config) Spec() simulation.RunSpec {
	return simulation.RunSpec{
		Duration:   c.Run.DurationS,
		Step:       c.Run.StepS,
		InitialSOC: c.Run.InitialSOC,
		Usage:      c.Usage,
		Ambient:    c.Ambient.Schedule(),
	}
}

// Params returns the model parameters with the run's initial temperature
// applied.
func (c Config) Params() model.Params {
	p := c.Model
	if c.Run.InitialTemp != nil {
		p.InitialTemp = *c.Run.InitialTemp
	}
	return p
}

// Validate checks every section.
func (c Config) Validate() error {
	if err := c.Params().Validate(); err != nil {
		return err
	}
	if err := c.Run.Validate(); err != nil {
		return err
	}
	if err := c.Monitoring.Validate(); err != nil {
		return err
	}
	return c.Logging.Validate()
}

// Load reads path over the defaults and applies SOCSIM_ environment
// overrides. An empty path loads the defaults and the environment only.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	if path != "" {
		ext := strings.ToLower(filepath.Ext(path))
		var parser koanf.Parser
		switch ext {
		case ".yaml", ".yml":
			parser = yaml.Parser()
		case ".json":
			parser = json.Parser()
		default:
			return nil, fmt.Errorf("unsupported config format: %s", ext)
		}
		if err := k.Load(file.Provider(path), parser); err != nil {
			return nil, err
		}
	}
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), strings.ToLower(EnvPrefix))
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}

	cfg := Default()
	// Slices decode element-wise into existing values, so schedules start
	// empty and fall back to the demo only when the file has none.
	cfg.Usage = nil
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	if !k.Exists("usage") {
		cfg.Usage = DemoSchedule()
	}
	cfg.Logging.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
