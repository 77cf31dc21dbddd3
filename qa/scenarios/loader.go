package scenarios

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/kilianp07/socsim/core/model"
	"github.com/kilianp07/socsim/core/simulation"
)

// Expected lists the checks a scenario run must pass. Unset bounds are not
// checked.
type Expected struct {
	Ticks          int      `yaml:"ticks,omitempty"`
	FinalSOCBelow  *float64 `yaml:"final_soc_below,omitempty"`
	FinalSOCAbove  *float64 `yaml:"final_soc_above,omitempty"`
	FinalTempBelow *float64 `yaml:"final_temp_below,omitempty"`
	FinalTempAbove *float64 `yaml:"final_temp_above,omitempty"`
	// AvgPowerDecreasing requires each usage segment to draw less on average
	// than the one before it.
	AvgPowerDecreasing bool `yaml:"avg_power_decreasing,omitempty"`
	// Clean requires the usage schedule to lint without issues.
	Clean bool `yaml:"clean,omitempty"`
}

// Scenario is one YAML scenario file: a run description and the
// expectations its result is checked against.
type Scenario struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description,omitempty"`
	// Params overrides individual fields of model.DefaultParams.
	Params          model.Params           `yaml:"params"`
	DurationS       float64                `yaml:"duration_s"`
	StepS           float64                `yaml:"step_s"`
	InitialSOC      float64                `yaml:"initial_soc"`
	Usage           model.UsageSchedule    `yaml:"usage"`
	Ambient         []model.AmbientSegment `yaml:"ambient,omitempty"`
	AmbientConstant *float64               `yaml:"ambient_constant,omitempty"`
	Expected        Expected               `yaml:"expected"`
}

// Load reads a scenario file. Fields the file leaves out keep the demo run's
// values.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	sc := Scenario{
		Params:     model.DefaultParams(),
		DurationS:  7200,
		StepS:      60,
		InitialSOC: 1,
	}
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if sc.Name == "" {
		return nil, fmt.Errorf("%s: scenario name is required", path)
	}
	return &sc, nil
}

// Spec converts the scenario into a simulation request.
func (sc *Scenario) Spec() simulation.RunSpec {
	var amb model.AmbientSchedule
	switch {
	case len(sc.Ambient) > 0:
		amb = model.AmbientSegments(sc.Ambient)
	case sc.AmbientConstant != nil:
		amb = model.ConstantAmbient(*sc.AmbientConstant)
	}
	return simulation.RunSpec{
		Duration:   sc.DurationS,
		Step:       sc.StepS,
		InitialSOC: sc.InitialSOC,
		Usage:      sc.Usage,
		Ambient:    amb,
	}
}
