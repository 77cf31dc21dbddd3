package simulation

import (
	"context"
	"fmt"

	"github.com/kilianp07/socsim/core/model"
)

// RunSpec describes one simulation request independent of the parameters.
type RunSpec struct {
	Duration   float64
	Step       float64
	InitialSOC float64
	Usage      model.UsageSchedule
	Ambient    model.AmbientSchedule
}

// Variant is one point of a sweep. A non-nil Ambient replaces the one in the
// RunSpec.
type Variant struct {
	Name    string
	Params  model.Params
	Ambient model.AmbientSchedule
}

// SweepResult pairs a variant with its run.
type SweepResult struct {
	Variant    Variant
	Trajectory model.Trajectory
	Summary    Summary
}

// Run builds a fresh engine for p and simulates spec.
func Run(p model.Params, spec RunSpec) (model.Trajectory, error) {
	e, err := New(p)
	if err != nil {
		return model.Trajectory{}, err
	}
	e.Reset(spec.InitialSOC)
	return e.Simulate(spec.Duration, spec.Step, spec.Usage, spec.Ambient)
}

// Sweep runs every variant in order, each on its own engine. The context is
// checked between runs.
func Sweep(ctx context.Context, variants []Variant, spec RunSpec) ([]SweepResult, error) {
	out := make([]SweepResult, 0, len(variants))
	for _, v := range variants {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		s := spec
		if v.Ambient != nil {
			s.Ambient = v.Ambient
		}
		tr, err := Run(v.Params, s)
		if err != nil {
			return out, fmt.Errorf("variant %s: %w", v.Name, err)
		}
		out = append(out, SweepResult{Variant: v, Trajectory: tr, Summary: Summarize(tr, v.Params)})
	}
	return out, nil
}

// AmbientVariants returns one variant per temperature, with the battery
// starting at and held against that ambient.
func AmbientVariants(base model.Params, temps []float64) []Variant {
	vs := make([]Variant, len(temps))
	for i, t := range temps {
		p := base
		p.InitialTemp = t
		vs[i] = Variant{
			Name:    fmt.Sprintf("ambient=%gC", t),
			Params:  p,
			Ambient: model.ConstantAmbient(t),
		}
	}
	return vs
}
