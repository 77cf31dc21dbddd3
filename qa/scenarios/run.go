package scenarios

import (
	"fmt"

	"gonum.org/v1/gonum/stat"

	"github.com/kilianp07/socsim/core/model"
	"github.com/kilianp07/socsim/core/simulation"
)

// Result is the outcome of one scenario run.
type Result struct {
	Scenario   *Scenario
	Trajectory model.Trajectory
	Summary    simulation.Summary
	Failures   []string
}

// Passed reports whether every expectation held.
func (r Result) Passed() bool { return len(r.Failures) == 0 }

// Run simulates the scenario and checks its expectations. The error is only
// set when the simulation itself cannot run.
func Run(sc *Scenario) (Result, error) {
	tr, err := simulation.Run(sc.Params, sc.Spec())
	if err != nil {
		return Result{Scenario: sc}, fmt.Errorf("scenario %s: %w", sc.Name, err)
	}
	res := Result{Scenario: sc, Trajectory: tr, Summary: simulation.Summarize(tr, sc.Params)}
	res.Failures = sc.Check(tr, res.Summary)
	return res, nil
}

// Check evaluates the expectations against a finished run.
func (sc *Scenario) Check(tr model.Trajectory, s simulation.Summary) []string {
	var out []string
	e := sc.Expected
	if e.Ticks > 0 && s.Ticks != e.Ticks {
		out = append(out, fmt.Sprintf("expected %d ticks, got %d", e.Ticks, s.Ticks))
	}
	if e.FinalSOCBelow != nil && !(s.FinalSOC < *e.FinalSOCBelow) {
		out = append(out, fmt.Sprintf("final SOC %.4f not below %g", s.FinalSOC, *e.FinalSOCBelow))
	}
	if e.FinalSOCAbove != nil && !(s.FinalSOC > *e.FinalSOCAbove) {
		out = append(out, fmt.Sprintf("final SOC %.4f not above %g", s.FinalSOC, *e.FinalSOCAbove))
	}
	if e.FinalTempBelow != nil && !(s.FinalTempC < *e.FinalTempBelow) {
		out = append(out, fmt.Sprintf("final temperature %.2fC not below %g", s.FinalTempC, *e.FinalTempBelow))
	}
	if e.FinalTempAbove != nil && !(s.FinalTempC > *e.FinalTempAbove) {
		out = append(out, fmt.Sprintf("final temperature %.2fC not above %g", s.FinalTempC, *e.FinalTempAbove))
	}
	if e.AvgPowerDecreasing {
		prev := 0.0
		for i, seg := range sc.Usage {
			avg := meanPower(tr.Window(seg.Start, seg.End))
			if i > 0 && !(avg < prev) {
				out = append(out, fmt.Sprintf("segment %d draws %.3fW on average, not below %.3fW", i, avg, prev))
			}
			prev = avg
		}
	}
	if e.Clean {
		for _, issue := range sc.Usage.Lint(sc.DurationS) {
			out = append(out, "usage schedule: "+issue.String())
		}
	}
	return out
}

func meanPower(records []model.Record) float64 {
	if len(records) == 0 {
		return 0
	}
	p := make([]float64, len(records))
	for i, r := range records {
		p[i] = r.PowerW
	}
	return stat.Mean(p, nil)
}
