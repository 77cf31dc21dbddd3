package simulation

import (
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/kilianp07/socsim/core/model"
)

// rateWindow is the number of trailing ticks averaged for the current-based
// time-to-empty estimate.
const rateWindow = 5

// Summary is a digest of one trajectory.
type Summary struct {
	Ticks            int     `json:"ticks"`
	DurationS        float64 `json:"duration_s"`
	InitialSOC       float64 `json:"initial_soc"`
	FinalSOC         float64 `json:"final_soc"`
	FinalTempC       float64 `json:"final_temp_c"`
	PeakTempC        float64 `json:"peak_temp_c"`
	AvgPowerW        float64 `json:"avg_power_w"`
	PeakPowerW       float64 `json:"peak_power_w"`
	AvgCurrentA      float64 `json:"avg_current_a"`
	EnergyWh         float64 `json:"energy_wh"`
	MinEffCapacityAh float64 `json:"min_eff_capacity_ah"`

	// TimeToEmptyS extrapolates a least-squares line through SOC over time
	// to zero, counted from the last tick. Valid only when TimeToEmptyOK.
	TimeToEmptyS  float64 `json:"time_to_empty_s"`
	TimeToEmptyOK bool    `json:"time_to_empty_ok"`

	// RateTimeToEmptyS divides the remaining nominal charge by the mean
	// current of the last ticks. Valid only when RateTimeToEmptyOK.
	RateTimeToEmptyS  float64 `json:"rate_time_to_empty_s"`
	RateTimeToEmptyOK bool    `json:"rate_time_to_empty_ok"`
}

// Summarize computes the digest of tr under parameters p. An empty
// trajectory yields a zero Summary.
func Summarize(tr model.Trajectory, p model.Params) Summary {
	n := tr.Len()
	if n == 0 {
		return Summary{}
	}
	first, last := tr.Records[0], tr.Records[n-1]
	times := tr.Column("time_s")
	socs := tr.Column("SOC")
	powers := tr.Column("P_W")
	currents := tr.Column("I_A")

	s := Summary{
		Ticks:            n,
		DurationS:        last.TimeS - first.TimeS,
		InitialSOC:       first.SOC,
		FinalSOC:         last.SOC,
		FinalTempC:       last.TempC,
		PeakTempC:        floats.Max(tr.Column("temp_C")),
		AvgPowerW:        stat.Mean(powers, nil),
		PeakPowerW:       floats.Max(powers),
		AvgCurrentA:      stat.Mean(currents, nil),
		MinEffCapacityAh: floats.Min(tr.Column("Q_eff_Ah")),
	}
	// The last tick's draw is never integrated.
	s.EnergyWh = floats.Sum(powers[:n-1]) * tr.Step / secondsPerHour

	if n >= 2 {
		alpha, beta := stat.LinearRegression(times, socs, nil, false)
		if beta < 0 {
			s.TimeToEmptyS = math.Max(0, -alpha/beta-last.TimeS)
			s.TimeToEmptyOK = true
		}
	}

	k := min(rateWindow, n)
	rate := stat.Mean(currents[n-k:], nil)
	if rate > 1e-6 {
		s.RateTimeToEmptyS = p.CapacityAh * secondsPerHour * last.SOC / rate
		s.RateTimeToEmptyOK = true
	}
	return s
}

// String renders the summary as a short multi-line report.
func (s Summary) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "ticks: %d over %.0fs\n", s.Ticks, s.DurationS)
	fmt.Fprintf(&b, "SOC: %.3f -> %.3f\n", s.InitialSOC, s.FinalSOC)
	fmt.Fprintf(&b, "temperature: final %.2fC, peak %.2fC\n", s.FinalTempC, s.PeakTempC)
	fmt.Fprintf(&b, "power: avg %.3fW, peak %.3fW, avg current %.3fA\n", s.AvgPowerW, s.PeakPowerW, s.AvgCurrentA)
	fmt.Fprintf(&b, "energy drawn: %.3fWh, min Q_eff %.3fAh\n", s.EnergyWh, s.MinEffCapacityAh)
	fmt.Fprintf(&b, "time to empty (linear): %s\n", hours(s.TimeToEmptyS, s.TimeToEmptyOK))
	fmt.Fprintf(&b, "time to empty (rate): %s", hours(s.RateTimeToEmptyS, s.RateTimeToEmptyOK))
	return b.String()
}

func hours(sec float64, ok bool) string {
	if !ok {
		return "n/a"
	}
	return fmt.Sprintf("%.2fh", sec/secondsPerHour)
}

// ReportSummary describes the most recent trajectory. Before any run, or
// after a reset, it reports the instantaneous state instead.
func (e *Engine) ReportSummary() string {
	if e.last.Len() == 0 {
		return fmt.Sprintf("SOC=%.3f, T=%.2fC, V_nom=%.2fV", e.soc, e.tempC, e.params.NominalVoltage)
	}
	return Summarize(e.last, e.params).String()
}
