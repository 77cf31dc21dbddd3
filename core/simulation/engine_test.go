package simulation

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/socsim/core/model"
)

const (
	twoHours = 7200.0
	minute   = 60.0
)

func demoSchedule() model.UsageSchedule {
	return model.UsageSchedule{
		{Start: 0, End: 3600, Usage: model.Usage{Brightness: 0.8, CPULoad: 0.7, Network: true, GPS: true, Background: true}},
		{Start: 3600, End: 7200, Usage: model.Usage{Brightness: 0.3, CPULoad: 0.3, Network: true, Background: true}},
	}
}

func newEngine(t *testing.T, p model.Params) *Engine {
	t.Helper()
	e, err := New(p)
	require.NoError(t, err)
	return e
}

func TestNewRejectsInvalidParams(t *testing.T) {
	p := model.DefaultParams()
	p.NominalVoltage = 0
	_, err := New(p)
	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrInvalidParams))
}

func TestSimulateDeterministic(t *testing.T) {
	a := newEngine(t, model.DefaultParams())
	b := newEngine(t, model.DefaultParams())
	amb := model.AmbientSegments{{Start: 0, End: 3600, TempC: 30}, {Start: 3600, End: 7200, TempC: 18}}

	ta, err := a.Simulate(twoHours, minute, demoSchedule(), amb)
	require.NoError(t, err)
	tb, err := b.Simulate(twoHours, minute, demoSchedule(), amb)
	require.NoError(t, err)
	require.Equal(t, ta, tb)

	a.Reset(1)
	again, err := a.Simulate(twoHours, minute, demoSchedule(), amb)
	require.NoError(t, err)
	require.Equal(t, ta, again, "reset engine must reproduce the run")
}

func TestSimulateRecordCount(t *testing.T) {
	e := newEngine(t, model.DefaultParams())
	tr, err := e.Simulate(twoHours, minute, demoSchedule(), nil)
	require.NoError(t, err)
	assert.Equal(t, int(math.Floor(twoHours/minute))+1, tr.Len())
	assert.Equal(t, 121, tr.Len())

	tr, err = e.Simulate(100, 30, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 4, tr.Len(), "partial last step is dropped")

	tr, err = e.Simulate(0, 30, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, tr.Len())
}

func TestSimulateReachesEndUnderRounding(t *testing.T) {
	e := newEngine(t, model.DefaultParams())
	for _, tc := range []struct {
		duration, step float64
		ticks          int
		lastT          float64
	}{
		{0.3, 0.1, 4, 0.3},
		{0.7, 0.1, 8, 0.7},
		{1, 0.1, 11, 1},
		{0.35, 0.1, 4, 0.3},
	} {
		e.Reset(1)
		tr, err := e.Simulate(tc.duration, tc.step, nil, nil)
		require.NoError(t, err)
		assert.Equal(t, tc.ticks, tr.Len(), "%g/%g", tc.duration, tc.step)
		last, _ := tr.Last()
		assert.InDelta(t, tc.lastT, last.TimeS, 1e-12, "%g/%g", tc.duration, tc.step)
	}
}

func TestSimulateRejectsUnboundedTickCount(t *testing.T) {
	e := newEngine(t, model.DefaultParams())
	for _, tc := range [][2]float64{{1e300, 1e-300}, {1e19, 1}, {float64(MaxTicks), 1}} {
		_, err := e.Simulate(tc[0], tc[1], nil, nil)
		assert.ErrorIs(t, err, ErrInvalidStep, "%g/%g", tc[0], tc[1])
	}
	n, err := TickCount(120, 60)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestSimulatePowerDecomposition(t *testing.T) {
	e := newEngine(t, model.DefaultParams())
	tr, err := e.Simulate(twoHours, minute, demoSchedule(), nil)
	require.NoError(t, err)
	base := e.Params().BasePower
	for _, r := range tr.Records {
		assert.InDelta(t, r.PowerW, base+r.ComponentSum(), 1e-9, "t=%v", r.TimeS)
		assert.InDelta(t, r.CurrentA, r.PowerW/e.Params().NominalVoltage, 1e-12)
	}
}

func TestSimulateMonotonicTime(t *testing.T) {
	e := newEngine(t, model.DefaultParams())
	tr, err := e.Simulate(twoHours, minute, demoSchedule(), nil)
	require.NoError(t, err)
	assert.Equal(t, 0.0, tr.Records[0].TimeS)
	for i := 1; i < tr.Len(); i++ {
		assert.Equal(t, minute, tr.Records[i].TimeS-tr.Records[i-1].TimeS)
	}
}

func TestCapacityDeratingDirection(t *testing.T) {
	p := model.DefaultParams()
	run := func(tempC float64) model.Trajectory {
		e := newEngine(t, p)
		e.ResetAt(1, tempC)
		tr, err := e.Simulate(twoHours, minute, demoSchedule(), model.ConstantAmbient(tempC))
		require.NoError(t, err)
		return tr
	}
	hot := run(40)
	cold := run(5)

	for _, r := range hot.Records {
		assert.Less(t, r.EffCapacityAh, p.CapacityAh)
	}
	for _, r := range cold.Records {
		assert.Greater(t, r.EffCapacityAh, p.CapacityAh)
	}
	hotLast, _ := hot.Last()
	coldLast, _ := cold.Last()
	assert.Less(t, hotLast.SOC, coldLast.SOC, "hot battery must drain faster")
}

func TestZeroUsageIdleBaseline(t *testing.T) {
	idle := model.UsageSchedule{{Start: 0, End: twoHours}}

	p := model.DefaultParams()
	e := newEngine(t, p)
	tr, err := e.Simulate(twoHours, minute, idle, nil)
	require.NoError(t, err)
	for _, r := range tr.Records {
		assert.Equal(t, p.IdleFloor(), r.PowerW)
		assert.Zero(t, r.ScreenW)
		assert.Zero(t, r.NetworkW+r.GPSW+r.BackgroundW)
	}

	p.CPUIdlePower = 0
	e = newEngine(t, p)
	tr, err = e.Simulate(twoHours, minute, idle, nil)
	require.NoError(t, err)
	for _, r := range tr.Records {
		assert.Equal(t, p.BasePower, r.PowerW)
	}
}

func TestDemoScenario(t *testing.T) {
	e := newEngine(t, model.DefaultParams())
	tr, err := e.Simulate(twoHours, minute, demoSchedule(), nil)
	require.NoError(t, err)

	last, ok := tr.Last()
	require.True(t, ok)
	assert.Less(t, last.SOC, 1.0)
	assert.Equal(t, 1.0, tr.Records[0].SOC)

	avg := func(rs []model.Record) float64 {
		sum := 0.0
		for _, r := range rs {
			sum += r.PowerW
		}
		return sum / float64(len(rs))
	}
	first := tr.Window(0, 3600)
	second := tr.Window(3600, 7200)
	require.Len(t, first, 60)
	require.Len(t, second, 60)
	assert.Greater(t, avg(first), avg(second))
}

func TestSimulateGapRunsAtZeroUsage(t *testing.T) {
	e := newEngine(t, model.DefaultParams())
	tr, err := e.Simulate(twoHours, minute, demoSchedule(), nil)
	require.NoError(t, err)
	last, _ := tr.Last()
	// t=7200 lies past the last half-open segment.
	assert.Equal(t, model.Usage{}, last.Usage())
	assert.Equal(t, e.Params().IdleFloor(), last.PowerW)
}

func TestSimulateOverlapFirstMatch(t *testing.T) {
	sched := model.UsageSchedule{
		{Start: 0, End: 600, Usage: model.Usage{Brightness: 1, GPS: true}},
		{Start: 0, End: 1200, Usage: model.Usage{Brightness: 0}},
	}
	e := newEngine(t, model.DefaultParams())
	tr, err := e.Simulate(1200, minute, sched, nil)
	require.NoError(t, err)
	for _, r := range tr.Window(0, 600) {
		assert.True(t, r.GPS)
		assert.Equal(t, 1.0, r.Brightness)
	}
	for _, r := range tr.Window(600, 1200) {
		assert.False(t, r.GPS)
	}
}

func TestSimulateAmbientHold(t *testing.T) {
	p := model.DefaultParams()
	e := newEngine(t, p)
	amb := model.AmbientSegments{{Start: 0, End: 120, TempC: 40}}
	tr, err := e.Simulate(600, minute, nil, amb)
	require.NoError(t, err)
	for _, r := range tr.Records {
		assert.Equal(t, 40.0, r.AmbientC, "t=%v", r.TimeS)
	}

	e.Reset(1)
	tr, err = e.Simulate(600, minute, nil, nil)
	require.NoError(t, err)
	for _, r := range tr.Records {
		assert.Equal(t, p.InitialTemp, r.AmbientC)
	}
}

func TestSimulateTemperatureRelaxesToAmbient(t *testing.T) {
	e := newEngine(t, model.DefaultParams())
	e.ResetAt(1, 45)
	tr, err := e.Simulate(twoHours, minute, nil, model.ConstantAmbient(20))
	require.NoError(t, err)
	last, _ := tr.Last()
	// Steady state sits P/h above ambient.
	want := 20 + e.Params().IdleFloor()/e.Params().HeatTransfer
	assert.InDelta(t, want, last.TempC, 1e-3)
}

func TestSimulateDoesNotClamp(t *testing.T) {
	p := model.DefaultParams()
	p.CapacityAh = 0.01
	e := newEngine(t, p)
	tr, err := e.Simulate(twoHours, minute, demoSchedule(), nil)
	require.NoError(t, err)
	last, _ := tr.Last()
	assert.Less(t, last.SOC, 0.0)
	assert.Equal(t, 121, tr.Len())

	e.Reset(1.5)
	assert.Equal(t, 1.5, e.SOC())
}

func TestSimulateEngineStateMatchesLastRecord(t *testing.T) {
	e := newEngine(t, model.DefaultParams())
	tr, err := e.Simulate(twoHours, minute, demoSchedule(), nil)
	require.NoError(t, err)
	last, _ := tr.Last()
	assert.Equal(t, last.SOC, e.SOC())
	assert.Equal(t, last.TempC, e.Temperature())
	assert.Equal(t, twoHours, e.Elapsed())
}

func TestSimulateRejectsBadSteps(t *testing.T) {
	e := newEngine(t, model.DefaultParams())
	for _, step := range []float64{0, -1, math.NaN(), math.Inf(1)} {
		_, err := e.Simulate(60, step, nil, nil)
		assert.ErrorIs(t, err, ErrInvalidStep, "step %v", step)
	}
	for _, d := range []float64{-1, math.NaN(), math.Inf(1)} {
		_, err := e.Simulate(d, 1, nil, nil)
		assert.ErrorIs(t, err, ErrInvalidDuration, "duration %v", d)
	}
}

func TestTrajectoryIsACopy(t *testing.T) {
	e := newEngine(t, model.DefaultParams())
	tr, err := e.Simulate(600, minute, demoSchedule(), nil)
	require.NoError(t, err)
	tr.Records[0].SOC = -42
	assert.Equal(t, 1.0, e.Trajectory().Records[0].SOC)
}

func TestResetClearsTrajectory(t *testing.T) {
	e := newEngine(t, model.DefaultParams())
	_, err := e.Simulate(600, minute, demoSchedule(), nil)
	require.NoError(t, err)
	require.Equal(t, 11, e.Trajectory().Len())

	e.Reset(0.5)
	assert.Zero(t, e.Trajectory().Len())
	assert.Equal(t, "SOC=0.500, T=25.00C, V_nom=3.85V", e.ReportSummary())
}

func TestReportSummaryAfterRun(t *testing.T) {
	e := newEngine(t, model.DefaultParams())
	_, err := e.Simulate(twoHours, minute, demoSchedule(), nil)
	require.NoError(t, err)
	before := e.SOC()
	report := e.ReportSummary()
	assert.True(t, strings.HasPrefix(report, "ticks: 121"), report)
	assert.Contains(t, report, "time to empty (linear)")
	assert.Equal(t, before, e.SOC(), "report must not mutate state")
}

func TestBreakdownExponents(t *testing.T) {
	p := model.DefaultParams()
	p.ScreenExponent = 2
	p.CPUExponent = 0.5
	e := newEngine(t, p)
	b := e.Breakdown(model.Usage{Brightness: 0.5, CPULoad: 0.25, GPS: true})
	assert.InDelta(t, 0.30*0.25, b.Screen, 1e-12)
	assert.InDelta(t, 0.10+0.80*0.5, b.CPU, 1e-12)
	assert.Equal(t, p.GPSPower, b.GPS)
	assert.Zero(t, b.Network)
	assert.Zero(t, b.Background)
}
