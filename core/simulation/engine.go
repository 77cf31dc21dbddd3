package simulation

import (
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/kilianp07/socsim/core/model"
)

// secondsPerHour converts ampere-hours to ampere-seconds.
const secondsPerHour = 3600.0

// MaxTicks caps the number of records a single Simulate call may produce.
const MaxTicks = math.MaxInt32

// tickTolerance is the relative distance from an integer below which
// duration/step counts as an exact division.
const tickTolerance = 1e-9

var (
	// ErrInvalidStep indicates a step that is not a positive finite number.
	ErrInvalidStep = errors.New("step must be positive and finite")
	// ErrInvalidDuration indicates a negative or non-finite duration.
	ErrInvalidDuration = errors.New("duration must be non-negative and finite")
)

// Engine integrates the coupled SOC and temperature equations of one
// battery. It is not safe for concurrent use; give each run its own Engine.
type Engine struct {
	params model.Params

	soc      float64
	tempC    float64
	ambientC float64
	elapsed  float64

	last model.Trajectory
}

// New validates p and returns an engine at full charge and InitialTemp.
func New(p model.Params) (*Engine, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	e := &Engine{params: p}
	e.Reset(1)
	return e, nil
}

// Params returns the parameter set the engine was built with.
func (e *Engine) Params() model.Params { return e.params }

// SOC returns the current state of charge.
func (e *Engine) SOC() float64 { return e.soc }

// Temperature returns the current battery temperature in Celsius.
func (e *Engine) Temperature() float64 { return e.tempC }

// Elapsed returns the simulated time of the current state in seconds.
func (e *Engine) Elapsed() float64 { return e.elapsed }

// Reset puts the engine back to soc with battery and ambient at InitialTemp
// and drops the previous trajectory. soc is taken as given, not clamped.
func (e *Engine) Reset(soc float64) {
	e.ResetAt(soc, e.params.InitialTemp)
}

// ResetAt is Reset with an explicit starting temperature, which also becomes
// the held ambient temperature.
func (e *Engine) ResetAt(soc, tempC float64) {
	e.soc = soc
	e.tempC = tempC
	e.ambientC = tempC
	e.elapsed = 0
	e.last = model.Trajectory{}
}

// Breakdown computes the component draw for a usage vector.
func (e *Engine) Breakdown(u model.Usage) model.PowerBreakdown {
	p := e.params
	b := model.PowerBreakdown{
		Base:   p.BasePower,
		Screen: p.ScreenBasePower * math.Pow(u.Brightness, p.ScreenExponent),
		CPU:    p.CPUIdlePower + (p.CPUPeakPower-p.CPUIdlePower)*math.Pow(u.CPULoad, p.CPUExponent),
	}
	if u.Network {
		b.Network = p.NetworkPower
	}
	if u.GPS {
		b.GPS = p.GPSPower
	}
	if u.Background {
		b.Background = p.BackgroundPower
	}
	return b
}

// TickCount is the number of records Simulate produces: one per step boundary
// in [0, duration], including both ends. A step that divides duration up to
// floating-point error still reaches the end time. Counts that are not finite
// or reach MaxTicks fail with ErrInvalidStep.
func TickCount(duration, step float64) (int, error) {
	q := duration / step
	if math.IsNaN(q) || math.IsInf(q, 0) || q >= MaxTicks {
		return 0, fmt.Errorf("%w: %g/%g gives %g steps, limit %d", ErrInvalidStep, duration, step, q, MaxTicks)
	}
	n := math.Floor(q)
	if r := math.Round(q); math.Abs(q-r) <= tickTolerance*math.Max(1, r) {
		n = r
	}
	return int(n) + 1, nil
}

// Simulate runs the explicit Euler integration from the current state for
// duration seconds in fixed steps and returns one record per tick. Tick
// times, and the schedules, are relative to the start of this run.
//
// Usage comes from the first segment containing the tick time; ticks outside
// every segment run at zero usage. A nil ambient schedule, or a tick the
// schedule does not cover, keeps the ambient temperature from the previous
// tick. SOC and temperature are never clamped.
//
// The temperature update is stable only for step below
// 2*ThermalCapacitance/HeatTransfer (Params.MaxStableStep). Past it the
// temperature oscillates with growing amplitude until the derated capacity
// underflows to zero.
func (e *Engine) Simulate(duration, step float64, usage model.UsageSchedule, ambient model.AmbientSchedule) (model.Trajectory, error) {
	if !(step > 0) || math.IsInf(step, 0) {
		return model.Trajectory{}, fmt.Errorf("%w: got %g", ErrInvalidStep, step)
	}
	if !(duration >= 0) || math.IsInf(duration, 0) {
		return model.Trajectory{}, fmt.Errorf("%w: got %g", ErrInvalidDuration, duration)
	}
	n, err := TickCount(duration, step)
	if err != nil {
		return model.Trajectory{}, err
	}

	p := e.params
	records := make([]model.Record, 0, n)

	for i := 0; i < n; i++ {
		t := float64(i) * step
		e.elapsed = t

		u, _ := usage.At(t)
		if ambient != nil {
			if a, ok := ambient.AmbientAt(t); ok {
				e.ambientC = a
			}
		}

		b := e.Breakdown(u)
		power := b.Total()
		current := power / p.NominalVoltage
		qEff := p.EffectiveCapacity(e.tempC)

		records = append(records, model.Record{
			TimeS:         t,
			SOC:           e.soc,
			TempC:         e.tempC,
			PowerW:        power,
			CurrentA:      current,
			EffCapacityAh: qEff,
			Brightness:    u.Brightness,
			CPULoad:       u.CPULoad,
			Network:       u.Network,
			GPS:           u.GPS,
			Background:    u.Background,
			AmbientC:      e.ambientC,
			ScreenW:       b.Screen,
			CPUW:          b.CPU,
			NetworkW:      b.Network,
			GPSW:          b.GPS,
			BackgroundW:   b.Background,
		})

		// The final tick reports the end state; there is no step after it.
		if i == n-1 {
			break
		}
		e.soc -= current * step / (qEff * secondsPerHour)
		e.tempC += step * (power - p.HeatTransfer*(e.tempC-e.ambientC)) / p.ThermalCapacitance
	}

	e.last = model.Trajectory{Step: step, Records: records}
	return model.Trajectory{Step: step, Records: slices.Clone(records)}, nil
}

// Trajectory returns a copy of the most recent run, empty after a reset.
func (e *Engine) Trajectory() model.Trajectory {
	return model.Trajectory{Step: e.last.Step, Records: slices.Clone(e.last.Records)}
}
