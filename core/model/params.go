package model

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidParams is returned when a parameter set cannot drive a simulation.
var ErrInvalidParams = errors.New("invalid model parameters")

// Params holds the physical constants of the battery model. A Params value is
// immutable for the duration of a simulation run.
type Params struct {
	CapacityAh      float64 `json:"capacity_ah" yaml:"capacity_ah"`           // nominal capacity [Ah]
	NominalVoltage  float64 `json:"nominal_voltage" yaml:"nominal_voltage"`   // [V]
	ReferenceTemp   float64 `json:"reference_temp" yaml:"reference_temp"`     // capacity reference [C]
	TempCoefficient float64 `json:"temp_coefficient" yaml:"temp_coefficient"` // capacity sensitivity [1/K]

	BasePower       float64 `json:"base_power" yaml:"base_power"`               // always-on draw [W]
	ScreenBasePower float64 `json:"screen_base_power" yaml:"screen_base_power"` // screen at full brightness [W]
	CPUIdlePower    float64 `json:"cpu_idle_power" yaml:"cpu_idle_power"`       // [W]
	CPUPeakPower    float64 `json:"cpu_peak_power" yaml:"cpu_peak_power"`       // [W]
	NetworkPower    float64 `json:"network_power" yaml:"network_power"`         // [W]
	GPSPower        float64 `json:"gps_power" yaml:"gps_power"`                 // [W]
	BackgroundPower float64 `json:"background_power" yaml:"background_power"`   // [W]

	// ScreenExponent and CPUExponent shape the brightness and load curves.
	// 1 keeps them linear.
	ScreenExponent float64 `json:"screen_exponent" yaml:"screen_exponent"`
	CPUExponent    float64 `json:"cpu_exponent" yaml:"cpu_exponent"`

	ThermalCapacitance float64 `json:"thermal_capacitance" yaml:"thermal_capacitance"` // [J/K]
	HeatTransfer       float64 `json:"heat_transfer" yaml:"heat_transfer"`             // to ambient [W/K]
	InitialTemp        float64 `json:"initial_temp" yaml:"initial_temp"`               // battery and ambient at reset [C]
}

// DefaultParams returns the reference smartphone parameter set.
func DefaultParams() Params {
	return Params{
		CapacityAh:         3.8,
		NominalVoltage:     3.85,
		ReferenceTemp:      25,
		TempCoefficient:    0.02,
		BasePower:          0.20,
		ScreenBasePower:    0.30,
		CPUIdlePower:       0.10,
		CPUPeakPower:       0.90,
		NetworkPower:       0.25,
		GPSPower:           0.04,
		BackgroundPower:    0.05,
		ScreenExponent:     1,
		CPUExponent:        1,
		ThermalCapacitance: 600,
		HeatTransfer:       5,
		InitialTemp:        25,
	}
}

// Validate reports the first parameter that would make the integrator
// divide by zero or produce a physically meaningless draw.
func (p Params) Validate() error {
	for _, f := range p.fields() {
		if math.IsNaN(f.v) || math.IsInf(f.v, 0) {
			return fmt.Errorf("%w: %s must be finite", ErrInvalidParams, f.name)
		}
	}
	switch {
	case p.CapacityAh <= 0:
		return fmt.Errorf("%w: capacity_ah must be positive, got %g", ErrInvalidParams, p.CapacityAh)
	case p.NominalVoltage <= 0:
		return fmt.Errorf("%w: nominal_voltage must be positive, got %g", ErrInvalidParams, p.NominalVoltage)
	case p.ThermalCapacitance <= 0:
		return fmt.Errorf("%w: thermal_capacitance must be positive, got %g", ErrInvalidParams, p.ThermalCapacitance)
	case p.HeatTransfer < 0:
		return fmt.Errorf("%w: heat_transfer must not be negative, got %g", ErrInvalidParams, p.HeatTransfer)
	case p.ScreenExponent < 0 || p.CPUExponent < 0:
		return fmt.Errorf("%w: exponents must not be negative", ErrInvalidParams)
	case p.CPUPeakPower < p.CPUIdlePower:
		return fmt.Errorf("%w: cpu_peak_power %g below cpu_idle_power %g", ErrInvalidParams, p.CPUPeakPower, p.CPUIdlePower)
	}
	for _, f := range p.powers() {
		if f.v < 0 {
			return fmt.Errorf("%w: %s must not be negative, got %g", ErrInvalidParams, f.name, f.v)
		}
	}
	return nil
}

// EffectiveCapacity derates the nominal capacity at temperature tempC. It
// underflows to zero once TempCoefficient*(tempC-ReferenceTemp) passes about
// 745, which a run only reaches with steps beyond MaxStableStep.
func (p Params) EffectiveCapacity(tempC float64) float64 {
	return p.CapacityAh * math.Exp(-p.TempCoefficient*(tempC-p.ReferenceTemp))
}

// MaxStableStep is the largest step, in seconds, for which the explicit
// temperature update does not diverge: 2*ThermalCapacitance/HeatTransfer.
// Without heat transfer every step is stable.
func (p Params) MaxStableStep() float64 {
	if p.HeatTransfer == 0 {
		return math.Inf(1)
	}
	return 2 * p.ThermalCapacitance / p.HeatTransfer
}

// IdleFloor is the draw of a device with every usage input at zero.
func (p Params) IdleFloor() float64 {
	return p.BasePower + p.CPUIdlePower
}

type namedValue struct {
	name string
	v    float64
}

func (p Params) powers() []namedValue {
	return []namedValue{
		{"base_power", p.BasePower},
		{"screen_base_power", p.ScreenBasePower},
		{"cpu_idle_power", p.CPUIdlePower},
		{"cpu_peak_power", p.CPUPeakPower},
		{"network_power", p.NetworkPower},
		{"gps_power", p.GPSPower},
		{"background_power", p.BackgroundPower},
	}
}

func (p Params) fields() []namedValue {
	return append(p.powers(),
		namedValue{"capacity_ah", p.CapacityAh},
		namedValue{"nominal_voltage", p.NominalVoltage},
		namedValue{"reference_temp", p.ReferenceTemp},
		namedValue{"temp_coefficient", p.TempCoefficient},
		namedValue{"screen_exponent", p.ScreenExponent},
		namedValue{"cpu_exponent", p.CPUExponent},
		namedValue{"thermal_capacitance", p.ThermalCapacitance},
		namedValue{"heat_transfer", p.HeatTransfer},
		namedValue{"initial_temp", p.InitialTemp},
	)
}
