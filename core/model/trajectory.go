package model

import (
	"strconv"
)

// Columns is the export order of a trajectory record.
var Columns = []string{
	"time_s", "SOC", "temp_C", "P_W", "I_A", "Q_eff_Ah",
	"brightness", "cpu_load", "network", "gps", "background", "ambient_T",
	"P_screen_W", "P_CPU_W", "P_network_W", "P_GPS_W", "P_background_W",
}

// PowerBreakdown is the per-component draw for one usage vector, in watts.
type PowerBreakdown struct {
	Base       float64 `json:"P_base_W"`
	Screen     float64 `json:"P_screen_W"`
	CPU        float64 `json:"P_CPU_W"`
	Network    float64 `json:"P_network_W"`
	GPS        float64 `json:"P_GPS_W"`
	Background float64 `json:"P_background_W"`
}

// Total sums base and component draw.
func (b PowerBreakdown) Total() float64 {
	return b.Base + b.Screen + b.CPU + b.Network + b.GPS + b.Background
}

// Record is one tick of a simulation run. SOC and TempC are the state at
// TimeS; the power and capacity fields are what drove the step from TimeS to
// the next tick.
type Record struct {
	TimeS         float64 `json:"time_s"`
	SOC           float64 `json:"SOC"`
	TempC         float64 `json:"temp_C"`
	PowerW        float64 `json:"P_W"`
	CurrentA      float64 `json:"I_A"`
	EffCapacityAh float64 `json:"Q_eff_Ah"`
	Brightness    float64 `json:"brightness"`
	CPULoad       float64 `json:"cpu_load"`
	Network       bool    `json:"network"`
	GPS           bool    `json:"gps"`
	Background    bool    `json:"background"`
	AmbientC      float64 `json:"ambient_T"`
	ScreenW       float64 `json:"P_screen_W"`
	CPUW          float64 `json:"P_CPU_W"`
	NetworkW      float64 `json:"P_network_W"`
	GPSW          float64 `json:"P_GPS_W"`
	BackgroundW   float64 `json:"P_background_W"`
}

// Usage returns the usage inputs captured in the record.
func (r Record) Usage() Usage {
	return Usage{Brightness: r.Brightness, CPULoad: r.CPULoad, Network: r.Network, GPS: r.GPS, Background: r.Background}
}

// ComponentSum is the sum of the five component powers, excluding base draw.
func (r Record) ComponentSum() float64 {
	return r.ScreenW + r.CPUW + r.NetworkW + r.GPSW + r.BackgroundW
}

// Values renders the record in Columns order. Flags are written as 0 or 1.
func (r Record) Values() []string {
	return []string{
		ftoa(r.TimeS), ftoa(r.SOC), ftoa(r.TempC), ftoa(r.PowerW), ftoa(r.CurrentA), ftoa(r.EffCapacityAh),
		ftoa(r.Brightness), ftoa(r.CPULoad), btoa(r.Network), btoa(r.GPS), btoa(r.Background), ftoa(r.AmbientC),
		ftoa(r.ScreenW), ftoa(r.CPUW), ftoa(r.NetworkW), ftoa(r.GPSW), ftoa(r.BackgroundW),
	}
}

// Column returns the numeric value of the named column, or false when the
// name is not one of Columns.
func (r Record) Column(name string) (float64, bool) {
	switch name {
	case "time_s":
		return r.TimeS, true
	case "SOC":
		return r.SOC, true
	case "temp_C":
		return r.TempC, true
	case "P_W":
		return r.PowerW, true
	case "I_A":
		return r.CurrentA, true
	case "Q_eff_Ah":
		return r.EffCapacityAh, true
	case "brightness":
		return r.Brightness, true
	case "cpu_load":
		return r.CPULoad, true
	case "network":
		return b2f(r.Network), true
	case "gps":
		return b2f(r.GPS), true
	case "background":
		return b2f(r.Background), true
	case "ambient_T":
		return r.AmbientC, true
	case "P_screen_W":
		return r.ScreenW, true
	case "P_CPU_W":
		return r.CPUW, true
	case "P_network_W":
		return r.NetworkW, true
	case "P_GPS_W":
		return r.GPSW, true
	case "P_background_W":
		return r.BackgroundW, true
	}
	return 0, false
}

// Trajectory is the ordered output of one run.
type Trajectory struct {
	Step    float64  `json:"step_s"`
	Records []Record `json:"records"`
}

// Len returns the number of ticks.
func (t Trajectory) Len() int { return len(t.Records) }

// Last returns the final record.
func (t Trajectory) Last() (Record, bool) {
	if len(t.Records) == 0 {
		return Record{}, false
	}
	return t.Records[len(t.Records)-1], true
}

// Column extracts one column as a slice. Unknown names yield nil.
func (t Trajectory) Column(name string) []float64 {
	if _, ok := (Record{}).Column(name); !ok {
		return nil
	}
	out := make([]float64, len(t.Records))
	for i, r := range t.Records {
		out[i], _ = r.Column(name)
	}
	return out
}

// Window returns the records with from <= TimeS < to.
func (t Trajectory) Window(from, to float64) []Record {
	var out []Record
	for _, r := range t.Records {
		if r.TimeS >= from && r.TimeS < to {
			out = append(out, r)
		}
	}
	return out
}

func ftoa(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }

func btoa(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

func b2f(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
