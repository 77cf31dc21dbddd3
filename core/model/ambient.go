package model

// AmbientSchedule yields the ambient temperature for an elapsed time. A false
// second return tells the engine to keep the temperature it already holds.
type AmbientSchedule interface {
	AmbientAt(t float64) (float64, bool)
}

// ConstantAmbient holds one temperature for the whole run.
type ConstantAmbient float64

// AmbientAt always returns the constant.
func (c ConstantAmbient) AmbientAt(float64) (float64, bool) { return float64(c), true }

// AmbientSegment sets the ambient temperature over [Start, End).
type AmbientSegment struct {
	Start float64 `json:"start" yaml:"start"`
	End   float64 `json:"end" yaml:"end"`
	TempC float64 `json:"ambient_t" yaml:"ambient_t"`
}

// AmbientSegments is a first-match list of ambient intervals.
type AmbientSegments []AmbientSegment

// AmbientAt returns the temperature of the first segment containing t.
func (s AmbientSegments) AmbientAt(t float64) (float64, bool) {
	for _, seg := range s {
		if seg.Start <= t && t < seg.End {
			return seg.TempC, true
		}
	}
	return 0, false
}
