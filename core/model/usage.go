package model

import (
	"fmt"
	"math"
	"sort"
)

// Usage describes how hard each phone component is driven during a tick.
// The zero value is an idle phone with screen off and every radio disabled.
type Usage struct {
	Brightness float64 `json:"brightness" yaml:"brightness"` // 0..1
	CPULoad    float64 `json:"cpu_load" yaml:"cpu_load"`     // 0..1
	Network    bool    `json:"network" yaml:"network"`
	GPS        bool    `json:"gps" yaml:"gps"`
	Background bool    `json:"background" yaml:"background"`
}

// Segment applies a Usage over the half-open interval [Start, End) in seconds.
type Segment struct {
	Start float64 `json:"start" yaml:"start"`
	End   float64 `json:"end" yaml:"end"`
	Usage Usage   `json:"usage" yaml:"usage"`
}

// Contains reports whether t falls inside the segment.
func (s Segment) Contains(t float64) bool {
	return s.Start <= t && t < s.End
}

// UsageSchedule is an ordered list of segments. Lookups return the first
// segment containing t, so an earlier segment shadows any later one it
// overlaps.
type UsageSchedule []Segment

// At returns the usage active at t. When no segment matches it returns the
// zero Usage and false.
func (s UsageSchedule) At(t float64) (Usage, bool) {
	for _, seg := range s {
		if seg.Contains(t) {
			return seg.Usage, true
		}
	}
	return Usage{}, false
}

// IssueKind classifies a schedule problem found by Lint.
type IssueKind string

const (
	IssueGap        IssueKind = "gap"
	IssueOverlap    IssueKind = "overlap"
	IssueEmpty      IssueKind = "empty"
	IssueOutOfRange IssueKind = "out_of_range"
)

// Issue is a non-fatal schedule finding.
type Issue struct {
	Kind    IssueKind
	Segment int // index in the schedule
	Detail  string
}

func (i Issue) String() string {
	return fmt.Sprintf("segment %d: %s: %s", i.Segment, i.Kind, i.Detail)
}

// Lint inspects the schedule against the horizon [0, duration) and reports
// gaps, overlaps, empty intervals and usage values outside [0,1]. None of
// these stop a simulation: gaps run at zero usage and overlaps resolve to the
// first segment.
func (s UsageSchedule) Lint(duration float64) []Issue {
	var issues []Issue
	for i, seg := range s {
		if !(seg.End > seg.Start) {
			issues = append(issues, Issue{IssueEmpty, i, fmt.Sprintf("[%g, %g) is empty", seg.Start, seg.End)})
		}
		if !inUnit(seg.Usage.Brightness) {
			issues = append(issues, Issue{IssueOutOfRange, i, fmt.Sprintf("brightness %g outside [0,1]", seg.Usage.Brightness)})
		}
		if !inUnit(seg.Usage.CPULoad) {
			issues = append(issues, Issue{IssueOutOfRange, i, fmt.Sprintf("cpu_load %g outside [0,1]", seg.Usage.CPULoad)})
		}
		for j := 0; j < i; j++ {
			prev := s[j]
			if seg.Start < prev.End && prev.Start < seg.End {
				issues = append(issues, Issue{IssueOverlap, i, fmt.Sprintf("overlaps earlier segment %d, which takes precedence", j)})
			}
		}
	}

	idx := make([]int, 0, len(s))
	for i, seg := range s {
		if seg.End > seg.Start {
			idx = append(idx, i)
		}
	}
	sort.SliceStable(idx, func(a, b int) bool { return s[idx[a]].Start < s[idx[b]].Start })
	covered := 0.0
	for _, i := range idx {
		seg := s[i]
		if seg.Start > covered && covered < duration {
			issues = append(issues, Issue{IssueGap, i, fmt.Sprintf("no usage in [%g, %g)", covered, math.Min(seg.Start, duration))})
		}
		covered = math.Max(covered, seg.End)
	}
	if covered < duration {
		issues = append(issues, Issue{IssueGap, len(s), fmt.Sprintf("no usage in [%g, %g)", covered, duration)})
	}
	return issues
}

func inUnit(v float64) bool { return v >= 0 && v <= 1 }
