package model

import "testing"

func TestUsageScheduleFirstMatchWins(t *testing.T) {
	sched := UsageSchedule{
		{Start: 0, End: 100, Usage: Usage{Brightness: 0.9}},
		{Start: 50, End: 200, Usage: Usage{Brightness: 0.1}},
	}
	u, ok := sched.At(75)
	if !ok || u.Brightness != 0.9 {
		t.Fatalf("expected first segment at overlap, got %+v ok=%v", u, ok)
	}
	u, ok = sched.At(150)
	if !ok || u.Brightness != 0.1 {
		t.Fatalf("expected second segment, got %+v ok=%v", u, ok)
	}
}

func TestUsageScheduleHalfOpen(t *testing.T) {
	sched := UsageSchedule{{Start: 0, End: 60, Usage: Usage{CPULoad: 1}}}
	if _, ok := sched.At(60); ok {
		t.Fatal("end bound must be exclusive")
	}
	if _, ok := sched.At(0); !ok {
		t.Fatal("start bound must be inclusive")
	}
}

func TestUsageScheduleGapIsZeroUsage(t *testing.T) {
	sched := UsageSchedule{{Start: 100, End: 200, Usage: Usage{Network: true}}}
	u, ok := sched.At(10)
	if ok || u != (Usage{}) {
		t.Fatalf("expected zero usage on gap, got %+v ok=%v", u, ok)
	}
	var empty UsageSchedule
	if u, ok := empty.At(0); ok || u != (Usage{}) {
		t.Fatalf("nil schedule should yield zero usage")
	}
}

func TestUsageScheduleLint(t *testing.T) {
	sched := UsageSchedule{
		{Start: 0, End: 100, Usage: Usage{Brightness: 1.5}},
		{Start: 50, End: 150},
		{Start: 200, End: 200},
		{Start: 300, End: 400, Usage: Usage{CPULoad: -0.2}},
	}
	issues := sched.Lint(500)
	kinds := map[IssueKind]int{}
	for _, is := range issues {
		kinds[is.Kind]++
	}
	if kinds[IssueOverlap] != 1 {
		t.Errorf("expected 1 overlap, got %d (%v)", kinds[IssueOverlap], issues)
	}
	if kinds[IssueOutOfRange] != 2 {
		t.Errorf("expected 2 out of range, got %d (%v)", kinds[IssueOutOfRange], issues)
	}
	if kinds[IssueEmpty] != 1 {
		t.Errorf("expected 1 empty, got %d (%v)", kinds[IssueEmpty], issues)
	}
	// [150,300) and [400,500)
	if kinds[IssueGap] != 2 {
		t.Errorf("expected 2 gaps, got %d (%v)", kinds[IssueGap], issues)
	}
}

func TestUsageScheduleLintClean(t *testing.T) {
	sched := UsageSchedule{{Start: 0, End: 3600}, {Start: 3600, End: 7200}}
	if issues := sched.Lint(7200); len(issues) != 0 {
		t.Fatalf("expected no issues, got %v", issues)
	}
}

func TestAmbientSegments(t *testing.T) {
	amb := AmbientSegments{{Start: 0, End: 10, TempC: 30}, {Start: 5, End: 20, TempC: 10}}
	if v, ok := amb.AmbientAt(7); !ok || v != 30 {
		t.Fatalf("expected 30, got %v %v", v, ok)
	}
	if v, ok := amb.AmbientAt(15); !ok || v != 10 {
		t.Fatalf("expected 10, got %v %v", v, ok)
	}
	if _, ok := amb.AmbientAt(25); ok {
		t.Fatal("expected miss past last segment")
	}
	if v, ok := ConstantAmbient(12.5).AmbientAt(1e9); !ok || v != 12.5 {
		t.Fatalf("constant ambient mismatch: %v", v)
	}
}

func TestRecordValuesOrder(t *testing.T) {
	r := Record{TimeS: 60, SOC: 0.5, Network: true, BackgroundW: 0.05}
	vals := r.Values()
	if len(vals) != len(Columns) {
		t.Fatalf("values %d columns %d", len(vals), len(Columns))
	}
	for i, name := range Columns {
		want, ok := r.Column(name)
		if !ok {
			t.Fatalf("column %s unknown", name)
		}
		if vals[i] != ftoa(want) {
			t.Errorf("column %s: rendered %s want %v", name, vals[i], want)
		}
	}
	if vals[8] != "1" || vals[9] != "0" {
		t.Errorf("flags should render as 0/1, got %s %s", vals[8], vals[9])
	}
}

func TestTrajectoryHelpers(t *testing.T) {
	tr := Trajectory{Step: 60, Records: []Record{{TimeS: 0, SOC: 1}, {TimeS: 60, SOC: 0.9}, {TimeS: 120, SOC: 0.8}}}
	last, ok := tr.Last()
	if !ok || last.SOC != 0.8 {
		t.Fatalf("last mismatch: %+v", last)
	}
	if got := tr.Column("SOC"); len(got) != 3 || got[1] != 0.9 {
		t.Fatalf("column mismatch: %v", got)
	}
	if tr.Column("nope") != nil {
		t.Fatal("unknown column should be nil")
	}
	if w := tr.Window(60, 120); len(w) != 1 || w[0].TimeS != 60 {
		t.Fatalf("window mismatch: %v", w)
	}
	if _, ok := (Trajectory{}).Last(); ok {
		t.Fatal("empty trajectory has no last record")
	}
}
