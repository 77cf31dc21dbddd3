package metrics

import (
	"context"
	"errors"
	"testing"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/kilianp07/socsim/core/factory"
	"github.com/kilianp07/socsim/core/model"
)

type recordSink struct {
	count  int
	err    error
	closed bool
}

func (r *recordSink) RecordRun(context.Context, RunReport) error {
	r.count++
	return r.err
}

func (r *recordSink) Close() error {
	r.closed = true
	return nil
}

func TestMultiSinkForwardsToAll(t *testing.T) {
	boom := errors.New("boom")
	s1 := &recordSink{err: boom}
	s2 := &recordSink{}
	m := NewMultiSink(s1, s2, NopSink{})
	err := m.RecordRun(context.Background(), RunReport{RunID: "r1"})
	if !errors.Is(err, boom) {
		t.Fatalf("expected joined error, got %v", err)
	}
	if s1.count != 1 || s2.count != 1 {
		t.Fatalf("report not forwarded: %d %d", s1.count, s2.count)
	}
	if err := m.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if !s1.closed || !s2.closed {
		t.Fatal("closers not called")
	}
}

func TestNewRunSinkFromYAML(t *testing.T) {
	data := `sinks:
  - type: nop
  - type: nop
`
	var cfg Config
	if err := yaml.Unmarshal([]byte(data), &cfg); err != nil {
		t.Fatalf("yaml unmarshal: %v", err)
	}
	s, err := NewRunSink(cfg.Sinks)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, ok := s.(*MultiSink); !ok {
		t.Fatalf("expected MultiSink, got %T", s)
	}

	s, err = NewRunSink(nil)
	if err != nil {
		t.Fatalf("create empty: %v", err)
	}
	if _, ok := s.(NopSink); !ok {
		t.Fatalf("expected NopSink, got %T", s)
	}
	if _, err := NewRunSink(cfg.Sinks[:1]); err != nil {
		t.Fatalf("single sink: %v", err)
	}
}

func TestNewRunSinkUnknownType(t *testing.T) {
	if _, err := NewRunSink([]factory.ModuleConfig{{Type: "nop"}, {Type: "missing"}}); err == nil {
		t.Fatal("expected error for unknown type")
	}
}

func TestRunReportRecordTime(t *testing.T) {
	start := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	r := RunReport{StartedAt: start}
	got := r.RecordTime(model.Record{TimeS: 90})
	if !got.Equal(start.Add(90 * time.Second)) {
		t.Fatalf("unexpected record time %v", got)
	}
}
