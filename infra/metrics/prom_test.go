package metrics

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/kilianp07/socsim/core/factory"
	coremetrics "github.com/kilianp07/socsim/core/metrics"
)

func TestPromSink_RecordRun(t *testing.T) {
	reg := prometheus.NewRegistry()
	sink, err := NewPromSinkWithRegistry(reg)
	if err != nil {
		t.Fatalf("new sink: %v", err)
	}
	r := testReport(t)
	if err := sink.RecordRun(context.Background(), r); err != nil {
		t.Fatalf("record: %v", err)
	}
	if got := testutil.ToFloat64(sink.runs.WithLabelValues("demo")); got != 1 {
		t.Errorf("runs = %v", got)
	}
	if got := testutil.ToFloat64(sink.finalSOC.WithLabelValues("demo")); got != r.Summary.FinalSOC {
		t.Errorf("final soc = %v, want %v", got, r.Summary.FinalSOC)
	}
	if got := testutil.ToFloat64(sink.finalTemp.WithLabelValues("demo")); got != r.Summary.FinalTempC {
		t.Errorf("final temp = %v", got)
	}
	if n := testutil.CollectAndCount(sink.stepPower, "socsim_step_power_watts"); n != 1 {
		t.Errorf("expected one histogram series, got %d", n)
	}
}

func TestPromSink_DefaultScenarioLabel(t *testing.T) {
	reg := prometheus.NewRegistry()
	sink, err := NewPromSinkWithRegistry(reg)
	if err != nil {
		t.Fatalf("new sink: %v", err)
	}
	r := testReport(t)
	r.Scenario = ""
	_ = sink.RecordRun(context.Background(), r)
	_ = sink.RecordRun(context.Background(), r)
	if got := testutil.ToFloat64(sink.runs.WithLabelValues("default")); got != 2 {
		t.Errorf("runs = %v", got)
	}
}

func TestPromSink_ReusesRegisteredCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	a, err := NewPromSinkWithRegistry(reg)
	if err != nil {
		t.Fatalf("first: %v", err)
	}
	b, err := NewPromSinkWithRegistry(reg)
	if err != nil {
		t.Fatalf("second: %v", err)
	}
	_ = a.RecordRun(context.Background(), testReport(t))
	if got := testutil.ToFloat64(b.runs.WithLabelValues("demo")); got != 1 {
		t.Errorf("collectors not shared, runs = %v", got)
	}
}

func TestSinkFactoriesRegistered(t *testing.T) {
	names := coremetrics.RegisteredSinks()
	for _, want := range []string{"nop", "prometheus", "influx"} {
		found := false
		for _, n := range names {
			if n == want {
				found = true
			}
		}
		if !found {
			t.Errorf("sink %q not registered: %v", want, names)
		}
	}
	if _, err := coremetrics.NewRunSink([]factory.ModuleConfig{{Type: "influx", Conf: map[string]any{"url": "http://x"}}}); err == nil {
		t.Errorf("expected missing bucket error")
	}
}
