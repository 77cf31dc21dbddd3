package metrics

import (
	"context"
	"time"

	"github.com/kilianp07/socsim/core/model"
	"github.com/kilianp07/socsim/core/simulation"
)

// RunReport is everything a sink may want to know about one finished run.
type RunReport struct {
	RunID      string
	Scenario   string
	StartedAt  time.Time
	Params     model.Params
	Trajectory model.Trajectory
	Summary    simulation.Summary
}

// RecordTime maps a record onto wall-clock time relative to the run start.
func (r RunReport) RecordTime(rec model.Record) time.Time {
	return r.StartedAt.Add(time.Duration(rec.TimeS * float64(time.Second)))
}

// SummaryPayload is the message form of a run published by the MQTT and
// Kafka sinks.
type SummaryPayload struct {
	RunID     string             `json:"run_id"`
	Scenario  string             `json:"scenario,omitempty"`
	StartedAt time.Time          `json:"started_at"`
	Params    model.Params       `json:"params"`
	Summary   simulation.Summary `json:"summary"`
}

// Payload returns the summary message of the run.
func (r RunReport) Payload() SummaryPayload {
	return SummaryPayload{
		RunID:     r.RunID,
		Scenario:  r.Scenario,
		StartedAt: r.StartedAt,
		Params:    r.Params,
		Summary:   r.Summary,
	}
}

// RunSink records finished simulation runs.
type RunSink interface {
	RecordRun(ctx context.Context, r RunReport) error
}

// NopSink discards every report.
type NopSink struct{}

func (NopSink) RecordRun(context.Context, RunReport) error { return nil }
