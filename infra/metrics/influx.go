package metrics

import (
	"context"
	"net/http"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/kilianp07/socsim/core/metrics"
	"github.com/kilianp07/socsim/core/model"
	"github.com/kilianp07/socsim/infra/logger"
)

const (
	trajectoryMeasurement = "battery_trajectory"
	summaryMeasurement    = "battery_run_summary"
	// influxBatch bounds the number of points per write request.
	influxBatch = 500
)

// InfluxSink writes every tick of a run, plus its summary, to InfluxDB.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	timeout  time.Duration
	log      logger.Logger
}

// NewInfluxSink creates a sink for the given InfluxDB endpoint.
func NewInfluxSink(url, token, org, bucket string) *InfluxSink {
	base := strings.TrimSuffix(url, "/api/v2/write")
	client := influxdb2.NewClientWithOptions(base, token,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: 5 * time.Second}))
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(org, bucket),
		timeout:  30 * time.Second,
		log:      logger.New("influx-sink"),
	}
}

// NewInfluxSinkWithFallback pings InfluxDB and returns a NopSink when the
// health check fails, so an unreachable database never blocks a run.
func NewInfluxSinkWithFallback(url, token, org, bucket string) coremetrics.RunSink {
	sink := NewInfluxSink(url, token, org, bucket)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	health, err := sink.client.Health(ctx)
	if err != nil || health.Status != "pass" {
		if err != nil {
			sink.log.Errorf("influx health check error: %v", err)
		} else {
			sink.log.Errorf("influx health status: %s", health.Status)
		}
		sink.client.Close()
		return coremetrics.NopSink{}
	}
	return sink
}

// RecordRun writes the trajectory in batches followed by the summary point.
func (s *InfluxSink) RecordRun(ctx context.Context, r coremetrics.RunReport) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	batch := make([]*write.Point, 0, influxBatch)
	for _, rec := range r.Trajectory.Records {
		batch = append(batch, trajectoryPoint(r, rec))
		if len(batch) == influxBatch {
			if err := s.writeAPI.WritePoint(ctx, batch...); err != nil {
				return err
			}
			batch = batch[:0]
		}
	}
	if len(batch) > 0 {
		if err := s.writeAPI.WritePoint(ctx, batch...); err != nil {
			return err
		}
	}
	if err := s.writeAPI.WritePoint(ctx, summaryPoint(r)); err != nil {
		return err
	}
	s.log.Debugw("run written", map[string]any{"run_id": r.RunID, "points": r.Trajectory.Len() + 1})
	return nil
}

// Close releases the HTTP client.
func (s *InfluxSink) Close() error {
	s.client.Close()
	return nil
}

func trajectoryPoint(r coremetrics.RunReport, rec model.Record) *write.Point {
	p := write.NewPointWithMeasurement(trajectoryMeasurement).
		AddTag("run_id", r.RunID)
	if r.Scenario != "" {
		p = p.AddTag("scenario", r.Scenario)
	}
	for _, col := range model.Columns {
		if col == "time_s" {
			continue
		}
		v, _ := rec.Column(col)
		p = p.AddField(col, v)
	}
	return p.AddField("time_s", rec.TimeS).SetTime(r.RecordTime(rec))
}

func summaryPoint(r coremetrics.RunReport) *write.Point {
	s := r.Summary
	p := write.NewPointWithMeasurement(summaryMeasurement).
		AddTag("run_id", r.RunID)
	if r.Scenario != "" {
		p = p.AddTag("scenario", r.Scenario)
	}
	p = p.AddField("ticks", s.Ticks).
		AddField("final_soc", s.FinalSOC).
		AddField("final_temp_c", s.FinalTempC).
		AddField("avg_power_w", s.AvgPowerW).
		AddField("energy_wh", s.EnergyWh)
	if s.TimeToEmptyOK {
		p = p.AddField("time_to_empty_s", s.TimeToEmptyS)
	}
	return p.SetTime(r.StartedAt)
}
