// Package kafka publishes finished simulation runs to a Kafka topic.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/segmentio/kafka-go"

	"github.com/kilianp07/socsim/core/factory"
	coremetrics "github.com/kilianp07/socsim/core/metrics"
	"github.com/kilianp07/socsim/infra/logger"
)

const (
	kindHeader = "kind"
	kindSum    = "summary"
	kindRecord = "record"
)

// Config defines the brokers and topic of the Kafka sink.
type Config struct {
	Brokers []string `json:"brokers"`
	Topic   string   `json:"topic"`
	// RequiredAcks is -1 (all replicas), 0 (none) or 1 (leader). Unset
	// means 1.
	RequiredAcks *int `json:"required_acks"`
	// PublishTrajectory adds one message per record after the summary.
	PublishTrajectory bool `json:"publish_trajectory"`
}

// SetDefaults fills unset fields.
func (c *Config) SetDefaults() {
	if c.Topic == "" {
		c.Topic = "socsim.runs"
	}
	if c.RequiredAcks == nil {
		acks := int(kafka.RequireOne)
		c.RequiredAcks = &acks
	}
}

// Validate checks mandatory fields.
func (c Config) Validate() error {
	if len(c.Brokers) == 0 {
		return fmt.Errorf("kafka: at least one broker is required")
	}
	if c.RequiredAcks == nil {
		return nil
	}
	if acks := *c.RequiredAcks; acks < int(kafka.RequireAll) || acks > int(kafka.RequireOne) {
		return fmt.Errorf("kafka: required_acks must be -1, 0 or 1, got %d", acks)
	}
	return nil
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Publisher writes run summaries, and optionally records, keyed by run ID so
// all messages of a run land on the same partition in order.
type Publisher struct {
	w          messageWriter
	trajectory bool
	log        logger.Logger
}

// NewPublisher creates a synchronous writer for cfg.
func NewPublisher(cfg Config) (*Publisher, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	w := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequiredAcks(*cfg.RequiredAcks),
		Async:        false,
	}
	return &Publisher{w: w, trajectory: cfg.PublishTrajectory, log: logger.New("kafka_publisher")}, nil
}

// Messages builds the messages for one run: the summary first, then one
// message per record when trajectory is set.
func Messages(r coremetrics.RunReport, trajectory bool) ([]kafka.Message, error) {
	key := []byte(r.RunID)
	payload, err := json.Marshal(r.Payload())
	if err != nil {
		return nil, err
	}
	msgs := []kafka.Message{{
		Key:     key,
		Value:   payload,
		Time:    r.StartedAt,
		Headers: []kafka.Header{{Key: kindHeader, Value: []byte(kindSum)}},
	}}
	if !trajectory {
		return msgs, nil
	}
	for _, rec := range r.Trajectory.Records {
		v, err := json.Marshal(rec)
		if err != nil {
			return nil, err
		}
		msgs = append(msgs, kafka.Message{
			Key:     key,
			Value:   v,
			Time:    r.RecordTime(rec),
			Headers: []kafka.Header{{Key: kindHeader, Value: []byte(kindRecord)}},
		})
	}
	return msgs, nil
}

// RecordRun writes the run's messages in a single batch.
func (p *Publisher) RecordRun(ctx context.Context, r coremetrics.RunReport) error {
	msgs, err := Messages(r, p.trajectory)
	if err != nil {
		return err
	}
	if err := p.w.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("kafka write: %w", err)
	}
	p.log.Debugw("run published", map[string]any{"run_id": r.RunID, "messages": len(msgs)})
	return nil
}

// Close flushes and closes the writer.
func (p *Publisher) Close() error { return p.w.Close() }

func init() {
	_ = coremetrics.RegisterRunSink("kafka", func(conf map[string]any) (coremetrics.RunSink, error) {
		var c Config
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		return NewPublisher(c)
	})
}
