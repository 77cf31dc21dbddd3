package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	coremetrics "github.com/kilianp07/socsim/core/metrics"
	"github.com/kilianp07/socsim/infra/logger"
)

// Publisher sends finished runs to an MQTT broker.
type Publisher struct {
	cli        pahoClient
	prefix     string
	qos        byte
	retain     bool
	trajectory bool
	maxRetries int
	backoff    time.Duration
	logger     logger.Logger
}

// NewPublisher connects to the broker described by cfg.
func NewPublisher(cfg Config) (*Publisher, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	opts, err := NewClientOptions(cfg)
	if err != nil {
		return nil, err
	}
	log := logger.New("mqtt_publisher")
	opts.OnConnect = func(paho.Client) {
		log.Infof("MQTT connected to %s", cfg.Broker)
	}
	opts.OnConnectionLost = func(_ paho.Client, err error) {
		log.Errorf("connection lost: %v", err)
	}
	opts.OnReconnecting = func(paho.Client, *paho.ClientOptions) {
		log.Warnf("reconnecting to MQTT broker")
	}
	c := newMQTTClient(opts)
	if token := c.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("mqtt connect: %w", token.Error())
	}
	return &Publisher{
		cli:        c,
		prefix:     cfg.TopicPrefix,
		qos:        cfg.QoS,
		retain:     cfg.Retain,
		trajectory: cfg.PublishTrajectory,
		maxRetries: cfg.MaxRetries,
		backoff:    time.Duration(cfg.BackoffMS) * time.Millisecond,
		logger:     log,
	}, nil
}

// SummaryTopic returns the topic a run's summary is published on.
func (p *Publisher) SummaryTopic(runID string) string {
	return fmt.Sprintf("%s/%s/summary", p.prefix, runID)
}

// TrajectoryTopic returns the topic a run's records are published on.
func (p *Publisher) TrajectoryTopic(runID string) string {
	return fmt.Sprintf("%s/%s/trajectory", p.prefix, runID)
}

// RecordRun publishes the summary on <prefix>/<run_id>/summary and, when enabled, the full trajectory.
func (p *Publisher) RecordRun(ctx context.Context, r coremetrics.RunReport) error {
	payload, err := json.Marshal(r.Payload())
	if err != nil {
		return err
	}
	if err := p.publish(ctx, p.SummaryTopic(r.RunID), payload); err != nil {
		return err
	}
	if !p.trajectory {
		return nil
	}
	payload, err = json.Marshal(r.Trajectory)
	if err != nil {
		return err
	}
	return p.publish(ctx, p.TrajectoryTopic(r.RunID), payload)
}

// publish retries with exponential backoff until the broker accepts the
// message, the retries run out or ctx is done.
func (p *Publisher) publish(ctx context.Context, topic string, payload []byte) error {
	var publishErr error
	for attempt := 0; attempt <= p.maxRetries; attempt++ {
		token := p.cli.Publish(topic, p.qos, p.retain, payload)
		token.Wait()
		publishErr = token.Error()
		if publishErr == nil {
			p.logger.Debugw("published", map[string]any{"topic": topic, "bytes": len(payload)})
			return nil
		}
		p.logger.Errorf("publish attempt %d on %s failed: %v", attempt+1, topic, publishErr)
		if attempt == p.maxRetries {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(p.backoff * time.Duration(1<<attempt)):
		}
	}
	return fmt.Errorf("publish %s: %w", topic, publishErr)
}

// Close gracefully disconnects from the broker.
func (p *Publisher) Close() error {
	if p.cli != nil && p.cli.IsConnected() {
		p.cli.Disconnect(250)
	}
	return nil
}
