package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/socsim/core/factory"
	coremetrics "github.com/kilianp07/socsim/core/metrics"
	"github.com/kilianp07/socsim/core/model"
	"github.com/kilianp07/socsim/core/simulation"
	"github.com/kilianp07/socsim/infra/logger"
)

type mockWriter struct{ mock.Mock }

func (m *mockWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	return m.Called(ctx, msgs).Error(0)
}

func (m *mockWriter) Close() error { return m.Called().Error(0) }

func report(t *testing.T) coremetrics.RunReport {
	t.Helper()
	p := model.DefaultParams()
	tr, err := simulation.Run(p, simulation.RunSpec{Duration: 120, Step: 60, InitialSOC: 1})
	require.NoError(t, err)
	return coremetrics.RunReport{RunID: "k1", StartedAt: time.Unix(100, 0), Params: p, Trajectory: tr, Summary: simulation.Summarize(tr, p)}
}

func TestMessages(t *testing.T) {
	r := report(t)
	msgs, err := Messages(r, true)
	require.NoError(t, err)
	require.Len(t, msgs, 1+r.Trajectory.Len())

	assert.Equal(t, []byte("k1"), msgs[0].Key)
	assert.Equal(t, kindSum, string(msgs[0].Headers[0].Value))
	var sum coremetrics.SummaryPayload
	require.NoError(t, json.Unmarshal(msgs[0].Value, &sum))
	assert.Equal(t, 3, sum.Summary.Ticks)

	last := msgs[len(msgs)-1]
	assert.Equal(t, kindRecord, string(last.Headers[0].Value))
	assert.Equal(t, time.Unix(220, 0), last.Time)
	var rec model.Record
	require.NoError(t, json.Unmarshal(last.Value, &rec))
	assert.Equal(t, 120.0, rec.TimeS)

	msgs, err = Messages(r, false)
	require.NoError(t, err)
	assert.Len(t, msgs, 1)
}

func TestRecordRun(t *testing.T) {
	w := &mockWriter{}
	w.On("WriteMessages", mock.Anything, mock.MatchedBy(func(msgs []kafka.Message) bool {
		return len(msgs) == 1 && string(msgs[0].Key) == "k1"
	})).Return(nil).Once()
	w.On("WriteMessages", mock.Anything, mock.Anything).Return(errors.New("leader not available")).Once()
	w.On("Close").Return(nil)

	p := &Publisher{w: w, log: logger.NopLogger{}}
	require.NoError(t, p.RecordRun(context.Background(), report(t)))

	err := p.RecordRun(context.Background(), report(t))
	assert.ErrorContains(t, err, "leader not available")

	require.NoError(t, p.Close())
	w.AssertExpectations(t)
}

func TestConfig(t *testing.T) {
	var c Config
	c.SetDefaults()
	assert.Equal(t, "socsim.runs", c.Topic)
	require.NotNil(t, c.RequiredAcks)
	assert.Equal(t, 1, *c.RequiredAcks)
	assert.Error(t, c.Validate())

	c.Brokers = []string{"localhost:9092"}
	assert.NoError(t, c.Validate())
	bad := 3
	c.RequiredAcks = &bad
	assert.Error(t, c.Validate())
}

func TestRequiredAcksNoneIsKept(t *testing.T) {
	s, err := coremetrics.NewRunSink([]factory.ModuleConfig{{
		Type: "kafka",
		Conf: map[string]any{"brokers": []any{"localhost:9092"}, "required_acks": 0},
	}})
	require.NoError(t, err)
	p := s.(*Publisher)
	assert.Equal(t, kafka.RequireNone, p.w.(*kafka.Writer).RequiredAcks)
	require.NoError(t, p.Close())

	var c Config
	none := 0
	c.RequiredAcks = &none
	c.SetDefaults()
	assert.Equal(t, 0, *c.RequiredAcks)
}

func TestFactory(t *testing.T) {
	s, err := coremetrics.NewRunSink([]factory.ModuleConfig{{
		Type: "kafka",
		Conf: map[string]any{"brokers": []any{"localhost:9092"}, "topic": "runs", "publish_trajectory": true},
	}})
	require.NoError(t, err)
	p, ok := s.(*Publisher)
	require.True(t, ok)
	assert.True(t, p.trajectory)
	w := p.w.(*kafka.Writer)
	assert.Equal(t, "runs", w.Topic)
	require.NoError(t, p.Close())

	_, err = coremetrics.NewRunSink([]factory.ModuleConfig{{Type: "kafka"}})
	assert.Error(t, err)
}
