package metrics

import (
	"context"
	"errors"
	"io"
)

// MultiSink fans a report out to several sinks.
type MultiSink struct {
	Sinks []RunSink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...RunSink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordRun forwards the report to every sink. A failing sink does not stop
// the others; all errors are joined.
func (m *MultiSink) RecordRun(ctx context.Context, r RunReport) error {
	var errs []error
	for _, s := range m.Sinks {
		if err := s.RecordRun(ctx, r); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close closes every sink that holds resources.
func (m *MultiSink) Close() error {
	var errs []error
	for _, s := range m.Sinks {
		if c, ok := s.(io.Closer); ok {
			if err := c.Close(); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

// Close releases s when it holds resources.
func Close(s RunSink) error {
	if c, ok := s.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
