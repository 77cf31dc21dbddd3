// Package monitoring reports captured errors and panics to Sentry.
package monitoring

import (
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/kilianp07/socsim/config"
	coremon "github.com/kilianp07/socsim/core/monitoring"
)

// NewSentryMonitor initialises the Sentry client from cfg. Without a DSN it
// returns a NopMonitor and Sentry stays uninitialised.
func NewSentryMonitor(cfg config.MonitoringConfig) (coremon.Monitor, error) {
	if cfg.SentryDSN == "" {
		return coremon.NopMonitor{}, nil
	}
	err := sentry.Init(sentry.ClientOptions{
		Dsn:              cfg.SentryDSN,
		Environment:      cfg.Environment,
		Release:          cfg.Release,
		TracesSampleRate: cfg.TracesSampleRate,
	})
	if err != nil {
		return nil, err
	}
	return sentryMonitor{}, nil
}

type sentryMonitor struct{}

func (sentryMonitor) CaptureException(err error, tags map[string]string) {
	if err == nil {
		return
	}
	sentry.WithScope(func(scope *sentry.Scope) {
		scope.SetTags(tags)
		sentry.CaptureException(err)
	})
}

func (sentryMonitor) Recover() {
	if r := recover(); r != nil {
		sentry.CurrentHub().Recover(r)
		sentry.Flush(2 * time.Second)
		panic(r)
	}
}

func (sentryMonitor) Flush(timeout time.Duration) { sentry.Flush(timeout) }
