// Package monitoring is the process-wide error reporting hook. Failures that
// are logged and swallowed, such as a sink that cannot reach its broker, are
// also captured here so they surface outside the logs.
package monitoring

import (
	"sync"
	"time"
)

// Monitor reports errors and panics to an external service.
type Monitor interface {
	CaptureException(err error, tags map[string]string)
	// Recover must be deferred directly: it captures a panic, flushes and
	// panics again.
	Recover()
	Flush(timeout time.Duration)
}

// NopMonitor drops everything.
type NopMonitor struct{}

func (NopMonitor) CaptureException(error, map[string]string) {}
func (NopMonitor) Recover()                                  {}
func (NopMonitor) Flush(time.Duration)                       {}

var mu sync.RWMutex

var current Monitor = NopMonitor{}

// Init sets the global monitor. A nil monitor is ignored.
func Init(m Monitor) {
	if m == nil {
		return
	}
	mu.Lock()
	current = m
	mu.Unlock()
}

// Current returns the global monitor. Use `defer monitoring.Current().Recover()`
// to report panics of the calling goroutine.
func Current() Monitor {
	mu.RLock()
	defer mu.RUnlock()
	return current
}

// CaptureException records err with optional tags. A nil err is ignored.
func CaptureException(err error, tags map[string]string) {
	if err == nil {
		return
	}
	Current().CaptureException(err, tags)
}

// Flush waits up to d for buffered events to be sent.
func Flush(d time.Duration) { Current().Flush(d) }
