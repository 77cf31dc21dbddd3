package logger

import (
	"io"
	"os"
	"strings"
	"sync"

	"gopkg.in/natefinch/lumberjack.v2"

	corelogger "github.com/kilianp07/socsim/core/logger"
)

// Logger mirrors the core logger interface.
type Logger = corelogger.Logger

// NopLogger implements Logger with no-op methods.
type NopLogger struct{}

func (NopLogger) Debugf(string, ...any)         {}
func (NopLogger) Debugw(string, map[string]any) {}
func (NopLogger) Infof(string, ...any)          {}
func (NopLogger) Warnf(string, ...any)          {}
func (NopLogger) Errorf(string, ...any)         {}
func (n NopLogger) With(map[string]any) Logger  { return n }

// Options selects the backend, level and destination of every logger
// created by New.
type Options struct {
	Backend string // "zerolog" or "logrus"
	Level   string // debug, info, warn, error
	// Console forces human readable output. APP_ENV=dev has the same effect.
	Console bool
	// File, when set, receives the logs instead of stderr and is rotated.
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

var mu sync.RWMutex

var (
	current = Options{Backend: "zerolog", Level: "info"}
	out     = io.Writer(os.Stderr)
)

// Configure replaces the options used by subsequent calls to New. It
// returns a function that closes the rotated log file, if any.
func Configure(o Options) (closeFn func() error) {
	mu.Lock()
	defer mu.Unlock()
	current = o
	if o.File == "" {
		out = os.Stderr
		return func() error { return nil }
	}
	lj := &lumberjack.Logger{
		Filename:   o.File,
		MaxSize:    o.MaxSizeMB,
		MaxBackups: o.MaxBackups,
		MaxAge:     o.MaxAgeDays,
	}
	out = lj
	return lj.Close
}

// SetOutput redirects subsequent loggers to w. It is meant for tests.
func SetOutput(w io.Writer) {
	mu.Lock()
	out = w
	mu.Unlock()
}

// New returns a Logger for the given component using the configured
// backend.
func New(component string) Logger {
	mu.RLock()
	o, w := current, out
	mu.RUnlock()
	console := o.Console || strings.ToLower(os.Getenv("APP_ENV")) == "dev"
	if strings.EqualFold(o.Backend, "logrus") {
		return NewLogrusLogger(component, w, o.Level, console)
	}
	return NewZerologLogger(component, w, o.Level, console)
}
