package logger

import (
	"io"

	"github.com/sirupsen/logrus"
)

// LogrusLogger implements Logger on top of sirupsen/logrus.
type LogrusLogger struct {
	entry *logrus.Entry
}

// NewLogrusLogger writes JSON entries to w, or text entries when console is
// set.
func NewLogrusLogger(component string, w io.Writer, level string, console bool) Logger {
	l := logrus.New()
	l.SetOutput(w)
	if console {
		l.SetFormatter(&logrus.TextFormatter{DisableColors: true, FullTimestamp: true})
	} else {
		l.SetFormatter(&logrus.JSONFormatter{})
	}
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	l.SetLevel(lvl)
	return &LogrusLogger{entry: l.WithField("component", component)}
}

func (l *LogrusLogger) Debugf(format string, args ...any) { l.entry.Debugf(format, args...) }

func (l *LogrusLogger) Debugw(msg string, fields map[string]any) {
	l.entry.WithFields(logrus.Fields(fields)).Debug(msg)
}

func (l *LogrusLogger) Infof(format string, args ...any)  { l.entry.Infof(format, args...) }
func (l *LogrusLogger) Warnf(format string, args ...any)  { l.entry.Warnf(format, args...) }
func (l *LogrusLogger) Errorf(format string, args ...any) { l.entry.Errorf(format, args...) }

func (l *LogrusLogger) With(fields map[string]any) Logger {
	return &LogrusLogger{entry: l.entry.WithFields(logrus.Fields(fields))}
}
