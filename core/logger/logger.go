package logger

// Logger exposes leveled, component-scoped logging.
type Logger interface {
	Debugf(format string, args ...any)
	// Debugw logs a message with structured fields.
	Debugw(msg string, fields map[string]any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
	// With returns a child logger that adds fields to every entry.
	With(fields map[string]any) Logger
}
