package logger

// Fields attaches structured context to a log entry.
type Fields map[string]any

// Logger is the logging facade used across the bot. The With* methods
// return a derived logger, the receiver is never mutated.
type Logger interface {
	Debug(args ...any)
	Info(args ...any)
	Warn(args ...any)
	Error(args ...any)
	Fatal(args ...any)

	WithFields(fields Fields) Logger
	WithField(key string, value any) Logger
	WithError(err error) Logger
}
