// Package logging wraps zap for the bridge CLIs.
//
// The one invariant everything here serves: stdout belongs to the calling
// application (status tokens, JSON results), so every diagnostic goes to
// stderr and, optionally, a rotating log file. Credentials that pass through
// the bridge are redacted before they reach any sink.
package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger wraps zap.Logger with automatic sensitive data redaction.
//
// Example:
//
//	logger, err := NewLogger(false, "bridge.log")
//	if err != nil {
//	    os.Exit(1)
//	}
//	defer logger.Sync()
//
//	logger.Info("download starting", zap.String("model", "schnell"))
type Logger struct {
	zap *zap.Logger
}

// NewLogger creates a Logger for the given environment.
//
// Parameters:
//   - isDevelopment: when true, stderr gets colored human-readable output at
//     debug level; when false, JSON at info level.
//   - logFilePath: optional rotating log file (20MB max, 3 backups, 14 days,
//     compressed). Empty string disables file logging.
//
// Console output always goes to stderr; stdout is never touched.
func NewLogger(isDevelopment bool, logFilePath string) (*Logger, error) {
	level := zapcore.InfoLevel
	if isDevelopment {
		level = zapcore.DebugLevel
	}

	var core zapcore.Core
	if logFilePath != "" {
		core = NewMultiCore(level, logFilePath, isDevelopment)
	} else {
		core = NewStderrCore(level, isDevelopment)
	}

	return NewLoggerWithCore(core), nil
}

// NewLoggerWithCore wraps an existing zapcore.Core. Used by tests with
// zaptest observers.
func NewLoggerWithCore(core zapcore.Core) *Logger {
	return &Logger{zap: zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1))}
}

// Named returns a logger scoped with the given name segment.
func (l *Logger) Named(name string) *Logger {
	return &Logger{zap: l.zap.Named(name)}
}

// With returns a logger with the given fields attached to every entry.
// Fields are redacted once here rather than on every log call.
func (l *Logger) With(fields ...zap.Field) *Logger {
	return &Logger{zap: l.zap.With(redactFields(fields)...)}
}

// Debug logs a message at DebugLevel with optional structured fields.
func (l *Logger) Debug(msg string, fields ...zap.Field) {
	l.zap.Debug(RedactSensitiveData(msg), redactFields(fields)...)
}

// Info logs a message at InfoLevel with optional structured fields.
func (l *Logger) Info(msg string, fields ...zap.Field) {
	l.zap.Info(RedactSensitiveData(msg), redactFields(fields)...)
}

// Warn logs a message at WarnLevel with optional structured fields.
func (l *Logger) Warn(msg string, fields ...zap.Field) {
	l.zap.Warn(RedactSensitiveData(msg), redactFields(fields)...)
}

// Error logs a message at ErrorLevel with optional structured fields.
func (l *Logger) Error(msg string, fields ...zap.Field) {
	l.zap.Error(RedactSensitiveData(msg), redactFields(fields)...)
}

// Fatal logs at FatalLevel then exits. Use only from the cmd layer — library
// code returns errors.
func (l *Logger) Fatal(msg string, fields ...zap.Field) {
	l.zap.Fatal(RedactSensitiveData(msg), redactFields(fields)...)
}

// Sync flushes any buffered log entries. Call before exiting.
func (l *Logger) Sync() error {
	if l == nil || l.zap == nil {
		return nil
	}
	return l.zap.Sync()
}
