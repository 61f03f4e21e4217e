package logging

import (
	"os"

	"go.uber.org/zap/zapcore"
)

// NewStderrCore creates a zapcore.Core writing to stderr only. The bridge
// reserves stdout for the token/JSON contract with the calling application,
// so diagnostics must never land there.
//
//   - Development mode (isDev=true): colored, human-readable format
//   - Production mode (isDev=false): JSON for structured log processing
func NewStderrCore(level zapcore.Level, isDev bool) zapcore.Core {
	return NewWriterCore(level, zapcore.Lock(os.Stderr), isDev)
}

// NewWriterCore creates a console-style core on an arbitrary writer.
// Useful for tests that assert on log output.
func NewWriterCore(level zapcore.Level, w zapcore.WriteSyncer, isDev bool) zapcore.Core {
	var encoder zapcore.Encoder
	if isDev {
		encoder = zapcore.NewConsoleEncoder(NewConsoleEncoderConfig())
	} else {
		encoder = zapcore.NewJSONEncoder(NewEncoderConfig())
	}
	return zapcore.NewCore(encoder, w, level)
}

// NewMultiCore creates a zapcore.Core that tees output to stderr and a
// rotating log file. The file output always uses JSON encoding regardless
// of mode.
//
// Example:
//
//	core := NewMultiCore(zapcore.InfoLevel, "bridge.log", true)
//	logger := zap.New(core)
func NewMultiCore(level zapcore.Level, filePath string, isDev bool) zapcore.Core {
	fileCore := zapcore.NewCore(
		zapcore.NewJSONEncoder(NewEncoderConfig()),
		NewFileWriter(filePath),
		level,
	)
	return zapcore.NewTee(NewStderrCore(level, isDev), fileCore)
}
