package logging

import (
	"regexp"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// RedactedPlaceholder is the string used to replace sensitive data
const RedactedPlaceholder = "[REDACTED]"

// sensitivePatterns contains compiled regex patterns for detecting sensitive
// data in log fields. The bridge handles two credentials: a Hugging Face
// token passed through to the download tool, and an optional OpenAI key for
// the cloud generation fallback.
// Patterns are compiled once at package initialization.
var sensitivePatterns = []*regexp.Regexp{
	// OpenAI API keys: sk-... (legacy) or sk-proj-... (project-scoped)
	regexp.MustCompile(`(sk-[a-zA-Z0-9_-]{20,})`),
	// Hugging Face tokens: hf_...
	regexp.MustCompile(`(hf_[a-zA-Z0-9]{20,})`),
	// Bearer tokens
	regexp.MustCompile(`(?i)(bearer\s+[a-zA-Z0-9._-]{20,})`),
	// Generic secret assignments: token=..., api_key:...
	regexp.MustCompile(`(?i)((?:token|api_key|apikey|secret)\s*[:=]\s*[^\s,;]{8,})`),
}

// RedactSensitiveData scans a string and redacts any detected credential.
// This is a pure function - it takes a string and returns a sanitized string.
func RedactSensitiveData(value string) string {
	if value == "" {
		return value
	}
	for _, pattern := range sensitivePatterns {
		value = pattern.ReplaceAllString(value, RedactedPlaceholder)
	}
	return value
}

// redactField sanitizes string-valued zap fields before they reach a core.
// Non-string fields pass through untouched: byte counts and durations carry
// no credentials, and re-encoding them would cost more than it protects.
func redactField(field zap.Field) zap.Field {
	if field.Type == zapcore.StringType {
		field.String = RedactSensitiveData(field.String)
	}
	return field
}

// redactFields applies redactField across a field slice in place.
func redactFields(fields []zap.Field) []zap.Field {
	for i := range fields {
		fields[i] = redactField(fields[i])
	}
	return fields
}
