package core

import (
	"fmt"
	"strconv"
	"strings"
)

// Byte size constants for human-readable formatting.
// Using binary units (1024 base) as is standard for file sizes.
const (
	BytesPerKB int64 = 1024
	BytesPerMB int64 = 1024 * BytesPerKB
	BytesPerGB int64 = 1024 * BytesPerMB
	BytesPerTB int64 = 1024 * BytesPerGB
)

// FormatBytes converts a byte count to a human-readable string.
// Uses binary units (KiB = 1024 bytes) but displays as KB/MB/GB/TB for familiarity.
// Examples:
//   - FormatBytes(0) returns "0 B"
//   - FormatBytes(1536) returns "1.50 KB"
//   - FormatBytes(1073741824) returns "1.00 GB"
//
// This is a pure function with no side effects.
func FormatBytes(bytes int64) string {
	// Handle negative values by treating as 0
	if bytes < 0 {
		bytes = 0
	}

	switch {
	case bytes >= BytesPerTB:
		return fmt.Sprintf("%.2f TB", float64(bytes)/float64(BytesPerTB))
	case bytes >= BytesPerGB:
		return fmt.Sprintf("%.2f GB", float64(bytes)/float64(BytesPerGB))
	case bytes >= BytesPerMB:
		return fmt.Sprintf("%.2f MB", float64(bytes)/float64(BytesPerMB))
	case bytes >= BytesPerKB:
		return fmt.Sprintf("%.2f KB", float64(bytes)/float64(BytesPerKB))
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}

// ParseBytes converts a human-readable size string to bytes.
// Supported formats: "100B", "10KB", "5MB", "2GB", "1TB" (case-insensitive).
// Whitespace between number and unit is allowed; fractional values are supported
// so model catalog entries can say "31.4GB".
// Returns 0 and an error if the format is invalid.
//
// This is a pure function with no side effects.
func ParseBytes(s string) (int64, error) {
	if s == "" {
		return 0, fmt.Errorf("empty string")
	}

	cleaned := strings.ToUpper(strings.ReplaceAll(s, " ", ""))

	unitMultipliers := []struct {
		suffix     string
		multiplier int64
	}{
		{"TB", BytesPerTB},
		{"GB", BytesPerGB},
		{"MB", BytesPerMB},
		{"KB", BytesPerKB},
		{"B", 1},
	}

	for _, unit := range unitMultipliers {
		if strings.HasSuffix(cleaned, unit.suffix) {
			numStr := strings.TrimSuffix(cleaned, unit.suffix)
			if numStr == "" {
				return 0, fmt.Errorf("missing numeric value in %q", s)
			}
			value, err := strconv.ParseFloat(numStr, 64)
			if err != nil {
				return 0, fmt.Errorf("invalid numeric value in %q: %w", s, err)
			}
			if value < 0 {
				return 0, fmt.Errorf("negative size %q", s)
			}
			return int64(value * float64(unit.multiplier)), nil
		}
	}

	// Bare number means bytes
	value, err := strconv.ParseInt(cleaned, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid size %q", s)
	}
	if value < 0 {
		return 0, fmt.Errorf("negative size %q", s)
	}
	return value, nil
}
