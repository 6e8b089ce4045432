package timeutil

import (
	"fmt"
	"strings"
	"time"
)

// ParseDurationOrDefault parses duration and returns def on empty or invalid value.
func ParseDurationOrDefault(value string, def time.Duration) time.Duration {
	parsed, ok, err := ParseOptional(value)
	if err != nil || !ok {
		return def
	}
	return parsed
}

// ParseOptional parses a non-negative duration. ok is false for empty input.
func ParseOptional(value string) (time.Duration, bool, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, false, nil
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return 0, false, err
	}
	if parsed < 0 {
		return 0, false, fmt.Errorf("duration %q must not be negative", value)
	}
	return parsed, true, nil
}
