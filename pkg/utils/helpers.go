package utils

import (
	"os"
	"time"
)

// ParseDuration safely parses a duration string like "5m", falling back to
// the given default when the string is empty or malformed.
func ParseDuration(d string, fallback time.Duration) time.Duration {
	if d == "" {
		return fallback
	}
	duration, err := time.ParseDuration(d)
	if err != nil {
		return fallback
	}
	return duration
}

// EnvOr returns the value of the environment variable key, or fallback when
// it is unset or empty.
func EnvOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
