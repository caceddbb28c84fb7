package utils

import (
	"strconv"
	"strings"
	"time"
)

// DefaultJobTimeout bounds a run when its spec sets no timeout.
const DefaultJobTimeout = 5 * time.Minute

// ParseDuration safely parses a duration string like "5m"
func ParseDuration(d string) time.Duration {
	if d == "" {
		return DefaultJobTimeout
	}
	duration, err := time.ParseDuration(d)
	if err != nil || duration <= 0 {
		return DefaultJobTimeout
	}
	return duration
}

// ParsePositiveInt reads a query-string style integer, falling back to def
// for blanks, junk and values below 1.
func ParsePositiveInt(s string, def int) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 1 {
		return def
	}
	return n
}
