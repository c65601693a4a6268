package utils

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is the calendar date format used in request and response bodies
const DateLayout = "2006-01-02"

// ParseDate parses a calendar date (2006-01-02) or an RFC 3339 timestamp.
// Nil or blank input yields nil.
func ParseDate(s *string) (*time.Time, error) {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil, nil
	}

	value := strings.TrimSpace(*s)
	if t, err := time.Parse(DateLayout, value); err == nil {
		return &t, nil
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return &t, nil
	}
	return nil, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", value)
}
