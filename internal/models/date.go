package models

import (
	"errors"
	"strings"
	"time"
)

var ErrInvalidDate = errors.New("invalid date, use YYYY-MM-DD or RFC3339")

// ParseDate accepts the formats sent by HTML date inputs and JSON clients.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, ErrInvalidDate
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	return time.Time{}, ErrInvalidDate
}
