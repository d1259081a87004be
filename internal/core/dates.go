package core

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Formats tried in priority order: ISO date, ISO datetime, Brazilian.
var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"02/01/2006",
}

// Spreadsheet serials count days since 1899-12-30. The accepted window
// starts at 10000 (1927-05-18) so bare years like "2024" are rejected
// as ambiguous instead of silently read as 1905.
const (
	minSerial = 10000
	maxSerial = 2958465 // 9999-12-31
)

var serialEpoch = time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)

// ParseDate converts a raw scalar into a calendar date. Empty input
// yields the zero Date, the missing sentinel. Known string formats are
// tried in priority order, then purely numeric input is read as a
// spreadsheet serial. Anything else returns an error wrapping ErrParse
// rather than a guess.
func ParseDate(raw string) (Date, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return Date{}, nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return NewDate(t.Year(), int(t.Month()), t.Day()), nil
		}
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return dateFromSerial(f)
	}
	return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, raw)
}

func dateFromSerial(serial float64) (Date, error) {
	if serial < minSerial || serial > maxSerial {
		return Date{}, fmt.Errorf("%w: serial %v out of range", ErrInvalidDate, serial)
	}
	t := serialEpoch.AddDate(0, 0, int(serial))
	return NewDate(t.Year(), int(t.Month()), t.Day()), nil
}
