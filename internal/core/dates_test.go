package core

import (
	"errors"
	"testing"
)

func TestParseDate(t *testing.T) {
	cases := []struct {
		in      string
		want    Date
		ok      bool
		missing bool
	}{
		{"2024-03-01", NewDate(2024, 3, 1), true, false},
		{"01/03/2024", NewDate(2024, 3, 1), true, false}, // day first
		{"2024-03-01T10:30:00Z", NewDate(2024, 3, 1), true, false},
		{"45352", NewDate(2024, 3, 1), true, false}, // spreadsheet serial
		{"45352.75", NewDate(2024, 3, 1), true, false},
		{"", Date{}, true, true},
		{"   ", Date{}, true, true},
		{"31/02/2024", Date{}, false, false},
		{"2024", Date{}, false, false}, // bare year, not a serial
		{"03-01-2024", Date{}, false, false},
		{"amanhã", Date{}, false, false},
		{"9999999", Date{}, false, false},
	}
	for _, tc := range cases {
		got, err := ParseDate(tc.in)
		if !tc.ok {
			if err == nil {
				t.Fatalf("%q expected error, got %v", tc.in, got)
			}
			if !errors.Is(err, ErrParse) {
				t.Fatalf("%q error should wrap ErrParse, got %v", tc.in, err)
			}
			continue
		}
		if err != nil {
			t.Fatalf("%q unexpected error: %v", tc.in, err)
		}
		if tc.missing {
			if got.Known() {
				t.Fatalf("%q expected missing date, got %v", tc.in, got)
			}
			continue
		}
		if !got.Equal(tc.want.Time) {
			t.Fatalf("%q expected %s, got %s", tc.in, tc.want.ISO(), got.ISO())
		}
	}
}

func TestDateHelpers(t *testing.T) {
	d := NewDate(2024, 11, 7)
	if d.Year() != 2024 || d.Month() != 11 || d.Day() != 7 {
		t.Fatalf("unexpected parts: %d-%d-%d", d.Year(), d.Month(), d.Day())
	}
	if q := d.Quarter(); q != 4 {
		t.Fatalf("expected quarter 4, got %d", q)
	}
	if got := d.ISO(); got != "2024-11-07" {
		t.Fatalf("expected 2024-11-07, got %q", got)
	}
	if got := d.Brazilian(); got != "07/11/2024" {
		t.Fatalf("expected 07/11/2024, got %q", got)
	}

	var zero Date
	if zero.Known() {
		t.Fatalf("zero date should not be known")
	}
	if zero.ISO() != "" || zero.Brazilian() != "" {
		t.Fatalf("zero date should render empty")
	}
}

func TestQuarterBounds(t *testing.T) {
	cases := []struct {
		month, quarter int
	}{
		{1, 1}, {3, 1}, {4, 2}, {6, 2}, {7, 3}, {9, 3}, {10, 4}, {12, 4},
	}
	for _, tc := range cases {
		if q := NewDate(2024, tc.month, 1).Quarter(); q != tc.quarter {
			t.Fatalf("month %d expected quarter %d, got %d", tc.month, tc.quarter, q)
		}
	}
}
