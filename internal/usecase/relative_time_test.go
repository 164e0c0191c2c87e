package usecase

import (
	"testing"
	"time"
)

func TestParseRelativeAge(t *testing.T) {
	testCases := []struct {
		description string
		want        time.Duration
	}{
		{"2 weeks ago", 14 * day},
		{"a week ago", 7 * day},
		{"3 months ago", 90 * day},
		{"a month ago", 30 * day},
		{"a year ago", 365 * day},
		{"2 years ago", 730 * day},
		{"5 days ago", 5 * day},
		{"yesterday", day},
		{"Edited 4 months ago", 120 * day},
		{"", 30 * day},
		{"just now", 30 * day},
		{"2026-07-04 12:30:00", 30 * day},
		{"1000 years ago", 100 * 365 * day},
		{"150 days ago", 100 * day},
		{"100 days ago", 100 * day},
	}

	for _, tc := range testCases {
		t.Run(tc.description, func(t *testing.T) {
			if got := ParseRelativeAge(tc.description); got != tc.want {
				t.Errorf("ParseRelativeAge(%q) = %v, want %v", tc.description, got, tc.want)
			}
		})
	}
}
