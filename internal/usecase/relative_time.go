package usecase

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

const (
	day = 24 * time.Hour

	// defaultReviewAge is used when a date description cannot be parsed
	defaultReviewAge = 30 * day

	// maxRelativeCount clamps the parsed count of any unit, so "150 days ago" reads as
	// 100 days. Providers only describe recent reviews in days or weeks, and larger
	// counts come from malformed text.
	maxRelativeCount = 100
)

var leadingNumberPattern = regexp.MustCompile(`\d+`)

// relativeUnits is checked in order; the first unit word present wins
var relativeUnits = []struct {
	word     string
	duration time.Duration
}{
	{"year", 365 * day},
	{"month", 30 * day},
	{"week", 7 * day},
	{"day", day},
}

// ParseRelativeAge converts a description like "3 months ago" or "a year ago" into a
// duration. A unit without a number counts as one unit, counts above 100 are clamped
// to 100, and unparseable text is 30 days.
func ParseRelativeAge(description string) time.Duration {
	desc := strings.ToLower(strings.TrimSpace(description))
	if desc == "" {
		return defaultReviewAge
	}

	count := 1
	if digits := leadingNumberPattern.FindString(desc); digits != "" {
		if n, err := strconv.Atoi(digits); err == nil && n > 0 {
			count = min(n, maxRelativeCount)
		}
	}

	for _, unit := range relativeUnits {
		if strings.Contains(desc, unit.word) {
			return time.Duration(count) * unit.duration
		}
	}

	return defaultReviewAge
}
