package infer

import (
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// Times of day carry no date, so they are matched before the date parser
// gets a chance to read them as something else.
var clockLayouts = []string{
	"15:04:05.999999999",
	"15:04:05",
	"15:04",
	"3:04 PM",
	"3:04:05 PM",
}

// Day-first and dashed forms the date parser does not accept. Month-first
// comes before day-first so 03-04-2024 reads as March 4th.
var fallbackLayouts = []string{
	"01-02-2006 15:04:05",
	"01-02-2006",
	"1-2-2006",
	"01-02-06",
	"02-01-2006",
	"02/01/2006 15:04:05",
	"02/01/2006",
	"2/1/2006",
	"02.01.2006 15:04:05",
	"02.01.2006 15:04",
	"02.01.2006",
	"2.1.2006",
	"02-Jan-2006",
	"02-Jan-06",
}

var dateOptions = []dateparse.ParserOption{
	dateparse.PreferMonthFirst(true),
	dateparse.RetryAmbiguousDateWithSwap(true),
}

// ParseTime parses s as a date, a date with a time, or a time of day.
// Time-only values get the zero date.
func ParseTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range clockLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	// Bare digits other than yyyymmdd are years or epoch seconds to the
	// date parser.
	if isDigits(s) && len(s) != 8 {
		return time.Time{}, false
	}
	if t, err := dateparse.ParseIn(s, time.UTC, dateOptions...); err == nil {
		return t, true
	}
	for _, layout := range fallbackLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// HasDate reports whether t carries a calendar date rather than only a time
// of day.
func HasDate(t time.Time) bool {
	return t.Year() != 0
}

func hasClock(t time.Time) bool {
	return t.Hour() != 0 || t.Minute() != 0 || t.Second() != 0 || t.Nanosecond() != 0
}
