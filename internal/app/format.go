package app

import (
	"fmt"
	"math"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const (
	displayDateTime = "02 Jan 2006, 15:04"
	displayDate     = "02 Jan 2006"
	isoDate         = "2006-01-02"
)

var zonedLayouts = []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05Z0700"}

var localLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

// parseTimestamp accepts the timestamp shapes found in stored records.
// dateOnly is true when the input carried no time of day.
func parseTimestamp(s string, loc *time.Location) (t time.Time, dateOnly, ok bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false, false
	}
	for _, l := range zonedLayouts {
		if t, err := time.Parse(l, s); err == nil {
			return t.In(loc), false, true
		}
	}
	for _, l := range localLayouts {
		if t, err := time.ParseInLocation(l, s, loc); err == nil {
			return t, false, true
		}
	}
	if t, err := time.ParseInLocation(isoDate, s, loc); err == nil {
		return t, true, true
	}
	return time.Time{}, false, false
}

// formatDateTime renders a stored timestamp for display in loc. Unparseable
// input is returned as-is, empty input as N/A.
func formatDateTime(s string, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	if strings.TrimSpace(s) == "" {
		return notAvailable
	}
	t, dateOnly, ok := parseTimestamp(s, loc)
	if !ok {
		return s
	}
	if dateOnly {
		return t.Format(displayDate)
	}
	return t.Format(displayDateTime)
}

func formatDate(s string) string {
	t, _, ok := parseTimestamp(s, time.UTC)
	if !ok {
		return s
	}
	return t.Format(displayDate)
}

func pluralize(n int, one, many string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, one)
	}
	return fmt.Sprintf("%d %s", n, many)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// formatMoney renders "GBP 1,234.50" with British digit grouping.
func formatMoney(amount float64, currency string) string {
	out := message.NewPrinter(language.BritishEnglish).Sprintf("%.2f", round2(amount))
	if currency == "" {
		return out
	}
	return currency + " " + out
}
