package report

import (
	"fmt"
	"math"
	"strconv"
	"time"
)

// FormatNumber renders a metric value for display using the convention
// shared by the Markdown and HTML renderers: millions as "2.5M",
// thousands as "1.5k", integral values as plain integers, everything
// else to two decimal places.
func FormatNumber(v float64) string {
	abs := math.Abs(v)
	switch {
	case abs >= 1_000_000:
		return fmt.Sprintf("%.1fM", v/1_000_000)
	case abs >= 1_000:
		return fmt.Sprintf("%.1fk", v/1_000)
	case v == math.Trunc(v):
		return strconv.FormatInt(int64(v), 10)
	default:
		return fmt.Sprintf("%.2f", v)
	}
}

// RelativeTime renders the age of t relative to now: under a minute is
// "Just now", then minutes, hours and days.
func RelativeTime(t, now time.Time) string {
	d := now.Sub(t)
	switch {
	case d < time.Minute:
		return "Just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	}
}

// CreationTime extracts the reserved "_creationTime" field (epoch
// milliseconds) from a record. The zero time is returned when the field
// is absent or non-numeric.
func CreationTime(r Record) time.Time {
	ms, ok := numericValue(r["_creationTime"])
	if !ok {
		return time.Time{}
	}
	return time.UnixMilli(int64(ms))
}
