package schema

import (
	"fmt"
	"time"
)

const day = 24 * time.Hour

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseTime parses a configuration date. Values without a zone are UTC.
func ParseTime(s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q (want YYYY-MM-DD or RFC 3339)", s)
}

// Resolve returns the concrete [start, end) range. An empty End uses now,
// truncated to the second; an empty Start uses LookbackDays before End.
func (d DateSpec) Resolve(now time.Time) (start, end time.Time, err error) {
	end = now.UTC().Truncate(time.Second)
	if d.End != "" {
		if end, err = ParseTime(d.End); err != nil {
			return time.Time{}, time.Time{}, err
		}
	}

	switch {
	case d.Start != "":
		if start, err = ParseTime(d.Start); err != nil {
			return time.Time{}, time.Time{}, err
		}
	case d.LookbackDays > 0:
		start = end.AddDate(0, 0, -d.LookbackDays)
	default:
		return time.Time{}, time.Time{}, fmt.Errorf("either start or lookback_days is required")
	}

	if !end.After(start) {
		return time.Time{}, time.Time{}, fmt.Errorf("end %s is not after start %s",
			end.Format(time.RFC3339), start.Format(time.RFC3339))
	}
	return start, end, nil
}

// Days returns the whole number of days in [start, end).
func Days(start, end time.Time) int {
	return int(end.Sub(start) / day)
}

// Start resolves the window against a [start, end] range. A zero window
// starts at start.
func (w Window) Start(start, end time.Time) (time.Time, error) {
	switch {
	case w.Since != "":
		return ParseTime(w.Since)
	case w.LastDays > 0:
		return end.AddDate(0, 0, -w.LastDays), nil
	case w.LastFraction > 0:
		span := end.Sub(start)
		return end.Add(-time.Duration(float64(span) * w.LastFraction)), nil
	}
	return start, nil
}
