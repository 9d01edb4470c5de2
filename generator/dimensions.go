package generator

import (
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/spektr-org/synthdata/schema"
)

const day = 24 * time.Hour

// ============================================================================
// TIME INDEX — recency-skewed timestamps
// ============================================================================

// Timestamps draws n timestamps in [start, end] following the configured
// distribution. Both kinds weight recent days more heavily than old ones.
func Timestamps(spec schema.DateSpec, start, end time.Time, n int, src *Source) []time.Time {
	switch spec.Distribution.Kind {
	case schema.TimeSplit:
		return splitTimestamps(spec, start, end, n, src)
	default:
		return linearTimestamps(spec, start, end, n, src)
	}
}

// linearTimestamps picks a day offset from start with per-day weights
// rising linearly from MinWeight (oldest) to MaxWeight (newest).
func linearTimestamps(spec schema.DateSpec, start, end time.Time, n int, src *Source) []time.Time {
	slots := schema.Days(start, end) + 1
	lo, hi := spec.Distribution.MinWeight, spec.Distribution.MaxWeight
	weights := make([]float64, slots)
	for i := range weights {
		if slots == 1 {
			weights[i] = hi
			continue
		}
		weights[i] = lo + (hi-lo)*float64(i)/float64(slots-1)
	}
	chooser := NewChooser(slots, weights)

	out := make([]time.Time, n)
	for i := range out {
		anchor := start.Add(time.Duration(chooser.Pick(src)) * day)
		out[i] = withTimeOfDay(spec, anchor, start, end, src)
	}
	return out
}

// splitTimestamps places RecentShare of the rows on the last RecentDays
// days before end and the rest on the older days, then shuffles.
func splitTimestamps(spec schema.DateSpec, start, end time.Time, n int, src *Source) []time.Time {
	total := schema.Days(start, end)
	recentDays := spec.Distribution.RecentDays
	recent := int(float64(n) * spec.Distribution.RecentShare)

	out := make([]time.Time, n)
	for i := range out {
		var back int
		if i < recent {
			back = src.Intn(recentDays)
		} else {
			back = recentDays + 1 + src.Intn(total-recentDays)
		}
		anchor := end.Add(-time.Duration(back) * day)
		out[i] = withTimeOfDay(spec, anchor, start, end, src)
	}
	src.Shuffle(n, func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}

// withTimeOfDay replaces the clock of anchor with a random hour and
// minute when configured. The result stays inside [start, end].
func withTimeOfDay(spec schema.DateSpec, anchor, start, end time.Time, src *Source) time.Time {
	if !spec.TimeOfDay {
		return anchor
	}
	hour := src.Intn(24)
	minute := src.Intn(60)
	t := time.Date(anchor.Year(), anchor.Month(), anchor.Day(), hour, minute, 0, 0, anchor.Location())
	if t.Before(start) {
		return start
	}
	if t.After(end) {
		return end
	}
	return t
}

// ============================================================================
// CALENDAR BUCKETS
// ============================================================================

// DayStart truncates t to midnight.
func DayStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// WeekStart returns the Monday of t's week at midnight.
func WeekStart(t time.Time) time.Time {
	d := DayStart(t)
	offset := (int(d.Weekday()) + 6) % 7
	return d.AddDate(0, 0, -offset)
}

// MonthStart returns the first day of t's month at midnight.
func MonthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

// Buckets maps every timestamp through fn.
func Buckets(ts []time.Time, fn func(time.Time) time.Time) []time.Time {
	out := make([]time.Time, len(ts))
	for i, t := range ts {
		out[i] = fn(t)
	}
	return out
}

// ============================================================================
// CATEGORICAL DIMENSIONS
// ============================================================================

// DimensionColumn is one drawn categorical column.
type DimensionColumn struct {
	Name    string
	Integer bool
	Values  []string
}

// Dimension draws n independent values from a pool and formats every
// derive column. The drawn column comes first.
func Dimension(spec schema.DimensionSpec, n int, src *Source) ([]DimensionColumn, error) {
	values := make([]string, n)
	derived := make([][]string, len(spec.Derive))
	for j := range derived {
		derived[j] = make([]string, n)
	}

	switch {
	case spec.Keys != nil:
		width := spec.Keys.To - spec.Keys.From + 1
		if width <= 0 {
			return nil, fmt.Errorf("dimension %q: empty key range", spec.Name)
		}
		for i := range values {
			key := spec.Keys.From + src.Intn(width)
			values[i] = strconv.Itoa(key)
			for j, dv := range spec.Derive {
				derived[j][i] = schema.FormatDerived(dv.Format, key)
			}
		}
	case len(spec.Labels) > 0:
		weights := make([]float64, len(spec.Labels))
		for i, l := range spec.Labels {
			weights[i] = l.Weight
		}
		chooser := NewChooser(len(spec.Labels), weights)
		for i := range values {
			label := spec.Labels[chooser.Pick(src)].Value
			values[i] = label
			for j, dv := range spec.Derive {
				derived[j][i] = schema.FormatDerivedLabel(dv.Format, label)
			}
		}
	default:
		return nil, fmt.Errorf("dimension %q: empty pool", spec.Name)
	}

	cols := []DimensionColumn{{Name: spec.Name, Integer: spec.Keys != nil, Values: values}}
	for j, dv := range spec.Derive {
		cols = append(cols, DimensionColumn{Name: dv.Name, Values: derived[j]})
	}
	return cols, nil
}

// RowIDs draws n version-4 UUIDs from the run stream.
func RowIDs(n int, src *Source) ([]string, error) {
	out := make([]string, n)
	for i := range out {
		id, err := uuid.NewRandomFromReader(src)
		if err != nil {
			return nil, fmt.Errorf("failed to draw row id: %w", err)
		}
		out[i] = id.String()
	}
	return out, nil
}
