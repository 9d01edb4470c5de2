package engine

import "time"

// ============================================================================
// FILTERS — Time-window and dimension-equality selection via RecordView
// ============================================================================
// Single-pass filter: checks ALL constraints per record in one loop.
// Returns a SubView (index list into parent) with no data copy.
// Selection reads only timestamps and dimensions, never measures, so a
// selection is unaffected by earlier mutations of metric values.
// ============================================================================

// Filters define which records to include.
// Since/Before bound the timestamp (Since inclusive, Before exclusive;
// zero means unbounded). Dimension keys are AND-combined; values within a
// dimension are OR-combined and compared exactly.
type Filters struct {
	Since      time.Time
	Before     time.Time
	Dimensions map[string][]string
}

// Equal builds dimension filters from single-value equality pairs.
func Equal(match map[string]string) map[string][]string {
	if len(match) == 0 {
		return nil
	}
	out := make(map[string][]string, len(match))
	for k, v := range match {
		out[k] = []string{v}
	}
	return out
}

// IsEmpty returns true if no filters are set.
func (f Filters) IsEmpty() bool {
	if !f.Since.IsZero() || !f.Before.IsZero() {
		return false
	}
	for _, vals := range f.Dimensions {
		if len(vals) > 0 {
			return false
		}
	}
	return true
}

// ApplyFilters returns a view of records matching every filter.
// Empty filter = no restriction (returns original view).
func ApplyFilters(view RecordView, filters Filters) RecordView {
	if filters.IsEmpty() {
		return view
	}

	sets := make(map[string]map[string]bool)
	for dim, allowed := range filters.Dimensions {
		if len(allowed) > 0 {
			sets[dim] = toSet(allowed)
		}
	}

	n := view.Len()
	indices := make([]int, 0, n)
	for i := 0; i < n; i++ {
		if !filters.Since.IsZero() || !filters.Before.IsZero() {
			ts := view.Timestamp(i)
			if !filters.Since.IsZero() && ts.Before(filters.Since) {
				continue
			}
			if !filters.Before.IsZero() && !ts.Before(filters.Before) {
				continue
			}
		}
		pass := true
		for dim, set := range sets {
			if !set[view.Dimension(i, dim)] {
				pass = false
				break
			}
		}
		if pass {
			indices = append(indices, i)
		}
	}

	return newSubView(view, indices)
}

func toSet(items []string) map[string]bool {
	set := make(map[string]bool, len(items))
	for _, item := range items {
		set[item] = true
	}
	return set
}
