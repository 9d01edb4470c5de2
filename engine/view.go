package engine

import "time"

// ============================================================================
// RECORD VIEW — Zero-Copy Data Access Interface
// ============================================================================
// Scenario selection, validation and summaries read through this interface.
//
// Implementations:
//   Dataset    — the generated column store
//   SliceView  — wraps []Record (CSV read back from disk)
//   SubView    — filtered subset (indices into parent, zero-copy)
// ============================================================================

// RecordView provides indexed access to a dataset.
// Callers use Dimension/Measure in tight loops; keep implementations fast.
type RecordView interface {
	Len() int
	Timestamp(index int) time.Time
	Dimension(index int, key string) string
	Measure(index int, key string) float64
	DimensionKeys() []string // available dimension keys
	MeasureKeys() []string   // available measure keys
}

// ============================================================================
// SLICE VIEW — wraps []Record
// ============================================================================

// SliceView wraps a []Record slice as a RecordView.
// Used by helpers.ParseCSV and ad-hoc consumers.
type SliceView struct {
	records []Record
	dimKeys []string
	mesKeys []string
}

// NewSliceView creates a RecordView from a []Record slice. Keys are
// listed in first-seen order.
func NewSliceView(records []Record, dimKeys, mesKeys []string) RecordView {
	return &SliceView{records: records, dimKeys: dimKeys, mesKeys: mesKeys}
}

func (v *SliceView) Len() int { return len(v.records) }

func (v *SliceView) Timestamp(i int) time.Time {
	if i < 0 || i >= len(v.records) {
		return time.Time{}
	}
	return v.records[i].Time
}

func (v *SliceView) Dimension(i int, key string) string {
	if i < 0 || i >= len(v.records) {
		return ""
	}
	return v.records[i].Dimensions[key]
}

func (v *SliceView) Measure(i int, key string) float64 {
	if i < 0 || i >= len(v.records) {
		return 0
	}
	return v.records[i].Measures[key]
}

func (v *SliceView) DimensionKeys() []string { return v.dimKeys }
func (v *SliceView) MeasureKeys() []string   { return v.mesKeys }

// ============================================================================
// SUB VIEW — filtered subset (zero-copy)
// ============================================================================

// SubView is a filtered subset of a parent RecordView.
// Holds indices into the parent, no data copy.
type SubView struct {
	parent  RecordView
	indices []int
}

func newSubView(parent RecordView, indices []int) *SubView {
	return &SubView{parent: parent, indices: indices}
}

func (v *SubView) Len() int { return len(v.indices) }

func (v *SubView) Timestamp(i int) time.Time {
	if i < 0 || i >= len(v.indices) {
		return time.Time{}
	}
	return v.parent.Timestamp(v.indices[i])
}

func (v *SubView) Dimension(i int, key string) string {
	if i < 0 || i >= len(v.indices) {
		return ""
	}
	return v.parent.Dimension(v.indices[i], key)
}

func (v *SubView) Measure(i int, key string) float64 {
	if i < 0 || i >= len(v.indices) {
		return 0
	}
	return v.parent.Measure(v.indices[i], key)
}

func (v *SubView) DimensionKeys() []string { return v.parent.DimensionKeys() }
func (v *SubView) MeasureKeys() []string   { return v.parent.MeasureKeys() }

// Indices returns the parent row indices, in parent order.
func (v *SubView) Indices() []int { return v.indices }

// Indices returns the row indices a view covers in its root: the index
// list of a SubView (resolved through nested SubViews), or 0..Len()-1.
func Indices(view RecordView) []int {
	if sv, ok := view.(*SubView); ok {
		if _, nested := sv.parent.(*SubView); nested {
			parent := Indices(sv.parent)
			out := make([]int, len(sv.indices))
			for i, idx := range sv.indices {
				out[i] = parent[idx]
			}
			return out
		}
		return sv.indices
	}
	out := make([]int, view.Len())
	for i := range out {
		out[i] = i
	}
	return out
}
