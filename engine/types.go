package engine

import (
	"fmt"
	"math"
	"strconv"
	"time"
)

// ============================================================================
// ENGINE TYPES — Column-store dataset with dimension/measure access
// ============================================================================
// Dependency: engine has ZERO external dependencies.
// ============================================================================

// Kind is the storage kind of a column.
type Kind int

const (
	KindTime    Kind = iota // []time.Time
	KindText                // []string
	KindInteger             // []string holding base-10 integers
	KindReal                // []float64
)

// Role is what a column means to the pipeline.
type Role int

const (
	RoleRowID Role = iota
	RoleTimestamp
	RoleCalendar
	RoleDimension
	RoleMeasure
)

// Column describes one output column.
type Column struct {
	Name      string
	Kind      Kind
	Role      Role
	Layout    string // time layout for KindTime
	Precision int    // decimal places for KindReal
}

// ============================================================================
// RECORD — Generic data row (used when reading exported files back)
// ============================================================================

// Record is a single data row with string dimensions and numeric measures.
type Record struct {
	Time       time.Time          `json:"time"`
	Dimensions map[string]string  `json:"dimensions"`
	Measures   map[string]float64 `json:"measures"`
}

// ============================================================================
// DATASET — the in-memory table a run materializes once
// ============================================================================

// Dataset is an ordered column store. Every column holds exactly Len()
// values; row order is insertion order.
type Dataset struct {
	n       int
	timeKey string
	columns []Column
	index   map[string]int
	times   map[string][]time.Time
	dims    map[string][]string
	meas    map[string][]float64
	dimKeys []string
	mesKeys []string
}

// NewDataset creates an empty dataset of n rows whose primary timestamp
// column is timeKey.
func NewDataset(n int, timeKey string) *Dataset {
	return &Dataset{
		n:       n,
		timeKey: timeKey,
		index:   make(map[string]int),
		times:   make(map[string][]time.Time),
		dims:    make(map[string][]string),
		meas:    make(map[string][]float64),
	}
}

func (d *Dataset) add(col Column, length int) error {
	if _, exists := d.index[col.Name]; exists {
		return fmt.Errorf("column %q already exists", col.Name)
	}
	if length != d.n {
		return fmt.Errorf("column %q has %d values, dataset has %d rows", col.Name, length, d.n)
	}
	d.index[col.Name] = len(d.columns)
	d.columns = append(d.columns, col)
	return nil
}

// AddTime appends a temporal column.
func (d *Dataset) AddTime(col Column, values []time.Time) error {
	col.Kind = KindTime
	if err := d.add(col, len(values)); err != nil {
		return err
	}
	d.times[col.Name] = values
	return nil
}

// AddDimension appends a text or integer column.
func (d *Dataset) AddDimension(col Column, values []string) error {
	if col.Kind != KindInteger {
		col.Kind = KindText
	}
	if err := d.add(col, len(values)); err != nil {
		return err
	}
	d.dims[col.Name] = values
	d.dimKeys = append(d.dimKeys, col.Name)
	return nil
}

// AddMeasure appends a numeric column.
func (d *Dataset) AddMeasure(col Column, values []float64) error {
	col.Kind = KindReal
	if err := d.add(col, len(values)); err != nil {
		return err
	}
	d.meas[col.Name] = values
	d.mesKeys = append(d.mesKeys, col.Name)
	return nil
}

// Columns returns the column list in output order.
func (d *Dataset) Columns() []Column { return d.columns }

// Column looks up a column by name.
func (d *Dataset) Column(name string) (Column, bool) {
	i, ok := d.index[name]
	if !ok {
		return Column{}, false
	}
	return d.columns[i], true
}

// ColumnNames returns the column names in output order.
func (d *Dataset) ColumnNames() []string {
	names := make([]string, len(d.columns))
	for i, c := range d.columns {
		names[i] = c.Name
	}
	return names
}

// ColumnLen returns the number of values stored for name, or -1.
func (d *Dataset) ColumnLen(name string) int {
	if v, ok := d.times[name]; ok {
		return len(v)
	}
	if v, ok := d.dims[name]; ok {
		return len(v)
	}
	if v, ok := d.meas[name]; ok {
		return len(v)
	}
	return -1
}

// TimeKey is the primary timestamp column.
func (d *Dataset) TimeKey() string { return d.timeKey }

// Times returns the backing slice of a temporal column.
func (d *Dataset) Times(key string) []time.Time { return d.times[key] }

// Dimensions returns the backing slice of a dimension column.
func (d *Dataset) Dimensions(key string) []string { return d.dims[key] }

// Measures returns the backing slice of a measure column. Scenario rules
// mutate it in place.
func (d *Dataset) Measures(key string) []float64 { return d.meas[key] }

// Truncate drops every row from n onward.
func (d *Dataset) Truncate(n int) {
	if n < 0 || n >= d.n {
		return
	}
	for k, v := range d.times {
		d.times[k] = v[:n]
	}
	for k, v := range d.dims {
		d.dims[k] = v[:n]
	}
	for k, v := range d.meas {
		d.meas[k] = v[:n]
	}
	d.n = n
}

// Span returns the earliest and latest primary timestamps.
func (d *Dataset) Span() (first, last time.Time) {
	ts := d.times[d.timeKey]
	for i, t := range ts {
		if i == 0 || t.Before(first) {
			first = t
		}
		if i == 0 || t.After(last) {
			last = t
		}
	}
	return first, last
}

// ============================================================================
// RECORD VIEW IMPLEMENTATION
// ============================================================================

func (d *Dataset) Len() int { return d.n }

func (d *Dataset) Timestamp(i int) time.Time {
	ts := d.times[d.timeKey]
	if i < 0 || i >= len(ts) {
		return time.Time{}
	}
	return ts[i]
}

func (d *Dataset) Dimension(i int, key string) string {
	v := d.dims[key]
	if i < 0 || i >= len(v) {
		return ""
	}
	return v[i]
}

func (d *Dataset) Measure(i int, key string) float64 {
	v := d.meas[key]
	if i < 0 || i >= len(v) {
		return 0
	}
	return v[i]
}

func (d *Dataset) DimensionKeys() []string { return d.dimKeys }
func (d *Dataset) MeasureKeys() []string   { return d.mesKeys }

// ============================================================================
// CELL ACCESS — used by sinks
// ============================================================================

// Format renders row i of col as text. Measures are rounded to the
// column precision; times use the column layout.
func (d *Dataset) Format(i int, col Column) string {
	switch col.Kind {
	case KindTime:
		return d.times[col.Name][i].Format(col.Layout)
	case KindReal:
		return FormatFloat(d.meas[col.Name][i], col.Precision)
	default:
		return d.dims[col.Name][i]
	}
}

// Value returns row i of col as a typed value: int64 for integer
// columns, float64 for measures, string otherwise.
func (d *Dataset) Value(i int, col Column) any {
	switch col.Kind {
	case KindReal:
		return RoundTo(d.meas[col.Name][i], col.Precision)
	case KindInteger:
		if n, err := strconv.ParseInt(d.dims[col.Name][i], 10, 64); err == nil {
			return n
		}
		return d.dims[col.Name][i]
	default:
		return d.Format(i, col)
	}
}

// RoundTo rounds v to the given number of decimal places.
func RoundTo(v float64, precision int) float64 {
	p := math.Pow10(precision)
	r := math.Round(v*p) / p
	if r == 0 {
		return 0 // drop negative zero
	}
	return r
}

// FormatFloat renders v with exactly precision decimals.
func FormatFloat(v float64, precision int) string {
	return strconv.FormatFloat(RoundTo(v, precision), 'f', precision, 64)
}
