package schema

// ============================================================================
// SCHEMA — Describes the dataset a run should synthesize
// ============================================================================
// Config is the single input of a generation run: row count, date range,
// dimension pools, metric distributions, scenario rules, validation
// thresholds and export targets. Lists (not maps) keep column order and
// random draw order deterministic.
// ============================================================================

// Config describes a complete generation run.
type Config struct {
	Name        string `yaml:"name" json:"name"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
	Seed        int64  `yaml:"seed" json:"seed"`
	Rows        int    `yaml:"rows" json:"rows"`

	Dates      DateSpec        `yaml:"dates" json:"dates"`
	RowID      *RowIDSpec      `yaml:"row_id,omitempty" json:"rowId,omitempty"`
	Dimensions []DimensionSpec `yaml:"dimensions" json:"dimensions"`
	Measures   []MeasureSpec   `yaml:"measures" json:"measures"`
	Scenarios  []Rule          `yaml:"scenarios,omitempty" json:"scenarios,omitempty"`

	Validation ValidationSpec `yaml:"validation" json:"validation"`
	Export     ExportSpec     `yaml:"export" json:"export"`
	Summary    Summary        `yaml:"summary,omitempty" json:"summary,omitempty"`
}

// ============================================================================
// TIME INDEX
// ============================================================================

// Time distribution kinds.
const (
	TimeLinear = "linear" // per-day weight rises linearly toward the end
	TimeSplit  = "split"  // fixed share of rows inside the recent window
)

// DateSpec bounds the time index and names the temporal columns.
type DateSpec struct {
	Start        string `yaml:"start,omitempty" json:"start,omitempty"`
	End          string `yaml:"end,omitempty" json:"end,omitempty"`
	LookbackDays int    `yaml:"lookback_days,omitempty" json:"lookbackDays,omitempty"`

	Distribution TimeDistribution `yaml:"distribution" json:"distribution"`
	TimeOfDay    bool             `yaml:"time_of_day,omitempty" json:"timeOfDay,omitempty"`

	Column     string       `yaml:"column" json:"column"`
	Calendar   CalendarSpec `yaml:"calendar" json:"calendar"`
	Layout     string       `yaml:"layout,omitempty" json:"layout,omitempty"`           // timestamp output layout
	DateLayout string       `yaml:"date_layout,omitempty" json:"dateLayout,omitempty"` // calendar bucket output layout
}

// TimeDistribution shapes how rows spread over the date range.
type TimeDistribution struct {
	Kind        string  `yaml:"kind" json:"kind"`
	MinWeight   float64 `yaml:"min_weight,omitempty" json:"minWeight,omitempty"`
	MaxWeight   float64 `yaml:"max_weight,omitempty" json:"maxWeight,omitempty"`
	RecentDays  int     `yaml:"recent_days,omitempty" json:"recentDays,omitempty"`
	RecentShare float64 `yaml:"recent_share,omitempty" json:"recentShare,omitempty"`
}

// CalendarSpec names the derived bucket columns. Empty names are not emitted.
type CalendarSpec struct {
	Day        string `yaml:"day,omitempty" json:"day,omitempty"`
	WeekStart  string `yaml:"week_start,omitempty" json:"weekStart,omitempty"`
	MonthStart string `yaml:"month_start,omitempty" json:"monthStart,omitempty"`
}

// RowIDSpec adds a reproducible UUID column.
type RowIDSpec struct {
	Column string `yaml:"column" json:"column"`
}

// ============================================================================
// DIMENSIONS
// ============================================================================

// DimensionSpec declares one categorical column. Exactly one of Labels or
// Keys is set.
type DimensionSpec struct {
	Name        string       `yaml:"name" json:"name"`
	DisplayName string       `yaml:"display_name,omitempty" json:"displayName,omitempty"`
	Labels      []Label      `yaml:"labels,omitempty" json:"labels,omitempty"`
	Keys        *KeyRange    `yaml:"keys,omitempty" json:"keys,omitempty"`
	Derive      []DeriveSpec `yaml:"derive,omitempty" json:"derive,omitempty"`
}

// Label is one pool entry. Weight 0 on every label means uniform.
type Label struct {
	Value  string  `yaml:"label" json:"label"`
	Weight float64 `yaml:"weight,omitempty" json:"weight,omitempty"`
}

// KeyRange is an inclusive integer surrogate-key pool.
type KeyRange struct {
	From int `yaml:"from" json:"from"`
	To   int `yaml:"to" json:"to"`
}

// DeriveSpec formats the drawn value into an extra column ("CUST%03d").
type DeriveSpec struct {
	Name   string `yaml:"name" json:"name"`
	Format string `yaml:"format" json:"format"`
}

// Weighted reports whether any label carries a weight.
func (d DimensionSpec) Weighted() bool {
	for _, l := range d.Labels {
		if l.Weight != 0 {
			return true
		}
	}
	return false
}

// ============================================================================
// MEASURES
// ============================================================================

// Distribution kinds.
const (
	DistNormal      = "normal"
	DistLogNormal   = "lognormal"
	DistBeta        = "beta"
	DistGamma       = "gamma"
	DistPoisson     = "poisson"
	DistExponential = "exponential"
	DistUniform     = "uniform"
)

// MeasureSpec declares one numeric column.
type MeasureSpec struct {
	Name         string       `yaml:"name" json:"name"`
	DisplayName  string       `yaml:"display_name,omitempty" json:"displayName,omitempty"`
	Unit         string       `yaml:"unit,omitempty" json:"unit,omitempty"`
	Distribution Distribution `yaml:"distribution" json:"distribution"`
	Clip         *Range       `yaml:"clip,omitempty" json:"clip,omitempty"`
	Precision    int          `yaml:"precision" json:"precision"`
	OffsetOf     string       `yaml:"offset_of,omitempty" json:"offsetOf,omitempty"` // add draws to an earlier measure
}

// Distribution names a parametric family and its parameters. Only the
// fields relevant to Kind are read.
type Distribution struct {
	Kind   string  `yaml:"kind" json:"kind"`
	Mean   float64 `yaml:"mean,omitempty" json:"mean,omitempty"`     // normal
	Std    float64 `yaml:"std,omitempty" json:"std,omitempty"`       // normal
	Mu     float64 `yaml:"mu,omitempty" json:"mu,omitempty"`         // lognormal
	Sigma  float64 `yaml:"sigma,omitempty" json:"sigma,omitempty"`   // lognormal
	Alpha  float64 `yaml:"alpha,omitempty" json:"alpha,omitempty"`   // beta
	Beta   float64 `yaml:"beta,omitempty" json:"beta,omitempty"`     // beta
	Shape  float64 `yaml:"shape,omitempty" json:"shape,omitempty"`   // gamma
	Scale  float64 `yaml:"scale,omitempty" json:"scale,omitempty"`   // gamma, exponential
	Lambda float64 `yaml:"lambda,omitempty" json:"lambda,omitempty"` // poisson
	Low    float64 `yaml:"low,omitempty" json:"low,omitempty"`       // uniform
	High   float64 `yaml:"high,omitempty" json:"high,omitempty"`     // uniform
	Shift  float64 `yaml:"shift,omitempty" json:"shift,omitempty"`   // added to every draw
}

// Range is an inclusive [Min, Max] interval.
type Range struct {
	Min float64 `yaml:"min" json:"min"`
	Max float64 `yaml:"max" json:"max"`
}

// Contains reports whether v lies inside the range.
func (r Range) Contains(v float64) bool {
	return v >= r.Min && v <= r.Max
}

// ============================================================================
// SCENARIO RULES
// ============================================================================

// Rule kinds.
const (
	RuleScale      = "scale"       // multiply by a fixed factor
	RuleScaleRange = "scale_range" // multiply by a per-row factor in [low, high)
	RuleOutliers   = "outliers"    // one random effect per sampled row
)

// Rule is a predicate (window ∧ dimension equality) plus multiplicative
// effects. Rules apply in declaration order and may compound.
type Rule struct {
	Name     string            `yaml:"name" json:"name"`
	Kind     string            `yaml:"kind" json:"kind"`
	Disabled bool              `yaml:"disabled,omitempty" json:"disabled,omitempty"`
	Window   Window            `yaml:"window,omitempty" json:"window,omitempty"`
	Match    map[string]string `yaml:"match,omitempty" json:"match,omitempty"`
	Effects  []Effect          `yaml:"effects" json:"effects"`
	Fraction float64           `yaml:"fraction,omitempty" json:"fraction,omitempty"` // outliers only
	Clamp    bool              `yaml:"clamp,omitempty" json:"clamp,omitempty"`
}

// Effect targets one measure. Scale rules read Factor; range and outlier
// rules read Low/High, falling back to Factor when both are zero.
type Effect struct {
	Metric string  `yaml:"metric" json:"metric"`
	Factor float64 `yaml:"factor,omitempty" json:"factor,omitempty"`
	Low    float64 `yaml:"low,omitempty" json:"low,omitempty"`
	High   float64 `yaml:"high,omitempty" json:"high,omitempty"`
}

// Ranged reports whether the effect draws a per-row factor.
func (e Effect) Ranged() bool {
	return e.Low != 0 || e.High != 0
}

// Window selects rows with timestamp ≥ its resolved start. At most one
// field is set; none means every row.
type Window struct {
	Since        string  `yaml:"since,omitempty" json:"since,omitempty"`
	LastDays     int     `yaml:"last_days,omitempty" json:"lastDays,omitempty"`
	LastFraction float64 `yaml:"last_fraction,omitempty" json:"lastFraction,omitempty"`
}

// IsZero reports whether the window is unbounded.
func (w Window) IsZero() bool {
	return w.Since == "" && w.LastDays == 0 && w.LastFraction == 0
}

// ============================================================================
// VALIDATION
// ============================================================================

// ValidationSpec holds the post-generation invariants.
type ValidationSpec struct {
	RequiredColumns   []string      `yaml:"required_columns,omitempty" json:"requiredColumns,omitempty"`
	MinSpanDays       int           `yaml:"min_span_days,omitempty" json:"minSpanDays,omitempty"`
	RecentDays        int           `yaml:"recent_days,omitempty" json:"recentDays,omitempty"`
	MinRecentFraction float64       `yaml:"min_recent_fraction,omitempty" json:"minRecentFraction,omitempty"`
	Expectations      []Expectation `yaml:"expectations,omitempty" json:"expectations,omitempty"`
}

// Expectation compares a metric's mean inside a window against the rows
// before it (same Match). Failing expectations only warn.
type Expectation struct {
	Name     string            `yaml:"name" json:"name"`
	Metric   string            `yaml:"metric" json:"metric"`
	Window   Window            `yaml:"window" json:"window"`
	Match    map[string]string `yaml:"match,omitempty" json:"match,omitempty"`
	MinRatio float64           `yaml:"min_ratio,omitempty" json:"minRatio,omitempty"`
	MaxRatio float64           `yaml:"max_ratio,omitempty" json:"maxRatio,omitempty"`
}

// ============================================================================
// EXPORT
// ============================================================================

// Export format names. The first two aliases match the generic sink names.
const (
	FormatCSV    = "csv"
	FormatSQLite = "sqlite"
	FormatXLSX   = "xlsx"
	FormatSchema = "schema"

	AliasTabularText      = "tabular_text"
	AliasColumnarAnalytic = "columnar_analytic"
)

// ExportSpec says where and how to write the dataset.
type ExportSpec struct {
	Formats         []string `yaml:"formats" json:"formats"`
	Dir             string   `yaml:"dir,omitempty" json:"dir,omitempty"`
	Basename        string   `yaml:"basename,omitempty" json:"basename,omitempty"`
	Table           string   `yaml:"table,omitempty" json:"table,omitempty"`
	TimestampSuffix bool     `yaml:"timestamp_suffix,omitempty" json:"timestampSuffix,omitempty"`
	Compress        string   `yaml:"compress,omitempty" json:"compress,omitempty"` // "", "snappy"
}

// HasFormat reports whether f (after alias resolution) is requested.
func (e ExportSpec) HasFormat(f string) bool {
	for _, got := range e.Formats {
		if NormalizeFormat(got) == f {
			return true
		}
	}
	return false
}

// NormalizeFormat resolves format aliases.
func NormalizeFormat(f string) string {
	switch f {
	case AliasTabularText:
		return FormatCSV
	case AliasColumnarAnalytic:
		return FormatSQLite
	}
	return f
}

// Summary documents the story the dataset is meant to tell.
type Summary struct {
	PrimaryInsight string   `yaml:"primary_insight,omitempty" json:"primaryInsight,omitempty"`
	Impact         string   `yaml:"impact,omitempty" json:"impact,omitempty"`
	Hints          []string `yaml:"hints,omitempty" json:"hints,omitempty"`
}

// ============================================================================
// LOOKUPS
// ============================================================================

// Measure returns the measure spec named key.
func (c Config) Measure(key string) (MeasureSpec, bool) {
	for _, m := range c.Measures {
		if m.Name == key {
			return m, true
		}
	}
	return MeasureSpec{}, false
}

// DimensionKeys returns every categorical column name, derived columns
// included, in output order.
func (c Config) DimensionKeys() []string {
	var keys []string
	for _, d := range c.Dimensions {
		keys = append(keys, d.Name)
		for _, dv := range d.Derive {
			keys = append(keys, dv.Name)
		}
	}
	return keys
}

// MeasureKeys returns all measure names in output order.
func (c Config) MeasureKeys() []string {
	keys := make([]string, len(c.Measures))
	for i, m := range c.Measures {
		keys[i] = m.Name
	}
	return keys
}

// TemporalKeys returns the timestamp column followed by calendar buckets.
func (c Config) TemporalKeys() []string {
	keys := []string{c.Dates.Column}
	for _, k := range []string{c.Dates.Calendar.Day, c.Dates.Calendar.WeekStart, c.Dates.Calendar.MonthStart} {
		if k != "" {
			keys = append(keys, k)
		}
	}
	return keys
}

// Columns returns every output column in order: row id, temporal,
// dimensions, measures.
func (c Config) Columns() []string {
	var cols []string
	if c.RowID != nil {
		cols = append(cols, c.RowID.Column)
	}
	cols = append(cols, c.TemporalKeys()...)
	cols = append(cols, c.DimensionKeys()...)
	cols = append(cols, c.MeasureKeys()...)
	return cols
}
