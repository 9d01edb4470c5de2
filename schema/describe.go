package schema

import (
	"fmt"
	"strconv"
	"strings"
)

// ============================================================================
// METADATA — Describes a generated dataset in dimension/measure terms
// ============================================================================
// Written next to the data files (format "schema") so analytics tools can
// group by dimensions and aggregate measures without re-discovering the
// column roles from the CSV.
// ============================================================================

// Metadata describes the shape of an exported dataset.
type Metadata struct {
	Name        string `json:"name"`
	Version     string `json:"version,omitempty"`
	Description string `json:"description,omitempty"`

	Dimensions []DimensionMeta `json:"dimensions"`
	Measures   []MeasureMeta   `json:"measures"`

	// Generation provenance
	Seed      int64    `json:"seed"`
	Rows      int      `json:"rows"`
	Columns   []string `json:"columns"`
	Scenarios []string `json:"scenarios,omitempty"`
	Summary   *Summary `json:"summary,omitempty"`
}

// DimensionMeta describes a string or temporal field used for grouping/filtering.
type DimensionMeta struct {
	Key             string   `json:"key"`
	DisplayName     string   `json:"displayName"`
	Description     string   `json:"description,omitempty"`
	DataType        string   `json:"dataType"` // "text", "integer", "timestamp", "date"
	SampleValues    []string `json:"sampleValues,omitempty"`
	Groupable       bool     `json:"groupable"`
	Filterable      bool     `json:"filterable"`
	Parent          string   `json:"parent,omitempty"`
	IsTemporal      bool     `json:"isTemporal,omitempty"`
	TemporalFormat  string   `json:"temporalFormat,omitempty"`
	CardinalityHint string   `json:"cardinalityHint,omitempty"` // "low", "medium", "high"
	DerivedFrom     string   `json:"derivedFrom,omitempty"`
}

// MeasureMeta describes a numeric field used for aggregation.
type MeasureMeta struct {
	Key                string   `json:"key"`
	DisplayName        string   `json:"displayName"`
	Unit               string   `json:"unit,omitempty"`
	Distribution       string   `json:"distribution"`
	Min                *float64 `json:"min,omitempty"`
	Max                *float64 `json:"max,omitempty"`
	Precision          int      `json:"precision"`
	Aggregations       []string `json:"aggregations,omitempty"`
	DefaultAggregation string   `json:"defaultAggregation,omitempty"`
	Format             string   `json:"format,omitempty"`
}

// Column data types.
const (
	TypeText      = "text"
	TypeInteger   = "integer"
	TypeReal      = "real"
	TypeTimestamp = "timestamp"
	TypeDate      = "date"
)

// maxSamples caps the sample values listed per dimension.
const maxSamples = 10

// Describe builds the metadata for datasets generated from c.
func Describe(c *Config) Metadata {
	meta := Metadata{
		Name:        c.Name,
		Version:     "1.0",
		Description: c.Description,
		Seed:        c.Seed,
		Rows:        c.Rows,
		Columns:     c.Columns(),
	}
	if c.Summary.PrimaryInsight != "" || len(c.Summary.Hints) > 0 {
		s := c.Summary
		meta.Summary = &s
	}
	for _, r := range c.Scenarios {
		if !r.Disabled {
			meta.Scenarios = append(meta.Scenarios, r.Name)
		}
	}

	if c.RowID != nil {
		meta.Dimensions = append(meta.Dimensions, DimensionMeta{
			Key:             c.RowID.Column,
			DisplayName:     toDisplayName(c.RowID.Column),
			DataType:        TypeText,
			Filterable:      true,
			CardinalityHint: "high",
		})
	}

	meta.Dimensions = append(meta.Dimensions, DimensionMeta{
		Key:             c.Dates.Column,
		DisplayName:     toDisplayName(c.Dates.Column),
		DataType:        TypeTimestamp,
		Filterable:      true,
		IsTemporal:      true,
		TemporalFormat:  c.Dates.Layout,
		CardinalityHint: "high",
	})
	for _, bucket := range []string{c.Dates.Calendar.Day, c.Dates.Calendar.WeekStart, c.Dates.Calendar.MonthStart} {
		if bucket == "" {
			continue
		}
		meta.Dimensions = append(meta.Dimensions, DimensionMeta{
			Key:            bucket,
			DisplayName:    toDisplayName(bucket),
			DataType:       TypeDate,
			Groupable:      true,
			Filterable:     true,
			IsTemporal:     true,
			TemporalFormat: c.Dates.DateLayout,
			DerivedFrom:    c.Dates.Column,
		})
	}

	for _, d := range c.Dimensions {
		meta.Dimensions = append(meta.Dimensions, describeDimension(d)...)
	}
	for _, m := range c.Measures {
		meta.Measures = append(meta.Measures, describeMeasure(m))
	}
	return meta
}

func describeDimension(d DimensionSpec) []DimensionMeta {
	var samples []string
	var cardinality int
	dataType := TypeText

	if d.Keys != nil {
		dataType = TypeInteger
		cardinality = d.Keys.To - d.Keys.From + 1
		for k := d.Keys.From; k <= d.Keys.To && len(samples) < maxSamples; k++ {
			samples = append(samples, strconv.Itoa(k))
		}
	} else {
		cardinality = len(d.Labels)
		for _, l := range d.Labels {
			if len(samples) == maxSamples {
				break
			}
			samples = append(samples, l.Value)
		}
	}

	display := d.DisplayName
	if display == "" {
		display = toDisplayName(d.Name)
	}
	out := []DimensionMeta{{
		Key:             d.Name,
		DisplayName:     display,
		DataType:        dataType,
		SampleValues:    samples,
		Groupable:       true,
		Filterable:      true,
		CardinalityHint: cardinalityHint(cardinality),
	}}

	for _, dv := range d.Derive {
		derived := make([]string, len(samples))
		for i, s := range samples {
			derived[i] = formatDerived(dv.Format, s, d.Keys != nil)
		}
		out = append(out, DimensionMeta{
			Key:             dv.Name,
			DisplayName:     toDisplayName(dv.Name),
			DataType:        TypeText,
			SampleValues:    derived,
			Groupable:       true,
			Filterable:      true,
			CardinalityHint: cardinalityHint(cardinality),
			DerivedFrom:     d.Name,
		})
	}
	return out
}

func describeMeasure(m MeasureSpec) MeasureMeta {
	display := m.DisplayName
	if display == "" {
		display = toDisplayName(m.Name)
	}
	meta := MeasureMeta{
		Key:                m.Name,
		DisplayName:        display,
		Unit:               m.Unit,
		Distribution:       m.Distribution.Kind,
		Precision:          m.Precision,
		Aggregations:       []string{"sum", "avg", "min", "max", "count"},
		DefaultAggregation: defaultAggregation(m),
		Format:             numberFormat(m.Precision),
	}
	if m.Clip != nil {
		lo, hi := m.Clip.Min, m.Clip.Max
		meta.Min, meta.Max = &lo, &hi
	}
	return meta
}

// defaultAggregation sums counts and money, averages everything else.
func defaultAggregation(m MeasureSpec) string {
	if m.Distribution.Kind == DistPoisson || m.Unit == "currency" || m.Unit == "count" {
		return "sum"
	}
	return "avg"
}

func numberFormat(precision int) string {
	if precision == 0 {
		return "#,##0"
	}
	return "#,##0." + strings.Repeat("0", precision)
}

func cardinalityHint(n int) string {
	switch {
	case n <= 10:
		return "low"
	case n <= 100:
		return "medium"
	default:
		return "high"
	}
}

// formatDerived renders a derive format against a drawn value. Integer
// keys are passed as ints so %03d works.
func formatDerived(format, value string, integer bool) string {
	if integer {
		if n, err := strconv.Atoi(value); err == nil {
			return FormatDerived(format, n)
		}
	}
	return FormatDerivedLabel(format, value)
}

// FormatDerived is formatDerived for integer keys.
func FormatDerived(format string, key int) string {
	return fmt.Sprintf(format, key)
}

// FormatDerivedLabel is formatDerived for label pools.
func FormatDerivedLabel(format, label string) string {
	return fmt.Sprintf(format, label)
}

// toDisplayName cleans a column key for human display.
// "case_mttr_hours" → "Case Mttr Hours", "Report_Date" → "Report Date"
func toDisplayName(s string) string {
	if strings.Contains(s, " ") {
		return strings.TrimSpace(s)
	}

	s = strings.ReplaceAll(s, "_", " ")
	s = strings.ReplaceAll(s, "-", " ")

	words := strings.Fields(s)
	for i, w := range words {
		if len(w) > 0 {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}

// DimensionKeys returns all dimension keys.
func (m Metadata) DimensionKeys() []string {
	keys := make([]string, len(m.Dimensions))
	for i, d := range m.Dimensions {
		keys[i] = d.Key
	}
	return keys
}

// MeasureKeys returns all measure keys.
func (m Metadata) MeasureKeys() []string {
	keys := make([]string, len(m.Measures))
	for i, ms := range m.Measures {
		keys[i] = ms.Key
	}
	return keys
}

// Dimension returns the dimension metadata for key.
func (m Metadata) Dimension(key string) (DimensionMeta, bool) {
	for _, d := range m.Dimensions {
		if d.Key == key {
			return d, true
		}
	}
	return DimensionMeta{}, false
}
