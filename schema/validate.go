package schema

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
)

// ============================================================================
// CONFIG VALIDATION — runs before any row is generated
// ============================================================================

// MaxPrecision bounds the decimal places a measure may declare.
const MaxPrecision = 12

// Validate checks the configuration against the current clock.
func (c *Config) Validate() error {
	return c.ValidateAt(time.Now())
}

// ValidateAt checks the configuration, resolving an open-ended date range
// against now. Every problem found is returned, joined.
func (c *Config) ValidateAt(now time.Time) error {
	var errs []error
	add := func(err error) {
		if err != nil {
			errs = append(errs, err)
		}
	}

	if c.Rows <= 0 {
		add(configErr("rows", "must be > 0, got %d", c.Rows))
	}

	add(c.validateDates(now))

	// Column names are unique across the whole output schema.
	seen := make(map[string]bool)
	for _, col := range c.Columns() {
		if col == "" {
			add(configErr("columns", "empty column name"))
			continue
		}
		if seen[col] {
			add(configErr("columns", "duplicate column %q", col))
		}
		seen[col] = true
	}

	for i, d := range c.Dimensions {
		add(validateDimension(fmt.Sprintf("dimensions[%d]", i), d))
	}

	measureSeen := make(map[string]bool)
	for i, m := range c.Measures {
		field := fmt.Sprintf("measures[%d]", i)
		add(validateMeasure(field, m))
		if m.OffsetOf != "" && !measureSeen[m.OffsetOf] {
			add(configErr(field+".offset_of", "%q must name an earlier measure", m.OffsetOf))
		}
		measureSeen[m.Name] = true
	}

	dims := make(map[string]bool)
	for _, k := range c.DimensionKeys() {
		dims[k] = true
	}
	for i, r := range c.Scenarios {
		add(validateRule(fmt.Sprintf("scenarios[%d]", i), r, dims, measureSeen))
	}

	add(c.validateValidation(dims, measureSeen))
	add(c.validateExport())

	return errors.Join(errs...)
}

func (c *Config) validateDates(now time.Time) error {
	start, end, err := c.Dates.Resolve(now)
	if err != nil {
		return configErr("dates", "%v", err)
	}

	days := Days(start, end)
	if days < 1 {
		return configErr("dates", "range must cover at least one day")
	}

	dist := c.Dates.Distribution
	switch dist.Kind {
	case TimeLinear:
		if dist.MinWeight < 0 || dist.MaxWeight <= 0 {
			return configErr("dates.distribution", "linear weights must satisfy min_weight >= 0 and max_weight > 0")
		}
		if dist.MaxWeight < dist.MinWeight {
			return configErr("dates.distribution", "max_weight must be >= min_weight to favour recent dates")
		}
	case TimeSplit:
		if dist.RecentShare <= 0 || dist.RecentShare >= 1 {
			return configErr("dates.distribution.recent_share", "must be in (0, 1), got %g", dist.RecentShare)
		}
		if dist.RecentDays <= 0 || dist.RecentDays >= days {
			return configErr("dates.distribution.recent_days", "must be in (0, %d), got %d", days, dist.RecentDays)
		}
	default:
		return configErr("dates.distribution.kind", "unknown kind %q (want %s or %s)", dist.Kind, TimeLinear, TimeSplit)
	}
	return nil
}

func validateDimension(field string, d DimensionSpec) error {
	if d.Name == "" {
		return configErr(field+".name", "required")
	}
	field = fmt.Sprintf("dimensions[%s]", d.Name)

	switch {
	case d.Keys != nil && len(d.Labels) > 0:
		return configErr(field, "labels and keys are mutually exclusive")
	case d.Keys != nil:
		if d.Keys.To < d.Keys.From {
			return configErr(field+".keys", "empty pool: to %d < from %d", d.Keys.To, d.Keys.From)
		}
	case len(d.Labels) == 0:
		return configErr(field+".labels", "empty pool")
	default:
		total := 0.0
		for _, l := range d.Labels {
			if l.Weight < 0 || math.IsNaN(l.Weight) || math.IsInf(l.Weight, 0) {
				return configErr(field+".labels", "weight for %q must be a finite non-negative number", l.Value)
			}
			total += l.Weight
		}
		if d.Weighted() && total == 0 {
			return configErr(field+".labels", "weights sum to zero")
		}
	}

	for _, dv := range d.Derive {
		if dv.Name == "" || dv.Format == "" {
			return configErr(field+".derive", "name and format are required")
		}
		if !strings.Contains(dv.Format, "%") {
			return configErr(field+".derive", "format %q has no verb", dv.Format)
		}
	}
	return nil
}

func validateMeasure(field string, m MeasureSpec) error {
	if m.Name == "" {
		return configErr(field+".name", "required")
	}
	field = fmt.Sprintf("measures[%s]", m.Name)

	if m.Precision < 0 || m.Precision > MaxPrecision {
		return configErr(field+".precision", "must be in [0, %d], got %d", MaxPrecision, m.Precision)
	}
	if m.Clip != nil && m.Clip.Min > m.Clip.Max {
		return configErr(field+".clip", "min %g > max %g", m.Clip.Min, m.Clip.Max)
	}

	d := m.Distribution
	bad := func(format string, args ...any) error {
		return configErr(field+".distribution", format, args...)
	}
	switch d.Kind {
	case DistNormal:
		if d.Std < 0 {
			return bad("normal std must be >= 0")
		}
	case DistLogNormal:
		if d.Sigma < 0 {
			return bad("lognormal sigma must be >= 0")
		}
	case DistBeta:
		if d.Alpha <= 0 || d.Beta <= 0 {
			return bad("beta alpha and beta must be > 0")
		}
	case DistGamma:
		if d.Shape <= 0 || d.Scale <= 0 {
			return bad("gamma shape and scale must be > 0")
		}
	case DistPoisson:
		if d.Lambda < 0 {
			return bad("poisson lambda must be >= 0")
		}
	case DistExponential:
		if d.Scale <= 0 {
			return bad("exponential scale must be > 0")
		}
	case DistUniform:
		if d.High < d.Low {
			return bad("uniform high must be >= low")
		}
	case "":
		return bad("kind is required")
	default:
		return bad("unknown kind %q", d.Kind)
	}
	return nil
}

func validateRule(field string, r Rule, dims, measures map[string]bool) error {
	if r.Name != "" {
		field = fmt.Sprintf("scenarios[%s]", r.Name)
	}
	if err := validateWindow(field+".window", r.Window); err != nil {
		return err
	}
	for dim := range r.Match {
		if !dims[dim] {
			return configErr(field+".match", "unknown dimension %q", dim)
		}
	}
	if len(r.Effects) == 0 {
		return configErr(field+".effects", "at least one effect is required")
	}

	for _, e := range r.Effects {
		if !measures[e.Metric] {
			return configErr(field+".effects", "unknown metric %q", e.Metric)
		}
		switch r.Kind {
		case RuleScale:
			if e.Ranged() {
				return configErr(field+".effects", "scale rules take a factor, not low/high")
			}
		case RuleScaleRange, RuleOutliers:
			if e.Ranged() && e.Low >= e.High {
				return configErr(field+".effects", "range for %q needs low < high", e.Metric)
			}
			if !e.Ranged() && e.Factor == 0 {
				return configErr(field+".effects", "effect on %q needs low/high or a factor", e.Metric)
			}
		}
	}

	switch r.Kind {
	case RuleScale, RuleScaleRange:
		if r.Fraction != 0 {
			return configErr(field+".fraction", "only valid for %s rules", RuleOutliers)
		}
	case RuleOutliers:
		if r.Fraction <= 0 || r.Fraction > 1 {
			return configErr(field+".fraction", "must be in (0, 1], got %g", r.Fraction)
		}
	default:
		return configErr(field+".kind", "unknown kind %q (want %s, %s or %s)",
			r.Kind, RuleScale, RuleScaleRange, RuleOutliers)
	}
	return nil
}

func validateWindow(field string, w Window) error {
	set := 0
	if w.Since != "" {
		set++
		if _, err := ParseTime(w.Since); err != nil {
			return configErr(field+".since", "%v", err)
		}
	}
	if w.LastDays != 0 {
		set++
		if w.LastDays < 0 {
			return configErr(field+".last_days", "must be > 0")
		}
	}
	if w.LastFraction != 0 {
		set++
		if w.LastFraction < 0 || w.LastFraction > 1 {
			return configErr(field+".last_fraction", "must be in (0, 1]")
		}
	}
	if set > 1 {
		return configErr(field, "set only one of since, last_days, last_fraction")
	}
	return nil
}

func (c *Config) validateValidation(dims, measures map[string]bool) error {
	v := c.Validation
	if v.MinSpanDays < 0 {
		return configErr("validation.min_span_days", "must be >= 0")
	}
	if v.MinRecentFraction < 0 || v.MinRecentFraction > 1 {
		return configErr("validation.min_recent_fraction", "must be in [0, 1]")
	}
	if v.MinRecentFraction > 0 && v.RecentDays <= 0 {
		return configErr("validation.recent_days", "required when min_recent_fraction is set")
	}
	for i, e := range v.Expectations {
		field := fmt.Sprintf("validation.expectations[%d]", i)
		if !measures[e.Metric] {
			return configErr(field+".metric", "unknown metric %q", e.Metric)
		}
		if e.Window.IsZero() {
			return configErr(field+".window", "required")
		}
		if err := validateWindow(field+".window", e.Window); err != nil {
			return err
		}
		for dim := range e.Match {
			if !dims[dim] {
				return configErr(field+".match", "unknown dimension %q", dim)
			}
		}
	}
	return nil
}

func (c *Config) validateExport() error {
	for _, f := range c.Export.Formats {
		switch NormalizeFormat(f) {
		case FormatCSV, FormatSQLite, FormatXLSX, FormatSchema:
		default:
			return configErr("export.formats", "unknown format %q", f)
		}
	}
	switch c.Export.Compress {
	case "", "snappy":
	default:
		return configErr("export.compress", "unknown compression %q", c.Export.Compress)
	}
	if strings.ContainsAny(c.Export.Basename, `/\`) {
		return configErr("export.basename", "must not contain path separators")
	}
	return nil
}
