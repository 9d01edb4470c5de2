// Package scenario injects rule-driven multiplicative patterns into a
// generated dataset.
package scenario

import (
	"fmt"
	"sort"
	"time"

	"github.com/spektr-org/synthdata/engine"
	"github.com/spektr-org/synthdata/generator"
	"github.com/spektr-org/synthdata/schema"
)

// ============================================================================
// SCENARIO INJECTOR — one routine interprets every rule kind
// ============================================================================
// Selection reads only the timestamp and dimension columns, so a rule's
// rows never depend on what earlier rules did to the measures. Effects
// compound when selections overlap.
// ============================================================================

// Outcome reports what one rule did.
type Outcome struct {
	Rule     string   `json:"rule"`
	Kind     string   `json:"kind"`
	Disabled bool     `json:"disabled,omitempty"`
	Since    string   `json:"since,omitempty"`
	Matched  int      `json:"matched"`
	Affected int      `json:"affected"`
	Metrics  []string `json:"metrics"`

	rows []int
}

// Apply runs the rules in order against ds. Windows resolve against
// [start, end]. Measures listed in cfg supply clip ranges for clamped
// rules.
func Apply(ds *engine.Dataset, cfg *schema.Config, start, end time.Time, src *generator.Source) ([]Outcome, error) {
	outcomes := make([]Outcome, 0, len(cfg.Scenarios))
	for i, rule := range cfg.Scenarios {
		out, err := ApplyRule(ds, cfg, rule, start, end, src)
		if err != nil {
			return outcomes, fmt.Errorf("scenario %d (%s): %w", i, rule.Name, err)
		}
		outcomes = append(outcomes, out)
	}
	return outcomes, nil
}

// ApplyRule applies one rule. An empty selection is a no-op.
func ApplyRule(ds *engine.Dataset, cfg *schema.Config, rule schema.Rule, start, end time.Time, src *generator.Source) (Outcome, error) {
	out := Outcome{Rule: rule.Name, Kind: rule.Kind, Disabled: rule.Disabled}
	for _, e := range rule.Effects {
		out.Metrics = append(out.Metrics, e.Metric)
	}
	if rule.Disabled {
		return out, nil
	}

	columns := make([][]float64, len(rule.Effects))
	for i, e := range rule.Effects {
		columns[i] = ds.Measures(e.Metric)
		if columns[i] == nil {
			return out, &schema.ConfigError{Field: "scenarios." + rule.Name, Reason: fmt.Sprintf("unknown metric %q", e.Metric)}
		}
	}

	rows, since, err := Select(ds, rule.Window, rule.Match, start, end)
	if err != nil {
		return out, &schema.ConfigError{Field: "scenarios." + rule.Name + ".window", Reason: err.Error()}
	}
	if !since.IsZero() {
		out.Since = since.Format(time.RFC3339)
	}
	out.Matched = len(rows)
	if len(rows) == 0 {
		return out, nil
	}

	switch rule.Kind {
	case schema.RuleScale:
		for i, e := range rule.Effects {
			for _, r := range rows {
				columns[i][r] *= e.Factor
			}
		}
		out.rows = rows

	case schema.RuleScaleRange:
		for i, e := range rule.Effects {
			for _, r := range rows {
				columns[i][r] *= factor(e, src)
			}
		}
		out.rows = rows

	case schema.RuleOutliers:
		k := int(float64(len(rows)) * rule.Fraction)
		picks := src.Sample(len(rows), k)
		out.rows = make([]int, len(picks))
		for j, p := range picks {
			r := rows[p]
			i := src.Intn(len(rule.Effects))
			columns[i][r] *= factor(rule.Effects[i], src)
			out.rows[j] = r
		}
		sort.Ints(out.rows)

	default:
		return out, &schema.ConfigError{Field: "scenarios." + rule.Name + ".kind", Reason: fmt.Sprintf("unknown rule kind %q", rule.Kind)}
	}
	out.Affected = len(out.rows)

	if rule.Clamp {
		for i, e := range rule.Effects {
			m, ok := cfg.Measure(e.Metric)
			if !ok || m.Clip == nil {
				continue
			}
			for _, r := range out.rows {
				columns[i][r] = generator.Clip(columns[i][r], m.Clip)
			}
		}
	}
	return out, nil
}

// Select returns the dataset rows whose timestamp is at or after the
// window start and whose dimensions equal match. The resolved window
// start is returned (zero for an unbounded window).
func Select(ds *engine.Dataset, w schema.Window, match map[string]string, start, end time.Time) ([]int, time.Time, error) {
	var since time.Time
	if !w.IsZero() {
		var err error
		if since, err = w.Start(start, end); err != nil {
			return nil, time.Time{}, err
		}
	}
	view := engine.ApplyFilters(ds, engine.Filters{Since: since, Dimensions: engine.Equal(match)})
	return engine.Indices(view), since, nil
}

// factor returns the effect's multiplier for one row.
func factor(e schema.Effect, src *generator.Source) float64 {
	if e.Ranged() {
		return src.Uniform(e.Low, e.High)
	}
	return e.Factor
}

// Overlaps reports every pair of rules that modified the same metric on
// at least one shared row. Such effects compound.
func Overlaps(outcomes []Outcome) []string {
	var warnings []string
	for i := 0; i < len(outcomes); i++ {
		for j := i + 1; j < len(outcomes); j++ {
			a, b := outcomes[i], outcomes[j]
			shared := sharedMetrics(a.Metrics, b.Metrics)
			if len(shared) == 0 {
				continue
			}
			if n := intersect(a.rows, b.rows); n > 0 {
				warnings = append(warnings, fmt.Sprintf(
					"scenarios %q and %q both modify %v on %d shared rows; effects compound",
					a.Rule, b.Rule, shared, n))
			}
		}
	}
	return warnings
}

func sharedMetrics(a, b []string) []string {
	set := make(map[string]bool, len(a))
	for _, m := range a {
		set[m] = true
	}
	var out []string
	for _, m := range b {
		if set[m] {
			out = append(out, m)
			delete(set, m)
		}
	}
	return out
}

// intersect counts common values of two ascending index lists.
func intersect(a, b []int) int {
	n, i, j := 0, 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i] == b[j]:
			n++
			i++
			j++
		case a[i] < b[j]:
			i++
		default:
			j++
		}
	}
	return n
}
