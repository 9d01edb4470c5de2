package scenario

import (
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spektr-org/synthdata/engine"
	"github.com/spektr-org/synthdata/generator"
	"github.com/spektr-org/synthdata/schema"
)

// ============================================================================
// SCENARIO INJECTOR TESTS
// ============================================================================
// Tests cover:
//   1. Scale rules — window ∧ match selection, exact multiplication
//   2. Range and outlier rules — per-row factors, one effect per outlier
//   3. No-ops — disabled rules, empty selections
//   4. Compounding, overlap warnings, clamping, errors
// ============================================================================

var (
	day0   = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	dayEnd = day0.AddDate(0, 0, 100)
)

// fixture: 100 daily rows, category alternating A/B, x = i+1, y = 10
func fixture(t *testing.T) *engine.Dataset {
	t.Helper()
	n := 100
	ds := engine.NewDataset(n, "as_of")
	ts := make([]time.Time, n)
	cat := make([]string, n)
	x := make([]float64, n)
	y := make([]float64, n)
	for i := 0; i < n; i++ {
		ts[i] = day0.AddDate(0, 0, i)
		cat[i] = []string{"A", "B"}[i%2]
		x[i] = float64(i + 1)
		y[i] = 10
	}
	require.NoError(t, ds.AddTime(engine.Column{Name: "as_of", Role: engine.RoleTimestamp}, ts))
	require.NoError(t, ds.AddDimension(engine.Column{Name: "category", Role: engine.RoleDimension}, cat))
	require.NoError(t, ds.AddMeasure(engine.Column{Name: "x", Role: engine.RoleMeasure, Precision: 2}, x))
	require.NoError(t, ds.AddMeasure(engine.Column{Name: "y", Role: engine.RoleMeasure, Precision: 2}, y))
	return ds
}

func fixtureConfig(rules ...schema.Rule) *schema.Config {
	return &schema.Config{
		Measures: []schema.MeasureSpec{
			{Name: "x", Clip: &schema.Range{Min: 0, Max: 50}, Precision: 2},
			{Name: "y", Precision: 2},
		},
		Scenarios: rules,
	}
}

func copyOf(v []float64) []float64 { return append([]float64(nil), v...) }

// ============================================================================
// SCALE
// ============================================================================

func TestApply_ScaleLastFractionOfCategory(t *testing.T) {
	ds := fixture(t)
	before := copyOf(ds.Measures("x"))

	rule := schema.Rule{
		Name:    "recent_b_doubling",
		Kind:    schema.RuleScale,
		Window:  schema.Window{LastFraction: 0.1},
		Match:   map[string]string{"category": "B"},
		Effects: []schema.Effect{{Metric: "x", Factor: 2}},
	}
	outcomes, err := Apply(ds, fixtureConfig(rule), day0, dayEnd, generator.NewSource(1))
	require.NoError(t, err)
	require.Len(t, outcomes, 1)

	// window starts at day 90; B rows are the odd ones
	want := copyOf(before)
	for _, i := range []int{91, 93, 95, 97, 99} {
		want[i] *= 2
	}
	if diff := cmp.Diff(want, ds.Measures("x")); diff != "" {
		t.Errorf("x after scale (-want +got):\n%s", diff)
	}

	o := outcomes[0]
	assert.Equal(t, 5, o.Matched)
	assert.Equal(t, 5, o.Affected)
	assert.Equal(t, []string{"x"}, o.Metrics)
	assert.Equal(t, day0.AddDate(0, 0, 90).Format(time.RFC3339), o.Since)

	for _, v := range ds.Measures("y") {
		assert.Equal(t, 10.0, v)
	}
}

func TestApply_EmptySelectionIsNoOp(t *testing.T) {
	ds := fixture(t)
	before := copyOf(ds.Measures("x"))

	rule := schema.Rule{
		Name:    "ghost",
		Kind:    schema.RuleScale,
		Match:   map[string]string{"category": "Z"},
		Effects: []schema.Effect{{Metric: "x", Factor: 5}},
	}
	outcomes, err := Apply(ds, fixtureConfig(rule), day0, dayEnd, generator.NewSource(1))
	require.NoError(t, err)

	assert.Equal(t, 0, outcomes[0].Matched)
	assert.Equal(t, 0, outcomes[0].Affected)
	assert.Equal(t, before, ds.Measures("x"))
}

func TestApply_DisabledRule(t *testing.T) {
	ds := fixture(t)
	before := copyOf(ds.Measures("x"))

	rule := schema.Rule{Name: "off", Kind: schema.RuleScale, Disabled: true, Effects: []schema.Effect{{Metric: "x", Factor: 3}}}
	outcomes, err := Apply(ds, fixtureConfig(rule), day0, dayEnd, generator.NewSource(1))
	require.NoError(t, err)

	assert.True(t, outcomes[0].Disabled)
	assert.Equal(t, before, ds.Measures("x"))
}

func TestApply_RulesCompoundInOrder(t *testing.T) {
	ds := fixture(t)
	rules := []schema.Rule{
		{Name: "double", Kind: schema.RuleScale, Effects: []schema.Effect{{Metric: "y", Factor: 2}}},
		{Name: "triple", Kind: schema.RuleScale, Effects: []schema.Effect{{Metric: "y", Factor: 3}}},
	}
	outcomes, err := Apply(ds, fixtureConfig(rules...), day0, dayEnd, generator.NewSource(1))
	require.NoError(t, err)

	for _, v := range ds.Measures("y") {
		assert.Equal(t, 60.0, v)
	}

	warnings := Overlaps(outcomes)
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], `"double" and "triple"`)
	assert.Contains(t, warnings[0], "100 shared rows")
}

func TestOverlaps_DisjointSelections(t *testing.T) {
	ds := fixture(t)
	rules := []schema.Rule{
		{Name: "a", Kind: schema.RuleScale, Match: map[string]string{"category": "A"}, Effects: []schema.Effect{{Metric: "x", Factor: 2}}},
		{Name: "b", Kind: schema.RuleScale, Match: map[string]string{"category": "B"}, Effects: []schema.Effect{{Metric: "x", Factor: 2}}},
		{Name: "y", Kind: schema.RuleScale, Effects: []schema.Effect{{Metric: "y", Factor: 2}}},
	}
	outcomes, err := Apply(ds, fixtureConfig(rules...), day0, dayEnd, generator.NewSource(1))
	require.NoError(t, err)
	assert.Empty(t, Overlaps(outcomes))
}

// ============================================================================
// RANGE AND OUTLIERS
// ============================================================================

func TestApply_ScaleRange(t *testing.T) {
	ds := fixture(t)
	before := copyOf(ds.Measures("x"))

	rule := schema.Rule{
		Name:    "manufacturing_drift",
		Kind:    schema.RuleScaleRange,
		Window:  schema.Window{LastDays: 20},
		Effects: []schema.Effect{{Metric: "x", Low: 1.1, High: 1.3}},
	}
	outcomes, err := Apply(ds, fixtureConfig(rule), day0, dayEnd, generator.NewSource(4))
	require.NoError(t, err)
	assert.Equal(t, 20, outcomes[0].Affected)

	x := ds.Measures("x")
	distinct := map[float64]bool{}
	for i := range x {
		ratio := x[i] / before[i]
		if i < 80 {
			assert.Equal(t, 1.0, ratio, "row %d outside window", i)
			continue
		}
		assert.True(t, ratio >= 1.1-1e-9 && ratio < 1.3+1e-9, "row %d ratio %g", i, ratio)
		distinct[ratio] = true
	}
	assert.Greater(t, len(distinct), 1, "factor drawn per row")
}

func TestApply_OutliersOneEffectPerRow(t *testing.T) {
	ds := fixture(t)
	beforeX, beforeY := copyOf(ds.Measures("x")), copyOf(ds.Measures("y"))

	rule := schema.Rule{
		Name:     "data_quality",
		Kind:     schema.RuleOutliers,
		Fraction: 0.2,
		Effects: []schema.Effect{
			{Metric: "x", Low: 2, High: 3},
			{Metric: "y", Low: 0.1, High: 0.2},
		},
	}
	outcomes, err := Apply(ds, fixtureConfig(rule), day0, dayEnd, generator.NewSource(5))
	require.NoError(t, err)
	assert.Equal(t, 100, outcomes[0].Matched)
	assert.Equal(t, 20, outcomes[0].Affected)

	changed := 0
	for i := 0; i < 100; i++ {
		dx := ds.Measures("x")[i] != beforeX[i]
		dy := ds.Measures("y")[i] != beforeY[i]
		assert.False(t, dx && dy, "row %d has two effects", i)
		if dx || dy {
			changed++
		}
	}
	assert.Equal(t, 20, changed)
}

func TestApply_OutliersDeterministic(t *testing.T) {
	rule := schema.Rule{
		Name:     "spikes",
		Kind:     schema.RuleOutliers,
		Fraction: 0.1,
		Effects:  []schema.Effect{{Metric: "x", Factor: 4}, {Metric: "y", Low: 0.5, High: 0.6}},
	}
	a, b := fixture(t), fixture(t)
	_, err := Apply(a, fixtureConfig(rule), day0, dayEnd, generator.NewSource(8))
	require.NoError(t, err)
	_, err = Apply(b, fixtureConfig(rule), day0, dayEnd, generator.NewSource(8))
	require.NoError(t, err)

	assert.Equal(t, a.Measures("x"), b.Measures("x"))
	assert.Equal(t, a.Measures("y"), b.Measures("y"))
}

// ============================================================================
// CLAMP AND ERRORS
// ============================================================================

func TestApply_Clamp(t *testing.T) {
	ds := fixture(t)
	rule := schema.Rule{Name: "boom", Kind: schema.RuleScale, Clamp: true, Effects: []schema.Effect{{Metric: "x", Factor: 100}}}
	_, err := Apply(ds, fixtureConfig(rule), day0, dayEnd, generator.NewSource(1))
	require.NoError(t, err)

	assert.Equal(t, 50.0, engine.MaxMeasure(ds, "x"))
	assert.Equal(t, 50.0, engine.MinMeasure(ds, "x"), "x = 1 × 100 clamps to 50 as well")
}

func TestApply_Unclamped(t *testing.T) {
	ds := fixture(t)
	rule := schema.Rule{Name: "boom", Kind: schema.RuleScale, Effects: []schema.Effect{{Metric: "x", Factor: 100}}}
	_, err := Apply(ds, fixtureConfig(rule), day0, dayEnd, generator.NewSource(1))
	require.NoError(t, err)
	assert.Equal(t, 10000.0, engine.MaxMeasure(ds, "x"))
}

func TestApply_Errors(t *testing.T) {
	tests := []struct {
		name string
		rule schema.Rule
		want string
	}{
		{"unknown metric", schema.Rule{Name: "r", Kind: schema.RuleScale, Effects: []schema.Effect{{Metric: "z", Factor: 2}}}, `unknown metric "z"`},
		{"unknown kind", schema.Rule{Name: "r", Kind: "swap", Effects: []schema.Effect{{Metric: "x", Factor: 2}}}, `unknown rule kind "swap"`},
		{"bad since", schema.Rule{Name: "r", Kind: schema.RuleScale, Window: schema.Window{Since: "yesterday"}, Effects: []schema.Effect{{Metric: "x", Factor: 2}}}, "unrecognized date"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Apply(fixture(t), fixtureConfig(tt.rule), day0, dayEnd, generator.NewSource(1))
			require.Error(t, err)
			assert.ErrorContains(t, err, tt.want)

			var ce *schema.ConfigError
			assert.True(t, errors.As(err, &ce))
		})
	}
}

func TestSelect(t *testing.T) {
	ds := fixture(t)

	rows, since, err := Select(ds, schema.Window{}, nil, day0, dayEnd)
	require.NoError(t, err)
	assert.Len(t, rows, 100)
	assert.True(t, since.IsZero())

	rows, _, err = Select(ds, schema.Window{Since: "2024-04-05"}, map[string]string{"category": "A"}, day0, dayEnd)
	require.NoError(t, err)
	assert.Equal(t, []int{96, 98}, rows)
}
