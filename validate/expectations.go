package validate

import (
	"fmt"
	"time"

	"github.com/spektr-org/synthdata/engine"
	"github.com/spektr-org/synthdata/schema"
)

// ============================================================================
// EXPECTATIONS — does the injected story show up in the data?
// ============================================================================
// Each expectation compares a metric's mean inside its window with the
// mean before the window for the same dimension match. Results are
// advisory: a miss becomes a warning, never an error.
// ============================================================================

// Result is the outcome of one expectation.
type Result struct {
	Name     string  `json:"name"`
	Metric   string  `json:"metric"`
	Window   float64 `json:"windowMean"`
	Baseline float64 `json:"baselineMean"`
	Ratio    float64 `json:"ratio"`
	Rows     int     `json:"rows"`
	Passed   bool    `json:"passed"`
	Message  string  `json:"message"`
}

// Evaluate runs every configured expectation against ds.
func Evaluate(ds *engine.Dataset, cfg *schema.Config, start, end time.Time) []Result {
	results := make([]Result, 0, len(cfg.Validation.Expectations))
	for _, e := range cfg.Validation.Expectations {
		results = append(results, evaluate(ds, e, start, end))
	}
	return results
}

func evaluate(view engine.RecordView, e schema.Expectation, start, end time.Time) Result {
	res := Result{Name: e.Name, Metric: e.Metric}

	since, err := e.Window.Start(start, end)
	if err != nil {
		res.Message = err.Error()
		return res
	}
	dims := engine.Equal(e.Match)
	inside := engine.ApplyFilters(view, engine.Filters{Since: since, Dimensions: dims})
	before := engine.ApplyFilters(view, engine.Filters{Before: since, Dimensions: dims})
	res.Rows = inside.Len()

	if inside.Len() == 0 || before.Len() == 0 {
		res.Message = fmt.Sprintf("%s: not enough rows (window %d, baseline %d)", e.Name, inside.Len(), before.Len())
		return res
	}

	res.Window = engine.AvgMeasure(inside, e.Metric)
	res.Baseline = engine.AvgMeasure(before, e.Metric)
	if res.Baseline == 0 {
		res.Message = fmt.Sprintf("%s: baseline mean of %s is zero", e.Name, e.Metric)
		return res
	}
	res.Ratio = res.Window / res.Baseline

	res.Passed = true
	if e.MinRatio > 0 && res.Ratio < e.MinRatio {
		res.Passed = false
	}
	if e.MaxRatio > 0 && res.Ratio > e.MaxRatio {
		res.Passed = false
	}

	verdict := "ok"
	if !res.Passed {
		verdict = "not met"
	}
	res.Message = fmt.Sprintf("%s: %s ratio %.2f (window %.2f vs baseline %.2f) %s",
		e.Name, e.Metric, res.Ratio, res.Window, res.Baseline, verdict)
	return res
}

// Warnings returns the messages of every failed expectation.
func Warnings(results []Result) []string {
	var out []string
	for _, r := range results {
		if !r.Passed {
			out = append(out, r.Message)
		}
	}
	return out
}
