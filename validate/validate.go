// Package validate checks a generated dataset before it is exported.
package validate

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/spektr-org/synthdata/engine"
	"github.com/spektr-org/synthdata/schema"
)

const day = 24 * time.Hour

// Check names.
const (
	CheckRowCount        = "row count"
	CheckColumnLength    = "column length"
	CheckRequiredColumns = "required columns"
	CheckDateSpan        = "date span"
	CheckRecentFraction  = "recent fraction"
	CheckFiniteMeasures  = "finite measures"
)

// ValidationError reports a violated dataset invariant. Nothing is
// exported once one is raised.
type ValidationError struct {
	Check    string
	Observed float64
	Expected string
	Detail   string
}

func (e *ValidationError) Error() string {
	msg := fmt.Sprintf("validation failed: %s: observed %g, expected %s", e.Check, e.Observed, e.Expected)
	if e.Detail != "" {
		msg += " (" + e.Detail + ")"
	}
	return msg
}

// IsValidationError reports whether err wraps a *ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// Check verifies the dataset invariants and returns the first violation.
// The recent window is measured back from the latest timestamp.
func Check(ds *engine.Dataset, cfg *schema.Config) error {
	if ds.Len() != cfg.Rows {
		return &ValidationError{Check: CheckRowCount, Observed: float64(ds.Len()), Expected: fmt.Sprintf("%d", cfg.Rows)}
	}

	for _, c := range ds.Columns() {
		if n := ds.ColumnLen(c.Name); n != ds.Len() {
			return &ValidationError{Check: CheckColumnLength, Observed: float64(n), Expected: fmt.Sprintf("%d", ds.Len()), Detail: c.Name}
		}
	}

	var missing []string
	for _, name := range cfg.Validation.RequiredColumns {
		if _, ok := ds.Column(name); !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return &ValidationError{
			Check:    CheckRequiredColumns,
			Observed: float64(len(missing)),
			Expected: "0 missing",
			Detail:   "missing " + strings.Join(missing, ", "),
		}
	}

	first, last := ds.Span()
	if cfg.Validation.MinSpanDays > 0 {
		span := int(last.Sub(first) / day)
		if span < cfg.Validation.MinSpanDays {
			return &ValidationError{Check: CheckDateSpan, Observed: float64(span), Expected: fmt.Sprintf(">= %d days", cfg.Validation.MinSpanDays)}
		}
	}

	if cfg.Validation.MinRecentFraction > 0 && ds.Len() > 0 {
		frac := RecentFraction(ds, last.AddDate(0, 0, -cfg.Validation.RecentDays))
		if frac < cfg.Validation.MinRecentFraction {
			return &ValidationError{
				Check:    CheckRecentFraction,
				Observed: math.Round(frac*1e4) / 1e4,
				Expected: fmt.Sprintf(">= %g of rows in the last %d days", cfg.Validation.MinRecentFraction, cfg.Validation.RecentDays),
			}
		}
	}

	for _, key := range ds.MeasureKeys() {
		bad := 0
		for _, v := range ds.Measures(key) {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				bad++
			}
		}
		if bad > 0 {
			return &ValidationError{Check: CheckFiniteMeasures, Observed: float64(bad), Expected: "0 non-finite values", Detail: key}
		}
	}
	return nil
}

// RecentFraction is the share of rows at or after since.
func RecentFraction(view engine.RecordView, since time.Time) float64 {
	if view.Len() == 0 {
		return 0
	}
	recent := engine.ApplyFilters(view, engine.Filters{Since: since})
	return float64(recent.Len()) / float64(view.Len())
}
