// Package generator materializes a dataset from a configuration: the
// time index, categorical dimensions and sampled metrics, all drawn from
// one seeded Source.
package generator

import (
	"fmt"
	"time"

	"github.com/spektr-org/synthdata/engine"
	"github.com/spektr-org/synthdata/schema"
)

// Generate builds the dataset for cfg over [start, end]. The config is
// expected to be validated; only the conditions that would make drawing
// impossible are rechecked here.
//
// Draw order: timestamps, row ids, dimensions in declaration order,
// measures in declaration order.
func Generate(cfg *schema.Config, start, end time.Time, src *Source) (*engine.Dataset, error) {
	n := cfg.Rows
	if n <= 0 {
		return nil, &schema.ConfigError{Field: "rows", Reason: fmt.Sprintf("must be positive, got %d", n)}
	}
	if !end.After(start) {
		return nil, &schema.ConfigError{Field: "dates", Reason: "end is not after start"}
	}

	ds := engine.NewDataset(n, cfg.Dates.Column)

	ts := Timestamps(cfg.Dates, start, end, n, src)

	if cfg.RowID != nil {
		ids, err := RowIDs(n, src)
		if err != nil {
			return nil, err
		}
		if err := ds.AddDimension(engine.Column{Name: cfg.RowID.Column, Role: engine.RoleRowID}, ids); err != nil {
			return nil, err
		}
	}

	if err := addTemporal(ds, cfg.Dates, ts); err != nil {
		return nil, err
	}

	for _, d := range cfg.Dimensions {
		cols, err := Dimension(d, n, src)
		if err != nil {
			return nil, &schema.ConfigError{Field: "dimensions." + d.Name, Reason: err.Error()}
		}
		for _, c := range cols {
			col := engine.Column{Name: c.Name, Role: engine.RoleDimension}
			if c.Integer {
				col.Kind = engine.KindInteger
			}
			if err := ds.AddDimension(col, c.Values); err != nil {
				return nil, err
			}
		}
	}

	for _, m := range cfg.Measures {
		var base []float64
		if m.OffsetOf != "" {
			base = ds.Measures(m.OffsetOf)
			if base == nil {
				return nil, &schema.ConfigError{Field: "measures." + m.Name + ".offset_of", Reason: fmt.Sprintf("unknown measure %q", m.OffsetOf)}
			}
		}
		values, err := Sample(m, n, base, src)
		if err != nil {
			return nil, err
		}
		col := engine.Column{Name: m.Name, Role: engine.RoleMeasure, Precision: m.Precision}
		if err := ds.AddMeasure(col, values); err != nil {
			return nil, err
		}
	}

	return ds, nil
}

func addTemporal(ds *engine.Dataset, spec schema.DateSpec, ts []time.Time) error {
	if err := ds.AddTime(engine.Column{Name: spec.Column, Role: engine.RoleTimestamp, Layout: spec.Layout}, ts); err != nil {
		return err
	}
	buckets := []struct {
		name string
		fn   func(time.Time) time.Time
	}{
		{spec.Calendar.Day, DayStart},
		{spec.Calendar.WeekStart, WeekStart},
		{spec.Calendar.MonthStart, MonthStart},
	}
	for _, b := range buckets {
		if b.name == "" {
			continue
		}
		col := engine.Column{Name: b.name, Role: engine.RoleCalendar, Layout: spec.DateLayout}
		if err := ds.AddTime(col, Buckets(ts, b.fn)); err != nil {
			return err
		}
	}
	return nil
}
