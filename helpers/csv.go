package helpers

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/spektr-org/synthdata/engine"
	"github.com/spektr-org/synthdata/schema"
)

// ============================================================================
// CSV HELPER — Reads an exported CSV back into []engine.Record
// ============================================================================
// The generator writes; this reads. Metadata (the "schema" sidecar or
// schema.Describe) classifies columns so the primary timestamp is parsed,
// dimensions stay text and measures become numbers.
// ============================================================================

// ParseCSV parses CSV into Records using meta for classification.
// Unmapped columns are skipped. A timestamp that does not match the
// declared layout is an error.
func ParseCSV(r io.Reader, meta schema.Metadata) ([]engine.Record, error) {
	reader := csv.NewReader(r)

	headers, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV headers: %w", err)
	}

	dimSet := make(map[string]bool)
	timeKey, layout := "", ""
	for _, d := range meta.Dimensions {
		dimSet[d.Key] = true
		if d.IsTemporal && d.DataType == schema.TypeTimestamp && timeKey == "" {
			timeKey, layout = d.Key, d.TemporalFormat
		}
	}
	measSet := make(map[string]bool)
	for _, m := range meta.Measures {
		measSet[m.Key] = true
	}

	type colMapping struct {
		key         string
		isTime      bool
		isDimension bool
		isMeasure   bool
	}

	mappings := make([]colMapping, len(headers))
	for i, h := range headers {
		key := strings.TrimSpace(h)
		switch {
		case key == timeKey:
			mappings[i] = colMapping{key: key, isTime: true}
		case dimSet[key]:
			mappings[i] = colMapping{key: key, isDimension: true}
		case measSet[key]:
			mappings[i] = colMapping{key: key, isMeasure: true}
		}
	}

	var records []engine.Record
	for line := 2; ; line++ {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		rec := engine.Record{
			Dimensions: make(map[string]string),
			Measures:   make(map[string]float64),
		}

		for i, val := range row {
			if i >= len(mappings) {
				break
			}
			m := mappings[i]
			val = strings.TrimSpace(val)

			switch {
			case m.isTime:
				t, err := time.ParseInLocation(layout, val, time.UTC)
				if err != nil {
					return nil, fmt.Errorf("line %d: %s: %w", line, m.key, err)
				}
				rec.Time = t
			case m.isDimension:
				rec.Dimensions[m.key] = val
			case m.isMeasure:
				if f, err := strconv.ParseFloat(val, 64); err == nil {
					rec.Measures[m.key] = f
				}
			}
		}

		records = append(records, rec)
	}

	return records, nil
}

// ParseCSVAuto parses CSV without metadata: numeric cells become
// measures, everything else a dimension. Returns the header keys.
func ParseCSVAuto(r io.Reader) ([]engine.Record, []string, error) {
	reader := csv.NewReader(r)

	headers, err := reader.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read CSV headers: %w", err)
	}

	keys := make([]string, len(headers))
	for i, h := range headers {
		keys[i] = strings.TrimSpace(h)
	}

	var records []engine.Record
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			continue
		}

		rec := engine.Record{
			Dimensions: make(map[string]string),
			Measures:   make(map[string]float64),
		}

		for i, val := range row {
			if i >= len(keys) {
				break
			}
			val = strings.TrimSpace(val)

			if f, err := strconv.ParseFloat(val, 64); err == nil {
				rec.Measures[keys[i]] = f
			} else {
				rec.Dimensions[keys[i]] = val
			}
		}

		records = append(records, rec)
	}

	return records, keys, nil
}

// ParseCSVView parses CSV into a RecordView (convenience wrapper).
func ParseCSVView(r io.Reader, meta schema.Metadata) (engine.RecordView, error) {
	records, err := ParseCSV(r, meta)
	if err != nil {
		return nil, err
	}
	return engine.NewSliceView(records, meta.DimensionKeys(), meta.MeasureKeys()), nil
}

// ParseCSVAutoView parses CSV without metadata and returns a RecordView.
// Keys are classified by the first row.
func ParseCSVAutoView(r io.Reader) (engine.RecordView, []string, error) {
	records, keys, err := ParseCSVAuto(r)
	if err != nil {
		return nil, nil, err
	}
	var dims, meas []string
	if len(records) > 0 {
		for _, k := range keys {
			if _, ok := records[0].Measures[k]; ok {
				meas = append(meas, k)
			} else {
				dims = append(dims, k)
			}
		}
	}
	return engine.NewSliceView(records, dims, meas), keys, nil
}
