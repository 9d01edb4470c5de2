package pipeline

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spektr-org/synthdata/engine"
	"github.com/spektr-org/synthdata/export"
	"github.com/spektr-org/synthdata/presets"
	"github.com/spektr-org/synthdata/schema"
	"github.com/spektr-org/synthdata/validate"
)

// ============================================================================
// PIPELINE TESTS
// ============================================================================
// Tests cover:
//   1. End to end — quickstart preset to CSV
//   2. Reproducibility — byte-identical files across runs
//   3. Failure gates — config and validation errors write nothing
//   4. Options — dry run, clock, transforms, logger
//   5. Warnings — empty scenario matches, skipped sinks
// ============================================================================

var fixedNow = time.Date(2025, 8, 21, 11, 28, 26, 0, time.UTC)

func clock() time.Time { return fixedNow }

func quickstart(t *testing.T) *schema.Config {
	t.Helper()
	cfg, err := presets.Load("quickstart")
	require.NoError(t, err)
	cfg.Export.Dir = filepath.Join(t.TempDir(), "out")
	return cfg
}

func countLines(t *testing.T, path string) int {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return bytes.Count(data, []byte("\n"))
}

// ============================================================================
// END TO END
// ============================================================================

func TestRun_Quickstart(t *testing.T) {
	cfg := quickstart(t)

	report, err := Run(cfg, WithClock(clock))
	require.NoError(t, err)

	require.Len(t, report.Files, 1)
	path := filepath.Join(cfg.Export.Dir, "quickstart.csv")
	assert.Equal(t, path, report.Files[0].Path)
	assert.Equal(t, 1001, countLines(t, path), "header plus 1000 rows")

	assert.Equal(t, 1000, report.Rows)
	assert.Equal(t, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), report.End)
	assert.Equal(t, []string{"as_of", "day", "week_start", "month_start", "category", "x"}, report.Columns)
	assert.Empty(t, report.Warnings)

	require.Len(t, report.Scenarios, 1)
	assert.Greater(t, report.Scenarios[0].Affected, 20)

	require.Len(t, report.Expectations, 1)
	assert.True(t, report.Expectations[0].Passed, report.Expectations[0].Message)
	assert.InDelta(t, 2.0, report.Expectations[0].Ratio, 0.1)

	require.NotNil(t, report.Dataset)
	assert.Equal(t, 1000, report.Dataset.Len())
}

func TestRun_Reproducible(t *testing.T) {
	a, b := quickstart(t), quickstart(t)
	a.Export.Formats = []string{"csv", "schema"}
	b.Export.Formats = []string{"csv", "schema"}

	ra, err := Run(a, WithClock(clock))
	require.NoError(t, err)
	rb, err := Run(b, WithClock(clock))
	require.NoError(t, err)

	require.Len(t, ra.Files, 2)
	for i := range ra.Files {
		da, err := os.ReadFile(ra.Files[i].Path)
		require.NoError(t, err)
		db, err := os.ReadFile(rb.Files[i].Path)
		require.NoError(t, err)
		assert.True(t, bytes.Equal(da, db), "%s differs between runs", ra.Files[i].Format)
	}

	c := quickstart(t)
	c.Seed = 8
	rc, err := Run(c, WithClock(clock))
	require.NoError(t, err)
	da, _ := os.ReadFile(ra.Files[0].Path)
	dc, _ := os.ReadFile(rc.Files[0].Path)
	assert.False(t, bytes.Equal(da, dc), "a different seed gives different data")
}

// ============================================================================
// FAILURE GATES
// ============================================================================

func TestRun_ValidationFailureWritesNothing(t *testing.T) {
	cfg := quickstart(t)

	report, err := Run(cfg, WithClock(clock), WithTransform(func(ds *engine.Dataset) error {
		ds.Truncate(999)
		return nil
	}))
	require.Error(t, err)

	var ve *validate.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, validate.CheckRowCount, ve.Check)
	assert.Equal(t, 999.0, ve.Observed)

	require.NotNil(t, report)
	assert.Empty(t, report.Files)
	assert.NoDirExists(t, cfg.Export.Dir)
}

func TestRun_ConfigErrorWritesNothing(t *testing.T) {
	cfg := quickstart(t)
	cfg.Rows = 0
	cfg.Measures[0].Distribution.Kind = "cauchy"

	report, err := Run(cfg, WithClock(clock))
	require.Error(t, err)
	assert.Nil(t, report)
	assert.Len(t, schema.ConfigErrors(err), 2)
	assert.NoDirExists(t, cfg.Export.Dir)
}

func TestRun_TransformError(t *testing.T) {
	cfg := quickstart(t)
	_, err := Run(cfg, WithClock(clock), WithTransform(func(*engine.Dataset) error {
		return errors.New("nope")
	}))
	assert.ErrorContains(t, err, "transform failed: nope")
	assert.NoDirExists(t, cfg.Export.Dir)
}

// ============================================================================
// OPTIONS
// ============================================================================

func TestRun_DryRun(t *testing.T) {
	cfg := quickstart(t)

	report, err := Run(cfg, WithClock(clock), WithDryRun(true))
	require.NoError(t, err)
	assert.Empty(t, report.Files)
	assert.Equal(t, 1000, report.Dataset.Len())
	assert.Len(t, report.Expectations, 1)
	assert.NoDirExists(t, cfg.Export.Dir)
}

func TestRun_OpenEndUsesClock(t *testing.T) {
	cfg := quickstart(t)
	cfg.Dates.End = ""
	cfg.Export.TimestampSuffix = true

	report, err := Run(cfg, WithClock(func() time.Time { return fixedNow.Add(250 * time.Millisecond) }))
	require.NoError(t, err)

	assert.Equal(t, fixedNow, report.End)
	assert.Equal(t, fixedNow.AddDate(0, 0, -365), report.Start)
	assert.Equal(t, filepath.Join(cfg.Export.Dir, "quickstart_20250821_112826.csv"), report.Files[0].Path)

	first, last := report.Dataset.Span()
	assert.False(t, first.Before(report.Start))
	assert.False(t, last.After(report.End))
}

func TestRun_Logging(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	cfg := quickstart(t)

	_, err := Run(cfg, WithClock(clock), WithLogger(zap.New(core)))
	require.NoError(t, err)

	assert.Equal(t, 1, logs.FilterMessage("generating dataset").Len())
	assert.Equal(t, 1, logs.FilterMessage("scenario applied").Len())

	wrote := logs.FilterMessage("wrote file").All()
	require.Len(t, wrote, 1)
	fields := wrote[0].ContextMap()
	assert.Equal(t, "quickstart", fields["dataset"])
	assert.Equal(t, "csv", fields["format"])
	assert.Equal(t, int64(1000), fields["rows"])
}

func TestApplyOptions_Defaults(t *testing.T) {
	o := applyOptions([]Option{WithLogger(nil), WithClock(nil)})
	assert.NotNil(t, o.logger)
	assert.NotNil(t, o.clock)
	assert.False(t, o.dryRun)
	assert.Empty(t, o.transforms)
}

// ============================================================================
// WARNINGS
// ============================================================================

func TestRun_Warnings(t *testing.T) {
	export.Unregister(schema.FormatXLSX)
	t.Cleanup(func() { export.Register(export.XLSXSink{}) })

	cfg := quickstart(t)
	cfg.Export.Formats = append(cfg.Export.Formats, schema.FormatXLSX)
	cfg.Scenarios = append(cfg.Scenarios, schema.Rule{
		Name:    "ghost",
		Kind:    schema.RuleScale,
		Match:   map[string]string{"category": "Z"},
		Effects: []schema.Effect{{Metric: "x", Factor: 3}},
	})
	core, logs := observer.New(zapcore.WarnLevel)

	report, err := Run(cfg, WithClock(clock), WithLogger(zap.New(core)))
	require.NoError(t, err)

	require.Len(t, report.Files, 1)
	require.Len(t, report.Skipped, 1)
	assert.True(t, errors.Is(report.Skipped[0].Err, export.ErrExportUnavailable))

	require.Len(t, report.Warnings, 2)
	assert.Equal(t, `scenario "ghost" matched no rows`, report.Warnings[0])
	assert.Contains(t, report.Warnings[1], "xlsx")
	assert.Equal(t, 2, logs.Len())
}
