package export

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/spektr-org/synthdata/engine"
	"github.com/spektr-org/synthdata/schema"
)

// ============================================================================
// EXPORTER TESTS
// ============================================================================
// Tests cover:
//   1. CSV — header, column order, layouts, precision, snappy framing
//   2. SQLite and XLSX — typed rows readable by their own libraries
//   3. Schema sidecar — metadata round trip
//   4. Degradation — missing or failing sinks become skips, csv is fatal
//   5. Naming — alias resolution, ordering, timestamp suffix
// ============================================================================

var day0 = time.Date(2025, 1, 1, 9, 30, 0, 0, time.UTC)

func fixture(t *testing.T) *engine.Dataset {
	t.Helper()
	ds := engine.NewDataset(3, "as_of")
	require.NoError(t, ds.AddTime(engine.Column{Name: "as_of", Role: engine.RoleTimestamp, Layout: "2006-01-02 15:04:05"},
		[]time.Time{day0, day0.AddDate(0, 0, 1), day0.AddDate(0, 0, 2)}))
	require.NoError(t, ds.AddDimension(engine.Column{Name: "category", Role: engine.RoleDimension}, []string{"A", "B, Ltd", "A"}))
	require.NoError(t, ds.AddDimension(engine.Column{Name: "site_sk", Kind: engine.KindInteger, Role: engine.RoleDimension}, []string{"1", "2", "30"}))
	require.NoError(t, ds.AddMeasure(engine.Column{Name: "x", Role: engine.RoleMeasure, Precision: 2}, []float64{1.5, 2.25, -0.004}))
	return ds
}

const fixtureCSV = `as_of,category,site_sk,x
2025-01-01 09:30:00,A,1,1.50
2025-01-02 09:30:00,"B, Ltd",2,2.25
2025-01-03 09:30:00,A,30,0.00
`

func request(t *testing.T, formats ...string) *Request {
	t.Helper()
	return &Request{
		Dataset: fixture(t),
		Spec: schema.ExportSpec{
			Formats:  formats,
			Dir:      filepath.Join(t.TempDir(), "out"),
			Basename: "fixture",
			Table:    "Fixture Table",
		},
		Metadata: schema.Metadata{Name: "fixture", Rows: 3, Columns: []string{"as_of", "category", "site_sk", "x"}},
		Stamp:    time.Date(2025, 8, 21, 11, 28, 26, 0, time.UTC),
	}
}

// ============================================================================
// CSV
// ============================================================================

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, fixture(t)))
	assert.Equal(t, fixtureCSV, buf.String())
}

func TestExport_CSV(t *testing.T) {
	req := request(t, schema.AliasTabularText)

	res, err := Export(req)
	require.NoError(t, err)
	require.Len(t, res.Artifacts, 1)
	assert.Empty(t, res.Skipped)

	art := res.Artifacts[0]
	assert.Equal(t, schema.FormatCSV, art.Format)
	assert.Equal(t, filepath.Join(req.Spec.Dir, "fixture.csv"), art.Path)
	assert.Equal(t, 3, art.Rows)
	assert.Equal(t, int64(len(fixtureCSV)), art.Bytes)

	data, err := os.ReadFile(art.Path)
	require.NoError(t, err)
	assert.Equal(t, fixtureCSV, string(data))

	leftovers, err := filepath.Glob(filepath.Join(req.Spec.Dir, ".*.tmp"))
	require.NoError(t, err)
	assert.Empty(t, leftovers)
}

func TestExport_SnappyCSV(t *testing.T) {
	req := request(t)
	req.Spec.Compress = CompressSnappy

	res, err := Export(req)
	require.NoError(t, err)
	path := res.Artifacts[0].Path
	assert.Equal(t, filepath.Join(req.Spec.Dir, "fixture.csv.sz"), path)

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	data, err := io.ReadAll(NewSnappyReader(f))
	require.NoError(t, err)
	assert.Equal(t, fixtureCSV, string(data))
}

// ============================================================================
// ANALYTIC FORMATS
// ============================================================================

func TestExport_SQLite(t *testing.T) {
	req := request(t, schema.AliasColumnarAnalytic)

	res, err := Export(req)
	require.NoError(t, err)
	require.Len(t, res.Artifacts, 2)
	art := res.Artifacts[1]
	assert.Equal(t, schema.FormatSQLite, art.Format)
	assert.Equal(t, filepath.Join(req.Spec.Dir, "fixture.sqlite"), art.Path)

	db, err := sql.Open("sqlite", art.Path)
	require.NoError(t, err)
	defer db.Close()

	var count int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM "Fixture Table"`).Scan(&count))
	assert.Equal(t, 3, count)

	var sum float64
	var maxKey int64
	require.NoError(t, db.QueryRow(`SELECT SUM(x), MAX(site_sk) FROM "Fixture Table"`).Scan(&sum, &maxKey))
	assert.InDelta(t, 3.75, sum, 1e-9)
	assert.Equal(t, int64(30), maxKey, "integer keys compare numerically")

	var kind string
	require.NoError(t, db.QueryRow(`SELECT typeof(as_of) FROM "Fixture Table" LIMIT 1`).Scan(&kind))
	assert.Equal(t, "text", kind)
}

func TestExport_XLSX(t *testing.T) {
	req := request(t, schema.FormatXLSX)
	req.Spec.Table = "A table name well beyond the sheet name limit"

	res, err := Export(req)
	require.NoError(t, err)
	require.Len(t, res.Artifacts, 2)
	path := res.Artifacts[1].Path
	assert.Equal(t, filepath.Join(req.Spec.Dir, "fixture.xlsx"), path)

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	sheet := req.Spec.Table[:maxSheetName]
	assert.Equal(t, []string{sheet}, f.GetSheetList())

	rows, err := f.GetRows(sheet)
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, []string{"as_of", "category", "site_sk", "x"}, rows[0])
	assert.Equal(t, "2025-01-02 09:30:00", rows[2][0])
	assert.Equal(t, "B, Ltd", rows[2][1])
	assert.Equal(t, "30", rows[3][2])
}

func TestExport_SchemaSidecar(t *testing.T) {
	req := request(t, schema.FormatSchema)

	res, err := Export(req)
	require.NoError(t, err)
	require.Len(t, res.Artifacts, 2)
	path := res.Artifacts[1].Path
	assert.Equal(t, filepath.Join(req.Spec.Dir, "fixture.schema.json"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var got schema.Metadata
	require.NoError(t, json.Unmarshal(data, &got))
	if diff := cmp.Diff(req.Metadata, got); diff != "" {
		t.Errorf("metadata round trip (-want +got):\n%s", diff)
	}
}

// ============================================================================
// DEGRADATION
// ============================================================================

// failingSink writes half a file and then fails.
type failingSink struct{ format string }

func (s failingSink) Format() string { return s.format }

func (failingSink) Ext(schema.ExportSpec) string { return ".bin" }

func (failingSink) Write(path string, _ *Request) error {
	if err := os.WriteFile(path, []byte("partial"), 0o644); err != nil {
		return err
	}
	return errors.New("disk on fire")
}

func TestExport_UnregisteredSinkIsSkipped(t *testing.T) {
	Unregister(schema.FormatXLSX)
	t.Cleanup(func() { Register(XLSXSink{}) })

	req := request(t, schema.FormatXLSX)
	res, err := Export(req)
	require.NoError(t, err)

	require.Len(t, res.Artifacts, 1, "csv is still written")
	require.Len(t, res.Skipped, 1)
	assert.Equal(t, schema.FormatXLSX, res.Skipped[0].Format)
	assert.True(t, errors.Is(res.Skipped[0].Err, ErrExportUnavailable))
	assert.NoFileExists(t, filepath.Join(req.Spec.Dir, "fixture.xlsx"))
}

func TestExport_FailingSinkLeavesNoFile(t *testing.T) {
	Register(failingSink{format: "broken"})
	t.Cleanup(func() { Unregister("broken") })

	req := request(t, "broken")
	res, err := Export(req)
	require.NoError(t, err)

	require.Len(t, res.Skipped, 1)
	assert.True(t, errors.Is(res.Skipped[0].Err, ErrExportUnavailable))
	assert.Contains(t, res.Skipped[0].Reason, "disk on fire")

	entries, err := os.ReadDir(req.Spec.Dir)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.Equal(t, []string{"fixture.csv"}, names)
}

func TestExport_CSVFailureIsFatal(t *testing.T) {
	Register(failingSink{format: schema.FormatCSV})
	t.Cleanup(func() { Register(CSVSink{}) })

	req := request(t, schema.FormatSQLite)
	res, err := Export(req)
	require.Error(t, err)
	assert.ErrorContains(t, err, "failed to write csv")
	assert.Empty(t, res.Artifacts)
	assert.NoFileExists(t, filepath.Join(req.Spec.Dir, "fixture.sqlite"), "nothing after csv is attempted")
}

// ============================================================================
// NAMING
// ============================================================================

func TestOrder(t *testing.T) {
	assert.Equal(t, []string{"csv"}, Order(nil))
	assert.Equal(t, []string{"csv", "sqlite"}, Order([]string{"columnar_analytic", "tabular_text", "sqlite"}))
	assert.Equal(t, []string{"csv", "xlsx", "sqlite", "schema"},
		Order([]string{"xlsx", "columnar_analytic", "schema", "csv", "xlsx"}))
}

func TestPath(t *testing.T) {
	stamp := time.Date(2025, 8, 21, 11, 28, 26, 0, time.UTC)
	spec := schema.ExportSpec{Dir: "data", Basename: "customer_analytics_pulse"}

	assert.Equal(t, filepath.Join("data", "customer_analytics_pulse.csv"), Path(spec, ".csv", stamp))

	spec.TimestampSuffix = true
	assert.Equal(t, filepath.Join("data", "customer_analytics_pulse_20250821_112826.sqlite"), Path(spec, ".sqlite", stamp))
}

func TestFormats(t *testing.T) {
	assert.Equal(t, []string{"csv", "schema", "sqlite", "xlsx"}, Formats())

	s, ok := Lookup(schema.AliasColumnarAnalytic)
	require.True(t, ok)
	assert.Equal(t, schema.FormatSQLite, s.Format())
}
