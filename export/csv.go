package export

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"github.com/golang/snappy"

	"github.com/spektr-org/synthdata/engine"
	"github.com/spektr-org/synthdata/schema"
)

// CompressSnappy selects snappy framing for the CSV file.
const CompressSnappy = "snappy"

// CSVSink writes RFC 4180 CSV with a header row, optionally wrapped in
// the snappy framing format.
type CSVSink struct{}

func init() { Register(CSVSink{}) }

func (CSVSink) Format() string { return schema.FormatCSV }

func (CSVSink) Ext(spec schema.ExportSpec) string {
	if spec.Compress == CompressSnappy {
		return ".csv.sz"
	}
	return ".csv"
}

func (CSVSink) Write(path string, req *Request) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if req.Spec.Compress == CompressSnappy {
		sw := snappy.NewBufferedWriter(f)
		if err := WriteCSV(sw, req.Dataset); err != nil {
			return err
		}
		if err := sw.Close(); err != nil {
			return fmt.Errorf("failed to flush snappy stream: %w", err)
		}
	} else {
		bw := bufio.NewWriter(f)
		if err := WriteCSV(bw, req.Dataset); err != nil {
			return err
		}
		if err := bw.Flush(); err != nil {
			return err
		}
	}
	return f.Close()
}

// WriteCSV renders ds as CSV: header, then one line per row with every
// value formatted by its column.
func WriteCSV(w io.Writer, ds *engine.Dataset) error {
	cw := csv.NewWriter(w)
	cols := ds.Columns()
	if err := cw.Write(ds.ColumnNames()); err != nil {
		return err
	}
	record := make([]string, len(cols))
	for i := 0; i < ds.Len(); i++ {
		for j, c := range cols {
			record[j] = ds.Format(i, c)
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// NewSnappyReader undoes the snappy framing of a ".csv.sz" artifact.
func NewSnappyReader(r io.Reader) io.Reader {
	return snappy.NewReader(r)
}
