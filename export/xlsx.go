package export

import (
	"fmt"
	"os"

	"github.com/xuri/excelize/v2"

	"github.com/spektr-org/synthdata/schema"
)

// maxSheetName is the longest sheet name a workbook accepts.
const maxSheetName = 31

// XLSXSink writes the dataset as a single-sheet workbook using the
// streaming writer.
type XLSXSink struct{}

func init() { Register(XLSXSink{}) }

func (XLSXSink) Format() string { return schema.FormatXLSX }

func (XLSXSink) Ext(schema.ExportSpec) string { return ".xlsx" }

func (XLSXSink) Write(path string, req *Request) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := req.Spec.Table
	if len(sheet) > maxSheetName {
		sheet = sheet[:maxSheetName]
	}
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	sw, err := f.NewStreamWriter(sheet)
	if err != nil {
		return fmt.Errorf("failed to open stream writer: %w", err)
	}

	ds := req.Dataset
	cols := ds.Columns()

	header := make([]interface{}, len(cols))
	for i, name := range ds.ColumnNames() {
		header[i] = name
	}
	if err := sw.SetRow("A1", header); err != nil {
		return err
	}

	row := make([]interface{}, len(cols))
	for i := 0; i < ds.Len(); i++ {
		for j, c := range cols {
			row[j] = ds.Value(i, c)
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := sw.SetRow(cell, row); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i, err)
		}
	}
	if err := sw.Flush(); err != nil {
		return fmt.Errorf("failed to flush sheet: %w", err)
	}

	out, err := os.Create(path)
	if err != nil {
		return err
	}
	defer out.Close()
	if _, err := f.WriteTo(out); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return out.Close()
}
