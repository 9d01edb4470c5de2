package export

import (
	"database/sql"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/spektr-org/synthdata/engine"
	"github.com/spektr-org/synthdata/schema"
)

// SQLiteSink writes the dataset as one typed table in a single-file
// SQLite database, the columnar analytic artifact.
type SQLiteSink struct{}

func init() { Register(SQLiteSink{}) }

func (SQLiteSink) Format() string { return schema.FormatSQLite }

func (SQLiteSink) Ext(schema.ExportSpec) string { return ".sqlite" }

func (SQLiteSink) Write(path string, req *Request) error {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("failed to open sqlite database: %w", err)
	}
	defer db.Close()

	ds := req.Dataset
	cols := ds.Columns()
	table := quoteIdent(req.Spec.Table)

	defs := make([]string, len(cols))
	names := make([]string, len(cols))
	marks := make([]string, len(cols))
	for i, c := range cols {
		names[i] = quoteIdent(c.Name)
		defs[i] = names[i] + " " + sqlType(c.Kind)
		marks[i] = "?"
	}

	if _, err := db.Exec(fmt.Sprintf("CREATE TABLE %s (%s)", table, strings.Join(defs, ", "))); err != nil {
		return fmt.Errorf("failed to create table: %w", err)
	}

	tx, err := db.Begin()
	if err != nil {
		return err
	}
	stmt, err := tx.Prepare(fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		table, strings.Join(names, ", "), strings.Join(marks, ", ")))
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	args := make([]any, len(cols))
	for i := 0; i < ds.Len(); i++ {
		for j, c := range cols {
			args[j] = ds.Value(i, c)
		}
		if _, err := stmt.Exec(args...); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to insert row %d: %w", i, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return db.Close()
}

func sqlType(k engine.Kind) string {
	switch k {
	case engine.KindInteger:
		return "INTEGER"
	case engine.KindReal:
		return "REAL"
	default:
		return "TEXT"
	}
}

func quoteIdent(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
