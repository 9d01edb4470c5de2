package export

import (
	"encoding/json"
	"os"

	"github.com/spektr-org/synthdata/schema"
)

// SchemaSink writes the dataset metadata (dimensions, measures,
// provenance) as indented JSON next to the data files.
type SchemaSink struct{}

func init() { Register(SchemaSink{}) }

func (SchemaSink) Format() string { return schema.FormatSchema }

func (SchemaSink) Ext(schema.ExportSpec) string { return ".schema.json" }

func (SchemaSink) Write(path string, req *Request) error {
	data, err := json.MarshalIndent(req.Metadata, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}
