// Package export writes a validated dataset to one file per requested
// format. CSV is mandatory; every other sink is best-effort.
package export

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/spektr-org/synthdata/engine"
	"github.com/spektr-org/synthdata/schema"
)

// ErrExportUnavailable marks a sink that is not registered or failed.
// It only suppresses that artifact.
var ErrExportUnavailable = errors.New("export format unavailable")

// Request is everything a sink needs to write one artifact.
type Request struct {
	Dataset  *engine.Dataset
	Spec     schema.ExportSpec
	Metadata schema.Metadata
	Stamp    time.Time // file name suffix when Spec.TimestampSuffix is set
}

// Sink serializes a dataset to a file.
type Sink interface {
	// Format is the canonical format name ("csv", "sqlite", ...).
	Format() string
	// Ext is the file extension, dot included.
	Ext(spec schema.ExportSpec) string
	// Write creates path and writes the whole dataset to it.
	Write(path string, req *Request) error
}

// Artifact is a written file.
type Artifact struct {
	Format string `json:"format"`
	Path   string `json:"path"`
	Rows   int    `json:"rows"`
	Bytes  int64  `json:"bytes"`
}

// Skip is a requested format that produced no file.
type Skip struct {
	Format string `json:"format"`
	Reason string `json:"reason"`
	Err    error  `json:"-"`
}

// Result lists what an export produced.
type Result struct {
	Artifacts []Artifact `json:"artifacts"`
	Skipped   []Skip     `json:"skipped,omitempty"`
}

// ============================================================================
// REGISTRY
// ============================================================================

var (
	mu    sync.RWMutex
	sinks = map[string]Sink{}
)

// Register makes a sink available under its format name.
func Register(s Sink) {
	mu.Lock()
	defer mu.Unlock()
	sinks[s.Format()] = s
}

// Unregister removes a sink. Used to simulate a missing backend.
func Unregister(format string) {
	mu.Lock()
	defer mu.Unlock()
	delete(sinks, format)
}

// Lookup finds the sink for a format name or alias.
func Lookup(format string) (Sink, bool) {
	mu.RLock()
	defer mu.RUnlock()
	s, ok := sinks[schema.NormalizeFormat(format)]
	return s, ok
}

// Formats returns the registered format names, sorted.
func Formats() []string {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]string, 0, len(sinks))
	for f := range sinks {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

// ============================================================================
// EXPORT
// ============================================================================

// Export writes every requested format. A CSV failure is returned as an
// error; any other failure is recorded as a Skip wrapping
// ErrExportUnavailable.
func Export(req *Request) (*Result, error) {
	if err := os.MkdirAll(req.Spec.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	res := &Result{}
	for _, format := range Order(req.Spec.Formats) {
		sink, ok := Lookup(format)
		if !ok {
			if format == schema.FormatCSV {
				return res, fmt.Errorf("csv sink is not registered")
			}
			err := fmt.Errorf("%w: %s: no sink registered", ErrExportUnavailable, format)
			res.Skipped = append(res.Skipped, Skip{Format: format, Reason: err.Error(), Err: err})
			continue
		}

		path := Path(req.Spec, sink.Ext(req.Spec), req.Stamp)
		art, err := writeAtomic(sink, path, req)
		if err != nil {
			if format == schema.FormatCSV {
				return res, fmt.Errorf("failed to write csv: %w", err)
			}
			err = fmt.Errorf("%w: %s: %v", ErrExportUnavailable, format, err)
			res.Skipped = append(res.Skipped, Skip{Format: format, Reason: err.Error(), Err: err})
			continue
		}
		res.Artifacts = append(res.Artifacts, art)
	}
	return res, nil
}

// Order resolves aliases, drops duplicates and puts csv first.
func Order(formats []string) []string {
	out := []string{schema.FormatCSV}
	seen := map[string]bool{schema.FormatCSV: true}
	for _, f := range formats {
		f = schema.NormalizeFormat(f)
		if !seen[f] {
			seen[f] = true
			out = append(out, f)
		}
	}
	return out
}

// Path builds the output file path for a sink.
func Path(spec schema.ExportSpec, ext string, stamp time.Time) string {
	name := spec.Basename
	if spec.TimestampSuffix {
		name += "_" + stamp.Format("20060102_150405")
	}
	return filepath.Join(spec.Dir, name+ext)
}

// writeAtomic writes to a hidden temporary file next to path and renames
// it into place once the sink succeeds.
func writeAtomic(sink Sink, path string, req *Request) (Artifact, error) {
	tmp := filepath.Join(filepath.Dir(path), "."+filepath.Base(path)+".tmp")
	_ = os.Remove(tmp)

	if err := sink.Write(tmp, req); err != nil {
		_ = os.Remove(tmp)
		return Artifact{}, err
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return Artifact{}, fmt.Errorf("failed to move %s into place: %w", path, err)
	}

	art := Artifact{Format: sink.Format(), Path: path, Rows: req.Dataset.Len()}
	if info, err := os.Stat(path); err == nil {
		art.Bytes = info.Size()
	}
	return art, nil
}
