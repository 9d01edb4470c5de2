// Package presets ships ready-made dataset configurations.
package presets

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"github.com/spektr-org/synthdata/schema"
)

//go:embed *.yaml
var files embed.FS

// Names lists the available presets, sorted.
func Names() []string {
	entries, err := fs.ReadDir(files, ".")
	if err != nil {
		return nil
	}
	var names []string
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".yaml") {
			names = append(names, strings.TrimSuffix(e.Name(), ".yaml"))
		}
	}
	sort.Strings(names)
	return names
}

// Raw returns the preset's YAML source.
func Raw(name string) ([]byte, error) {
	data, err := files.ReadFile(path.Clean(name) + ".yaml")
	if err != nil {
		return nil, fmt.Errorf("unknown preset %q (available: %s)", name, strings.Join(Names(), ", "))
	}
	return data, nil
}

// Load parses a preset. Defaults are applied; validation is left to the
// caller so overrides can be layered on first.
func Load(name string) (*schema.Config, error) {
	data, err := Raw(name)
	if err != nil {
		return nil, err
	}
	cfg, err := schema.Parse(data, ".yaml")
	if err != nil {
		return nil, fmt.Errorf("preset %q: %w", name, err)
	}
	return cfg, nil
}
