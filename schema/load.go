package schema

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Defaults applied by setDefaults when the configuration leaves them empty.
const (
	DefaultTimestampColumn = "as_of"
	DefaultLayout          = "2006-01-02 15:04:05"
	DefaultDateLayout      = "2006-01-02"
	DefaultBasename        = "synthetic_data"
)

// Load reads a configuration file, applies environment overrides and
// defaults, and validates the result.
func Load(configPath string) (*Config, error) {
	config := &Config{}

	if err := loadFromFile(config, configPath); err != nil {
		return nil, fmt.Errorf("failed to load config from file: %w", err)
	}

	if err := loadFromEnvironment(config); err != nil {
		return nil, err
	}

	config.setDefaults()

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Parse decodes configuration bytes. ext selects the decoder (".json";
// anything else is YAML). Defaults are applied; validation is not.
func Parse(data []byte, ext string) (*Config, error) {
	config := &Config{}
	if err := decode(config, data, ext); err != nil {
		return nil, err
	}
	config.setDefaults()
	return config, nil
}

func loadFromFile(config *Config, configPath string) error {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	return decode(config, data, filepath.Ext(configPath))
}

func decode(config *Config, data []byte, ext string) error {
	switch strings.ToLower(ext) {
	case ".json":
		if err := json.Unmarshal(data, config); err != nil {
			return fmt.Errorf("failed to unmarshal JSON config: %w", err)
		}
	case ".yaml", ".yml", "":
		if err := yaml.Unmarshal(data, config); err != nil {
			return fmt.Errorf("failed to unmarshal YAML config: %w", err)
		}
	default:
		return fmt.Errorf("unsupported config file format: %s", ext)
	}
	return nil
}

// ApplyEnvironment layers the SYNTHGEN_* overrides onto an already
// parsed config (an embedded preset, say) and re-applies defaults.
func (c *Config) ApplyEnvironment() error {
	if err := loadFromEnvironment(c); err != nil {
		return err
	}
	c.setDefaults()
	return nil
}

// loadFromEnvironment applies SYNTHGEN_* overrides.
func loadFromEnvironment(config *Config) error {
	if rows := os.Getenv("SYNTHGEN_ROWS"); rows != "" {
		n, err := strconv.Atoi(rows)
		if err != nil {
			return configErr("SYNTHGEN_ROWS", "not an integer: %q", rows)
		}
		config.Rows = n
	}
	if seed := os.Getenv("SYNTHGEN_SEED"); seed != "" {
		n, err := strconv.ParseInt(seed, 10, 64)
		if err != nil {
			return configErr("SYNTHGEN_SEED", "not an integer: %q", seed)
		}
		config.Seed = n
	}
	if dir := os.Getenv("SYNTHGEN_OUTPUT_DIR"); dir != "" {
		config.Export.Dir = dir
	}
	if formats := os.Getenv("SYNTHGEN_FORMATS"); formats != "" {
		config.Export.Formats = splitList(formats)
	}
	return nil
}

// setDefaults fills in optional fields. The CSV sink is always present.
func (c *Config) setDefaults() {
	if c.Dates.Column == "" {
		c.Dates.Column = DefaultTimestampColumn
	}
	if c.Dates.Layout == "" {
		c.Dates.Layout = DefaultLayout
	}
	if c.Dates.DateLayout == "" {
		c.Dates.DateLayout = DefaultDateLayout
	}
	if c.Dates.Distribution.Kind == "" {
		c.Dates.Distribution.Kind = TimeLinear
	}
	if c.Dates.Distribution.Kind == TimeLinear &&
		c.Dates.Distribution.MinWeight == 0 && c.Dates.Distribution.MaxWeight == 0 {
		c.Dates.Distribution.MinWeight = 0.1
		c.Dates.Distribution.MaxWeight = 2.0
	}

	if !c.Export.HasFormat(FormatCSV) {
		c.Export.Formats = append([]string{FormatCSV}, c.Export.Formats...)
	}
	if c.Export.Dir == "" {
		c.Export.Dir = "."
	}
	if c.Export.Basename == "" {
		c.Export.Basename = c.Name
		if c.Export.Basename == "" {
			c.Export.Basename = DefaultBasename
		}
	}
	if c.Export.Table == "" {
		c.Export.Table = c.Export.Basename
	}
}

// Override applies command-line overrides on top of a loaded config.
// Zero values leave the field untouched.
type Override struct {
	Rows    int
	Seed    *int64
	Dir     string
	Formats []string
	End     string
}

// Apply mutates c with the non-zero override fields.
func (o Override) Apply(c *Config) {
	if o.Rows > 0 {
		c.Rows = o.Rows
	}
	if o.Seed != nil {
		c.Seed = *o.Seed
	}
	if o.Dir != "" {
		c.Export.Dir = o.Dir
	}
	if len(o.Formats) > 0 {
		c.Export.Formats = o.Formats
		c.setDefaults()
	}
	if o.End != "" {
		c.Dates.End = o.End
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// ============================================================================
// LABEL DECODING — accepts "Region A" or {label: Region A, weight: 0.45}
// ============================================================================

func (l *Label) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		l.Value = value.Value
		return nil
	}
	type plain Label
	var p plain
	if err := value.Decode(&p); err != nil {
		return err
	}
	*l = Label(p)
	return nil
}

func (l *Label) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		l.Value = s
		return nil
	}
	type plain Label
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*l = Label(p)
	return nil
}
