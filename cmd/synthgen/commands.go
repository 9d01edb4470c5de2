package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spektr-org/synthdata/engine"
	"github.com/spektr-org/synthdata/export"
	"github.com/spektr-org/synthdata/helpers"
	"github.com/spektr-org/synthdata/pipeline"
	"github.com/spektr-org/synthdata/presets"
	"github.com/spektr-org/synthdata/schema"
	"github.com/spektr-org/synthdata/validate"
)

var (
	reportPath string

	// inspect flags
	inspectSchema string
	groupBy       string
	measure       string
	aggregation   string
	sortBy        string
	limit         int
	since         string
	where         map[string]string
)

// ============================================================================
// CONFIG LOADING — file or preset, then environment, then flags
// ============================================================================

func loadConfig(cmd *cobra.Command) (*schema.Config, error) {
	var cfg *schema.Config
	switch {
	case presetName != "":
		c, err := presets.Load(presetName)
		if err != nil {
			return nil, err
		}
		cfg = c
	case configPath != "":
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		c, err := schema.Parse(data, filepath.Ext(configPath))
		if err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
		cfg = c
	default:
		return nil, errors.New("either --config or --preset is required")
	}

	if err := cfg.ApplyEnvironment(); err != nil {
		return nil, err
	}

	override := schema.Override{Rows: rowsFlag, End: endFlag}
	if cmd.Flags().Changed("seed") {
		s := seedFlag
		override.Seed = &s
	}
	if f := cmd.Flags().Lookup("out"); f != nil && f.Changed {
		override.Dir = outDir
	}
	if f := cmd.Flags().Lookup("format"); f != nil && f.Changed {
		override.Formats = formats
	}
	override.Apply(cfg)
	return cfg, nil
}

func clock() (func() time.Time, error) {
	if nowFlag == "" {
		return time.Now, nil
	}
	t, err := schema.ParseTime(nowFlag)
	if err != nil {
		return nil, fmt.Errorf("--now: %w", err)
	}
	return func() time.Time { return t }, nil
}

// ============================================================================
// COMMANDS
// ============================================================================

func runGenerate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	now, err := clock()
	if err != nil {
		return err
	}

	report, err := pipeline.Run(cfg, pipeline.WithLogger(logger), pipeline.WithClock(now))
	if err != nil {
		logFailure(err)
		return err
	}

	out := cmd.OutOrStdout()
	printReport(out, report)

	if reportPath != "" {
		if err := writeReport(out, reportPath, report); err != nil {
			return err
		}
	}
	return nil
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	now, err := clock()
	if err != nil {
		return err
	}

	report, err := pipeline.Run(cfg,
		pipeline.WithLogger(logger),
		pipeline.WithClock(now),
		pipeline.WithDryRun(true))
	if err != nil {
		logFailure(err)
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "✓ %s: %s rows valid (%s → %s)\n", report.Name, engine.FormatInt(report.Rows),
		report.Start.Format(time.DateOnly), report.End.Format(time.DateOnly))
	for _, r := range report.Expectations {
		mark := "✓"
		if !r.Passed {
			mark = "⚠"
		}
		fmt.Fprintf(out, "%s %s\n", mark, r.Message)
	}
	return nil
}

func runPresets(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	for _, name := range presets.Names() {
		cfg, err := presets.Load(name)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%-20s %8s rows  %s\n", name, engine.FormatInt(cfg.Rows), strings.TrimSpace(cfg.Description))
	}
	return nil
}

func runPresetsShow(cmd *cobra.Command, args []string) error {
	data, err := presets.Raw(args[0])
	if err != nil {
		return err
	}
	_, err = cmd.OutOrStdout().Write(data)
	return err
}

func runDescribe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	now, err := clock()
	if err != nil {
		return err
	}
	if err := cfg.ValidateAt(now()); err != nil {
		return err
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(schema.Describe(cfg))
}

func runInspect(cmd *cobra.Command, args []string) error {
	path := args[0]
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	r := io.Reader(f)
	if strings.HasSuffix(path, ".sz") {
		r = export.NewSnappyReader(f)
	}

	view, err := readView(r, path)
	if err != nil {
		return err
	}

	filters := engine.Filters{Dimensions: engine.Equal(where)}
	if since != "" {
		t, err := schema.ParseTime(since)
		if err != nil {
			return fmt.Errorf("--since: %w", err)
		}
		filters.Since = t
	}
	view = engine.ApplyFilters(view, filters)

	agg := aggregation
	if measure == "" {
		agg = "count"
	}
	groups := engine.GroupAndAggregate(view, groupBy, measure, agg, sortBy, limit)

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s rows matched\n\n", engine.FormatInt(view.Len()))
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	label := groupBy
	if label == "" {
		label = "group"
	}
	fmt.Fprintf(tw, "%s\trows\tshare\t%s(%s)\n", label, agg, measure)
	for _, g := range groups {
		fmt.Fprintf(tw, "%s\t%s\t%.1f%%\t%.4f\n", g.Key, engine.FormatInt(g.Count), g.Share*100, g.Value)
	}
	return tw.Flush()
}

// readView parses the CSV with its metadata when available, falling back
// to inference from the values.
func readView(r io.Reader, path string) (engine.RecordView, error) {
	metaPath := inspectSchema
	if metaPath == "" {
		base := strings.TrimSuffix(strings.TrimSuffix(path, ".sz"), ".csv")
		if _, err := os.Stat(base + ".schema.json"); err == nil {
			metaPath = base + ".schema.json"
		}
	}
	if metaPath == "" {
		view, _, err := helpers.ParseCSVAutoView(r)
		return view, err
	}

	data, err := os.ReadFile(metaPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read metadata: %w", err)
	}
	var meta schema.Metadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("failed to parse metadata: %w", err)
	}
	return helpers.ParseCSVView(r, meta)
}

// ============================================================================
// OUTPUT
// ============================================================================

func printReport(w io.Writer, report *pipeline.Report) {
	fmt.Fprintf(w, "✓ %s: %s rows, seed %d, %s → %s\n", report.Name, engine.FormatInt(report.Rows), report.Seed,
		report.Start.Format(time.DateOnly), report.End.Format(time.DateOnly))
	for _, s := range report.Scenarios {
		if s.Disabled {
			fmt.Fprintf(w, "  scenario %-32s disabled\n", s.Rule)
			continue
		}
		fmt.Fprintf(w, "  scenario %-32s matched %s, affected %s\n", s.Rule, engine.FormatInt(s.Matched), engine.FormatInt(s.Affected))
	}
	for _, f := range report.Files {
		fmt.Fprintf(w, "✓ %-7s %s\n", f.Format, f.Path)
	}
	for _, warning := range report.Warnings {
		fmt.Fprintf(w, "⚠ %s\n", warning)
	}
	if report.Summary != nil {
		fmt.Fprintf(w, "\n%s\n", report.Summary.PrimaryInsight)
		for _, h := range report.Summary.Hints {
			fmt.Fprintf(w, "• %s\n", h)
		}
	}
}

func writeReport(stdout io.Writer, path string, report *pipeline.Report) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	if path == "-" {
		_, err = stdout.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

func logFailure(err error) {
	var ve *validate.ValidationError
	switch {
	case errors.As(err, &ve):
		logger.Error("dataset failed validation",
			zap.String("check", ve.Check),
			zap.Float64("observed", ve.Observed),
			zap.String("expected", ve.Expected))
	case len(schema.ConfigErrors(err)) > 0:
		for _, ce := range schema.ConfigErrors(err) {
			logger.Error("invalid configuration", zap.String("field", ce.Field), zap.String("reason", ce.Reason))
		}
	default:
		logger.Error("run failed", zap.Error(err))
	}
}
