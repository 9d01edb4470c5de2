package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ============================================================================
// SYNTHGEN CLI — Reproducible synthetic datasets with injected stories
// ============================================================================

const version = "0.3.0"

var (
	// Global flags
	verbose   bool
	logFormat string

	// Config selection (generate, check, describe)
	configPath string
	presetName string
	rowsFlag   int
	seedFlag   int64
	outDir     string
	formats    []string
	endFlag    string
	nowFlag    string

	// Logger
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "synthgen",
	Short: "synthgen - synthetic dataset generator",
	Long: `synthgen builds reproducible synthetic tabular datasets.

A run draws a recency-weighted time index and categorical dimensions,
samples metrics from parametric distributions, injects scenario rules
(spikes, degradations, outliers), validates the result and writes it to
CSV and optional analytic formats.

Given the same config and seed, two runs produce identical files.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var config zap.Config
		switch logFormat {
		case "json":
			config = zap.NewProductionConfig()
		case "console":
			config = zap.NewDevelopmentConfig()
			config.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
		default:
			return fmt.Errorf("unknown --log-format %q (want json or console)", logFormat)
		}
		if verbose {
			config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = config.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

// generateCmd runs the whole pipeline and writes files
var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate, validate and export a dataset",
	Example: `  synthgen generate --preset customer_analytics --out ./data
  synthgen generate --config bank.yaml --format csv,sqlite,xlsx --report run.json
  synthgen generate --preset quickstart --rows 5000 --seed 1`,
	Args: cobra.NoArgs,
	RunE: runGenerate,
}

// checkCmd generates and validates without writing files
var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate a config and its generated data without exporting",
	Args:  cobra.NoArgs,
	RunE:  runCheck,
}

// presetsCmd lists the embedded presets
var presetsCmd = &cobra.Command{
	Use:   "presets",
	Short: "List built-in presets",
	Args:  cobra.NoArgs,
	RunE:  runPresets,
}

var presetsShowCmd = &cobra.Command{
	Use:   "show NAME",
	Short: "Print a preset's YAML",
	Args:  cobra.ExactArgs(1),
	RunE:  runPresetsShow,
}

// describeCmd prints the dimension/measure metadata of a config
var describeCmd = &cobra.Command{
	Use:   "describe",
	Short: "Print dataset metadata as JSON",
	Args:  cobra.NoArgs,
	RunE:  runDescribe,
}

// inspectCmd aggregates an exported CSV
var inspectCmd = &cobra.Command{
	Use:   "inspect FILE",
	Short: "Group and aggregate an exported CSV",
	Example: `  synthgen inspect data/quickstart.csv --group-by category --measure x --agg avg
  synthgen inspect data/customer_analytics_pulse.csv --group-by industry --measure case_mttr_hours --since 2025-05-23`,
	Args: cobra.ExactArgs(1),
	RunE: runInspect,
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "console", "Log encoding: json or console")

	// Config selection
	for _, cmd := range []*cobra.Command{generateCmd, checkCmd, describeCmd} {
		cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to a YAML or JSON config")
		cmd.Flags().StringVarP(&presetName, "preset", "p", "", "Name of a built-in preset")
		cmd.Flags().IntVar(&rowsFlag, "rows", 0, "Override the row count")
		cmd.Flags().Int64Var(&seedFlag, "seed", 0, "Override the random seed")
		cmd.Flags().StringVar(&endFlag, "end", "", "Override the end of the date range")
		cmd.Flags().StringVar(&nowFlag, "now", "", "Clock used when the config has no end date (YYYY-MM-DD or RFC 3339)")
		cmd.MarkFlagsMutuallyExclusive("config", "preset")
	}
	for _, cmd := range []*cobra.Command{generateCmd, checkCmd} {
		cmd.Flags().StringVarP(&outDir, "out", "o", "", "Output directory")
		cmd.Flags().StringSliceVarP(&formats, "format", "f", nil, "Export formats (csv, sqlite, xlsx, schema)")
	}
	generateCmd.Flags().StringVar(&reportPath, "report", "", `Write the run report as JSON ("-" for stdout)`)

	inspectCmd.Flags().StringVar(&inspectSchema, "schema", "", "Metadata JSON (default: the .schema.json next to FILE)")
	inspectCmd.Flags().StringVarP(&groupBy, "group-by", "g", "", "Dimension to group by")
	inspectCmd.Flags().StringVarP(&measure, "measure", "m", "", "Measure to aggregate")
	inspectCmd.Flags().StringVarP(&aggregation, "agg", "a", "avg", "Aggregation: sum, avg, min, max, count")
	inspectCmd.Flags().StringVar(&sortBy, "sort", "value_desc", "Sort: value_desc, value_asc, count_desc, label_asc, label_desc")
	inspectCmd.Flags().IntVar(&limit, "limit", 0, "Maximum groups to print")
	inspectCmd.Flags().StringVar(&since, "since", "", "Only rows at or after this time")
	inspectCmd.Flags().StringToStringVar(&where, "where", nil, "Dimension equality filters (key=value)")

	presetsCmd.AddCommand(presetsShowCmd)

	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(presetsCmd)
	rootCmd.AddCommand(describeCmd)
	rootCmd.AddCommand(inspectCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
