// Package pipeline runs the four generation stages in order: dimensions,
// metrics, scenarios, then validation and export.
package pipeline

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/spektr-org/synthdata/engine"
	"github.com/spektr-org/synthdata/export"
	"github.com/spektr-org/synthdata/generator"
	"github.com/spektr-org/synthdata/scenario"
	"github.com/spektr-org/synthdata/schema"
	"github.com/spektr-org/synthdata/validate"
)

// Report summarizes one run.
type Report struct {
	Name         string             `json:"name"`
	Seed         int64              `json:"seed"`
	Rows         int                `json:"rows"`
	Start        time.Time          `json:"start"`
	End          time.Time          `json:"end"`
	Columns      []string           `json:"columns"`
	Scenarios    []scenario.Outcome `json:"scenarios"`
	Expectations []validate.Result  `json:"expectations,omitempty"`
	Warnings     []string           `json:"warnings,omitempty"`
	Files        []export.Artifact  `json:"files,omitempty"`
	Skipped      []export.Skip      `json:"skipped,omitempty"`
	Summary      *schema.Summary    `json:"summary,omitempty"`

	// Dataset is the validated in-memory table.
	Dataset *engine.Dataset `json:"-"`
}

// Run executes a whole generation run. Configuration errors are returned
// before anything is drawn; validation errors before anything is written.
// The partial report is returned alongside any error after generation.
func Run(cfg *schema.Config, opts ...Option) (*Report, error) {
	o := applyOptions(opts)
	log := o.logger.With(zap.String("dataset", cfg.Name))
	now := o.clock()

	if err := cfg.ValidateAt(now); err != nil {
		return nil, err
	}
	start, end, err := cfg.Dates.Resolve(now)
	if err != nil {
		return nil, &schema.ConfigError{Field: "dates", Reason: err.Error()}
	}

	report := &Report{
		Name:    cfg.Name,
		Seed:    cfg.Seed,
		Rows:    cfg.Rows,
		Start:   start,
		End:     end,
		Columns: cfg.Columns(),
	}
	if cfg.Summary.PrimaryInsight != "" {
		s := cfg.Summary
		report.Summary = &s
	}

	// Stage 1 and 2: dimensions and metrics
	log.Info("generating dataset",
		zap.Int("rows", cfg.Rows),
		zap.Int64("seed", cfg.Seed),
		zap.Time("start", start),
		zap.Time("end", end))
	src := generator.NewSource(cfg.Seed)
	ds, err := generator.Generate(cfg, start, end, src)
	if err != nil {
		return report, fmt.Errorf("generation failed: %w", err)
	}
	report.Dataset = ds

	// Stage 3: scenarios
	outcomes, err := scenario.Apply(ds, cfg, start, end, src)
	report.Scenarios = outcomes
	if err != nil {
		return report, err
	}
	for _, out := range outcomes {
		log.Debug("scenario applied",
			zap.String("rule", out.Rule),
			zap.String("kind", out.Kind),
			zap.Bool("disabled", out.Disabled),
			zap.Int("matched", out.Matched),
			zap.Int("affected", out.Affected))
		if !out.Disabled && out.Matched == 0 {
			report.Warnings = append(report.Warnings, fmt.Sprintf("scenario %q matched no rows", out.Rule))
		}
	}
	report.Warnings = append(report.Warnings, scenario.Overlaps(outcomes)...)

	for _, t := range o.transforms {
		if err := t(ds); err != nil {
			return report, fmt.Errorf("transform failed: %w", err)
		}
	}

	// Stage 4: validation, then export
	if err := validate.Check(ds, cfg); err != nil {
		log.Error("validation failed", zap.Error(err))
		return report, err
	}
	report.Expectations = validate.Evaluate(ds, cfg, start, end)
	report.Warnings = append(report.Warnings, validate.Warnings(report.Expectations)...)

	if o.dryRun {
		logWarnings(log, report.Warnings)
		return report, nil
	}

	res, err := export.Export(&export.Request{
		Dataset:  ds,
		Spec:     cfg.Export,
		Metadata: schema.Describe(cfg),
		Stamp:    now,
	})
	if res != nil {
		report.Files = res.Artifacts
		report.Skipped = res.Skipped
		for _, s := range res.Skipped {
			report.Warnings = append(report.Warnings, s.Reason)
		}
	}
	if err != nil {
		return report, fmt.Errorf("export failed: %w", err)
	}

	logWarnings(log, report.Warnings)
	for _, f := range report.Files {
		log.Info("wrote file",
			zap.String("format", f.Format),
			zap.String("path", f.Path),
			zap.Int("rows", f.Rows),
			zap.Int64("bytes", f.Bytes))
	}
	return report, nil
}

func logWarnings(log *zap.Logger, warnings []string) {
	for _, w := range warnings {
		log.Warn(w)
	}
}
