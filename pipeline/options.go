package pipeline

import (
	"time"

	"go.uber.org/zap"

	"github.com/spektr-org/synthdata/engine"
)

// ============================================================================
// PIPELINE OPTIONS — Functional options for Run()
// ============================================================================

// Option configures pipeline behavior via functional options pattern.
type Option func(*options)

// Transform edits the dataset after scenarios and before validation.
type Transform func(*engine.Dataset) error

type options struct {
	logger     *zap.Logger
	clock      func() time.Time
	transforms []Transform
	dryRun     bool
}

// WithLogger sets the logger stage progress is reported to.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithClock sets the clock used when the config leaves the end date
// empty, and for timestamped file names.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.clock = now
		}
	}
}

// WithTransform appends a dataset hook run before validation.
func WithTransform(t Transform) Option {
	return func(o *options) {
		o.transforms = append(o.transforms, t)
	}
}

// WithDryRun generates and validates without writing any file.
func WithDryRun(dry bool) Option {
	return func(o *options) {
		o.dryRun = dry
	}
}

// applyOptions creates the run options from functional options.
func applyOptions(opts []Option) *options {
	o := &options{
		logger: zap.NewNop(),
		clock:  time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}
