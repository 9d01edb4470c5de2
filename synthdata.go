// Package synthdata generates reproducible synthetic tabular datasets.
//
// Usage:
//
//	import (
//	    "github.com/spektr-org/synthdata/pipeline"
//	    "github.com/spektr-org/synthdata/presets"
//	)
//
//	cfg, err := presets.Load("customer_analytics")
//	report, err := pipeline.Run(cfg, pipeline.WithLogger(logger))
//
// A run is four stages over one in-memory dataset: the generator draws a
// recency-weighted time index, categorical dimensions and sampled
// metrics; the scenario package applies rule-driven multiplicative
// patterns; validate checks row count, columns, span and recency; export
// writes CSV plus any of SQLite, XLSX and a metadata sidecar.
//
// All randomness comes from one seeded generator.Source threaded through
// every stage, so a config and a seed always yield the same bytes.
package synthdata
