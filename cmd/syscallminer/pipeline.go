package main

import (
	"flag"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/arpitbhardwaj7/syscallminer/pkg/collector/eventlog"
	"github.com/arpitbhardwaj7/syscallminer/pkg/config"
	"github.com/arpitbhardwaj7/syscallminer/pkg/metrics"
	"github.com/arpitbhardwaj7/syscallminer/pkg/report"
	"github.com/arpitbhardwaj7/syscallminer/pkg/types"
)

// analysis is one load-filter-score pass over the input logs.
type analysis struct {
	sources  []string
	loaded   eventlog.Result
	events   []types.Event
	params   report.Params
	records  []types.BottleneckRecord
	overview report.Overview
}

// analysisFlags are the scoring and filtering flags shared by analyze, solve and watch.
type analysisFlags struct {
	quantile   float64
	minImpact  float64
	topK       int
	require    bool
	strict     bool
	hideSystem bool
	process    string
	activity   string
}

func registerAnalysisFlags(fs *flag.FlagSet) *analysisFlags {
	af := &analysisFlags{}
	fs.Float64Var(&af.quantile, "quantile", types.DefaultQuantile, "Duration quantile that sets the threshold, in (0,1)")
	fs.Float64Var(&af.minImpact, "min-impact", types.DefaultMinImpactMs, "Minimum total impact in ms for a pair to qualify")
	fs.IntVar(&af.topK, "topk", types.DefaultTopK, "Number of pairs to display")
	fs.BoolVar(&af.require, "require", false, "Fail when no pair qualifies")
	fs.BoolVar(&af.strict, "strict", false, "Fail on the first malformed row instead of skipping it")
	fs.BoolVar(&af.hideSystem, "hide-system", false, "Hide OS processes such as System, smss.exe and csrss.exe")
	fs.StringVar(&af.process, "process", "", "Only keep processes containing this substring (case-insensitive)")
	fs.StringVar(&af.activity, "activity", "", "Only keep activities containing this substring (case-insensitive)")
	return af
}

// apply copies explicitly set flags over the config, then revalidates it.
func (af *analysisFlags) apply(cfg *config.Config, set map[string]bool) error {
	a := &cfg.Analysis
	if set["quantile"] {
		q := af.quantile
		a.Quantile = &q
	}
	if set["min-impact"] {
		v := af.minImpact
		a.MinImpactMs = &v
	}
	if set["topk"] {
		a.TopK = af.topK
	}
	if set["require"] {
		a.RequireResults = af.require
	}
	if set["strict"] {
		a.Strict = af.strict
	}
	if set["hide-system"] {
		a.HideSystem = af.hideSystem
	}
	if set["process"] {
		a.ProcessFilter = af.process
	}
	if set["activity"] {
		a.ActivityFilter = af.activity
	}
	if a.TopK <= 0 {
		a.TopK = 1
	}
	return cfg.Validate()
}

// runPipeline discovers, loads, filters and scores the input logs.
func runPipeline(cfg *config.Config, patterns []string, log *zap.Logger) (*analysis, error) {
	start := time.Now()
	an, err := pipeline(cfg, patterns, log)
	if err != nil {
		metrics.AnalysisRuns.WithLabelValues(metrics.StatusError).Inc()
		return nil, err
	}
	metrics.ObserveAnalysis(time.Since(start), an.overview.ThresholdMs, len(an.records), an.overview.TimeImpactPct)
	log.Info("analysis complete",
		zap.Int("files", len(an.sources)),
		zap.Int("events", len(an.events)),
		zap.Int("rejected", an.loaded.Rejected),
		zap.Float64("threshold_ms", an.overview.ThresholdMs),
		zap.Int("bottlenecks", len(an.records)),
		zap.Duration("elapsed", time.Since(start)))
	return an, nil
}

func pipeline(cfg *config.Config, patterns []string, log *zap.Logger) (*analysis, error) {
	paths, err := eventlog.DiscoverAll(patterns)
	if err != nil {
		return nil, err
	}
	loaded, err := eventlog.LoadAll(paths, eventlog.Options{Strict: cfg.Analysis.Strict, Logger: log})
	if err != nil {
		return nil, err
	}
	metrics.EventsIngested.Add(float64(loaded.Accepted))
	for _, f := range loaded.Files {
		metrics.RowsRejected.WithLabelValues(f.Format.String()).Add(float64(f.Rejected))
	}

	events := report.FilterEvents(loaded.Events, cfg.Analysis.Filter())
	if len(events) < len(loaded.Events) {
		log.Debug("filtered events", zap.Int("kept", len(events)), zap.Int("loaded", len(loaded.Events)))
	}

	params := cfg.Analysis.Params()
	records, err := report.ScoreBottlenecks(events, params)
	if err != nil {
		return nil, fmt.Errorf("scoring: %w", err)
	}
	ov, err := report.BuildOverview(events, params.Quantile)
	if err != nil {
		return nil, fmt.Errorf("overview: %w", err)
	}
	return &analysis{
		sources:  paths,
		loaded:   loaded,
		events:   events,
		params:   params,
		records:  records,
		overview: ov,
	}, nil
}
