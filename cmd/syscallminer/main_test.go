package main

import (
	"errors"
	"flag"
	"io"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"github.com/arpitbhardwaj7/syscallminer/pkg/config"
	"github.com/arpitbhardwaj7/syscallminer/pkg/generator"
	"github.com/arpitbhardwaj7/syscallminer/pkg/report"
	"github.com/arpitbhardwaj7/syscallminer/pkg/types"
)

func TestStringListSplitsAndRepeats(t *testing.T) {
	var s stringList
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	fs.Var(&s, "input", "")
	if err := fs.Parse([]string{"-input", "a.csv, b.csv", "-input", "logs/*.jsonl", "-input", ","}); err != nil {
		t.Fatalf("parse: %v", err)
	}
	want := stringList{"a.csv", "b.csv", "logs/*.jsonl"}
	if !reflect.DeepEqual(s, want) {
		t.Fatalf("got %v, want %v", s, want)
	}
}

func TestParseFlagsReportsSetFlags(t *testing.T) {
	fs, _ := newFlagSet("analyze", "")
	fs.SetOutput(io.Discard)
	af := registerAnalysisFlags(fs)
	set, err := parseFlags(fs, []string{"-quantile", "0.5", "-config", "x.yaml"})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !set["quantile"] || !set["config"] || set["min-impact"] {
		t.Fatalf("unexpected set flags: %v", set)
	}
	if af.quantile != 0.5 {
		t.Fatalf("quantile not parsed: %v", af.quantile)
	}

	fs2, _ := newFlagSet("analyze", "")
	fs2.SetOutput(io.Discard)
	if _, err := parseFlags(fs2, []string{"-nope"}); !errors.Is(err, errUsage) {
		t.Fatalf("expected usage error, got %v", err)
	}
}

func TestAnalysisFlagsOverrideOnlyWhenSet(t *testing.T) {
	cfg := config.Default()
	af := &analysisFlags{quantile: 0.5, minImpact: 0, topK: 0, hideSystem: true}

	if err := af.apply(cfg, map[string]bool{"quantile": true, "min-impact": true, "topk": true}); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if *cfg.Analysis.Quantile != 0.5 || *cfg.Analysis.MinImpactMs != 0 {
		t.Fatalf("set flags not applied: %+v", cfg.Analysis)
	}
	if cfg.Analysis.TopK != 1 {
		t.Fatalf("non-positive topk should clamp to 1, got %d", cfg.Analysis.TopK)
	}
	if cfg.Analysis.HideSystem {
		t.Fatalf("unset flag must not override config")
	}

	bad := &analysisFlags{quantile: 1.5}
	if err := bad.apply(config.Default(), map[string]bool{"quantile": true}); err == nil {
		t.Fatalf("expected validation error for quantile 1.5")
	}
}

func TestWatchFlags(t *testing.T) {
	cases := []struct {
		name     string
		args     []string
		every    time.Duration
		onChange bool
	}{
		{"defaults", nil, defaultInterval, false},
		{"opt in", []string{"-on-change", "-interval", "2s"}, 2 * time.Second, true},
		{"non-positive interval", []string{"-interval", "0s"}, defaultInterval, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			fs, _ := newFlagSet("watch", "")
			fs.SetOutput(io.Discard)
			wf := registerWatchFlags(fs)
			if _, err := parseFlags(fs, tc.args); err != nil {
				t.Fatalf("parse: %v", err)
			}
			if wf.every() != tc.every || wf.onChange != tc.onChange {
				t.Fatalf("got every=%v onChange=%v, want %v %v", wf.every(), wf.onChange, tc.every, tc.onChange)
			}
		})
	}
}

func TestNewLogger(t *testing.T) {
	for _, lc := range []config.LogConfig{
		{Level: "info", Format: "console"},
		{Level: "debug", Format: "json"},
	} {
		log, err := newLogger(lc)
		if err != nil {
			t.Fatalf("newLogger(%+v): %v", lc, err)
		}
		if lc.Level == "debug" && !log.Core().Enabled(zap.DebugLevel) {
			t.Fatalf("debug level not applied")
		}
	}
	if _, err := newLogger(config.LogConfig{Level: "loud"}); err == nil {
		t.Fatalf("expected error for unknown level")
	}
}

func TestResolveTargets(t *testing.T) {
	cfg := config.Default()
	got, err := resolveTargets(cfg, nil)
	if err != nil || got != nil {
		t.Fatalf("expected nil targets for defaults, got %v %v", got, err)
	}

	cfg.Analysis.TargetPairs = []string{"chrome.exe:ReadFile"}
	got, err = resolveTargets(cfg, []string{"guardian.exe:ReadFile"})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if len(got) != 1 || got[0] != (types.PairKey{Process: "guardian.exe", Activity: "ReadFile"}) {
		t.Fatalf("flags should win over config: %v", got)
	}
	if _, err := resolveTargets(cfg, []string{"broken"}); err == nil {
		t.Fatalf("expected error for malformed pair")
	}
}

func TestRunPipelineOnGeneratedLog(t *testing.T) {
	dir := t.TempDir()
	events := generator.New(generator.Options{
		Cases:    60,
		TimeSpan: 6 * time.Hour,
		Seed:     7,
		Now:      time.Date(2025, 6, 10, 18, 0, 0, 0, time.UTC),
	}).Generate()
	if err := generator.WriteCSV(filepath.Join(dir, "log.csv.gz"), events); err != nil {
		t.Fatalf("write log: %v", err)
	}

	cfg := config.Default()
	zero := 0.0
	cfg.Analysis.MinImpactMs = &zero

	an, err := runPipeline(cfg, []string{dir}, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("pipeline: %v", err)
	}
	if len(an.sources) != 1 || len(an.events) != len(events) || an.loaded.Rejected != 0 {
		t.Fatalf("unexpected load: sources=%v events=%d rejected=%d", an.sources, len(an.events), an.loaded.Rejected)
	}
	if an.overview.TotalEvents != len(events) {
		t.Fatalf("overview saw %d events, want %d", an.overview.TotalEvents, len(events))
	}

	want, err := report.ScoreBottlenecks(events, an.params)
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	if len(an.records) != len(want) {
		t.Fatalf("pipeline found %d records, direct scoring %d", len(an.records), len(want))
	}
	for i := range want {
		if an.records[i].Key() != want[i].Key() || an.records[i].EventCount != want[i].EventCount {
			t.Fatalf("record %d differs: %+v vs %+v", i, an.records[i], want[i])
		}
	}
}

func TestRunPipelineNoFiles(t *testing.T) {
	_, err := runPipeline(config.Default(), []string{filepath.Join(t.TempDir(), "*.csv")}, zap.NewNop())
	if err == nil {
		t.Fatalf("expected error for empty glob")
	}
}

func TestRunProfileRequiresProcess(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log.csv")
	if err := generator.WriteCSV(path, nil); err != nil {
		t.Fatalf("write log: %v", err)
	}
	if err := runProfile([]string{"-input", path}); !errors.Is(err, errUsage) {
		t.Fatalf("expected usage error without -process, got %v", err)
	}
}

func TestRunProfileOnGeneratedLog(t *testing.T) {
	events := generator.New(generator.Options{
		Cases:    30,
		TimeSpan: 2 * time.Hour,
		Seed:     3,
		Now:      time.Date(2025, 6, 10, 18, 0, 0, 0, time.UTC),
	}).Generate()
	path := filepath.Join(t.TempDir(), "log.csv")
	if err := generator.WriteCSV(path, events); err != nil {
		t.Fatalf("write log: %v", err)
	}
	process := events[0].ProcessName
	if err := runProfile([]string{"-input", path, "-process", process, "-log-level", "error"}); err != nil {
		t.Fatalf("profile %s: %v", process, err)
	}
	err := runProfile([]string{"-input", path, "-process", "nosuch.exe", "-log-level", "error"})
	if !errors.Is(err, report.ErrUnknownProcess) {
		t.Fatalf("expected ErrUnknownProcess, got %v", err)
	}
}
