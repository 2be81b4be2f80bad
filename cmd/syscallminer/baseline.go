package main

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/arpitbhardwaj7/syscallminer/pkg/collector/eventlog"
	"github.com/arpitbhardwaj7/syscallminer/pkg/config"
	"github.com/arpitbhardwaj7/syscallminer/pkg/export"
	"github.com/arpitbhardwaj7/syscallminer/pkg/report"
	"github.com/arpitbhardwaj7/syscallminer/pkg/types"
	"github.com/arpitbhardwaj7/syscallminer/pkg/ui"
)

func runBaseline(args []string) error {
	fs, common := newFlagSet("baseline", "Measure reference statistics for target process:activity pairs.")
	var inputs, targets stringList
	fs.Var(&inputs, "input", "Log file, directory or glob (repeatable)")
	fs.Var(&targets, "target", "Target pair as process:activity (repeatable; defaults to the configured targets)")
	strict := fs.Bool("strict", false, "Fail on the first malformed row instead of skipping it")
	xlsxPath := fs.String("xlsx", "", "Also write the baselines to this XLSX workbook")
	set, err := parseFlags(fs, args)
	if err != nil {
		return err
	}
	patterns, err := collectInputs(fs, inputs)
	if err != nil {
		return err
	}
	cfg, log, err := setup(common)
	if err != nil {
		return err
	}
	defer log.Sync()
	if set["strict"] {
		cfg.Analysis.Strict = *strict
	}

	pairs, err := resolveTargets(cfg, targets)
	if err != nil {
		return err
	}

	paths, err := eventlog.DiscoverAll(patterns)
	if err != nil {
		return err
	}
	loaded, err := eventlog.LoadAll(paths, eventlog.Options{Strict: cfg.Analysis.Strict, Logger: log})
	if err != nil {
		return err
	}
	baselines := report.MeasureBaselines(loaded.Events, pairs)
	log.Info("measured baselines", zap.Int("targets", len(pairs)), zap.Int("found", len(baselines)))

	fmt.Print(ui.AutoRenderer().RenderBaselines(baselines))

	if *xlsxPath != "" {
		if err := export.WriteWorkbook(*xlsxPath, export.Analysis{Baselines: baselines}); err != nil {
			return err
		}
		log.Info("wrote workbook", zap.String("path", *xlsxPath))
	}
	return nil
}

// resolveTargets prefers pairs given on the command line over the configured ones.
// A nil result selects the built-in default targets.
func resolveTargets(cfg *config.Config, flagged []string) ([]types.PairKey, error) {
	if len(flagged) == 0 {
		return cfg.Analysis.Targets()
	}
	pairs := make([]types.PairKey, 0, len(flagged))
	for _, s := range flagged {
		p, err := config.ParsePair(s)
		if err != nil {
			return nil, err
		}
		pairs = append(pairs, p)
	}
	return pairs, nil
}
