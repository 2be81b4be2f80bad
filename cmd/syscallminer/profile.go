package main

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/arpitbhardwaj7/syscallminer/pkg/collector/eventlog"
	"github.com/arpitbhardwaj7/syscallminer/pkg/report"
	"github.com/arpitbhardwaj7/syscallminer/pkg/ui"
)

const defaultVariants = 10

func runProfile(args []string) error {
	fs, common := newFlagSet("profile", "Report the behaviour of a single process: activities, busy hours, slow calls and variants.")
	var inputs stringList
	fs.Var(&inputs, "input", "Log file, directory or glob (repeatable)")
	process := fs.String("process", "", "Process to profile, e.g. notepad.exe (required)")
	variants := fs.Int("variants", defaultVariants, "Number of variants to list (0 lists all)")
	strict := fs.Bool("strict", false, "Fail on the first malformed row instead of skipping it")
	set, err := parseFlags(fs, args)
	if err != nil {
		return err
	}
	patterns, err := collectInputs(fs, inputs)
	if err != nil {
		return err
	}
	if *process == "" {
		fs.Usage()
		return fmt.Errorf("%w: no process, pass -process <name>", errUsage)
	}
	cfg, log, err := setup(common)
	if err != nil {
		return err
	}
	defer log.Sync()
	if set["strict"] {
		cfg.Analysis.Strict = *strict
	}

	paths, err := eventlog.DiscoverAll(patterns)
	if err != nil {
		return err
	}
	loaded, err := eventlog.LoadAll(paths, eventlog.Options{Strict: cfg.Analysis.Strict, Logger: log})
	if err != nil {
		return err
	}
	p, err := report.BuildProcessProfile(loaded.Events, *process, *variants)
	if err != nil {
		return err
	}
	log.Info("profiled process",
		zap.String("process", p.Process),
		zap.Int("events", p.Events),
		zap.Int("variants", p.TotalVariants))

	fmt.Print(ui.AutoRenderer().RenderProfile(p))
	return nil
}
