package main

import (
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"

	"github.com/arpitbhardwaj7/syscallminer/pkg/export"
	"github.com/arpitbhardwaj7/syscallminer/pkg/report"
	"github.com/arpitbhardwaj7/syscallminer/pkg/store"
	"github.com/arpitbhardwaj7/syscallminer/pkg/ui"
)

func runAnalyze(args []string) error {
	fs, common := newFlagSet("analyze", "Score every process → activity pair and rank the ones that clear the duration threshold and impact floor.")
	var inputs stringList
	fs.Var(&inputs, "input", "Log file, directory or glob (repeatable)")
	af := registerAnalysisFlags(fs)
	xlsxPath := fs.String("xlsx", "", "Write the analysis tables to this XLSX workbook")
	csvPath := fs.String("csv", "", "Write the ranked table as CSV to this path (- for stdout)")
	save := fs.Bool("save", false, "Save the run to the history store")
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
	if err := af.apply(cfg, set); err != nil {
		return err
	}

	an, err := runPipeline(cfg, patterns, log)
	if err != nil {
		return err
	}

	r := ui.AutoRenderer()
	if r.Color() {
		fmt.Print(ui.Banner())
	}
	if focus := r.RenderFocus(an.records); focus != "" {
		fmt.Println(focus)
	}
	fmt.Println(r.RenderRecords(an.records, cfg.Analysis.TopK))
	fmt.Print(r.RenderOverview(an.overview))

	if *xlsxPath != "" {
		targets, err := cfg.Analysis.Targets()
		if err != nil {
			return err
		}
		err = export.WriteWorkbook(*xlsxPath, export.Analysis{
			Overview:  an.overview,
			Records:   an.records,
			Baselines: report.MeasureBaselines(an.events, targets),
		})
		if err != nil {
			return err
		}
		log.Info("wrote workbook", zap.String("path", *xlsxPath))
	}

	if *csvPath != "" {
		if err := writeRecordsCSV(*csvPath, an); err != nil {
			return err
		}
	}

	if *save {
		s, err := store.Open(cfg.Store.Path, log)
		if err != nil {
			return err
		}
		defer s.Close()
		run := store.NewRunSummary(an.sources, an.params, an.overview, an.loaded.Rejected, an.records)
		if err := s.Save(&run); err != nil {
			return err
		}
		fmt.Printf("\nSaved run %s\n", run.ID)
	}
	return nil
}

func writeRecordsCSV(path string, an *analysis) error {
	var w io.Writer = os.Stdout
	if path != "-" {
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}
	if err := export.WriteRecordsCSV(w, an.records); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
