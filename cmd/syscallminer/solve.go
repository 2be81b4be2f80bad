package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/tmc/langchaingo/llms"
	"go.uber.org/zap"

	"github.com/arpitbhardwaj7/syscallminer/pkg/advisor"
	"github.com/arpitbhardwaj7/syscallminer/pkg/config"
	"github.com/arpitbhardwaj7/syscallminer/pkg/metrics"
)

func runSolve(args []string) error {
	fs, common := newFlagSet("solve", "Ask the configured model for a remediation plan, falling back to built-in solutions.")
	var inputs stringList
	fs.Var(&inputs, "input", "Log file, directory or glob (repeatable)")
	af := registerAnalysisFlags(fs)
	outDir := fs.String("out", "", "Directory for ai_solutions.md and analysis_summary.json (default from config)")
	offline := fs.Bool("offline", false, "Skip the model and use the built-in solutions")
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
	if *outDir != "" {
		cfg.Output.Dir = *outDir
	}

	an, err := runPipeline(cfg, patterns, log)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	adv := advisor.New(buildModel(cfg.Advisor, *offline, log), advisor.Options{
		ModelName:   cfg.Advisor.Model,
		Temperature: *cfg.Advisor.Temperature,
		MaxTokens:   cfg.Advisor.MaxTokens,
		Timeout:     cfg.Advisor.Timeout,
		Logger:      log,
	})
	input := advisor.Analysis{Overview: an.overview, Records: an.records}
	sol, err := adv.Solve(ctx, input)
	if errors.Is(err, advisor.ErrNoBottlenecks) {
		fmt.Println("No pair met the duration threshold and impact floor; nothing to solve.")
		return nil
	}
	if err != nil {
		return err
	}
	metrics.AdvisorRequests.WithLabelValues(sol.Source).Inc()

	paths, err := advisor.SaveResults(cfg.Output.Dir, sol, input)
	if err != nil {
		return err
	}
	fmt.Println(sol.Text)
	fmt.Println()
	for _, p := range paths {
		fmt.Printf("Saved %s\n", p)
	}
	return nil
}

// buildModel returns nil when the model is disabled or has no credentials, which
// makes the advisor answer with the built-in solutions.
func buildModel(cfg config.AdvisorConfig, offline bool, log *zap.Logger) llms.Model {
	if offline || !cfg.AdvisorEnabled() {
		return nil
	}
	model, err := advisor.NewOpenAICompatible(cfg.Model, cfg.BaseURL, cfg.APIKeyEnv)
	if err != nil {
		log.Warn("model unavailable, using local solutions", zap.Error(err))
		return nil
	}
	return model
}
