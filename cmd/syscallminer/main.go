// Package main provides the syscallminer CLI for mining bottlenecks out of Windows
// system-call event logs.
//
// Usage:
//
//	syscallminer generate [-config <file>] [-size small|medium|large] [-cases N] [-hours H] [-seed S] [-out path]
//	syscallminer analyze  [-config <file>] -input <glob> [-quantile q] [-min-impact ms] [-topk K] [-require] [-strict] [-xlsx path] [-csv path] [-save]
//	syscallminer baseline [-config <file>] -input <glob> [-target proc:act ...]
//	syscallminer solve    [-config <file>] -input <glob> [-out dir] [-offline]
//	syscallminer history  [-config <file>] [-limit N] [-compare idA,idB] [-delete id]
//	syscallminer profile  [-config <file>] -input <glob> -process <name> [-variants N]
//	syscallminer watch    [-config <file>] -input <glob> [-interval 5s] [-on-change]
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/arpitbhardwaj7/syscallminer/pkg/config"
)

// errUsage marks errors already explained by a usage message.
var errUsage = errors.New("usage")

type command struct {
	name    string
	summary string
	run     func(args []string) error
}

var commands = []command{
	{"generate", "Write a synthetic system-call log", runGenerate},
	{"analyze", "Score process → activity bottlenecks in a log", runAnalyze},
	{"baseline", "Measure baseline statistics for target pairs", runBaseline},
	{"solve", "Produce a remediation report for the top bottlenecks", runSolve},
	{"history", "List, compare or delete saved analysis runs", runHistory},
	{"profile", "Report the behaviour and variants of one process", runProfile},
	{"watch", "Re-analyze a log on an interval in a live view", runWatch},
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	name := os.Args[1]
	if name == "help" || name == "--help" || name == "-h" {
		printUsage()
		return
	}
	for _, cmd := range commands {
		if cmd.name != name {
			continue
		}
		if err := cmd.run(os.Args[2:]); err != nil {
			if !errors.Is(err, errUsage) {
				fmt.Fprintf(os.Stderr, "syscallminer %s: %v\n", name, err)
			}
			os.Exit(1)
		}
		return
	}
	fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", name)
	printUsage()
	os.Exit(1)
}

func printUsage() {
	fmt.Fprint(os.Stderr, "syscallminer - system call bottleneck miner\n\n")
	fmt.Fprint(os.Stderr, "Usage:\n")
	fmt.Fprint(os.Stderr, "  syscallminer <command> [flags]\n\n")
	fmt.Fprint(os.Stderr, "Commands:\n")
	for _, cmd := range commands {
		fmt.Fprintf(os.Stderr, "  %-9s %s\n", cmd.name, cmd.summary)
	}
	fmt.Fprint(os.Stderr, "\nUse \"syscallminer <command> -h\" for more information about a command.\n")
}

// stringList is a repeatable string flag.
type stringList []string

func (s *stringList) String() string { return strings.Join(*s, ",") }

func (s *stringList) Set(v string) error {
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			*s = append(*s, part)
		}
	}
	return nil
}

// commonFlags are registered on every subcommand.
type commonFlags struct {
	configPath string
	logLevel   string
}

func newFlagSet(name, usage string) (*flag.FlagSet, *commonFlags) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	common := &commonFlags{}
	fs.StringVar(&common.configPath, "config", "", "Path to YAML config file (defaults apply when empty)")
	fs.StringVar(&common.logLevel, "log-level", "", "Override log level (debug, info, warn, error)")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: syscallminer %s [flags]\n\n%s\n\nFlags:\n", name, usage)
		fs.PrintDefaults()
	}
	return fs, common
}

// parseFlags parses args and reports which flags were set explicitly.
func parseFlags(fs *flag.FlagSet, args []string) (map[string]bool, error) {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil, errUsage
		}
		return nil, fmt.Errorf("%w: %v", errUsage, err)
	}
	set := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })
	return set, nil
}

// setup loads the config and builds the logger every command shares.
func setup(common *commonFlags) (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(common.configPath)
	if err != nil {
		return nil, nil, err
	}
	if common.logLevel != "" {
		cfg.Log.Level = common.logLevel
	}
	log, err := newLogger(cfg.Log)
	if err != nil {
		return nil, nil, err
	}
	return cfg, log, nil
}

// newLogger builds a console (development) or JSON (production) logger on stderr.
func newLogger(lc config.LogConfig) (*zap.Logger, error) {
	var zc zap.Config
	if strings.EqualFold(lc.Format, "json") {
		zc = zap.NewProductionConfig()
	} else {
		zc = zap.NewDevelopmentConfig()
		zc.DisableStacktrace = true
	}
	level, err := zap.ParseAtomicLevel(lc.Level)
	if err != nil {
		return nil, fmt.Errorf("log level %q: %w", lc.Level, err)
	}
	zc.Level = level
	zc.OutputPaths = []string{"stderr"}
	zc.ErrorOutputPaths = []string{"stderr"}
	log, err := zc.Build()
	if err != nil {
		return nil, fmt.Errorf("building logger: %w", err)
	}
	return log, nil
}

// collectInputs merges -input values with positional arguments.
func collectInputs(fs *flag.FlagSet, inputs stringList) ([]string, error) {
	all := append([]string(nil), inputs...)
	all = append(all, fs.Args()...)
	if len(all) == 0 {
		fs.Usage()
		return nil, fmt.Errorf("%w: no input, pass -input <glob>", errUsage)
	}
	return all, nil
}
