package main

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/arpitbhardwaj7/syscallminer/pkg/collector/eventlog"
	"github.com/arpitbhardwaj7/syscallminer/pkg/config"
	"github.com/arpitbhardwaj7/syscallminer/pkg/metrics"
	"github.com/arpitbhardwaj7/syscallminer/pkg/ui"
)

const defaultInterval = 5 * time.Second

// watchFlags are the flags specific to the watch command.
type watchFlags struct {
	interval time.Duration
	onChange bool
}

func registerWatchFlags(fs *flag.FlagSet) *watchFlags {
	wf := &watchFlags{}
	fs.DurationVar(&wf.interval, "interval", defaultInterval, "Refresh interval (e.g. 3s, 1m)")
	fs.BoolVar(&wf.onChange, "on-change", false, "Also refresh as soon as an input log is written")
	return wf
}

// every returns the refresh interval, falling back to the default when unset or negative.
func (wf *watchFlags) every() time.Duration {
	if wf.interval <= 0 {
		return defaultInterval
	}
	return wf.interval
}

func runWatch(args []string) error {
	fs, common := newFlagSet("watch", "Re-analyze the input logs every interval and redraw the ranking in place.")
	var inputs stringList
	fs.Var(&inputs, "input", "Log file, directory or glob (repeatable)")
	af := registerAnalysisFlags(fs)
	wf := registerWatchFlags(fs)
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
	every := wf.every()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var lastRun atomic.Int64
	if cfg.Metrics.Enabled {
		metrics.RegisterHealthCheck("analysis", metrics.StalenessCheck(func() time.Time {
			if ns := lastRun.Load(); ns != 0 {
				return time.Unix(0, ns)
			}
			return time.Time{}
		}, 3*every))
		go func() {
			if err := metrics.Serve(ctx, cfg.Metrics.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("metrics server failed", zap.String("addr", cfg.Metrics.Addr), zap.Error(err))
			}
		}()
		log.Info("serving metrics", zap.String("addr", cfg.Metrics.Addr))
	}

	cleanupTerminal := enableSingleView(log)
	defer cleanupTerminal()

	var lastAttempt time.Time
	refresh := func() {
		lastAttempt = time.Now()
		if err := snapshotAndPrint(cfg, patterns, every, log); err != nil {
			log.Warn("refresh failed", zap.Error(err))
			return
		}
		lastRun.Store(time.Now().UnixNano())
	}
	refresh()

	var changes <-chan fsnotify.Event
	var watchErrs <-chan error
	if wf.onChange {
		if paths, err := eventlog.DiscoverAll(patterns); err != nil {
			log.Warn("not watching inputs for changes", zap.Error(err))
		} else if w, err := newChangeWatcher(paths); err != nil {
			log.Warn("not watching inputs for changes", zap.Error(err))
		} else {
			defer w.Close()
			changes, watchErrs = w.Events, w.Errors
		}
	}

	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			refresh()
		case ev, ok := <-changes:
			if !ok {
				changes = nil
				continue
			}
			if isLogChange(ev) && time.Since(lastAttempt) >= minRefreshGap {
				log.Debug("input changed", zap.String("path", ev.Name), zap.String("op", ev.Op.String()))
				refresh()
			}
		case err, ok := <-watchErrs:
			if !ok {
				watchErrs = nil
				continue
			}
			log.Warn("watcher error", zap.Error(err))
		}
	}
}

func snapshotAndPrint(cfg *config.Config, patterns []string, interval time.Duration, log *zap.Logger) error {
	an, err := runPipeline(cfg, patterns, log)
	if err != nil {
		return err
	}
	r := ui.AutoRenderer()

	var buf bytes.Buffer
	if r.Color() {
		buf.WriteString(ui.Banner())
	}
	fmt.Fprintf(&buf, "syscallminer watch (press Ctrl+C to exit)\n")
	fmt.Fprintf(&buf, "Updated: %s | Interval: %v | Files: %d | Rejected rows: %d\n\n",
		time.Now().Format(time.RFC3339), interval, len(an.sources), an.loaded.Rejected)
	if focus := r.RenderFocus(an.records); focus != "" {
		buf.WriteString(focus)
		buf.WriteString("\n")
	}
	buf.WriteString(r.RenderRecords(an.records, cfg.Analysis.TopK))
	buf.WriteString("\n")
	buf.WriteString(r.RenderOverview(an.overview))

	clearScreen()
	fmt.Print(buf.String())
	return nil
}

func clearScreen() {
	fmt.Print("\033[H\033[2J")
}
