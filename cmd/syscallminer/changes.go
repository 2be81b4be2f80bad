package main

import (
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/arpitbhardwaj7/syscallminer/pkg/collector/eventlog"
)

// minRefreshGap limits how often file writes can force a redraw.
const minRefreshGap = time.Second

// newChangeWatcher watches the directories holding paths, so rotated and newly
// created logs are seen as well as appends.
func newChangeWatcher(paths []string) (*fsnotify.Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	seen := map[string]bool{}
	for _, p := range paths {
		dir := filepath.Dir(p)
		if seen[dir] {
			continue
		}
		seen[dir] = true
		if err := w.Add(dir); err != nil {
			w.Close()
			return nil, err
		}
	}
	return w, nil
}

// isLogChange reports whether ev touched something the loader can read.
func isLogChange(ev fsnotify.Event) bool {
	if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
		return false
	}
	_, err := eventlog.DetectFormat(ev.Name)
	return err == nil
}
