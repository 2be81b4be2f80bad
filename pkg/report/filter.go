package report

import (
	"strings"

	"github.com/arpitbhardwaj7/syscallminer/pkg/types"
)

// FilterConfig narrows the event set before scoring.
type FilterConfig struct {
	HideSystem     bool
	ProcessFilter  string // case-insensitive substring of the process name
	ActivityFilter string // case-insensitive substring of the activity name
}

// FilterEvents returns the events that pass cfg. The input slice is not modified.
func FilterEvents(events []types.Event, cfg FilterConfig) []types.Event {
	if !cfg.HideSystem && cfg.ProcessFilter == "" && cfg.ActivityFilter == "" {
		return events
	}
	procFilter := strings.ToLower(strings.TrimSpace(cfg.ProcessFilter))
	actFilter := strings.ToLower(strings.TrimSpace(cfg.ActivityFilter))
	filtered := make([]types.Event, 0, len(events))
	for _, ev := range events {
		if passesFilters(ev, cfg.HideSystem, procFilter, actFilter) {
			filtered = append(filtered, ev)
		}
	}
	return filtered
}

func passesFilters(ev types.Event, hideSystem bool, procFilter, actFilter string) bool {
	if hideSystem && isSystemProcess(ev.ProcessName) {
		return false
	}
	if procFilter != "" && !strings.Contains(strings.ToLower(ev.ProcessName), procFilter) {
		return false
	}
	if actFilter != "" && !strings.Contains(strings.ToLower(ev.ActivityName), actFilter) {
		return false
	}
	return true
}

func isSystemProcess(name string) bool {
	name = strings.ToLower(strings.TrimSpace(name))
	switch name {
	case "", "system", "idle", "system idle process", "registry", "smss.exe", "csrss.exe", "wininit.exe":
		return true
	}
	return false
}
