package report

import (
	"fmt"

	"github.com/arpitbhardwaj7/syscallminer/pkg/types"
)

// Priority labels used by baselines and tables.
const (
	PriorityHigh       = "HIGH"
	PriorityMedium     = "MEDIUM"
	PriorityManageable = "MANAGEABLE"
)

// Priority labels a pair by its mean duration.
func Priority(meanMs float64) string {
	switch {
	case meanMs > 1500:
		return PriorityHigh
	case meanMs > 800:
		return PriorityMedium
	default:
		return PriorityManageable
	}
}

// SelectFocus picks the record to headline for the operator: the top-ranked one.
func SelectFocus(records []types.BottleneckRecord) *types.BottleneckRecord {
	if len(records) == 0 {
		return nil
	}
	best := records[0]
	return &best
}

// FocusSummary returns a short explanation string for the status line.
func FocusSummary(rec types.BottleneckRecord) string {
	summary := fmt.Sprintf("%d events, %.1fms avg, %.1fs total impact",
		rec.EventCount, rec.MeanDurationMs, rec.TotalImpactMs/1000)
	if rec.AffectedCases > 0 {
		summary += fmt.Sprintf(", %d cases", rec.AffectedCases)
	}
	return summary
}

func prioritySeverity(label string) int {
	switch label {
	case PriorityHigh:
		return 2
	case PriorityMedium:
		return 1
	default:
		return 0
	}
}

// CountByPriority tallies records per priority label, most severe first.
func CountByPriority(records []types.BottleneckRecord) []PriorityCount {
	counts := map[string]int{}
	for _, rec := range records {
		counts[Priority(rec.MeanDurationMs)]++
	}
	out := make([]PriorityCount, 0, 3)
	for _, label := range []string{PriorityHigh, PriorityMedium, PriorityManageable} {
		if counts[label] == 0 {
			continue
		}
		out = append(out, PriorityCount{Label: label, Count: counts[label], Severity: prioritySeverity(label)})
	}
	return out
}

// PriorityCount is one row of CountByPriority.
type PriorityCount struct {
	Label    string
	Count    int
	Severity int
}
