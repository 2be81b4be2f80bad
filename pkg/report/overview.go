package report

import (
	"sort"
	"time"

	"github.com/arpitbhardwaj7/syscallminer/pkg/types"
)

// GroupStats summarises above-threshold events for one activity or one process.
type GroupStats struct {
	Name           string  `json:"name"`
	Count          int     `json:"count"`
	MeanDurationMs float64 `json:"mean_duration_ms"`
	MaxDurationMs  float64 `json:"max_duration_ms"`
	AffectedCases  int     `json:"affected_cases"`
}

// HourCount is one bucket of the hourly histogram.
type HourCount struct {
	Hour  int `json:"hour"`
	Count int `json:"count"`
}

// Overview is the system-level impact picture of one event log.
type Overview struct {
	TotalEvents        int          `json:"total_events"`
	TotalTimeMs        float64      `json:"total_time_ms"`
	ThresholdMs        float64      `json:"threshold_ms"`
	BottleneckEvents   int          `json:"bottleneck_events"`
	BottleneckTimeMs   float64      `json:"bottleneck_time_ms"`
	TimeImpactPct      float64      `json:"time_impact_pct"`
	CaseImpactPct      float64      `json:"case_impact_pct"`
	FrequencyImpactPct float64      `json:"frequency_impact_pct"`
	UniqueProcesses    int          `json:"unique_processes"`
	UniqueActivities   int          `json:"unique_activities"`
	UniqueCases        int          `json:"unique_cases"`
	Start              time.Time    `json:"start"`
	End                time.Time    `json:"end"`
	Hourly             [24]int      `json:"hourly"`
	PeakHours          []HourCount  `json:"peak_hours"`
	ByActivity         []GroupStats `json:"by_activity"`
	ByProcess          []GroupStats `json:"by_process"`
}

// Span returns how much wall-clock time the log covers.
func (o Overview) Span() time.Duration {
	if o.Start.IsZero() || o.End.IsZero() {
		return 0
	}
	return o.End.Sub(o.Start)
}

type groupAgg struct {
	count int
	sum   float64
	max   float64
	cases map[string]struct{}
}

func (g *groupAgg) add(ev types.Event) {
	g.count++
	g.sum += ev.DurationMs
	if ev.DurationMs > g.max {
		g.max = ev.DurationMs
	}
	if ev.CaseID != "" {
		g.cases[ev.CaseID] = struct{}{}
	}
}

// BuildOverview computes the impact percentages, hourly pattern and per-activity /
// per-process groupings of events whose duration exceeds the q-th quantile.
func BuildOverview(events []types.Event, q float64) (Overview, error) {
	if err := validateQuantile(q); err != nil {
		return Overview{}, err
	}
	var ov Overview
	if len(events) == 0 {
		return ov, nil
	}

	ov.TotalEvents = len(events)
	ov.ThresholdMs = Quantile(durations(events), q)

	processes := map[string]struct{}{}
	activities := map[string]struct{}{}
	allCases := map[string]struct{}{}
	hitCases := map[string]struct{}{}
	byActivity := map[string]*groupAgg{}
	byProcess := map[string]*groupAgg{}

	for _, ev := range events {
		ov.TotalTimeMs += ev.DurationMs
		processes[ev.ProcessName] = struct{}{}
		activities[ev.ActivityName] = struct{}{}
		if ev.CaseID != "" {
			allCases[ev.CaseID] = struct{}{}
		}
		if !ev.Timestamp.IsZero() {
			if ov.Start.IsZero() || ev.Timestamp.Before(ov.Start) {
				ov.Start = ev.Timestamp
			}
			if ov.End.IsZero() || ev.Timestamp.After(ov.End) {
				ov.End = ev.Timestamp
			}
		}

		if ev.DurationMs <= ov.ThresholdMs {
			continue
		}
		ov.BottleneckEvents++
		ov.BottleneckTimeMs += ev.DurationMs
		if ev.CaseID != "" {
			hitCases[ev.CaseID] = struct{}{}
		}
		if !ev.Timestamp.IsZero() {
			ov.Hourly[ev.Timestamp.Hour()]++
		}
		aggFor(byActivity, ev.ActivityName).add(ev)
		aggFor(byProcess, ev.ProcessName).add(ev)
	}

	ov.UniqueProcesses = len(processes)
	ov.UniqueActivities = len(activities)
	ov.UniqueCases = len(allCases)
	if ov.TotalTimeMs > 0 {
		ov.TimeImpactPct = ov.BottleneckTimeMs / ov.TotalTimeMs * 100
	}
	if len(allCases) > 0 {
		ov.CaseImpactPct = float64(len(hitCases)) / float64(len(allCases)) * 100
	}
	ov.FrequencyImpactPct = float64(ov.BottleneckEvents) / float64(ov.TotalEvents) * 100
	ov.PeakHours = peakHours(ov.Hourly, 3)
	ov.ByActivity = flattenGroups(byActivity)
	ov.ByProcess = flattenGroups(byProcess)
	return ov, nil
}

func aggFor(m map[string]*groupAgg, name string) *groupAgg {
	agg, ok := m[name]
	if !ok {
		agg = &groupAgg{cases: map[string]struct{}{}}
		m[name] = agg
	}
	return agg
}

func flattenGroups(m map[string]*groupAgg) []GroupStats {
	out := make([]GroupStats, 0, len(m))
	for name, agg := range m {
		out = append(out, GroupStats{
			Name:           name,
			Count:          agg.count,
			MeanDurationMs: agg.sum / float64(agg.count),
			MaxDurationMs:  agg.max,
			AffectedCases:  len(agg.cases),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Name < out[j].Name
	})
	return out
}

func peakHours(hourly [24]int, n int) []HourCount {
	hours := make([]HourCount, 0, 24)
	for h, c := range hourly {
		if c > 0 {
			hours = append(hours, HourCount{Hour: h, Count: c})
		}
	}
	sort.SliceStable(hours, func(i, j int) bool { return hours[i].Count > hours[j].Count })
	if len(hours) > n {
		hours = hours[:n]
	}
	return hours
}
