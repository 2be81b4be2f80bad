package report

import (
	"math"
	"sort"

	"github.com/arpitbhardwaj7/syscallminer/pkg/types"
)

// DefaultTargets are the pairs the baseline measurement tracks when none are configured.
var DefaultTargets = []types.PairKey{
	{Process: "guardian.exe", Activity: "ReadFile"},
	{Process: "explorer.exe", Activity: "RegQueryValue"},
	{Process: "notepad.exe", Activity: "ReadFile"},
}

// Baseline holds the reference performance numbers of one target pair.
type Baseline struct {
	Pair           types.PairKey `json:"pair"`
	Events         int           `json:"events"`
	MeanMs         float64       `json:"mean_ms"`
	MedianMs       float64       `json:"median_ms"`
	StdMs          float64       `json:"std_ms"`
	MinMs          float64       `json:"min_ms"`
	MaxMs          float64       `json:"max_ms"`
	P25Ms          float64       `json:"p25_ms"`
	P75Ms          float64       `json:"p75_ms"`
	P95Ms          float64       `json:"p95_ms"`
	P99Ms          float64       `json:"p99_ms"`
	TotalImpactMs  float64       `json:"total_impact_ms"`
	AffectedCases  int           `json:"affected_cases"`
	EventsPerCase  float64       `json:"events_per_case"`
	Outliers       int           `json:"outliers"`
	CoeffVariation float64       `json:"coeff_variation"`
	Distribution   string        `json:"distribution"`
	PeakHour       int           `json:"peak_hour"`
	PeakHourEvents int           `json:"peak_hour_events"`
	Priority       string        `json:"priority"`
}

// MeasureBaselines computes a Baseline for every target pair present in events,
// in the order the targets were given.
func MeasureBaselines(events []types.Event, targets []types.PairKey) []Baseline {
	if len(targets) == 0 {
		targets = DefaultTargets
	}
	wanted := make(map[types.PairKey][]types.Event, len(targets))
	for _, t := range targets {
		wanted[t] = nil
	}
	for _, ev := range events {
		key := ev.Key()
		if bucket, ok := wanted[key]; ok {
			wanted[key] = append(bucket, ev)
		}
	}

	out := make([]Baseline, 0, len(targets))
	seen := make(map[types.PairKey]bool, len(targets))
	for _, t := range targets {
		if seen[t] {
			continue
		}
		seen[t] = true
		if len(wanted[t]) == 0 {
			continue
		}
		out = append(out, measure(t, wanted[t]))
	}
	return out
}

func measure(key types.PairKey, events []types.Event) Baseline {
	vals := durations(events)
	sort.Float64s(vals)
	n := float64(len(vals))

	b := Baseline{
		Pair:   key,
		Events: len(vals),
		MinMs:  vals[0],
		MaxMs:  vals[len(vals)-1],
	}
	for _, v := range vals {
		b.TotalImpactMs += v
	}
	b.MeanMs = b.TotalImpactMs / n
	b.MedianMs = quantileSorted(vals, 0.5)
	b.P25Ms = quantileSorted(vals, 0.25)
	b.P75Ms = quantileSorted(vals, 0.75)
	b.P95Ms = quantileSorted(vals, 0.95)
	b.P99Ms = quantileSorted(vals, 0.99)

	var m2, m3 float64
	for _, v := range vals {
		d := v - b.MeanMs
		m2 += d * d
		m3 += d * d * d
	}
	if len(vals) > 1 {
		b.StdMs = math.Sqrt(m2 / (n - 1))
	}
	if b.MeanMs > 0 {
		b.CoeffVariation = b.StdMs / b.MeanMs
	}
	b.Distribution = distributionShape(skewness(m2/n, m3/n))

	iqr := b.P75Ms - b.P25Ms
	lower, upper := b.P25Ms-1.5*iqr, b.P75Ms+1.5*iqr
	for _, v := range vals {
		if v < lower || v > upper {
			b.Outliers++
		}
	}

	cases := map[string]struct{}{}
	var hourly [24]int
	for _, ev := range events {
		if ev.CaseID != "" {
			cases[ev.CaseID] = struct{}{}
		}
		if !ev.Timestamp.IsZero() {
			hourly[ev.Timestamp.Hour()]++
		}
	}
	b.AffectedCases = len(cases)
	if b.AffectedCases > 0 {
		b.EventsPerCase = n / float64(b.AffectedCases)
	}
	for h, c := range hourly {
		if c > b.PeakHourEvents {
			b.PeakHour, b.PeakHourEvents = h, c
		}
	}
	b.Priority = Priority(b.MeanMs)
	return b
}

// skewness is the biased sample skewness from the second and third central moments.
func skewness(m2, m3 float64) float64 {
	if m2 == 0 {
		return 0
	}
	return m3 / math.Pow(m2, 1.5)
}

func distributionShape(skew float64) string {
	switch {
	case math.Abs(skew) < 0.5:
		return "Normal-like"
	case skew > 1:
		return "Right-skewed"
	case skew < -1:
		return "Left-skewed"
	default:
		return "Moderately skewed"
	}
}
