package store

import (
	"math"
	"sort"

	"github.com/arpitbhardwaj7/syscallminer/pkg/types"
)

// PairDelta is the change of one pair present in both runs.
type PairDelta struct {
	Pair          types.PairKey `json:"pair"`
	BeforeMeanMs  float64       `json:"before_mean_ms"`
	AfterMeanMs   float64       `json:"after_mean_ms"`
	MeanDeltaMs   float64       `json:"mean_delta_ms"`
	MeanDeltaPct  float64       `json:"mean_delta_pct"`
	BeforeTotalMs float64       `json:"before_total_ms"`
	AfterTotalMs  float64       `json:"after_total_ms"`
	TotalDeltaMs  float64       `json:"total_delta_ms"`
	TotalDeltaPct float64       `json:"total_delta_pct"`
}

// Comparison lists how the bottlenecks moved between two runs.
type Comparison struct {
	BeforeID    string                   `json:"before_id"`
	AfterID     string                   `json:"after_id"`
	Changed     []PairDelta              `json:"changed"`
	Appeared    []types.BottleneckRecord `json:"appeared"`
	Disappeared []types.BottleneckRecord `json:"disappeared"`
}

// Compare pairs records by (process, activity). Changed pairs are ordered by the size
// of their total-impact change, largest first.
func Compare(before, after RunSummary) Comparison {
	cmp := Comparison{BeforeID: before.ID, AfterID: after.ID}
	prev := make(map[types.PairKey]types.BottleneckRecord, len(before.Records))
	for _, r := range before.Records {
		prev[r.Key()] = r
	}
	seen := make(map[types.PairKey]bool, len(after.Records))
	for _, a := range after.Records {
		key := a.Key()
		seen[key] = true
		b, ok := prev[key]
		if !ok {
			cmp.Appeared = append(cmp.Appeared, a)
			continue
		}
		cmp.Changed = append(cmp.Changed, PairDelta{
			Pair:          key,
			BeforeMeanMs:  b.MeanDurationMs,
			AfterMeanMs:   a.MeanDurationMs,
			MeanDeltaMs:   a.MeanDurationMs - b.MeanDurationMs,
			MeanDeltaPct:  pctChange(b.MeanDurationMs, a.MeanDurationMs),
			BeforeTotalMs: b.TotalImpactMs,
			AfterTotalMs:  a.TotalImpactMs,
			TotalDeltaMs:  a.TotalImpactMs - b.TotalImpactMs,
			TotalDeltaPct: pctChange(b.TotalImpactMs, a.TotalImpactMs),
		})
	}
	for _, b := range before.Records {
		if !seen[b.Key()] {
			cmp.Disappeared = append(cmp.Disappeared, b)
		}
	}
	sort.SliceStable(cmp.Changed, func(i, j int) bool {
		di, dj := math.Abs(cmp.Changed[i].TotalDeltaMs), math.Abs(cmp.Changed[j].TotalDeltaMs)
		if di != dj {
			return di > dj
		}
		return cmp.Changed[i].Pair.String() < cmp.Changed[j].Pair.String()
	})
	return cmp
}

func pctChange(before, after float64) float64 {
	if before == 0 {
		return 0
	}
	return (after - before) / before * 100
}
