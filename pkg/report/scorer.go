package report

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/arpitbhardwaj7/syscallminer/pkg/types"
)

var (
	// ErrInvalidParameter reports a quantile outside (0,1) or a negative impact threshold.
	ErrInvalidParameter = errors.New("invalid parameter")
	// ErrEmptyInput is returned only when the caller demands at least one bottleneck.
	ErrEmptyInput = errors.New("no qualifying bottlenecks")
)

// Params controls bottleneck scoring.
type Params struct {
	Quantile       float64
	MinImpactMs    float64
	RequireResults bool
}

// DefaultParams returns the thresholds used by the original analysis scripts.
func DefaultParams() Params {
	return Params{Quantile: types.DefaultQuantile, MinImpactMs: types.DefaultMinImpactMs}
}

// Validate checks the thresholds before any work is done.
func (p Params) Validate() error {
	if err := validateQuantile(p.Quantile); err != nil {
		return err
	}
	if math.IsNaN(p.MinImpactMs) || p.MinImpactMs < 0 {
		return fmt.Errorf("%w: min impact %v must be >= 0", ErrInvalidParameter, p.MinImpactMs)
	}
	return nil
}

func validateQuantile(q float64) error {
	if math.IsNaN(q) || q <= 0 || q >= 1 {
		return fmt.Errorf("%w: quantile %v outside (0,1)", ErrInvalidParameter, q)
	}
	return nil
}

type pairAgg struct {
	count int
	sum   float64
	max   float64
	cases map[string]struct{}
}

// ScoreBottlenecks ranks the (process, activity) pairs whose mean duration reaches the
// q-th duration quantile and whose cumulative time reaches MinImpactMs.
// The result is ordered by total impact, then event count, then process and activity name.
func ScoreBottlenecks(events []types.Event, params Params) ([]types.BottleneckRecord, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if len(events) == 0 {
		if params.RequireResults {
			return nil, ErrEmptyInput
		}
		return []types.BottleneckRecord{}, nil
	}

	threshold := Quantile(durations(events), params.Quantile)

	groups := make(map[types.PairKey]*pairAgg)
	for _, ev := range events {
		key := ev.Key()
		agg, ok := groups[key]
		if !ok {
			agg = &pairAgg{cases: make(map[string]struct{})}
			groups[key] = agg
		}
		agg.count++
		agg.sum += ev.DurationMs
		if ev.DurationMs > agg.max {
			agg.max = ev.DurationMs
		}
		if ev.CaseID != "" {
			agg.cases[ev.CaseID] = struct{}{}
		}
	}

	records := make([]types.BottleneckRecord, 0, len(groups))
	for key, agg := range groups {
		mean := agg.sum / float64(agg.count)
		total := float64(agg.count) * mean
		if mean < threshold || total < params.MinImpactMs {
			continue
		}
		records = append(records, types.BottleneckRecord{
			ProcessName:    key.Process,
			ActivityName:   key.Activity,
			EventCount:     agg.count,
			MeanDurationMs: mean,
			TotalImpactMs:  total,
			MaxDurationMs:  agg.max,
			AffectedCases:  len(agg.cases),
		})
	}
	SortRecords(records)

	if len(records) == 0 && params.RequireResults {
		return nil, ErrEmptyInput
	}
	return records, nil
}

// SortRecords orders records by total impact desc, event count desc, process asc, activity asc.
func SortRecords(records []types.BottleneckRecord) {
	sort.Slice(records, func(i, j int) bool {
		a, b := records[i], records[j]
		if a.TotalImpactMs != b.TotalImpactMs {
			return a.TotalImpactMs > b.TotalImpactMs
		}
		if a.EventCount != b.EventCount {
			return a.EventCount > b.EventCount
		}
		if a.ProcessName != b.ProcessName {
			return a.ProcessName < b.ProcessName
		}
		return a.ActivityName < b.ActivityName
	})
}

// TopRecords returns at most topK records; topK <= 0 keeps everything.
func TopRecords(records []types.BottleneckRecord, topK int) []types.BottleneckRecord {
	if topK > 0 && len(records) > topK {
		return records[:topK]
	}
	return records
}

// Quantile returns the q-th quantile of values using linear interpolation between the
// closest ranks. values is not modified. An empty slice yields 0.
func Quantile(values []float64, q float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	return quantileSorted(sorted, q)
}

func quantileSorted(sorted []float64, q float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[n-1]
	}
	pos := q * float64(n-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo] + (sorted[hi]-sorted[lo])*frac
}

func durations(events []types.Event) []float64 {
	out := make([]float64, len(events))
	for i, ev := range events {
		out[i] = ev.DurationMs
	}
	return out
}
