package report

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/arpitbhardwaj7/syscallminer/pkg/types"
)

// ErrUnknownProcess is returned when a profile is requested for a process with no events.
var ErrUnknownProcess = errors.New("process not found")

// slowQuantile marks the calls a profile lists as slow operations.
const slowQuantile = 0.95

// ActivityProfile is the duration summary of one activity within a process.
type ActivityProfile struct {
	Activity string  `json:"activity"`
	Count    int     `json:"count"`
	MeanMs   float64 `json:"mean_ms"`
	MedianMs float64 `json:"median_ms"`
	StdMs    float64 `json:"std_ms"`
	MinMs    float64 `json:"min_ms"`
	MaxMs    float64 `json:"max_ms"`
	Cases    int     `json:"cases"`
}

// ActivityCount is a plain activity tally.
type ActivityCount struct {
	Activity string `json:"activity"`
	Count    int    `json:"count"`
}

// Variant is one distinct activity sequence shared by a set of cases.
type Variant struct {
	Activities []string `json:"activities"`
	Cases      int      `json:"cases"`
	Pct        float64  `json:"pct"`
}

func (v Variant) String() string {
	return strings.Join(v.Activities, " → ")
}

// ProcessProfile describes the behaviour of a single process across a log.
type ProcessProfile struct {
	Process    string            `json:"process"`
	Events     int               `json:"events"`
	Sessions   int               `json:"sessions"`
	Start      time.Time         `json:"start"`
	End        time.Time         `json:"end"`
	Activities []ActivityProfile `json:"activities"`

	// Busiest and Quietest only consider hours that saw at least one event.
	Busiest  *HourCount `json:"busiest_hour,omitempty"`
	Quietest *HourCount `json:"quietest_hour,omitempty"`

	SlowThresholdMs float64         `json:"slow_threshold_ms"`
	SlowEvents      int             `json:"slow_events"`
	SlowActivities  []ActivityCount `json:"slow_activities"`

	TotalVariants    int       `json:"total_variants"`
	Variants         []Variant `json:"variants"`
	Top5CoveragePct  float64   `json:"top5_coverage_pct"`
	Top10CoveragePct float64   `json:"top10_coverage_pct"`
}

// BuildProcessProfile summarises every event of process (matched case-insensitively).
// Variants group cases by their time-ordered activity sequence; topVariants caps how
// many are kept, <= 0 keeps all of them.
func BuildProcessProfile(events []types.Event, process string, topVariants int) (ProcessProfile, error) {
	var own []types.Event
	for _, ev := range events {
		if strings.EqualFold(ev.ProcessName, process) {
			own = append(own, ev)
		}
	}
	if len(own) == 0 {
		return ProcessProfile{}, fmt.Errorf("%w: %s", ErrUnknownProcess, process)
	}

	p := ProcessProfile{Process: own[0].ProcessName, Events: len(own)}
	byActivity := map[string][]types.Event{}
	var hourly [24]int
	timed := false
	for _, ev := range own {
		byActivity[ev.ActivityName] = append(byActivity[ev.ActivityName], ev)
		if ev.Timestamp.IsZero() {
			continue
		}
		timed = true
		hourly[ev.Timestamp.Hour()]++
		if p.Start.IsZero() || ev.Timestamp.Before(p.Start) {
			p.Start = ev.Timestamp
		}
		if ev.Timestamp.After(p.End) {
			p.End = ev.Timestamp
		}
	}

	for name, evs := range byActivity {
		b := measure(types.PairKey{Process: p.Process, Activity: name}, evs)
		p.Activities = append(p.Activities, ActivityProfile{
			Activity: name,
			Count:    b.Events,
			MeanMs:   b.MeanMs,
			MedianMs: b.MedianMs,
			StdMs:    b.StdMs,
			MinMs:    b.MinMs,
			MaxMs:    b.MaxMs,
			Cases:    b.AffectedCases,
		})
	}
	sort.Slice(p.Activities, func(i, j int) bool {
		if p.Activities[i].Count != p.Activities[j].Count {
			return p.Activities[i].Count > p.Activities[j].Count
		}
		return p.Activities[i].Activity < p.Activities[j].Activity
	})

	if timed {
		p.Busiest, p.Quietest = busiestAndQuietest(hourly)
	}

	p.SlowThresholdMs = Quantile(durations(own), slowQuantile)
	slow := map[string]int{}
	for _, ev := range own {
		if ev.DurationMs > p.SlowThresholdMs {
			p.SlowEvents++
			slow[ev.ActivityName]++
		}
	}
	p.SlowActivities = rankCounts(slow, 5)

	variants, cases := countVariants(own)
	p.Sessions = cases
	p.TotalVariants = len(variants)
	if cases > 0 {
		var top5, top10 int
		for i := range variants {
			variants[i].Pct = float64(variants[i].Cases) / float64(cases) * 100
			if i < 5 {
				top5 += variants[i].Cases
			}
			if i < 10 {
				top10 += variants[i].Cases
			}
		}
		p.Top5CoveragePct = float64(top5) / float64(cases) * 100
		p.Top10CoveragePct = float64(top10) / float64(cases) * 100
	}
	if topVariants > 0 && len(variants) > topVariants {
		variants = variants[:topVariants]
	}
	p.Variants = variants
	return p, nil
}

// busiestAndQuietest picks the hours with the most and fewest events among the
// non-empty ones. Ties go to the earlier hour.
func busiestAndQuietest(hourly [24]int) (*HourCount, *HourCount) {
	var busiest, quietest *HourCount
	for h, c := range hourly {
		if c == 0 {
			continue
		}
		if busiest == nil || c > busiest.Count {
			busiest = &HourCount{Hour: h, Count: c}
		}
		if quietest == nil || c < quietest.Count {
			quietest = &HourCount{Hour: h, Count: c}
		}
	}
	return busiest, quietest
}

func rankCounts(counts map[string]int, limit int) []ActivityCount {
	out := make([]ActivityCount, 0, len(counts))
	for name, c := range counts {
		out = append(out, ActivityCount{Activity: name, Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Activity < out[j].Activity
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// countVariants groups events by case, orders each case by timestamp (input order
// breaks ties) and counts identical activity sequences. Events without a case ID are
// ignored. The variants come back most common first, and the case count is returned
// alongside.
func countVariants(events []types.Event) ([]Variant, int) {
	byCase := map[string][]types.Event{}
	var order []string
	for _, ev := range events {
		if ev.CaseID == "" {
			continue
		}
		if _, ok := byCase[ev.CaseID]; !ok {
			order = append(order, ev.CaseID)
		}
		byCase[ev.CaseID] = append(byCase[ev.CaseID], ev)
	}

	index := map[string]int{}
	var variants []Variant
	for _, id := range order {
		evs := byCase[id]
		sort.SliceStable(evs, func(i, j int) bool { return evs[i].Timestamp.Before(evs[j].Timestamp) })
		seq := make([]string, len(evs))
		for i, ev := range evs {
			seq[i] = ev.ActivityName
		}
		key := strings.Join(seq, "\x00")
		if i, ok := index[key]; ok {
			variants[i].Cases++
			continue
		}
		index[key] = len(variants)
		variants = append(variants, Variant{Activities: seq, Cases: 1})
	}
	sort.SliceStable(variants, func(i, j int) bool { return variants[i].Cases > variants[j].Cases })
	return variants, len(order)
}
