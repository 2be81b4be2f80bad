package generator

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/arpitbhardwaj7/syscallminer/pkg/types"
)

// Size is a named preset of case count and time span.
type Size struct {
	Cases int
	Hours int
}

// Sizes are the presets offered on the command line.
var Sizes = map[string]Size{
	"small":  {Cases: 500, Hours: 12},
	"medium": {Cases: 2000, Hours: 18},
	"large":  {Cases: 5000, Hours: 24},
}

// LookupSize resolves a preset name.
func LookupSize(name string) (Size, error) {
	s, ok := Sizes[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Size{}, fmt.Errorf("unknown size %q (want small, medium or large)", name)
	}
	return s, nil
}

const (
	stageFollowRate = 0.8
	errorRate       = 0.03
	pidBase         = 2000
)

// Options configures one generation run.
type Options struct {
	Cases    int
	TimeSpan time.Duration
	Seed     int64
	// Now is the end of the generated time span; zero means time.Now().
	Now    time.Time
	Logger *zap.Logger
}

// Generator produces synthetic Windows system-call events.
type Generator struct {
	opts  Options
	rng   *rand.Rand
	calls []string
	log   *zap.Logger
}

// New returns a generator. The same options always yield the same events.
func New(opts Options) *Generator {
	if opts.Cases <= 0 {
		opts.Cases = Sizes["small"].Cases
	}
	if opts.TimeSpan <= 0 {
		opts.TimeSpan = time.Duration(Sizes["small"].Hours) * time.Hour
	}
	if opts.Now.IsZero() {
		opts.Now = time.Now()
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Generator{
		opts:  opts,
		rng:   rand.New(rand.NewSource(opts.Seed)),
		calls: allCalls(),
		log:   log,
	}
}

// Generate builds the full event log sorted by timestamp.
func (g *Generator) Generate() []types.Event {
	base := g.opts.Now.Add(-g.opts.TimeSpan)
	distribution := map[string]int{}
	var events []types.Event

	for c := 0; c < g.opts.Cases; c++ {
		wf := g.pickWorkflow()
		distribution[wf.Name]++
		offset := time.Duration(g.rng.Float64() * float64(g.opts.TimeSpan))
		events = append(events, g.caseEvents(wf, c, base.Add(offset))...)
	}
	sort.SliceStable(events, func(i, j int) bool { return events[i].Timestamp.Before(events[j].Timestamp) })

	g.log.Info("generated event log",
		zap.Int("events", len(events)),
		zap.Int("cases", g.opts.Cases),
		zap.Int("workflow_types", len(distribution)))
	return events
}

func (g *Generator) pickWorkflow() Workflow {
	var total float64
	for _, wf := range Workflows {
		total += wf.Weight
	}
	r := g.rng.Float64() * total
	for _, wf := range Workflows {
		if r < wf.Weight {
			return wf
		}
		r -= wf.Weight
	}
	return Workflows[len(Workflows)-1]
}

func (g *Generator) caseEvents(wf Workflow, caseIdx int, start time.Time) []types.Event {
	var events []types.Event
	current := start
	caseID := fmt.Sprintf("%s_%d", wf.Name, caseIdx)

	for _, stage := range wf.Stages {
		n := 2 + g.rng.Intn(4)
		for i := 0; i < n; i++ {
			var activity string
			if g.rng.Float64() < stageFollowRate {
				activity = stage.Activities[g.rng.Intn(len(stage.Activities))]
			} else {
				activity = g.calls[g.rng.Intn(len(g.calls))]
			}

			bottleneck := wf.isBottleneck(activity)
			var delay float64
			if bottleneck {
				delay = 100 + g.rng.Float64()*900
			} else {
				delay = 1 + g.rng.Float64()*49
			}
			current = current.Add(time.Duration(delay * float64(time.Millisecond)))

			result := "SUCCESS"
			if g.rng.Float64() < errorRate {
				result = "ERROR"
			}
			events = append(events, types.Event{
				ProcessName:       wf.Executable,
				ActivityName:      activity,
				DurationMs:        math.Round(delay*100) / 100,
				Timestamp:         current,
				CaseID:            caseID,
				WorkflowType:      wf.Name,
				ProcessStage:      stage.Name,
				PID:               pidBase + caseIdx,
				TID:               100 + g.rng.Intn(900),
				FilePath:          g.filePath(activity, wf.Name),
				OperationCategory: Category(activity),
				Result:            result,
				IsBottleneck:      bottleneck,
				EventQuality:      Quality(delay, bottleneck),
				AnomalyScore:      AnomalyScore(delay, activity, wf.Name),
			})
		}
	}
	return events
}

func (g *Generator) filePath(activity, workflow string) string {
	if !strings.Contains(activity, "File") && !strings.Contains(activity, "Directory") {
		return ""
	}
	contexts, ok := workflowContexts[workflow]
	if !ok {
		contexts = []string{"temp_files"}
	}
	paths := fileContexts[contexts[g.rng.Intn(len(contexts))]]
	return paths[g.rng.Intn(len(paths))]
}

// Quality labels how normal a call of the given duration looks.
func Quality(durationMs float64, bottleneck bool) string {
	switch {
	case durationMs > 500:
		return "poor"
	case bottleneck && durationMs > 100:
		return "acceptable"
	case durationMs < 10:
		return "excellent"
	}
	return "good"
}

// AnomalyScore rates a call from 0 to 1 by its duration and by how out of place
// the activity is for the workflow.
func AnomalyScore(durationMs float64, activity, workflow string) float64 {
	var score float64
	switch {
	case durationMs > 1000:
		score += 0.5
	case durationMs > 500:
		score += 0.3
	}
	switch {
	case workflow == "document_editing" && strings.Contains(activity, "Thread"):
		score += 0.2
	case workflow == "system_maintenance" && strings.Contains(activity, "File"):
		score += 0.1
	}
	return math.Min(score, 1)
}

// Summary describes a generated log.
type Summary struct {
	TotalEvents      int            `json:"total_events"`
	UniqueCases      int            `json:"unique_cases"`
	Workflows        map[string]int `json:"workflow_distribution"`
	BottleneckPct    float64        `json:"bottleneck_percentage"`
	ErrorRatePct     float64        `json:"error_rate"`
	AverageCaseLen   float64        `json:"average_case_length"`
	AverageDuration  float64        `json:"average_duration_ms"`
	TotalDurationSec float64        `json:"total_duration_s"`
}

// Summarize computes dataset metadata for a log.
func Summarize(events []types.Event) Summary {
	s := Summary{TotalEvents: len(events), Workflows: map[string]int{}}
	if len(events) == 0 {
		return s
	}
	cases := map[string]string{}
	var bottlenecks, errs int
	var total float64
	for _, ev := range events {
		cases[ev.CaseID] = ev.WorkflowType
		if ev.IsBottleneck {
			bottlenecks++
		}
		if ev.Result == "ERROR" {
			errs++
		}
		total += ev.DurationMs
	}
	for _, wf := range cases {
		s.Workflows[wf]++
	}
	n := float64(len(events))
	s.UniqueCases = len(cases)
	s.BottleneckPct = float64(bottlenecks) / n * 100
	s.ErrorRatePct = float64(errs) / n * 100
	s.AverageCaseLen = n / float64(len(cases))
	s.AverageDuration = total / n
	s.TotalDurationSec = total / 1000
	return s
}
