package report

import (
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/arpitbhardwaj7/syscallminer/pkg/types"
)

func TestBuildOverview(t *testing.T) {
	base := time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC)
	var events []types.Event
	for i := 1; i <= 10; i++ {
		act := "ReadFile"
		if i%2 == 0 {
			act = "WriteFile"
		}
		events = append(events, types.Event{
			ProcessName:  "p.exe",
			ActivityName: act,
			DurationMs:   float64(i),
			Timestamp:    base.Add(time.Duration(i) * time.Hour),
			CaseID:       "c" + string(rune('0'+i%5)),
		})
	}

	ov, err := BuildOverview(events, 0.8)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(ov.ThresholdMs-8.2) > 1e-9 {
		t.Fatalf("unexpected threshold: %v", ov.ThresholdMs)
	}
	if ov.TotalEvents != 10 || ov.BottleneckEvents != 2 {
		t.Fatalf("unexpected counts: %+v", ov)
	}
	if math.Abs(ov.TimeImpactPct-19.0/55*100) > 1e-9 {
		t.Fatalf("unexpected time impact: %v", ov.TimeImpactPct)
	}
	if math.Abs(ov.FrequencyImpactPct-20) > 1e-9 {
		t.Fatalf("unexpected frequency impact: %v", ov.FrequencyImpactPct)
	}
	if math.Abs(ov.CaseImpactPct-40) > 1e-9 {
		t.Fatalf("unexpected case impact: %v", ov.CaseImpactPct)
	}
	if ov.UniqueProcesses != 1 || ov.UniqueActivities != 2 || ov.UniqueCases != 5 {
		t.Fatalf("unexpected cardinalities: %+v", ov)
	}
	if ov.Span() != 9*time.Hour {
		t.Fatalf("unexpected span: %v", ov.Span())
	}
	if ov.Hourly[9] != 1 || ov.Hourly[10] != 1 || ov.Hourly[8] != 0 {
		t.Fatalf("unexpected hourly histogram: %v", ov.Hourly)
	}
	if len(ov.PeakHours) != 2 || ov.PeakHours[0].Hour != 9 || ov.PeakHours[1].Hour != 10 {
		t.Fatalf("unexpected peak hours: %+v", ov.PeakHours)
	}
	if len(ov.ByActivity) != 2 || ov.ByActivity[0].Name != "ReadFile" || ov.ByActivity[1].Name != "WriteFile" {
		t.Fatalf("unexpected activity grouping: %+v", ov.ByActivity)
	}
	if len(ov.ByProcess) != 1 {
		t.Fatalf("unexpected process grouping: %+v", ov.ByProcess)
	}
	proc := ov.ByProcess[0]
	if proc.Count != 2 || proc.MaxDurationMs != 10 || math.Abs(proc.MeanDurationMs-9.5) > 1e-9 || proc.AffectedCases != 2 {
		t.Fatalf("unexpected process stats: %+v", proc)
	}
}

func TestBuildOverviewEdgeCases(t *testing.T) {
	if _, err := BuildOverview(nil, 1.5); !errors.Is(err, ErrInvalidParameter) {
		t.Fatalf("expected ErrInvalidParameter, got %v", err)
	}
	ov, err := BuildOverview(nil, 0.95)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ov.TotalEvents != 0 || ov.Span() != 0 || len(ov.PeakHours) != 0 {
		t.Fatalf("expected zero overview, got %+v", ov)
	}
	// Identical durations never exceed their own quantile.
	ov, err = BuildOverview(repeat("a", "b", 5, 20), 0.95)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ov.BottleneckEvents != 0 || ov.TimeImpactPct != 0 {
		t.Fatalf("flat durations should have no bottleneck events: %+v", ov)
	}
}

func TestMeasureBaselines(t *testing.T) {
	var events []types.Event
	for _, d := range []float64{4, 1, 100, 3, 2} {
		events = append(events, repeat("guardian.exe", "ReadFile", d, 1)...)
	}
	events = append(events, repeat("notepad.exe", "ReadFile", 5, 3)...)
	events = append(events, repeat("chrome.exe", "VirtualAlloc", 900, 10)...)

	targets := []types.PairKey{
		{Process: "notepad.exe", Activity: "ReadFile"},
		{Process: "guardian.exe", Activity: "ReadFile"},
		{Process: "missing.exe", Activity: "ReadFile"},
		{Process: "notepad.exe", Activity: "ReadFile"},
	}
	baselines := MeasureBaselines(events, targets)
	if len(baselines) != 2 {
		t.Fatalf("expected 2 baselines, got %+v", baselines)
	}
	if baselines[0].Pair.Process != "notepad.exe" || baselines[1].Pair.Process != "guardian.exe" {
		t.Fatalf("baselines must follow target order: %+v", baselines)
	}

	flat := baselines[0]
	if flat.Events != 3 || flat.StdMs != 0 || flat.Outliers != 0 || flat.Distribution != "Normal-like" {
		t.Fatalf("unexpected flat baseline: %+v", flat)
	}

	g := baselines[1]
	if g.Events != 5 || g.MinMs != 1 || g.MaxMs != 100 {
		t.Fatalf("unexpected range: %+v", g)
	}
	if math.Abs(g.MeanMs-22) > 1e-9 || g.MedianMs != 3 || g.P25Ms != 2 || g.P75Ms != 4 {
		t.Fatalf("unexpected central stats: %+v", g)
	}
	if math.Abs(g.StdMs-math.Sqrt(7610.0/4)) > 1e-9 {
		t.Fatalf("unexpected std: %v", g.StdMs)
	}
	if g.Outliers != 1 {
		t.Fatalf("expected 100ms to be the only outlier, got %d", g.Outliers)
	}
	if g.Distribution != "Right-skewed" {
		t.Fatalf("unexpected distribution: %s", g.Distribution)
	}
	if g.TotalImpactMs != 110 || g.Priority != PriorityManageable {
		t.Fatalf("unexpected impact or priority: %+v", g)
	}
	if g.PeakHour != 14 || g.PeakHourEvents != 5 {
		t.Fatalf("unexpected peak hour: %d/%d", g.PeakHour, g.PeakHourEvents)
	}
}

func TestMeasureBaselinesDefaultTargets(t *testing.T) {
	events := repeat("explorer.exe", "RegQueryValue", 1200, 4)
	baselines := MeasureBaselines(events, nil)
	if len(baselines) != 1 || baselines[0].Pair != DefaultTargets[1] {
		t.Fatalf("expected only the explorer default target, got %+v", baselines)
	}
	if baselines[0].Priority != PriorityMedium {
		t.Fatalf("unexpected priority: %s", baselines[0].Priority)
	}
}

func TestSuggestions(t *testing.T) {
	known := Suggestions(types.PairKey{Process: "Guardian.EXE", Activity: "ReadFile"})
	if len(known) != 4 || !strings.Contains(known[0], "scanning cache") {
		t.Fatalf("unexpected tailored suggestions: %v", known)
	}

	family := Suggestions(types.PairKey{Process: "winword.exe", Activity: "WriteFile"})
	if len(family) == 0 || !strings.Contains(family[0], "asynchronous I/O") {
		t.Fatalf("unexpected family suggestions: %v", family)
	}

	key := types.PairKey{Process: "odd.exe", Activity: "NtWeirdCall"}
	fallback := Suggestions(key)
	if len(fallback) != 1 || !strings.Contains(fallback[0], key.String()) {
		t.Fatalf("unexpected fallback: %v", fallback)
	}

	for k := range pairSuggestions {
		if k.Process != strings.ToLower(k.Process) {
			t.Fatalf("tailored key %v must use a lower-case process name", k)
		}
		upper := types.PairKey{Process: strings.ToUpper(k.Process), Activity: k.Activity}
		if got := Suggestions(upper); got[0] != pairSuggestions[k][0] {
			t.Fatalf("Suggestions(%v) = %v, want the tailored list", upper, got)
		}
	}

	known[0] = "mutated"
	if again := Suggestions(types.PairKey{Process: "guardian.exe", Activity: "ReadFile"}); again[0] == "mutated" {
		t.Fatalf("callers must not be able to mutate the suggestion table")
	}
}

func TestPriority(t *testing.T) {
	cases := []struct {
		mean float64
		want string
	}{
		{1500.1, PriorityHigh},
		{1500, PriorityMedium},
		{800.5, PriorityMedium},
		{800, PriorityManageable},
		{0, PriorityManageable},
	}
	for _, tc := range cases {
		if got := Priority(tc.mean); got != tc.want {
			t.Fatalf("Priority(%v) = %s, want %s", tc.mean, got, tc.want)
		}
	}
}

func TestSelectFocusAndSummary(t *testing.T) {
	if SelectFocus(nil) != nil {
		t.Fatalf("expected nil focus for no records")
	}
	records := []types.BottleneckRecord{
		{ProcessName: "notepad", ActivityName: "WriteFile", EventCount: 691, MeanDurationMs: 910, TotalImpactMs: 691 * 910},
		{ProcessName: "chrome", ActivityName: "ReadFile", EventCount: 433, MeanDurationMs: 900, TotalImpactMs: 433 * 900},
	}
	focus := SelectFocus(records)
	if focus == nil || focus.ProcessName != "notepad" {
		t.Fatalf("unexpected focus: %+v", focus)
	}
	focus.ProcessName = "changed"
	if records[0].ProcessName != "notepad" {
		t.Fatalf("SelectFocus must return a copy")
	}

	if got := FocusSummary(records[0]); got != "691 events, 910.0ms avg, 628.8s total impact" {
		t.Fatalf("unexpected summary: %q", got)
	}
	records[1].AffectedCases = 12
	if got := FocusSummary(records[1]); !strings.HasSuffix(got, ", 12 cases") {
		t.Fatalf("expected case count in summary: %q", got)
	}
}

func TestCountByPriority(t *testing.T) {
	records := []types.BottleneckRecord{
		{MeanDurationMs: 2000},
		{MeanDurationMs: 100},
		{MeanDurationMs: 1600},
		{MeanDurationMs: 50},
	}
	counts := CountByPriority(records)
	if len(counts) != 2 {
		t.Fatalf("expected two buckets, got %+v", counts)
	}
	if counts[0].Label != PriorityHigh || counts[0].Count != 2 || counts[0].Severity != 2 {
		t.Fatalf("unexpected high bucket: %+v", counts[0])
	}
	if counts[1].Label != PriorityManageable || counts[1].Count != 2 || counts[1].Severity != 0 {
		t.Fatalf("unexpected manageable bucket: %+v", counts[1])
	}
}

func TestFilterEvents(t *testing.T) {
	events := []types.Event{
		{ProcessName: "System", ActivityName: "CreateProcess"},
		{ProcessName: "chrome.exe", ActivityName: "VirtualAlloc"},
		{ProcessName: "chrome.exe", ActivityName: "ReadFile"},
		{ProcessName: "notepad.exe", ActivityName: "ReadFile"},
		{ProcessName: "csrss.exe", ActivityName: "ReadFile"},
	}

	if got := FilterEvents(events, FilterConfig{}); len(got) != len(events) {
		t.Fatalf("empty filter must keep everything, got %d", len(got))
	}
	if got := FilterEvents(events, FilterConfig{HideSystem: true}); len(got) != 3 {
		t.Fatalf("expected system processes hidden, got %+v", got)
	}
	if got := FilterEvents(events, FilterConfig{ProcessFilter: " CHROME "}); len(got) != 2 {
		t.Fatalf("expected chrome events only, got %+v", got)
	}
	got := FilterEvents(events, FilterConfig{HideSystem: true, ActivityFilter: "readfile"})
	if len(got) != 2 || got[0].ProcessName != "chrome.exe" || got[1].ProcessName != "notepad.exe" {
		t.Fatalf("unexpected combined filter result: %+v", got)
	}
	if events[0].ProcessName != "System" {
		t.Fatalf("input slice modified")
	}
}
