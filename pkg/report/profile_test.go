package report

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/arpitbhardwaj7/syscallminer/pkg/types"
)

func profileEvents() []types.Event {
	at := func(h, m, s int) time.Time { return time.Date(2025, 6, 10, h, m, s, 0, time.UTC) }
	ev := func(caseID, activity string, ms float64, ts time.Time) types.Event {
		return types.Event{ProcessName: "notepad.exe", ActivityName: activity, DurationMs: ms, Timestamp: ts, CaseID: caseID}
	}
	return []types.Event{
		ev("c1", "ReadFile", 10, at(9, 0, 0)),
		ev("c1", "WriteFile", 20, at(9, 0, 1)),
		ev("c2", "ReadFile", 30, at(9, 10, 0)),
		ev("c2", "WriteFile", 40, at(9, 10, 1)),
		// Logged out of order: the case still reads WriteFile → ReadFile.
		ev("c3", "ReadFile", 1000, at(14, 0, 5)),
		ev("c3", "WriteFile", 50, at(14, 0, 0)),
		{ProcessName: "chrome.exe", ActivityName: "ReadFile", DurationMs: 5, Timestamp: at(9, 0, 0), CaseID: "c4"},
	}
}

func TestBuildProcessProfile(t *testing.T) {
	p, err := BuildProcessProfile(profileEvents(), "NOTEPAD.EXE", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Process != "notepad.exe" || p.Events != 6 || p.Sessions != 3 {
		t.Fatalf("unexpected totals: %+v", p)
	}
	if p.Start.Hour() != 9 || p.End.Hour() != 14 || p.End.Second() != 5 {
		t.Fatalf("unexpected span: %v - %v", p.Start, p.End)
	}

	if len(p.Activities) != 2 || p.Activities[0].Activity != "ReadFile" || p.Activities[1].Activity != "WriteFile" {
		t.Fatalf("activities should be ordered by count then name: %+v", p.Activities)
	}
	rf := p.Activities[0]
	if rf.Count != 3 || rf.MinMs != 10 || rf.MaxMs != 1000 || rf.MedianMs != 30 || rf.Cases != 3 {
		t.Fatalf("unexpected ReadFile stats: %+v", rf)
	}
	if math.Abs(rf.MeanMs-1040.0/3) > 1e-9 {
		t.Fatalf("unexpected ReadFile mean: %v", rf.MeanMs)
	}

	if p.Busiest == nil || p.Busiest.Hour != 9 || p.Busiest.Count != 4 {
		t.Fatalf("unexpected busiest hour: %+v", p.Busiest)
	}
	if p.Quietest == nil || p.Quietest.Hour != 14 || p.Quietest.Count != 2 {
		t.Fatalf("unexpected quietest hour: %+v", p.Quietest)
	}

	// p95 of 10,20,30,40,50,1000 interpolates to 762.5.
	if math.Abs(p.SlowThresholdMs-762.5) > 1e-9 || p.SlowEvents != 1 {
		t.Fatalf("unexpected slow operations: threshold=%v events=%d", p.SlowThresholdMs, p.SlowEvents)
	}
	if len(p.SlowActivities) != 1 || p.SlowActivities[0] != (ActivityCount{Activity: "ReadFile", Count: 1}) {
		t.Fatalf("unexpected slow activities: %+v", p.SlowActivities)
	}

	if p.TotalVariants != 2 || len(p.Variants) != 2 {
		t.Fatalf("expected 2 variants, got %+v", p.Variants)
	}
	if got := p.Variants[0].String(); got != "ReadFile → WriteFile" || p.Variants[0].Cases != 2 {
		t.Fatalf("unexpected top variant: %s (%d)", got, p.Variants[0].Cases)
	}
	if got := p.Variants[1].String(); got != "WriteFile → ReadFile" {
		t.Fatalf("case events should be ordered by timestamp, got %s", got)
	}
	if math.Abs(p.Variants[0].Pct-200.0/3) > 1e-9 || p.Top5CoveragePct != 100 || p.Top10CoveragePct != 100 {
		t.Fatalf("unexpected coverage: %+v top5=%v top10=%v", p.Variants[0], p.Top5CoveragePct, p.Top10CoveragePct)
	}
}

func TestBuildProcessProfileLimitsVariants(t *testing.T) {
	p, err := BuildProcessProfile(profileEvents(), "notepad.exe", 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(p.Variants) != 1 || p.TotalVariants != 2 || p.Top5CoveragePct != 100 {
		t.Fatalf("limit should trim the list only: %+v", p)
	}
}

func TestBuildProcessProfileWithoutCasesOrTimes(t *testing.T) {
	events := []types.Event{
		{ProcessName: "system", ActivityName: "SetTimer", DurationMs: 3},
		{ProcessName: "system", ActivityName: "SetTimer", DurationMs: 5},
	}
	p, err := BuildProcessProfile(events, "system", 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Busiest != nil || p.Quietest != nil || !p.Start.IsZero() {
		t.Fatalf("untimed events should leave hours empty: %+v", p)
	}
	if p.Sessions != 0 || p.TotalVariants != 0 || p.Top5CoveragePct != 0 {
		t.Fatalf("events without cases should yield no variants: %+v", p)
	}
}

func TestBuildProcessProfileUnknownProcess(t *testing.T) {
	if _, err := BuildProcessProfile(profileEvents(), "winword.exe", 0); !errors.Is(err, ErrUnknownProcess) {
		t.Fatalf("expected ErrUnknownProcess, got %v", err)
	}
}
