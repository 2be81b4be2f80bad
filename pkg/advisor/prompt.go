package advisor

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/tmc/langchaingo/prompts"

	"github.com/arpitbhardwaj7/syscallminer/pkg/report"
	"github.com/arpitbhardwaj7/syscallminer/pkg/types"
)

// promptPairs is how many ranked pairs are quoted to the model.
const promptPairs = 5

const systemMessage = `You are an expert system performance engineer with deep expertise in:
- Windows system optimization and performance tuning
- Process mining and bottleneck analysis
- Enterprise software architecture and scaling
- Cost-benefit analysis for technical solutions
- Project management and implementation planning

Provide detailed, technical, and actionable solutions with realistic time and cost estimates.`

var analysisTemplate = prompts.NewPromptTemplate(`
# SYSTEM CALL BOTTLENECK ANALYSIS & SOLUTION REQUEST

## SYSTEM OVERVIEW
- **Total Events**: {{.total_events}}
- **Bottleneck Events**: {{.bottleneck_events}}
- **Performance Impact**: {{.performance_impact}}% of total execution time
- **Bottleneck Threshold**: {{.threshold_ms}}ms
- **Time Lost**: {{.bottleneck_time}} seconds

## TOP CRITICAL BOTTLENECKS
{{.critical_combinations}}
## TECHNICAL CONTEXT
{{.system_context}}

## REQUEST FOR SOLUTIONS

Provide detailed solutions including:

### 1. TECHNICAL SOLUTIONS
For each major bottleneck:
- Root cause analysis
- Specific technical solutions
- Implementation approach
- Expected performance improvement

### 2. IMPLEMENTATION COSTS & TIMELINE
- Development time (hours/days)
- Team requirements
- Cost breakdown (Dev rates: Senior $100/hr, Mid $75/hr, Junior $50/hr)
- Infrastructure costs
- Risk assessment

### 3. PRIORITY MATRIX
Rank by impact potential, effort, and ROI

### 4. QUICK WINS vs LONG-TERM
- Immediate fixes (days)
- Short-term optimizations (weeks-months)
- Strategic improvements (months-quarters)

### 5. MONITORING & VALIDATION
- KPIs to track
- Monitoring tools
- Success criteria

Provide specific technical details and realistic estimates.
`, []string{
	"total_events", "bottleneck_events", "performance_impact", "threshold_ms",
	"bottleneck_time", "critical_combinations", "system_context",
})

// Analysis is what the advisor needs to know about one run.
type Analysis struct {
	Overview report.Overview
	// Records are the ranked bottleneck pairs.
	Records []types.BottleneckRecord
}

// RecordLine renders one pair the way the prompt quotes it.
func RecordLine(rec types.BottleneckRecord) string {
	return fmt.Sprintf("**%s**: %d events, %.1fms avg, %.1fms total impact",
		rec.Key(), rec.EventCount, rec.MeanDurationMs, rec.TotalImpactMs)
}

// BuildPrompt renders the user prompt for an analysis.
func BuildPrompt(an Analysis) (string, error) {
	ov := an.Overview

	var critical strings.Builder
	critical.WriteString("### Top Critical Bottlenecks:\n")
	for _, rec := range report.TopRecords(an.Records, promptPairs) {
		critical.WriteString(RecordLine(rec))
		critical.WriteByte('\n')
	}

	context := fmt.Sprintf("- System Type: Windows with %d processes\n- Activities: %d different system calls\n- Analysis Period: %.1f hours",
		ov.UniqueProcesses, ov.UniqueActivities, ov.Span().Hours())

	prompt, err := analysisTemplate.Format(map[string]any{
		"total_events":          humanize.Comma(int64(ov.TotalEvents)),
		"bottleneck_events":     humanize.Comma(int64(ov.BottleneckEvents)),
		"performance_impact":    fmt.Sprintf("%.1f", ov.TimeImpactPct),
		"threshold_ms":          fmt.Sprintf("%.1f", ov.ThresholdMs),
		"bottleneck_time":       fmt.Sprintf("%.1f", ov.BottleneckTimeMs/1000),
		"critical_combinations": critical.String(),
		"system_context":        context,
	})
	if err != nil {
		return "", fmt.Errorf("formatting prompt: %w", err)
	}
	return prompt, nil
}
