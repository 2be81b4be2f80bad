package advisor

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/arpitbhardwaj7/syscallminer/pkg/report"
)

// Output file names inside the results directory.
const (
	SolutionsFile = "ai_solutions.md"
	SummaryFile   = "analysis_summary.json"
)

// Summary is the machine-readable companion of a solutions report.
type Summary struct {
	TotalEvents       int         `json:"total_events"`
	BottleneckEvents  int         `json:"bottleneck_events"`
	PerformanceImpact string      `json:"performance_impact"`
	Threshold         string      `json:"threshold_ms"`
	TopBottlenecks    [][2]string `json:"top_bottlenecks"`
	Source            string      `json:"source"`
	Model             string      `json:"model"`
}

// SaveResults writes the solutions report and the JSON summary into dir and returns
// their paths.
func SaveResults(dir string, sol Solution, an Analysis) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create %s: %w", dir, err)
	}

	mdPath := filepath.Join(dir, SolutionsFile)
	md := fmt.Sprintf("# Bottleneck Analysis Solutions\n\n**Generated**: %s\n**Model**: %s\n\n%s\n",
		sol.GeneratedAt.Format("2006-01-02 15:04:05"), sol.Model, sol.Text)
	if err := os.WriteFile(mdPath, []byte(md), 0o644); err != nil {
		return nil, fmt.Errorf("write %s: %w", mdPath, err)
	}

	summary := Summary{
		TotalEvents:       an.Overview.TotalEvents,
		BottleneckEvents:  an.Overview.BottleneckEvents,
		PerformanceImpact: fmt.Sprintf("%.1f%%", an.Overview.TimeImpactPct),
		Threshold:         fmt.Sprintf("%.2fms", an.Overview.ThresholdMs),
		TopBottlenecks:    [][2]string{},
		Source:            sol.Source,
		Model:             sol.Model,
	}
	for _, rec := range report.TopRecords(an.Records, promptPairs) {
		summary.TopBottlenecks = append(summary.TopBottlenecks, [2]string{rec.ProcessName, rec.ActivityName})
	}
	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return nil, err
	}
	jsonPath := filepath.Join(dir, SummaryFile)
	if err := os.WriteFile(jsonPath, data, 0o644); err != nil {
		return nil, fmt.Errorf("write %s: %w", jsonPath, err)
	}
	return []string{mdPath, jsonPath}, nil
}
