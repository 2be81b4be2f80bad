package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/xuri/excelize/v2"

	"github.com/arpitbhardwaj7/syscallminer/pkg/report"
	"github.com/arpitbhardwaj7/syscallminer/pkg/types"
)

// Sheet names written by WriteWorkbook.
const (
	SheetBottlenecks = "Bottlenecks"
	SheetOverview    = "Overview"
	SheetActivities  = "Activities"
	SheetProcesses   = "Processes"
	SheetBaselines   = "Baselines"
)

// Analysis bundles the tables exported for one run.
type Analysis struct {
	Overview  report.Overview
	Records   []types.BottleneckRecord
	Baselines []report.Baseline
}

var recordHeader = []string{
	"rank", "process_name", "activity_name", "event_count", "mean_duration_ms",
	"total_impact_ms", "max_duration_ms", "affected_cases", "priority",
}

func recordRow(i int, rec types.BottleneckRecord) []any {
	return []any{
		i + 1, rec.ProcessName, rec.ActivityName, rec.EventCount, rec.MeanDurationMs,
		rec.TotalImpactMs, rec.MaxDurationMs, rec.AffectedCases, report.Priority(rec.MeanDurationMs),
	}
}

// WriteWorkbook writes the analysis tables to an XLSX file at path.
func WriteWorkbook(path string, an Analysis) error {
	f := excelize.NewFile()
	defer f.Close()

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("export: header style: %w", err)
	}

	// The default sheet is renamed so the ranked table opens first.
	if err := f.SetSheetName(f.GetSheetName(0), SheetBottlenecks); err != nil {
		return fmt.Errorf("export: %w", err)
	}
	rows := make([][]any, 0, len(an.Records))
	for i, rec := range an.Records {
		rows = append(rows, recordRow(i, rec))
	}
	if err := writeSheet(f, SheetBottlenecks, bold, recordHeader, rows); err != nil {
		return err
	}

	ov := an.Overview
	overview := [][]any{
		{"total_events", ov.TotalEvents},
		{"total_time_ms", ov.TotalTimeMs},
		{"threshold_ms", ov.ThresholdMs},
		{"bottleneck_events", ov.BottleneckEvents},
		{"bottleneck_time_ms", ov.BottleneckTimeMs},
		{"time_impact_pct", ov.TimeImpactPct},
		{"case_impact_pct", ov.CaseImpactPct},
		{"frequency_impact_pct", ov.FrequencyImpactPct},
		{"unique_processes", ov.UniqueProcesses},
		{"unique_activities", ov.UniqueActivities},
		{"unique_cases", ov.UniqueCases},
		{"span_hours", ov.Span().Hours()},
	}
	for _, h := range ov.PeakHours {
		overview = append(overview, []any{fmt.Sprintf("peak_hour_%02d", h.Hour), h.Count})
	}
	if err := writeNewSheet(f, SheetOverview, bold, []string{"metric", "value"}, overview); err != nil {
		return err
	}

	groupHeader := []string{"name", "count", "mean_duration_ms", "max_duration_ms", "affected_cases"}
	if err := writeNewSheet(f, SheetActivities, bold, groupHeader, groupRows(ov.ByActivity)); err != nil {
		return err
	}
	if err := writeNewSheet(f, SheetProcesses, bold, groupHeader, groupRows(ov.ByProcess)); err != nil {
		return err
	}

	if len(an.Baselines) > 0 {
		header := []string{
			"process_name", "activity_name", "events", "mean_ms", "median_ms", "std_ms",
			"p25_ms", "p75_ms", "p95_ms", "p99_ms", "min_ms", "max_ms", "total_impact_ms",
			"affected_cases", "events_per_case", "outliers", "coeff_variation", "distribution",
			"peak_hour", "priority",
		}
		var rows [][]any
		for _, b := range an.Baselines {
			rows = append(rows, []any{
				b.Pair.Process, b.Pair.Activity, b.Events, b.MeanMs, b.MedianMs, b.StdMs,
				b.P25Ms, b.P75Ms, b.P95Ms, b.P99Ms, b.MinMs, b.MaxMs, b.TotalImpactMs,
				b.AffectedCases, b.EventsPerCase, b.Outliers, b.CoeffVariation, b.Distribution,
				b.PeakHour, b.Priority,
			})
		}
		if err := writeNewSheet(f, SheetBaselines, bold, header, rows); err != nil {
			return err
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("export: save %s: %w", path, err)
	}
	return nil
}

func groupRows(groups []report.GroupStats) [][]any {
	rows := make([][]any, 0, len(groups))
	for _, g := range groups {
		rows = append(rows, []any{g.Name, g.Count, g.MeanDurationMs, g.MaxDurationMs, g.AffectedCases})
	}
	return rows
}

func writeNewSheet(f *excelize.File, sheet string, style int, header []string, rows [][]any) error {
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("export: new sheet %s: %w", sheet, err)
	}
	return writeSheet(f, sheet, style, header, rows)
}

func writeSheet(f *excelize.File, sheet string, style int, header []string, rows [][]any) error {
	headerRow := make([]any, len(header))
	for i, h := range header {
		headerRow[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &headerRow); err != nil {
		return fmt.Errorf("export: %s header: %w", sheet, err)
	}
	last, err := excelize.CoordinatesToCellName(len(header), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", last, style); err != nil {
		return fmt.Errorf("export: %s style: %w", sheet, err)
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("export: %s row %d: %w", sheet, i+2, err)
		}
	}
	return nil
}

// WriteRecordsCSV writes the ranked table as CSV.
func WriteRecordsCSV(w io.Writer, records []types.BottleneckRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(recordHeader); err != nil {
		return err
	}
	for i, rec := range records {
		err := cw.Write([]string{
			strconv.Itoa(i + 1),
			rec.ProcessName,
			rec.ActivityName,
			strconv.Itoa(rec.EventCount),
			strconv.FormatFloat(rec.MeanDurationMs, 'f', 2, 64),
			strconv.FormatFloat(rec.TotalImpactMs, 'f', 2, 64),
			strconv.FormatFloat(rec.MaxDurationMs, 'f', 2, 64),
			strconv.Itoa(rec.AffectedCases),
			report.Priority(rec.MeanDurationMs),
		})
		if err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
