package ui

import (
	"bytes"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/arpitbhardwaj7/syscallminer/pkg/report"
	"github.com/arpitbhardwaj7/syscallminer/pkg/store"
	"github.com/arpitbhardwaj7/syscallminer/pkg/types"
)

// groupRows is how many activities and processes the overview lists.
const groupRows = 5

// Renderer turns analysis results into terminal text. Styling is skipped when color is
// off so piped output stays plain.
type Renderer struct {
	color bool
}

// NewRenderer returns a renderer with color forced on or off.
func NewRenderer(color bool) *Renderer {
	return &Renderer{color: color}
}

// AutoRenderer enables color only when stdout is a terminal.
func AutoRenderer() *Renderer {
	return NewRenderer(stdoutIsTerminal())
}

// Color reports whether the renderer emits styles.
func (r *Renderer) Color() bool { return r.color }

func (r *Renderer) paint(s lipgloss.Style, text string) string {
	if !r.color {
		return text
	}
	return s.Render(text)
}

type tableRow struct {
	cells []string
	style *lipgloss.Style
}

// table aligns cells with tabwriter and styles whole lines afterwards, so escape codes
// never skew the column widths.
func (r *Renderer) table(header []string, rows []tableRow) string {
	var buf bytes.Buffer
	tw := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(header, "\t"))
	for _, row := range rows {
		fmt.Fprintln(tw, strings.Join(row.cells, "\t"))
	}
	tw.Flush()

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	var out strings.Builder
	for i, line := range lines {
		line = strings.TrimRight(line, " ")
		switch {
		case i == 0:
			line = r.paint(headerStyle, line)
		case rows[i-1].style != nil:
			line = r.paint(*rows[i-1].style, line)
		}
		out.WriteString(line)
		out.WriteByte('\n')
	}
	return out.String()
}

func (r *Renderer) title(text string) string {
	return r.paint(titleStyle, "["+text+"]") + "\n"
}

func ms(v float64) string { return humanize.FormatFloat("#,###.#", v) }

func count(n int) string { return humanize.Comma(int64(n)) }

// RenderRecords renders the ranked bottleneck table.
func (r *Renderer) RenderRecords(records []types.BottleneckRecord, topK int) string {
	shown := report.TopRecords(records, topK)
	var b strings.Builder
	b.WriteString(r.title(fmt.Sprintf("Top %d bottlenecks: process → activity", len(shown))))
	if len(shown) == 0 {
		b.WriteString("No pair met the duration threshold and impact floor\n")
		return b.String()
	}
	rows := make([]tableRow, 0, len(shown))
	for i, rec := range shown {
		priority := report.Priority(rec.MeanDurationMs)
		style := priorityStyle(priority)
		rows = append(rows, tableRow{
			cells: []string{
				fmt.Sprintf("%d", i+1), rec.ProcessName, rec.ActivityName, count(rec.EventCount),
				ms(rec.MeanDurationMs), ms(rec.TotalImpactMs / 1000), ms(rec.MaxDurationMs),
				count(rec.AffectedCases), priority,
			},
			style: &style,
		})
	}
	b.WriteString(r.table([]string{"RANK", "PROCESS", "ACTIVITY", "EVENTS", "MEAN(ms)", "TOTAL(s)", "MAX(ms)", "CASES", "PRIORITY"}, rows))
	return b.String()
}

// RenderFocus headlines the top-ranked record, or returns "" when there is none.
func (r *Renderer) RenderFocus(records []types.BottleneckRecord) string {
	focus := report.SelectFocus(records)
	if focus == nil {
		return ""
	}
	priority := report.Priority(focus.MeanDurationMs)
	return fmt.Sprintf("%s %s\n   Reason: %s - %s\n",
		r.paint(priorityStyle(priority), "[!] Focus:"), focus.Key(), priority, report.FocusSummary(*focus))
}

// RenderOverview renders the system-level impact summary.
func (r *Renderer) RenderOverview(ov report.Overview) string {
	var b strings.Builder
	b.WriteString(r.title("Impact overview"))
	line := func(label, value string) {
		fmt.Fprintf(&b, "%s %s\n", r.paint(labelStyle, fmt.Sprintf("%-18s", label+":")), value)
	}
	line("Events", fmt.Sprintf("%s (%s above %.1fms threshold)", count(ov.TotalEvents), count(ov.BottleneckEvents), ov.ThresholdMs))
	line("Time impact", fmt.Sprintf("%.1f%% of execution time (%ss)", ov.TimeImpactPct, ms(ov.BottleneckTimeMs/1000)))
	line("Case impact", fmt.Sprintf("%.1f%% of cases", ov.CaseImpactPct))
	line("Frequency impact", fmt.Sprintf("%.1f%% of events", ov.FrequencyImpactPct))
	line("Scope", fmt.Sprintf("%d processes, %d activities, %s cases over %.1fh",
		ov.UniqueProcesses, ov.UniqueActivities, count(ov.UniqueCases), ov.Span().Hours()))
	if len(ov.PeakHours) > 0 {
		peaks := make([]string, 0, len(ov.PeakHours))
		for _, h := range ov.PeakHours {
			peaks = append(peaks, fmt.Sprintf("%02d:00 (%s)", h.Hour, count(h.Count)))
		}
		line("Peak hours", strings.Join(peaks, ", "))
	}

	groups := []struct {
		name  string
		stats []report.GroupStats
	}{
		{"Slowest activities above threshold", ov.ByActivity},
		{"Slowest processes above threshold", ov.ByProcess},
	}
	for _, g := range groups {
		if len(g.stats) == 0 {
			continue
		}
		b.WriteString("\n")
		b.WriteString(r.title(g.name))
		shown := g.stats
		if len(shown) > groupRows {
			shown = shown[:groupRows]
		}
		rows := make([]tableRow, 0, len(shown))
		for _, s := range shown {
			rows = append(rows, tableRow{cells: []string{
				s.Name, count(s.Count), ms(s.MeanDurationMs), ms(s.MaxDurationMs), count(s.AffectedCases),
			}})
		}
		b.WriteString(r.table([]string{"NAME", "EVENTS", "MEAN(ms)", "MAX(ms)", "CASES"}, rows))
	}
	return b.String()
}

// RenderBaselines renders the baseline statistics of the target pairs.
func (r *Renderer) RenderBaselines(baselines []report.Baseline) string {
	var b strings.Builder
	b.WriteString(r.title("Performance baselines"))
	if len(baselines) == 0 {
		b.WriteString("No baseline targets found in the log\n")
		return b.String()
	}
	rows := make([]tableRow, 0, len(baselines))
	for _, bl := range baselines {
		style := priorityStyle(bl.Priority)
		rows = append(rows, tableRow{
			cells: []string{
				bl.Pair.String(), count(bl.Events), ms(bl.MeanMs), ms(bl.MedianMs), ms(bl.P95Ms),
				ms(bl.P99Ms), ms(bl.StdMs), fmt.Sprintf("%.2f", bl.CoeffVariation), bl.Distribution,
				count(bl.Outliers), fmt.Sprintf("%02d:00", bl.PeakHour), bl.Priority,
			},
			style: &style,
		})
	}
	b.WriteString(r.table([]string{"PAIR", "EVENTS", "MEAN(ms)", "MEDIAN(ms)", "P95(ms)", "P99(ms)", "STD(ms)", "CV", "SHAPE", "OUTLIERS", "PEAK", "PRIORITY"}, rows))
	return b.String()
}

// RenderHistory lists stored runs, newest first.
func (r *Renderer) RenderHistory(runs []store.RunSummary) string {
	var b strings.Builder
	b.WriteString(r.title("Run history"))
	if len(runs) == 0 {
		b.WriteString("No runs saved yet\n")
		return b.String()
	}
	rows := make([]tableRow, 0, len(runs))
	for _, run := range runs {
		rows = append(rows, tableRow{cells: []string{
			run.ID, humanize.Time(run.CreatedAt), count(run.TotalEvents), ms(run.ThresholdMs),
			count(len(run.Records)), fmt.Sprintf("%.1f%%", run.TimeImpactPct), strings.Join(run.Sources, ","),
		}})
	}
	b.WriteString(r.table([]string{"ID", "CREATED", "EVENTS", "THRESHOLD(ms)", "BOTTLENECKS", "IMPACT", "SOURCES"}, rows))
	return b.String()
}

// RenderComparison renders how bottlenecks moved between two runs.
func (r *Renderer) RenderComparison(cmp store.Comparison) string {
	var b strings.Builder
	b.WriteString(r.title(fmt.Sprintf("Run %s → %s", cmp.BeforeID, cmp.AfterID)))
	if len(cmp.Changed) == 0 && len(cmp.Appeared) == 0 && len(cmp.Disappeared) == 0 {
		b.WriteString("No bottlenecks in either run\n")
		return b.String()
	}
	if len(cmp.Changed) > 0 {
		rows := make([]tableRow, 0, len(cmp.Changed))
		for _, d := range cmp.Changed {
			style := deltaStyle(d.TotalDeltaMs)
			rows = append(rows, tableRow{
				cells: []string{
					d.Pair.String(), ms(d.BeforeMeanMs), ms(d.AfterMeanMs), fmt.Sprintf("%+.1f%%", d.MeanDeltaPct),
					ms(d.BeforeTotalMs / 1000), ms(d.AfterTotalMs / 1000), fmt.Sprintf("%+.1f%%", d.TotalDeltaPct),
				},
				style: &style,
			})
		}
		b.WriteString(r.table([]string{"PAIR", "MEAN BEFORE", "MEAN AFTER", "MEAN Δ", "TOTAL BEFORE(s)", "TOTAL AFTER(s)", "TOTAL Δ"}, rows))
	}
	for _, rec := range cmp.Appeared {
		fmt.Fprintf(&b, "%s %s (%s)\n", r.paint(critStyle, "+ new:"), rec.Key(), report.FocusSummary(rec))
	}
	for _, rec := range cmp.Disappeared {
		fmt.Fprintf(&b, "%s %s (%s)\n", r.paint(okStyle, "- resolved:"), rec.Key(), report.FocusSummary(rec))
	}
	return b.String()
}

// RenderProfile renders the behaviour report of one process.
func (r *Renderer) RenderProfile(p report.ProcessProfile) string {
	var b strings.Builder
	b.WriteString(r.title(p.Process + " behaviour"))
	line := func(label, value string) {
		fmt.Fprintf(&b, "%s %s\n", r.paint(labelStyle, fmt.Sprintf("%-18s", label+":")), value)
	}
	line("Events", fmt.Sprintf("%s in %s sessions", count(p.Events), count(p.Sessions)))
	if !p.Start.IsZero() {
		line("Time span", fmt.Sprintf("%s to %s", p.Start.Format("2006-01-02 15:04:05"), p.End.Format("2006-01-02 15:04:05")))
	}
	if p.Busiest != nil {
		line("Most active hour", fmt.Sprintf("%02d:00 (%s events)", p.Busiest.Hour, count(p.Busiest.Count)))
		line("Least active hour", fmt.Sprintf("%02d:00 (%s events)", p.Quietest.Hour, count(p.Quietest.Count)))
	}
	line("Slow operations", fmt.Sprintf("%s events above %sms (p95)", count(p.SlowEvents), ms(p.SlowThresholdMs)))
	if len(p.SlowActivities) > 0 {
		slow := make([]string, 0, len(p.SlowActivities))
		for _, a := range p.SlowActivities {
			slow = append(slow, fmt.Sprintf("%s (%s)", a.Activity, count(a.Count)))
		}
		line("Top slow", strings.Join(slow, ", "))
	}

	b.WriteString("\n")
	b.WriteString(r.title("Activity statistics"))
	rows := make([]tableRow, 0, len(p.Activities))
	for _, a := range p.Activities {
		rows = append(rows, tableRow{cells: []string{
			a.Activity, count(a.Count), ms(a.MeanMs), ms(a.MedianMs), ms(a.StdMs), ms(a.MinMs), ms(a.MaxMs), count(a.Cases),
		}})
	}
	b.WriteString(r.table([]string{"ACTIVITY", "COUNT", "MEAN(ms)", "MEDIAN(ms)", "STD(ms)", "MIN(ms)", "MAX(ms)", "CASES"}, rows))

	b.WriteString("\n")
	b.WriteString(r.title(fmt.Sprintf("Variants: %s total", count(p.TotalVariants))))
	if p.TotalVariants == 0 {
		b.WriteString("No case IDs in the log, variants need them\n")
		return b.String()
	}
	for i, v := range p.Variants {
		fmt.Fprintf(&b, "%2d. %s\n    %s cases (%.1f%%)\n", i+1, v, count(v.Cases), v.Pct)
	}
	fmt.Fprintf(&b, "Top 5 variants cover %.1f%% of cases, top 10 cover %.1f%%\n", p.Top5CoveragePct, p.Top10CoveragePct)
	return b.String()
}
