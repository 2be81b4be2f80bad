package generator

import (
	"compress/gzip"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ulikunitz/xz"

	"github.com/arpitbhardwaj7/syscallminer/pkg/types"
)

// Header is the column order of generated CSV logs.
var Header = []string{
	"case_id", "timestamp", "process_name", "activity_name", "duration_ms", "resource_id",
	"workflow_type", "process_stage", "pid", "tid", "file_path", "operation_category",
	"result", "is_bottleneck", "event_quality", "anomaly_score",
}

const timestampLayout = "2006-01-02 15:04:05.000000"

// DefaultFileName is the name a log of n events generated at t is saved under.
func DefaultFileName(n int, t time.Time) string {
	return fmt.Sprintf("enhanced_system_call_log_%d_events_%s.csv", n, t.Format("20060102_150405"))
}

// WriteCSV saves events to path. A .xz or .gz suffix compresses the output.
func WriteCSV(path string, events []types.Event) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	var w io.WriteCloser
	switch {
	case strings.HasSuffix(path, ".xz"):
		if w, err = xz.NewWriter(f); err != nil {
			return fmt.Errorf("xz writer: %w", err)
		}
	case strings.HasSuffix(path, ".gz"):
		w = gzip.NewWriter(f)
	}
	if w == nil {
		return WriteCSVTo(f, events)
	}
	if err := WriteCSVTo(w, events); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}

// WriteCSVTo writes the header and one row per event.
func WriteCSVTo(w io.Writer, events []types.Event) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return err
	}
	record := make([]string, len(Header))
	for _, ev := range events {
		record[0] = ev.CaseID
		record[1] = ""
		if !ev.Timestamp.IsZero() {
			record[1] = ev.Timestamp.Format(timestampLayout)
		}
		record[2] = ev.ProcessName
		record[3] = ev.ActivityName
		record[4] = strconv.FormatFloat(ev.DurationMs, 'f', -1, 64)
		record[5] = ev.ResourceID
		record[6] = ev.WorkflowType
		record[7] = ev.ProcessStage
		record[8] = optionalInt(ev.PID)
		record[9] = optionalInt(ev.TID)
		record[10] = ev.FilePath
		record[11] = ev.OperationCategory
		record[12] = ev.Result
		record[13] = "False"
		if ev.IsBottleneck {
			record[13] = "True"
		}
		record[14] = ev.EventQuality
		record[15] = strconv.FormatFloat(ev.AnomalyScore, 'f', -1, 64)
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func optionalInt(v int) string {
	if v == 0 {
		return ""
	}
	return strconv.Itoa(v)
}
