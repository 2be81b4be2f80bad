package eventlog

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/arpitbhardwaj7/syscallminer/pkg/types"
)

const (
	colProcess = iota
	colActivity
	colDuration
	colTimestamp
	colResource
	colCase
	colWorkflow
	colStage
	colPID
	colTID
	colFilePath
	colCategory
	colResult
	colBottleneck
	colQuality
	colAnomaly
	numColumns
)

// columnAliases lists accepted header names per column, canonical name first.
// Earlier aliases win when a file carries several of them.
var columnAliases = [numColumns][]string{
	colProcess:    {"process_name", "process", "resource", "org:resource", "executable"},
	colActivity:   {"activity_name", "activity", "concept:name", "syscall"},
	colDuration:   {"duration_ms", "duration"},
	colTimestamp:  {"timestamp", "time:timestamp", "time"},
	colResource:   {"resource_id"},
	colCase:       {"case_id", "case:concept:name"},
	colWorkflow:   {"workflow_type"},
	colStage:      {"process_stage"},
	colPID:        {"pid"},
	colTID:        {"tid"},
	colFilePath:   {"file_path"},
	colCategory:   {"operation_category"},
	colResult:     {"result"},
	colBottleneck: {"is_bottleneck"},
	colQuality:    {"event_quality"},
	colAnomaly:    {"anomaly_score"},
}

var requiredColumns = []int{colProcess, colActivity, colDuration}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
}

type row [numColumns]string

// columnIndex maps each known column to its position in a header, -1 when absent.
type columnIndex [numColumns]int

func indexHeader(header []string) columnIndex {
	pos := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))
		if _, dup := pos[name]; !dup {
			pos[name] = i
		}
	}
	var idx columnIndex
	for col := range idx {
		idx[col] = -1
		for _, alias := range columnAliases[col] {
			if i, ok := pos[alias]; ok {
				idx[col] = i
				break
			}
		}
	}
	return idx
}

func (idx columnIndex) missing() error {
	for _, col := range requiredColumns {
		if idx[col] < 0 {
			return fmt.Errorf("%w: %s", ErrMissingColumn, columnAliases[col][0])
		}
	}
	return nil
}

func (idx columnIndex) extract(record []string) row {
	var r row
	for col, i := range idx {
		if i >= 0 && i < len(record) {
			r[col] = strings.TrimSpace(record[i])
		}
	}
	return r
}

var (
	errEmptyProcess  = errors.New("empty process name")
	errEmptyActivity = errors.New("empty activity name")
)

// toEvent validates a row. The returned error describes why the row was rejected.
func (r row) toEvent() (types.Event, error) {
	ev := types.Event{
		ProcessName:       r[colProcess],
		ActivityName:      r[colActivity],
		ResourceID:        r[colResource],
		CaseID:            r[colCase],
		WorkflowType:      r[colWorkflow],
		ProcessStage:      r[colStage],
		FilePath:          r[colFilePath],
		OperationCategory: r[colCategory],
		Result:            strings.ToUpper(r[colResult]),
		EventQuality:      strings.ToLower(r[colQuality]),
	}
	if ev.ProcessName == "" {
		return ev, errEmptyProcess
	}
	if ev.ActivityName == "" {
		return ev, errEmptyActivity
	}

	d, err := strconv.ParseFloat(r[colDuration], 64)
	if err != nil {
		return ev, fmt.Errorf("duration %q is not a number", r[colDuration])
	}
	if math.IsNaN(d) || math.IsInf(d, 0) || d < 0 {
		return ev, fmt.Errorf("duration %v must be a finite non-negative number", d)
	}
	ev.DurationMs = d

	if ev.Timestamp, err = parseTimestamp(r[colTimestamp]); err != nil {
		return ev, err
	}
	if ev.PID, err = parseOptionalInt(r[colPID], "pid"); err != nil {
		return ev, err
	}
	if ev.TID, err = parseOptionalInt(r[colTID], "tid"); err != nil {
		return ev, err
	}
	if v := r[colBottleneck]; v != "" {
		if ev.IsBottleneck, err = strconv.ParseBool(v); err != nil {
			return ev, fmt.Errorf("is_bottleneck %q is not a boolean", v)
		}
	}
	if v := r[colAnomaly]; v != "" {
		s, err := strconv.ParseFloat(v, 64)
		if err != nil || math.IsNaN(s) || s < 0 || s > 1 {
			return ev, fmt.Errorf("anomaly_score %q must be a number in [0,1]", v)
		}
		ev.AnomalyScore = s
	}
	return ev, nil
}

func parseTimestamp(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("timestamp %q has an unknown format", s)
}

func parseOptionalInt(s, name string) (int, error) {
	if s == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%s %q is not an integer", name, s)
	}
	return v, nil
}
