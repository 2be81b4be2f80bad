package types

import "time"

// DefaultTopK controls how many bottlenecks we display and send to the advisor.
const DefaultTopK = 5

// DefaultQuantile is the duration percentile used as the bottleneck threshold.
const DefaultQuantile = 0.95

// DefaultMinImpactMs is the minimum cumulative time a pair must cost to be reported.
const DefaultMinImpactMs = 50000.0

// Event is one recorded system call. Only the first five fields take part in scoring;
// the rest are carried through from the log for overviews and baselines.
type Event struct {
	ProcessName  string
	ActivityName string
	DurationMs   float64
	Timestamp    time.Time
	ResourceID   string

	CaseID            string
	WorkflowType      string
	ProcessStage      string
	PID               int
	TID               int
	FilePath          string
	OperationCategory string
	Result            string
	IsBottleneck      bool
	// EventQuality is a coarse label (excellent, good, acceptable, poor) and
	// AnomalyScore a 0..1 rating; both come from generated logs.
	EventQuality string
	AnomalyScore float64
}

// PairKey identifies a (process, activity) group.
type PairKey struct {
	Process  string
	Activity string
}

// Key returns the grouping key of the event.
func (e Event) Key() PairKey {
	return PairKey{Process: e.ProcessName, Activity: e.ActivityName}
}

// String renders the pair the way reports show it.
func (k PairKey) String() string {
	return k.Process + " → " + k.Activity
}

// BottleneckRecord summarises one (process, activity) pair that crossed both thresholds.
type BottleneckRecord struct {
	ProcessName    string  `json:"process_name"`
	ActivityName   string  `json:"activity_name"`
	EventCount     int     `json:"event_count"`
	MeanDurationMs float64 `json:"mean_duration_ms"`
	TotalImpactMs  float64 `json:"total_impact_ms"`
	MaxDurationMs  float64 `json:"max_duration_ms"`
	AffectedCases  int     `json:"affected_cases"`
}

// Key returns the pair the record describes.
func (r BottleneckRecord) Key() PairKey {
	return PairKey{Process: r.ProcessName, Activity: r.ActivityName}
}
