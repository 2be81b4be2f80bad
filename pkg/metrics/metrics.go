package metrics

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Run status labels.
const (
	StatusOK    = "ok"
	StatusEmpty = "empty"
	StatusError = "error"
)

var (
	// Ingestion metrics
	EventsIngested = promauto.NewCounter(prometheus.CounterOpts{
		Name: "syscallminer_events_ingested_total",
		Help: "Events accepted from input logs",
	})
	RowsRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "syscallminer_rows_rejected_total",
		Help: "Input rows rejected by format",
	}, []string{"format"})

	// Analysis metrics
	AnalysisRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "syscallminer_analysis_runs_total",
		Help: "Analysis runs by outcome",
	}, []string{"status"})
	AnalysisDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "syscallminer_analysis_duration_seconds",
		Help:    "Time spent loading and scoring one analysis",
		Buckets: []float64{.001, .005, .01, .05, .1, .5, 1, 5, 10, 30},
	})
	ThresholdMs = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "syscallminer_duration_threshold_ms",
		Help: "Duration threshold of the last analysis",
	})
	Bottlenecks = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "syscallminer_bottlenecks",
		Help: "Qualifying pairs in the last analysis",
	})
	TimeImpactRatio = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "syscallminer_time_impact_ratio",
		Help: "Share of execution time spent above the threshold (0-1)",
	})

	// Advisor metrics
	AdvisorRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "syscallminer_advisor_requests_total",
		Help: "Remediation reports by source",
	}, []string{"source"})
)

func init() {
	// Pre-initialize Vec metrics so they appear in /metrics output before first use.
	RowsRejected.WithLabelValues("csv")
	RowsRejected.WithLabelValues("jsonl")
	AnalysisRuns.WithLabelValues(StatusOK)
	AnalysisRuns.WithLabelValues(StatusEmpty)
	AnalysisRuns.WithLabelValues(StatusError)
	AdvisorRequests.WithLabelValues("llm")
	AdvisorRequests.WithLabelValues("local")
}

// ObserveAnalysis records the outcome of one analysis run.
func ObserveAnalysis(elapsed time.Duration, thresholdMs float64, bottlenecks int, timeImpactPct float64) {
	AnalysisDuration.Observe(elapsed.Seconds())
	ThresholdMs.Set(thresholdMs)
	Bottlenecks.Set(float64(bottlenecks))
	TimeImpactRatio.Set(timeImpactPct / 100)
	status := StatusOK
	if bottlenecks == 0 {
		status = StatusEmpty
	}
	AnalysisRuns.WithLabelValues(status).Inc()
}

// health holds the named checks served on /healthz. Registering a name again
// replaces its check.
var health = struct {
	sync.Mutex
	checks map[string]func() error
}{checks: map[string]func() error{}}

// RegisterHealthCheck adds or replaces the check called name.
func RegisterHealthCheck(name string, check func() error) {
	health.Lock()
	health.checks[name] = check
	health.Unlock()
}

// HealthReport is the /healthz response body.
type HealthReport struct {
	Healthy bool              `json:"healthy"`
	Checks  map[string]string `json:"checks"`
}

func checkHealth() HealthReport {
	health.Lock()
	defer health.Unlock()
	rep := HealthReport{Healthy: true, Checks: make(map[string]string, len(health.checks))}
	for name, check := range health.checks {
		rep.Checks[name] = "ok"
		if err := check(); err != nil {
			rep.Healthy = false
			rep.Checks[name] = err.Error()
		}
	}
	return rep
}

func serveHealth(w http.ResponseWriter, _ *http.Request) {
	rep := checkHealth()
	w.Header().Set("Content-Type", "application/json")
	if !rep.Healthy {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	json.NewEncoder(w).Encode(rep)
}

// StalenessCheck fails when last() is older than maxAge. A zero time means no
// analysis has finished yet, which also fails.
func StalenessCheck(last func() time.Time, maxAge time.Duration) func() error {
	return func() error {
		at := last()
		if at.IsZero() {
			return errNoRunYet
		}
		if age := time.Since(at); age > maxAge {
			return &staleError{age: age}
		}
		return nil
	}
}

// Handler serves /metrics and /healthz.
func Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", serveHealth)
	return mux
}

// Serve runs the metrics endpoint on addr until ctx is cancelled.
func Serve(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: Handler(), ReadHeaderTimeout: 10 * time.Second}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
