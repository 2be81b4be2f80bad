package metrics

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func resetChecks(t *testing.T) {
	t.Helper()
	health.Lock()
	health.checks = map[string]func() error{}
	health.Unlock()
}

func getHealth(t *testing.T) (int, HealthReport) {
	t.Helper()
	rec := httptest.NewRecorder()
	serveHealth(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	var rep HealthReport
	if err := json.Unmarshal(rec.Body.Bytes(), &rep); err != nil {
		t.Fatalf("decode healthz: %v", err)
	}
	return rec.Code, rep
}

func TestHealthz(t *testing.T) {
	resetChecks(t)
	RegisterHealthCheck("analysis", func() error { return nil })
	if code, rep := getHealth(t); code != http.StatusOK || !rep.Healthy || rep.Checks["analysis"] != "ok" {
		t.Fatalf("unexpected healthy response: %d %+v", code, rep)
	}

	RegisterHealthCheck("store", func() error { return errors.New("store closed") })
	if code, rep := getHealth(t); code != http.StatusServiceUnavailable || rep.Healthy || rep.Checks["store"] != "store closed" {
		t.Fatalf("unexpected degraded response: %d %+v", code, rep)
	}

	// Re-registering a name replaces the old check.
	RegisterHealthCheck("store", func() error { return nil })
	if code, rep := getHealth(t); code != http.StatusOK || len(rep.Checks) != 2 {
		t.Fatalf("replaced check should be healthy: %d %+v", code, rep)
	}
}

func TestStalenessCheck(t *testing.T) {
	var last time.Time
	check := StalenessCheck(func() time.Time { return last }, time.Minute)

	if err := check(); !errors.Is(err, errNoRunYet) {
		t.Fatalf("expected no-run error, got %v", err)
	}
	last = time.Now()
	if err := check(); err != nil {
		t.Fatalf("fresh run should be healthy: %v", err)
	}
	last = time.Now().Add(-2 * time.Minute)
	if err := check(); err == nil || !strings.Contains(err.Error(), "old") {
		t.Fatalf("expected stale error, got %v", err)
	}
}

func TestObserveAnalysis(t *testing.T) {
	okBefore := testutil.ToFloat64(AnalysisRuns.WithLabelValues(StatusOK))
	emptyBefore := testutil.ToFloat64(AnalysisRuns.WithLabelValues(StatusEmpty))

	ObserveAnalysis(20*time.Millisecond, 910, 1, 42.5)
	if got := testutil.ToFloat64(ThresholdMs); got != 910 {
		t.Fatalf("threshold gauge = %v", got)
	}
	if got := testutil.ToFloat64(Bottlenecks); got != 1 {
		t.Fatalf("bottleneck gauge = %v", got)
	}
	if got := testutil.ToFloat64(TimeImpactRatio); got != 0.425 {
		t.Fatalf("impact ratio = %v", got)
	}
	if got := testutil.ToFloat64(AnalysisRuns.WithLabelValues(StatusOK)); got != okBefore+1 {
		t.Fatalf("ok runs = %v, want %v", got, okBefore+1)
	}

	ObserveAnalysis(time.Millisecond, 500, 0, 0)
	if got := testutil.ToFloat64(AnalysisRuns.WithLabelValues(StatusEmpty)); got != emptyBefore+1 {
		t.Fatalf("empty runs = %v, want %v", got, emptyBefore+1)
	}
}

func TestHandlerServesMetrics(t *testing.T) {
	resetChecks(t)
	EventsIngested.Add(3)
	AdvisorRequests.WithLabelValues("local").Inc()

	srv := httptest.NewServer(Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatalf("get metrics: %v", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	for _, name := range []string{
		"syscallminer_events_ingested_total",
		"syscallminer_rows_rejected_total",
		`syscallminer_advisor_requests_total{source="local"}`,
		"syscallminer_analysis_duration_seconds_bucket",
	} {
		if !strings.Contains(string(body), name) {
			t.Fatalf("metrics output missing %s", name)
		}
	}

	health, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatalf("get healthz: %v", err)
	}
	health.Body.Close()
	if health.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 from healthz, got %d", health.StatusCode)
	}
}

func TestServeStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Serve(ctx, "127.0.0.1:0") }()
	cancel()
	select {
	case err := <-done:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			t.Fatalf("shutdown: %v", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("server did not stop")
	}
}
