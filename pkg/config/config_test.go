package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/arpitbhardwaj7/syscallminer/pkg/types"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	t.Setenv("SYSCALLMINER_TEST_KEY_ENV", "MY_GEMINI_KEY")
	content := `
analysis:
  quantile: 0.9
  min_impact_ms: 0
  top_k: 10
  require_results: true
  strict: true
  target_pairs:
    - guardian.exe:ReadFile
    - "explorer.exe : RegQueryValue"
generator:
  size: large
  seed: 42
advisor:
  enabled: false
  api_key_env: ${SYSCALLMINER_TEST_KEY_ENV}
  temperature: 0
  timeout: 30s
store:
  path: /var/lib/syscallminer
metrics:
  enabled: true
  addr: 127.0.0.1:9100
log:
  level: debug
  format: json
`
	cfg, err := Load(writeConfig(t, content))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if *cfg.Analysis.Quantile != 0.9 || cfg.Analysis.TopK != 10 || !cfg.Analysis.RequireResults || !cfg.Analysis.Strict {
		t.Errorf("analysis section not parsed: %+v", cfg.Analysis)
	}
	params := cfg.Analysis.Params()
	if params.MinImpactMs != 0 {
		t.Errorf("explicit min_impact_ms 0 must survive defaults, got %v", params.MinImpactMs)
	}
	targets, err := cfg.Analysis.Targets()
	if err != nil {
		t.Fatalf("Targets failed: %v", err)
	}
	if len(targets) != 2 || targets[1] != (types.PairKey{Process: "explorer.exe", Activity: "RegQueryValue"}) {
		t.Errorf("unexpected targets: %+v", targets)
	}
	cases, span, err := cfg.Generator.Resolve()
	if err != nil || cases != 5000 || span != 24*time.Hour {
		t.Errorf("unexpected generator preset: %d %s %v", cases, span, err)
	}
	if cfg.Advisor.AdvisorEnabled() {
		t.Errorf("advisor should be disabled")
	}
	if cfg.Advisor.APIKeyEnv != "MY_GEMINI_KEY" {
		t.Errorf("env expansion failed: %q", cfg.Advisor.APIKeyEnv)
	}
	if cfg.Advisor.Temperature == nil || *cfg.Advisor.Temperature != 0 {
		t.Errorf("explicit temperature 0 must survive defaults")
	}
	if cfg.Advisor.Timeout != 30*time.Second || cfg.Advisor.Model != "gemini-2.0-flash" {
		t.Errorf("unexpected advisor section: %+v", cfg.Advisor)
	}
	if cfg.Store.Path != "/var/lib/syscallminer" || !cfg.Metrics.Enabled || cfg.Metrics.Addr != "127.0.0.1:9100" {
		t.Errorf("unexpected store/metrics: %+v %+v", cfg.Store, cfg.Metrics)
	}
	if cfg.Log.Level != "debug" || cfg.Log.Format != "json" {
		t.Errorf("unexpected log section: %+v", cfg.Log)
	}
}

func TestLoadDefaults(t *testing.T) {
	for _, path := range []string{"", writeConfig(t, "# empty\n")} {
		cfg, err := Load(path)
		if err != nil {
			t.Fatalf("Load(%q) failed: %v", path, err)
		}
		if *cfg.Analysis.Quantile != types.DefaultQuantile || cfg.Analysis.TopK != types.DefaultTopK {
			t.Errorf("analysis defaults missing: %+v", cfg.Analysis)
		}
		if cfg.Analysis.Params().MinImpactMs != types.DefaultMinImpactMs {
			t.Errorf("min impact default missing")
		}
		if !cfg.Advisor.AdvisorEnabled() || cfg.Advisor.MaxTokens != 4000 || *cfg.Advisor.Temperature != 0.7 {
			t.Errorf("advisor defaults missing: %+v", cfg.Advisor)
		}
		if cfg.Metrics.Enabled || cfg.Metrics.Addr != ":9090" {
			t.Errorf("metrics defaults wrong: %+v", cfg.Metrics)
		}
		if cfg.Output.Dir != "bottleneck_analysis_results" || cfg.Log.Format != "console" {
			t.Errorf("output/log defaults wrong: %+v %+v", cfg.Output, cfg.Log)
		}
		if targets, err := cfg.Analysis.Targets(); err != nil || targets != nil {
			t.Errorf("empty targets should be nil, got %v %v", targets, err)
		}
	}
}

func TestLoadValidation(t *testing.T) {
	cases := []struct {
		name    string
		content string
		wantErr string
	}{
		{"quantileHigh", "analysis:\n  quantile: 1.5\n", "analysis.quantile"},
		{"quantileNegative", "analysis:\n  quantile: -0.1\n", "analysis.quantile"},
		{"quantileZero", "analysis:\n  quantile: 0\n", "analysis.quantile"},
		{"negativeImpact", "analysis:\n  min_impact_ms: -1\n", "analysis.min_impact_ms"},
		{"negativeTopK", "analysis:\n  top_k: -2\n", "analysis.top_k"},
		{"badPair", "analysis:\n  target_pairs: [chrome]\n", "analysis.target_pairs"},
		{"badSize", "generator:\n  size: huge\n", "generator.size"},
		{"temperature", "advisor:\n  temperature: 3\n", "advisor.temperature"},
		{"logLevel", "log:\n  level: chatty\n", "log.level"},
		{"logFormat", "log:\n  format: xml\n", "log.format"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tc.content))
			if err == nil {
				t.Fatalf("expected error")
			}
			if !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("error %q should mention %q", err, tc.wantErr)
			}
		})
	}
}

func TestLoadErrors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected not-exist error, got %v", err)
	}
	if _, err := Load(writeConfig(t, "analysis: [not, a, map]\n")); err == nil || !strings.Contains(err.Error(), "parse") {
		t.Fatalf("expected parse error, got %v", err)
	}
}

func TestParsePair(t *testing.T) {
	k, err := ParsePair("C:proc.exe:ReadFile")
	if err != nil || k.Process != "C:proc.exe" || k.Activity != "ReadFile" {
		t.Fatalf("unexpected pair: %+v %v", k, err)
	}
	for _, bad := range []string{"", "noColon", ":ReadFile", "proc:"} {
		if _, err := ParsePair(bad); err == nil {
			t.Fatalf("expected error for %q", bad)
		}
	}
}
