package config

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/arpitbhardwaj7/syscallminer/pkg/generator"
	"github.com/arpitbhardwaj7/syscallminer/pkg/report"
	"github.com/arpitbhardwaj7/syscallminer/pkg/types"
)

// Config is the top-level syscallminer configuration.
type Config struct {
	Analysis  AnalysisConfig  `yaml:"analysis"`
	Generator GeneratorConfig `yaml:"generator"`
	Advisor   AdvisorConfig   `yaml:"advisor"`
	Store     StoreConfig     `yaml:"store"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	Output    OutputConfig    `yaml:"output"`
	Log       LogConfig       `yaml:"log"`
}

// AnalysisConfig holds the bottleneck thresholds.
type AnalysisConfig struct {
	Quantile       *float64 `yaml:"quantile"`      // pointer so an explicit 0 reaches Validate
	MinImpactMs    *float64 `yaml:"min_impact_ms"` // pointer so an explicit 0 survives defaulting
	TopK           int      `yaml:"top_k"`
	RequireResults bool     `yaml:"require_results"`
	Strict         bool     `yaml:"strict"`
	HideSystem     bool     `yaml:"hide_system"`
	ProcessFilter  string   `yaml:"process_filter"`
	ActivityFilter string   `yaml:"activity_filter"`
	TargetPairs    []string `yaml:"target_pairs"` // "process:activity"
}

// Params converts the section into scorer parameters.
func (a AnalysisConfig) Params() report.Params {
	p := report.Params{Quantile: types.DefaultQuantile, MinImpactMs: types.DefaultMinImpactMs, RequireResults: a.RequireResults}
	if a.Quantile != nil {
		p.Quantile = *a.Quantile
	}
	if a.MinImpactMs != nil {
		p.MinImpactMs = *a.MinImpactMs
	}
	return p
}

// Filter returns the event filter described by the section.
func (a AnalysisConfig) Filter() report.FilterConfig {
	return report.FilterConfig{HideSystem: a.HideSystem, ProcessFilter: a.ProcessFilter, ActivityFilter: a.ActivityFilter}
}

// Targets parses TargetPairs. An empty list yields nil so callers fall back to defaults.
func (a AnalysisConfig) Targets() ([]types.PairKey, error) {
	out := make([]types.PairKey, 0, len(a.TargetPairs))
	for _, s := range a.TargetPairs {
		k, err := ParsePair(s)
		if err != nil {
			return nil, err
		}
		out = append(out, k)
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out, nil
}

// ParsePair parses "process:activity". The last colon separates the two parts.
func ParsePair(s string) (types.PairKey, error) {
	i := strings.LastIndex(s, ":")
	if i <= 0 || i == len(s)-1 {
		return types.PairKey{}, fmt.Errorf("invalid pair %q, want process:activity", s)
	}
	return types.PairKey{
		Process:  strings.TrimSpace(s[:i]),
		Activity: strings.TrimSpace(s[i+1:]),
	}, nil
}

// GeneratorConfig configures synthetic log generation.
type GeneratorConfig struct {
	Size          string `yaml:"size"`
	Cases         int    `yaml:"cases"`           // overrides the size preset when > 0
	TimeSpanHours int    `yaml:"time_span_hours"` // overrides the size preset when > 0
	Seed          int64  `yaml:"seed"`            // 0 seeds from the clock
}

// Resolve returns the case count and span after applying the preset.
func (g GeneratorConfig) Resolve() (int, time.Duration, error) {
	size, err := generator.LookupSize(g.Size)
	if err != nil {
		return 0, 0, err
	}
	cases, hours := size.Cases, size.Hours
	if g.Cases > 0 {
		cases = g.Cases
	}
	if g.TimeSpanHours > 0 {
		hours = g.TimeSpanHours
	}
	return cases, time.Duration(hours) * time.Hour, nil
}

// AdvisorConfig configures the hosted model used for remediation reports.
type AdvisorConfig struct {
	Enabled     *bool         `yaml:"enabled"` // default true
	Model       string        `yaml:"model"`
	BaseURL     string        `yaml:"base_url"`
	APIKeyEnv   string        `yaml:"api_key_env"`
	Temperature *float64      `yaml:"temperature"`
	MaxTokens   int           `yaml:"max_tokens"`
	Timeout     time.Duration `yaml:"timeout"`
}

// AdvisorEnabled returns whether the model should be called at all.
func (a AdvisorConfig) AdvisorEnabled() bool {
	if a.Enabled == nil {
		return true
	}
	return *a.Enabled
}

// StoreConfig locates the run history database.
type StoreConfig struct {
	Path string `yaml:"path"`
}

// MetricsConfig configures the Prometheus metrics and health endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"` // listen address; default ":9090"
}

// OutputConfig sets where report files are written.
type OutputConfig struct {
	Dir string `yaml:"dir"`
}

// LogConfig selects the logger flavour.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // console or json
}

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Validate checks the configuration for consistency.
func (c *Config) Validate() error {
	a := c.Analysis
	if q := a.Params().Quantile; math.IsNaN(q) || q <= 0 || q >= 1 {
		return fmt.Errorf("config: analysis.quantile must be in (0,1), got %v", q)
	}
	if a.MinImpactMs != nil && (math.IsNaN(*a.MinImpactMs) || *a.MinImpactMs < 0) {
		return fmt.Errorf("config: analysis.min_impact_ms must be >= 0, got %v", *a.MinImpactMs)
	}
	if a.TopK < 0 {
		return fmt.Errorf("config: analysis.top_k must be >= 0, got %d", a.TopK)
	}
	if _, err := a.Targets(); err != nil {
		return fmt.Errorf("config: analysis.target_pairs: %w", err)
	}

	g := c.Generator
	if _, err := generator.LookupSize(g.Size); err != nil {
		return fmt.Errorf("config: generator.size: %w", err)
	}
	if g.Cases < 0 || g.TimeSpanHours < 0 {
		return fmt.Errorf("config: generator.cases and generator.time_span_hours must be >= 0")
	}

	adv := c.Advisor
	if adv.Temperature != nil && (*adv.Temperature < 0 || *adv.Temperature > 2) {
		return fmt.Errorf("config: advisor.temperature must be in [0,2], got %v", *adv.Temperature)
	}
	if adv.MaxTokens < 0 {
		return fmt.Errorf("config: advisor.max_tokens must be >= 0, got %d", adv.MaxTokens)
	}
	if adv.Timeout < 0 {
		return fmt.Errorf("config: advisor.timeout must be >= 0, got %s", adv.Timeout)
	}

	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: log.level must be debug, info, warn or error, got %q", c.Log.Level)
	}
	switch strings.ToLower(c.Log.Format) {
	case "console", "json":
	default:
		return fmt.Errorf("config: log.format must be console or json, got %q", c.Log.Format)
	}
	return nil
}
