package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/arpitbhardwaj7/syscallminer/pkg/types"
)

// Load reads and parses a syscallminer configuration file.
// Supports environment variable expansion in string values via ${VAR} syntax.
// An empty path returns the defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config.Load: read %s: %w", path, err)
	}

	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("config.Load: parse %s: %w", path, err)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Analysis.Quantile == nil {
		v := types.DefaultQuantile
		c.Analysis.Quantile = &v
	}
	if c.Analysis.MinImpactMs == nil {
		v := types.DefaultMinImpactMs
		c.Analysis.MinImpactMs = &v
	}
	if c.Analysis.TopK == 0 {
		c.Analysis.TopK = types.DefaultTopK
	}
	if c.Generator.Size == "" {
		c.Generator.Size = "small"
	}
	if c.Advisor.Model == "" {
		c.Advisor.Model = "gemini-2.0-flash"
	}
	if c.Advisor.BaseURL == "" {
		c.Advisor.BaseURL = "https://generativelanguage.googleapis.com/v1beta/openai/"
	}
	if c.Advisor.APIKeyEnv == "" {
		c.Advisor.APIKeyEnv = "GEMINI_API_KEY"
	}
	if c.Advisor.Temperature == nil {
		v := 0.7
		c.Advisor.Temperature = &v
	}
	if c.Advisor.MaxTokens == 0 {
		c.Advisor.MaxTokens = 4000
	}
	if c.Advisor.Timeout == 0 {
		c.Advisor.Timeout = 2 * time.Minute
	}
	if c.Store.Path == "" {
		c.Store.Path = ".syscallminer/history"
	}
	if c.Metrics.Addr == "" {
		c.Metrics.Addr = ":9090"
	}
	if c.Output.Dir == "" {
		c.Output.Dir = "bottleneck_analysis_results"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "console"
	}
}
