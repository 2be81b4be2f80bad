package advisor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
	"github.com/tmc/langchaingo/schema"
	"go.uber.org/zap"

	"github.com/arpitbhardwaj7/syscallminer/pkg/report"
)

var (
	// ErrNoBottlenecks is returned when there is nothing to ask about.
	ErrNoBottlenecks = errors.New("no bottlenecks to solve")
	// ErrNoAPIKey is returned when the configured key variable is empty.
	ErrNoAPIKey = errors.New("no API key configured")
)

// Solution sources.
const (
	SourceLLM   = "llm"
	SourceLocal = "local"
)

// lookupEnv allows tests to stub the environment.
var lookupEnv = os.LookupEnv

// nowFunc allows tests to pin report timestamps.
var nowFunc = time.Now

// Solution is the remediation report for one analysis.
type Solution struct {
	Text        string
	Source      string
	Model       string
	GeneratedAt time.Time
}

// Options tunes the model call.
type Options struct {
	ModelName   string
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
	Logger      *zap.Logger
}

// Advisor asks a language model for remediation advice and falls back to a canned
// report when no model is available.
type Advisor struct {
	model llms.Model
	opts  Options
	log   *zap.Logger
}

// New returns an advisor. A nil model always produces the local report.
func New(model llms.Model, opts Options) *Advisor {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Advisor{model: model, opts: opts, log: log}
}

// NewOpenAICompatible builds a chat model for any OpenAI-compatible endpoint.
// The API key is read from the environment variable apiKeyEnv.
func NewOpenAICompatible(model, baseURL, apiKeyEnv string) (llms.Model, error) {
	key, _ := lookupEnv(apiKeyEnv)
	if strings.TrimSpace(key) == "" {
		return nil, fmt.Errorf("%w: set %s", ErrNoAPIKey, apiKeyEnv)
	}
	opts := []openai.Option{openai.WithToken(key), openai.WithModel(model)}
	if baseURL != "" {
		opts = append(opts, openai.WithBaseURL(baseURL))
	}
	llm, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("creating LLM: %w", err)
	}
	return llm, nil
}

// Solve produces a remediation report. Model failures are logged and answered with
// the local report, so the only error is ErrNoBottlenecks.
func (a *Advisor) Solve(ctx context.Context, an Analysis) (Solution, error) {
	if len(an.Records) == 0 {
		return Solution{}, ErrNoBottlenecks
	}
	if a.model == nil {
		a.log.Info("no model configured, using local solutions")
		return a.local(an), nil
	}

	text, err := a.ask(ctx, an)
	if err != nil {
		a.log.Warn("model call failed, using local solutions", zap.String("model", a.opts.ModelName), zap.Error(err))
		return a.local(an), nil
	}
	a.log.Info("generated solutions", zap.String("model", a.opts.ModelName), zap.Int("chars", len(text)))
	return Solution{Text: text, Source: SourceLLM, Model: a.opts.ModelName, GeneratedAt: nowFunc()}, nil
}

func (a *Advisor) ask(ctx context.Context, an Analysis) (string, error) {
	prompt, err := BuildPrompt(an)
	if err != nil {
		return "", err
	}
	if a.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.opts.Timeout)
		defer cancel()
	}

	var callOpts []llms.CallOption
	callOpts = append(callOpts, llms.WithTemperature(a.opts.Temperature))
	if a.opts.MaxTokens > 0 {
		callOpts = append(callOpts, llms.WithMaxTokens(a.opts.MaxTokens))
	}
	resp, err := a.model.GenerateContent(ctx, []llms.MessageContent{
		llms.TextParts(schema.ChatMessageTypeHuman, systemMessage+"\n\n"+prompt),
	}, callOpts...)
	if err != nil {
		return "", fmt.Errorf("calling LLM: %w", err)
	}
	if resp == nil || len(resp.Choices) == 0 {
		return "", errors.New("calling LLM: empty response")
	}
	text := strings.TrimSpace(resp.Choices[0].Content)
	if text == "" {
		return "", errors.New("calling LLM: empty response")
	}
	return text, nil
}

func (a *Advisor) local(an Analysis) Solution {
	var b strings.Builder
	b.WriteString(localSolutions)
	b.WriteString("\n## PAIR-SPECIFIC SUGGESTIONS\n")
	for _, rec := range report.TopRecords(an.Records, promptPairs) {
		fmt.Fprintf(&b, "\n### %s (%s)\n%s\n", rec.Key(), report.Priority(rec.MeanDurationMs), report.FocusSummary(rec))
		for _, s := range report.Suggestions(rec.Key()) {
			fmt.Fprintf(&b, "- %s\n", s)
		}
	}
	return Solution{Text: b.String(), Source: SourceLocal, Model: SourceLocal, GeneratedAt: nowFunc()}
}

const localSolutions = `# LOCAL BOTTLENECK SOLUTIONS

## PRIORITY RECOMMENDATIONS

### 1. File I/O Optimization (HIGH IMPACT)
**Problem**: ReadFile/WriteFile operations causing delays
**Solution**: Implement asynchronous I/O with completion ports
**Timeline**: 2-3 weeks
**Team**: 2 senior developers
**Cost**: $15,000-$20,000
**Expected Improvement**: 40-60% I/O performance boost

### 2. Memory Management (MEDIUM IMPACT)
**Problem**: VirtualAlloc bottlenecks
**Solution**: Custom memory pools and large page support
**Timeline**: 3-4 weeks
**Team**: 1 senior developer + 1 architect
**Cost**: $20,000-$30,000
**Expected Improvement**: 30-50% allocation speed

### 3. Registry Optimization (QUICK WIN)
**Problem**: RegQueryValue delays
**Solution**: Implement registry value caching
**Timeline**: 1 week
**Team**: 1 mid-level developer
**Cost**: $3,000-$5,000
**Expected Improvement**: 20-30% registry performance

## IMPLEMENTATION PRIORITY
1. Registry caching (quick win)
2. File I/O optimization (high impact)
3. Memory management (long-term benefit)

## TOTAL INVESTMENT
- **Cost**: $38,000-$55,000
- **Timeline**: 6-8 weeks
- **Expected ROI**: 6-month payback period
- **Performance Gain**: 25-45% overall improvement
`
