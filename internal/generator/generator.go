// Package generator turns a free-text description ("heartbeat", "rain on a
// window") into a vibration pattern by asking a language model for one.
package generator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/xpanvictor/vibesync/internal/metrics"
	"github.com/xpanvictor/vibesync/internal/protocol"
	"github.com/xpanvictor/vibesync/pkg/Logger"
)

// Generator never fails: callers always get a sendable pattern back.
type Generator interface {
	Generate(ctx context.Context, prompt string) []int
}

// Backend is a completion service that answers a prompt with raw text.
type Backend interface {
	Name() string
	Complete(ctx context.Context, prompt string) (string, error)
}

var (
	ErrEmptyResponse  = errors.New("generator: empty response")
	ErrInvalidPattern = errors.New("generator: invalid pattern")
	ErrNoBackend      = errors.New("generator: no backend available")
)

const (
	MinIntervalMs = 50
	MaxIntervalMs = 1000
	TargetTotalMs = 10000
)

// BuildPrompt wraps the user's description in the instructions every
// backend receives.
func BuildPrompt(description string) string {
	return fmt.Sprintf(`Create a vibration pattern that feels like: %q.
Answer with a JSON object of the form {"pattern": [..]} where pattern is a list of integers in milliseconds.
Values alternate vibrate and pause, starting with vibrate.
Every value must be between %d and %d.
The whole pattern should last about %d seconds.
Respond with the JSON object only.`,
		description, MinIntervalMs, MaxIntervalMs, TargetTotalMs/1000)
}

// ParsePattern extracts intervals from a model answer. It accepts the
// requested object, a bare array, and either wrapped in a markdown fence.
func ParsePattern(raw string) ([]int, error) {
	text := stripFence(strings.TrimSpace(raw))
	if text == "" {
		return nil, ErrEmptyResponse
	}

	var intervals []int
	if strings.HasPrefix(text, "[") {
		if err := json.Unmarshal([]byte(text), &intervals); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidPattern, err)
		}
	} else {
		var body struct {
			Pattern []int `json:"pattern"`
		}
		if err := json.Unmarshal([]byte(text), &body); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidPattern, err)
		}
		intervals = body.Pattern
	}

	if _, err := protocol.NewPattern(intervals, ""); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPattern, err)
	}
	return intervals, nil
}

func stripFence(text string) string {
	if !strings.HasPrefix(text, "```") {
		return text
	}
	if nl := strings.IndexByte(text, '\n'); nl >= 0 {
		text = text[nl+1:]
	} else {
		text = strings.TrimPrefix(text, "```")
	}
	text = strings.TrimSpace(text)
	return strings.TrimSpace(strings.TrimSuffix(text, "```"))
}

// LLM asks a Backend and falls back to protocol.FallbackPattern on any
// failure, including a slow backend.
type LLM struct {
	backend Backend
	timeout time.Duration
	logger  *Logger.Logger
	metrics *metrics.Metrics
}

func NewLLM(backend Backend, timeout time.Duration, logger *Logger.Logger, m *metrics.Metrics) *LLM {
	return &LLM{
		backend: backend,
		timeout: timeout,
		logger:  logger,
		metrics: m,
	}
}

func (g *LLM) Generate(ctx context.Context, prompt string) []int {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	started := time.Now()
	raw, err := g.backend.Complete(ctx, BuildPrompt(prompt))
	if err != nil {
		return g.fallback(prompt, err)
	}
	intervals, err := ParsePattern(raw)
	if err != nil {
		return g.fallback(prompt, err)
	}

	g.logger.Debugf("%s generated %v for %q in %s", g.backend.Name(), intervals, prompt, time.Since(started))
	return intervals
}

func (g *LLM) fallback(prompt string, err error) []int {
	g.logger.Warnf("%s could not generate a pattern for %q, using fallback: %v", g.backend.Name(), prompt, err)
	g.metrics.IncGeneratorFallbacks(g.backend.Name())
	return protocol.FallbackPattern()
}

// Static ignores the prompt. Used when no model is configured.
type Static struct {
	pattern []int
}

func NewStatic() *Static {
	return &Static{pattern: protocol.DefaultPattern()}
}

func (s *Static) Generate(_ context.Context, _ string) []int {
	return append([]int(nil), s.pattern...)
}

// BackendFunc adapts a function to Backend under the given name.
type BackendFunc struct {
	Label string
	Fn    func(ctx context.Context, prompt string) (string, error)
}

func (b BackendFunc) Name() string { return b.Label }

func (b BackendFunc) Complete(ctx context.Context, prompt string) (string, error) {
	return b.Fn(ctx, prompt)
}

// Close releases the backend's client when it holds one.
func (g *LLM) Close() error {
	if c, ok := g.backend.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
