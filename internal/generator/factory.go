package generator

import (
	"context"
	"fmt"

	"github.com/xpanvictor/vibesync/internal/config"
	"github.com/xpanvictor/vibesync/internal/metrics"
	"github.com/xpanvictor/vibesync/pkg/Logger"
)

// FromConfig builds the generator selected by generator.kind.
func FromConfig(ctx context.Context, s config.Settings, logger *Logger.Logger, m *metrics.Metrics) (Generator, error) {
	var (
		backend Backend
		err     error
	)
	switch s.Generator.Kind {
	case "static":
		return NewStatic(), nil
	case "gemini":
		backend, err = NewGemini(ctx, s.Gemini, logger)
	case "ollama":
		backend, err = NewOllama(s.Ollama, logger)
	case "openai":
		backend, err = NewOpenAI(s.OpenAI, logger)
	default:
		return nil, fmt.Errorf("unknown generator kind %q", s.Generator.Kind)
	}
	if err != nil {
		return nil, err
	}
	logger.Infof("pattern generator: %s (timeout %s)", backend.Name(), s.Generator.Timeout)
	return NewLLM(backend, s.Generator.Timeout, logger, m), nil
}
