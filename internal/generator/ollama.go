package generator

import (
	"context"
	"fmt"

	"github.com/ollama/ollama/api"
	"github.com/presbrey/ollamafarm"
	"github.com/xpanvictor/vibesync/internal/config"
	"github.com/xpanvictor/vibesync/pkg/Logger"
)

// Ollama completes prompts on the first online server of a farm.
type Ollama struct {
	farm   *ollamafarm.Farm
	model  string
	logger *Logger.Logger
}

func NewOllama(cfg config.OllamaConfig, logger *Logger.Logger) (*Ollama, error) {
	farm := ollamafarm.New()

	registered := 0
	for _, url := range cfg.URLs {
		if err := farm.RegisterURL(url, nil); err != nil {
			logger.Warnf("ollama: skipping server %s: %v", url, err)
			continue
		}
		registered++
	}
	if registered == 0 {
		return nil, fmt.Errorf("ollama: %w: none of %v could be registered", ErrNoBackend, cfg.URLs)
	}

	return &Ollama{
		farm:   farm,
		model:  cfg.Model,
		logger: logger,
	}, nil
}

func (o *Ollama) Name() string { return "ollama" }

func (o *Ollama) Complete(ctx context.Context, prompt string) (string, error) {
	server := o.farm.First(&ollamafarm.Where{Offline: false})
	if server == nil {
		return "", fmt.Errorf("ollama: %w for model %s", ErrNoBackend, o.model)
	}

	stream := false
	req := api.ChatRequest{
		Model: o.model,
		Messages: []api.Message{
			{Role: "user", Content: prompt},
		},
		Format: "json",
		Stream: &stream,
	}

	var text string
	err := server.Client().Chat(ctx, &req, func(cr api.ChatResponse) error {
		text += cr.Message.Content
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("ollama chat: %w", err)
	}
	o.logger.Debugf("ollama response: %s", text)
	return text, nil
}
