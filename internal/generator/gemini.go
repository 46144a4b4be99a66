package generator

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/generative-ai-go/genai"
	"github.com/xpanvictor/vibesync/internal/config"
	"github.com/xpanvictor/vibesync/pkg/Logger"
	"google.golang.org/api/option"
)

// Gemini completes prompts with Google Gemini in JSON mode.
type Gemini struct {
	client *genai.Client
	model  *genai.GenerativeModel
	logger *Logger.Logger
}

func NewGemini(ctx context.Context, cfg config.GeminiConfig, logger *Logger.Logger) (*Gemini, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("gemini: api key is required")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	modelName := cfg.Model
	if modelName == "" {
		modelName = "gemini-2.0-flash"
	}
	model := client.GenerativeModel(modelName)
	model.ResponseMIMEType = "application/json"
	model.Temperature = &[]float32{0.7}[0]

	return &Gemini{
		client: client,
		model:  model,
		logger: logger,
	}, nil
}

func (g *Gemini) Name() string { return "gemini" }

func (g *Gemini) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := g.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", ErrEmptyResponse
	}

	var text string
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			text += string(t)
		}
	}
	g.logger.Debugf("gemini response: %s", text)
	return text, nil
}

func (g *Gemini) Close() error {
	return g.client.Close()
}
