package generator

import (
	"context"
	"errors"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/xpanvictor/vibesync/internal/config"
	"github.com/xpanvictor/vibesync/pkg/Logger"
)

type OpenAI struct {
	client openai.Client
	model  string
	logger *Logger.Logger
}

func NewOpenAI(cfg config.OpenAIConfig, logger *Logger.Logger) (*OpenAI, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("openai: api key is required")
	}
	model := cfg.Model
	if model == "" {
		model = "gpt-4o-mini"
	}
	return &OpenAI{
		client: openai.NewClient(option.WithAPIKey(cfg.APIKey)),
		model:  model,
		logger: logger,
	}, nil
}

func (o *OpenAI) Name() string { return "openai" }

func (o *OpenAI) Complete(ctx context.Context, prompt string) (string, error) {
	completion, err := o.client.Chat.Completions.New(
		ctx,
		openai.ChatCompletionNewParams{
			Messages: []openai.ChatCompletionMessageParamUnion{
				openai.SystemMessage("You design haptic vibration patterns and reply with JSON only."),
				openai.UserMessage(prompt),
			},
			Model: openai.ChatModel(o.model),
		},
	)
	if err != nil {
		return "", fmt.Errorf("openai completion: %w", err)
	}
	if len(completion.Choices) == 0 {
		return "", ErrEmptyResponse
	}
	text := completion.Choices[0].Message.Content
	o.logger.Debugf("openai response: %s", text)
	return text, nil
}
