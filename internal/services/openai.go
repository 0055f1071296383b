package services

import (
	"context"
	"fmt"
	"log/slog"

	openai "github.com/sashabaranov/go-openai"

	"github.com/jwebster45206/timeline-engine/pkg/chat"
)

const DefaultOpenAITemperature = 0.7

// OpenAIService implements LLMService for OpenAI chat models.
// OpenAI caches long prompt prefixes automatically, so the
// CacheControl flag on prompt messages is a no-op here.
type OpenAIService struct {
	client    *openai.Client
	modelName string
	logger    *slog.Logger
}

func NewOpenAIService(apiKey string, modelName string, logger *slog.Logger) *OpenAIService {
	return &OpenAIService{
		client:    openai.NewClient(apiKey),
		modelName: modelName,
		logger:    logger,
	}
}

func (o *OpenAIService) InitModel(ctx context.Context, modelName string) error {
	if modelName != "" {
		o.modelName = modelName
	}
	return nil
}

func (o *OpenAIService) GenerateResponse(ctx context.Context, messages []chat.PromptMessage) (string, error) {
	oaiMessages := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, msg := range messages {
		oaiMessages = append(oaiMessages, openai.ChatCompletionMessage{
			Role:    msg.Role,
			Content: msg.Content,
		})
	}

	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       o.modelName,
		Messages:    oaiMessages,
		Temperature: DefaultOpenAITemperature,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion returned no choices")
	}

	if o.logger != nil {
		o.logger.Debug("openai usage",
			"prompt_tokens", resp.Usage.PromptTokens,
			"completion_tokens", resp.Usage.CompletionTokens)
	}

	return resp.Choices[0].Message.Content, nil
}

func (o *OpenAIService) ListModels(ctx context.Context) ([]string, error) {
	list, err := o.client.ListModels(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list models: %w", err)
	}

	models := make([]string, 0, len(list.Models))
	for _, m := range list.Models {
		models = append(models, m.ID)
	}
	return models, nil
}
