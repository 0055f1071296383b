package services

import (
	"context"

	"github.com/jwebster45206/timeline-engine/pkg/chat"
)

// LLMService defines the interface for interacting with the LLM API
type LLMService interface {
	// InitModel initializes the LLM model on startup
	InitModel(ctx context.Context, modelName string) error

	// GenerateResponse generates a chat response using the LLM.
	// Messages marked CacheControl are eligible for provider-side
	// prompt caching; providers without caching ignore the flag.
	GenerateResponse(ctx context.Context, messages []chat.PromptMessage) (string, error)

	// ListModels returns the models available to this provider
	ListModels(ctx context.Context) ([]string, error)
}
