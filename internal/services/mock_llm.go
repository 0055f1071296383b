package services

import (
	"context"
	"sync"

	"github.com/jwebster45206/timeline-engine/pkg/chat"
)

// MockLLMAPI is a mock implementation of LLMService for testing
type MockLLMAPI struct {
	InitModelFunc        func(ctx context.Context, modelName string) error
	GenerateResponseFunc func(ctx context.Context, messages []chat.PromptMessage) (string, error)
	ListModelsFunc       func(ctx context.Context) ([]string, error)

	// Track calls for testing
	InitModelCalls        []string
	GenerateResponseCalls []GenerateResponseCall
	ListModelsCalls       int

	mu sync.Mutex // protects all fields above
}

type GenerateResponseCall struct {
	Messages []chat.PromptMessage
}

// NewMockLLMAPI creates a new mock LLM service
func NewMockLLMAPI() *MockLLMAPI {
	return &MockLLMAPI{
		InitModelCalls:        make([]string, 0),
		GenerateResponseCalls: make([]GenerateResponseCall, 0),
	}
}

// InitModel mocks model initialization
func (m *MockLLMAPI) InitModel(ctx context.Context, modelName string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.InitModelCalls = append(m.InitModelCalls, modelName)

	if m.InitModelFunc != nil {
		return m.InitModelFunc(ctx, modelName)
	}
	return nil
}

// GenerateResponse mocks response generation
func (m *MockLLMAPI) GenerateResponse(ctx context.Context, messages []chat.PromptMessage) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.GenerateResponseCalls = append(m.GenerateResponseCalls, GenerateResponseCall{
		Messages: messages,
	})

	if m.GenerateResponseFunc != nil {
		return m.GenerateResponseFunc(ctx, messages)
	}
	return "Mock response", nil
}

// ListModels mocks model listing
func (m *MockLLMAPI) ListModels(ctx context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.ListModelsCalls++

	if m.ListModelsFunc != nil {
		return m.ListModelsFunc(ctx)
	}
	return []string{"mock-model"}, nil
}

// SetGenerateResponseError sets up the mock to return an error on GenerateResponse
func (m *MockLLMAPI) SetGenerateResponseError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.GenerateResponseFunc = func(ctx context.Context, messages []chat.PromptMessage) (string, error) {
		return "", err
	}
}

// SetGenerateResponse sets up the mock to return a fixed response
func (m *MockLLMAPI) SetGenerateResponse(response string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.GenerateResponseFunc = func(ctx context.Context, messages []chat.PromptMessage) (string, error) {
		return response, nil
	}
}

// Reset clears all call tracking
func (m *MockLLMAPI) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.InitModelCalls = make([]string, 0)
	m.GenerateResponseCalls = make([]GenerateResponseCall, 0)
	m.ListModelsCalls = 0
}

// GetCalls returns a copy of the call tracking data in a thread-safe way
func (m *MockLLMAPI) GetCalls() ([]string, []GenerateResponseCall, int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	initCalls := make([]string, len(m.InitModelCalls))
	copy(initCalls, m.InitModelCalls)

	respCalls := make([]GenerateResponseCall, len(m.GenerateResponseCalls))
	copy(respCalls, m.GenerateResponseCalls)

	return initCalls, respCalls, m.ListModelsCalls
}
