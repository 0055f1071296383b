package services

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/jwebster45206/timeline-engine/pkg/chat"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNewAnthropicService(t *testing.T) {
	service := NewAnthropicService("test-api-key", "claude-sonnet-4-20250514", testLogger())

	if service.apiKey != "test-api-key" {
		t.Errorf("Expected API key test-api-key, got %s", service.apiKey)
	}
	if service.modelName != "claude-sonnet-4-20250514" {
		t.Errorf("Expected model name claude-sonnet-4-20250514, got %s", service.modelName)
	}
	if service.baseURL != anthropicBaseURL {
		t.Errorf("Expected default base URL, got %s", service.baseURL)
	}
	if service.httpClient == nil {
		t.Error("Expected HTTP client to be initialized")
	}
}

func TestAnthropicService_InitModel(t *testing.T) {
	service := NewAnthropicService("test-key", "default-model", testLogger())

	if err := service.InitModel(context.Background(), "other-model"); err != nil {
		t.Errorf("Expected no error, got %v", err)
	}
	if service.modelName != "other-model" {
		t.Errorf("Expected model name to update, got %s", service.modelName)
	}

	// Empty name keeps the configured model.
	if err := service.InitModel(context.Background(), ""); err != nil {
		t.Errorf("Expected no error, got %v", err)
	}
	if service.modelName != "other-model" {
		t.Errorf("Expected model name unchanged, got %s", service.modelName)
	}
}

func TestAnthropicService_SplitPromptMessages(t *testing.T) {
	service := NewAnthropicService("test-key", "test-model", testLogger())

	tests := []struct {
		name           string
		messages       []chat.PromptMessage
		expectedBlocks int
		expectedConv   int
		cachedBlocks   int
	}{
		{
			name: "system layers plus conversation",
			messages: []chat.PromptMessage{
				{Role: chat.RoleSystem, Content: "Rules.", CacheControl: true},
				{Role: chat.RoleSystem, Content: "State.", CacheControl: true},
				{Role: chat.RoleUser, Content: "Hello"},
				{Role: chat.RoleAssistant, Content: "Hi there!"},
			},
			expectedBlocks: 2,
			expectedConv:   2,
			cachedBlocks:   2,
		},
		{
			name: "uncached system message",
			messages: []chat.PromptMessage{
				{Role: chat.RoleSystem, Content: "Rules."},
				{Role: chat.RoleUser, Content: "Hello"},
			},
			expectedBlocks: 1,
			expectedConv:   1,
			cachedBlocks:   0,
		},
		{
			name: "no system messages",
			messages: []chat.PromptMessage{
				{Role: chat.RoleUser, Content: "Hello"},
			},
			expectedBlocks: 0,
			expectedConv:   1,
			cachedBlocks:   0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			blocks, conversation := service.splitPromptMessages(tt.messages)

			if len(blocks) != tt.expectedBlocks {
				t.Errorf("Expected %d system blocks, got %d", tt.expectedBlocks, len(blocks))
			}
			if len(conversation) != tt.expectedConv {
				t.Errorf("Expected %d conversation messages, got %d", tt.expectedConv, len(conversation))
			}

			cached := 0
			for _, b := range blocks {
				if b.Type != "text" {
					t.Errorf("Expected text block, got %s", b.Type)
				}
				if b.CacheControl != nil {
					cached++
					if b.CacheControl.Type != "ephemeral" {
						t.Errorf("Expected ephemeral cache control, got %s", b.CacheControl.Type)
					}
				}
			}
			if cached != tt.cachedBlocks {
				t.Errorf("Expected %d cached blocks, got %d", tt.cachedBlocks, cached)
			}
		})
	}
}

func TestAnthropicService_GenerateResponse(t *testing.T) {
	var gotReq AnthropicChatRequest
	var gotHeaders http.Header

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/messages" {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		gotHeaders = r.Header.Clone()
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("Failed to decode request: %v", err)
		}
		_ = json.NewEncoder(w).Encode(AnthropicChatResponse{
			Content: []AnthropicContentBlock{
				{Type: "text", Text: "The fields "},
				{Type: "thinking", Text: "ignored"},
				{Type: "text", Text: "overflow."},
			},
		})
	}))
	defer server.Close()

	service := NewAnthropicService("test-key", "test-model", testLogger())
	service.baseURL = server.URL

	response, err := service.GenerateResponse(context.Background(), []chat.PromptMessage{
		{Role: chat.RoleSystem, Content: "Rules.", CacheControl: true},
		{Role: chat.RoleSystem, Content: "State."},
		{Role: chat.RoleUser, Content: "Add a golden age."},
	})
	if err != nil {
		t.Fatalf("GenerateResponse failed: %v", err)
	}

	if response != "The fields overflow." {
		t.Errorf("Expected concatenated text blocks, got %q", response)
	}
	if gotHeaders.Get("x-api-key") != "test-key" {
		t.Errorf("Expected x-api-key header, got %q", gotHeaders.Get("x-api-key"))
	}
	if gotHeaders.Get("anthropic-version") != anthropicVersion {
		t.Errorf("Expected anthropic-version header, got %q", gotHeaders.Get("anthropic-version"))
	}

	if gotReq.Model != "test-model" {
		t.Errorf("Expected model test-model, got %s", gotReq.Model)
	}
	if len(gotReq.System) != 2 {
		t.Fatalf("Expected 2 system blocks, got %d", len(gotReq.System))
	}
	if gotReq.System[0].CacheControl == nil || gotReq.System[0].CacheControl.Type != "ephemeral" {
		t.Errorf("Expected ephemeral cache control on first block, got %+v", gotReq.System[0].CacheControl)
	}
	if gotReq.System[1].CacheControl != nil {
		t.Errorf("Expected no cache control on second block")
	}
	if len(gotReq.Messages) != 1 || gotReq.Messages[0].Role != chat.RoleUser {
		t.Errorf("Unexpected conversation messages: %+v", gotReq.Messages)
	}
}

func TestAnthropicService_GenerateResponse_Errors(t *testing.T) {
	t.Run("non-200 status", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"error":{"type":"rate_limit_error","message":"slow down"}}`))
		}))
		defer server.Close()

		service := NewAnthropicService("test-key", "test-model", testLogger())
		service.baseURL = server.URL

		_, err := service.GenerateResponse(context.Background(), []chat.PromptMessage{
			{Role: chat.RoleUser, Content: "Hello"},
		})
		if err == nil || !strings.Contains(err.Error(), "status 429") {
			t.Errorf("Expected status error, got %v", err)
		}
	})

	t.Run("error payload", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"error":{"type":"invalid_request_error","message":"bad prompt"}}`))
		}))
		defer server.Close()

		service := NewAnthropicService("test-key", "test-model", testLogger())
		service.baseURL = server.URL

		_, err := service.GenerateResponse(context.Background(), []chat.PromptMessage{
			{Role: chat.RoleUser, Content: "Hello"},
		})
		if err == nil || !strings.Contains(err.Error(), "bad prompt") {
			t.Errorf("Expected API error, got %v", err)
		}
	})

	t.Run("empty content falls back", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"content":[]}`))
		}))
		defer server.Close()

		service := NewAnthropicService("test-key", "test-model", testLogger())
		service.baseURL = server.URL

		response, err := service.GenerateResponse(context.Background(), []chat.PromptMessage{
			{Role: chat.RoleUser, Content: "Hello"},
		})
		if err != nil {
			t.Fatalf("GenerateResponse failed: %v", err)
		}
		if response != "(no response)" {
			t.Errorf("Expected fallback response, got %q", response)
		}
	})
}

func TestAnthropicService_ListModels(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/models" {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("x-api-key") != "test-key" {
			t.Errorf("Expected x-api-key header")
		}
		_, _ = w.Write([]byte(`{"data":[{"id":"claude-sonnet-4-20250514"},{"id":"claude-opus-4-20250514"}]}`))
	}))
	defer server.Close()

	service := NewAnthropicService("test-key", "test-model", testLogger())
	service.baseURL = server.URL

	models, err := service.ListModels(context.Background())
	if err != nil {
		t.Fatalf("ListModels failed: %v", err)
	}
	if len(models) != 2 || models[0] != "claude-sonnet-4-20250514" {
		t.Errorf("Unexpected models: %v", models)
	}
}
