package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"stockup/config"

	"github.com/openai/openai-go"
)

// mockOpenAIClient implements openaiClient for testing
type mockOpenAIClient struct {
	completionFunc func(ctx context.Context, params openai.ChatCompletionNewParams) (*openai.ChatCompletion, error)
}

func (m *mockOpenAIClient) CreateChatCompletion(ctx context.Context, params openai.ChatCompletionNewParams) (*openai.ChatCompletion, error) {
	return m.completionFunc(ctx, params)
}

func newTestOpenAIService(client openaiClient) *OpenAIService {
	return newOpenAIServiceWithClient(client, "llama-3.3-70b-versatile", 1000, 0.7)
}

func completionWith(content string) *openai.ChatCompletion {
	return &openai.ChatCompletion{
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{Content: content}},
		},
	}
}

func TestNewOpenAIService_MissingAPIKey(t *testing.T) {
	cfg := config.NewTestConfig()
	cfg.Narrative.OpenAI.APIKey = ""

	_, err := NewOpenAIService(cfg)
	if err == nil {
		t.Fatal("expected error when API key is missing")
	}
	if !strings.Contains(err.Error(), "API_KEY is required") {
		t.Errorf("unexpected error message: %v", err)
	}
}

func TestNewOpenAIService_WithAPIKey(t *testing.T) {
	cfg := config.NewTestConfig()
	cfg.Narrative.OpenAI.APIKey = "test-api-key"
	cfg.Narrative.OpenAI.BaseURL = "https://api.groq.com/openai/v1"
	cfg.Narrative.OpenAI.Model = "llama-3.1-8b-instant"
	cfg.Narrative.OpenAI.MaxTokens = 512
	cfg.Narrative.OpenAI.Temperature = 0.2

	service, err := NewOpenAIService(cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if service.model != "llama-3.1-8b-instant" {
		t.Errorf("model = %s, want llama-3.1-8b-instant", service.model)
	}
	if service.maxTokens != 512 {
		t.Errorf("maxTokens = %d, want 512", service.maxTokens)
	}
	if service.temperature != 0.2 {
		t.Errorf("temperature = %v, want 0.2", service.temperature)
	}
	if service.Name() != "openai" {
		t.Errorf("Name() = %s, want openai", service.Name())
	}
}

func TestOpenAIInvokeWithPrompt_Success(t *testing.T) {
	SetGlobalRegistry(NewCircuitBreakerRegistry(DefaultCircuitBreakerConfig))

	var got openai.ChatCompletionNewParams
	mockClient := &mockOpenAIClient{
		completionFunc: func(ctx context.Context, params openai.ChatCompletionNewParams) (*openai.ChatCompletion, error) {
			got = params
			return completionWith("PROS:\n- Cheap\nCONS:\n- Risky"), nil
		},
	}

	service := newTestOpenAIService(mockClient)
	result, err := service.InvokeWithPrompt(context.Background(), "You are an analyst", "Analyze AAPL")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(result, "PROS:") {
		t.Errorf("unexpected result: %q", result)
	}

	if string(got.Model) != "llama-3.3-70b-versatile" {
		t.Errorf("model = %s", got.Model)
	}
	if len(got.Messages) != 2 {
		t.Errorf("expected system + user message, got %d", len(got.Messages))
	}
	if got.MaxTokens.Value != 1000 {
		t.Errorf("max tokens = %d, want 1000", got.MaxTokens.Value)
	}
	if got.Temperature.Value != 0.7 {
		t.Errorf("temperature = %v, want 0.7", got.Temperature.Value)
	}
}

func TestOpenAIInvokeWithPrompt_APIError(t *testing.T) {
	SetGlobalRegistry(NewCircuitBreakerRegistry(DefaultCircuitBreakerConfig))

	mockClient := &mockOpenAIClient{
		completionFunc: func(ctx context.Context, params openai.ChatCompletionNewParams) (*openai.ChatCompletion, error) {
			return nil, errors.New("API error")
		},
	}

	service := newTestOpenAIService(mockClient)
	_, err := service.InvokeWithPrompt(context.Background(), "system", "user")
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "failed to invoke model") {
		t.Errorf("unexpected error message: %v", err)
	}
}

func TestOpenAIInvokeWithPrompt_EmptyChoices(t *testing.T) {
	SetGlobalRegistry(NewCircuitBreakerRegistry(DefaultCircuitBreakerConfig))

	tests := []struct {
		name       string
		completion *openai.ChatCompletion
	}{
		{"no choices", &openai.ChatCompletion{Choices: []openai.ChatCompletionChoice{}}},
		{"blank content", completionWith("")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockClient := &mockOpenAIClient{
				completionFunc: func(ctx context.Context, params openai.ChatCompletionNewParams) (*openai.ChatCompletion, error) {
					return tt.completion, nil
				},
			}

			service := newTestOpenAIService(mockClient)
			_, err := service.InvokeWithPrompt(context.Background(), "system", "user")
			if !errors.Is(err, ErrEmptyResponse) {
				t.Errorf("expected ErrEmptyResponse, got %v", err)
			}
		})
	}
}

func TestOpenAIService_ImplementsLLMClient(t *testing.T) {
	var _ LLMClient = &OpenAIService{}
}
