package services

import (
	"context"
	"fmt"

	appconfig "stockup/config"
	"stockup/observability"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"
)

// openaiClient defines the interface for OpenAI API calls (for testing)
type openaiClient interface {
	CreateChatCompletion(ctx context.Context, params openai.ChatCompletionNewParams) (*openai.ChatCompletion, error)
}

// openaiClientWrapper wraps the openai.Client to implement our interface
type openaiClientWrapper struct {
	client openai.Client
}

func (w *openaiClientWrapper) CreateChatCompletion(ctx context.Context, params openai.ChatCompletionNewParams) (*openai.ChatCompletion, error) {
	return w.client.Chat.Completions.New(ctx, params)
}

// OpenAIService talks to any OpenAI-compatible chat completion endpoint.
// The default base URL is Groq's.
type OpenAIService struct {
	client      openaiClient
	model       string
	maxTokens   int
	temperature float64
}

// NewOpenAIService creates a new OpenAIService instance
func NewOpenAIService(cfg *appconfig.Config) (*OpenAIService, error) {
	oc := cfg.Narrative.OpenAI
	if oc.APIKey == "" {
		return nil, fmt.Errorf("GROQ_API_KEY or OPENAI_API_KEY is required")
	}

	opts := []option.RequestOption{option.WithAPIKey(oc.APIKey)}
	if oc.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(oc.BaseURL))
	}
	client := openai.NewClient(opts...)

	return &OpenAIService{
		client:      &openaiClientWrapper{client: client},
		model:       oc.Model,
		maxTokens:   oc.MaxTokens,
		temperature: oc.Temperature,
	}, nil
}

// newOpenAIServiceWithClient creates an OpenAIService with a custom client (for testing)
func newOpenAIServiceWithClient(client openaiClient, model string, maxTokens int, temperature float64) *OpenAIService {
	return &OpenAIService{
		client:      client,
		model:       model,
		maxTokens:   maxTokens,
		temperature: temperature,
	}
}

// Name identifies the provider in metrics and responses
func (s *OpenAIService) Name() string {
	return BreakerOpenAI
}

// InvokeWithPrompt sends a prompt and returns the response text
func (s *OpenAIService) InvokeWithPrompt(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	metrics := observability.GetMetrics()
	metrics.RecordExternalAPIRequest(BreakerOpenAI, "invoke")
	timer := metrics.NewTimer()

	result, err := WithCircuitBreaker(ctx, BreakerOpenAI, func() (string, error) {
		params := openai.ChatCompletionNewParams{
			Model:       shared.ChatModel(s.model),
			MaxTokens:   openai.Int(int64(s.maxTokens)),
			Temperature: openai.Float(s.temperature),
			Messages: []openai.ChatCompletionMessageParamUnion{
				openai.SystemMessage(systemPrompt),
				openai.UserMessage(userPrompt),
			},
		}

		completion, err := s.client.CreateChatCompletion(ctx, params)
		if err != nil {
			return "", &ProviderError{Provider: BreakerOpenAI, Op: "invoke", Err: fmt.Errorf("failed to invoke model: %w", err)}
		}

		if len(completion.Choices) == 0 || completion.Choices[0].Message.Content == "" {
			return "", &ProviderError{Provider: BreakerOpenAI, Op: "invoke", Err: ErrEmptyResponse}
		}

		return completion.Choices[0].Message.Content, nil
	})

	timer.ObserveExternalAPI(BreakerOpenAI, "invoke")
	if err != nil {
		metrics.RecordExternalAPIError(BreakerOpenAI, "invoke", categorizeAPIError(err))
	}
	return result, err
}
