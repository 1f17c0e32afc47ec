package services

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"stockup/observability"
)

const (
	DefaultGeminiModel       = "gemini-2.0-flash"
	DefaultGeminiTemperature = 0.7
	DefaultGeminiMaxTokens   = 1000
)

// geminiClient is the single genai call we make (for testing)
type geminiClient interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

type geminiModelsWrapper struct {
	client *genai.Client
}

func (w *geminiModelsWrapper) GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	return w.client.Models.GenerateContent(ctx, model, contents, config)
}

// GeminiService generates narratives with the Google Gemini API
type GeminiService struct {
	client      geminiClient
	model       string
	temperature float32
	maxTokens   int32
}

// GeminiOption configures a GeminiService
type GeminiOption func(*GeminiService)

// WithGeminiModel sets the model to use
func WithGeminiModel(model string) GeminiOption {
	return func(s *GeminiService) {
		if model != "" {
			s.model = model
		}
	}
}

// WithGeminiTemperature sets the sampling temperature
func WithGeminiTemperature(temperature float64) GeminiOption {
	return func(s *GeminiService) {
		s.temperature = float32(temperature)
	}
}

// WithGeminiMaxTokens caps the response length
func WithGeminiMaxTokens(maxTokens int) GeminiOption {
	return func(s *GeminiService) {
		if maxTokens > 0 {
			s.maxTokens = int32(maxTokens)
		}
	}
}

// NewGeminiService creates a new GeminiService instance
func NewGeminiService(ctx context.Context, apiKey string, opts ...GeminiOption) (*GeminiService, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return newGeminiServiceWithClient(&geminiModelsWrapper{client: client}, opts...), nil
}

func newGeminiServiceWithClient(client geminiClient, opts ...GeminiOption) *GeminiService {
	s := &GeminiService{
		client:      client,
		model:       DefaultGeminiModel,
		temperature: DefaultGeminiTemperature,
		maxTokens:   DefaultGeminiMaxTokens,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name identifies the provider in metrics and responses
func (s *GeminiService) Name() string {
	return BreakerGemini
}

// InvokeWithPrompt sends a prompt to Gemini and returns the response text
func (s *GeminiService) InvokeWithPrompt(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	metrics := observability.GetMetrics()
	metrics.RecordExternalAPIRequest(BreakerGemini, "invoke")
	timer := metrics.NewTimer()

	result, err := WithCircuitBreaker(ctx, BreakerGemini, func() (string, error) {
		config := &genai.GenerateContentConfig{
			Temperature:     genai.Ptr(s.temperature),
			MaxOutputTokens: s.maxTokens,
		}
		if systemPrompt != "" {
			config.SystemInstruction = genai.NewContentFromText(systemPrompt, genai.RoleUser)
		}

		resp, err := s.client.GenerateContent(ctx, s.model, genai.Text(userPrompt), config)
		if err != nil {
			return "", &ProviderError{Provider: BreakerGemini, Op: "invoke", Err: fmt.Errorf("failed to generate content: %w", err)}
		}

		text := extractGeminiText(resp)
		if text == "" {
			return "", &ProviderError{Provider: BreakerGemini, Op: "invoke", Err: ErrEmptyResponse}
		}
		return text, nil
	})

	timer.ObserveExternalAPI(BreakerGemini, "invoke")
	if err != nil {
		metrics.RecordExternalAPIError(BreakerGemini, "invoke", categorizeAPIError(err))
	}
	return result, err
}

// extractGeminiText joins the text parts of the first candidate
func extractGeminiText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part != nil && part.Text != "" {
			sb.WriteString(part.Text)
		}
	}
	return sb.String()
}
