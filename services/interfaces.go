package services

import (
	"context"
	"time"

	"stockup/models"
)

// QuoteProvider returns point-in-time quotes.
type QuoteProvider interface {
	GetQuote(ctx context.Context, symbol string) (*models.QuoteSnapshot, error)
}

// HistoryProvider returns daily closes between start and end, oldest first.
type HistoryProvider interface {
	GetHistory(ctx context.Context, symbol string, start, end time.Time, interval string) ([]models.PricePoint, error)
}

// MarketDataProvider serves both quotes and history.
type MarketDataProvider interface {
	QuoteProvider
	HistoryProvider
}

// LLMClient sends a system and user prompt to a text model and returns its reply.
type LLMClient interface {
	Name() string
	InvokeWithPrompt(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// QuoteCache stores raw provider payloads keyed by symbol and data type.
// A nil payload with a nil error is a miss.
type QuoteCache interface {
	GetCachedData(ctx context.Context, symbol, dataType string) ([]byte, error)
	SetCachedData(ctx context.Context, symbol, dataType string, data []byte, ttl time.Duration) error
	InvalidateCache(ctx context.Context, symbol, dataType string) error
}

// Compile-time interface verification
var _ MarketDataProvider = (*YahooService)(nil)
var _ MarketDataProvider = (*CachedQuoteProvider)(nil)
var _ HistoryProvider = (*AlpacaService)(nil)
var _ LLMClient = (*OpenAIService)(nil)
var _ LLMClient = (*GeminiService)(nil)
var _ LLMClient = (*BedrockService)(nil)
