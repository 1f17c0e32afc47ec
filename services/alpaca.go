package services

import (
	"context"
	"fmt"
	"time"

	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"

	"stockup/models"
	"stockup/observability"
)

const (
	DefaultAlpacaDataURL = "https://data.alpaca.markets"
	DefaultAlpacaFeed    = marketdata.IEX
)

// alpacaDataClient is the subset of the marketdata client we call (for testing)
type alpacaDataClient interface {
	GetBars(symbol string, req marketdata.GetBarsRequest) ([]marketdata.Bar, error)
}

// AlpacaService serves daily price history from the Alpaca market data API.
// Quotes stay with Yahoo because Alpaca carries no fundamentals.
type AlpacaService struct {
	dataClient alpacaDataClient
	feed       marketdata.Feed
}

// NewAlpacaService creates a new AlpacaService instance
func NewAlpacaService(apiKey, apiSecret, dataURL, feed string) *AlpacaService {
	if dataURL == "" {
		dataURL = DefaultAlpacaDataURL
	}
	if feed == "" {
		feed = DefaultAlpacaFeed
	}

	dataClient := marketdata.NewClient(marketdata.ClientOpts{
		APIKey:    apiKey,
		APISecret: apiSecret,
		BaseURL:   dataURL,
	})

	return &AlpacaService{
		dataClient: dataClient,
		feed:       marketdata.Feed(feed),
	}
}

// newAlpacaServiceWithClient creates an AlpacaService with a custom client (for testing)
func newAlpacaServiceWithClient(client alpacaDataClient) *AlpacaService {
	return &AlpacaService{dataClient: client, feed: DefaultAlpacaFeed}
}

// GetHistory returns bar closes between start and end, oldest first.
// The marketdata client retries on its own, so only the breaker wraps it here.
func (s *AlpacaService) GetHistory(ctx context.Context, symbol string, start, end time.Time, interval string) ([]models.PricePoint, error) {
	symbol, err := ValidateSymbol(symbol)
	if err != nil {
		return nil, err
	}
	timeframe, err := alpacaTimeFrame(interval)
	if err != nil {
		return nil, err
	}

	metrics := observability.GetMetrics()
	metrics.RecordExternalAPIRequest(BreakerAlpaca, "get_history")
	timer := metrics.NewTimer()

	result, err := WithCircuitBreaker(ctx, BreakerAlpaca, func() ([]models.PricePoint, error) {
		bars, err := s.dataClient.GetBars(symbol, marketdata.GetBarsRequest{
			TimeFrame: timeframe,
			Start:     start,
			End:       end,
			Feed:      s.feed,
		})
		if err != nil {
			return nil, &ProviderError{Provider: BreakerAlpaca, Op: "get_history", Symbol: symbol, Err: err}
		}

		points := make([]models.PricePoint, 0, len(bars))
		for _, bar := range bars {
			points = append(points, models.PricePoint{
				Date:  bar.Timestamp.UTC(),
				Close: bar.Close,
			})
		}
		return points, nil
	})

	timer.ObserveExternalAPI(BreakerAlpaca, "get_history")
	if err != nil {
		metrics.RecordExternalAPIError(BreakerAlpaca, "get_history", categorizeAPIError(err))
		return nil, err
	}
	return result, nil
}

func alpacaTimeFrame(interval string) (marketdata.TimeFrame, error) {
	switch interval {
	case "", "1d":
		return marketdata.OneDay, nil
	case "1h":
		return marketdata.OneHour, nil
	default:
		return marketdata.TimeFrame{}, fmt.Errorf("unsupported alpaca interval %q", interval)
	}
}
