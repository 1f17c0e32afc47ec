package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"stockup/models"
	"stockup/observability"
)

const (
	DefaultYahooBaseURL   = "https://query1.finance.yahoo.com"
	DefaultYahooTimeout   = 10 * time.Second
	DefaultYahooRateLimit = 5 // requests per second

	// DefaultInterval is the bar size used for price history.
	DefaultInterval = "1d"

	yahooUserAgent = "Mozilla/5.0 (compatible; stockup/1.0)"
)

// YahooService fetches quotes and daily closes from the Yahoo Finance JSON API.
type YahooService struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	retry      RetryConfig
}

// YahooOption configures a YahooService
type YahooOption func(*YahooService)

// WithYahooBaseURL points the client at a different host (used by tests)
func WithYahooBaseURL(baseURL string) YahooOption {
	return func(s *YahooService) {
		s.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// WithYahooRateLimit sets the sustained request rate
func WithYahooRateLimit(requestsPerSecond int) YahooOption {
	return func(s *YahooService) {
		s.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond)
	}
}

// WithYahooTimeout sets the per-request HTTP timeout
func WithYahooTimeout(timeout time.Duration) YahooOption {
	return func(s *YahooService) {
		s.httpClient.Timeout = timeout
	}
}

// WithYahooRetry overrides the retry policy
func WithYahooRetry(config RetryConfig) YahooOption {
	return func(s *YahooService) {
		s.retry = config
	}
}

// NewYahooService creates a new YahooService instance
func NewYahooService(opts ...YahooOption) *YahooService {
	s := &YahooService{
		baseURL:    DefaultYahooBaseURL,
		httpClient: &http.Client{Timeout: DefaultYahooTimeout},
		limiter:    rate.NewLimiter(rate.Limit(DefaultYahooRateLimit), DefaultYahooRateLimit),
		retry:      DefaultRetryConfig,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type yahooQuoteResponse struct {
	QuoteResponse struct {
		Result []yahooQuote `json:"result"`
		Error  *yahooError  `json:"error"`
	} `json:"quoteResponse"`
}

type yahooQuote struct {
	Symbol                     string   `json:"symbol"`
	LongName                   string   `json:"longName"`
	ShortName                  string   `json:"shortName"`
	RegularMarketPrice         *float64 `json:"regularMarketPrice"`
	RegularMarketChangePercent *float64 `json:"regularMarketChangePercent"`
	TrailingPE                 *float64 `json:"trailingPE"`
	ForwardPE                  *float64 `json:"forwardPE"`
	BookValue                  *float64 `json:"bookValue"`
	MarketCap                  *float64 `json:"marketCap"`
	EPSTrailingTwelveMonths    *float64 `json:"epsTrailingTwelveMonths"`
	EPSCurrentYear             *float64 `json:"epsCurrentYear"`
	DividendRate               *float64 `json:"dividendRate"`
	DividendYield              *float64 `json:"dividendYield"`
	FiftyTwoWeekLow            *float64 `json:"fiftyTwoWeekLow"`
	FiftyTwoWeekHigh           *float64 `json:"fiftyTwoWeekHigh"`
}

type yahooChartResponse struct {
	Chart struct {
		Result []yahooChartResult `json:"result"`
		Error  *yahooError        `json:"error"`
	} `json:"chart"`
}

type yahooChartResult struct {
	Timestamp  []int64 `json:"timestamp"`
	Indicators struct {
		Quote []struct {
			// Closes are null on halted or partial sessions.
			Close []*float64 `json:"close"`
		} `json:"quote"`
	} `json:"indicators"`
}

type yahooError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

func (e *yahooError) notFound() bool {
	return e != nil && strings.EqualFold(e.Code, "Not Found")
}

// GetQuote returns the latest quote for a symbol.
// A symbol Yahoo does not know yields ErrSymbolNotFound; missing fields do not.
func (s *YahooService) GetQuote(ctx context.Context, symbol string) (*models.QuoteSnapshot, error) {
	symbol, err := ValidateSymbol(symbol)
	if err != nil {
		return nil, err
	}

	metrics := observability.GetMetrics()
	metrics.RecordExternalAPIRequest(BreakerYahoo, "get_quote")
	timer := metrics.NewTimer()

	result, err := WithCircuitBreaker(ctx, BreakerYahoo, func() (*models.QuoteSnapshot, error) {
		var snapshot *models.QuoteSnapshot

		err := WithRetry(ctx, s.retry, func() error {
			params := url.Values{}
			params.Set("symbols", symbol)

			var resp yahooQuoteResponse
			if err := s.get(ctx, "get_quote", symbol, "/v7/finance/quote", params, &resp); err != nil {
				return err
			}

			for _, q := range resp.QuoteResponse.Result {
				if strings.EqualFold(q.Symbol, symbol) {
					snapshot = q.toSnapshot()
					return nil
				}
			}
			return &ProviderError{Provider: BreakerYahoo, Op: "get_quote", Symbol: symbol, Err: ErrSymbolNotFound}
		})

		return snapshot, err
	})

	timer.ObserveExternalAPI(BreakerYahoo, "get_quote")
	if err != nil {
		metrics.RecordExternalAPIError(BreakerYahoo, "get_quote", categorizeAPIError(err))
		return nil, err
	}
	return result, nil
}

// GetHistory returns closes between start and end, oldest first, with null
// closes dropped. An unknown symbol yields ErrSymbolNotFound.
func (s *YahooService) GetHistory(ctx context.Context, symbol string, start, end time.Time, interval string) ([]models.PricePoint, error) {
	symbol, err := ValidateSymbol(symbol)
	if err != nil {
		return nil, err
	}
	if interval == "" {
		interval = DefaultInterval
	}

	metrics := observability.GetMetrics()
	metrics.RecordExternalAPIRequest(BreakerYahoo, "get_history")
	timer := metrics.NewTimer()

	result, err := WithCircuitBreaker(ctx, BreakerYahoo, func() ([]models.PricePoint, error) {
		var points []models.PricePoint

		err := WithRetry(ctx, s.retry, func() error {
			params := url.Values{}
			params.Set("period1", strconv.FormatInt(start.Unix(), 10))
			params.Set("period2", strconv.FormatInt(end.Unix(), 10))
			params.Set("interval", interval)

			var resp yahooChartResponse
			if err := s.get(ctx, "get_history", symbol, "/v8/finance/chart/"+url.PathEscape(symbol), params, &resp); err != nil {
				return err
			}
			if resp.Chart.Error.notFound() || len(resp.Chart.Result) == 0 {
				return &ProviderError{Provider: BreakerYahoo, Op: "get_history", Symbol: symbol, Err: ErrSymbolNotFound}
			}

			points = resp.Chart.Result[0].points()
			return nil
		})

		return points, err
	})

	timer.ObserveExternalAPI(BreakerYahoo, "get_history")
	if err != nil {
		metrics.RecordExternalAPIError(BreakerYahoo, "get_history", categorizeAPIError(err))
		return nil, err
	}
	return result, nil
}

// get performs a rate-limited GET and decodes the JSON body into result.
// Yahoo answers 404 with a JSON error body for unknown chart symbols, so a 404
// is decoded before being classified.
func (s *YahooService) get(ctx context.Context, op, symbol, path string, params url.Values, result any) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	reqURL := s.baseURL + path
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", yahooUserAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return &ProviderError{Provider: BreakerYahoo, Op: op, Symbol: symbol, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &ProviderError{Provider: BreakerYahoo, Op: op, Symbol: symbol, StatusCode: resp.StatusCode, Err: err}
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return &ProviderError{Provider: BreakerYahoo, Op: op, Symbol: symbol, StatusCode: resp.StatusCode, Err: ErrSymbolNotFound}
	case resp.StatusCode != http.StatusOK:
		return &ProviderError{
			Provider:   BreakerYahoo,
			Op:         op,
			Symbol:     symbol,
			StatusCode: resp.StatusCode,
			Err:        errors.New(truncate(string(body), 200)),
		}
	}

	if err := json.Unmarshal(body, result); err != nil {
		return &ProviderError{Provider: BreakerYahoo, Op: op, Symbol: symbol, Err: fmt.Errorf("failed to decode response: %w", err)}
	}
	return nil
}

func (q yahooQuote) toSnapshot() *models.QuoteSnapshot {
	name := q.LongName
	if name == "" {
		name = q.ShortName
	}
	return &models.QuoteSnapshot{
		Symbol:                     strings.ToUpper(q.Symbol),
		DisplayName:                name,
		RegularMarketPrice:         q.RegularMarketPrice,
		RegularMarketChangePercent: q.RegularMarketChangePercent,
		TrailingPE:                 q.TrailingPE,
		ForwardPE:                  q.ForwardPE,
		BookValue:                  q.BookValue,
		MarketCap:                  q.MarketCap,
		EPSTrailingTwelveMonths:    q.EPSTrailingTwelveMonths,
		EPSCurrentYear:             q.EPSCurrentYear,
		DividendRate:               q.DividendRate,
		DividendYield:              q.DividendYield,
		FiftyTwoWeekLow:            q.FiftyTwoWeekLow,
		FiftyTwoWeekHigh:           q.FiftyTwoWeekHigh,
		FetchedAt:                  time.Now().UTC(),
	}
}

func (r yahooChartResult) points() []models.PricePoint {
	if len(r.Indicators.Quote) == 0 {
		return []models.PricePoint{}
	}
	closes := r.Indicators.Quote[0].Close

	points := make([]models.PricePoint, 0, len(r.Timestamp))
	for i, ts := range r.Timestamp {
		if i >= len(closes) || closes[i] == nil {
			continue
		}
		points = append(points, models.PricePoint{
			Date:  time.Unix(ts, 0).UTC(),
			Close: *closes[i],
		})
	}
	return points
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
