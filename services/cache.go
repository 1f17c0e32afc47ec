package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"stockup/models"
	"stockup/observability"
)

// Cache data types stored alongside the symbol
const (
	CacheTypeQuote   = "quote"
	CacheTypeHistory = "history"
)

// CachedQuoteProvider serves quotes and history through a QuoteCache.
// Cache failures are logged and bypassed; they never fail a lookup.
type CachedQuoteProvider struct {
	quotes  QuoteProvider
	history HistoryProvider
	cache   QuoteCache
	ttl     time.Duration
}

// NewCachedQuoteProvider creates a caching decorator. A nil cache or a
// non-positive ttl disables caching.
func NewCachedQuoteProvider(quotes QuoteProvider, history HistoryProvider, cache QuoteCache, ttl time.Duration) *CachedQuoteProvider {
	return &CachedQuoteProvider{
		quotes:  quotes,
		history: history,
		cache:   cache,
		ttl:     ttl,
	}
}

func (p *CachedQuoteProvider) enabled() bool {
	return p.cache != nil && p.ttl > 0
}

// GetQuote returns a cached quote when fresh, otherwise fetches and stores one
func (p *CachedQuoteProvider) GetQuote(ctx context.Context, symbol string) (*models.QuoteSnapshot, error) {
	symbol, err := ValidateSymbol(symbol)
	if err != nil {
		return nil, err
	}
	if !p.enabled() {
		return p.quotes.GetQuote(ctx, symbol)
	}

	metrics := observability.GetMetrics()
	var cached models.QuoteSnapshot
	if p.load(ctx, symbol, CacheTypeQuote, &cached) {
		metrics.RecordQuoteCacheHit()
		return &cached, nil
	}
	metrics.RecordQuoteCacheMiss()

	quote, err := p.quotes.GetQuote(ctx, symbol)
	if err != nil {
		return nil, err
	}
	p.store(ctx, symbol, CacheTypeQuote, quote)
	return quote, nil
}

// GetHistory caches by interval and calendar dates, so repeated lookups on
// the same day share an entry
func (p *CachedQuoteProvider) GetHistory(ctx context.Context, symbol string, start, end time.Time, interval string) ([]models.PricePoint, error) {
	symbol, err := ValidateSymbol(symbol)
	if err != nil {
		return nil, err
	}
	if !p.enabled() {
		return p.history.GetHistory(ctx, symbol, start, end, interval)
	}

	if interval == "" {
		interval = DefaultInterval
	}
	dataType := historyCacheType(start, end, interval)

	var cached []models.PricePoint
	if p.load(ctx, symbol, dataType, &cached) {
		return cached, nil
	}

	points, err := p.history.GetHistory(ctx, symbol, start, end, interval)
	if err != nil {
		return nil, err
	}
	p.store(ctx, symbol, dataType, points)
	return points, nil
}

func historyCacheType(start, end time.Time, interval string) string {
	return fmt.Sprintf("%s:%s:%s:%s", CacheTypeHistory, interval,
		start.UTC().Format(models.PurchaseDateLayout), end.UTC().Format(models.PurchaseDateLayout))
}

func (p *CachedQuoteProvider) load(ctx context.Context, symbol, dataType string, dest any) bool {
	data, err := p.cache.GetCachedData(ctx, symbol, dataType)
	if err != nil {
		observability.WithSymbol(symbol).Warn("cache read failed", "data_type", dataType, "error", err)
		return false
	}
	if data == nil {
		return false
	}
	if err := json.Unmarshal(data, dest); err != nil {
		log := observability.WithSymbol(symbol)
		log.Warn("discarding unreadable cache entry", "data_type", dataType, "error", err)
		// drop it now so a failing upstream cannot leave it in place
		if err := p.cache.InvalidateCache(ctx, symbol, dataType); err != nil {
			log.Warn("cache invalidation failed", "data_type", dataType, "error", err)
		}
		return false
	}
	return true
}

func (p *CachedQuoteProvider) store(ctx context.Context, symbol, dataType string, value any) {
	data, err := json.Marshal(value)
	if err != nil {
		observability.WithSymbol(symbol).Warn("cache encode failed", "data_type", dataType, "error", err)
		return
	}
	if err := p.cache.SetCachedData(ctx, symbol, dataType, data, p.ttl); err != nil {
		observability.WithSymbol(symbol).Warn("cache write failed", "data_type", dataType, "error", err)
	}
}
