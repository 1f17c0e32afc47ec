package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"stockup/charts"
	"stockup/config"
	"stockup/models"
	"stockup/narrative"
	"stockup/observability"
	"stockup/scoring"
	"stockup/services"
	"stockup/watchlist"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// HoldingsStore defines the repository operations needed by App
type HoldingsStore interface {
	Close()
	Health(ctx context.Context) error
	ListHoldings(ctx context.Context, ownerID string) ([]models.Holding, error)
	CreateHolding(ctx context.Context, h *models.Holding) error
	DeleteHolding(ctx context.Context, ownerID string, id uuid.UUID) (bool, error)
}

// Narrator produces a pros and cons analysis for a quote
type Narrator interface {
	Provider() string
	Analyze(ctx context.Context, quote *models.QuoteSnapshot) (*narrative.Analysis, error)
}

// HoldingInput is the user-supplied part of a new holding
type HoldingInput struct {
	Symbol        string          `json:"symbol"`
	Quantity      decimal.Decimal `json:"quantity"`
	PurchasePrice decimal.Decimal `json:"purchase_price"`
	PurchaseDate  string          `json:"purchase_date"`
}

// App wires the market data, narrative and holdings dependencies together.
// Any of narrator and store may be nil; the operations that need them fail
// with ErrNarrativeUnavailable or ErrStoreUnavailable.
type App struct {
	cfg         *config.Config
	market      services.MarketDataProvider
	narrator    Narrator
	store       HoldingsStore
	analysisSem chan struct{}
	now         func() time.Time
}

// New creates a new App
func New(cfg *config.Config, market services.MarketDataProvider, narrator Narrator, store HoldingsStore) *App {
	return &App{
		cfg:         cfg,
		market:      market,
		narrator:    narrator,
		store:       store,
		analysisSem: make(chan struct{}, cfg.App.AnalysisConcurrency),
		now:         time.Now,
	}
}

// Shutdown releases the holdings store
func (a *App) Shutdown() {
	if a.store != nil {
		a.store.Close()
	}
}

// HasNarrative reports whether insights can be generated
func (a *App) HasNarrative() bool {
	return a.narrator != nil
}

// HasStore reports whether the watchlist is available
func (a *App) HasStore() bool {
	return a.store != nil
}

// StoreHealth pings the holdings store
func (a *App) StoreHealth(ctx context.Context) error {
	if a.store == nil {
		return ErrStoreUnavailable
	}
	return a.store.Health(ctx)
}

// GetStock fetches the quote and history for a symbol and scores it.
// A history failure degrades to an empty history; a quote failure is returned.
func (a *App) GetStock(ctx context.Context, symbol string) (*models.StockView, error) {
	metrics := observability.GetMetrics()

	sym, err := services.ValidateSymbol(symbol)
	if err != nil {
		metrics.RecordStockLookup("invalid")
		return nil, err
	}

	quote, err := a.market.GetQuote(ctx, sym)
	if err != nil {
		if services.IsNotFound(err) {
			metrics.RecordStockLookup("not_found")
		} else {
			metrics.RecordStockLookup("error")
		}
		return nil, fmt.Errorf("failed to fetch quote for %s: %w", sym, err)
	}

	history := a.history(ctx, sym)
	view := &models.StockView{
		Quote:   quote,
		History: history,
		Score:   scoring.Report(*quote, history),
	}
	if trend, ok := scoring.TrendGrade(*quote, history); ok {
		view.Trend = &trend
		metrics.RecordTrendGrade(string(trend.Grade))
	}

	metrics.RecordStockLookup("success")
	metrics.RecordScore(view.Score.Label, view.Score.Breakdown.Total)
	return view, nil
}

// GetChart renders the configured history window of a symbol as a PNG
func (a *App) GetChart(ctx context.Context, symbol string, width, height int) ([]byte, error) {
	sym, err := services.ValidateSymbol(symbol)
	if err != nil {
		return nil, err
	}

	end := a.now().UTC()
	start := end.AddDate(0, 0, -a.cfg.Quotes.HistoryDays)
	history, err := a.market.GetHistory(ctx, sym, start, end, services.DefaultInterval)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch history for %s: %w", sym, err)
	}

	return charts.RenderPriceChart(sym, history, width, height)
}

// GetInsight produces an AI pros and cons analysis alongside the score.
// At most AnalysisConcurrency insights run at once; beyond that ErrBusy is returned.
func (a *App) GetInsight(ctx context.Context, symbol string) (*models.Insight, error) {
	if a.narrator == nil {
		return nil, ErrNarrativeUnavailable
	}

	sym, err := services.ValidateSymbol(symbol)
	if err != nil {
		return nil, err
	}

	select {
	case a.analysisSem <- struct{}{}:
		defer func() { <-a.analysisSem }()
	default:
		return nil, ErrBusy
	}

	quote, err := a.market.GetQuote(ctx, sym)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch quote for %s: %w", sym, err)
	}
	history := a.history(ctx, sym)

	analysis, err := a.narrator.Analyze(ctx, quote)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNarrativeUnavailable, err)
	}

	score := scoring.Report(*quote, history)
	observability.GetMetrics().RecordScore(score.Label, score.Breakdown.Total)

	return &models.Insight{
		Symbol:      sym,
		Quote:       quote,
		Analysis:    analysis.Text,
		Pros:        analysis.Pros,
		Cons:        analysis.Cons,
		Score:       score,
		Provider:    analysis.Provider,
		GeneratedAt: a.now().UTC(),
	}, nil
}

// history fetches the configured window, logging and returning an empty
// history on failure so scoring can still proceed.
func (a *App) history(ctx context.Context, symbol string) []models.PricePoint {
	end := a.now().UTC()
	start := end.AddDate(0, 0, -a.cfg.Quotes.HistoryDays)

	history, err := a.market.GetHistory(ctx, symbol, start, end, services.DefaultInterval)
	if err != nil {
		observability.WithSymbol(symbol).Warn("history unavailable, scoring without it", "error", err)
		return []models.PricePoint{}
	}
	return history
}

// ListWatchlist values every holding of the owner against a fresh quote.
// Quotes are fetched once per symbol with bounded concurrency; a failed quote
// falls back to the purchase price and marks the holding stale.
func (a *App) ListWatchlist(ctx context.Context, ownerID string) (*models.Watchlist, error) {
	if a.store == nil {
		return nil, ErrStoreUnavailable
	}

	holdings, err := a.store.ListHoldings(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list holdings: %w", err)
	}

	prices := a.fetchPrices(ctx, holdings)
	metrics := observability.GetMetrics()

	valuations := make([]models.HoldingValuation, 0, len(holdings))
	for _, h := range holdings {
		price, ok := prices[h.Symbol]
		v := watchlist.Valuate(h, price, ok)
		if v.PriceStale {
			metrics.RecordStalePrice()
		}
		valuations = append(valuations, v)
	}

	return &models.Watchlist{
		OwnerID:  ownerID,
		Holdings: valuations,
		Summary:  watchlist.Summarize(valuations),
	}, nil
}

// fetchPrices returns the current price of each distinct symbol that could be fetched
func (a *App) fetchPrices(ctx context.Context, holdings []models.Holding) map[string]float64 {
	symbols := make([]string, 0, len(holdings))
	seen := make(map[string]bool, len(holdings))
	for _, h := range holdings {
		if !seen[h.Symbol] {
			seen[h.Symbol] = true
			symbols = append(symbols, h.Symbol)
		}
	}

	var (
		mu     sync.Mutex
		wg     sync.WaitGroup
		prices = make(map[string]float64, len(symbols))
		sem    = make(chan struct{}, a.cfg.App.WatchlistConcurrency)
	)

	for _, sym := range symbols {
		wg.Add(1)
		go func(sym string) {
			defer wg.Done()

			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				return
			}

			quote, err := a.market.GetQuote(ctx, sym)
			if err != nil {
				observability.WithSymbol(sym).Warn("quote unavailable, using purchase price", "error", err)
				return
			}
			price, ok := quote.Price()
			if !ok {
				return
			}

			mu.Lock()
			prices[sym] = price
			mu.Unlock()
		}(sym)
	}

	wg.Wait()
	return prices
}

// AddHolding validates and stores a new holding for the owner.
// An empty purchase date means today.
func (a *App) AddHolding(ctx context.Context, ownerID string, in HoldingInput) (*models.Holding, error) {
	if a.store == nil {
		return nil, ErrStoreUnavailable
	}

	sym, err := services.ValidateSymbol(in.Symbol)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidHolding, err)
	}
	if !in.Quantity.IsPositive() {
		return nil, fmt.Errorf("%w: quantity must be greater than 0", ErrInvalidHolding)
	}
	if !in.PurchasePrice.IsPositive() {
		return nil, fmt.Errorf("%w: purchase price must be greater than 0", ErrInvalidHolding)
	}

	date := in.PurchaseDate
	if date == "" {
		date = a.now().UTC().Format(models.PurchaseDateLayout)
	} else if _, err := time.Parse(models.PurchaseDateLayout, date); err != nil {
		return nil, fmt.Errorf("%w: purchase date must be YYYY-MM-DD", ErrInvalidHolding)
	}

	h := models.NewHolding(ownerID, sym, in.Quantity, in.PurchasePrice, date)
	h.CreatedAt = a.now().UTC()
	if err := a.store.CreateHolding(ctx, h); err != nil {
		return nil, fmt.Errorf("failed to save holding: %w", err)
	}

	observability.WithOwner(ownerID).Info("holding added", "symbol", sym, "holding_id", h.ID)
	return h, nil
}

// DeleteHolding removes one of the owner's holdings
func (a *App) DeleteHolding(ctx context.Context, ownerID, id string) error {
	if a.store == nil {
		return ErrStoreUnavailable
	}

	holdingID, err := ParseUUID(id)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrHoldingNotFound, err)
	}

	deleted, err := a.store.DeleteHolding(ctx, ownerID, holdingID)
	if err != nil {
		return fmt.Errorf("failed to delete holding: %w", err)
	}
	if !deleted {
		return ErrHoldingNotFound
	}

	observability.WithOwner(ownerID).Info("holding deleted", "holding_id", holdingID)
	return nil
}

// ParseUUID parses a string UUID
func ParseUUID(id string) (uuid.UUID, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid UUID: %w", err)
	}
	return parsed, nil
}

// AnalysisSemCapacity returns the capacity of the analysis semaphore (for testing)
func (a *App) AnalysisSemCapacity() int {
	return cap(a.analysisSem)
}

// IsExternalFailure reports whether err came from an upstream provider
// rather than from the caller's input.
func IsExternalFailure(err error) bool {
	// A missing dependency is configuration, not an outage
	if err == nil || err == ErrNarrativeUnavailable || err == ErrStoreUnavailable {
		return false
	}
	switch {
	case errors.Is(err, ErrInvalidSymbol),
		errors.Is(err, ErrSymbolNotFound),
		errors.Is(err, ErrInvalidHolding),
		errors.Is(err, ErrHoldingNotFound),
		errors.Is(err, ErrBusy):
		return false
	}
	return true
}
