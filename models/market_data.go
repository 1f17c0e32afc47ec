package models

import (
	"time"
)

// QuoteSnapshot is a point-in-time quote for a single ticker.
// Numeric fields are pointers because providers routinely omit them and an
// absent value must never be confused with zero.
type QuoteSnapshot struct {
	Symbol                     string    `json:"symbol"`
	DisplayName                string    `json:"display_name,omitempty"`
	RegularMarketPrice         *float64  `json:"regular_market_price"`
	RegularMarketChangePercent *float64  `json:"regular_market_change_percent"`
	TrailingPE                 *float64  `json:"trailing_pe"`
	ForwardPE                  *float64  `json:"forward_pe"`
	BookValue                  *float64  `json:"book_value"`
	MarketCap                  *float64  `json:"market_cap"`
	EPSTrailingTwelveMonths    *float64  `json:"eps_trailing_twelve_months"`
	EPSCurrentYear             *float64  `json:"eps_current_year"`
	DividendRate               *float64  `json:"dividend_rate"`
	DividendYield              *float64  `json:"dividend_yield"`
	FiftyTwoWeekLow            *float64  `json:"fifty_two_week_low"`
	FiftyTwoWeekHigh           *float64  `json:"fifty_two_week_high"`
	FetchedAt                  time.Time `json:"fetched_at"`
}

// Name returns the display name, falling back to the symbol.
func (q *QuoteSnapshot) Name() string {
	if q.DisplayName != "" {
		return q.DisplayName
	}
	return q.Symbol
}

// Price returns the regular market price and whether it is present.
func (q *QuoteSnapshot) Price() (float64, bool) {
	if q == nil || q.RegularMarketPrice == nil {
		return 0, false
	}
	return *q.RegularMarketPrice, true
}

// PricePoint is one daily close. Histories are ordered oldest first.
type PricePoint struct {
	Date  time.Time `json:"date"`
	Close float64   `json:"close"`
}

// Closes extracts the close prices of a history in order.
func Closes(history []PricePoint) []float64 {
	closes := make([]float64, len(history))
	for i, p := range history {
		closes[i] = p.Close
	}
	return closes
}

// Float64 returns a pointer to v, for building snapshots by hand.
func Float64(v float64) *float64 {
	return &v
}
