// Package scoring grades stocks from a quote snapshot and a daily price history.
//
// Every function here is pure: inputs are never mutated, no I/O is performed,
// and identical inputs always produce identical output. Missing quote fields
// contribute nothing to their sub-check instead of failing the computation.
package scoring

import (
	"math"

	"stockup/models"
)

// Category maxima.
const (
	MaxValuation     = 20
	MaxGrowth        = 25
	MaxHealth        = 20
	MaxProfitability = 20
	MaxMomentum      = 15
	MaxTotal         = 100
)

// MomentumWindow is the number of history points the price momentum check looks back.
const MomentumWindow = 30

// band maps a value to points when it satisfies a threshold.
type band struct {
	threshold float64
	points    int
}

// Trailing P/E, lower is better. Non-positive P/E scores nothing.
var trailingPEBands = []band{
	{15, 10},
	{25, 8},
	{35, 5},
	{50, 3},
}

const trailingPEFloor = 1

// Forward P/E, lower is better. Non-positive P/E scores nothing.
var forwardPEBands = []band{
	{15, 10},
	{25, 7},
	{35, 4},
}

const forwardPEFloor = 2

// Percent price change over the momentum window, strictly greater than.
var priceMomentumBands = []band{
	{15, 13},
	{10, 10},
	{5, 7},
	{0, 4},
	{-5, 2},
}

// Year-over-year EPS growth percent, strictly greater than.
var epsGrowthBands = []band{
	{20, 12},
	{10, 8},
	{5, 5},
	{0, 2},
}

// Price-to-book, strictly less than.
var priceToBookBands = []band{
	{1.5, 10},
	{3, 7},
	{5, 4},
}

const priceToBookFloor = 2

// Market cap in billions, strictly greater than.
var marketCapBands = []band{
	{200, 10},
	{10, 7},
	{2, 4},
}

const marketCapFloor = 2

// Trailing EPS, strictly greater than.
var trailingEPSBands = []band{
	{5, 10},
	{3, 7},
	{1, 4},
	{0, 2},
}

// Dividend: a base award for paying one plus at most one yield tier.
const dividendBase = 5

var dividendYieldBands = []band{
	{2, 5},
	{1, 3},
}

// Price as a percent of the 52-week high, strictly greater than.
var fiftyTwoWeekBands = []band{
	{95, 8},
	{85, 6},
	{70, 4},
	{50, 2},
}

// Today's percent change, strictly greater than.
var dailyChangeBands = []band{
	{3, 7},
	{1, 5},
	{0, 3},
	{-2, 1},
}

// above returns the points of the first band whose threshold v exceeds,
// or floor when v exceeds none of them.
func above(v float64, bands []band, floor int) int {
	for _, b := range bands {
		if v > b.threshold {
			return b.points
		}
	}
	return floor
}

// below returns the points of the first band whose threshold v is under,
// or floor when v is under none of them.
func below(v float64, bands []band, floor int) int {
	for _, b := range bands {
		if v < b.threshold {
			return b.points
		}
	}
	return floor
}

// ComputeScore grades a stock across five categories. It never fails.
func ComputeScore(quote models.QuoteSnapshot, history []models.PricePoint) models.ScoreBreakdown {
	s := models.ScoreBreakdown{
		Valuation:     clamp(valuationScore(quote), 0, MaxValuation),
		Growth:        clamp(growthScore(quote, history), 0, MaxGrowth),
		Health:        clamp(healthScore(quote), 0, MaxHealth),
		Profitability: clamp(profitabilityScore(quote), 0, MaxProfitability),
		Momentum:      clamp(momentumScore(quote), 0, MaxMomentum),
	}
	s.Total = clamp(s.Valuation+s.Growth+s.Health+s.Profitability+s.Momentum, 0, MaxTotal)
	return s
}

func valuationScore(q models.QuoteSnapshot) int {
	score := 0
	if pe, ok := finite(q.TrailingPE); ok && pe > 0 {
		score += below(pe, trailingPEBands, trailingPEFloor)
	}
	if pe, ok := finite(q.ForwardPE); ok && pe > 0 {
		score += below(pe, forwardPEBands, forwardPEFloor)
	}
	return score
}

func growthScore(q models.QuoteSnapshot, history []models.PricePoint) int {
	score := 0

	if price, ok := finite(q.RegularMarketPrice); ok && len(history) >= MomentumWindow {
		base := history[len(history)-MomentumWindow].Close
		if base > 0 && !math.IsInf(base, 0) {
			change := (price - base) / base * 100
			score += above(change, priceMomentumBands, 0)
		}
	}

	current, okCurrent := finite(q.EPSCurrentYear)
	trailing, okTrailing := finite(q.EPSTrailingTwelveMonths)
	if okCurrent && okTrailing && trailing != 0 {
		growth := (current - trailing) / math.Abs(trailing) * 100
		score += above(growth, epsGrowthBands, 0)
	}

	return score
}

func healthScore(q models.QuoteSnapshot) int {
	score := 0

	price, okPrice := finite(q.RegularMarketPrice)
	book, okBook := finite(q.BookValue)
	if okPrice && okBook && book != 0 {
		score += below(price/book, priceToBookBands, priceToBookFloor)
	}

	if capValue, ok := finite(q.MarketCap); ok {
		score += above(capValue/1e9, marketCapBands, marketCapFloor)
	}

	return score
}

func profitabilityScore(q models.QuoteSnapshot) int {
	score := 0

	if eps, ok := finite(q.EPSTrailingTwelveMonths); ok {
		score += above(eps, trailingEPSBands, 0)
	}

	if rate, ok := finite(q.DividendRate); ok && rate > 0 {
		score += dividendBase
		if yield, ok := finite(q.DividendYield); ok {
			score += above(yield, dividendYieldBands, 0)
		}
	}

	return score
}

func momentumScore(q models.QuoteSnapshot) int {
	score := 0

	price, okPrice := finite(q.RegularMarketPrice)
	high, okHigh := finite(q.FiftyTwoWeekHigh)
	if okPrice && okHigh && high != 0 {
		score += above(price/high*100, fiftyTwoWeekBands, 0)
	}

	if change, ok := finite(q.RegularMarketChangePercent); ok {
		score += above(change, dailyChangeBands, 0)
	}

	return score
}

// finite dereferences an optional field, treating NaN and ±Inf as absent.
func finite(v *float64) (float64, bool) {
	if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) {
		return 0, false
	}
	return *v, true
}

func clamp(v, lo, hi int) int {
	return max(lo, min(hi, v))
}
