// Package watchlist values holdings against current prices.
package watchlist

import (
	"github.com/shopspring/decimal"

	"stockup/models"
)

var hundred = decimal.NewFromInt(100)

// Valuate joins a holding with its current price. When ok is false the
// purchase price stands in, the gain is zero and the valuation is marked stale.
func Valuate(h models.Holding, price float64, ok bool) models.HoldingValuation {
	cost := h.CostBasis()

	if !ok || price <= 0 {
		return models.HoldingValuation{
			Holding:      h,
			CurrentPrice: h.PurchasePrice,
			CurrentValue: cost,
			CostBasis:    cost,
			Gain:         decimal.Zero,
			GainPercent:  decimal.Zero,
			PriceStale:   true,
		}
	}

	current := decimal.NewFromFloat(price)
	value := h.Quantity.Mul(current)
	gain := value.Sub(cost)

	return models.HoldingValuation{
		Holding:      h,
		CurrentPrice: current,
		CurrentValue: value,
		CostBasis:    cost,
		Gain:         gain,
		GainPercent:  percentOf(gain, cost),
	}
}

// Summarize totals a set of valuations.
func Summarize(valuations []models.HoldingValuation) models.WatchlistSummary {
	var s models.WatchlistSummary
	for _, v := range valuations {
		s.TotalValue = s.TotalValue.Add(v.CurrentValue)
		s.TotalInvested = s.TotalInvested.Add(v.CostBasis)
		s.TotalGain = s.TotalGain.Add(v.Gain)
	}
	s.TotalGainPercent = percentOf(s.TotalGain, s.TotalInvested)
	return s
}

// percentOf is part/whole*100 rounded to two places, zero when whole is not positive
func percentOf(part, whole decimal.Decimal) decimal.Decimal {
	if !whole.IsPositive() {
		return decimal.Zero
	}
	return part.Div(whole).Mul(hundred).Round(2)
}
