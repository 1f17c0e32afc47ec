package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PurchaseDateLayout is the calendar date format used for purchase dates.
const PurchaseDateLayout = "2006-01-02"

// Holding is a lot of shares owned by a user.
type Holding struct {
	ID            uuid.UUID       `json:"id"`
	OwnerID       string          `json:"owner_id"`
	Symbol        string          `json:"symbol"`
	Quantity      decimal.Decimal `json:"quantity"`
	PurchasePrice decimal.Decimal `json:"purchase_price"`
	PurchaseDate  string          `json:"purchase_date"`
	CreatedAt     time.Time       `json:"created_at"`
}

// NewHolding creates a holding with a fresh ID and creation time.
func NewHolding(ownerID, symbol string, quantity, price decimal.Decimal, purchaseDate string) *Holding {
	return &Holding{
		ID:            uuid.New(),
		OwnerID:       ownerID,
		Symbol:        symbol,
		Quantity:      quantity,
		PurchasePrice: price,
		PurchaseDate:  purchaseDate,
		CreatedAt:     time.Now().UTC(),
	}
}

// CostBasis is quantity times purchase price.
func (h *Holding) CostBasis() decimal.Decimal {
	return h.Quantity.Mul(h.PurchasePrice)
}

// HoldingValuation is a holding joined against a fresh price.
type HoldingValuation struct {
	Holding
	CurrentPrice decimal.Decimal `json:"current_price"`
	CurrentValue decimal.Decimal `json:"current_value"`
	CostBasis    decimal.Decimal `json:"cost_basis"`
	Gain         decimal.Decimal `json:"gain"`
	GainPercent  decimal.Decimal `json:"gain_percent"`
	// PriceStale is set when the quote could not be fetched and the
	// purchase price was used instead.
	PriceStale bool `json:"price_stale"`
}

// WatchlistSummary aggregates a set of valuations.
type WatchlistSummary struct {
	TotalValue       decimal.Decimal `json:"total_value"`
	TotalInvested    decimal.Decimal `json:"total_invested"`
	TotalGain        decimal.Decimal `json:"total_gain"`
	TotalGainPercent decimal.Decimal `json:"total_gain_percent"`
}

// Watchlist is an owner's valued holdings plus totals.
type Watchlist struct {
	OwnerID  string             `json:"owner_id"`
	Holdings []HoldingValuation `json:"holdings"`
	Summary  WatchlistSummary   `json:"summary"`
}
