package models

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestHolding_CostBasis(t *testing.T) {
	tests := []struct {
		name    string
		holding Holding
		want    decimal.Decimal
	}{
		{
			name: "whole shares",
			holding: Holding{
				Quantity:      decimal.NewFromInt(10),
				PurchasePrice: decimal.NewFromFloat(150.25),
			},
			want: decimal.NewFromFloat(1502.5),
		},
		{
			name: "fractional shares",
			holding: Holding{
				Quantity:      decimal.NewFromFloat(0.5),
				PurchasePrice: decimal.NewFromInt(200),
			},
			want: decimal.NewFromInt(100),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.holding.CostBasis()
			if !got.Equal(tt.want) {
				t.Errorf("CostBasis() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNewHolding(t *testing.T) {
	h := NewHolding("user-1", "AAPL", decimal.NewFromInt(3), decimal.NewFromInt(100), "2024-01-02")

	if h.ID.String() == "" {
		t.Error("expected ID to be set")
	}
	if h.OwnerID != "user-1" || h.Symbol != "AAPL" {
		t.Errorf("unexpected owner/symbol: %s/%s", h.OwnerID, h.Symbol)
	}
	if h.CreatedAt.IsZero() {
		t.Error("expected CreatedAt to be set")
	}
	if time.Since(h.CreatedAt) > time.Minute {
		t.Errorf("CreatedAt too old: %v", h.CreatedAt)
	}
}

func TestQuoteSnapshot_Name(t *testing.T) {
	q := QuoteSnapshot{Symbol: "MSFT"}
	if q.Name() != "MSFT" {
		t.Errorf("Name() = %q, want MSFT", q.Name())
	}
	q.DisplayName = "Microsoft Corporation"
	if q.Name() != "Microsoft Corporation" {
		t.Errorf("Name() = %q, want display name", q.Name())
	}
}

func TestQuoteSnapshot_Price(t *testing.T) {
	var nilQuote *QuoteSnapshot
	if _, ok := nilQuote.Price(); ok {
		t.Error("nil quote should report no price")
	}

	q := &QuoteSnapshot{Symbol: "X"}
	if _, ok := q.Price(); ok {
		t.Error("missing price should report not ok")
	}

	q.RegularMarketPrice = Float64(42.5)
	p, ok := q.Price()
	if !ok || p != 42.5 {
		t.Errorf("Price() = %v, %v; want 42.5, true", p, ok)
	}
}

func TestCloses(t *testing.T) {
	history := []PricePoint{
		{Date: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), Close: 1},
		{Date: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), Close: 2},
	}
	closes := Closes(history)
	if len(closes) != 2 || closes[0] != 1 || closes[1] != 2 {
		t.Errorf("Closes() = %v", closes)
	}
	if got := Closes(nil); len(got) != 0 {
		t.Errorf("Closes(nil) = %v, want empty", got)
	}
}

func TestScoreColor_CSSClass(t *testing.T) {
	tests := []struct {
		color ScoreColor
		want  string
	}{
		{ScoreColorGreen, "text-green-600"},
		{ScoreColorBlue, "text-blue-600"},
		{ScoreColorYellow, "text-yellow-600"},
		{ScoreColorOrange, "text-orange-600"},
		{ScoreColorRed, "text-red-600"},
		{ScoreColor("unknown"), "text-red-600"},
	}
	for _, tt := range tests {
		t.Run(string(tt.color), func(t *testing.T) {
			if got := tt.color.CSSClass(); got != tt.want {
				t.Errorf("CSSClass() = %q, want %q", got, tt.want)
			}
		})
	}
}
