package models

import "time"

// StockView is everything the dashboard shows for a single ticker.
type StockView struct {
	Quote   *QuoteSnapshot `json:"quote"`
	History []PricePoint   `json:"history"`
	Score   ScoreReport    `json:"score"`
	Trend   *TrendReport   `json:"trend,omitempty"`
}

// Insight is an AI-generated pros/cons analysis of a stock.
type Insight struct {
	Symbol      string         `json:"symbol"`
	Quote       *QuoteSnapshot `json:"stock"`
	Analysis    string         `json:"analysis"`
	Pros        []string       `json:"pros"`
	Cons        []string       `json:"cons"`
	Score       ScoreReport    `json:"score"`
	Provider    string         `json:"provider"`
	GeneratedAt time.Time      `json:"generated_at"`
}
