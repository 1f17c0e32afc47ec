package app

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"stockup/models"
	"stockup/narrative"
)

type mockMarket struct {
	mock.Mock
}

func (m *mockMarket) GetQuote(ctx context.Context, symbol string) (*models.QuoteSnapshot, error) {
	args := m.Called(ctx, symbol)
	q, _ := args.Get(0).(*models.QuoteSnapshot)
	return q, args.Error(1)
}

func (m *mockMarket) GetHistory(ctx context.Context, symbol string, start, end time.Time, interval string) ([]models.PricePoint, error) {
	args := m.Called(ctx, symbol, start, end, interval)
	h, _ := args.Get(0).([]models.PricePoint)
	return h, args.Error(1)
}

type mockNarrator struct {
	mock.Mock
}

func (m *mockNarrator) Provider() string {
	return "mock"
}

func (m *mockNarrator) Analyze(ctx context.Context, quote *models.QuoteSnapshot) (*narrative.Analysis, error) {
	args := m.Called(ctx, quote)
	a, _ := args.Get(0).(*narrative.Analysis)
	return a, args.Error(1)
}

type mockStore struct {
	mock.Mock
}

func (m *mockStore) Close() {}

func (m *mockStore) Health(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *mockStore) ListHoldings(ctx context.Context, ownerID string) ([]models.Holding, error) {
	args := m.Called(ctx, ownerID)
	h, _ := args.Get(0).([]models.Holding)
	return h, args.Error(1)
}

func (m *mockStore) CreateHolding(ctx context.Context, h *models.Holding) error {
	return m.Called(ctx, h).Error(0)
}

func (m *mockStore) DeleteHolding(ctx context.Context, ownerID string, id uuid.UUID) (bool, error) {
	args := m.Called(ctx, ownerID, id)
	return args.Bool(0), args.Error(1)
}
