package repository

import (
	"context"
	"time"

	"stockup/models"

	"github.com/google/uuid"
)

// RepositoryInterface defines all repository operations
type RepositoryInterface interface {
	// Health and lifecycle
	Close()
	Health(ctx context.Context) error
	EnsureSchema(ctx context.Context) error

	// Holdings
	ListHoldings(ctx context.Context, ownerID string) ([]models.Holding, error)
	GetHolding(ctx context.Context, ownerID string, id uuid.UUID) (*models.Holding, error)
	CreateHolding(ctx context.Context, h *models.Holding) error
	DeleteHolding(ctx context.Context, ownerID string, id uuid.UUID) (bool, error)

	// Cache
	GetCachedData(ctx context.Context, symbol, dataType string) ([]byte, error)
	SetCachedData(ctx context.Context, symbol, dataType string, data []byte, ttl time.Duration) error
	InvalidateCache(ctx context.Context, symbol, dataType string) error
	CleanExpiredCache(ctx context.Context) (int64, error)
}

// Compile-time interface verification
var _ RepositoryInterface = (*Repository)(nil)
