package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"stockup/observability"

	"github.com/jackc/pgx/v5"
)

// GetCachedData returns the raw JSON cached for a symbol and data type,
// or nil when there is no unexpired entry.
func (r *Repository) GetCachedData(ctx context.Context, symbol, dataType string) ([]byte, error) {
	if err := r.checkDB(); err != nil {
		return nil, err
	}

	metrics := observability.GetMetrics()
	timer := metrics.NewTimer()
	defer timer.ObserveDB("select", "market_data_cache")

	var data []byte

	// Let the database handle expiry check to avoid timezone issues
	err := r.db.QueryRow(ctx, `
		SELECT data FROM market_data_cache
		WHERE symbol = $1 AND data_type = $2 AND expires_at > NOW()
	`, symbol, dataType).Scan(&data)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		metrics.RecordDBError("select", "market_data_cache")
		return nil, fmt.Errorf("failed to query cache: %w", err)
	}

	return data, nil
}

// SetCachedData stores a JSON document in the cache with a TTL
func (r *Repository) SetCachedData(ctx context.Context, symbol, dataType string, data []byte, ttl time.Duration) error {
	if err := r.checkDB(); err != nil {
		return err
	}
	if !json.Valid(data) {
		return fmt.Errorf("failed to set cache: payload for %s/%s is not valid JSON", symbol, dataType)
	}

	metrics := observability.GetMetrics()
	timer := metrics.NewTimer()
	defer timer.ObserveDB("upsert", "market_data_cache")

	_, err := r.db.Exec(ctx, `
		INSERT INTO market_data_cache (symbol, data_type, data, expires_at)
		VALUES ($1, $2, $3::jsonb, NOW() + make_interval(secs => $4))
		ON CONFLICT (symbol, data_type)
		DO UPDATE SET data = EXCLUDED.data, expires_at = EXCLUDED.expires_at, created_at = NOW()
	`, symbol, dataType, string(data), ttl.Seconds())

	if err != nil {
		metrics.RecordDBError("upsert", "market_data_cache")
		return fmt.Errorf("failed to set cache: %w", err)
	}

	return nil
}

// InvalidateCache removes cached data for a symbol and data type
func (r *Repository) InvalidateCache(ctx context.Context, symbol, dataType string) error {
	if err := r.checkDB(); err != nil {
		return err
	}

	_, err := r.db.Exec(ctx, `
		DELETE FROM market_data_cache WHERE symbol = $1 AND data_type = $2
	`, symbol, dataType)

	if err != nil {
		observability.GetMetrics().RecordDBError("delete", "market_data_cache")
		return fmt.Errorf("failed to invalidate cache: %w", err)
	}

	return nil
}

// CleanExpiredCache removes all expired cache entries
func (r *Repository) CleanExpiredCache(ctx context.Context) (int64, error) {
	if err := r.checkDB(); err != nil {
		return 0, err
	}

	result, err := r.db.Exec(ctx, `DELETE FROM market_data_cache WHERE expires_at < NOW()`)
	if err != nil {
		observability.GetMetrics().RecordDBError("delete", "market_data_cache")
		return 0, fmt.Errorf("failed to clean expired cache: %w", err)
	}
	return result.RowsAffected(), nil
}
