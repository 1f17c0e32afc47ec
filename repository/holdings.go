package repository

import (
	"context"
	"errors"
	"fmt"

	"stockup/models"
	"stockup/observability"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const holdingColumns = `id, owner_id, symbol, quantity, purchase_price, purchase_date::text, created_at`

// ListHoldings returns every holding of an owner, oldest first
func (r *Repository) ListHoldings(ctx context.Context, ownerID string) ([]models.Holding, error) {
	if err := r.checkDB(); err != nil {
		return nil, err
	}

	metrics := observability.GetMetrics()
	timer := metrics.NewTimer()
	defer timer.ObserveDB("select", "holdings")

	rows, err := r.db.Query(ctx, `
		SELECT `+holdingColumns+`
		FROM holdings
		WHERE owner_id = $1
		ORDER BY created_at, id
	`, ownerID)
	if err != nil {
		metrics.RecordDBError("select", "holdings")
		return nil, fmt.Errorf("failed to query holdings: %w", err)
	}
	defer rows.Close()

	holdings := []models.Holding{}
	for rows.Next() {
		var h models.Holding
		if err := rows.Scan(&h.ID, &h.OwnerID, &h.Symbol, &h.Quantity, &h.PurchasePrice, &h.PurchaseDate, &h.CreatedAt); err != nil {
			metrics.RecordDBError("select", "holdings")
			return nil, fmt.Errorf("failed to scan holding: %w", err)
		}
		holdings = append(holdings, h)
	}
	if err := rows.Err(); err != nil {
		metrics.RecordDBError("select", "holdings")
		return nil, fmt.Errorf("failed to iterate holdings: %w", err)
	}

	return holdings, nil
}

// GetHolding returns a single holding owned by ownerID, or nil if there is none
func (r *Repository) GetHolding(ctx context.Context, ownerID string, id uuid.UUID) (*models.Holding, error) {
	if err := r.checkDB(); err != nil {
		return nil, err
	}

	metrics := observability.GetMetrics()
	timer := metrics.NewTimer()
	defer timer.ObserveDB("select", "holdings")

	var h models.Holding
	err := r.db.QueryRow(ctx, `
		SELECT `+holdingColumns+`
		FROM holdings WHERE owner_id = $1 AND id = $2
	`, ownerID, id).Scan(&h.ID, &h.OwnerID, &h.Symbol, &h.Quantity, &h.PurchasePrice, &h.PurchaseDate, &h.CreatedAt)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		metrics.RecordDBError("select", "holdings")
		return nil, fmt.Errorf("failed to query holding: %w", err)
	}

	return &h, nil
}

// CreateHolding inserts a new holding
func (r *Repository) CreateHolding(ctx context.Context, h *models.Holding) error {
	if err := r.checkDB(); err != nil {
		return err
	}

	metrics := observability.GetMetrics()
	timer := metrics.NewTimer()
	defer timer.ObserveDB("insert", "holdings")

	_, err := r.db.Exec(ctx, `
		INSERT INTO holdings (id, owner_id, symbol, quantity, purchase_price, purchase_date, created_at)
		VALUES ($1, $2, $3, $4, $5, $6::date, $7)
	`, h.ID, h.OwnerID, h.Symbol, h.Quantity, h.PurchasePrice, h.PurchaseDate, h.CreatedAt)

	if err != nil {
		metrics.RecordDBError("insert", "holdings")
		return fmt.Errorf("failed to create holding: %w", err)
	}

	return nil
}

// DeleteHolding removes a holding owned by ownerID and reports whether a row was deleted.
// A holding belonging to another owner is treated as absent.
func (r *Repository) DeleteHolding(ctx context.Context, ownerID string, id uuid.UUID) (bool, error) {
	if err := r.checkDB(); err != nil {
		return false, err
	}

	var deleted *models.Holding
	err := r.inTx(ctx, func(tx *Repository) error {
		h, err := tx.GetHolding(ctx, ownerID, id)
		if err != nil || h == nil {
			return err
		}

		metrics := observability.GetMetrics()
		timer := metrics.NewTimer()
		defer timer.ObserveDB("delete", "holdings")

		if _, err := tx.db.Exec(ctx, `DELETE FROM holdings WHERE owner_id = $1 AND id = $2`, ownerID, id); err != nil {
			metrics.RecordDBError("delete", "holdings")
			return fmt.Errorf("failed to delete holding: %w", err)
		}
		deleted = h
		return nil
	})
	if err != nil {
		return false, err
	}
	if deleted == nil {
		return false, nil
	}

	observability.WithSymbol(deleted.Symbol).Debug("holding deleted", "holding_id", id)
	return true, nil
}
