package repository

import (
	"context"
	"fmt"
)

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS holdings (
		id             UUID PRIMARY KEY,
		owner_id       TEXT NOT NULL,
		symbol         VARCHAR(12) NOT NULL,
		quantity       NUMERIC(20, 8) NOT NULL CHECK (quantity > 0),
		purchase_price NUMERIC(20, 8) NOT NULL CHECK (purchase_price > 0),
		purchase_date  DATE NOT NULL,
		created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_holdings_owner_created
		ON holdings (owner_id, created_at)`,
	`CREATE TABLE IF NOT EXISTS market_data_cache (
		symbol     VARCHAR(12) NOT NULL,
		data_type  VARCHAR(64) NOT NULL,
		data       JSONB NOT NULL,
		expires_at TIMESTAMPTZ NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		PRIMARY KEY (symbol, data_type)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_market_data_cache_expires
		ON market_data_cache (expires_at)`,
}

// EnsureSchema creates the tables the service needs if they do not exist.
// It is safe to run on every start.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	if err := r.checkDB(); err != nil {
		return err
	}
	for _, stmt := range schemaStatements {
		if _, err := r.db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	return nil
}
