package db

import (
	"context"
	"database/sql"
	"log"

	storeconfigdom "threadline/internal/domain/storeconfig"
)

// StoreConfigRepositoryPG implements storeconfig.Gate with PostgreSQL.
//
// store_settings holds a single row keyed 'default'. A missing row or a
// read failure falls back to storeconfig.FailOpenPurchasing so a settings
// outage never blocks shoppers.
type StoreConfigRepositoryPG struct {
	DB *sql.DB
}

func NewStoreConfigRepositoryPG(db *sql.DB) *StoreConfigRepositoryPG {
	return &StoreConfigRepositoryPG{DB: db}
}

func (r *StoreConfigRepositoryPG) PurchasingEnabled(ctx context.Context) bool {
	const q = `SELECT purchases_enabled FROM store_settings WHERE id = 'default'`

	var enabled sql.NullBool
	err := r.DB.QueryRowContext(ctx, q).Scan(&enabled)
	if err != nil {
		if err != sql.ErrNoRows {
			log.Printf("[storeconfig_pg] read failed, falling back open=%v: %v", storeconfigdom.FailOpenPurchasing, err)
		}
		return storeconfigdom.FailOpenPurchasing
	}
	if !enabled.Valid {
		return storeconfigdom.FailOpenPurchasing
	}
	return enabled.Bool
}
