package seed

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Simplici0/tradeassist/internal/actorconfig"
)

const (
	defaultStoreName = "Demo store"
	defaultCurrency  = "Credits"
)

// Config contains the values required by startup seed.
type Config struct {
	ActorID   int64
	StoreName string
	Currency  string
	SalesTax  float64
}

// Stats contains seed operation counters.
type Stats struct {
	Inserts int
	Updates int
}

// Run executes the startup seed in an idempotent way.
func Run(db *sql.DB, cfg Config) (Stats, error) {
	if cfg.StoreName == "" {
		cfg.StoreName = defaultStoreName
	}
	if cfg.Currency == "" {
		cfg.Currency = defaultCurrency
	}

	tx, err := db.Begin()
	if err != nil {
		return Stats{}, fmt.Errorf("begin seed transaction: %w", err)
	}

	stats := Stats{}

	if err := ensureSalesTax(tx, cfg.Currency, cfg.SalesTax, &stats); err != nil {
		_ = tx.Rollback()
		return Stats{}, err
	}
	if err := ensureActorConfig(tx, cfg.ActorID, &stats); err != nil {
		_ = tx.Rollback()
		return Stats{}, err
	}
	if err := ensureStore(tx, cfg, &stats); err != nil {
		_ = tx.Rollback()
		return Stats{}, err
	}

	if err := tx.Commit(); err != nil {
		return Stats{}, fmt.Errorf("commit seed transaction: %w", err)
	}

	return stats, nil
}

func ensureSalesTax(tx *sql.Tx, currency string, rate float64, stats *Stats) error {
	var exists bool
	if err := tx.QueryRow(`SELECT EXISTS(SELECT 1 FROM sales_taxes WHERE currency = ?)`, currency).Scan(&exists); err != nil {
		return fmt.Errorf("check sales tax existence: %w", err)
	}
	if exists {
		return nil
	}

	if _, err := tx.Exec(`INSERT INTO sales_taxes (currency, rate) VALUES (?, ?)`, currency, rate); err != nil {
		return fmt.Errorf("insert sales tax: %w", err)
	}
	stats.Inserts++
	return nil
}

func ensureActorConfig(tx *sql.Tx, actorID int64, stats *Stats) error {
	var exists bool
	if err := tx.QueryRow(`SELECT EXISTS(SELECT 1 FROM actor_configs WHERE actor_id = ?)`, actorID).Scan(&exists); err != nil {
		return fmt.Errorf("check actor config existence: %w", err)
	}
	if exists {
		return nil
	}

	if err := actorconfig.Upsert(context.Background(), tx, actorconfig.Default(actorID)); err != nil {
		return fmt.Errorf("insert actor config: %w", err)
	}
	stats.Inserts++
	return nil
}

func ensureStore(tx *sql.Tx, cfg Config, stats *Stats) error {
	var currency string
	err := tx.QueryRow(`SELECT currency FROM stores WHERE actor_id = ? AND name = ? LIMIT 1`, cfg.ActorID, cfg.StoreName).Scan(&currency)
	if err == nil {
		if currency == cfg.Currency {
			return nil
		}
		if _, err := tx.Exec(`
			UPDATE stores
			SET currency = ?, updated_at = CURRENT_TIMESTAMP
			WHERE actor_id = ? AND name = ?
		`, cfg.Currency, cfg.ActorID, cfg.StoreName); err != nil {
			return fmt.Errorf("update demo store currency: %w", err)
		}
		stats.Updates++
		return nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("check demo store existence: %w", err)
	}

	if _, err := tx.Exec(`
		INSERT INTO stores (name, actor_id, currency)
		VALUES (?, ?, ?)
	`, cfg.StoreName, cfg.ActorID, cfg.Currency); err != nil {
		return fmt.Errorf("insert demo store: %w", err)
	}
	stats.Inserts++
	return nil
}
