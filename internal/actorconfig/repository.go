package actorconfig

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/Simplici0/tradeassist/internal/catalog"
)

type row struct {
	ActorID          int64   `db:"actor_id"`
	ProfitPercent    float64 `db:"profit_percent"`
	LaborCostRate    float64 `db:"labor_cost_rate"`
	ByProducts       string  `db:"by_products_json"`
	FrozenSellPrices string  `db:"frozen_sell_prices_json"`
}

// Repository is the key-value store of actor configurations, keyed by actor id.
type Repository struct {
	db *sqlx.DB
}

// NewRepository wraps an open SQLite connection.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: sqlx.NewDb(db, "sqlite")}
}

// GetOrDefault returns the stored configuration of an actor, creating the
// default one on first access.
func (r *Repository) GetOrDefault(ctx context.Context, actorID int64) (Config, error) {
	var rw row
	err := r.db.GetContext(ctx, &rw, `
		SELECT actor_id, profit_percent, labor_cost_rate, by_products_json, frozen_sell_prices_json
		FROM actor_configs
		WHERE actor_id = ?
	`, actorID)
	if errors.Is(err, sql.ErrNoRows) {
		cfg := Default(actorID)
		if err := r.Save(ctx, cfg); err != nil {
			return Config{}, err
		}
		return cfg, nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("query actor config: %w", err)
	}

	cfg := Config{
		ActorID:       rw.ActorID,
		ProfitPercent: rw.ProfitPercent,
		LaborCostRate: rw.LaborCostRate,
	}
	if err := json.Unmarshal([]byte(rw.ByProducts), &cfg.ByProducts); err != nil {
		return Config{}, fmt.Errorf("decode by-products of actor %d: %w", actorID, err)
	}
	if err := json.Unmarshal([]byte(rw.FrozenSellPrices), &cfg.FrozenSellPrices); err != nil {
		return Config{}, fmt.Errorf("decode frozen sell prices of actor %d: %w", actorID, err)
	}
	return cfg.Normalize(), nil
}

// Save normalizes and stores cfg, replacing any previous configuration.
func (r *Repository) Save(ctx context.Context, cfg Config) error {
	return Upsert(ctx, r.db, cfg)
}

// Execer runs a statement. *sql.DB, *sql.Tx and *sqlx.DB satisfy it.
type Execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Upsert normalizes cfg and writes it through ex, so callers holding a
// transaction store configurations the same way the repository does.
func Upsert(ctx context.Context, ex Execer, cfg Config) error {
	cfg = cfg.Normalize()

	byProducts, err := encodeItems(cfg.ByProducts)
	if err != nil {
		return fmt.Errorf("encode by-products: %w", err)
	}
	frozen, err := encodeItems(cfg.FrozenSellPrices)
	if err != nil {
		return fmt.Errorf("encode frozen sell prices: %w", err)
	}

	if _, err := ex.ExecContext(ctx, `
		INSERT INTO actor_configs (actor_id, profit_percent, labor_cost_rate, by_products_json, frozen_sell_prices_json)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(actor_id) DO UPDATE SET
			profit_percent = excluded.profit_percent,
			labor_cost_rate = excluded.labor_cost_rate,
			by_products_json = excluded.by_products_json,
			frozen_sell_prices_json = excluded.frozen_sell_prices_json,
			updated_at = CURRENT_TIMESTAMP
	`, cfg.ActorID, cfg.ProfitPercent, cfg.LaborCostRate, byProducts, frozen); err != nil {
		return fmt.Errorf("upsert actor config: %w", err)
	}
	return nil
}

// encodeItems writes an item set as a JSON array, never null.
func encodeItems(items []catalog.ItemID) (string, error) {
	if items == nil {
		items = []catalog.ItemID{}
	}
	b, err := json.Marshal(items)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
