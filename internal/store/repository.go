package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// ErrNotFound is returned when a store does not exist.
var ErrNotFound = errors.New("store not found")

// Repository persists stores, their orders and per-currency sales taxes.
type Repository struct {
	db *sqlx.DB
}

// NewRepository wraps an open SQLite connection.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: sqlx.NewDb(db, "sqlite")}
}

// Create inserts a store and sets its ID.
func (r *Repository) Create(ctx context.Context, s *Store) error {
	if s.Currency == "" {
		s.Currency = "Credits"
	}
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO stores (name, actor_id, currency)
		VALUES (?, ?, ?)
	`, s.Name, s.ActorID, s.Currency)
	if err != nil {
		return fmt.Errorf("insert store: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("read store id: %w", err)
	}
	s.ID = id
	return nil
}

// Load reads a store and all of its orders.
func (r *Repository) Load(ctx context.Context, storeID int64) (*Store, error) {
	var s Store
	err := r.db.GetContext(ctx, &s, `
		SELECT id, name, actor_id, currency
		FROM stores
		WHERE id = ?
	`, storeID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %d", ErrNotFound, storeID)
		}
		return nil, fmt.Errorf("query store: %w", err)
	}

	var orders []*Order
	if err := r.db.SelectContext(ctx, &orders, `
		SELECT id, store_id, side, item_id, price, quantity_limit, category
		FROM orders
		WHERE store_id = ?
		ORDER BY id
	`, storeID); err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}
	for _, o := range orders {
		if o.Side == Buy {
			s.BuyOrders = append(s.BuyOrders, o)
		} else {
			s.SellOrders = append(s.SellOrders, o)
		}
	}

	return &s, nil
}

// ListByActor returns the stores owned by an actor, without orders.
func (r *Repository) ListByActor(ctx context.Context, actorID int64) ([]Store, error) {
	stores := make([]Store, 0)
	if err := r.db.SelectContext(ctx, &stores, `
		SELECT id, name, actor_id, currency
		FROM stores
		WHERE actor_id = ?
		ORDER BY id
	`, actorID); err != nil {
		return nil, fmt.Errorf("query stores: %w", err)
	}
	return stores, nil
}

// Save writes the prices of existing orders and inserts orders that have no
// ID yet, in one transaction.
func (r *Repository) Save(ctx context.Context, s *Store) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save transaction: %w", err)
	}

	for _, side := range []Side{Buy, Sell} {
		for _, o := range s.Orders(side) {
			if err := saveOrder(ctx, tx, s.ID, o); err != nil {
				_ = tx.Rollback()
				return err
			}
		}
	}

	if _, err := tx.ExecContext(ctx, `UPDATE stores SET updated_at = CURRENT_TIMESTAMP WHERE id = ?`, s.ID); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("touch store: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit save transaction: %w", err)
	}
	return nil
}

func saveOrder(ctx context.Context, tx *sqlx.Tx, storeID int64, o *Order) error {
	o.StoreID = storeID
	if o.ID != 0 {
		if _, err := tx.ExecContext(ctx, `
			UPDATE orders
			SET price = ?, quantity_limit = ?, updated_at = CURRENT_TIMESTAMP
			WHERE id = ? AND store_id = ?
		`, o.Price, o.Limit, o.ID, storeID); err != nil {
			return fmt.Errorf("update order %d: %w", o.ID, err)
		}
		return nil
	}

	res, err := tx.ExecContext(ctx, `
		INSERT INTO orders (store_id, side, item_id, price, quantity_limit, category)
		VALUES (?, ?, ?, ?, ?, ?)
	`, storeID, o.Side, o.ItemID, o.Price, o.Limit, o.Category)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("read order id: %w", err)
	}
	o.ID = id
	return nil
}

// SalesTax returns the sales tax rate of a currency, 0 when none is set.
func (r *Repository) SalesTax(ctx context.Context, currency string) (float64, error) {
	var rate float64
	err := r.db.GetContext(ctx, &rate, `SELECT rate FROM sales_taxes WHERE currency = ?`, currency)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("query sales tax: %w", err)
	}
	return rate, nil
}

// SetSalesTax creates or replaces the sales tax rate of a currency.
func (r *Repository) SetSalesTax(ctx context.Context, currency string, rate float64) error {
	if _, err := r.db.ExecContext(ctx, `
		INSERT INTO sales_taxes (currency, rate)
		VALUES (?, ?)
		ON CONFLICT(currency) DO UPDATE SET rate = excluded.rate, updated_at = CURRENT_TIMESTAMP
	`, currency, rate); err != nil {
		return fmt.Errorf("upsert sales tax: %w", err)
	}
	return nil
}
