package seed

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/Simplici0/tradeassist/internal/actorconfig"
	"github.com/Simplici0/tradeassist/internal/db"
	"github.com/Simplici0/tradeassist/internal/migrations"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "seed-test.db")
	database, err := db.Open(dbPath)
	if err != nil {
		t.Fatalf("open sqlite database: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	if err := migrations.Up(database); err != nil {
		t.Fatalf("run migrations: %v", err)
	}
	return database
}

func TestRunIsIdempotent(t *testing.T) {
	database := openTestDB(t)

	cfg := Config{ActorID: 1, Currency: "Credits", SalesTax: 0.05}

	for i := 0; i < 10; i++ {
		stats, err := Run(database, cfg)
		if err != nil {
			t.Fatalf("run seed (iteration=%d): %v", i, err)
		}
		if i == 0 {
			if stats.Inserts != 3 {
				t.Fatalf("expected 3 inserts in first run, got %d", stats.Inserts)
			}
			continue
		}
		if stats.Inserts != 0 || stats.Updates != 0 {
			t.Fatalf("expected no writes in iteration %d, got %+v", i, stats)
		}
	}

	assertCount(t, database, `SELECT COUNT(*) FROM sales_taxes WHERE currency = ?`, "Credits", 1)
	assertCount(t, database, `SELECT COUNT(*) FROM actor_configs WHERE actor_id = ?`, 1, 1)
	assertCount(t, database, `SELECT COUNT(*) FROM stores WHERE actor_id = ? AND name = ?`, []any{1, "Demo store"}, 1)

	var rate float64
	if err := database.QueryRow(`SELECT rate FROM sales_taxes WHERE currency = ?`, "Credits").Scan(&rate); err != nil {
		t.Fatalf("query sales tax: %v", err)
	}
	if rate != 0.05 {
		t.Fatalf("expected seeded rate 0.05, got %v", rate)
	}
}

func TestRunUpdatesDemoStoreCurrency(t *testing.T) {
	database := openTestDB(t)

	if _, err := Run(database, Config{ActorID: 2}); err != nil {
		t.Fatalf("first seed: %v", err)
	}
	stats, err := Run(database, Config{ActorID: 2, Currency: "Gold"})
	if err != nil {
		t.Fatalf("second seed: %v", err)
	}
	if stats.Updates != 1 {
		t.Fatalf("expected the store currency to be updated, got %+v", stats)
	}

	assertCount(t, database, `SELECT COUNT(*) FROM stores WHERE actor_id = ? AND currency = ?`, []any{2, "Gold"}, 1)
}

func assertCount(t *testing.T, database *sql.DB, query string, args any, expected int) {
	t.Helper()

	var count int
	var err error
	switch v := args.(type) {
	case nil:
		err = database.QueryRow(query).Scan(&count)
	case []any:
		err = database.QueryRow(query, v...).Scan(&count)
	default:
		err = database.QueryRow(query, v).Scan(&count)
	}
	if err != nil {
		t.Fatalf("count query failed: %v", err)
	}
	if count != expected {
		t.Fatalf("expected count %d, got %d", expected, count)
	}
}

func TestRunSeedsDefaultActorConfig(t *testing.T) {
	database := openTestDB(t)

	if _, err := Run(database, Config{ActorID: 4}); err != nil {
		t.Fatalf("run seed: %v", err)
	}

	cfg, err := actorconfig.NewRepository(database).GetOrDefault(context.Background(), 4)
	if err != nil {
		t.Fatalf("GetOrDefault: %v", err)
	}
	want := actorconfig.Default(4)
	if cfg.ProfitPercent != want.ProfitPercent || cfg.LaborCostRate != want.LaborCostRate {
		t.Fatalf("unexpected seeded config: %+v", cfg)
	}

	var byProducts string
	if err := database.QueryRow(`SELECT by_products_json FROM actor_configs WHERE actor_id = ?`, 4).Scan(&byProducts); err != nil {
		t.Fatalf("query by-products: %v", err)
	}
	if byProducts != "[]" {
		t.Fatalf("expected an empty JSON array, got %q", byProducts)
	}
}
