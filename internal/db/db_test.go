package db

import (
	"path/filepath"
	"testing"
)

func TestOpenCreatesDirectoryAndEnablesForeignKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "data", "prices.db")

	database, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer database.Close()

	var enabled int
	if err := database.QueryRow(`PRAGMA foreign_keys`).Scan(&enabled); err != nil {
		t.Fatalf("query pragma: %v", err)
	}
	if enabled != 1 {
		t.Fatalf("expected foreign keys to be enabled, got %d", enabled)
	}
	if got := database.Stats().MaxOpenConnections; got != 1 {
		t.Fatalf("expected a single connection, got %d", got)
	}
}
