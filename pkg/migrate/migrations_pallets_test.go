package migrate_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestPalletMigrationContainsLaneConstraints(t *testing.T) {
	matches, err := filepath.Glob(filepath.Join("migrations", "*_create_pallets.sql"))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no pallet migration file found")
	}

	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	content := string(data)

	checks := []string{
		"CREATE TABLE IF NOT EXISTS pallets",
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_pallets_lane ON pallets (pickup_zone_id, delivery_zone_id)",
		"complete_notified_at timestamptz",
		"CHECK (bottle_capacity > 0)",
		"DROP TABLE IF EXISTS pallets",
	}
	for _, check := range checks {
		if !strings.Contains(content, check) {
			t.Fatalf("pallet migration missing %q", check)
		}
	}
}

func TestMigrationDirValidates(t *testing.T) {
	entries, err := os.ReadDir("migrations")
	if err != nil {
		t.Fatalf("read migrations dir: %v", err)
	}
	if len(entries) == 0 {
		t.Fatal("expected committed migrations")
	}
	for _, e := range entries {
		name := e.Name()
		if !strings.HasSuffix(name, ".sql") {
			continue
		}
		data, err := os.ReadFile(filepath.Join("migrations", name))
		if err != nil {
			t.Fatalf("read %s: %v", name, err)
		}
		if !strings.Contains(string(data), "-- +goose Up") || !strings.Contains(string(data), "-- +goose Down") {
			t.Fatalf("migration %s missing goose headers", name)
		}
	}
}
