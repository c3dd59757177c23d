package db

import (
	"os"
	"path/filepath"
	"testing"
)

func writeMigration(t *testing.T, dir, name, sql string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(sql), 0o644); err != nil {
		t.Fatalf("write migration file: %v", err)
	}
}

func TestLoadMigrations_SortsByVersion(t *testing.T) {
	dir := t.TempDir()
	writeMigration(t, dir, "010_later.sql", "SELECT 10")
	writeMigration(t, dir, "001_schema.sql", "SELECT 1")
	writeMigration(t, dir, "002_indexes.sql", "SELECT 2")

	m := NewMigrator(nil, dir)
	migs, err := m.LoadMigrations()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(migs) != 3 {
		t.Fatalf("expected 3 migrations, got %d", len(migs))
	}
	for i, want := range []int{1, 2, 10} {
		if migs[i].Version != want {
			t.Errorf("migration %d: expected version %d, got %d", i, want, migs[i].Version)
		}
	}
}

func TestLoadMigrations_SkipsNonNumeric(t *testing.T) {
	dir := t.TempDir()
	writeMigration(t, dir, "001_schema.sql", "SELECT 1")
	writeMigration(t, dir, "notes.sql", "SELECT 0")
	writeMigration(t, dir, "README.md", "docs")

	m := NewMigrator(nil, dir)
	migs, err := m.LoadMigrations()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(migs) != 1 {
		t.Fatalf("expected 1 migration, got %d", len(migs))
	}
	if migs[0].Name != "001_schema.sql" {
		t.Errorf("unexpected migration: %s", migs[0].Name)
	}
}

func TestLoadMigrations_MissingDir(t *testing.T) {
	m := NewMigrator(nil, "/nonexistent/migrations")
	if _, err := m.LoadMigrations(); err == nil {
		t.Error("expected error for missing directory")
	}
}
