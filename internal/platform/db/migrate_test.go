package db

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMigrationsOrdersByVersion(t *testing.T) {
	dir := t.TempDir()
	files := map[string]string{
		"0002_documents.sql": "CREATE TABLE documents (id UUID PRIMARY KEY);",
		"0001_init.sql":      "CREATE TABLE clinics (id UUID PRIMARY KEY);",
		"notes.txt":          "ignore me",
		"README.sql":         "-- no numeric prefix, skipped",
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	m := NewMigrator(nil, dir)
	migrations, err := m.LoadMigrations()
	if err != nil {
		t.Fatalf("load migrations: %v", err)
	}

	if len(migrations) != 2 {
		t.Fatalf("expected 2 migrations, got %d", len(migrations))
	}
	if migrations[0].Version != 1 || migrations[1].Version != 2 {
		t.Errorf("wrong order: %v, %v", migrations[0].Name, migrations[1].Name)
	}
	if migrations[0].SQL == "" {
		t.Error("migration SQL not loaded")
	}
}

func TestLoadMigrationsMissingDir(t *testing.T) {
	m := NewMigrator(nil, "/nonexistent/migrations")
	if _, err := m.LoadMigrations(); err == nil {
		t.Error("expected error for missing directory")
	}
}
