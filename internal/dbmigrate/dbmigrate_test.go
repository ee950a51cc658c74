package dbmigrate

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/pressly/goose/v3"
)

func repoMigrations(t *testing.T) string {
	t.Helper()
	_, thisFile, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("runtime.Caller failed")
	}
	// this file lives in internal/dbmigrate/, so repo root is ../..
	return filepath.Join(filepath.Clean(filepath.Join(filepath.Dir(thisFile), "..", "..")), "db", "migrations")
}

func TestDir_EnvOverride(t *testing.T) {
	t.Setenv("MIGRATIONS_DIR", "/custom/migrations")

	if got := Dir(); got != "/custom/migrations" {
		t.Fatalf("expected MIGRATIONS_DIR override, got %q", got)
	}
}

func TestDir_Default(t *testing.T) {
	t.Setenv("MIGRATIONS_DIR", "")

	if got := Dir(); got != DefaultDir {
		t.Fatalf("expected default migrations dir, got %q", got)
	}
}

func TestCollectMigrations_ParsesMigrationsDir(t *testing.T) {
	migrations, err := goose.CollectMigrations(repoMigrations(t), 0, goose.MaxVersion)
	if err != nil {
		t.Fatalf("expected migrations to parse, got error: %v", err)
	}
	if len(migrations) != 3 {
		t.Fatalf("expected 3 migrations, got %d", len(migrations))
	}
}

func TestSQLMigrations_HaveGooseDirectives(t *testing.T) {
	dir := repoMigrations(t)
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir(%s): %v", dir, err)
	}

	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".sql") {
			continue
		}
		b, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			t.Fatalf("ReadFile(%s): %v", e.Name(), err)
		}
		s := string(b)
		if !strings.Contains(s, "-- +goose Up") {
			t.Fatalf("%s missing '-- +goose Up'", e.Name())
		}
		if !strings.Contains(s, "-- +goose Down") {
			t.Fatalf("%s missing '-- +goose Down'", e.Name())
		}
	}
}

func TestRun_CreateWritesFile(t *testing.T) {
	dir := t.TempDir()
	var out bytes.Buffer

	if err := Run(context.Background(), "", dir, "create", "add_shelves", &out); err != nil {
		t.Fatalf("create: %v", err)
	}
	matches, _ := filepath.Glob(filepath.Join(dir, "*_add_shelves.sql"))
	if len(matches) != 1 {
		t.Fatalf("expected one migration file, got %v", matches)
	}
	if !strings.Contains(out.String(), "add_shelves") {
		t.Fatalf("unexpected output %q", out.String())
	}
}

func TestRun_CreateNeedsName(t *testing.T) {
	if err := Run(context.Background(), "", t.TempDir(), "create", "", &bytes.Buffer{}); err == nil {
		t.Fatal("expected error without a name")
	}
}
