package migrate

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.uber.org/multierr"
)

func TestCreateSQLMigrationBumpsPastNewestVersion(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	first, err := createSQLMigration(dir, "add gift cards", now)
	if err != nil {
		t.Fatalf("create first: %v", err)
	}
	second, err := createSQLMigration(dir, "add gift card index", now)
	if err != nil {
		t.Fatalf("create second: %v", err)
	}
	if filepath.Base(first) != "20260301090000_add_gift_cards.sql" {
		t.Fatalf("unexpected first file %s", first)
	}
	if filepath.Base(second) != "20260301090001_add_gift_card_index.sql" {
		t.Fatalf("expected bumped version, got %s", second)
	}
	if err := ValidateDir(dir); err != nil {
		t.Fatalf("created migrations should validate: %v", err)
	}
}

func TestCreateSQLMigrationRejectsEmptyName(t *testing.T) {
	if _, err := createSQLMigration(t.TempDir(), " !! ", time.Now()); err == nil {
		t.Fatalf("expected sanitized empty name to fail")
	}
}

func TestValidateDirReportsEveryProblem(t *testing.T) {
	dir := t.TempDir()
	files := map[string]string{
		"bad-name.sql":                   "-- +goose Up\n-- +goose Down\n",
		"20260301090000_no_down.sql":     "-- +goose Up\nSELECT 1;\n",
		"20260301090000_dup_version.sql": "-- +goose Up\n-- +goose Down\n",
		"20260301090100_down_first.sql":  "-- +goose Down\n-- +goose Up\n",
		"20260301090200_fine.sql":        "-- +goose Up\n-- +goose Down\n",
		"notes.txt":                      "ignored",
	}
	for name, body := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}

	err := ValidateDir(dir)
	if err == nil {
		t.Fatalf("expected validation errors")
	}
	if got := len(multierr.Errors(err)); got != 4 {
		t.Fatalf("expected 4 problems, got %d: %v", got, err)
	}
	if !strings.Contains(err.Error(), "Down section before Up") {
		t.Fatalf("missing ordering problem: %v", err)
	}
}
