package main

import (
	"crypto/sha256"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestMigrationFilenamePattern(t *testing.T) {
	tests := []struct {
		filename string
		valid    bool
		version  string
		name     string
	}{
		{"0001_create_accounts.sql", true, "0001", "create_accounts"},
		{"001_invalid.sql", false, "", ""},
		{"0001_test", false, "", ""},
		{"0001.sql", false, "", ""},
		{"invalid_0001_test.sql", false, "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			m := migrationPattern.FindStringSubmatch(tt.filename)
			if (m != nil) != tt.valid {
				t.Fatalf("match = %v, want valid=%v", m, tt.valid)
			}
			if tt.valid && (m[1] != tt.version || m[2] != tt.name) {
				t.Errorf("got version %q name %q", m[1], m[2])
			}
		})
	}
}

func writeFiles(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func TestReadMigrations(t *testing.T) {
	const accounts = "CREATE TABLE `{{PROJECT_ID}}.{{DATASET_ID}}.accounts` (id STRING);"
	dir := writeFiles(t, map[string]string{
		"0002_create_transactions.sql": "CREATE TABLE `{{PROJECT_ID}}.{{DATASET_ID}}.transactions` (id STRING);",
		"0001_create_accounts.sql":     accounts,
		"README.md":                    "not a migration",
	})

	migrations, err := readMigrations(dir, "proj", "finance")
	if err != nil {
		t.Fatal(err)
	}
	if len(migrations) != 2 {
		t.Fatalf("got %d migrations, want 2", len(migrations))
	}
	first := migrations[0]
	if first.Version != 1 || first.Name != "create_accounts" {
		t.Errorf("first = %d %s, want sorted by version", first.Version, first.Name)
	}
	if !strings.Contains(first.SQL, "`proj.finance.accounts`") {
		t.Errorf("placeholders not replaced: %s", first.SQL)
	}
	if want := fmt.Sprintf("%x", sha256.Sum256([]byte(accounts))); first.Checksum != want {
		t.Errorf("checksum = %s, want hash of the raw file", first.Checksum)
	}

	other, err := readMigrations(dir, "other", "ds")
	if err != nil {
		t.Fatal(err)
	}
	if other[0].Checksum != first.Checksum {
		t.Error("checksum should not depend on project or dataset")
	}
}

func TestReadMigrations_DuplicateVersion(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"0001_a.sql": "SELECT 1;",
		"0001_b.sql": "SELECT 2;",
	})
	if _, err := readMigrations(dir, "p", "d"); err == nil {
		t.Error("expected an error for a repeated version")
	}
}

func TestReadMigrations_RepositoryFiles(t *testing.T) {
	migrations, err := readMigrations(filepath.Join("..", "..", "migrations", "bigquery"), "p", "d")
	if err != nil {
		t.Fatal(err)
	}
	for i, m := range migrations {
		if m.Version != i+1 {
			t.Errorf("migration %s has version %d, want %d", m.Filename, m.Version, i+1)
		}
		if strings.Contains(m.SQL, "{{") {
			t.Errorf("%s has an unknown placeholder", m.Filename)
		}
	}
}

func TestPendingMigrations(t *testing.T) {
	all := []Migration{
		{Version: 1, Name: "a", Checksum: "c1"},
		{Version: 2, Name: "b", Checksum: "c2"},
		{Version: 3, Name: "c", Checksum: "c3"},
	}
	applied := []AppliedMigration{
		{Version: 1, Checksum: "c1"},
		{Version: 2, Checksum: "old"},
	}

	pending, changed := pendingMigrations(all, applied)
	if len(pending) != 1 || pending[0].Version != 3 {
		t.Errorf("pending = %+v, want only version 3", pending)
	}
	if len(changed) != 1 || changed[0].Version != 2 {
		t.Errorf("changed = %+v, want only version 2", changed)
	}
}
