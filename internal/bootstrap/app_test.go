package bootstrap

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"modqueue/internal/infrastructure/persistence/schema"
)

func TestInitSchemaRecordsVersion(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")
	raw := "database:\n  dsn: " + filepath.Join(dir, "state", "moderation.sqlite") + "\n"
	if err := os.WriteFile(configPath, []byte(raw), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	ctx := context.Background()
	app, err := New(ctx, configPath)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { _ = app.Close(ctx) })

	before, err := app.SchemaVersion(ctx)
	if err != nil || before != "" {
		t.Fatalf("SchemaVersion() before init = %q, %v", before, err)
	}

	for i := 0; i < 2; i++ {
		if err := app.InitSchema(ctx); err != nil {
			t.Fatalf("InitSchema() run %d error = %v", i+1, err)
		}
	}

	got, err := app.SchemaVersion(ctx)
	if err != nil {
		t.Fatalf("SchemaVersion() error = %v", err)
	}
	if got != schema.CurrentVersion {
		t.Fatalf("SchemaVersion() = %q, want %q", got, schema.CurrentVersion)
	}
	for _, table := range []string{"content_records", "record_flags", "audit_entries", "moderation_kv", "schema_meta"} {
		if !app.DB.Migrator().HasTable(table) {
			t.Fatalf("table %s missing after InitSchema", table)
		}
	}
}
