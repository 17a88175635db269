package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeLocations(t *testing.T, content string) {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "locations.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("CONFIG_PATH", path)
}

func TestLoadParsesLocations(t *testing.T) {
	writeLocations(t, `
current_month_only: true
locations:
  blr:
    backend: postgres
    database_url: postgres://u:p@localhost:5432/attendance
  dev:
    backend: sqlite
    db_path: runtime/attendance.db
    detail_pause_sec: 0
`)
	app, err := Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if !app.CurrentMonthOnly {
		t.Fatalf("current_month_only not read")
	}

	blr, err := app.Location("blr")
	if err != nil {
		t.Fatalf("blr: %v", err)
	}
	if blr.Backend != BackendPostgres || blr.DetailPause() != time.Second {
		t.Fatalf("blr = %+v pause=%v", blr, blr.DetailPause())
	}

	dev, err := app.Location("dev")
	if err != nil {
		t.Fatalf("dev: %v", err)
	}
	if dev.DetailPause() != 0 {
		t.Fatalf("dev pause = %v, want 0", dev.DetailPause())
	}
}

func TestLoadUnknownLocationIsError(t *testing.T) {
	writeLocations(t, `
locations:
  blr:
    backend: sqlite
    db_path: runtime/a.db
`)
	app, err := Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if _, err := app.Location("mars"); err == nil {
		t.Fatalf("expected error for unknown location")
	}
}

func TestLoadRejectsIncompleteBackend(t *testing.T) {
	writeLocations(t, `
locations:
  blr:
    backend: postgres
`)
	app, err := Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if _, err := app.Location("blr"); err == nil {
		t.Fatalf("expected error for postgres location without database_url")
	}
}

func TestLoadMissingFileIsError(t *testing.T) {
	t.Setenv("CONFIG_PATH", filepath.Join(t.TempDir(), "missing.yaml"))
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for missing config file")
	}
}

func TestEnvOverridesCurrentMonth(t *testing.T) {
	writeLocations(t, `
current_month_only: false
locations:
  blr:
    backend: sqlite
    db_path: runtime/a.db
`)
	t.Setenv("CURRENT_MONTH_ONLY", "true")
	app, err := Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if !app.CurrentMonthOnly {
		t.Fatalf("env override ignored")
	}
}
