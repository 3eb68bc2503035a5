package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("defaults should load: %v", err)
	}
	if cfg.Database.Driver != "sqlite" || cfg.Database.Path != "fraud_project.db" {
		t.Fatalf("unexpected database defaults: %+v", cfg.Database)
	}
	if cfg.Artifacts.Dir != "models" || cfg.Artifacts.ClassifierFile != "fraud_model.json" {
		t.Fatalf("unexpected artifact defaults: %+v", cfg.Artifacts)
	}
	if cfg.Server.ReadTimeout != 10*time.Second {
		t.Fatalf("duration hook not applied: %v", cfg.Server.ReadTimeout)
	}
	if cfg.ResolveRecentLimit(0) != 10 || cfg.ResolveRecentLimit(3) != 3 {
		t.Fatalf("recent limit resolution incorrect")
	}
}

func TestLoadFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "fraudguard.yaml")
	body := []byte("database:\n  path: data/custom.db\ndashboard:\n  recent_limit: 25\n")
	if err := os.WriteFile(path, body, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("FRAUDGUARD_ARTIFACTS_DIR", "/srv/models")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Database.Path != "data/custom.db" {
		t.Fatalf("file value not applied: %q", cfg.Database.Path)
	}
	if cfg.Dashboard.RecentLimit != 25 {
		t.Fatalf("recent_limit = %d", cfg.Dashboard.RecentLimit)
	}
	if cfg.Artifacts.Dir != "/srv/models" {
		t.Fatalf("env override not applied: %q", cfg.Artifacts.Dir)
	}
}

func TestValidate(t *testing.T) {
	base := func() Config {
		return Config{
			Database:  DatabaseConfig{Driver: "sqlite", Path: "x.db"},
			Artifacts: ArtifactsConfig{Dir: "models"},
			Dashboard: DashboardConfig{RecentLimit: 10},
			Export:    ExportConfig{ChartWidth: 10, ChartHeight: 10},
		}
	}

	cfg := base()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("base config should validate: %v", err)
	}

	cfg = base()
	cfg.Database = DatabaseConfig{Driver: "postgres"}
	if err := cfg.Validate(); err == nil {
		t.Fatal("postgres without dsn should fail")
	}

	cfg = base()
	cfg.Database.Driver = "mysql"
	if err := cfg.Validate(); err == nil {
		t.Fatal("unknown driver should fail")
	}

	cfg = base()
	cfg.Alerting.Telegram.Enabled = true
	if err := cfg.Validate(); err == nil {
		t.Fatal("telegram without token should fail")
	}
}

func TestLoadDotEnv(t *testing.T) {
	chdir(t, t.TempDir())
	if err := os.WriteFile(".env", []byte("FRAUDGUARD_DASHBOARD_RECENT_LIMIT=7\n"), 0o600); err != nil {
		t.Fatalf("write .env: %v", err)
	}
	t.Cleanup(func() { os.Unsetenv("FRAUDGUARD_DASHBOARD_RECENT_LIMIT") })

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Dashboard.RecentLimit != 7 {
		t.Fatalf(".env value not applied: %d", cfg.Dashboard.RecentLimit)
	}
}

// chdir changes the working directory for the duration of the test.
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(prev) })
}
