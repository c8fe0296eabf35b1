package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.DBURL != "sqlite://ruleflow.db" {
		t.Errorf("DBURL = %q, want sqlite://ruleflow.db", cfg.DBURL)
	}
	if cfg.Engine.MaxIterations != 5 {
		t.Errorf("MaxIterations = %d, want 5", cfg.Engine.MaxIterations)
	}
	if cfg.LogFormat != "json" {
		t.Errorf("LogFormat = %q, want json", cfg.LogFormat)
	}
}

func TestLoadConfig_EnvOverride(t *testing.T) {
	os.Setenv("RF_DB_URL", "postgres://localhost/ruleflow?sslmode=disable")
	defer os.Unsetenv("RF_DB_URL")

	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.DBURL != "postgres://localhost/ruleflow?sslmode=disable" {
		t.Errorf("DBURL = %q, want env value", cfg.DBURL)
	}
}

func TestLoadConfig_File(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ruleflow.yaml")
	content := `log_format: text
engine:
  max_iterations: 10
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.LogFormat != "text" {
		t.Errorf("LogFormat = %q, want text", cfg.LogFormat)
	}
	if cfg.Engine.MaxIterations != 10 {
		t.Errorf("MaxIterations = %d, want 10", cfg.Engine.MaxIterations)
	}
}

func TestLoadConfig_Validation(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"zero iterations", "engine:\n  max_iterations: 0\n"},
		{"iterations above ceiling", "engine:\n  max_iterations: 100\n"},
		{"bad log format", "log_format: xml\n"},
		{"empty db url", "db_url: \"\"\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			path := filepath.Join(dir, "ruleflow.yaml")
			if err := os.WriteFile(path, []byte(tt.content), 0o644); err != nil {
				t.Fatal(err)
			}
			if _, err := LoadConfig(path); err == nil {
				t.Errorf("LoadConfig accepted invalid config %q", tt.content)
			}
		})
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	if _, err := LoadConfig("/nonexistent/ruleflow.yaml"); err == nil {
		t.Error("expected error for missing config file")
	}
}
