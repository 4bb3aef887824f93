package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig("", nil)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Database != DefaultDatabase {
		t.Errorf("Database = %q, want %q", cfg.Database, DefaultDatabase)
	}
	if cfg.Output != DefaultOutput {
		t.Errorf("Output = %q, want %q", cfg.Output, DefaultOutput)
	}
	if cfg.LogLevel != DefaultLogLevel {
		t.Errorf("LogLevel = %q, want %q", cfg.LogLevel, DefaultLogLevel)
	}
	if cfg.Source != nil {
		t.Errorf("Source = %+v, want nil", cfg.Source)
	}
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "featsql.yaml")
	data := `database: feat
output: json
engine:
  keep_program: true
source:
  driver: sqlite
  dsn: ":memory:"
  tables: [events, users]
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path, nil)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Database != "feat" {
		t.Errorf("Database = %q", cfg.Database)
	}
	if cfg.Output != "json" {
		t.Errorf("Output = %q", cfg.Output)
	}
	if !cfg.Engine.KeepProgram {
		t.Error("engine.keep_program should be set")
	}
	if cfg.Source == nil || cfg.Source.Driver != "sqlite" || len(cfg.Source.Tables) != 2 {
		t.Errorf("Source = %+v", cfg.Source)
	}
	// File settings replace defaults but unset keys keep them.
	if cfg.LogLevel != DefaultLogLevel {
		t.Errorf("LogLevel = %q, want default", cfg.LogLevel)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nope.yaml")
	_, err := LoadConfig(path, nil)
	if err == nil {
		t.Fatal("explicit missing config file should error")
	}
	want := fmt.Sprintf("config file %s not found", path)
	if err.Error() != want {
		t.Errorf("error = %q, want %q", err, want)
	}
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	t.Setenv("FEATSQL_OUTPUT", "csv")
	t.Setenv("FEATSQL_ENGINE__PLAN_ONLY", "true")

	cfg, err := LoadConfig("", nil)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Output != "csv" {
		t.Errorf("Output = %q, want csv", cfg.Output)
	}
	if !cfg.Engine.PlanOnly {
		t.Error("FEATSQL_ENGINE__PLAN_ONLY should map to engine.plan_only")
	}
}

func TestLoadConfigFlagsWin(t *testing.T) {
	t.Setenv("FEATSQL_DATABASE", "from_env")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("database", "", "")
	if err := flags.Parse([]string{"--database", "from_flag"}); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig("", flags)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Database != "from_flag" {
		t.Errorf("Database = %q, flags should take precedence", cfg.Database)
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		name string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"nonsense", slog.LevelWarn},
		{"", slog.LevelWarn},
	}
	for _, tt := range tests {
		if got := ParseLogLevel(tt.name); got != tt.want {
			t.Errorf("ParseLogLevel(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestContextRoundTrip(t *testing.T) {
	cfg := &Config{Database: "d"}
	logger := slog.New(slog.DiscardHandler)
	ctx := IntoContext(t.Context(), cfg, logger)

	if FromContext(ctx) != cfg {
		t.Error("config did not round-trip")
	}
	if LoggerFromContext(ctx) != logger {
		t.Error("logger did not round-trip")
	}
	if FromContext(t.Context()) != nil {
		t.Error("empty context should yield nil config")
	}
	if LoggerFromContext(t.Context()) == nil {
		t.Error("empty context should yield a fallback logger")
	}
}
