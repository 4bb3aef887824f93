// Package config provides configuration management for the FeatSQL CLI.
package config

// Config holds all CLI configuration options.
type Config struct {
	// SeedFile is a YAML catalog definition loaded at startup.
	SeedFile string `koanf:"seed_file"`
	// Database is the default database for statements.
	Database string `koanf:"database"`
	// Output selects the result rendering: table, json, or csv.
	Output string `koanf:"output"`
	// LogLevel is one of debug, info, warn, error.
	LogLevel string `koanf:"log_level"`
	Verbose  bool   `koanf:"verbose"`

	Engine EngineConfig  `koanf:"engine"`
	Source *SourceConfig `koanf:"source"`
}

// EngineConfig maps onto the engine's compile options.
type EngineConfig struct {
	KeepProgram bool `koanf:"keep_program"`
	CompileOnly bool `koanf:"compile_only"`
	PlanOnly    bool `koanf:"plan_only"`
}

// SourceConfig describes a SQL database to bootstrap the catalog from,
// as an alternative to a seed file.
type SourceConfig struct {
	// Driver is duckdb, sqlite, or pgx.
	Driver string `koanf:"driver"`
	// DSN is the driver-specific connection string.
	DSN string `koanf:"dsn"`
	// Tables lists the tables to load.
	Tables []string `koanf:"tables"`
}

// Default configuration values.
const (
	DefaultDatabase = "default"
	DefaultOutput   = "table"
	DefaultLogLevel = "warn"
)
