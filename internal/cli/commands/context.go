// Package commands implements the FeatSQL CLI subcommands.
package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/featsql/internal/catalog"
	"github.com/leapstack-labs/featsql/internal/catalog/seed"
	"github.com/leapstack-labs/featsql/internal/catalog/sqlstore"
	clicfg "github.com/leapstack-labs/featsql/internal/cli/config"
	"github.com/leapstack-labs/featsql/internal/vm"
)

// CommandContext bundles what every command needs: the loaded config, the
// logger, and an engine over the bootstrapped catalog.
type CommandContext struct {
	Cfg    *clicfg.Config
	Logger *slog.Logger
	Engine *vm.Engine
	Holder *catalog.Holder
}

// NewCommandContext builds the engine for a command invocation, loading
// the catalog from the configured seed file or SQL source.
func NewCommandContext(cmd *cobra.Command) (*CommandContext, error) {
	ctx := cmd.Context()
	cfg := clicfg.FromContext(ctx)
	if cfg == nil {
		return nil, fmt.Errorf("configuration was not loaded")
	}
	logger := clicfg.LoggerFromContext(ctx)

	cat, err := loadCatalog(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	holder := catalog.NewHolder(cat)

	vm.InitializeGlobalRuntime()
	engine := vm.NewEngine(holder, vm.Options{
		KeepProgram: cfg.Engine.KeepProgram,
		CompileOnly: cfg.Engine.CompileOnly,
		PlanOnly:    cfg.Engine.PlanOnly,
	}, logger)

	return &CommandContext{Cfg: cfg, Logger: logger, Engine: engine, Holder: holder}, nil
}

func loadCatalog(ctx context.Context, cfg *clicfg.Config, logger *slog.Logger) (catalog.Catalog, error) {
	switch {
	case cfg.SeedFile != "":
		logger.Debug("loading seed catalog", "path", cfg.SeedFile)
		return seed.Load(cfg.SeedFile)
	case cfg.Source != nil && cfg.Source.Driver != "":
		logger.Debug("loading catalog from source",
			"driver", cfg.Source.Driver, "tables", cfg.Source.Tables)
		db, err := openSource(cfg.Source.Driver, cfg.Source.DSN)
		if err != nil {
			return nil, err
		}
		defer func() { _ = db.Close() }()
		return sqlstore.Load(ctx, db, logger, cfg.Database, cfg.Source.Tables)
	default:
		// No data source configured; start with an empty catalog so
		// explain and parse-only workflows still function.
		return catalog.NewMemCatalog(), nil
	}
}
