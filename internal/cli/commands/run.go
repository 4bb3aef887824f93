package commands

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/leapstack-labs/featsql/internal/vm"
)

// RunOptions holds options for the run command.
type RunOptions struct {
	DB     string
	Format string
	Limit  uint64
}

// NewRunCommand creates the run command: batch execution of a statement.
func NewRunCommand() *cobra.Command {
	opts := &RunOptions{}

	cmd := &cobra.Command{
		Use:   "run [SQL]",
		Short: "Execute a statement in batch mode",
		Long: `Execute a SQL statement in batch mode over the stored catalog and
print the resulting rows.`,
		Example: `  # Run against the default database
  featsql run "SELECT user_id, score FROM features WHERE score > 0.5"

  # Output as JSON
  featsql run "SELECT COUNT(*) FROM features" --format json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBatch(cmd, strings.Join(args, " "), opts)
		},
	}

	cmd.Flags().StringVar(&opts.DB, "db", "", "database to run against (default: configured database)")
	cmd.Flags().StringVarP(&opts.Format, "format", "f", "", "output format: table, json, csv")
	cmd.Flags().Uint64Var(&opts.Limit, "limit", 0, "row collection limit hint")

	return cmd
}

func runBatch(cmd *cobra.Command, sqlText string, opts *RunOptions) error {
	cmdCtx, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	db := opts.DB
	if db == "" {
		db = cmdCtx.Cfg.Database
	}
	format := opts.Format
	if format == "" {
		format = cmdCtx.Cfg.Output
	}

	runID := uuid.NewString()
	logger := cmdCtx.Logger.With("run_id", runID)
	logger.Info("executing batch statement", "db", db, "sql", sqlText)

	session := vm.NewBatchRunSession(logger)
	ctx := cmd.Context()
	start := time.Now()
	if err := cmdCtx.Engine.Get(ctx, sqlText, db, session); err != nil {
		return fmt.Errorf("compile failed: %w", err)
	}
	rows, err := session.RunRows(ctx, opts.Limit)
	if err != nil {
		return fmt.Errorf("execution failed: %w", err)
	}
	logger.Info("batch statement finished", "rows", len(rows), "elapsed", time.Since(start))

	return renderRows(cmd.OutOrStdout(), session.CompileInfo().OutputSchema(), rows, format)
}
