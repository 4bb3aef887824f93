package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// ExplainOptions holds options for the explain command.
type ExplainOptions struct {
	DB   string
	Mode string
}

// NewExplainCommand creates the explain command: compile a statement and
// print its schemas, plans, and generated program without executing it.
func NewExplainCommand() *cobra.Command {
	opts := &ExplainOptions{}

	cmd := &cobra.Command{
		Use:   "explain [SQL]",
		Short: "Compile a statement and show its plans",
		Example: `  featsql explain "SELECT COUNT(*) FROM features GROUP BY region"
  featsql explain --mode request "SELECT score + 1 FROM features"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExplain(cmd, strings.Join(args, " "), opts)
		},
	}

	cmd.Flags().StringVar(&opts.DB, "db", "", "database to compile against (default: configured database)")
	cmd.Flags().StringVar(&opts.Mode, "mode", "batch", "compile mode: batch or request")

	return cmd
}

func runExplain(cmd *cobra.Command, sqlText string, opts *ExplainOptions) error {
	cmdCtx, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	db := opts.DB
	if db == "" {
		db = cmdCtx.Cfg.Database
	}

	var batch bool
	switch opts.Mode {
	case "batch":
		batch = true
	case "request":
		batch = false
	default:
		return fmt.Errorf("unknown mode %q, want batch or request", opts.Mode)
	}

	out, err := cmdCtx.Engine.Explain(cmd.Context(), sqlText, db, batch)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	if !batch {
		fmt.Fprintln(w, "Input Schema:")
		fmt.Fprintln(w, indent(out.InputSchema.String()))
		fmt.Fprintln(w)
	}
	fmt.Fprintln(w, "Output Schema:")
	fmt.Fprintln(w, indent(out.OutputSchema.String()))
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Logical Plan:")
	fmt.Fprintln(w, indent(out.LogicalPlan))
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Physical Plan:")
	fmt.Fprintln(w, indent(out.PhysicalPlan))
	if out.Program != "" {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Program:")
		fmt.Fprintln(w, indent(out.Program))
	}
	return nil
}

func indent(s string) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	for i, l := range lines {
		lines[i] = "  " + l
	}
	return strings.Join(lines, "\n")
}
