package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"github.com/leapstack-labs/featsql/internal/catalog"
	"github.com/leapstack-labs/featsql/internal/vm"
)

// NewREPLCommand creates the repl command: an interactive shell over the
// engine's batch mode.
func NewREPLCommand() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "repl",
		Short: "Start an interactive query shell",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runREPL(cmd, format)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "", "output format: table, json, csv")

	return cmd
}

func runREPL(cmd *cobra.Command, format string) error {
	cmdCtx, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	if format == "" {
		format = cmdCtx.Cfg.Output
	}
	db := cmdCtx.Cfg.Database

	// Setup history file (user-local)
	historyFile := filepath.Join(os.TempDir(), "featsql_history")

	completer := newTableCompleter(cmdCtx.Holder, db)

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "featsql> ",
		HistoryFile:     historyFile,
		AutoComplete:    completer,
		InterruptPrompt: "^C",
		EOFPrompt:       ".quit",
	})
	if err != nil {
		return fmt.Errorf("failed to initialize REPL: %w", err)
	}
	defer func() { _ = rl.Close() }()

	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "FeatSQL REPL (database: %s)\n", db)
	_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Type .help for commands, .quit to exit")
	_, _ = fmt.Fprintln(cmd.OutOrStdout())

	session := vm.NewBatchRunSession(cmdCtx.Logger)

	var multiLineBuffer strings.Builder
	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			multiLineBuffer.Reset()
			rl.SetPrompt("featsql> ")
			continue
		}
		if errors.Is(err, io.EOF) {
			break
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, ".") {
			quit, newDB := handleDotCommand(cmd, cmdCtx, line, db, format)
			if quit {
				break
			}
			db = newDB
			continue
		}

		// Accumulate multi-line SQL until semicolon
		multiLineBuffer.WriteString(line)
		if !strings.HasSuffix(line, ";") {
			multiLineBuffer.WriteString(" ")
			rl.SetPrompt("    ...> ")
			continue
		}
		rl.SetPrompt("featsql> ")

		query := strings.TrimSuffix(multiLineBuffer.String(), ";")
		multiLineBuffer.Reset()

		if err := executeAndRender(cmd.Context(), cmd, cmdCtx, session, db, query, format); err != nil {
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
		}
		_, _ = fmt.Fprintln(cmd.OutOrStdout())
	}

	return nil
}

func executeAndRender(ctx context.Context, cmd *cobra.Command, cmdCtx *CommandContext, session *vm.BatchRunSession, db, query, format string) error {
	start := time.Now()
	if err := cmdCtx.Engine.Get(ctx, query, db, session); err != nil {
		return err
	}
	rows, err := session.RunRows(ctx, 0)
	if err != nil {
		return err
	}
	if err := renderRows(cmd.OutOrStdout(), session.CompileInfo().OutputSchema(), rows, format); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%d row(s) in %s\n", len(rows), time.Since(start).Round(time.Millisecond))
	return nil
}

// handleDotCommand processes a REPL meta-command. It returns whether the
// REPL should exit and the possibly-updated current database.
func handleDotCommand(cmd *cobra.Command, cmdCtx *CommandContext, line, db, format string) (quit bool, newDB string) {
	parts := strings.Fields(line)
	command := strings.ToLower(parts[0])

	switch command {
	case ".quit", ".exit":
		return true, db

	case ".help":
		printREPLHelp(cmd.OutOrStdout())

	case ".tables":
		if err := listTables(cmd.OutOrStdout(), cmdCtx.Holder, db); err != nil {
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
		}

	case ".schema":
		if len(parts) < 2 {
			_, _ = fmt.Fprintln(cmd.ErrOrStderr(), "Usage: .schema <table>")
			return false, db
		}
		if err := showSchema(cmd.OutOrStdout(), cmdCtx.Holder, db, parts[1]); err != nil {
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
		}

	case ".db":
		if len(parts) < 2 {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Current database: %s\n", db)
			return false, db
		}
		return false, parts[1]

	case ".explain":
		if len(parts) < 2 {
			_, _ = fmt.Fprintln(cmd.ErrOrStderr(), "Usage: .explain <sql>")
			return false, db
		}
		sqlText := strings.TrimSuffix(strings.Join(parts[1:], " "), ";")
		out, err := cmdCtx.Engine.Explain(cmd.Context(), sqlText, db, true)
		if err != nil {
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
			return false, db
		}
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), out.PhysicalPlan)
		if out.Program != "" {
			_, _ = fmt.Fprintln(cmd.OutOrStdout())
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), out.Program)
		}

	case ".clear":
		fmt.Print("\033[H\033[2J")

	default:
		_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Unknown command: %s (type .help for commands)\n", command)
	}
	return false, db
}

func printREPLHelp(w io.Writer) {
	help := `
Commands:
  .help           Show this help message
  .tables         List tables in the current database
  .schema <name>  Show schema for a table
  .db [name]      Show or switch the current database
  .explain <sql>  Show the physical plan for a statement
  .clear          Clear the screen
  .quit / .exit   Exit the REPL

Tips:
  - SQL statements must end with a semicolon (;)
  - Use arrow keys to navigate history
  - Tab completion works for table names
`
	_, _ = fmt.Fprintln(w, help)
}

func listTables(w io.Writer, holder *catalog.Holder, db string) error {
	database, ok := holder.Load().Database(db)
	if !ok {
		return fmt.Errorf("database %s not found", db)
	}
	for _, name := range database.TableNames() {
		_, _ = fmt.Fprintln(w, name)
	}
	return nil
}

func showSchema(w io.Writer, holder *catalog.Holder, db, name string) error {
	tbl, ok := holder.Load().Table(db, name)
	if !ok {
		return fmt.Errorf("table %s.%s not found", db, name)
	}
	_, _ = fmt.Fprintln(w, tbl.Schema.String())
	return nil
}

// newTableCompleter creates a readline completer for table names.
func newTableCompleter(holder *catalog.Holder, db string) *readline.PrefixCompleter {
	var items []readline.PrefixCompleterInterface
	if database, ok := holder.Load().Database(db); ok {
		for _, name := range database.TableNames() {
			items = append(items, readline.PcItem(name))
		}
	}

	items = append(items,
		readline.PcItem(".help"),
		readline.PcItem(".tables"),
		readline.PcItem(".schema"),
		readline.PcItem(".db"),
		readline.PcItem(".explain"),
		readline.PcItem(".clear"),
		readline.PcItem(".quit"),
		readline.PcItem(".exit"),
	)

	return readline.NewPrefixCompleter(items...)
}
