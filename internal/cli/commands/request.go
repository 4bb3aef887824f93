package commands

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/featsql/internal/vm"
	"github.com/leapstack-labs/featsql/pkg/codec"
)

// RequestOptions holds options for the request command.
type RequestOptions struct {
	DB     string
	Format string
	Input  string
}

// NewRequestCommand creates the request command: single-row online
// execution of a statement.
func NewRequestCommand() *cobra.Command {
	opts := &RequestOptions{}

	cmd := &cobra.Command{
		Use:   "request [SQL]",
		Short: "Execute a statement in request mode over one input row",
		Long: `Execute a SQL statement in request mode. The input row is supplied as a
JSON array whose values line up with the request table's columns.`,
		Example: `  featsql request "SELECT score * 2 FROM features" --input '[1, "alice", 0.5]'`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRequest(cmd, strings.Join(args, " "), opts)
		},
	}

	cmd.Flags().StringVar(&opts.DB, "db", "", "database to run against (default: configured database)")
	cmd.Flags().StringVarP(&opts.Format, "format", "f", "", "output format: table, json, csv")
	cmd.Flags().StringVarP(&opts.Input, "input", "i", "", "input row as a JSON array (required)")
	_ = cmd.MarkFlagRequired("input")

	return cmd
}

func runRequest(cmd *cobra.Command, sqlText string, opts *RequestOptions) error {
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

	in, err := parseInputRow(opts.Input)
	if err != nil {
		return err
	}

	session := vm.NewRequestRunSession(cmdCtx.Logger)
	ctx := cmd.Context()
	if err := cmdCtx.Engine.Get(ctx, sqlText, db, session); err != nil {
		return fmt.Errorf("compile failed: %w", err)
	}

	schema := session.CompileInfo().RequestSchema()
	if len(in) != schema.Len() {
		return fmt.Errorf("input row has %d values, request table has %d columns", len(in), schema.Len())
	}

	out, found, err := session.Run(ctx, in)
	if err != nil {
		return fmt.Errorf("execution failed: %w", err)
	}
	if !found {
		cmdCtx.Logger.Info("request produced no row")
		return renderRows(cmd.OutOrStdout(), session.CompileInfo().OutputSchema(), nil, format)
	}
	return renderRows(cmd.OutOrStdout(), session.CompileInfo().OutputSchema(), []codec.Row{out}, format)
}

// parseInputRow decodes a JSON array into a row, canonicalizing the scalar
// representations so they match stored values.
func parseInputRow(raw string) (codec.Row, error) {
	var values []any
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&values); err != nil {
		return nil, fmt.Errorf("parse input row: %w", err)
	}
	row := make(codec.Row, 0, len(values))
	for _, v := range values {
		if n, ok := v.(json.Number); ok {
			if i, err := n.Int64(); err == nil {
				row = append(row, i)
				continue
			}
			f, err := n.Float64()
			if err != nil {
				return nil, fmt.Errorf("parse input row: %w", err)
			}
			row = append(row, f)
			continue
		}
		nv, err := codec.Normalize(v)
		if err != nil {
			return nil, fmt.Errorf("parse input row: %w", err)
		}
		row = append(row, nv)
	}
	return row, nil
}
