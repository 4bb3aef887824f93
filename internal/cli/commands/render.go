package commands

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/leapstack-labs/featsql/pkg/codec"
)

// renderRows writes query results in the requested format.
func renderRows(w io.Writer, schema codec.Schema, rows []codec.Row, format string) error {
	switch format {
	case "json":
		return renderJSON(w, schema, rows)
	case "csv":
		return renderCSV(w, schema, rows)
	default:
		return renderTable(w, schema, rows)
	}
}

func renderTable(w io.Writer, schema codec.Schema, rows []codec.Row) error {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)

	header := table.Row{}
	for _, name := range schema.Names() {
		header = append(header, name)
	}
	t.AppendHeader(header)

	for _, row := range rows {
		tr := table.Row{}
		for _, v := range row {
			if v == nil {
				tr = append(tr, "NULL")
			} else {
				tr = append(tr, v)
			}
		}
		t.AppendRow(tr)
	}

	t.Render()
	fmt.Fprintf(w, "(%d rows)\n", len(rows))
	return nil
}

func renderJSON(w io.Writer, schema codec.Schema, rows []codec.Row) error {
	names := schema.Names()
	out := make([]map[string]any, len(rows))
	for i, row := range rows {
		m := make(map[string]any, len(names))
		for j, name := range names {
			if j < len(row) {
				m[name] = row[j]
			}
		}
		out[i] = m
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func renderCSV(w io.Writer, schema codec.Schema, rows []codec.Row) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(schema.Names()); err != nil {
		return err
	}
	for _, row := range rows {
		record := make([]string, len(row))
		for i, v := range row {
			if v == nil {
				record[i] = ""
			} else {
				record[i] = fmt.Sprintf("%v", v)
			}
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
