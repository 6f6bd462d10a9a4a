package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"datadesk/internal/table"
	"datadesk/internal/ui"

	prettytable "github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

const (
	formatTable    = "table"
	formatCSV      = "csv"
	formatMarkdown = "md"
	formatJSON     = "json"
)

func validFormat(f string) bool {
	switch f {
	case formatTable, formatCSV, formatMarkdown, "markdown", formatJSON:
		return true
	}
	return false
}

func renderResult(w io.Writer, res table.Result, format string) error {
	if format == formatJSON {
		return renderJSON(w, res)
	}

	if len(res.Rows) == 0 && format != formatCSV {
		_, _ = fmt.Fprintln(w, "(0 rows)")
		return nil
	}

	t := newPrettyTable(w)

	header := make(prettytable.Row, len(res.Columns))
	for i, col := range res.Columns {
		header[i] = col
	}
	t.AppendHeader(header)

	for _, row := range res.Rows {
		out := make(prettytable.Row, len(row))
		for i, v := range row {
			out[i] = ui.FormatValue(v)
		}
		t.AppendRow(out)
	}

	switch format {
	case formatCSV:
		t.RenderCSV()
	case formatMarkdown, "markdown":
		t.RenderMarkdown()
	default:
		t.Render()
		_, _ = fmt.Fprintf(w, "(%d rows)\n", len(res.Rows))
	}
	return nil
}

func renderJSON(w io.Writer, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, data, "", "  "); err != nil {
		return err
	}
	buf.WriteByte('\n')
	_, err = w.Write(buf.Bytes())
	return err
}

// renderPairs prints a two-column listing such as sheet ids and names.
func renderPairs(w io.Writer, headers [2]string, pairs [][2]string) {
	if len(pairs) == 0 {
		_, _ = fmt.Fprintln(w, "(none)")
		return
	}
	t := newPrettyTable(w)
	t.AppendHeader(prettytable.Row{headers[0], headers[1]})
	for _, p := range pairs {
		t.AppendRow(prettytable.Row{p[0], p[1]})
	}
	t.Render()
}

// newPrettyTable keeps column names as they are; csv output has to round-trip.
func newPrettyTable(w io.Writer) prettytable.Writer {
	t := prettytable.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(prettytable.StyleLight)
	t.Style().Format.Header = text.FormatDefault
	return t
}
