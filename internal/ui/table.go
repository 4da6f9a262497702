package ui

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
)

// Table renders rows of data in aligned columns.
type Table struct {
	out io.Writer
	tw  table.Writer
}

// NewTable creates a new table writer with the given column headers.
func NewTable(out io.Writer, headers ...string) *Table {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleLight)
	tw.Style().Options.SeparateRows = false
	tw.Style().Options.SeparateColumns = false
	tw.Style().Options.DrawBorder = false
	tw.Style().Options.SeparateHeader = false

	header := make(table.Row, len(headers))
	for i, h := range headers {
		header[i] = h
	}
	tw.AppendHeader(header)
	return &Table{out: out, tw: tw}
}

// Row appends a row of values. The number of values should match the number of headers.
func (t *Table) Row(values ...any) {
	t.tw.AppendRow(table.Row(values))
}

// Flush writes the table.
func (t *Table) Flush() error {
	_, err := fmt.Fprintln(t.out, t.tw.Render())
	return err
}
