// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/x/ansi"
)

// columnGap separates table columns.
const columnGap = "  "

// Table aligns rows of possibly styled cells. Widths are measured in
// terminal cells, ignoring escape sequences.
type Table struct {
	styles  *Styles
	headers []string
	rows    [][]string
}

// NewTable starts a table with the given column headers.
func NewTable(styles *Styles, headers ...string) *Table {
	return &Table{styles: styles, headers: headers}
}

// Row appends a row. Missing cells are blank; extra cells are dropped.
func (table *Table) Row(cells ...string) {
	row := make([]string, len(table.headers))
	copy(row, cells)
	table.rows = append(table.rows, row)
}

// Len returns the number of rows.
func (table *Table) Len() int {
	return len(table.rows)
}

// Render writes the header and rows to w. When the styles carry a
// width, the last column is truncated to fit it.
func (table *Table) Render(w io.Writer) error {
	columns := len(table.headers)
	widths := make([]int, columns)
	for column, header := range table.headers {
		widths[column] = ansi.StringWidth(header)
	}
	for _, row := range table.rows {
		for column, cell := range row {
			widths[column] = max(widths[column], ansi.StringWidth(cell))
		}
	}

	lastLimit := 0
	if table.styles.Width > 0 {
		used := 0
		for _, width := range widths[:columns-1] {
			used += width + len(columnGap)
		}
		lastLimit = max(table.styles.Width-used, 8)
	}

	header := make([]string, columns)
	for column, text := range table.headers {
		header[column] = table.styles.Header.Render(text)
	}
	if err := table.writeRow(w, header, widths, lastLimit); err != nil {
		return err
	}
	for _, row := range table.rows {
		if err := table.writeRow(w, row, widths, lastLimit); err != nil {
			return err
		}
	}
	return nil
}

func (table *Table) writeRow(w io.Writer, row []string, widths []int, lastLimit int) error {
	var line strings.Builder
	last := len(row) - 1
	for column, cell := range row {
		if column == last {
			if lastLimit > 0 {
				cell = ansi.Truncate(cell, lastLimit, "…")
			}
			line.WriteString(cell)
			break
		}
		line.WriteString(cell)
		line.WriteString(strings.Repeat(" ", widths[column]-ansi.StringWidth(cell)))
		line.WriteString(columnGap)
	}
	_, err := fmt.Fprintln(w, strings.TrimRight(line.String(), " "))
	return err
}
