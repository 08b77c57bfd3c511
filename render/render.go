// Package render formats result tables for the terminal.
package render

import (
	"charm.land/lipgloss/v2"
	"charm.land/lipgloss/v2/table"

	nt "runlens/entity"
)

const cellWidth = 40

var (
	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240")) // Subtle warm grey border
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("246")).Bold(true)
	cellStyle   = lipgloss.NewStyle().PaddingRight(2)
)

// Table renders the matching rows as a bordered text table.
func Table(tbl nt.Table) string {

	lgt := table.New()
	styleTable(lgt)

	lgt.Headers(tbl.Columns...)
	for _, row := range tbl.Rows {
		cells := make([]string, len(row))
		for i, val := range row {
			cells[i] = truncate(val.String(), cellWidth)
		}
		lgt.Row(cells...)
	}

	lgt.StyleFunc(func(row, col int) lipgloss.Style {
		if row == table.HeaderRow {
			return headerStyle
		}
		return cellStyle
	})

	return lgt.Render()
}

// unexported

// styleTable applies consistent styling for borders and separators.
func styleTable(lgt *table.Table) {
	lgt.Border(lipgloss.Border{
		Top:         "─", // Horizontal parts of separator
		Middle:      "─", // Between columns in separator
		MiddleLeft:  "─", // Left edge of separator
		MiddleRight: "─", // Right edge of separator
	}).
		BorderTop(false).
		BorderBottom(false).
		BorderLeft(false).
		BorderRight(false).
		BorderColumn(false).
		BorderStyle(borderStyle)
}

func truncate(str string, maxLen int) string {

	if len(str) <= maxLen {
		return str
	}
	return str[:maxLen-1] + "…"
}
