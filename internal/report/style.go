package report

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

var (
	purple = lipgloss.Color("99")
	green  = lipgloss.Color("76")
	red    = lipgloss.Color("204")
	yellow = lipgloss.Color("214")
	dim    = lipgloss.Color("243")
	faint  = lipgloss.Color("238")
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true)
	mutedStyle = lipgloss.NewStyle().Foreground(dim)
)

// stateStyle colours a human state or a plan action.
func stateStyle(value string) lipgloss.Style {
	base := lipgloss.NewStyle().Padding(0, 1)
	switch {
	case value == "Running", value == "noop", value == "scale up":
		return base.Foreground(green)
	case strings.HasPrefix(value, "Exit"), value == "delete", value == "Uncreated":
		return base.Foreground(red)
	case value == "":
		return base
	default:
		return base.Foreground(yellow)
	}
}

// renderTable draws rows under headers with rounded borders. colourCol, when
// non-negative, is styled by its cell value.
func renderTable(headers []string, rows [][]string, colourCol int) string {
	headerStyle := lipgloss.NewStyle().
		Foreground(purple).
		Bold(true).
		Padding(0, 1)
	cellStyle := lipgloss.NewStyle().Padding(0, 1)

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(faint)).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case col == colourCol && row >= 0 && row < len(rows):
				return stateStyle(rows[row][col])
			default:
				return cellStyle
			}
		}).
		Headers(headers...).
		Rows(rows...)

	return t.String()
}

func section(title, body string) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(title))
	b.WriteString("\n")
	b.WriteString(body)
	b.WriteString("\n")
	return b.String()
}
