package cli

import (
	"github.com/charmbracelet/lipgloss"
	ltable "github.com/charmbracelet/lipgloss/table"
)

// NewStyledTable creates a bordered table with a styled header row.
func NewStyledTable(t *Theme, headers ...string) *ltable.Table {
	if t == nil {
		t = DefaultTheme
	}
	cell := lipgloss.NewStyle().Padding(0, 1)
	return ltable.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(t.Border).
		Headers(headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == ltable.HeaderRow {
				return t.TableHeader
			}
			return cell
		})
}
