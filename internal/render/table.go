package render

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"weekbudget/internal/core"
)

var (
	colorBorder = lipgloss.Color("#414868")
	colorHeader = lipgloss.Color("#7AA2F7")
	colorTotal  = lipgloss.Color("#b7b7b7")

	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(colorHeader).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	numberStyle = cellStyle.Align(lipgloss.Right)
	totalStyle  = numberStyle.Bold(true).Foreground(colorTotal)
	titleStyle  = lipgloss.NewStyle().Bold(true)
)

var (
	reportHeaders = []string{"category_group_name", "category_name", "budgeted", "spent", "balance", "goal_cadence"}
	totalsHeaders = []string{"category_group_name", "budgeted", "spent", "balance"}
)

// ReportHeaders returns the column names of the report table.
func ReportHeaders() []string { return append([]string(nil), reportHeaders...) }

// TotalsHeaders returns the column names of the group totals table.
func TotalsHeaders() []string { return append([]string(nil), totalsHeaders...) }

// PrintTables writes the report and group totals as terminal tables.
// Group names are tinted with their watch-list hint when it is a colour.
func PrintTables(w io.Writer, rows []core.ReportRow, totals []core.GroupTotalRow, watch core.WatchList) error {
	report := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorBorder)).
		Headers(reportHeaders...).
		Rows(reportCells(rows)...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case row < 0 || row >= len(rows):
				return cellStyle
			case col == 0:
				return groupStyle(rows[row].GroupName, watch)
			case col >= 2 && col <= 4:
				return numberStyle
			default:
				return cellStyle
			}
		})

	groups := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorBorder)).
		Headers(totalsHeaders...).
		Rows(totalsCells(totals)...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case row < 0 || row >= len(totals):
				return numberStyle
			case totals[row].GroupName == core.TotalGroup && col > 0:
				return totalStyle
			case col == 0:
				return groupStyle(totals[row].GroupName, watch)
			default:
				return numberStyle
			}
		})

	_, err := fmt.Fprintf(w, "%s\n%s\n%s\n", report.String(), titleStyle.Render("Category group totals"), groups.String())
	return err
}

func groupStyle(group string, watch core.WatchList) lipgloss.Style {
	hint, ok := watch.Hint(group)
	if !ok || len(hint) != 7 || hint[0] != '#' {
		return cellStyle
	}
	return cellStyle.Foreground(lipgloss.Color(hint))
}

func reportCells(rows []core.ReportRow) [][]string {
	cells := make([][]string, 0, len(rows))
	for _, r := range rows {
		cells = append(cells, []string{
			r.GroupName,
			r.CategoryName,
			fmt.Sprintf("%.2f", r.Budgeted),
			fmt.Sprintf("%.2f", r.Spent),
			fmt.Sprintf("%.2f", r.Balance),
			string(r.Cadence),
		})
	}
	return cells
}

func totalsCells(totals []core.GroupTotalRow) [][]string {
	cells := make([][]string, 0, len(totals))
	for _, t := range totals {
		cells = append(cells, []string{
			t.GroupName,
			fmt.Sprintf("%.2f", t.Budgeted),
			fmt.Sprintf("%.2f", t.Spent),
			fmt.Sprintf("%.2f", t.Balance),
		})
	}
	return cells
}
