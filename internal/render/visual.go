package render

import (
	"bytes"
	"fmt"
	"html/template"
	"io"
	"os"

	"weekbudget/internal/core"
	"weekbudget/web"
)

const (
	grandTotalColor = "#b7b7b7"
	annualDarken    = 0.7
	groupDarken     = 0.85
	monthsPerYear   = 12.0
)

var visualTemplate = template.Must(template.ParseFS(web.TemplatesFS, "templates/visual_report.html"))

// VisualRow is one rendered line of the visual report. Amounts are already
// formatted; an empty string leaves the cell blank.
type VisualRow struct {
	Label       string
	Planned     string
	PerMonth    string
	Spent       string
	Remaining   string
	Color       string
	AnnualColor string
	Total       bool
}

// VisualReport is the data behind the HTML page.
type VisualReport struct {
	WeekLabel string
	Year      int
	Rows      []VisualRow
}

type groupAmounts struct {
	planned, perMonth, spent, remaining float64
}

func (g *groupAmounts) add(o groupAmounts) {
	g.planned += o.planned
	g.perMonth += o.perMonth
	g.spent += o.spent
	g.remaining += o.remaining
}

func amountsOf(r core.ReportRow) groupAmounts {
	planned := r.Budgeted
	if !r.IsAnnual() {
		planned = r.Budgeted * monthsPerYear
	}
	return groupAmounts{
		planned:   planned,
		perMonth:  planned / monthsPerYear,
		spent:     r.Spent,
		remaining: r.Balance,
	}
}

// BuildVisualReport lays out groups in watch-list order, each coloured by its
// hint and followed by its total, then a grand total. Group totals include rows
// hidden from display.
func BuildVisualReport(w core.WeekSegment, rows []core.ReportRow, watch core.WatchList, showAll bool) VisualReport {
	out := VisualReport{WeekLabel: WeekLabel(w), Year: w.Start.Year()}

	var grand groupAmounts
	for _, entry := range watch {
		var group groupAmounts
		var members int
		for _, r := range rows {
			if r.GroupName != entry.Group {
				continue
			}
			members++
			amounts := amountsOf(r)
			group.add(amounts)
			if !showAll && r.Spent == 0 {
				continue
			}
			out.Rows = append(out.Rows, categoryRow(r, amounts, entry.Hint))
		}
		if members == 0 {
			continue
		}
		grand.add(group)
		out.Rows = append(out.Rows, totalRow("Total "+entry.Group, group, DarkenHex(entry.Hint, groupDarken)))
	}

	if len(out.Rows) > 0 {
		out.Rows = append(out.Rows, totalRow(core.TotalGroup, grand, grandTotalColor))
	}
	return out
}

func categoryRow(r core.ReportRow, a groupAmounts, color string) VisualRow {
	showValues := r.Spent != 0
	row := VisualRow{
		Label:    r.CategoryName,
		Planned:  FormatCurrency(a.planned, false),
		PerMonth: FormatCurrency(a.perMonth, false),
		Spent:    FormatCurrency(-a.spent, showValues),
		Color:    color,
	}
	if showValues {
		row.Remaining = FormatCurrency(a.remaining, true)
	}
	if r.IsAnnual() {
		row.AnnualColor = DarkenHex(color, annualDarken)
	}
	return row
}

func totalRow(label string, a groupAmounts, color string) VisualRow {
	return VisualRow{
		Label:    label,
		Planned:  FormatCurrency(a.planned, true),
		PerMonth: FormatCurrency(a.perMonth, true),
		Spent:    FormatCurrency(-a.spent, true),
		Color:    color,
		Total:    true,
	}
}

// RenderVisual executes the HTML template.
func RenderVisual(w io.Writer, report VisualReport) error {
	if err := visualTemplate.Execute(w, report); err != nil {
		return fmt.Errorf("render visual report: %w", err)
	}
	return nil
}

// WriteVisualFile renders the report to path.
func WriteVisualFile(path string, report VisualReport) error {
	var buf bytes.Buffer
	if err := RenderVisual(&buf, report); err != nil {
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
