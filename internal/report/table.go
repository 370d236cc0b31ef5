package report

import (
	"sort"

	"weekbudget/internal/core"
)

// CategoryRow is a watched category in display units, before spend is joined.
type CategoryRow struct {
	GroupName    string
	CategoryName string
	Budgeted     float64
	Balance      float64
	Cadence      core.Cadence
}

// Report is the aggregated view of one reporting week.
type Report struct {
	Week   core.WeekSegment
	Rows   []core.ReportRow
	Totals []core.GroupTotalRow
}

// FlattenCategories converts categories to display units and classifies their
// goal cadence.
func FlattenCategories(categories []core.Category) ([]CategoryRow, error) {
	rows := make([]CategoryRow, 0, len(categories))
	for _, c := range categories {
		if err := c.Validate(); err != nil {
			return nil, err
		}
		group := core.UncategorizedGroup
		if c.GroupName != nil {
			group = *c.GroupName
		}
		rows = append(rows, CategoryRow{
			GroupName:    group,
			CategoryName: c.Name,
			Budgeted:     c.Budgeted.Display(),
			Balance:      c.Balance.Display(),
			Cadence:      CadenceOf(c),
		})
	}
	return rows, nil
}

// CadenceOf is monthly only for a category with a target and a cadence of one.
func CadenceOf(c core.Category) core.Cadence {
	if c.GoalTarget != nil && c.GoalCadence != nil && *c.GoalCadence == 1 {
		return core.MonthlyCadence
	}
	return core.AnnualCadence
}

// BuildReportTable left-joins spend onto categories; categories without spend
// report zero. Rows are ordered by group then category name.
func BuildReportTable(categories []CategoryRow, spent map[string]float64) []core.ReportRow {
	rows := make([]core.ReportRow, 0, len(categories))
	for _, c := range categories {
		rows = append(rows, core.ReportRow{
			GroupName:    c.GroupName,
			CategoryName: c.CategoryName,
			Budgeted:     c.Budgeted,
			Spent:        spent[c.CategoryName],
			Balance:      c.Balance,
			Cadence:      c.Cadence,
		})
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].GroupName != rows[j].GroupName {
			return rows[i].GroupName < rows[j].GroupName
		}
		return rows[i].CategoryName < rows[j].CategoryName
	})
	return rows
}

// BuildGroupTotals sums rows per group, ordered by group name, followed by the
// grand total over every row.
func BuildGroupTotals(rows []core.ReportRow) []core.GroupTotalRow {
	byGroup := make(map[string]*core.GroupTotalRow)
	var names []string
	total := core.GroupTotalRow{GroupName: core.TotalGroup}
	for _, r := range rows {
		g, ok := byGroup[r.GroupName]
		if !ok {
			g = &core.GroupTotalRow{GroupName: r.GroupName}
			byGroup[r.GroupName] = g
			names = append(names, r.GroupName)
		}
		g.Budgeted += r.Budgeted
		g.Spent += r.Spent
		g.Balance += r.Balance

		total.Budgeted += r.Budgeted
		total.Spent += r.Spent
		total.Balance += r.Balance
	}
	sort.Strings(names)

	out := make([]core.GroupTotalRow, 0, len(names)+1)
	for _, name := range names {
		out = append(out, *byGroup[name])
	}
	return append(out, total)
}

// DisplayRows drops rows without spend unless showAll is set.
// Totals are always built from the full table.
func DisplayRows(rows []core.ReportRow, showAll bool) []core.ReportRow {
	if showAll {
		return rows
	}
	out := make([]core.ReportRow, 0, len(rows))
	for _, r := range rows {
		if r.Spent != 0 {
			out = append(out, r)
		}
	}
	return out
}

// Build runs the aggregation pipeline for one week.
func Build(week core.WeekSegment, categories []core.Category, transactions []core.Transaction) (Report, error) {
	flat, err := FlattenCategories(categories)
	if err != nil {
		return Report{}, err
	}
	expanded, err := ExpandTransactions(transactions)
	if err != nil {
		return Report{}, err
	}

	watched := make(map[string]struct{}, len(flat))
	for _, c := range flat {
		watched[c.CategoryName] = struct{}{}
	}
	spent := SpentByCategory(FilterWindow(expanded, week.Start, week.End), watched)

	rows := BuildReportTable(flat, spent)
	return Report{
		Week:   week,
		Rows:   rows,
		Totals: BuildGroupTotals(rows),
	}, nil
}
