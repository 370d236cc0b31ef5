package report

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"reflect"
	"testing"

	"weekbudget/internal/core"
)

func str(s string) *string { return &s }
func intp(i int) *int      { return &i }

var testWeek = core.WeekSegment{Month: 3, Start: core.NewDate(2024, 3, 10), End: core.NewDate(2024, 3, 16), Number: 11}

func TestBudgetID(t *testing.T) {
	budgets := []core.BudgetSummary{{ID: "b1", Name: "Home"}, {ID: "b2", Name: "Work"}}
	id, err := BudgetID(budgets, "Work")
	if err != nil || id != "b2" {
		t.Fatalf("got %q %v", id, err)
	}
	if _, err := BudgetID(budgets, "work"); !errors.Is(err, core.ErrBudgetNotFound) {
		t.Fatalf("expected ErrBudgetNotFound, got %v", err)
	}
}

func TestGroceriesScenario(t *testing.T) {
	cats := []core.Category{{
		ID: "c1", Name: "Groceries", GroupName: str("Essentials"),
		Budgeted: 50000, Balance: 31500,
		GoalTarget: core.Milliunits(600000).Ptr(), GoalCadence: intp(1),
	}}
	txs := []core.Transaction{{ID: "t1", Date: core.NewDate(2024, 3, 12), Amount: -18500, CategoryName: str("Groceries")}}

	rep, err := Build(testWeek, cats, txs)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []core.ReportRow{{
		GroupName: "Essentials", CategoryName: "Groceries",
		Budgeted: 50.0, Spent: -18.5, Balance: 31.5, Cadence: core.MonthlyCadence,
	}}
	if !reflect.DeepEqual(rep.Rows, want) {
		t.Fatalf("rows: got %+v", rep.Rows)
	}
	wantTotals := []core.GroupTotalRow{
		{GroupName: "Essentials", Budgeted: 50, Spent: -18.5, Balance: 31.5},
		{GroupName: core.TotalGroup, Budgeted: 50, Spent: -18.5, Balance: 31.5},
	}
	if !reflect.DeepEqual(rep.Totals, wantTotals) {
		t.Fatalf("totals: got %+v", rep.Totals)
	}
}

func TestMissingGroupScenario(t *testing.T) {
	groups := []core.CategoryGroup{{ID: "g1", Name: "Fun", Categories: []core.Category{{ID: "c1", Name: "Games"}}}}
	watch := core.WatchList{{Group: "Essentials", Hint: "#ff0000"}}

	sel, err := Select(groups, watch)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(sel.Missing, []string{"Essentials"}) {
		t.Fatalf("missing: %v", sel.Missing)
	}
	if len(sel.Categories) != 0 {
		t.Fatalf("expected no watched categories, got %v", sel.Categories)
	}
	rep, err := Build(testWeek, sel.Categories, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rep.Rows) != 0 {
		t.Fatalf("expected empty table")
	}
	if !reflect.DeepEqual(rep.Totals, []core.GroupTotalRow{{GroupName: core.TotalGroup}}) {
		t.Fatalf("totals: %+v", rep.Totals)
	}
}

func TestWatchedCategories(t *testing.T) {
	groups := []core.CategoryGroup{
		{ID: "g1", Name: "Essentials", Categories: []core.Category{
			{ID: "c1", Name: "Groceries"},
			{ID: "c2", Name: "Old", Hidden: true},
			{ID: "c3", Name: "Misc"},
		}},
		{ID: "g2", Name: "Fun", Categories: []core.Category{{ID: "c4", Name: "Misc"}}},
		{ID: "g3", Name: "Ignored", Categories: []core.Category{{ID: "c5", Name: "Other"}}},
	}
	watch := core.WatchList{{Group: "Fun"}, {Group: "Essentials"}, {Group: "Bills"}, {Group: "Alpha"}}

	got := WatchedCategories(groups, watch)
	var ids []string
	for _, c := range got {
		ids = append(ids, c.ID)
	}
	if !reflect.DeepEqual(ids, []string{"c1", "c3", "c4"}) {
		t.Fatalf("watched ids: %v", ids)
	}
	if missing := MissingGroups(groups, watch); !reflect.DeepEqual(missing, []string{"Alpha", "Bills"}) {
		t.Fatalf("missing: %v", missing)
	}
}

func TestSelectRejectsMalformedGroup(t *testing.T) {
	_, err := Select([]core.CategoryGroup{{ID: "g1"}}, core.WatchList{{Group: "x"}})
	if !errors.Is(err, core.ErrMalformedRecord) {
		t.Fatalf("expected ErrMalformedRecord, got %v", err)
	}
}

func TestExpandTransaction(t *testing.T) {
	date := core.NewDate(2024, 3, 12)
	cases := []struct {
		name string
		tx   core.Transaction
		want []TransactionRow
	}{
		{
			name: "split with uncategorised part",
			tx: core.Transaction{ID: "t1", Date: date, Amount: -30000, PayeeName: str("Market"), Subtransactions: []core.SubTransaction{
				{Amount: -20000, CategoryName: str("Groceries")},
				{Amount: -10000},
			}},
			want: []TransactionRow{{Date: date, Amount: -20, Payee: str("Market"), CategoryName: "Groceries"}},
		},
		{
			name: "split keeps own payee",
			tx: core.Transaction{ID: "t2", Date: date, PayeeName: str("Market"), Subtransactions: []core.SubTransaction{
				{Amount: -1500, PayeeName: str("Bakery"), CategoryName: str("Groceries")},
				{Amount: -2500, CategoryName: str("Household")},
			}},
			want: []TransactionRow{
				{Date: date, Amount: -1.5, Payee: str("Bakery"), CategoryName: "Groceries"},
				{Date: date, Amount: -2.5, Payee: str("Market"), CategoryName: "Household"},
			},
		},
		{
			name: "split ignores parent category",
			tx: core.Transaction{ID: "t3", Date: date, CategoryName: str("Split"), Subtransactions: []core.SubTransaction{
				{Amount: -1000, CategoryName: str("")},
			}},
			want: nil,
		},
		{
			name: "plain categorised",
			tx:   core.Transaction{ID: "t4", Date: date, Amount: 2000, CategoryName: str("Income")},
			want: []TransactionRow{{Date: date, Amount: 2, CategoryName: "Income"}},
		},
		{
			name: "plain uncategorised",
			tx:   core.Transaction{ID: "t5", Date: date, Amount: -700},
			want: nil,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ExpandTransaction(tc.tx)
			if len(got) != len(tc.want) {
				t.Fatalf("got %d rows want %d", len(got), len(tc.want))
			}
			for i := range got {
				if !reflect.DeepEqual(got[i], tc.want[i]) {
					t.Fatalf("row %d: got %+v want %+v", i, got[i], tc.want[i])
				}
			}
		})
	}
}

func TestExpandTransactionsRejectsMalformed(t *testing.T) {
	_, err := ExpandTransactions([]core.Transaction{{ID: "t1", Date: core.NewDate(2024, 1, 1)}, {ID: "t2"}})
	var de *core.DataError
	if !errors.As(err, &de) || de.ID != "t2" || de.Field != "date" {
		t.Fatalf("expected DataError for t2 date, got %v", err)
	}
}

func TestFilterWindowInclusive(t *testing.T) {
	rows := []TransactionRow{
		{Date: core.NewDate(2024, 3, 9), CategoryName: "a"},
		{Date: core.NewDate(2024, 3, 10), CategoryName: "b"},
		{Date: core.NewDate(2024, 3, 16), CategoryName: "c"},
		{Date: core.NewDate(2024, 3, 17), CategoryName: "d"},
	}
	got := FilterWindow(rows, testWeek.Start, testWeek.End)
	if len(got) != 2 || got[0].CategoryName != "b" || got[1].CategoryName != "c" {
		t.Fatalf("got %+v", got)
	}
}

func TestFlattenCategories(t *testing.T) {
	cats := []core.Category{
		{ID: "c1", Name: "NoGroup", Budgeted: 1000},
		{ID: "c2", Name: "TargetOnly", GroupName: str("G"), GoalTarget: core.Milliunits(5).Ptr()},
		{ID: "c3", Name: "CadenceOnly", GroupName: str("G"), GoalCadence: intp(1)},
		{ID: "c4", Name: "Yearly", GroupName: str("G"), GoalTarget: core.Milliunits(5).Ptr(), GoalCadence: intp(13)},
	}
	rows, err := FlattenCategories(cats)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rows[0].GroupName != core.UncategorizedGroup || rows[0].Budgeted != 1 {
		t.Fatalf("default group: %+v", rows[0])
	}
	for _, r := range rows {
		if r.Cadence != core.AnnualCadence {
			t.Fatalf("%s: expected annual, got %s", r.CategoryName, r.Cadence)
		}
	}
	if _, err := FlattenCategories([]core.Category{{ID: "c9"}}); !errors.Is(err, core.ErrMalformedRecord) {
		t.Fatalf("expected ErrMalformedRecord, got %v", err)
	}
}

func TestBuildReportTableOrder(t *testing.T) {
	cats := []CategoryRow{
		{GroupName: "b", CategoryName: "z"},
		{GroupName: "a", CategoryName: "y"},
		{GroupName: "B", CategoryName: "x"},
		{GroupName: "a", CategoryName: "X"},
	}
	rows := BuildReportTable(cats, map[string]float64{"y": -4})
	var got []string
	for _, r := range rows {
		got = append(got, r.GroupName+"/"+r.CategoryName)
	}
	if !reflect.DeepEqual(got, []string{"B/x", "a/X", "a/y", "b/z"}) {
		t.Fatalf("order: %v", got)
	}
	if rows[2].Spent != -4 || rows[0].Spent != 0 {
		t.Fatalf("join: %+v", rows)
	}
}

func TestBuildGroupTotalsTotalLast(t *testing.T) {
	rows := []core.ReportRow{
		{GroupName: "Zoo", Budgeted: 1, Spent: -1, Balance: 2},
		{GroupName: "Alpha", Budgeted: 3, Spent: -2, Balance: 4},
		{GroupName: "Zoo", Budgeted: 5, Spent: 0, Balance: 1},
	}
	totals := BuildGroupTotals(rows)
	want := []core.GroupTotalRow{
		{GroupName: "Alpha", Budgeted: 3, Spent: -2, Balance: 4},
		{GroupName: "Zoo", Budgeted: 6, Spent: -1, Balance: 3},
		{GroupName: core.TotalGroup, Budgeted: 9, Spent: -3, Balance: 7},
	}
	if !reflect.DeepEqual(totals, want) {
		t.Fatalf("got %+v", totals)
	}
}

func TestDisplayRows(t *testing.T) {
	rows := []core.ReportRow{{CategoryName: "a", Spent: 0}, {CategoryName: "b", Spent: -1}}
	if got := DisplayRows(rows, false); len(got) != 1 || got[0].CategoryName != "b" {
		t.Fatalf("filtered: %+v", got)
	}
	if got := DisplayRows(rows, true); len(got) != 2 {
		t.Fatalf("show all: %+v", got)
	}
}

const epsilon = 1e-6

func near(a, b float64) bool { return math.Abs(a-b) < epsilon }

// randomLedger builds categories spread over a few groups and transactions
// around testWeek, some split and some uncategorised.
func randomLedger(r *rand.Rand) ([]core.Category, []core.Transaction) {
	groups := []string{"Essentials", "Fun", "Bills"}
	var cats []core.Category
	for i := 0; i < 2+r.Intn(8); i++ {
		cats = append(cats, core.Category{
			ID:        fmt.Sprintf("c%d", i),
			Name:      fmt.Sprintf("cat-%d", r.Intn(6)),
			GroupName: str(groups[r.Intn(len(groups))]),
			Budgeted:  core.Milliunits(r.Intn(200000)),
			Balance:   core.Milliunits(r.Intn(200000) - 100000),
		})
	}
	category := func() *string {
		if r.Intn(5) == 0 {
			return nil
		}
		return str(fmt.Sprintf("cat-%d", r.Intn(9)))
	}
	var txs []core.Transaction
	for i := 0; i < r.Intn(40); i++ {
		tx := core.Transaction{
			ID:           fmt.Sprintf("t%d", i),
			Date:         testWeek.Start.AddDays(r.Intn(15) - 4),
			Amount:       core.Milliunits(r.Intn(100000) - 80000),
			CategoryName: category(),
		}
		if r.Intn(3) == 0 {
			for j := 0; j < 1+r.Intn(3); j++ {
				tx.Subtransactions = append(tx.Subtransactions, core.SubTransaction{
					Amount:       core.Milliunits(r.Intn(50000) - 40000),
					CategoryName: category(),
				})
			}
		}
		txs = append(txs, tx)
	}
	return cats, txs
}

func TestBuildProperties(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	for iter := 0; iter < 500; iter++ {
		cats, txs := randomLedger(r)
		rep, err := Build(testWeek, cats, txs)
		if err != nil {
			t.Fatalf("iter %d: %v", iter, err)
		}

		// spend-sum correctness against a direct scan
		watched := make(map[string]bool)
		for _, c := range cats {
			watched[c.Name] = true
		}
		want := make(map[string]float64)
		for _, tx := range txs {
			if len(tx.Subtransactions) > 0 {
				for _, s := range tx.Subtransactions {
					if s.CategoryName != nil && testWeek.Contains(tx.Date) && watched[*s.CategoryName] {
						want[*s.CategoryName] += s.Amount.Display()
					}
				}
				continue
			}
			if tx.CategoryName != nil && testWeek.Contains(tx.Date) && watched[*tx.CategoryName] {
				want[*tx.CategoryName] += tx.Amount.Display()
			}
		}
		if len(rep.Rows) != len(cats) {
			t.Fatalf("iter %d: %d rows for %d categories", iter, len(rep.Rows), len(cats))
		}
		for _, row := range rep.Rows {
			if !near(row.Spent, want[row.CategoryName]) {
				t.Fatalf("iter %d: %s spent %v want %v", iter, row.CategoryName, row.Spent, want[row.CategoryName])
			}
		}

		// totals consistency, including Total against the group rows
		groupSums := make(map[string]core.GroupTotalRow)
		for _, row := range rep.Rows {
			g := groupSums[row.GroupName]
			g.Budgeted += row.Budgeted
			g.Spent += row.Spent
			g.Balance += row.Balance
			groupSums[row.GroupName] = g
		}
		last := rep.Totals[len(rep.Totals)-1]
		if last.GroupName != core.TotalGroup {
			t.Fatalf("iter %d: Total not last", iter)
		}
		var viaGroups core.GroupTotalRow
		for _, g := range rep.Totals[:len(rep.Totals)-1] {
			s := groupSums[g.GroupName]
			if !near(g.Budgeted, s.Budgeted) || !near(g.Spent, s.Spent) || !near(g.Balance, s.Balance) {
				t.Fatalf("iter %d: group %s totals %+v want %+v", iter, g.GroupName, g, s)
			}
			viaGroups.Budgeted += g.Budgeted
			viaGroups.Spent += g.Spent
			viaGroups.Balance += g.Balance
		}
		if len(rep.Totals)-1 != len(groupSums) {
			t.Fatalf("iter %d: %d group rows want %d", iter, len(rep.Totals)-1, len(groupSums))
		}
		if !near(last.Budgeted, viaGroups.Budgeted) || !near(last.Spent, viaGroups.Spent) || !near(last.Balance, viaGroups.Balance) {
			t.Fatalf("iter %d: Total %+v differs from group sum %+v", iter, last, viaGroups)
		}

		// ordering
		for i := 1; i < len(rep.Rows); i++ {
			a, b := rep.Rows[i-1], rep.Rows[i]
			if a.GroupName > b.GroupName || (a.GroupName == b.GroupName && a.CategoryName > b.CategoryName) {
				t.Fatalf("iter %d: rows out of order at %d", iter, i)
			}
		}
	}
}
