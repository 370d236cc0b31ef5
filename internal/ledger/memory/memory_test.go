package memory

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"weekbudget/internal/core"
)

func TestStoreReads(t *testing.T) {
	ctx := context.Background()
	s := New()
	s.AddBudget(core.BudgetSummary{ID: "b1", Name: "Home"}, core.CategoryGroup{
		ID: "g1", Name: "Essentials",
		Categories: []core.Category{{ID: "c1", Name: "Groceries", Budgeted: 1000}},
	})
	s.AddTransactions("b1",
		core.Transaction{ID: "t1", Date: core.NewDate(2024, 3, 9)},
		core.Transaction{ID: "t2", Date: core.NewDate(2024, 3, 10)},
	)

	budgets, err := s.Budgets(ctx)
	if err != nil || len(budgets) != 1 || budgets[0].Name != "Home" {
		t.Fatalf("budgets: %v %v", budgets, err)
	}

	c, err := s.MonthCategory(ctx, "b1", core.NewDate(2024, 3, 10), "c1")
	if err != nil || c.Budgeted != 1000 {
		t.Fatalf("fallback category: %+v %v", c, err)
	}
	s.SetMonthCategory("b1", core.NewDate(2024, 3, 1), core.Category{ID: "c1", Name: "Groceries", Budgeted: 5000})
	c, err = s.MonthCategory(ctx, "b1", core.NewDate(2024, 3, 10), "c1")
	if err != nil || c.Budgeted != 5000 {
		t.Fatalf("month override: %+v %v", c, err)
	}
	c, _ = s.MonthCategory(ctx, "b1", core.NewDate(2024, 4, 2), "c1")
	if c.Budgeted != 1000 {
		t.Fatalf("override leaked into April: %+v", c)
	}
	if _, err := s.MonthCategory(ctx, "b1", core.NewDate(2024, 3, 1), "nope"); !errors.Is(err, core.ErrCategoryNotFound) {
		t.Fatalf("expected ErrCategoryNotFound, got %v", err)
	}

	txs, err := s.TransactionsSince(ctx, "b1", core.NewDate(2024, 3, 10))
	if err != nil || len(txs) != 1 || txs[0].ID != "t2" {
		t.Fatalf("since: %v %v", txs, err)
	}
	if _, err := s.TransactionsSince(ctx, "b2", core.NewDate(2024, 3, 10)); !errors.Is(err, core.ErrBudgetNotFound) {
		t.Fatalf("expected ErrBudgetNotFound, got %v", err)
	}
	if _, err := s.CategoryGroups(ctx, "b2"); !errors.Is(err, core.ErrBudgetNotFound) {
		t.Fatalf("expected ErrBudgetNotFound, got %v", err)
	}
}

func TestNewFromFiles(t *testing.T) {
	dir := t.TempDir()
	mustWrite := func(name, content string) {
		t.Helper()
		path := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}

	// no files -> empty store
	s, err := NewFromFiles(dir)
	if err != nil {
		t.Fatalf("empty dir: %v", err)
	}
	if budgets, _ := s.Budgets(context.Background()); len(budgets) != 0 {
		t.Fatalf("expected no budgets, got %v", budgets)
	}

	mustWrite("budgets.json", `[{"id":"b1","name":"Home"}]`)
	mustWrite("b1/category_groups.json", `[{"id":"g1","name":"Essentials","categories":[
		{"id":"c1","name":"Groceries","category_group_name":"Essentials","budgeted":50000,"balance":31500,"goal_cadence":1,"goal_target":600000}
	]}]`)
	mustWrite("b1/transactions.json", `[{"id":"t1","date":"2024-03-12","amount":-18500,"category_name":"Groceries","subtransactions":[]}]`)

	s, err = NewFromFiles(dir)
	if err != nil {
		t.Fatalf("seeded dir: %v", err)
	}
	groups, err := s.CategoryGroups(context.Background(), "b1")
	if err != nil || len(groups) != 1 || len(groups[0].Categories) != 1 {
		t.Fatalf("groups: %+v %v", groups, err)
	}
	c := groups[0].Categories[0]
	if c.GoalTarget == nil || *c.GoalTarget != 600000 || c.GroupName == nil || *c.GroupName != "Essentials" {
		t.Fatalf("category: %+v", c)
	}
	txs, err := s.TransactionsSince(context.Background(), "b1", core.NewDate(2024, 3, 10))
	if err != nil || len(txs) != 1 || txs[0].Amount != -18500 {
		t.Fatalf("transactions: %+v %v", txs, err)
	}

	mustWrite("b1/transactions.json", `[{"id":"t1","date":"12/03/2024"}]`)
	if _, err := NewFromFiles(dir); !errors.Is(err, core.ErrInvalidDate) {
		t.Fatalf("expected ErrInvalidDate, got %v", err)
	}
}
