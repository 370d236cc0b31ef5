package memory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"weekbudget/internal/core"
	"weekbudget/internal/ledger"
)

const (
	budgetsFile        = "budgets.json"
	categoryGroupsFile = "category_groups.json"
	transactionsFile   = "transactions.json"
)

// Store is an in-memory ledger. It backs tests and the file-seeded backend.
type Store struct {
	mu      sync.Mutex
	budgets []core.BudgetSummary
	groups  map[string][]core.CategoryGroup
	months  map[monthKey]core.Category
	txs     map[string][]core.Transaction
}

type monthKey struct {
	budgetID   string
	month      string
	categoryID string
}

var (
	_ ledger.Reader         = (*Store)(nil)
	_ ledger.SnapshotWriter = (*Store)(nil)
)

func New() *Store {
	return &Store{
		groups: make(map[string][]core.CategoryGroup),
		months: make(map[monthKey]core.Category),
		txs:    make(map[string][]core.Transaction),
	}
}

// NewFromFiles seeds a store from base/budgets.json and, per budget,
// base/<budget id>/category_groups.json and transactions.json. Missing files
// leave the corresponding data empty.
func NewFromFiles(base string) (*Store, error) {
	s := New()
	if err := readJSON(filepath.Join(base, budgetsFile), &s.budgets); err != nil {
		return nil, err
	}
	for _, b := range s.budgets {
		var groups []core.CategoryGroup
		if err := readJSON(filepath.Join(base, b.ID, categoryGroupsFile), &groups); err != nil {
			return nil, err
		}
		var txs []core.Transaction
		if err := readJSON(filepath.Join(base, b.ID, transactionsFile), &txs); err != nil {
			return nil, err
		}
		s.groups[b.ID] = groups
		s.txs[b.ID] = txs
	}
	return s, nil
}

// AddBudget registers a budget with its category groups.
func (s *Store) AddBudget(b core.BudgetSummary, groups ...core.CategoryGroup) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.budgets = append(s.budgets, b)
	s.groups[b.ID] = append(s.groups[b.ID], groups...)
}

// SetMonthCategory overrides the month-scoped view of a category.
func (s *Store) SetMonthCategory(budgetID string, month core.Date, c core.Category) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.months[monthKey{budgetID, month.FirstOfMonth().String(), c.ID}] = c
}

// AddTransactions appends transactions to a budget.
func (s *Store) AddTransactions(budgetID string, txs ...core.Transaction) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.txs[budgetID] = append(s.txs[budgetID], txs...)
}

func (s *Store) Budgets(_ context.Context) ([]core.BudgetSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.BudgetSummary(nil), s.budgets...), nil
}

func (s *Store) CategoryGroups(_ context.Context, budgetID string) ([]core.CategoryGroup, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.hasBudget(budgetID) {
		return nil, fmt.Errorf("%w: id %q", core.ErrBudgetNotFound, budgetID)
	}
	return append([]core.CategoryGroup(nil), s.groups[budgetID]...), nil
}

// MonthCategory prefers a month override and falls back to the category as
// listed in its group.
func (s *Store) MonthCategory(_ context.Context, budgetID string, month core.Date, categoryID string) (core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.months[monthKey{budgetID, month.FirstOfMonth().String(), categoryID}]; ok {
		return c, nil
	}
	for _, g := range s.groups[budgetID] {
		for _, c := range g.Categories {
			if c.ID == categoryID {
				return c, nil
			}
		}
	}
	return core.Category{}, fmt.Errorf("%w: %q in budget %q", core.ErrCategoryNotFound, categoryID, budgetID)
}

func (s *Store) TransactionsSince(_ context.Context, budgetID string, since core.Date) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.hasBudget(budgetID) {
		return nil, fmt.Errorf("%w: id %q", core.ErrBudgetNotFound, budgetID)
	}
	var out []core.Transaction
	for _, tx := range s.txs[budgetID] {
		if tx.Date.Before(since) {
			continue
		}
		out = append(out, tx)
	}
	return out, nil
}

// SaveSnapshot replaces everything held for the snapshot's budget.
func (s *Store) SaveSnapshot(_ context.Context, snap ledger.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.hasBudget(snap.Budget.ID) {
		s.budgets = append(s.budgets, snap.Budget)
	}
	s.groups[snap.Budget.ID] = append([]core.CategoryGroup(nil), snap.Groups...)
	for k := range s.months {
		if k.budgetID == snap.Budget.ID {
			delete(s.months, k)
		}
	}
	month := snap.Month.FirstOfMonth().String()
	for _, c := range snap.MonthCategories {
		s.months[monthKey{snap.Budget.ID, month, c.ID}] = c
	}
	s.txs[snap.Budget.ID] = append([]core.Transaction(nil), snap.Transactions...)
	return nil
}

func (s *Store) hasBudget(id string) bool {
	for _, b := range s.budgets {
		if b.ID == id {
			return true
		}
	}
	return false
}

func readJSON(path string, v any) error {
	b, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := json.Unmarshal(b, v); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}
