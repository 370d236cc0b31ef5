package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"weekbudget/internal/core"
	"weekbudget/internal/ledger"
)

// Store keeps ledger snapshots in a SQLite file and serves them back as a
// ledger.Reader.
type Store struct {
	db *sql.DB
}

var (
	_ ledger.Reader         = (*Store)(nil)
	_ ledger.SnapshotWriter = (*Store)(nil)
)

// Open creates or migrates the snapshot database at dbPath.
func Open(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// SaveSnapshot replaces everything stored for the snapshot's budget.
func (s *Store) SaveSnapshot(ctx context.Context, snap ledger.Snapshot) error {
	if snap.Budget.ID == "" {
		return &core.DataError{Entity: "budget", ID: snap.Budget.Name, Field: "id"}
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin snapshot: %w", err)
	}
	defer tx.Rollback()

	id := snap.Budget.ID
	for _, table := range []string{"subtransactions", "transactions", "month_categories", "categories", "category_groups", "budgets"} {
		col := "budget_id"
		if table == "budgets" {
			col = "id"
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table+" WHERE "+col+" = ?", id); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	takenAt := snap.TakenAt
	if takenAt.IsZero() {
		takenAt = time.Now()
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO budgets (id, name, month, since, taken_at) VALUES (?, ?, ?, ?, ?)`,
		id, snap.Budget.Name, snap.Month.FirstOfMonth().String(), snap.Since.String(), takenAt.UTC().Format(time.RFC3339),
	); err != nil {
		return fmt.Errorf("insert budget: %w", err)
	}

	for gi, g := range snap.Groups {
		if err := g.Validate(); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO category_groups (budget_id, id, name, hidden, deleted, position) VALUES (?, ?, ?, ?, ?, ?)`,
			id, g.ID, g.Name, g.Hidden, g.Deleted, gi,
		); err != nil {
			return fmt.Errorf("insert category group %s: %w", g.ID, err)
		}
		for ci, c := range g.Categories {
			if err := c.Validate(); err != nil {
				return err
			}
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO categories (budget_id, id, group_id, name, group_name, budgeted, balance, goal_cadence, goal_target, hidden, position)
				 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				id, c.ID, g.ID, c.Name, nullString(c.GroupName), int64(c.Budgeted), int64(c.Balance),
				nullInt(c.GoalCadence), nullMilliunits(c.GoalTarget), c.Hidden, ci,
			); err != nil {
				return fmt.Errorf("insert category %s: %w", c.ID, err)
			}
		}
	}

	month := snap.Month.FirstOfMonth().String()
	for _, c := range snap.MonthCategories {
		if err := c.Validate(); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO month_categories (budget_id, month, id, name, group_name, budgeted, balance, goal_cadence, goal_target, hidden)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			id, month, c.ID, c.Name, nullString(c.GroupName), int64(c.Budgeted), int64(c.Balance),
			nullInt(c.GoalCadence), nullMilliunits(c.GoalTarget), c.Hidden,
		); err != nil {
			return fmt.Errorf("insert month category %s: %w", c.ID, err)
		}
	}

	for ti, t := range snap.Transactions {
		if err := t.Validate(); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO transactions (budget_id, id, date, amount, payee_name, category_name, position) VALUES (?, ?, ?, ?, ?, ?, ?)`,
			id, t.ID, t.Date.String(), int64(t.Amount), nullString(t.PayeeName), nullString(t.CategoryName), ti,
		); err != nil {
			return fmt.Errorf("insert transaction %s: %w", t.ID, err)
		}
		for si, sub := range t.Subtransactions {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO subtransactions (budget_id, transaction_id, position, amount, payee_name, category_name) VALUES (?, ?, ?, ?, ?, ?)`,
				id, t.ID, si, int64(sub.Amount), nullString(sub.PayeeName), nullString(sub.CategoryName),
			); err != nil {
				return fmt.Errorf("insert subtransaction %s/%d: %w", t.ID, si, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit snapshot: %w", err)
	}

	slog.InfoContext(ctx, "Ledger snapshot saved",
		"budget_id", id,
		"groups", len(snap.Groups),
		"month_categories", len(snap.MonthCategories),
		"transactions", len(snap.Transactions))
	return nil
}

func (s *Store) Budgets(ctx context.Context) ([]core.BudgetSummary, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name FROM budgets ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("query budgets: %w", err)
	}
	defer rows.Close()

	var out []core.BudgetSummary
	for rows.Next() {
		var b core.BudgetSummary
		if err := rows.Scan(&b.ID, &b.Name); err != nil {
			return nil, fmt.Errorf("scan budget: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (s *Store) CategoryGroups(ctx context.Context, budgetID string) ([]core.CategoryGroup, error) {
	if err := s.requireBudget(ctx, budgetID); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, hidden, deleted FROM category_groups WHERE budget_id = ? ORDER BY position`, budgetID)
	if err != nil {
		return nil, fmt.Errorf("query category groups: %w", err)
	}
	var groups []core.CategoryGroup
	index := make(map[string]int)
	for rows.Next() {
		var g core.CategoryGroup
		if err := rows.Scan(&g.ID, &g.Name, &g.Hidden, &g.Deleted); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan category group: %w", err)
		}
		index[g.ID] = len(groups)
		groups = append(groups, g)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	crows, err := s.db.QueryContext(ctx,
		`SELECT group_id, id, name, group_name, budgeted, balance, goal_cadence, goal_target, hidden
		 FROM categories WHERE budget_id = ? ORDER BY position`, budgetID)
	if err != nil {
		return nil, fmt.Errorf("query categories: %w", err)
	}
	defer crows.Close()
	for crows.Next() {
		var groupID string
		c, err := scanCategory(crows, &groupID)
		if err != nil {
			return nil, err
		}
		i, ok := index[groupID]
		if !ok {
			continue
		}
		groups[i].Categories = append(groups[i].Categories, c)
	}
	return groups, crows.Err()
}

// MonthCategory prefers the month-scoped copy and falls back to the category
// as listed in its group.
func (s *Store) MonthCategory(ctx context.Context, budgetID string, month core.Date, categoryID string) (core.Category, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, group_name, budgeted, balance, goal_cadence, goal_target, hidden
		 FROM month_categories WHERE budget_id = ? AND month = ? AND id = ?`,
		budgetID, month.FirstOfMonth().String(), categoryID)
	c, err := scanCategory(row, nil)
	if err == nil {
		return c, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return core.Category{}, err
	}

	row = s.db.QueryRowContext(ctx,
		`SELECT id, name, group_name, budgeted, balance, goal_cadence, goal_target, hidden
		 FROM categories WHERE budget_id = ? AND id = ?`, budgetID, categoryID)
	c, err = scanCategory(row, nil)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Category{}, fmt.Errorf("%w: %q in budget %q", core.ErrCategoryNotFound, categoryID, budgetID)
	}
	return c, err
}

func (s *Store) TransactionsSince(ctx context.Context, budgetID string, since core.Date) ([]core.Transaction, error) {
	if err := s.requireBudget(ctx, budgetID); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, date, amount, payee_name, category_name FROM transactions
		 WHERE budget_id = ? AND date >= ? ORDER BY position`, budgetID, since.String())
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	var txs []core.Transaction
	index := make(map[string]int)
	for rows.Next() {
		var (
			t             core.Transaction
			date          string
			amount        int64
			payee, catNam sql.NullString
		)
		if err := rows.Scan(&t.ID, &date, &amount, &payee, &catNam); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		if t.Date, err = core.ParseDate(date); err != nil {
			rows.Close()
			return nil, fmt.Errorf("transaction %s: %w", t.ID, err)
		}
		t.Amount = core.Milliunits(amount)
		t.PayeeName = stringPtr(payee)
		t.CategoryName = stringPtr(catNam)
		index[t.ID] = len(txs)
		txs = append(txs, t)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	srows, err := s.db.QueryContext(ctx,
		`SELECT transaction_id, amount, payee_name, category_name FROM subtransactions
		 WHERE budget_id = ? ORDER BY transaction_id, position`, budgetID)
	if err != nil {
		return nil, fmt.Errorf("query subtransactions: %w", err)
	}
	defer srows.Close()
	for srows.Next() {
		var (
			txID          string
			amount        int64
			payee, catNam sql.NullString
		)
		if err := srows.Scan(&txID, &amount, &payee, &catNam); err != nil {
			return nil, fmt.Errorf("scan subtransaction: %w", err)
		}
		i, ok := index[txID]
		if !ok {
			continue
		}
		txs[i].Subtransactions = append(txs[i].Subtransactions, core.SubTransaction{
			Amount:       core.Milliunits(amount),
			PayeeName:    stringPtr(payee),
			CategoryName: stringPtr(catNam),
		})
	}
	return txs, srows.Err()
}

func (s *Store) requireBudget(ctx context.Context, budgetID string) error {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM budgets WHERE id = ?`, budgetID).Scan(&n); err != nil {
		return fmt.Errorf("lookup budget: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: id %q", core.ErrBudgetNotFound, budgetID)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

// scanCategory reads the shared category columns, prefixed by group_id when
// groupID is non-nil.
func scanCategory(sc scanner, groupID *string) (core.Category, error) {
	var (
		c        core.Category
		group    sql.NullString
		budgeted int64
		balance  int64
		cadence  sql.NullInt64
		target   sql.NullInt64
	)
	dest := []any{&c.ID, &c.Name, &group, &budgeted, &balance, &cadence, &target, &c.Hidden}
	if groupID != nil {
		dest = append([]any{groupID}, dest...)
	}
	if err := sc.Scan(dest...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.Category{}, err
		}
		return core.Category{}, fmt.Errorf("scan category: %w", err)
	}
	c.GroupName = stringPtr(group)
	c.Budgeted = core.Milliunits(budgeted)
	c.Balance = core.Milliunits(balance)
	if cadence.Valid {
		v := int(cadence.Int64)
		c.GoalCadence = &v
	}
	if target.Valid {
		c.GoalTarget = core.Milliunits(target.Int64).Ptr()
	}
	return c, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nullInt(i *int) sql.NullInt64 {
	if i == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*i), Valid: true}
}

func nullMilliunits(m *core.Milliunits) sql.NullInt64 {
	if m == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*m), Valid: true}
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}
