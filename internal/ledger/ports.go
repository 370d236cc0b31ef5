// Package ledger declares the read surface of a budgeting ledger and the
// snapshot exchanged between ledger backends.
package ledger

import (
	"context"
	"time"

	"weekbudget/internal/core"
)

// Ports for ledger adapters.
type (
	BudgetLister interface {
		Budgets(ctx context.Context) ([]core.BudgetSummary, error)
	}

	CategoryReader interface {
		CategoryGroups(ctx context.Context, budgetID string) ([]core.CategoryGroup, error)
		// MonthCategory returns a category with budgeted and balance scoped to
		// the month containing month.
		MonthCategory(ctx context.Context, budgetID string, month core.Date, categoryID string) (core.Category, error)
	}

	TransactionLister interface {
		// TransactionsSince returns transactions dated on or after since.
		TransactionsSince(ctx context.Context, budgetID string, since core.Date) ([]core.Transaction, error)
	}

	// Reader is everything a weekly report needs from a ledger.
	Reader interface {
		BudgetLister
		CategoryReader
		TransactionLister
	}

	// SnapshotWriter persists a copy of a ledger for offline reporting.
	SnapshotWriter interface {
		SaveSnapshot(ctx context.Context, s Snapshot) error
	}
)

// Snapshot is a point-in-time copy of one budget, enough to build a report for
// any week starting on or after Since.
type Snapshot struct {
	Budget          core.BudgetSummary
	Groups          []core.CategoryGroup
	Month           core.Date
	MonthCategories []core.Category
	Since           core.Date
	Transactions    []core.Transaction
	TakenAt         time.Time
}
