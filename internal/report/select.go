// Package report turns ledger snapshots into the weekly spending table and its
// per-group totals. Everything here is a pure transformation over immutable
// inputs.
package report

import (
	"fmt"
	"sort"
	"strings"

	"weekbudget/internal/core"
)

// Selection is the outcome of matching the watch list against the fetched
// category groups.
type Selection struct {
	// Missing holds watched group names absent from the ledger, sorted.
	Missing []string
	// Categories are the non-hidden categories of watched groups, in ledger
	// order and not deduplicated.
	Categories []core.Category
}

// BudgetID resolves the id of the budget called name.
func BudgetID(budgets []core.BudgetSummary, name string) (string, error) {
	for _, b := range budgets {
		if b.Name == name {
			return b.ID, nil
		}
	}
	known := make([]string, 0, len(budgets))
	for _, b := range budgets {
		known = append(known, b.Name)
	}
	return "", fmt.Errorf("%w: %q (available: %s)", core.ErrBudgetNotFound, name, strings.Join(known, ", "))
}

// Select applies the watch list to groups.
func Select(groups []core.CategoryGroup, watch core.WatchList) (Selection, error) {
	for _, g := range groups {
		if err := g.Validate(); err != nil {
			return Selection{}, err
		}
	}
	return Selection{
		Missing:    MissingGroups(groups, watch),
		Categories: WatchedCategories(groups, watch),
	}, nil
}

// MissingGroups lists watch-list names that match no group.
func MissingGroups(groups []core.CategoryGroup, watch core.WatchList) []string {
	present := make(map[string]struct{}, len(groups))
	for _, g := range groups {
		present[g.Name] = struct{}{}
	}
	var missing []string
	for _, name := range watch.Names() {
		if _, ok := present[name]; !ok {
			missing = append(missing, name)
		}
	}
	sort.Strings(missing)
	return missing
}

// WatchedCategories flattens the non-hidden categories of every watched group.
func WatchedCategories(groups []core.CategoryGroup, watch core.WatchList) []core.Category {
	var out []core.Category
	for _, g := range groups {
		if !watch.Has(g.Name) {
			continue
		}
		for _, c := range g.Categories {
			if c.Hidden {
				continue
			}
			out = append(out, c)
		}
	}
	return out
}
