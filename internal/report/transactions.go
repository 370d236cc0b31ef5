package report

import "weekbudget/internal/core"

// TransactionRow is one categorised movement after splitting subtransactions.
type TransactionRow struct {
	Date         core.Date
	Amount       float64
	Payee        *string
	CategoryName string
}

// ExpandTransaction splits tx into categorised rows.
// Uncategorised subtransactions are dropped, and so is an uncategorised
// transaction without subtransactions.
func ExpandTransaction(tx core.Transaction) []TransactionRow {
	if len(tx.Subtransactions) > 0 {
		rows := make([]TransactionRow, 0, len(tx.Subtransactions))
		for _, sub := range tx.Subtransactions {
			category, ok := present(sub.CategoryName)
			if !ok {
				continue
			}
			payee := sub.PayeeName
			if payee == nil {
				payee = tx.PayeeName
			}
			rows = append(rows, TransactionRow{
				Date:         tx.Date,
				Amount:       sub.Amount.Display(),
				Payee:        payee,
				CategoryName: category,
			})
		}
		return rows
	}

	category, ok := present(tx.CategoryName)
	if !ok {
		return nil
	}
	return []TransactionRow{{
		Date:         tx.Date,
		Amount:       tx.Amount.Display(),
		Payee:        tx.PayeeName,
		CategoryName: category,
	}}
}

// ExpandTransactions expands every transaction, failing on the first
// malformed record.
func ExpandTransactions(txs []core.Transaction) ([]TransactionRow, error) {
	var rows []TransactionRow
	for _, tx := range txs {
		if err := tx.Validate(); err != nil {
			return nil, err
		}
		rows = append(rows, ExpandTransaction(tx)...)
	}
	return rows, nil
}

// FilterWindow keeps rows dated within [start, end].
func FilterWindow(rows []TransactionRow, start, end core.Date) []TransactionRow {
	var out []TransactionRow
	for _, r := range rows {
		if r.Date.Before(start) || r.Date.After(end) {
			continue
		}
		out = append(out, r)
	}
	return out
}

// SpentByCategory sums row amounts per category name, restricted to watched.
func SpentByCategory(rows []TransactionRow, watched map[string]struct{}) map[string]float64 {
	spent := make(map[string]float64)
	for _, r := range rows {
		if _, ok := watched[r.CategoryName]; !ok {
			continue
		}
		spent[r.CategoryName] += r.Amount
	}
	return spent
}

func present(s *string) (string, bool) {
	if s == nil || *s == "" {
		return "", false
	}
	return *s, true
}
