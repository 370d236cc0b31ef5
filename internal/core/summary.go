package core

const (
	MonthlyCadence Cadence = "monthly"
	AnnualCadence  Cadence = "annual"

	// UncategorizedGroup names categories that arrive without a group.
	UncategorizedGroup = "Uncategorized"
	// TotalGroup labels the synthetic grand-total row.
	TotalGroup = "Total"
)

type (
	// Cadence classifies a category's savings goal.
	Cadence string

	// ReportRow is one watched category in the weekly report.
	ReportRow struct {
		GroupName    string  `json:"category_group_name"`
		CategoryName string  `json:"category_name"`
		Budgeted     float64 `json:"budgeted"`
		Spent        float64 `json:"spent"`
		Balance      float64 `json:"balance"`
		Cadence      Cadence `json:"goal_cadence"`
	}

	// GroupTotalRow sums the report rows of one category group.
	GroupTotalRow struct {
		GroupName string  `json:"category_group_name"`
		Budgeted  float64 `json:"budgeted"`
		Spent     float64 `json:"spent"`
		Balance   float64 `json:"balance"`
	}
)

// IsAnnual reports whether the row's goal is budgeted per year.
func (r ReportRow) IsAnnual() bool {
	return r.Cadence == AnnualCadence
}
