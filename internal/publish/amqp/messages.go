package amqp

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"weekbudget/internal/core"
	"weekbudget/internal/publish"
)

// ReportMessage carries a complete weekly report so consumers need no ledger access
type ReportMessage struct {
	ID          string               `json:"id"`
	RunID       string               `json:"run_id"`
	BudgetName  string               `json:"budget_name"`
	Week        core.WeekSegment     `json:"week"`
	Rows        []core.ReportRow     `json:"rows"`
	Totals      []core.GroupTotalRow `json:"totals"`
	Missing     []string             `json:"missing_groups,omitempty"`
	GeneratedAt time.Time            `json:"generated_at"`
	Timestamp   time.Time            `json:"timestamp"`
}

// NewReportMessage creates a message with a fresh id
func NewReportMessage(p publish.Publication) *ReportMessage {
	return &ReportMessage{
		ID:          uuid.NewString(),
		RunID:       p.RunID,
		BudgetName:  p.BudgetName,
		Week:        p.Report.Week,
		Rows:        p.Report.Rows,
		Totals:      p.Report.Totals,
		Missing:     p.Missing,
		GeneratedAt: p.GeneratedAt,
		Timestamp:   time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *ReportMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ReportMessageFromJSON creates a message from JSON bytes
func ReportMessageFromJSON(data []byte) (*ReportMessage, error) {
	var msg ReportMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
