package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

type (
	// Date is a calendar day at UTC midnight.
	Date struct {
		time.Time
	}

	BudgetSummary struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}

	CategoryGroup struct {
		ID         string     `json:"id"`
		Name       string     `json:"name"`
		Hidden     bool       `json:"hidden"`
		Deleted    bool       `json:"deleted"`
		Categories []Category `json:"categories"`
	}

	Category struct {
		ID          string      `json:"id"`
		Name        string      `json:"name"`
		GroupName   *string     `json:"category_group_name,omitempty"`
		Budgeted    Milliunits  `json:"budgeted"`
		Balance     Milliunits  `json:"balance"`
		GoalCadence *int        `json:"goal_cadence,omitempty"`
		GoalTarget  *Milliunits `json:"goal_target,omitempty"`
		Hidden      bool        `json:"hidden"`
	}

	Transaction struct {
		ID              string           `json:"id"`
		Date            Date             `json:"date"`
		Amount          Milliunits       `json:"amount"`
		PayeeName       *string          `json:"payee_name,omitempty"`
		CategoryName    *string          `json:"category_name,omitempty"`
		Subtransactions []SubTransaction `json:"subtransactions"`
	}

	SubTransaction struct {
		Amount       Milliunits `json:"amount"`
		PayeeName    *string    `json:"payee_name,omitempty"`
		CategoryName *string    `json:"category_name,omitempty"`
	}
)

var (
	ErrWeekNotFound      = errors.New("week not found")
	ErrBudgetNotFound    = errors.New("budget not found")
	ErrCategoryNotFound  = errors.New("category not found")
	ErrMalformedRecord   = errors.New("malformed ledger record")
	ErrInvalidDate       = errors.New("invalid date")
	ErrEmptyWatchList    = errors.New("empty watch list")
	ErrDuplicateWatchKey = errors.New("duplicate watch list group")
)

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar day in t's own location.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), int(t.Month()), t.Day())
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("%w %q: %v", ErrInvalidDate, s, err)
	}
	return Date{Time: t}, nil
}

func (d Date) Validate() error {
	if d.IsZero() {
		return errors.New("date cannot be zero")
	}
	return nil
}

// Day returns the day of the month
func (d Date) Day() int {
	return d.Time.Day()
}

// Month returns the month
func (d Date) Month() int {
	return int(d.Time.Month())
}

// Year returns the year
func (d Date) Year() int {
	return d.Time.Year()
}

// AddDays returns the date n days later (earlier for negative n).
func (d Date) AddDays(n int) Date {
	return Date{Time: d.Time.AddDate(0, 0, n)}
}

// DaysUntil returns the whole number of days from d to other.
func (d Date) DaysUntil(other Date) int {
	return int(other.Time.Sub(d.Time) / (24 * time.Hour))
}

func (d Date) Before(other Date) bool { return d.Time.Before(other.Time) }
func (d Date) After(other Date) bool  { return d.Time.After(other.Time) }
func (d Date) Equal(other Date) bool  { return d.Time.Equal(other.Time) }

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(dateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// FirstOfMonth returns the first day of d's month.
func (d Date) FirstOfMonth() Date {
	return NewDate(d.Year(), d.Month(), 1)
}

func (c Category) Validate() error {
	if strings.TrimSpace(c.ID) == "" {
		return &DataError{Entity: "category", ID: c.Name, Field: "id"}
	}
	if strings.TrimSpace(c.Name) == "" {
		return &DataError{Entity: "category", ID: c.ID, Field: "name"}
	}
	return nil
}

func (g CategoryGroup) Validate() error {
	if strings.TrimSpace(g.ID) == "" {
		return &DataError{Entity: "category group", ID: g.Name, Field: "id"}
	}
	if strings.TrimSpace(g.Name) == "" {
		return &DataError{Entity: "category group", ID: g.ID, Field: "name"}
	}
	return nil
}

func (t Transaction) Validate() error {
	if strings.TrimSpace(t.ID) == "" {
		return &DataError{Entity: "transaction", ID: t.Date.String(), Field: "id"}
	}
	if err := t.Date.Validate(); err != nil {
		return &DataError{Entity: "transaction", ID: t.ID, Field: "date"}
	}
	return nil
}

// DataError reports a ledger record that is missing a required field.
type DataError struct {
	Entity string
	ID     string
	Field  string
}

func (e *DataError) Error() string {
	return fmt.Sprintf("%s %q: missing %s", e.Entity, e.ID, e.Field)
}

func (e *DataError) Unwrap() error { return ErrMalformedRecord }

// WeekLookupError means a date could not be placed in its month's partition.
type WeekLookupError struct {
	Date Date
}

func (e *WeekLookupError) Error() string {
	return fmt.Sprintf("date %s not found in month weeks for %04d-%02d", e.Date, e.Date.Year(), e.Date.Month())
}

func (e *WeekLookupError) Unwrap() error { return ErrWeekNotFound }
