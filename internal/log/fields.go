package log

import "weekbudget/internal/core"

// Common field names for structured logging
const (
	FieldComponent  = "component"
	FieldRunID      = "run_id"
	FieldError      = "error"
	FieldOperation  = "operation"
	FieldBudget     = "budget"
	FieldBudgetID   = "budget_id"
	FieldWeek       = "week"
	FieldWeekStart  = "week_start"
	FieldWeekEnd    = "week_end"
	FieldCategoryID = "category_id"
	FieldCount      = "count"
	FieldGroups     = "groups"
	FieldBackend    = "backend"
	FieldOutput     = "output"
	FieldPath       = "path"
	FieldDuration   = "duration_ms"
)

// Components defines standard component names
const (
	ComponentApp     = "app"
	ComponentConfig  = "config"
	ComponentBackend = "backend"
	ComponentLedger  = "ledger"
	ComponentReport  = "report"
	ComponentRender  = "render"
	ComponentStorage = "storage"
	ComponentSheets  = "sheets"
	ComponentAMQP    = "amqp"
)

// Operations defines standard operation names
const (
	OpFetch    = "fetch"
	OpBuild    = "build"
	OpRender   = "render"
	OpPublish  = "publish"
	OpSnapshot = "snapshot"
	OpValidate = "validate"
	OpShutdown = "shutdown"
)

// LogFields provides a builder pattern for structured log fields
type LogFields map[string]any

// NewFields creates a new LogFields instance
func NewFields() LogFields {
	return make(LogFields)
}

// WithComponent adds component field
func (f LogFields) WithComponent(component string) LogFields {
	f[FieldComponent] = component
	return f
}

// WithError adds error field
func (f LogFields) WithError(err error) LogFields {
	if err != nil {
		f[FieldError] = err.Error()
	}
	return f
}

// WithOperation adds operation field
func (f LogFields) WithOperation(op string) LogFields {
	f[FieldOperation] = op
	return f
}

// WithWeek adds the reporting window
func (f LogFields) WithWeek(w core.WeekSegment) LogFields {
	f[FieldWeek] = w.Number
	f[FieldWeekStart] = w.Start.String()
	f[FieldWeekEnd] = w.End.String()
	return f
}

// WithBudget adds budget name and id
func (f LogFields) WithBudget(name, id string) LogFields {
	f[FieldBudget] = name
	if id != "" {
		f[FieldBudgetID] = id
	}
	return f
}

// ToSlice converts LogFields to a slice for slog
func (f LogFields) ToSlice() []any {
	slice := make([]any, 0, len(f)*2)
	for k, v := range f {
		slice = append(slice, k, v)
	}
	return slice
}
