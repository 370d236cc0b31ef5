package render

import (
	"fmt"

	"weekbudget/internal/core"
)

// Headline describes the reporting week, e.g.
// "Week 11 of 2024, starting on Sunday 2024-03-10 and ending on Saturday 2024-03-16".
func Headline(w core.WeekSegment) string {
	return fmt.Sprintf("Week %d of %d, starting on %s and ending on %s",
		w.Number, w.Start.Year(), w.Start.Format("Monday 2006-01-02"), w.End.Format("Monday 2006-01-02"))
}

// ShortDate renders "Mar 9" without day padding.
func ShortDate(d core.Date) string {
	return d.Format("Jan 2")
}

// WeekLabel is the compact title used by the visual report.
func WeekLabel(w core.WeekSegment) string {
	return fmt.Sprintf("Week %d (%s - %s)", w.Number, ShortDate(w.Start), ShortDate(w.End))
}
