package core

import (
	"fmt"
	"time"
)

// WeekSegment is a Sunday-anchored seven day window clipped to one month.
// Two segments cut from the same window share a Number.
type WeekSegment struct {
	Month  int  `json:"month"`
	Start  Date `json:"week_start"`
	End    Date `json:"week_end"`
	Number int  `json:"week_number"`
}

// Dates lists every day of the segment in order.
func (w WeekSegment) Dates() []Date {
	n := w.Start.DaysUntil(w.End) + 1
	if n <= 0 {
		return nil
	}
	days := make([]Date, 0, n)
	for i := 0; i < n; i++ {
		days = append(days, w.Start.AddDays(i))
	}
	return days
}

// Contains reports whether d falls within the segment, inclusive.
func (w WeekSegment) Contains(d Date) bool {
	return !d.Before(w.Start) && !d.After(w.End)
}

// Validate checks the clipping invariants of a single segment.
func (w WeekSegment) Validate() error {
	if w.Month < 1 || w.Month > 12 {
		return fmt.Errorf("week %d: month %d out of range", w.Number, w.Month)
	}
	if w.Number < 1 {
		return fmt.Errorf("week %d: number must be positive", w.Number)
	}
	if w.End.Before(w.Start) {
		return fmt.Errorf("week %d: start %s after end %s", w.Number, w.Start, w.End)
	}
	if w.Start.Month() != w.Month || w.End.Month() != w.Month || w.Start.Year() != w.End.Year() {
		return fmt.Errorf("week %d: dates %s..%s leave month %d", w.Number, w.Start, w.End, w.Month)
	}
	if w.Start.Weekday() != time.Sunday && w.Start.Day() != 1 {
		return fmt.Errorf("week %d: start %s is neither Sunday nor first of month", w.Number, w.Start)
	}
	if w.End.Weekday() != time.Saturday && !w.End.AddDays(1).FirstOfMonth().Equal(w.End.AddDays(1)) {
		return fmt.Errorf("week %d: end %s is neither Saturday nor last of month", w.Number, w.End)
	}
	return nil
}

func (w WeekSegment) String() string {
	return fmt.Sprintf("week %d (%s..%s)", w.Number, w.Start, w.End)
}
