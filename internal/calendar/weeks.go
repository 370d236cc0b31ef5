// Package calendar splits a year into Sunday-anchored weeks clipped to month
// boundaries.
//
// Every window of seven days starting on a Sunday receives a number counted from
// the window containing January 1st. A window that straddles two months yields
// one segment per month, both carrying the window's number.
package calendar

import (
	"time"

	"weekbudget/internal/core"
)

const daysPerWeek = 7

// PartitionYear returns every week segment of year in window order, months
// ascending within a window. The segments cover each day of the year once.
func PartitionYear(year int) []core.WeekSegment {
	first := core.NewDate(year, 1, 1)
	last := core.NewDate(year, 12, 31)

	anchor := previousSunday(first)
	lastWindowEnd := previousSunday(last).AddDays(daysPerWeek - 1)
	windows := anchor.DaysUntil(lastWindowEnd)/daysPerWeek + 1

	segments := make([]core.WeekSegment, 0, windows+12)
	for offset := 0; offset < windows; offset++ {
		windowStart := anchor.AddDays(daysPerWeek * offset)
		windowEnd := windowStart.AddDays(daysPerWeek - 1)

		for _, month := range monthsInWindow(windowStart, year) {
			start, end := firstOfMonth(year, month), lastOfMonth(year, month)
			if windowStart.After(start) {
				start = windowStart
			}
			if windowEnd.Before(end) {
				end = windowEnd
			}
			segments = append(segments, core.WeekSegment{
				Month:  month,
				Start:  start,
				End:    end,
				Number: offset + 1,
			})
		}
	}
	return segments
}

// MonthWeeks returns the segments of PartitionYear(year) that belong to month.
func MonthWeeks(year, month int) []core.WeekSegment {
	var out []core.WeekSegment
	for _, w := range PartitionYear(year) {
		if w.Month == month {
			out = append(out, w)
		}
	}
	return out
}

// WeekForDate resolves the segment containing d. A failure means the partition
// is broken and is reported as *core.WeekLookupError.
func WeekForDate(d core.Date) (core.WeekSegment, error) {
	d = core.DateOf(d.Time)
	for _, w := range MonthWeeks(d.Year(), d.Month()) {
		if w.Contains(d) {
			return w, nil
		}
	}
	return core.WeekSegment{}, &core.WeekLookupError{Date: d}
}

// WeekNumber is the closed form of a segment number: whole weeks between the
// Sunday on or before d and the Sunday on or before January 1st, plus one.
func WeekNumber(d core.Date) int {
	return previousSunday(core.NewDate(d.Year(), 1, 1)).DaysUntil(previousSunday(d))/daysPerWeek + 1
}

// monthsInWindow lists, ascending, the months of year touched by the seven
// days starting at start.
func monthsInWindow(start core.Date, year int) []int {
	var months []int
	for i := 0; i < daysPerWeek; i++ {
		day := start.AddDays(i)
		if day.Year() != year {
			continue
		}
		if n := len(months); n == 0 || months[n-1] != day.Month() {
			months = append(months, day.Month())
		}
	}
	return months
}

func previousSunday(d core.Date) core.Date {
	return d.AddDays(-int(d.Weekday() - time.Sunday))
}

func firstOfMonth(year, month int) core.Date {
	return core.NewDate(year, month, 1)
}

func lastOfMonth(year, month int) core.Date {
	// day zero of the next month normalises to the last day of this one
	return core.NewDate(year, month+1, 0)
}
