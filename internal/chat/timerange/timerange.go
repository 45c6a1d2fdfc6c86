// Package timerange resolves symbolic time ranges to concrete date
// intervals. Resolution is a pure function of the range and a reference
// date, which keeps every caller testable with a fixed clock.
package timerange

import (
	"time"

	"ledger-assistant/internal/models"
)

// Fiscal year N runs from Nov 1 of year N through Oct 31 of year N+1.
const fiscalYearStartMonth = time.November

// allRangeStart is the sentinel lower bound for "all" queries.
var allRangeStart = time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC)

// Resolve computes the inclusive [start, end] dates for tr as seen from
// now. Unknown range types fall back to the current fiscal year.
func Resolve(tr models.TimeRange, now time.Time) (time.Time, time.Time) {
	today := truncateToDay(now)

	switch tr.Type {
	case models.RangeCurrentMonth:
		start := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, time.UTC)
		end := start.AddDate(0, 1, -1)
		return start, end

	case models.RangeLastMonth:
		firstOfThis := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, time.UTC)
		start := firstOfThis.AddDate(0, -1, 0)
		end := firstOfThis.AddDate(0, 0, -1)
		return start, end

	case models.RangeCustom:
		start := time.Date(today.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
		if parsed, err := time.Parse("2006-01-02", tr.StartDate); err == nil {
			start = parsed
		}
		end := today
		if parsed, err := time.Parse("2006-01-02", tr.EndDate); err == nil {
			end = parsed
		}
		return start, end

	case models.RangeAll:
		return allRangeStart, today

	case models.RangeCurrentFiscalYear:
		return fiscalYear(today)

	default:
		// Unresolvable ranges default to the current fiscal year.
		return fiscalYear(today)
	}
}

// FiscalYearOf returns the fiscal year number a date belongs to.
func FiscalYearOf(t time.Time) int {
	if t.Month() >= fiscalYearStartMonth {
		return t.Year()
	}
	return t.Year() - 1
}

// FiscalYearRange returns the inclusive bounds of fiscal year n.
func FiscalYearRange(n int) (time.Time, time.Time) {
	start := time.Date(n, fiscalYearStartMonth, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(n+1, time.October, 31, 0, 0, 0, 0, time.UTC)
	return start, end
}

func fiscalYear(today time.Time) (time.Time, time.Time) {
	return FiscalYearRange(FiscalYearOf(today))
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
