package timerange

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"ledger-assistant/internal/models"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestResolve(t *testing.T) {
	tests := []struct {
		name          string
		tr            models.TimeRange
		now           time.Time
		expectedStart time.Time
		expectedEnd   time.Time
	}{
		{
			name:          "current month mid-year",
			tr:            models.TimeRange{Type: models.RangeCurrentMonth},
			now:           date(2024, time.June, 15),
			expectedStart: date(2024, time.June, 1),
			expectedEnd:   date(2024, time.June, 30),
		},
		{
			name:          "current month in February of a leap year",
			tr:            models.TimeRange{Type: models.RangeCurrentMonth},
			now:           date(2024, time.February, 10),
			expectedStart: date(2024, time.February, 1),
			expectedEnd:   date(2024, time.February, 29),
		},
		{
			name:          "last month rolls back across the year boundary",
			tr:            models.TimeRange{Type: models.RangeLastMonth},
			now:           date(2025, time.January, 5),
			expectedStart: date(2024, time.December, 1),
			expectedEnd:   date(2024, time.December, 31),
		},
		{
			name:          "last month within a year",
			tr:            models.TimeRange{Type: models.RangeLastMonth},
			now:           date(2024, time.March, 31),
			expectedStart: date(2024, time.February, 1),
			expectedEnd:   date(2024, time.February, 29),
		},
		{
			name:          "fiscal year resolved in December",
			tr:            models.TimeRange{Type: models.RangeCurrentFiscalYear},
			now:           date(2024, time.December, 1),
			expectedStart: date(2024, time.November, 1),
			expectedEnd:   date(2025, time.October, 31),
		},
		{
			name:          "fiscal year resolved in May belongs to the prior year",
			tr:            models.TimeRange{Type: models.RangeCurrentFiscalYear},
			now:           date(2024, time.May, 1),
			expectedStart: date(2023, time.November, 1),
			expectedEnd:   date(2024, time.October, 31),
		},
		{
			name:          "fiscal year boundary on November 1st",
			tr:            models.TimeRange{Type: models.RangeCurrentFiscalYear},
			now:           date(2024, time.November, 1),
			expectedStart: date(2024, time.November, 1),
			expectedEnd:   date(2025, time.October, 31),
		},
		{
			name:          "fiscal year boundary on October 31st",
			tr:            models.TimeRange{Type: models.RangeCurrentFiscalYear},
			now:           date(2024, time.October, 31),
			expectedStart: date(2023, time.November, 1),
			expectedEnd:   date(2024, time.October, 31),
		},
		{
			name: "custom with both bounds",
			tr: models.TimeRange{
				Type:      models.RangeCustom,
				StartDate: "2024-02-01",
				EndDate:   "2024-02-15",
			},
			now:           date(2024, time.June, 1),
			expectedStart: date(2024, time.February, 1),
			expectedEnd:   date(2024, time.February, 15),
		},
		{
			name:          "custom missing bounds fall back to Jan 1 and today",
			tr:            models.TimeRange{Type: models.RangeCustom},
			now:           date(2024, time.June, 15),
			expectedStart: date(2024, time.January, 1),
			expectedEnd:   date(2024, time.June, 15),
		},
		{
			name: "custom unparseable bounds use the same fallbacks",
			tr: models.TimeRange{
				Type:      models.RangeCustom,
				StartDate: "June 1st",
				EndDate:   "someday",
			},
			now:           date(2024, time.June, 15),
			expectedStart: date(2024, time.January, 1),
			expectedEnd:   date(2024, time.June, 15),
		},
		{
			name:          "all returns the wide sentinel range",
			tr:            models.TimeRange{Type: models.RangeAll},
			now:           date(2024, time.June, 15),
			expectedStart: date(2000, time.January, 1),
			expectedEnd:   date(2024, time.June, 15),
		},
		{
			name:          "unknown type defaults to current fiscal year",
			tr:            models.TimeRange{Type: "sometime"},
			now:           date(2024, time.December, 1),
			expectedStart: date(2024, time.November, 1),
			expectedEnd:   date(2025, time.October, 31),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end := Resolve(tt.tr, tt.now)
			assert.Equal(t, tt.expectedStart, start)
			assert.Equal(t, tt.expectedEnd, end)
		})
	}
}

func TestResolve_IsPure(t *testing.T) {
	tr := models.TimeRange{Type: models.RangeCurrentFiscalYear}
	now := date(2024, time.December, 1)

	s1, e1 := Resolve(tr, now)
	for i := 0; i < 10; i++ {
		s2, e2 := Resolve(tr, now)
		assert.Equal(t, s1, s2)
		assert.Equal(t, e1, e2)
	}
}

func TestFiscalYearOf(t *testing.T) {
	assert.Equal(t, 2024, FiscalYearOf(date(2024, time.November, 1)))
	assert.Equal(t, 2024, FiscalYearOf(date(2025, time.March, 1)))
	assert.Equal(t, 2023, FiscalYearOf(date(2024, time.October, 31)))
}
