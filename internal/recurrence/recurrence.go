// Package recurrence computes next-occurrence dates for recurring
// transaction rules. Pure calendar math with no clock reads, so executions
// are reproducible and testable independent of wall time.
package recurrence

import (
	"time"

	"github.com/casabook/casabook-api/internal/models"
)

// Next returns the occurrence that follows current for the given frequency
// and interval. Intervals below 1 are treated as 1.
//
//   - daily: current + interval days
//   - weekly: current + interval*7 days
//   - monthly: current + interval months, preserving the day-of-month with
//     end-of-month clamping. The clamped day is preserved going forward:
//     Jan 31 -> Feb 29 -> Mar 29, it does not recover to the 31st.
//   - yearly: current + interval years, Feb 29 clamped to Feb 28 off leap years
//   - custom: interval interpreted as days (deliberate simplification)
func Next(current time.Time, frequency string, interval int) time.Time {
	if interval < 1 {
		interval = 1
	}

	switch frequency {
	case models.FrequencyDaily:
		return current.AddDate(0, 0, interval)
	case models.FrequencyWeekly:
		return current.AddDate(0, 0, interval*7)
	case models.FrequencyMonthly:
		return addMonthsPreservingDay(current, interval)
	case models.FrequencyYearly:
		return addYearsClamped(current, interval)
	default:
		// Custom and unknown frequencies fall back to day counting.
		return current.AddDate(0, 0, interval)
	}
}

// ValidFrequency reports whether the frequency is one of the supported kinds.
func ValidFrequency(frequency string) bool {
	switch frequency {
	case models.FrequencyDaily, models.FrequencyWeekly, models.FrequencyMonthly,
		models.FrequencyYearly, models.FrequencyCustom:
		return true
	}
	return false
}

func addMonthsPreservingDay(t time.Time, months int) time.Time {
	firstOfTarget := time.Date(t.Year(), t.Month()+time.Month(months), 1, 0, 0, 0, 0, t.Location())
	day := t.Day()
	if last := daysInMonth(firstOfTarget.Year(), firstOfTarget.Month()); day > last {
		day = last
	}
	return time.Date(firstOfTarget.Year(), firstOfTarget.Month(), day, 0, 0, 0, 0, t.Location())
}

func addYearsClamped(t time.Time, years int) time.Time {
	year := t.Year() + years
	day := t.Day()
	if last := daysInMonth(year, t.Month()); day > last {
		day = last // Feb 29 on a non-leap target year
	}
	return time.Date(year, t.Month(), day, 0, 0, 0, 0, t.Location())
}

func daysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
