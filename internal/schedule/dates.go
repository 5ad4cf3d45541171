package schedule

import "time"

// addMonthsClamped returns the date `months` calendar months after t, on
// `day` of that month, clamped to the month's length (day 31 in a 30-day
// month becomes the 30th). time.AddDate is avoided because it normalizes
// overflow (Jan 31 + 1 month = Mar 2/3).
func addMonthsClamped(t time.Time, months int, day int) time.Time {
	firstOfTarget := time.Date(t.Year(), t.Month()+time.Month(months), 1, 0, 0, 0, 0, t.Location())
	if last := DaysInMonth(firstOfTarget.Year(), firstOfTarget.Month()); day > last {
		day = last
	}
	return time.Date(firstOfTarget.Year(), firstOfTarget.Month(), day, 0, 0, 0, 0, t.Location())
}

// DaysInMonth returns the number of days in the given month.
func DaysInMonth(year int, month time.Month) int {
	// Day 0 of the next month is the last day of this one.
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
