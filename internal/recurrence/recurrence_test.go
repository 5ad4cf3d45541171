package recurrence

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/casabook/casabook-api/internal/models"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestNextDaily(t *testing.T) {
	assert.Equal(t, date(2024, time.March, 2), Next(date(2024, time.March, 1), models.FrequencyDaily, 1))
	assert.Equal(t, date(2024, time.March, 11), Next(date(2024, time.March, 1), models.FrequencyDaily, 10))
	// Crosses the leap day
	assert.Equal(t, date(2024, time.February, 29), Next(date(2024, time.February, 28), models.FrequencyDaily, 1))
}

func TestNextWeekly(t *testing.T) {
	assert.Equal(t, date(2024, time.March, 8), Next(date(2024, time.March, 1), models.FrequencyWeekly, 1))
	assert.Equal(t, date(2024, time.March, 29), Next(date(2024, time.March, 1), models.FrequencyWeekly, 4))
}

func TestNextMonthlyEndOfMonthClamping(t *testing.T) {
	// Jan 31 -> Feb 29 on a leap year
	assert.Equal(t, date(2024, time.February, 29), Next(date(2024, time.January, 31), models.FrequencyMonthly, 1))

	// Jan 31 -> Feb 28 on a non-leap year
	assert.Equal(t, date(2025, time.February, 28), Next(date(2025, time.January, 31), models.FrequencyMonthly, 1))

	// The clamped day is preserved: Feb 29 -> Mar 29, no recovery to the 31st
	assert.Equal(t, date(2024, time.March, 29), Next(date(2024, time.February, 29), models.FrequencyMonthly, 1))

	// May 31 -> Jun 30
	assert.Equal(t, date(2024, time.June, 30), Next(date(2024, time.May, 31), models.FrequencyMonthly, 1))

	// Multi-month interval crossing a year boundary
	assert.Equal(t, date(2025, time.January, 15), Next(date(2024, time.November, 15), models.FrequencyMonthly, 2))
}

func TestNextMonthlySequenceFromJan31(t *testing.T) {
	// Spec example: monthly from 2024-01-31 runs 02-29, then 03-29.
	first := Next(date(2024, time.January, 31), models.FrequencyMonthly, 1)
	assert.Equal(t, date(2024, time.February, 29), first)

	second := Next(first, models.FrequencyMonthly, 1)
	assert.Equal(t, date(2024, time.March, 29), second)
}

func TestNextYearly(t *testing.T) {
	assert.Equal(t, date(2025, time.June, 15), Next(date(2024, time.June, 15), models.FrequencyYearly, 1))

	// Feb 29 clamps to Feb 28 on non-leap years
	assert.Equal(t, date(2025, time.February, 28), Next(date(2024, time.February, 29), models.FrequencyYearly, 1))

	// Feb 29 to Feb 29 across a 4-year interval
	assert.Equal(t, date(2028, time.February, 29), Next(date(2024, time.February, 29), models.FrequencyYearly, 4))
}

func TestNextCustomFallsBackToDays(t *testing.T) {
	assert.Equal(t, date(2024, time.March, 15), Next(date(2024, time.March, 1), models.FrequencyCustom, 14))
}

func TestNextClampsInterval(t *testing.T) {
	assert.Equal(t, date(2024, time.March, 2), Next(date(2024, time.March, 1), models.FrequencyDaily, 0))
}

func TestNextIsMonotonic(t *testing.T) {
	frequencies := []string{
		models.FrequencyDaily, models.FrequencyWeekly,
		models.FrequencyMonthly, models.FrequencyYearly, models.FrequencyCustom,
	}

	for _, freq := range frequencies {
		current := date(2024, time.January, 31)
		for i := 0; i < 24; i++ {
			next := Next(current, freq, 1)
			assert.True(t, next.After(current), "%s occurrence must advance: %s -> %s", freq, current, next)
			current = next
		}
	}
}
