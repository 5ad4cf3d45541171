package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/casabook/casabook-api/internal/models"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func sumPrincipal(schedule []Installment) int64 {
	var sum int64
	for _, inst := range schedule {
		sum += inst.PrincipalCents
	}
	return sum
}

func TestConventionalTwelvePercentTwelveMonths(t *testing.T) {
	// 120,000.00 at 12% annual over 12 months: monthly rate is exactly 1%,
	// so the first interest component is 120,000 cents.
	schedule, err := Conventional(12_000_000, 1200, 12, 15, date(2024, time.January, 15))
	require.NoError(t, err)
	require.Len(t, schedule, 12)

	assert.Equal(t, int64(120_000), schedule[0].InterestOrMarginCents)

	// Interest declines monotonically with the balance
	for i := 1; i < len(schedule); i++ {
		assert.Less(t, schedule[i].InterestOrMarginCents, schedule[i-1].InterestOrMarginCents,
			"interest must decrease at installment %d", i+1)
	}

	// Principal components sum to the principal exactly, no rounding leakage
	assert.Equal(t, int64(12_000_000), sumPrincipal(schedule))
	assert.Equal(t, int64(0), schedule[len(schedule)-1].RunningBalanceCents)

	// Fixed payment: every row but the last charges the same total
	for i := 1; i < len(schedule)-1; i++ {
		assert.Equal(t, schedule[0].TotalDueCents, schedule[i].TotalDueCents)
	}

	// Component identity holds on every row
	for _, inst := range schedule {
		assert.Equal(t, inst.TotalDueCents, inst.PrincipalCents+inst.InterestOrMarginCents)
	}
}

func TestConventionalPrincipalSumExactAcrossTerms(t *testing.T) {
	cases := []struct {
		principal int64
		rateBps   int64
		term      int
	}{
		{1_000_000, 550, 6},
		{33_333, 1999, 7},
		{99_999_999, 425, 360},
		{100, 1200, 3},
	}

	for _, tc := range cases {
		schedule, err := Conventional(tc.principal, tc.rateBps, tc.term, 1, date(2024, time.March, 1))
		require.NoError(t, err)
		require.Len(t, schedule, tc.term)
		assert.Equal(t, tc.principal, sumPrincipal(schedule),
			"principal leakage for P=%d rate=%d n=%d", tc.principal, tc.rateBps, tc.term)
		assert.Equal(t, int64(0), schedule[tc.term-1].RunningBalanceCents)
	}
}

func TestConventionalZeroRate(t *testing.T) {
	schedule, err := Conventional(1_000_000, 0, 4, 1, date(2024, time.June, 1))
	require.NoError(t, err)
	require.Len(t, schedule, 4)

	for _, inst := range schedule {
		assert.Equal(t, int64(0), inst.InterestOrMarginCents)
		assert.Equal(t, int64(250_000), inst.PrincipalCents)
	}
	assert.Equal(t, int64(1_000_000), sumPrincipal(schedule))
}

func TestConventionalSingleInstallmentBullet(t *testing.T) {
	schedule, err := Conventional(1_200_000, 1200, 1, 10, date(2024, time.April, 10))
	require.NoError(t, err)
	require.Len(t, schedule, 1)

	// One month of interest at 1% plus the whole principal
	assert.Equal(t, int64(1_200_000), schedule[0].PrincipalCents)
	assert.Equal(t, int64(12_000), schedule[0].InterestOrMarginCents)
	assert.Equal(t, int64(1_212_000), schedule[0].TotalDueCents)
	assert.Equal(t, int64(0), schedule[0].RunningBalanceCents)
}

func TestPersonalLoanFlatSpread(t *testing.T) {
	// 100,000.00 at 600 bps flat over 12 months: total interest = 6,000.00
	schedule, err := PersonalLoan(10_000_000, 600, 12, 5, date(2024, time.February, 5))
	require.NoError(t, err)
	require.Len(t, schedule, 12)

	assert.Equal(t, int64(10_000_000), sumPrincipal(schedule))

	var totalInterest int64
	for _, inst := range schedule {
		totalInterest += inst.InterestOrMarginCents
	}
	assert.Equal(t, int64(600_000), totalInterest)

	// Principal components differ by at most 1 cent
	var minP, maxP = schedule[0].PrincipalCents, schedule[0].PrincipalCents
	for _, inst := range schedule {
		if inst.PrincipalCents < minP {
			minP = inst.PrincipalCents
		}
		if inst.PrincipalCents > maxP {
			maxP = inst.PrincipalCents
		}
	}
	assert.LessOrEqual(t, maxP-minP, int64(1))
}

func TestPersonalLoanRemainderSpreadAcrossTailRows(t *testing.T) {
	// 1,000.00 over 7 months: 100000/7 = 14285 r 5, so the last five rows
	// each carry one extra cent.
	schedule, err := PersonalLoan(100_000, 0, 7, 1, date(2024, time.May, 1))
	require.NoError(t, err)
	require.Len(t, schedule, 7)

	assert.Equal(t, int64(14_285), schedule[0].PrincipalCents)
	assert.Equal(t, int64(14_285), schedule[1].PrincipalCents)
	for i := 2; i < 7; i++ {
		assert.Equal(t, int64(14_286), schedule[i].PrincipalCents)
	}
	assert.Equal(t, int64(100_000), sumPrincipal(schedule))
}

func TestPersonalLoanPrincipalComponentsNearEqual(t *testing.T) {
	// 10,000.00 at 600 bps over 12 months: 1000000/12 = 83333 r 4. The shares
	// must still differ by at most one cent.
	schedule, err := PersonalLoan(1_000_000, 600, 12, 1, date(2024, time.July, 1))
	require.NoError(t, err)
	require.Len(t, schedule, 12)

	minP, maxP := schedule[0].PrincipalCents, schedule[0].PrincipalCents
	for _, inst := range schedule {
		if inst.PrincipalCents < minP {
			minP = inst.PrincipalCents
		}
		if inst.PrincipalCents > maxP {
			maxP = inst.PrincipalCents
		}
	}
	assert.LessOrEqual(t, maxP-minP, int64(1))
	assert.Equal(t, int64(1_000_000), sumPrincipal(schedule))
}

func TestIslamicMarginFixedAtOrigination(t *testing.T) {
	// Cost 500,000.00, margin 800 bps = 40,000.00; total payable 540,000.00
	schedule, err := Islamic(50_000_000, 800, 10, 1, date(2024, time.January, 1))
	require.NoError(t, err)
	require.Len(t, schedule, 10)

	assert.Equal(t, int64(50_000_000), sumPrincipal(schedule))

	var totalMargin int64
	for _, inst := range schedule {
		totalMargin += inst.InterestOrMarginCents
	}
	assert.Equal(t, int64(4_000_000), totalMargin)
	assert.Equal(t, int64(54_000_000), TotalPayableCents(schedule))

	// The margin never varies with timing: every row carries the even share
	for i := 0; i < 9; i++ {
		assert.Equal(t, int64(400_000), schedule[i].InterestOrMarginCents)
	}
}

func TestDueDateEndOfMonthClamping(t *testing.T) {
	// Payment day 31, first due Jan 31: Feb clamps to 29 (leap), Mar back to 31
	schedule, err := PersonalLoan(300_000, 0, 3, 31, date(2024, time.January, 31))
	require.NoError(t, err)
	require.Len(t, schedule, 3)

	assert.Equal(t, date(2024, time.January, 31), schedule[0].DueDate)
	assert.Equal(t, date(2024, time.February, 29), schedule[1].DueDate)
	assert.Equal(t, date(2024, time.March, 31), schedule[2].DueDate)
}

func TestDueDateClampsToThirtyDayMonths(t *testing.T) {
	schedule, err := PersonalLoan(300_000, 0, 3, 31, date(2025, time.April, 30))
	require.NoError(t, err)

	assert.Equal(t, date(2025, time.April, 30), schedule[0].DueDate)
	assert.Equal(t, date(2025, time.May, 31), schedule[1].DueDate)
	assert.Equal(t, date(2025, time.June, 30), schedule[2].DueDate)
}

func TestInvalidTermsRejected(t *testing.T) {
	firstDue := date(2024, time.January, 1)

	_, err := Conventional(0, 1200, 12, 1, firstDue)
	assert.ErrorIs(t, err, ErrInvalidTerms)

	_, err = Conventional(-5, 1200, 12, 1, firstDue)
	assert.ErrorIs(t, err, ErrInvalidTerms)

	_, err = PersonalLoan(100_000, 600, 0, 1, firstDue)
	assert.ErrorIs(t, err, ErrInvalidTerms)

	_, err = Islamic(100_000, -1, 12, 1, firstDue)
	assert.ErrorIs(t, err, ErrInvalidTerms)

	_, err = Conventional(100_000, 1200, 12, 0, firstDue)
	assert.ErrorIs(t, err, ErrInvalidTerms)

	_, err = Conventional(100_000, 1200, 12, 32, firstDue)
	assert.ErrorIs(t, err, ErrInvalidTerms)
}

func TestForDebtDispatch(t *testing.T) {
	origination := date(2024, time.March, 15)

	conventional := &models.Debt{
		Type:                  models.DebtTypeConventional,
		PrincipalCents:        1_000_000,
		InterestRateAnnualBps: 1200,
		TermMonths:            12,
		PaymentDayOfMonth:     15,
		OriginationDate:       origination,
	}
	schedule, err := ForDebt(conventional)
	require.NoError(t, err)
	assert.Len(t, schedule, 12)
	// First due one month after origination
	assert.Equal(t, date(2024, time.April, 15), schedule[0].DueDate)

	islamic := &models.Debt{
		Type:              models.DebtTypeIslamic,
		PrincipalCents:    2_000_000,
		CostPriceCents:    2_000_000,
		MarginRateBps:     500,
		TermMonths:        6,
		PaymentDayOfMonth: 1,
		OriginationDate:   origination,
	}
	schedule, err = ForDebt(islamic)
	require.NoError(t, err)
	assert.Equal(t, int64(2_000_000), sumPrincipal(schedule))

	unknown := &models.Debt{Type: "payday_loan"}
	_, err = ForDebt(unknown)
	assert.ErrorIs(t, err, ErrInvalidTerms)
}
