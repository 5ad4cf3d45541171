// Package schedule computes installment schedules for the supported debt
// financing models. All functions are pure: same terms in, same schedule out,
// no I/O and no clock reads. Amounts are integer cents, rates basis points.
package schedule

import (
	"errors"
	"math"
	"time"

	"github.com/shopspring/decimal"

	"github.com/casabook/casabook-api/internal/models"
	"github.com/casabook/casabook-api/internal/money"
)

// ErrInvalidTerms reports malformed debt terms (non-positive principal or
// term, negative rate, payment day outside 1-31). Never retried.
var ErrInvalidTerms = errors.New("invalid debt terms")

// Installment is one row of a payment schedule. Schedules are derived data:
// they are regenerated from debt terms, never stored as mutable state.
type Installment struct {
	Number                int       `json:"number"`
	DueDate               time.Time `json:"due_date"`
	PrincipalCents        int64     `json:"principal_cents"`
	InterestOrMarginCents int64     `json:"interest_or_margin_cents"`
	TotalDueCents         int64     `json:"total_due_cents"`
	RunningBalanceCents   int64     `json:"running_balance_cents"`
}

// ForDebt generates the schedule for a debt, dispatching on its type. The
// first installment is due one month after origination, on the debt's
// payment day.
func ForDebt(d *models.Debt) ([]Installment, error) {
	firstDue := addMonthsClamped(d.OriginationDate, 1, d.PaymentDayOfMonth)

	switch d.Type {
	case models.DebtTypeConventional:
		return Conventional(d.PrincipalCents, d.InterestRateAnnualBps, d.TermMonths, d.PaymentDayOfMonth, firstDue)
	case models.DebtTypePersonal:
		return PersonalLoan(d.PrincipalCents, d.FlatRateBps, d.TermMonths, d.PaymentDayOfMonth, firstDue)
	case models.DebtTypeIslamic:
		return Islamic(d.CostPriceCents, d.MarginRateBps, d.TermMonths, d.PaymentDayOfMonth, firstDue)
	default:
		return nil, ErrInvalidTerms
	}
}

// Conventional computes a standard amortizing-loan schedule with a fixed
// monthly payment. Interest accrues on the declining balance at
// annualRateBps/12 per month; the final installment's principal component is
// forced to clear the balance exactly, absorbing rounding drift.
func Conventional(principalCents, annualRateBps int64, termMonths, paymentDay int, firstDue time.Time) ([]Installment, error) {
	if err := validateTerms(principalCents, annualRateBps, termMonths, paymentDay); err != nil {
		return nil, err
	}

	if annualRateBps == 0 {
		return principalOnlySchedule(principalCents, termMonths, paymentDay, firstDue), nil
	}

	monthlyRate := float64(annualRateBps) / 10_000.0 / 12.0

	// Fixed payment = P * r / (1 - (1+r)^-n). The annuity factor needs a
	// power computation, so it runs in float64; the result is rounded to
	// cents once and every subsequent step stays in integer cents.
	factor := math.Pow(1+monthlyRate, float64(termMonths))
	paymentCents := money.RoundHalfUpCents(decimal.NewFromFloat(
		float64(principalCents) * monthlyRate * factor / (factor - 1),
	))

	schedule := make([]Installment, 0, termMonths)
	remaining := principalCents

	for n := 1; n <= termMonths; n++ {
		interest := monthlyInterestCents(remaining, annualRateBps)
		principal := paymentCents - interest
		total := paymentCents

		if n == termMonths || principal > remaining {
			// Final row (or rounding overshoot): clear the balance exactly.
			principal = remaining
			total = principal + interest
		}

		remaining -= principal
		schedule = append(schedule, Installment{
			Number:                n,
			DueDate:               addMonthsClamped(firstDue, n-1, paymentDay),
			PrincipalCents:        principal,
			InterestOrMarginCents: interest,
			TotalDueCents:         total,
			RunningBalanceCents:   remaining,
		})
	}

	return schedule, nil
}

// PersonalLoan computes a flat-rate schedule: total interest is computed once
// on the original principal (flatRateBps per year, prorated over the term)
// and spread evenly, independent of the declining balance.
func PersonalLoan(principalCents, flatRateBps int64, termMonths, paymentDay int, firstDue time.Time) ([]Installment, error) {
	if err := validateTerms(principalCents, flatRateBps, termMonths, paymentDay); err != nil {
		return nil, err
	}

	totalInterest := money.RoundHalfUpCents(
		decimal.NewFromInt(principalCents).
			Mul(decimal.NewFromInt(flatRateBps)).
			Mul(decimal.NewFromInt(int64(termMonths))).
			Div(decimal.NewFromInt(10_000 * 12)),
	)

	return spreadSchedule(principalCents, totalInterest, termMonths, paymentDay, firstDue), nil
}

// Islamic computes a Murabahah cost-plus-margin schedule. The margin is fixed
// at origination (costPrice * marginRateBps/10000) with no time-value
// compounding and no penalty accrual on late payment; it is spread evenly
// like the cost itself.
func Islamic(costPriceCents, marginRateBps int64, termMonths, paymentDay int, firstDue time.Time) ([]Installment, error) {
	if err := validateTerms(costPriceCents, marginRateBps, termMonths, paymentDay); err != nil {
		return nil, err
	}

	margin := money.MulRateBps(costPriceCents, marginRateBps)
	return spreadSchedule(costPriceCents, margin, termMonths, paymentDay, firstDue), nil
}

// TotalPayableCents sums the total due across a schedule.
func TotalPayableCents(schedule []Installment) int64 {
	var total int64
	for _, inst := range schedule {
		total += inst.TotalDueCents
	}
	return total
}

func validateTerms(amountCents, rateBps int64, termMonths, paymentDay int) error {
	if amountCents <= 0 || termMonths <= 0 || rateBps < 0 {
		return ErrInvalidTerms
	}
	if paymentDay < 1 || paymentDay > 31 {
		return ErrInvalidTerms
	}
	return nil
}

// spreadSchedule splits principal and interest/margin into near-equal
// installments, the division remainder carried one cent at a time by the
// tail rows.
func spreadSchedule(principalCents, interestCents int64, termMonths, paymentDay int, firstDue time.Time) []Installment {
	principals := money.SpreadEvenCents(principalCents, termMonths)
	interests := money.SpreadEvenCents(interestCents, termMonths)

	schedule := make([]Installment, 0, termMonths)
	remaining := principalCents
	for n := 1; n <= termMonths; n++ {
		remaining -= principals[n-1]
		schedule = append(schedule, Installment{
			Number:                n,
			DueDate:               addMonthsClamped(firstDue, n-1, paymentDay),
			PrincipalCents:        principals[n-1],
			InterestOrMarginCents: interests[n-1],
			TotalDueCents:         principals[n-1] + interests[n-1],
			RunningBalanceCents:   remaining,
		})
	}
	return schedule
}

func principalOnlySchedule(principalCents int64, termMonths, paymentDay int, firstDue time.Time) []Installment {
	return spreadSchedule(principalCents, 0, termMonths, paymentDay, firstDue)
}

// monthlyInterestCents computes one month of interest on a balance at an
// annual basis-point rate, rounded half-up.
func monthlyInterestCents(balanceCents, annualRateBps int64) int64 {
	return money.RoundHalfUpCents(
		decimal.NewFromInt(balanceCents).
			Mul(decimal.NewFromInt(annualRateBps)).
			Div(decimal.NewFromInt(10_000 * 12)),
	)
}
