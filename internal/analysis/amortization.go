package analysis

import (
	"math"

	"github.com/shopspring/decimal"

	"dealdesk/server/internal/models"
)

// MaxTermMonths bounds every schedule the engine will build (100 years)
const MaxTermMonths = 1200

var (
	hundred = decimal.NewFromInt(100)
	twelve  = decimal.NewFromInt(12)
)

// Period is one month of an amortization schedule. Money values are rounded
// to cents. Each period's balance is the exact balance rounded, so rounding
// never accumulates and the final period only settles sub-cent residue.
type Period struct {
	Period           int
	Payment          decimal.Decimal
	PrincipalPaid    decimal.Decimal
	InterestPaid     decimal.Decimal
	RemainingBalance decimal.Decimal
}

// MonthlyPayment returns the fixed annuity payment, rounded to cents:
//
//	payment = P * r / (1 - (1+r)^-n),  r = annualRatePercent / 100 / 12
//
// With a zero rate the principal is split evenly over the term.
func MonthlyPayment(principal, annualRatePercent float64, termMonths int) (decimal.Decimal, error) {
	if err := validateLoan(principal, annualRatePercent, termMonths); err != nil {
		return decimal.Zero, err
	}
	return exactPayment(principal, annualRatePercent, termMonths).Round(2), nil
}

func exactPayment(principal, annualRatePercent float64, termMonths int) decimal.Decimal {
	p := decimal.NewFromFloat(principal)
	if annualRatePercent == 0 {
		return p.Div(decimal.NewFromInt(int64(termMonths)))
	}

	r := annualRatePercent / 100 / 12
	payment := principal * r / (1 - math.Pow(1+r, -float64(termMonths)))
	return decimal.NewFromFloat(payment)
}

// ComputeSchedule builds the full schedule for a fixed-rate loan. It is
// recomputed from scratch on every call and always has termMonths entries.
func ComputeSchedule(principal, annualRatePercent float64, termMonths int) ([]Period, error) {
	if err := validateLoan(principal, annualRatePercent, termMonths); err != nil {
		return nil, err
	}

	p := decimal.NewFromFloat(principal)
	n := decimal.NewFromInt(int64(termMonths))
	payment := exactPayment(principal, annualRatePercent, termMonths)
	rate := decimal.NewFromFloat(annualRatePercent).Div(hundred).Div(twelve)

	exact := p
	previous := p
	schedule := make([]Period, 0, termMonths)
	for period := 1; period <= termMonths; period++ {
		interest := decimal.Zero
		if annualRatePercent == 0 {
			// closed form keeps every period within a cent of P/n
			exact = p.Mul(decimal.NewFromInt(int64(termMonths - period))).Div(n)
		} else {
			exactInterest := exact.Mul(rate)
			interest = exactInterest.Round(2)
			exact = exact.Sub(payment.Sub(exactInterest)).Round(12)
		}

		balance := exact.Round(2)
		if period == termMonths || balance.IsNegative() {
			balance = decimal.Zero
		}
		principalPart := previous.Sub(balance)
		if principalPart.IsNegative() {
			principalPart = decimal.Zero
			balance = previous
		}
		previous = balance

		schedule = append(schedule, Period{
			Period:           period,
			Payment:          principalPart.Add(interest),
			PrincipalPaid:    principalPart,
			InterestPaid:     interest,
			RemainingBalance: balance,
		})
	}

	return schedule, nil
}

// BalanceAfter returns the remaining balance once month periods have been
// paid; zero when the schedule is already settled by then.
func BalanceAfter(schedule []Period, month int) decimal.Decimal {
	if month <= 0 && len(schedule) > 0 {
		return schedule[0].RemainingBalance.Add(schedule[0].PrincipalPaid)
	}
	if month > len(schedule) || len(schedule) == 0 {
		return decimal.Zero
	}
	return schedule[month-1].RemainingBalance
}

// ToModel converts a schedule to its client representation
func ToModel(schedule []Period) []models.AmortizationPeriod {
	out := make([]models.AmortizationPeriod, len(schedule))
	for i, p := range schedule {
		out[i] = models.AmortizationPeriod{
			Period:           p.Period,
			Payment:          p.Payment.InexactFloat64(),
			PrincipalPaid:    p.PrincipalPaid.InexactFloat64(),
			InterestPaid:     p.InterestPaid.InexactFloat64(),
			RemainingBalance: p.RemainingBalance.InexactFloat64(),
		}
	}
	return out
}

func validateLoan(principal, annualRatePercent float64, termMonths int) error {
	var check fieldCheck
	if !finite(principal) || principal <= 0 {
		check.fail("principal")
	}
	if !finite(annualRatePercent) || annualRatePercent < 0 || annualRatePercent > 100 {
		check.fail("interest_rate")
	}
	if termMonths <= 0 {
		check.fail("term_months")
	}
	if err := check.err(KindInvalidInput, "invalid loan terms"); err != nil {
		return err
	}
	if termMonths > MaxTermMonths {
		return newError(KindUnbounded, "loan term exceeds the supported maximum", "term_months")
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
