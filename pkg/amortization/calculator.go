// Package amortization produces period-by-period schedules for a single
// balance paid down by a fixed payment.
package amortization

import (
	"fmt"
	"time"

	"github.com/iwvelando/payoff-planner/pkg/constants"
	"github.com/iwvelando/payoff-planner/pkg/debt"
	"github.com/iwvelando/payoff-planner/pkg/mathutil"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// StepResult holds the values for a single payment period.
type StepResult struct {
	Payment   decimal.Decimal
	Interest  decimal.Decimal
	Principal decimal.Decimal
	Ending    decimal.Decimal
}

// Calculator generates amortization schedules. It holds no mutable state and
// is safe for concurrent use.
type Calculator struct {
	logger    *zap.Logger
	frequency debt.Frequency
	round     mathutil.Rounder
	startDate time.Time
}

// Option configures a Calculator.
type Option func(*Calculator)

// WithFrequency sets the payment frequency used to derive the periodic rate.
func WithFrequency(frequency debt.Frequency) Option {
	return func(c *Calculator) {
		if frequency != "" {
			c.frequency = frequency
		}
	}
}

// WithRounder sets the rounding applied to periodic interest.
func WithRounder(round mathutil.Rounder) Option {
	return func(c *Calculator) {
		if round != nil {
			c.round = round
		}
	}
}

// WithStartDate dates period 1 of every generated schedule.
func WithStartDate(start time.Time) Option {
	return func(c *Calculator) {
		c.startDate = start
	}
}

// NewCalculator creates a new calculator instance.
func NewCalculator(logger *zap.Logger, opts ...Option) *Calculator {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Calculator{
		logger:    logger,
		frequency: debt.FrequencyMonthly,
		round:     mathutil.Round,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Frequency returns the payment frequency of the calculator.
func (c *Calculator) Frequency() debt.Frequency {
	return c.frequency
}

// StartDate returns the date of period 1, or the zero time when schedules are
// undated.
func (c *Calculator) StartDate() time.Time {
	return c.startDate
}

// MaxPeriods resolves a caller-supplied ceiling; non-positive values select the
// default horizon for the calculator's frequency.
func (c *Calculator) MaxPeriods(maxPeriods int) int {
	if maxPeriods <= 0 {
		return c.frequency.DefaultMaxPeriods()
	}
	return maxPeriods
}

// Interest returns the rounded interest accrued on balance for one period.
func (c *Calculator) Interest(balance, annualRatePercent decimal.Decimal) decimal.Decimal {
	return mathutil.PeriodicInterest(balance, annualRatePercent, c.frequency.PeriodsPerYear(), c.round)
}

// Step applies one period of interest and payment to balance. The payment is
// clamped to balance plus interest so the balance never goes below zero.
func (c *Calculator) Step(balance, annualRatePercent, payment decimal.Decimal) (StepResult, error) {
	if !balance.IsPositive() {
		return StepResult{Payment: decimal.Zero, Interest: decimal.Zero, Principal: decimal.Zero, Ending: decimal.Zero}, nil
	}

	interest := c.Interest(balance, annualRatePercent)
	if payment.LessThanOrEqual(interest) {
		return StepResult{}, &debt.NonAmortizingPaymentError{Payment: payment, Interest: interest}
	}

	paid := mathutil.Min(payment, balance.Add(interest))
	principal := paid.Sub(interest)
	return StepResult{
		Payment:   paid,
		Interest:  interest,
		Principal: principal,
		Ending:    balance.Sub(principal),
	}, nil
}

// GenerateSchedule creates the amortization schedule for principal paid down
// by paymentAmount each period. Generation stops when the balance reaches zero
// or after maxPeriods periods, in which case the partial schedule is returned
// and its PaidOff reports false.
func (c *Calculator) GenerateSchedule(principal, annualRatePercent, paymentAmount decimal.Decimal, maxPeriods int) (debt.Schedule, error) {
	switch {
	case principal.IsNegative():
		return nil, &debt.InvalidPaymentError{Reason: "principal must not be negative"}
	case annualRatePercent.IsNegative():
		return nil, &debt.InvalidPaymentError{Reason: "annual interest rate must not be negative"}
	case paymentAmount.IsNegative():
		return nil, &debt.InvalidPaymentError{Reason: "payment must not be negative"}
	}

	maxPeriods = c.MaxPeriods(maxPeriods)
	schedule := make(debt.Schedule, 0, estimateCapacity(maxPeriods))
	balance := mathutil.Round(principal)

	for period := 1; balance.IsPositive(); period++ {
		if period > maxPeriods {
			c.logger.Debug(fmt.Sprintf("schedule reached ceiling of %d periods with %s outstanding",
				maxPeriods, balance.StringFixed(constants.CurrencyPlaces)),
				zap.String("op", "amortization.GenerateSchedule"),
			)
			return schedule, nil
		}

		step, err := c.Step(balance, annualRatePercent, paymentAmount)
		if err != nil {
			return nil, err
		}

		schedule = append(schedule, debt.AmortizationPeriod{
			PeriodIndex:      period,
			Date:             c.periodDate(period),
			PaymentAmount:    step.Payment,
			InterestPortion:  step.Interest,
			PrincipalPortion: step.Principal,
			EndingBalance:    step.Ending,
		})
		balance = step.Ending
	}

	c.logger.Debug(fmt.Sprintf("schedule retires %s in %d periods",
		principal.StringFixed(constants.CurrencyPlaces), len(schedule)),
		zap.String("op", "amortization.GenerateSchedule"),
	)
	return schedule, nil
}

func (c *Calculator) periodDate(period int) time.Time {
	if c.startDate.IsZero() {
		return time.Time{}
	}
	return c.frequency.PeriodDate(c.startDate, period)
}

// CalculatePayment calculates the level payment retiring principal in
// termPeriods using the standard amortization formula, rounded up to the cent.
func (c *Calculator) CalculatePayment(principal, annualRatePercent decimal.Decimal, termPeriods int) decimal.Decimal {
	if termPeriods <= 0 || !principal.IsPositive() {
		return decimal.Zero
	}
	periods := decimal.NewFromInt(int64(termPeriods))
	if annualRatePercent.IsZero() {
		// For zero interest, simply divide the principal by term
		return principal.Div(periods).RoundUp(constants.CurrencyPlaces)
	}

	periodicRate := annualRatePercent.Div(decimal.NewFromInt(
		int64(constants.PercentageMultiplier * c.frequency.PeriodsPerYear())))
	power := compound(periodicRate, termPeriods)
	payment := principal.Mul(periodicRate).Mul(power).Div(power.Sub(decimal.NewFromInt(1)))
	return payment.RoundUp(constants.CurrencyPlaces)
}

// compound returns (1+rate)^n by repeated squaring, truncating intermediate
// products to keep their size bounded.
func compound(rate decimal.Decimal, n int) decimal.Decimal {
	const places = 20
	base := decimal.NewFromInt(1).Add(rate)
	result := decimal.NewFromInt(1)
	for n > 0 {
		if n&1 == 1 {
			result = result.Mul(base).Truncate(places)
		}
		base = base.Mul(base).Truncate(places)
		n >>= 1
	}
	return result
}

func estimateCapacity(maxPeriods int) int {
	if maxPeriods > constants.DefaultMaxPeriods {
		return constants.DefaultMaxPeriods
	}
	return maxPeriods
}
