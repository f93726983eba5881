// Package payoff answers single-debt questions: when a balance is retired,
// what it costs, and how much an extra payment saves.
package payoff

import (
	"errors"
	"fmt"
	"time"

	"github.com/iwvelando/payoff-planner/pkg/amortization"
	"github.com/iwvelando/payoff-planner/pkg/constants"
	"github.com/iwvelando/payoff-planner/pkg/debt"
	"github.com/iwvelando/payoff-planner/pkg/mathutil"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Projector wraps a Calculator to project individual balances.
type Projector struct {
	logger     *zap.Logger
	calc       *amortization.Calculator
	maxPeriods int
}

// Comparison reports a baseline projection against one with an extra payment.
type Comparison struct {
	Baseline      debt.PayoffProjection `json:"baseline"`
	Accelerated   debt.PayoffProjection `json:"accelerated"`
	InterestSaved decimal.Decimal       `json:"interestSaved"`
	PeriodsSaved  int                   `json:"periodsSaved"`
}

// NewProjector creates a Projector. A nil calculator selects a monthly
// calculator with half-up rounding; maxPeriods <= 0 selects the calculator's
// default ceiling.
func NewProjector(logger *zap.Logger, calc *amortization.Calculator, maxPeriods int) *Projector {
	if logger == nil {
		logger = zap.NewNop()
	}
	if calc == nil {
		calc = amortization.NewCalculator(logger)
	}
	return &Projector{
		logger:     logger,
		calc:       calc,
		maxPeriods: calc.MaxPeriods(maxPeriods),
	}
}

// MaxPeriods returns the period ceiling applied to every projection.
func (p *Projector) MaxPeriods() int {
	return p.maxPeriods
}

// Project amortizes balance at a fixed payment per period. A balance still
// open at the ceiling yields a projection with a nil PayoffDate.
func (p *Projector) Project(balance debt.Balance, payment decimal.Decimal) (debt.PayoffProjection, error) {
	if err := balance.Validate(); err != nil {
		return debt.PayoffProjection{}, err
	}
	if !payment.IsPositive() {
		return debt.PayoffProjection{}, &debt.InvalidPaymentError{
			DebtIDs: []string{balance.ID},
			Reason:  fmt.Sprintf("payment %s must be positive", payment.StringFixed(constants.CurrencyPlaces)),
		}
	}

	schedule, err := p.calc.GenerateSchedule(balance.PrincipalRemaining, balance.AnnualInterestRatePercent, payment, p.maxPeriods)
	if err != nil {
		return debt.PayoffProjection{}, attributeError(err, balance.ID)
	}

	projection := debt.PayoffProjection{
		DebtID:             balance.ID,
		TotalInterestPaid:  schedule.TotalInterest(),
		TotalPrincipalPaid: schedule.TotalPrincipal(),
		Schedule:           schedule,
	}
	if schedule.PaidOff() {
		date := p.payoffDate(schedule)
		projection.PayoffDate = &date
		projection.MonthsToPayoff = len(schedule)
	}

	p.logger.Debug("projected balance",
		zap.String("op", "payoff.Project"),
		zap.String("debt", balance.ID),
		zap.String("payment", payment.StringFixed(constants.CurrencyPlaces)),
		zap.Int("periods", len(schedule)),
		zap.Bool("paidOff", projection.PaidOff()),
	)
	return projection, nil
}

func (p *Projector) payoffDate(schedule debt.Schedule) time.Time {
	if len(schedule) == 0 {
		return p.calc.StartDate()
	}
	return schedule[len(schedule)-1].Date
}

// CalculateInterestSavings returns the interest avoided by paying extra on top
// of baselinePayment every period. The result is never negative.
func (p *Projector) CalculateInterestSavings(balance debt.Balance, baselinePayment, extraPayment decimal.Decimal) (decimal.Decimal, error) {
	comparison, err := p.CompareExtraPayment(balance, baselinePayment, extraPayment)
	if err != nil {
		return decimal.Zero, err
	}
	return comparison.InterestSaved, nil
}

// CompareExtraPayment projects balance with and without extraPayment.
func (p *Projector) CompareExtraPayment(balance debt.Balance, baselinePayment, extraPayment decimal.Decimal) (Comparison, error) {
	if extraPayment.IsNegative() {
		return Comparison{}, &debt.InvalidPaymentError{
			DebtIDs: []string{balance.ID},
			Reason:  fmt.Sprintf("extra payment %s must not be negative", extraPayment.StringFixed(constants.CurrencyPlaces)),
		}
	}

	baseline, err := p.Project(balance, baselinePayment)
	if err != nil {
		return Comparison{}, fmt.Errorf("baseline projection: %w", err)
	}
	accelerated, err := p.Project(balance, baselinePayment.Add(extraPayment))
	if err != nil {
		return Comparison{}, fmt.Errorf("accelerated projection: %w", err)
	}

	return Comparison{
		Baseline:      baseline,
		Accelerated:   accelerated,
		InterestSaved: baseline.TotalInterestPaid.Sub(accelerated.TotalInterestPaid),
		PeriodsSaved:  len(baseline.Schedule) - len(accelerated.Schedule),
	}, nil
}

// CalculateMinimumPayment returns the larger of the balance's own minimum and
// the smallest whole-cent payment that retires it within the ceiling. A
// supplied minimum at or below the interest-only threshold is rejected with an
// UnaffordableDebtError carrying the smallest workable payment.
func (p *Projector) CalculateMinimumPayment(balance debt.Balance) (decimal.Decimal, error) {
	if err := balance.Validate(); err != nil {
		return decimal.Zero, err
	}
	if !balance.PrincipalRemaining.IsPositive() {
		return balance.MinimumPayment, nil
	}

	interestOnly := p.calc.Interest(balance.PrincipalRemaining, balance.AnnualInterestRatePercent)
	required, iterations := p.smallestRetiringPayment(balance, interestOnly)

	p.logger.Debug("searched minimum retiring payment",
		zap.String("op", "payoff.CalculateMinimumPayment"),
		zap.String("debt", balance.ID),
		zap.String("interestOnly", interestOnly.StringFixed(constants.CurrencyPlaces)),
		zap.String("required", required.StringFixed(constants.CurrencyPlaces)),
		zap.Int("iterations", iterations),
	)

	if balance.MinimumPayment.IsPositive() && balance.MinimumPayment.LessThanOrEqual(interestOnly) {
		return decimal.Zero, &debt.UnaffordableDebtError{
			DebtID:          balance.ID,
			MinimumPayment:  balance.MinimumPayment,
			InterestOnly:    interestOnly,
			RequiredPayment: required,
			MaxPeriods:      p.maxPeriods,
		}
	}
	if !required.IsPositive() {
		return decimal.Zero, &debt.UnaffordableDebtError{
			DebtID:         balance.ID,
			MinimumPayment: balance.MinimumPayment,
			InterestOnly:   interestOnly,
			MaxPeriods:     p.maxPeriods,
		}
	}
	return mathutil.Max(balance.MinimumPayment, required), nil
}

// smallestRetiringPayment bisects over whole cents between the interest-only
// payment, which never retires the balance, and principal plus one period of
// interest, which always does. It returns zero when the ceiling allows no
// periods at all.
func (p *Projector) smallestRetiringPayment(balance debt.Balance, interestOnly decimal.Decimal) (decimal.Decimal, int) {
	if p.maxPeriods < 1 {
		return decimal.Zero, 0
	}
	lo := mathutil.Cents(interestOnly)
	hi := mathutil.Cents(balance.PrincipalRemaining.Add(interestOnly))

	iterations := 0
	for hi-lo > 1 && iterations < constants.MaxSearchIterations {
		iterations++
		mid := lo + (hi-lo)/2
		if p.retires(balance, mathutil.FromCents(mid)) {
			hi = mid
		} else {
			lo = mid
		}
	}
	return mathutil.FromCents(hi), iterations
}

func (p *Projector) retires(balance debt.Balance, payment decimal.Decimal) bool {
	schedule, err := p.calc.GenerateSchedule(balance.PrincipalRemaining, balance.AnnualInterestRatePercent, payment, p.maxPeriods)
	return err == nil && schedule.PaidOff()
}

func attributeError(err error, id string) error {
	var nonAmortizing *debt.NonAmortizingPaymentError
	if errors.As(err, &nonAmortizing) && len(nonAmortizing.DebtIDs) == 0 {
		attributed := *nonAmortizing
		attributed.DebtIDs = []string{id}
		return &attributed
	}
	var invalid *debt.InvalidPaymentError
	if errors.As(err, &invalid) && len(invalid.DebtIDs) == 0 {
		attributed := *invalid
		attributed.DebtIDs = []string{id}
		return &attributed
	}
	return err
}
