// Package scenario simulates paying down several debts at once, rolling the
// payment capacity of each retired debt into the next one chosen by an
// allocation strategy.
package scenario

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/iwvelando/payoff-planner/pkg/amortization"
	"github.com/iwvelando/payoff-planner/pkg/constants"
	"github.com/iwvelando/payoff-planner/pkg/debt"
	"github.com/iwvelando/payoff-planner/pkg/mathutil"
	"github.com/iwvelando/payoff-planner/pkg/strategy"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Options controls the simulation calendar and arithmetic.
type Options struct {
	Frequency debt.Frequency
	// StartDate is the date of period 1; the zero value leaves periods undated.
	StartDate time.Time
	// MaxPeriods is the simulation ceiling; non-positive selects 100 years.
	MaxPeriods int
	// Rounding names the interest rounding mode, half-up or bankers.
	Rounding string
}

// Engine runs multi-debt payoff simulations. It holds no mutable state and is
// safe for concurrent use.
type Engine struct {
	logger     *zap.Logger
	calc       *amortization.Calculator
	maxPeriods int
	newID      func() string
}

// NewEngine creates an Engine for the given options.
func NewEngine(logger *zap.Logger, opts Options) (*Engine, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	round, err := mathutil.RounderFor(opts.Rounding)
	if err != nil {
		return nil, err
	}
	calc := amortization.NewCalculator(logger,
		amortization.WithFrequency(opts.Frequency),
		amortization.WithRounder(round),
		amortization.WithStartDate(opts.StartDate),
	)
	return &Engine{
		logger:     logger,
		calc:       calc,
		maxPeriods: calc.MaxPeriods(opts.MaxPeriods),
		newID:      uuid.NewString,
	}, nil
}

// Calculator returns the calculator the engine steps debts with.
func (e *Engine) Calculator() *amortization.Calculator {
	return e.calc
}

// MaxPeriods returns the simulation ceiling.
func (e *Engine) MaxPeriods() int {
	return e.maxPeriods
}

// debtState tracks one debt through a simulation.
type debtState struct {
	balance  debt.Balance
	current  decimal.Decimal
	schedule debt.Schedule
	closedAt int
	closed   bool
}

// Simulate runs the waterfall: every open debt receives its minimum payment,
// and the extra budget plus the minimums of debts retired in earlier periods
// goes to the open debt the strategy ranks first, cascading down the ordering
// once that debt is retired. Hitting the period ceiling is not an error; the
// scenario is returned with Complete false and open debts undated.
func (e *Engine) Simulate(balances []debt.Balance, strat strategy.Strategy, extraPayment decimal.Decimal) (debt.PayoffScenario, error) {
	if err := e.validate(balances, strat, extraPayment); err != nil {
		return debt.PayoffScenario{}, err
	}

	states := make(map[string]*debtState, len(balances))
	freed := decimal.Zero
	var payoffOrder []string
	for _, b := range balances {
		state := &debtState{balance: b.WithPrincipal(b.PrincipalRemaining), current: mathutil.Round(b.PrincipalRemaining)}
		if !state.current.IsPositive() {
			state.closed = true
			payoffOrder = append(payoffOrder, b.ID)
			freed = freed.Add(b.MinimumPayment)
		}
		states[b.ID] = state
	}

	open := len(balances) - len(payoffOrder)
	timeline := make([]debt.ScenarioPeriod, 0)
	period := 1
	for ; open > 0 && period <= e.maxPeriods; period++ {
		ordering := strat.OrderDebts(openSnapshot(balances, states))
		pool := extraPayment.Add(freed)
		summary := debt.ScenarioPeriod{
			PeriodIndex:    period,
			Date:           e.periodDate(period),
			Pool:           pool,
			TotalPaid:      decimal.Zero,
			TotalInterest:  decimal.Zero,
			TotalPrincipal: decimal.Zero,
			Payments:       make(map[string]decimal.Decimal, open),
		}

		// Every open debt is charged its minimum whether or not the strategy
		// ranked it; the pool only follows the ranking.
		dues := make(map[string]decimal.Decimal, open)
		charges := make(map[string]decimal.Decimal, open)
		for _, b := range balances {
			state := states[b.ID]
			if state.closed {
				continue
			}
			interest := e.calc.Interest(state.current, state.balance.AnnualInterestRatePercent)
			dues[b.ID] = state.current.Add(interest)
			charges[b.ID] = mathutil.Min(state.balance.MinimumPayment, dues[b.ID])
		}

		sequence := make([]string, 0, open)
		for _, id := range ordering {
			state, ok := states[id]
			if !ok {
				return debt.PayoffScenario{}, &debt.InvalidPaymentError{
					Reason: fmt.Sprintf("strategy %s ranked unknown debt %q", strat.Name(), id),
				}
			}
			if state.closed || containsID(sequence, id) {
				continue
			}
			if summary.FocusDebtID == "" {
				summary.FocusDebtID = id
			}
			share := mathutil.Min(pool, dues[id].Sub(charges[id]))
			charges[id] = charges[id].Add(share)
			pool = pool.Sub(share)
			sequence = append(sequence, id)
		}
		for _, b := range balances {
			if !states[b.ID].closed && !containsID(sequence, b.ID) {
				sequence = append(sequence, b.ID)
			}
		}

		var retired []string
		for _, id := range sequence {
			state := states[id]
			step, err := e.calc.Step(state.current, state.balance.AnnualInterestRatePercent, charges[id])
			if err != nil {
				return debt.PayoffScenario{}, fmt.Errorf("debt %s period %d: %w", id, period, err)
			}

			state.schedule = append(state.schedule, debt.AmortizationPeriod{
				PeriodIndex:      period,
				Date:             summary.Date,
				PaymentAmount:    step.Payment,
				InterestPortion:  step.Interest,
				PrincipalPortion: step.Principal,
				EndingBalance:    step.Ending,
			})
			state.current = step.Ending

			summary.Payments[id] = step.Payment
			summary.TotalPaid = summary.TotalPaid.Add(step.Payment)
			summary.TotalInterest = summary.TotalInterest.Add(step.Interest)
			summary.TotalPrincipal = summary.TotalPrincipal.Add(step.Principal)

			if step.Ending.IsZero() {
				retired = append(retired, id)
			}
		}

		// Minimums of debts retired this period join the pool next period.
		for _, id := range retired {
			state := states[id]
			state.closed = true
			state.closedAt = period
			freed = freed.Add(state.balance.MinimumPayment)
			payoffOrder = append(payoffOrder, id)
			open--
		}
		timeline = append(timeline, summary)
	}

	result := e.assemble(balances, states, strat, extraPayment, payoffOrder, timeline, open == 0)

	e.logger.Debug("simulated payoff scenario",
		zap.String("op", "scenario.Simulate"),
		zap.String("scenario", result.ID),
		zap.String("strategy", strat.Name()),
		zap.String("extraPayment", extraPayment.StringFixed(constants.CurrencyPlaces)),
		zap.Int("periods", result.TotalMonths),
		zap.Bool("complete", result.Complete),
	)
	return result, nil
}

func (e *Engine) assemble(balances []debt.Balance, states map[string]*debtState, strat strategy.Strategy,
	extraPayment decimal.Decimal, payoffOrder []string, timeline []debt.ScenarioPeriod, complete bool) debt.PayoffScenario {
	result := debt.PayoffScenario{
		ID:                        e.newID(),
		StrategyUsed:              strat.Name(),
		Frequency:                 e.calc.Frequency(),
		ExtraPayment:              extraPayment,
		PerDebtProjections:        make(map[string]debt.PayoffProjection, len(balances)),
		PayoffOrder:               payoffOrder,
		TotalInterestPaidAllDebts: decimal.Zero,
		TotalMonths:               len(timeline),
		Complete:                  complete,
		Timeline:                  timeline,
	}

	for _, b := range balances {
		state := states[b.ID]
		projection := debt.PayoffProjection{
			DebtID:             b.ID,
			TotalInterestPaid:  state.schedule.TotalInterest(),
			TotalPrincipalPaid: state.schedule.TotalPrincipal(),
			Schedule:           state.schedule,
		}
		if state.closed {
			date := e.periodDate(state.closedAt)
			if state.closedAt == 0 {
				date = e.calc.StartDate()
			}
			projection.PayoffDate = &date
			projection.MonthsToPayoff = state.closedAt
		}
		result.PerDebtProjections[b.ID] = projection
		result.TotalInterestPaidAllDebts = result.TotalInterestPaidAllDebts.Add(projection.TotalInterestPaid)
	}

	if complete {
		overall := e.calc.StartDate()
		if len(timeline) > 0 {
			overall = timeline[len(timeline)-1].Date
		}
		result.OverallPayoffDate = &overall
	}
	return result
}

func (e *Engine) periodDate(period int) time.Time {
	start := e.calc.StartDate()
	if start.IsZero() || period < 1 {
		return start
	}
	return e.calc.Frequency().PeriodDate(start, period)
}

// validate rejects malformed input and any open debt whose minimum payment
// does not exceed its first-period interest.
func (e *Engine) validate(balances []debt.Balance, strat strategy.Strategy, extraPayment decimal.Decimal) error {
	if strat == nil {
		return &debt.InvalidPaymentError{Reason: "an allocation strategy is required"}
	}
	if len(balances) == 0 {
		return &debt.InvalidPaymentError{Reason: "at least one balance is required"}
	}
	if extraPayment.IsNegative() {
		return &debt.InvalidPaymentError{
			Reason: fmt.Sprintf("extra payment %s must not be negative", extraPayment.StringFixed(constants.CurrencyPlaces)),
		}
	}

	seen := make(map[string]bool, len(balances))
	var duplicates []string
	for _, b := range balances {
		if b.ID == "" {
			return &debt.InvalidPaymentError{Reason: "every balance requires an id"}
		}
		if seen[b.ID] {
			duplicates = append(duplicates, b.ID)
		}
		seen[b.ID] = true
		if err := b.Validate(); err != nil {
			return err
		}
	}
	if len(duplicates) > 0 {
		sort.Strings(duplicates)
		return &debt.InvalidPaymentError{DebtIDs: duplicates, Reason: "duplicate debt id"}
	}

	var nonAmortizing *debt.NonAmortizingPaymentError
	for _, b := range balances {
		if !b.PrincipalRemaining.IsPositive() {
			continue
		}
		interest := e.calc.Interest(b.PrincipalRemaining, b.AnnualInterestRatePercent)
		if b.MinimumPayment.GreaterThan(interest) {
			continue
		}
		if nonAmortizing == nil {
			nonAmortizing = &debt.NonAmortizingPaymentError{Payment: b.MinimumPayment, Interest: interest}
		}
		nonAmortizing.DebtIDs = append(nonAmortizing.DebtIDs, b.ID)
	}
	if nonAmortizing != nil {
		return nonAmortizing
	}
	return nil
}

func containsID(ids []string, id string) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}

// openSnapshot returns copies of the open debts carrying their current
// principal, in input order.
func openSnapshot(balances []debt.Balance, states map[string]*debtState) []debt.Balance {
	snapshot := make([]debt.Balance, 0, len(balances))
	for _, b := range balances {
		state := states[b.ID]
		if state.closed {
			continue
		}
		snapshot = append(snapshot, state.balance.WithPrincipal(state.current))
	}
	return snapshot
}
