package scenario

import (
	"fmt"
	"time"

	"github.com/iwvelando/payoff-planner/pkg/constants"
	"github.com/iwvelando/payoff-planner/pkg/datetime"
	"github.com/iwvelando/payoff-planner/pkg/debt"
	"github.com/iwvelando/payoff-planner/pkg/format"
	"github.com/iwvelando/payoff-planner/pkg/mathutil"
	"github.com/iwvelando/payoff-planner/pkg/optimization"
	"github.com/iwvelando/payoff-planner/pkg/strategy"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const fieldExtraPayment = "extraPayment"

// evaluation is one simulated candidate budget.
type evaluation struct {
	cents    int64
	scenario debt.PayoffScenario
	meets    bool
}

// SolveForTarget finds the smallest whole-cent extra payment that retires every
// debt by the month of target, searching between zero and maxBudget. When even
// maxBudget misses the target, the max-budget scenario and summary are returned
// together with a *debt.TargetUnreachableError carrying the best achievable
// payoff date.
func (e *Engine) SolveForTarget(balances []debt.Balance, strat strategy.Strategy, target time.Time,
	maxBudget decimal.Decimal) (debt.PayoffScenario, optimization.Summary, error) {
	if target.IsZero() {
		return debt.PayoffScenario{}, optimization.Summary{}, &debt.InvalidPaymentError{Reason: "target payoff date is required"}
	}
	if e.calc.StartDate().IsZero() {
		return debt.PayoffScenario{}, optimization.Summary{}, &debt.InvalidPaymentError{Reason: "a start date is required to search for a target payoff date"}
	}
	if maxBudget.IsNegative() {
		return debt.PayoffScenario{}, optimization.Summary{}, &debt.InvalidPaymentError{
			Reason: fmt.Sprintf("maximum search budget %s must not be negative", maxBudget.StringFixed(constants.CurrencyPlaces)),
		}
	}
	target = datetime.MonthStart(target)

	summary := optimization.Summary{
		Field:            fieldExtraPayment,
		Target:           target,
		MaxBudget:        maxBudget,
		MaxBudgetDisplay: format.Currency(maxBudget),
	}
	if strat != nil {
		summary.Strategy = strat.Name()
	}

	lower, err := e.evaluate(balances, strat, target, 0)
	if err != nil {
		return debt.PayoffScenario{}, optimization.Summary{}, err
	}
	if lower.meets {
		e.finish(&summary, lower, 0, true)
		summary.AddNote("target met without any extra payment")
		e.logSearch(summary)
		return lower.scenario, summary, nil
	}

	upper, err := e.evaluate(balances, strat, target, mathutil.Cents(maxBudget))
	if err != nil {
		return debt.PayoffScenario{}, optimization.Summary{}, err
	}
	if !upper.meets {
		e.finish(&summary, upper, 0, false)
		summary.AddNote(fmt.Sprintf("unable to retire all debts by %s within extra payment %s",
			target.Format(constants.DateTimeLayout), format.Currency(maxBudget)))
		e.logSearch(summary)
		return upper.scenario, summary, &debt.TargetUnreachableError{
			Target:         target,
			BestPayoffDate: upper.scenario.OverallPayoffDate,
			MaxBudget:      maxBudget,
		}
	}

	iterations := 0
	for upper.cents-lower.cents > 1 && iterations < constants.MaxSearchIterations {
		iterations++
		mid, err := e.evaluate(balances, strat, target, lower.cents+(upper.cents-lower.cents)/2)
		if err != nil {
			return debt.PayoffScenario{}, optimization.Summary{}, err
		}
		if mid.meets {
			upper = mid
		} else {
			lower = mid
		}
	}

	e.finish(&summary, upper, iterations, upper.cents-lower.cents <= 1)
	e.logSearch(summary)
	return upper.scenario, summary, nil
}

func (e *Engine) evaluate(balances []debt.Balance, strat strategy.Strategy, target time.Time, cents int64) (evaluation, error) {
	scenario, err := e.Simulate(balances, strat, mathutil.FromCents(cents))
	if err != nil {
		return evaluation{}, err
	}
	meets := scenario.Complete && scenario.OverallPayoffDate != nil && datetime.MonthNotAfter(*scenario.OverallPayoffDate, target)
	return evaluation{cents: cents, scenario: scenario, meets: meets}, nil
}

func (e *Engine) finish(summary *optimization.Summary, eval evaluation, iterations int, converged bool) {
	summary.Value = mathutil.FromCents(eval.cents)
	summary.ValueDisplay = format.Currency(summary.Value)
	summary.PayoffDate = eval.scenario.OverallPayoffDate
	summary.TotalInterest = eval.scenario.TotalInterestPaidAllDebts
	summary.Iterations = iterations
	summary.Converged = converged
}

func (e *Engine) logSearch(summary optimization.Summary) {
	e.logger.Info("target payoff search finished",
		zap.String("op", "scenario.SolveForTarget"),
		zap.String("strategy", summary.Strategy),
		zap.String("target", summary.Target.Format(constants.DateTimeLayout)),
		zap.String("extraPayment", summary.ValueDisplay),
		zap.String("maxBudget", summary.MaxBudgetDisplay),
		zap.String("payoffDate", datetime.FormatMonth(summary.PayoffDate)),
		zap.Int("iterations", summary.Iterations),
		zap.Bool("converged", summary.Converged),
	)
}
