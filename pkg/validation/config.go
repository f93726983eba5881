// Package validation provides plan validation utilities.
package validation

import (
	"fmt"
	"time"

	"github.com/iwvelando/payoff-planner/pkg/constants"
	"github.com/iwvelando/payoff-planner/pkg/debt"
	"github.com/iwvelando/payoff-planner/pkg/mathutil"
	"github.com/iwvelando/payoff-planner/pkg/strategy"
	"github.com/shopspring/decimal"
)

// thinMarginPercent is the share of principal below which a minimum payment's
// principal portion is reported as barely amortizing.
var thinMarginPercent = decimal.NewFromInt(1)

// ValidateMinimumPayment returns a warning when a debt's minimum payment leaves
// little or nothing for principal in the first period. Interest is computed
// monthly at half-up rounding.
func ValidateMinimumPayment(b debt.Balance, periodsPerYear int) string {
	if !b.PrincipalRemaining.IsPositive() {
		return fmt.Sprintf("Debt '%s' has no remaining balance and is treated as paid off", b.ID)
	}

	interest := mathutil.PeriodicInterest(b.PrincipalRemaining, b.AnnualInterestRatePercent, periodsPerYear, mathutil.Round)
	if b.MinimumPayment.LessThanOrEqual(interest) {
		return fmt.Sprintf("Debt '%s' minimum payment %s does not cover first-period interest %s",
			b.ID, b.MinimumPayment.StringFixed(constants.CurrencyPlaces), interest.StringFixed(constants.CurrencyPlaces))
	}

	principal := b.MinimumPayment.Sub(interest)
	threshold := b.PrincipalRemaining.Mul(thinMarginPercent).Div(decimal.NewFromInt(constants.PercentageMultiplier))
	if principal.LessThan(threshold) {
		return fmt.Sprintf("Debt '%s' minimum payment barely exceeds interest (%s of %s goes to principal)",
			b.ID, principal.StringFixed(constants.CurrencyPlaces), b.MinimumPayment.StringFixed(constants.CurrencyPlaces))
	}
	return ""
}

// PlanValidator collects the inputs of a payoff plan for validation.
type PlanValidator struct {
	Balances         []debt.Balance
	Strategy         string
	PeriodsPerYear   int
	StartDate        time.Time
	TargetPayoffDate *time.Time
	MaxSearchBudget  decimal.Decimal
}

// ValidateAll validates the entire plan and returns warnings. Problems that
// make a plan impossible to run are reported by the engine as errors.
func (pv *PlanValidator) ValidateAll() []string {
	var warnings []string

	ranked := 0
	for _, b := range pv.Balances {
		if warning := ValidateMinimumPayment(b, pv.PeriodsPerYear); warning != "" {
			warnings = append(warnings, warning)
		}
		if b.PriorityRank != nil {
			ranked++
		}
	}

	if ranked > 0 && pv.Strategy != strategy.NameCustom {
		warnings = append(warnings, fmt.Sprintf("Priority ranks on %d debt(s) are ignored by the %s strategy", ranked, pv.Strategy))
	}
	if ranked == 0 && pv.Strategy == strategy.NameCustom && len(pv.Balances) > 1 {
		warnings = append(warnings, "Custom strategy without priority ranks orders debts by id")
	}

	if pv.TargetPayoffDate != nil {
		if !pv.StartDate.IsZero() && pv.TargetPayoffDate.Before(pv.StartDate) {
			warnings = append(warnings, fmt.Sprintf("Target payoff date %s is before the start date %s",
				pv.TargetPayoffDate.Format(constants.DateTimeLayout), pv.StartDate.Format(constants.DateTimeLayout)))
		}
		if !pv.MaxSearchBudget.IsPositive() {
			warnings = append(warnings, "Target payoff date set without a positive maxSearchBudget; only the minimum payments will be tried")
		}
	}

	return warnings
}
