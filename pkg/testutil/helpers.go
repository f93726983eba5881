// Package testutil provides common utility functions for testing.
package testutil

import (
	"github.com/iwvelando/payoff-planner/pkg/debt"
)

// FindScenario finds a scenario by strategy name in the results slice.
// Returns a pointer to the scenario if found, nil otherwise.
func FindScenario(results []debt.PayoffScenario, strategy string) *debt.PayoffScenario {
	for i := range results {
		if results[i].StrategyUsed == strategy {
			return &results[i]
		}
	}
	return nil
}

// PaymentsFor returns the per-period payments made to one debt, in period
// order.
func PaymentsFor(scenario debt.PayoffScenario, debtID string) []string {
	var payments []string
	for _, period := range scenario.Timeline {
		if amount, ok := period.Payments[debtID]; ok {
			payments = append(payments, amount.StringFixed(2))
		}
	}
	return payments
}
