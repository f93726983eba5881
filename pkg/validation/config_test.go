package validation

import (
	"strings"
	"testing"
	"time"

	"github.com/iwvelando/payoff-planner/pkg/debt"
	"github.com/shopspring/decimal"
)

func balance(id, principal, rate, minimum string) debt.Balance {
	return debt.Balance{
		ID:                        id,
		PrincipalRemaining:        decimal.RequireFromString(principal),
		AnnualInterestRatePercent: decimal.RequireFromString(rate),
		MinimumPayment:            decimal.RequireFromString(minimum),
	}
}

func TestValidateMinimumPayment(t *testing.T) {
	tests := []struct {
		name     string
		balance  debt.Balance
		contains string
	}{
		{"Healthy minimum", balance("card", "5000", "18", "150"), ""},
		{"Paid off", balance("done", "0", "18", "25"), "treated as paid off"},
		{"Below interest", balance("loan", "100000", "30", "2000"), "does not cover first-period interest 2500.00"},
		{"Equal to interest", balance("card", "5000", "18", "75"), "does not cover"},
		{"Barely amortizing", balance("card", "5000", "18", "100"), "25.00 of 100.00 goes to principal"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ValidateMinimumPayment(tt.balance, 12)
			if tt.contains == "" {
				if got != "" {
					t.Errorf("ValidateMinimumPayment() = %q, expected no warning", got)
				}
				return
			}
			if !strings.Contains(got, tt.contains) {
				t.Errorf("ValidateMinimumPayment() = %q, expected to contain %q", got, tt.contains)
			}
		})
	}
}

func TestPlanValidatorValidateAll(t *testing.T) {
	start := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	before := time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC)
	after := time.Date(2028, time.June, 1, 0, 0, 0, 0, time.UTC)
	rank := 1
	ranked := balance("ranked", "1000", "10", "50")
	ranked.PriorityRank = &rank

	tests := []struct {
		name     string
		plan     PlanValidator
		expected []string
	}{
		{
			name: "Clean plan",
			plan: PlanValidator{
				Balances: []debt.Balance{balance("a", "1000", "10", "50"), balance("b", "3000", "22", "90")},
				Strategy: "avalanche", PeriodsPerYear: 12, StartDate: start,
			},
		},
		{
			name: "Ranks ignored",
			plan: PlanValidator{
				Balances: []debt.Balance{ranked, balance("b", "3000", "22", "90")},
				Strategy: "snowball", PeriodsPerYear: 12,
			},
			expected: []string{"ignored by the snowball strategy"},
		},
		{
			name: "Custom without ranks",
			plan: PlanValidator{
				Balances: []debt.Balance{balance("a", "1000", "10", "50"), balance("b", "3000", "22", "90")},
				Strategy: "custom", PeriodsPerYear: 12,
			},
			expected: []string{"orders debts by id"},
		},
		{
			name: "Target before start without budget",
			plan: PlanValidator{
				Balances: []debt.Balance{balance("a", "1000", "10", "50")},
				Strategy: "avalanche", PeriodsPerYear: 12, StartDate: start, TargetPayoffDate: &before,
			},
			expected: []string{"before the start date", "without a positive maxSearchBudget"},
		},
		{
			name: "Target with budget",
			plan: PlanValidator{
				Balances: []debt.Balance{balance("a", "1000", "10", "50")},
				Strategy: "avalanche", PeriodsPerYear: 12, StartDate: start, TargetPayoffDate: &after,
				MaxSearchBudget: decimal.NewFromInt(500),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			warnings := tt.plan.ValidateAll()
			if len(warnings) != len(tt.expected) {
				t.Fatalf("ValidateAll() = %v, expected %d warnings", warnings, len(tt.expected))
			}
			for i, expected := range tt.expected {
				if !strings.Contains(warnings[i], expected) {
					t.Errorf("warning %d = %q, expected to contain %q", i, warnings[i], expected)
				}
			}
		})
	}
}
