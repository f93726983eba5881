package testutil

import (
	"reflect"
	"testing"

	"github.com/iwvelando/payoff-planner/pkg/debt"
	"github.com/shopspring/decimal"
)

func TestFindScenario(t *testing.T) {
	results := []debt.PayoffScenario{
		{ID: "1", StrategyUsed: "snowball", TotalMonths: 21},
		{ID: "2", StrategyUsed: "avalanche", TotalMonths: 20},
		{ID: "3", StrategyUsed: "custom", TotalMonths: 22},
	}

	tests := []struct {
		name        string
		strategy    string
		expectFound bool
		expectedID  string
	}{
		{"Find snowball", "snowball", true, "1"},
		{"Find avalanche", "avalanche", true, "2"},
		{"Find custom", "custom", true, "3"},
		{"Search for missing strategy", "highest-balance", false, ""},
		{"Empty strategy", "", false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FindScenario(results, tt.strategy)
			if !tt.expectFound {
				if got != nil {
					t.Errorf("FindScenario() = %+v, expected nil", got)
				}
				return
			}
			if got == nil {
				t.Fatalf("FindScenario() = nil, expected scenario %s", tt.expectedID)
			}
			if got.ID != tt.expectedID {
				t.Errorf("FindScenario().ID = %s, expected %s", got.ID, tt.expectedID)
			}
			// Returned pointer refers to the slice element.
			if got != &results[0] && got != &results[1] && got != &results[2] {
				t.Error("FindScenario() returned a copy")
			}
		})
	}

	if FindScenario(nil, "snowball") != nil {
		t.Error("FindScenario(nil) expected nil")
	}
}

func TestPaymentsFor(t *testing.T) {
	scenario := debt.PayoffScenario{
		Timeline: []debt.ScenarioPeriod{
			{PeriodIndex: 1, Payments: map[string]decimal.Decimal{"a": decimal.NewFromInt(50), "b": decimal.NewFromInt(190)}},
			{PeriodIndex: 2, Payments: map[string]decimal.Decimal{"a": decimal.RequireFromString("85.62")}},
		},
	}

	if got := PaymentsFor(scenario, "a"); !reflect.DeepEqual(got, []string{"50.00", "85.62"}) {
		t.Errorf("PaymentsFor(a) = %v", got)
	}
	if got := PaymentsFor(scenario, "b"); !reflect.DeepEqual(got, []string{"190.00"}) {
		t.Errorf("PaymentsFor(b) = %v", got)
	}
	if got := PaymentsFor(scenario, "c"); got != nil {
		t.Errorf("PaymentsFor(c) = %v, expected nil", got)
	}
}
