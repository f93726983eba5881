package output

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"github.com/iwvelando/payoff-planner/pkg/debt"
	"github.com/iwvelando/payoff-planner/pkg/optimization"
	"github.com/shopspring/decimal"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func testSchedule() debt.Schedule {
	return debt.Schedule{
		{PeriodIndex: 1, Date: time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC), PaymentAmount: d("150"),
			InterestPortion: d("75"), PrincipalPortion: d("75"), EndingBalance: d("4925")},
		{PeriodIndex: 2, Date: time.Date(2026, time.February, 1, 0, 0, 0, 0, time.UTC), PaymentAmount: d("150"),
			InterestPortion: d("73.88"), PrincipalPortion: d("76.12"), EndingBalance: d("4848.88")},
	}
}

func testScenario() debt.PayoffScenario {
	payoff := time.Date(2026, time.February, 1, 0, 0, 0, 0, time.UTC)
	return debt.PayoffScenario{
		ID:           "scenario-1",
		StrategyUsed: "avalanche",
		Frequency:    debt.FrequencyMonthly,
		ExtraPayment: d("100"),
		PerDebtProjections: map[string]debt.PayoffProjection{
			"card": {DebtID: "card", Schedule: testSchedule(), TotalInterestPaid: d("148.88"), TotalPrincipalPaid: d("151.12")},
			"loan": {DebtID: "loan", PayoffDate: &payoff, MonthsToPayoff: 2, TotalInterestPaid: d("1.5"),
				TotalPrincipalPaid: d("200"), Schedule: debt.Schedule{{PeriodIndex: 1, PaymentAmount: d("101.5"),
					InterestPortion: d("1.5"), PrincipalPortion: d("100"), EndingBalance: d("100")}}},
		},
		PayoffOrder:               []string{"loan"},
		TotalInterestPaidAllDebts: d("150.38"),
		TotalMonths:               2,
		Complete:                  false,
	}
}

func TestPrettySchedule(t *testing.T) {
	var buf bytes.Buffer
	PrettySchedule(&buf, "card", testSchedule())
	output := buf.String()

	for _, expected := range []string{
		"--- Schedule for card ---",
		"Period | Date    | Payment",
		"2026-01",
		"$4,925.00",
		"$4,848.88",
		"$73.88",
	} {
		if !strings.Contains(output, expected) {
			t.Errorf("PrettySchedule output missing %q:\n%s", expected, output)
		}
	}
}

func TestPrettyScenario(t *testing.T) {
	var buf bytes.Buffer
	PrettyScenario(&buf, testScenario(), true)
	output := buf.String()

	for _, expected := range []string{
		"--- Results for strategy avalanche ---",
		"Scenario:       scenario-1",
		"Extra payment:  $100.00",
		"Payoff date:    never",
		"Partial result: card still open",
		"loan            | 2026-02",
		"card            | never",
		"--- Schedule for loan ---",
		"--- Schedule for card ---",
	} {
		if !strings.Contains(output, expected) {
			t.Errorf("PrettyScenario output missing %q:\n%s", expected, output)
		}
	}
	if strings.Index(output, "loan            |") > strings.Index(output, "card            |") {
		t.Error("PrettyScenario should list retired debts before open ones")
	}
}

func TestPrettyComparison(t *testing.T) {
	var buf bytes.Buffer
	scenarios := []debt.PayoffScenario{testScenario(), testScenario()}
	scenarios[1].StrategyUsed = "snowball"
	PrettyComparison(&buf, scenarios)
	output := buf.String()

	if !strings.Contains(output, "avalanche") || !strings.Contains(output, "snowball") {
		t.Errorf("PrettyComparison missing strategies:\n%s", output)
	}
	if !strings.Contains(output, "$150.38") {
		t.Errorf("PrettyComparison missing total interest:\n%s", output)
	}
}

func TestPrettySummary(t *testing.T) {
	var buf bytes.Buffer
	PrettySummary(&buf, optimization.Summary{
		Strategy:         "snowball",
		Target:           time.Date(2028, time.January, 1, 0, 0, 0, 0, time.UTC),
		ValueDisplay:     "$42.17",
		MaxBudgetDisplay: "$500.00",
		Iterations:       16,
		Converged:        true,
		Notes:            []string{"example note"},
	})
	output := buf.String()
	for _, expected := range []string{"Target:         2028-01", "$42.17 (max $500.00)", "Payoff date:    never", "example note"} {
		if !strings.Contains(output, expected) {
			t.Errorf("PrettySummary output missing %q:\n%s", expected, output)
		}
	}
}

func TestCsvSchedule(t *testing.T) {
	var buf bytes.Buffer
	if err := CsvSchedule(&buf, testSchedule()); err != nil {
		t.Fatalf("CsvSchedule() error = %v", err)
	}

	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("output is not valid CSV: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("got %d records, expected header plus 2 rows", len(records))
	}
	if strings.Join(records[0], ",") != "periodIndex,paymentAmount,interestPortion,principalPortion,endingBalance" {
		t.Errorf("header = %v", records[0])
	}
	if strings.Join(records[1], ",") != "1,150.00,75.00,75.00,4925.00" {
		t.Errorf("first row = %v", records[1])
	}
	if strings.Join(records[2], ",") != "2,150.00,73.88,76.12,4848.88" {
		t.Errorf("second row = %v", records[2])
	}
}

func TestCsvScenario(t *testing.T) {
	var buf bytes.Buffer
	if err := CsvScenario(&buf, testScenario()); err != nil {
		t.Fatalf("CsvScenario() error = %v", err)
	}
	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("output is not valid CSV: %v", err)
	}
	if len(records) != 4 {
		t.Fatalf("got %d records, expected header plus 3 rows", len(records))
	}
	if records[0][0] != "debtId" || records[1][0] != "loan" || records[2][0] != "card" {
		t.Errorf("unexpected debt ordering: %v", records)
	}
}

func TestScheduleCSV(t *testing.T) {
	got, err := ScheduleCSV(testSchedule()[:1])
	if err != nil {
		t.Fatalf("ScheduleCSV() error = %v", err)
	}
	expected := "periodIndex,paymentAmount,interestPortion,principalPortion,endingBalance\n1,150.00,75.00,75.00,4925.00\n"
	if got != expected {
		t.Errorf("ScheduleCSV() = %q, expected %q", got, expected)
	}
}
