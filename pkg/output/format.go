// Package output provides utilities for formatting and displaying payoff results.
package output

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/iwvelando/payoff-planner/pkg/datetime"
	"github.com/iwvelando/payoff-planner/pkg/debt"
	"github.com/iwvelando/payoff-planner/pkg/format"
	"github.com/iwvelando/payoff-planner/pkg/optimization"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// ScheduleHeader is the CSV header row for amortization schedules.
var ScheduleHeader = []string{"periodIndex", "paymentAmount", "interestPortion", "principalPortion", "endingBalance"}

// PrettySchedule outputs a human-readable rather than machine-readable table.
func PrettySchedule(w io.Writer, title string, schedule debt.Schedule) {
	p := message.NewPrinter(language.English)
	fmt.Fprintf(w, "--- Schedule for %s ---\n", title)
	fmt.Fprintf(w, "Period | Date    | Payment       | Interest      | Principal     | Balance\n")
	fmt.Fprintf(w, "______ | _______ | _____________ | _____________ | _____________ | _____________\n")
	for _, period := range schedule {
		_, _ = p.Fprintf(w, "%6d | %s | %13s | %13s | %13s | %13s\n",
			period.PeriodIndex,
			formatDate(period),
			format.Currency(period.PaymentAmount),
			format.Currency(period.InterestPortion),
			format.Currency(period.PrincipalPortion),
			format.Currency(period.EndingBalance),
		)
	}
}

func formatDate(period debt.AmortizationPeriod) string {
	if period.Date.IsZero() {
		return "   -   "
	}
	return datetime.FormatMonth(&period.Date)
}

// PrettyScenario outputs the scenario summary followed by one line per debt in
// payoff order. With showSchedules set, each debt's schedule follows.
func PrettyScenario(w io.Writer, scenario debt.PayoffScenario, showSchedules bool) {
	p := message.NewPrinter(language.English)
	fmt.Fprintf(w, "--- Results for strategy %s ---\n", scenario.StrategyUsed)
	if scenario.ID != "" {
		fmt.Fprintf(w, "Scenario:       %s\n", scenario.ID)
	}
	fmt.Fprintf(w, "Frequency:      %s\n", scenario.Frequency)
	fmt.Fprintf(w, "Extra payment:  %s\n", format.Currency(scenario.ExtraPayment))
	_, _ = p.Fprintf(w, "Periods:        %d\n", scenario.TotalMonths)
	fmt.Fprintf(w, "Payoff date:    %s\n", datetime.FormatMonth(scenario.OverallPayoffDate))
	fmt.Fprintf(w, "Total interest: %s\n", format.Currency(scenario.TotalInterestPaidAllDebts))
	if !scenario.Complete {
		fmt.Fprintf(w, "Partial result: %s still open at the period ceiling\n", strings.Join(scenario.OpenDebtIDs(), ", "))
	}

	fmt.Fprintf(w, "\nDebt            | Payoff  | Periods | Interest      | Principal\n")
	fmt.Fprintf(w, "____            | ______  | _______ | _____________ | _____________\n")
	for _, id := range DebtOrder(scenario) {
		projection := scenario.PerDebtProjections[id]
		_, _ = p.Fprintf(w, "%-15s | %-7s | %7d | %13s | %13s\n",
			id,
			datetime.FormatMonth(projection.PayoffDate),
			projection.MonthsToPayoff,
			format.Currency(projection.TotalInterestPaid),
			format.Currency(projection.TotalPrincipalPaid),
		)
	}

	if showSchedules {
		for _, id := range DebtOrder(scenario) {
			fmt.Fprintf(w, "\n")
			PrettySchedule(w, id, scenario.PerDebtProjections[id].Schedule)
		}
	}
}

// PrettyComparison outputs one summary line per scenario.
func PrettyComparison(w io.Writer, scenarios []debt.PayoffScenario) {
	p := message.NewPrinter(language.English)
	fmt.Fprintf(w, "Strategy   | Payoff  | Periods | Total interest | Payoff order\n")
	fmt.Fprintf(w, "________   | ______  | _______ | ______________ | ____________\n")
	for _, scenario := range scenarios {
		_, _ = p.Fprintf(w, "%-10s | %-7s | %7d | %14s | %s\n",
			scenario.StrategyUsed,
			datetime.FormatMonth(scenario.OverallPayoffDate),
			scenario.TotalMonths,
			format.Currency(scenario.TotalInterestPaidAllDebts),
			strings.Join(scenario.PayoffOrder, " > "),
		)
	}
}

// PrettySummary outputs the result of a target payoff date search.
func PrettySummary(w io.Writer, summary optimization.Summary) {
	fmt.Fprintf(w, "--- Target payoff search (%s) ---\n", summary.Strategy)
	fmt.Fprintf(w, "Target:         %s\n", datetime.FormatMonth(&summary.Target))
	fmt.Fprintf(w, "Extra payment:  %s (max %s)\n", summary.ValueDisplay, summary.MaxBudgetDisplay)
	fmt.Fprintf(w, "Payoff date:    %s\n", datetime.FormatMonth(summary.PayoffDate))
	fmt.Fprintf(w, "Iterations:     %d (converged %t)\n", summary.Iterations, summary.Converged)
	for _, note := range summary.Notes {
		fmt.Fprintf(w, "Note:           %s\n", note)
	}
}

// DebtOrder returns the debt ids of a scenario in payoff order followed by
// any debts still open.
func DebtOrder(scenario debt.PayoffScenario) []string {
	ids := make([]string, 0, len(scenario.PerDebtProjections))
	ids = append(ids, scenario.PayoffOrder...)
	return append(ids, scenario.OpenDebtIDs()...)
}

// CsvSchedule writes one row per period in comma-separated value format.
func CsvSchedule(w io.Writer, schedule debt.Schedule) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(ScheduleHeader); err != nil {
		return err
	}
	for _, period := range schedule {
		if err := writer.Write(scheduleRow(period)); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// CsvScenario writes every debt's schedule in payoff order, prefixing each row
// with the debt id.
func CsvScenario(w io.Writer, scenario debt.PayoffScenario) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(append([]string{"debtId"}, ScheduleHeader...)); err != nil {
		return err
	}
	for _, id := range DebtOrder(scenario) {
		for _, period := range scenario.PerDebtProjections[id].Schedule {
			if err := writer.Write(append([]string{id}, scheduleRow(period)...)); err != nil {
				return err
			}
		}
	}
	writer.Flush()
	return writer.Error()
}

// ScheduleCSV returns the CSV rendering of schedule as a string.
func ScheduleCSV(schedule debt.Schedule) (string, error) {
	var builder strings.Builder
	if err := CsvSchedule(&builder, schedule); err != nil {
		return "", err
	}
	return builder.String(), nil
}

// ScenarioCSV returns the CSV rendering of scenario as a string.
func ScenarioCSV(scenario debt.PayoffScenario) (string, error) {
	var builder strings.Builder
	if err := CsvScenario(&builder, scenario); err != nil {
		return "", err
	}
	return builder.String(), nil
}

func scheduleRow(period debt.AmortizationPeriod) []string {
	return []string{
		strconv.Itoa(period.PeriodIndex),
		format.Plain(period.PaymentAmount),
		format.Plain(period.InterestPortion),
		format.Plain(period.PrincipalPortion),
		format.Plain(period.EndingBalance),
	}
}
