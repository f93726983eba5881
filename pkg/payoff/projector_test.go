package payoff

import (
	"errors"
	"testing"
	"time"

	"github.com/iwvelando/payoff-planner/pkg/amortization"
	"github.com/iwvelando/payoff-planner/pkg/debt"
	"github.com/iwvelando/payoff-planner/pkg/mathutil"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func card() debt.Balance {
	return debt.Balance{
		ID:                        "card",
		PrincipalRemaining:        d("5000"),
		AnnualInterestRatePercent: d("18"),
		MinimumPayment:            d("150"),
	}
}

func newTestProjector() *Projector {
	start := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	calc := amortization.NewCalculator(zap.NewNop(), amortization.WithStartDate(start))
	return NewProjector(zap.NewNop(), calc, 0)
}

func TestProject(t *testing.T) {
	projector := newTestProjector()

	projection, err := projector.Project(card(), d("150"))
	if err != nil {
		t.Fatalf("Project() error = %v", err)
	}
	if projection.DebtID != "card" {
		t.Errorf("DebtID = %q, expected card", projection.DebtID)
	}
	if projection.MonthsToPayoff != 47 {
		t.Errorf("MonthsToPayoff = %d, expected 47", projection.MonthsToPayoff)
	}
	if projection.PayoffDate == nil {
		t.Fatal("PayoffDate should be set")
	}
	if got := projection.PayoffDate; got.Year() != 2029 || got.Month() != time.November {
		t.Errorf("PayoffDate = %v, expected 2029-11", got)
	}
	if !projection.TotalInterestPaid.Equal(d("1983.61")) {
		t.Errorf("TotalInterestPaid = %s, expected 1983.61", projection.TotalInterestPaid)
	}
	if !projection.TotalPrincipalPaid.Equal(d("5000")) {
		t.Errorf("TotalPrincipalPaid = %s, expected 5000", projection.TotalPrincipalPaid)
	}
}

func TestProjectCeilingLeavesPayoffDateNil(t *testing.T) {
	calc := amortization.NewCalculator(zap.NewNop())
	projector := NewProjector(zap.NewNop(), calc, 24)

	projection, err := projector.Project(card(), d("150"))
	if err != nil {
		t.Fatalf("Project() error = %v", err)
	}
	if projection.PaidOff() {
		t.Error("projection should not be paid off within 24 periods")
	}
	if projection.MonthsToPayoff != 0 {
		t.Errorf("MonthsToPayoff = %d, expected 0 for an open balance", projection.MonthsToPayoff)
	}
	if len(projection.Schedule) != 24 {
		t.Errorf("schedule length = %d, expected 24", len(projection.Schedule))
	}
}

func TestProjectZeroPrincipal(t *testing.T) {
	projector := newTestProjector()
	balance := card().WithPrincipal(decimal.Zero)

	projection, err := projector.Project(balance, d("150"))
	if err != nil {
		t.Fatalf("Project() error = %v", err)
	}
	if !projection.PaidOff() || projection.MonthsToPayoff != 0 {
		t.Errorf("zero principal projection = %+v, expected paid off in 0 periods", projection)
	}
}

func TestProjectErrors(t *testing.T) {
	projector := newTestProjector()

	tests := []struct {
		name     string
		balance  debt.Balance
		payment  string
		sentinel error
	}{
		{"Zero payment", card(), "0", debt.ErrInvalidPayment},
		{"Negative payment", card(), "-10", debt.ErrInvalidPayment},
		{"Negative principal", card().WithPrincipal(d("-1")), "150", debt.ErrInvalidPayment},
		{"Payment below interest", card(), "60", debt.ErrNonAmortizingPayment},
		{"Payment equal to interest", card(), "75", debt.ErrNonAmortizingPayment},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := projector.Project(tt.balance, d(tt.payment))
			if !errors.Is(err, tt.sentinel) {
				t.Fatalf("Project() error = %v, expected %v", err, tt.sentinel)
			}
		})
	}
}

func TestProjectNonAmortizingCarriesDebtID(t *testing.T) {
	projector := newTestProjector()
	_, err := projector.Project(card(), d("60"))

	var nonAmortizing *debt.NonAmortizingPaymentError
	if !errors.As(err, &nonAmortizing) {
		t.Fatalf("expected *NonAmortizingPaymentError, got %T", err)
	}
	if len(nonAmortizing.DebtIDs) != 1 || nonAmortizing.DebtIDs[0] != "card" {
		t.Errorf("DebtIDs = %v, expected [card]", nonAmortizing.DebtIDs)
	}
}

func TestCalculateInterestSavings(t *testing.T) {
	projector := newTestProjector()

	saved, err := projector.CalculateInterestSavings(card(), d("150"), d("50"))
	if err != nil {
		t.Fatalf("CalculateInterestSavings() error = %v", err)
	}
	if !saved.Equal(d("669.64")) {
		t.Errorf("savings = %s, expected 669.64", saved)
	}

	none, err := projector.CalculateInterestSavings(card(), d("150"), decimal.Zero)
	if err != nil {
		t.Fatalf("CalculateInterestSavings() error = %v", err)
	}
	if !none.IsZero() {
		t.Errorf("savings with zero extra = %s, expected 0", none)
	}

	if _, err := projector.CalculateInterestSavings(card(), d("150"), d("-1")); !errors.Is(err, debt.ErrInvalidPayment) {
		t.Errorf("negative extra error = %v, expected ErrInvalidPayment", err)
	}
}

func TestCalculateInterestSavingsNeverNegative(t *testing.T) {
	projector := NewProjector(zap.NewNop(), nil, 360)

	principals := []string{"0", "0.01", "250", "4999.99", "18000", "250000"}
	rates := []string{"0", "3.25", "12", "24.99"}
	extras := []string{"0", "0.01", "25", "100", "5000"}

	for _, principal := range principals {
		for _, rate := range rates {
			balance := debt.Balance{ID: "grid", PrincipalRemaining: d(principal), AnnualInterestRatePercent: d(rate)}
			interest := mathutil.PeriodicInterest(d(principal), d(rate), 12, mathutil.Round)
			for _, baselineOffset := range []string{"0.01", "10", "500"} {
				baseline := interest.Add(d(baselineOffset))
				for _, extra := range extras {
					comparison, err := projector.CompareExtraPayment(balance, baseline, d(extra))
					if err != nil {
						t.Fatalf("CompareExtraPayment(%s@%s, %s, %s) error = %v", principal, rate, baseline, extra, err)
					}
					diff := comparison.Baseline.TotalInterestPaid.Sub(comparison.Accelerated.TotalInterestPaid)
					if diff.IsNegative() || comparison.PeriodsSaved < 0 {
						t.Fatalf("CompareExtraPayment(%s@%s, %s, %s) saved %s interest and %d periods, expected both >= 0",
							principal, rate, baseline, extra, diff, comparison.PeriodsSaved)
					}
					if !comparison.InterestSaved.Equal(diff) {
						t.Fatalf("InterestSaved = %s, expected baseline minus accelerated interest %s", comparison.InterestSaved, diff)
					}
					for i, period := range comparison.Accelerated.Schedule {
						if i < len(comparison.Baseline.Schedule) &&
							period.EndingBalance.GreaterThan(comparison.Baseline.Schedule[i].EndingBalance) {
							t.Fatalf("period %d accelerated balance %s above baseline %s",
								period.PeriodIndex, period.EndingBalance, comparison.Baseline.Schedule[i].EndingBalance)
						}
					}
				}
			}
		}
	}
}

func TestCompareExtraPayment(t *testing.T) {
	projector := newTestProjector()

	comparison, err := projector.CompareExtraPayment(card(), d("150"), d("50"))
	if err != nil {
		t.Fatalf("CompareExtraPayment() error = %v", err)
	}
	if comparison.PeriodsSaved != 15 {
		t.Errorf("PeriodsSaved = %d, expected 15", comparison.PeriodsSaved)
	}
	if !comparison.Accelerated.TotalInterestPaid.Equal(d("1313.97")) {
		t.Errorf("accelerated interest = %s, expected 1313.97", comparison.Accelerated.TotalInterestPaid)
	}
}

func TestCalculateMinimumPaymentUnaffordable(t *testing.T) {
	projector := newTestProjector()

	tests := []struct {
		name    string
		minimum string
	}{
		{"Below interest-only threshold", "2000"},
		{"At interest-only threshold", "2500"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			balance := debt.Balance{
				ID:                        "loan",
				PrincipalRemaining:        d("100000"),
				AnnualInterestRatePercent: d("30"),
				MinimumPayment:            d(tt.minimum),
			}
			_, err := projector.CalculateMinimumPayment(balance)
			if !errors.Is(err, debt.ErrUnaffordableDebt) {
				t.Fatalf("CalculateMinimumPayment() error = %v, expected ErrUnaffordableDebt", err)
			}
			var unaffordable *debt.UnaffordableDebtError
			if !errors.As(err, &unaffordable) {
				t.Fatalf("expected *UnaffordableDebtError, got %T", err)
			}
			if unaffordable.DebtID != "loan" {
				t.Errorf("DebtID = %q, expected loan", unaffordable.DebtID)
			}
			if !unaffordable.InterestOnly.Equal(d("2500")) {
				t.Errorf("InterestOnly = %s, expected 2500", unaffordable.InterestOnly)
			}
			if !unaffordable.RequiredPayment.GreaterThan(unaffordable.InterestOnly) {
				t.Errorf("RequiredPayment = %s, expected above 2500", unaffordable.RequiredPayment)
			}
			if unaffordable.MaxPeriods != 1200 {
				t.Errorf("MaxPeriods = %d, expected 1200", unaffordable.MaxPeriods)
			}
		})
	}
}

func TestCalculateMinimumPaymentSmallestRetiring(t *testing.T) {
	calc := amortization.NewCalculator(zap.NewNop())
	projector := NewProjector(zap.NewNop(), calc, 60)

	balance := debt.Balance{ID: "car", PrincipalRemaining: d("20000"), AnnualInterestRatePercent: d("4")}
	payment, err := projector.CalculateMinimumPayment(balance)
	if err != nil {
		t.Fatalf("CalculateMinimumPayment() error = %v", err)
	}

	schedule, err := calc.GenerateSchedule(balance.PrincipalRemaining, balance.AnnualInterestRatePercent, payment, 60)
	if err != nil || !schedule.PaidOff() {
		t.Fatalf("payment %s does not retire the balance within 60 periods (err %v)", payment, err)
	}
	smaller, err := calc.GenerateSchedule(balance.PrincipalRemaining, balance.AnnualInterestRatePercent, payment.Sub(mathutil.Cent), 60)
	if err == nil && smaller.PaidOff() {
		t.Errorf("payment %s is not the smallest retiring payment", payment)
	}
	if payment.LessThan(d("368")) || payment.GreaterThan(d("369")) {
		t.Errorf("payment = %s, expected about 368.33", payment)
	}
}

func TestCalculateMinimumPaymentKeepsLargerMinimum(t *testing.T) {
	projector := newTestProjector()

	payment, err := projector.CalculateMinimumPayment(card())
	if err != nil {
		t.Fatalf("CalculateMinimumPayment() error = %v", err)
	}
	if !payment.Equal(d("150")) {
		t.Errorf("CalculateMinimumPayment() = %s, expected supplied minimum 150", payment)
	}

	zero, err := projector.CalculateMinimumPayment(card().WithPrincipal(decimal.Zero))
	if err != nil {
		t.Fatalf("CalculateMinimumPayment() error = %v", err)
	}
	if !zero.Equal(d("150")) {
		t.Errorf("CalculateMinimumPayment() on zero balance = %s, expected 150", zero)
	}
}
