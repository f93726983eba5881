// Package debt defines the immutable value types exchanged with the payoff
// planning engine and its error taxonomy.
package debt

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// Balance is a snapshot of one interest-bearing debt or obligation.
type Balance struct {
	ID                        string          `json:"id"`
	Name                      string          `json:"name,omitempty"`
	PrincipalRemaining        decimal.Decimal `json:"principalRemaining"`
	AnnualInterestRatePercent decimal.Decimal `json:"annualInterestRatePercent"`
	MinimumPayment            decimal.Decimal `json:"minimumPayment"`
	PriorityRank              *int            `json:"priorityRank,omitempty"`
}

// Validate checks the balance for negative amounts.
func (b Balance) Validate() error {
	switch {
	case b.PrincipalRemaining.IsNegative():
		return &InvalidPaymentError{DebtIDs: []string{b.ID}, Reason: "principal remaining must not be negative"}
	case b.AnnualInterestRatePercent.IsNegative():
		return &InvalidPaymentError{DebtIDs: []string{b.ID}, Reason: "annual interest rate must not be negative"}
	case b.MinimumPayment.IsNegative():
		return &InvalidPaymentError{DebtIDs: []string{b.ID}, Reason: "minimum payment must not be negative"}
	}
	return nil
}

// WithPrincipal returns a copy of b carrying a different remaining principal.
func (b Balance) WithPrincipal(principal decimal.Decimal) Balance {
	out := b
	out.PrincipalRemaining = principal
	if b.PriorityRank != nil {
		rank := *b.PriorityRank
		out.PriorityRank = &rank
	}
	return out
}

// AmortizationPeriod holds the values for one payment period.
type AmortizationPeriod struct {
	PeriodIndex      int             `json:"periodIndex"`
	Date             time.Time       `json:"date"`
	PaymentAmount    decimal.Decimal `json:"paymentAmount"`
	InterestPortion  decimal.Decimal `json:"interestPortion"`
	PrincipalPortion decimal.Decimal `json:"principalPortion"`
	EndingBalance    decimal.Decimal `json:"endingBalance"`
}

// StartingBalance reconstructs the balance before this period's payment.
func (p AmortizationPeriod) StartingBalance() decimal.Decimal {
	return p.EndingBalance.Add(p.PrincipalPortion)
}

// Schedule is a chronological sequence of amortization periods.
type Schedule []AmortizationPeriod

// TotalInterest sums the interest portion of every period.
func (s Schedule) TotalInterest() decimal.Decimal {
	total := decimal.Zero
	for _, p := range s {
		total = total.Add(p.InterestPortion)
	}
	return total
}

// TotalPrincipal sums the principal portion of every period.
func (s Schedule) TotalPrincipal() decimal.Decimal {
	total := decimal.Zero
	for _, p := range s {
		total = total.Add(p.PrincipalPortion)
	}
	return total
}

// TotalPaid sums the payment of every period.
func (s Schedule) TotalPaid() decimal.Decimal {
	total := decimal.Zero
	for _, p := range s {
		total = total.Add(p.PaymentAmount)
	}
	return total
}

// FinalBalance returns the ending balance of the last period, or zero for an
// empty schedule.
func (s Schedule) FinalBalance() decimal.Decimal {
	if len(s) == 0 {
		return decimal.Zero
	}
	return s[len(s)-1].EndingBalance
}

// PaidOff reports whether the schedule ends with a zero balance.
func (s Schedule) PaidOff() bool {
	return s.FinalBalance().IsZero()
}

// PayoffProjection summarizes how a single balance is retired. PayoffDate is
// nil when the balance is still open at the period ceiling.
type PayoffProjection struct {
	DebtID             string          `json:"debtId"`
	PayoffDate         *time.Time      `json:"payoffDate"`
	TotalInterestPaid  decimal.Decimal `json:"totalInterestPaid"`
	TotalPrincipalPaid decimal.Decimal `json:"totalPrincipalPaid"`
	// MonthsToPayoff counts payment periods; it equals months for monthly plans.
	MonthsToPayoff int      `json:"monthsToPayoff"`
	Schedule       Schedule `json:"schedule"`
}

// PaidOff reports whether the projection reached a zero balance.
func (p PayoffProjection) PaidOff() bool {
	return p.PayoffDate != nil
}

// ScenarioPeriod aggregates one simulated period across all debts.
type ScenarioPeriod struct {
	PeriodIndex    int                        `json:"periodIndex"`
	Date           time.Time                  `json:"date"`
	FocusDebtID    string                     `json:"focusDebtId,omitempty"`
	Pool           decimal.Decimal            `json:"pool"`
	TotalPaid      decimal.Decimal            `json:"totalPaid"`
	TotalInterest  decimal.Decimal            `json:"totalInterest"`
	TotalPrincipal decimal.Decimal            `json:"totalPrincipal"`
	Payments       map[string]decimal.Decimal `json:"payments"`
}

// PayoffScenario is the aggregate result of a multi-debt simulation.
// Complete is false when the period ceiling was reached with debts still open;
// those debts carry a nil PayoffDate and OverallPayoffDate is nil.
type PayoffScenario struct {
	ID                        string                      `json:"id"`
	StrategyUsed              string                      `json:"strategyUsed"`
	Frequency                 Frequency                   `json:"frequency"`
	ExtraPayment              decimal.Decimal             `json:"extraPayment"`
	PerDebtProjections        map[string]PayoffProjection `json:"perDebtProjections"`
	PayoffOrder               []string                    `json:"payoffOrder"`
	OverallPayoffDate         *time.Time                  `json:"overallPayoffDate"`
	TotalInterestPaidAllDebts decimal.Decimal             `json:"totalInterestPaidAllDebts"`
	TotalMonths               int                         `json:"totalMonths"`
	Complete                  bool                        `json:"complete"`
	Timeline                  []ScenarioPeriod            `json:"timeline,omitempty"`
}

// OpenDebtIDs returns the ids of debts not retired within the simulation.
func (s PayoffScenario) OpenDebtIDs() []string {
	var open []string
	for id, projection := range s.PerDebtProjections {
		if !projection.PaidOff() {
			open = append(open, id)
		}
	}
	sort.Strings(open)
	return open
}
